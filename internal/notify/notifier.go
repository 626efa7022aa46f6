// Package notify delivers scan alerts to external channels. Completed scans
// are filtered by flag severity and dispatched to every configured sender
// (Telegram, Discord), so operators hear about serious mispricings without
// watching the dashboard.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Sender is one delivery channel for alerts.
type Sender interface {
	// Send delivers an alert with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier turns scan results into alerts. Only flags whose severity bucket
// is at or above the configured minimum are reported; a scan with no
// qualifying flags produces no message.
type Notifier struct {
	senders     []Sender
	minSeverity domain.Severity
	logger      *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Flags below
// minSeverity are ignored; an empty minSeverity means high only.
func NewNotifier(senders []Sender, minSeverity domain.Severity, logger *slog.Logger) *Notifier {
	if minSeverity == "" {
		minSeverity = domain.SeverityHigh
	}
	return &Notifier{
		senders:     senders,
		minSeverity: minSeverity,
		logger:      logger.With(slog.String("component", "notifier")),
	}
}

// severityRank orders the display buckets for threshold comparison.
func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 2
	case domain.SeverityMedium:
		return 1
	default:
		return 0
	}
}

// ScanAlert reports the qualifying flags of a completed scan. It returns nil
// when no flag reaches the severity threshold or no senders are configured.
func (n *Notifier) ScanAlert(ctx context.Context, result domain.ScanResult) error {
	if len(n.senders) == 0 {
		return nil
	}

	var qualifying []domain.ScannerFlag
	for _, f := range result.Flags {
		if severityRank(f.Severity) >= severityRank(n.minSeverity) {
			qualifying = append(qualifying, f)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	title := fmt.Sprintf("%s: %d flag(s)", result.Cluster.Name, len(qualifying))
	message := formatFlags(qualifying)

	return n.dispatch(ctx, title, message)
}

// formatFlags renders one line per flag: severity, title, and the potential
// profit per dollar when the rule computed one.
func formatFlags(flags []domain.ScannerFlag) string {
	var b strings.Builder
	for i, f := range flags {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(f.Severity)), f.Title)
		if f.PotentialProfit != nil {
			fmt.Fprintf(&b, " (profit %.2f%%/$1)", *f.PotentialProfit*100)
		}
	}
	return b.String()
}

// dispatch sends to every sender, collecting failures so one bad channel
// does not block the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}
