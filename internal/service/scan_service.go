package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/notify"
	"github.com/alanyoungcy/polyscan/internal/scanner"
)

// scanChannel is the pub/sub channel and stream that scan results are
// announced on.
const scanChannel = "scans"

// ScanRequest describes one scan invocation. Either ClusterID references a
// stored cluster definition, or Name plus MarketIDs define an ad-hoc one.
type ScanRequest struct {
	ClusterID string             `json:"clusterId,omitempty"`
	Name      string             `json:"name,omitempty"`
	MarketIDs []string           `json:"marketIds,omitempty"`
	Type      domain.ClusterType `json:"type,omitempty"`

	// Thresholds overrides extraction; left nil, threshold clusters get
	// their config parsed out of the question text.
	Thresholds *domain.ThresholdConfig `json:"thresholds,omitempty"`
	Config     *domain.ScannerConfig   `json:"config,omitempty"`
}

// ScanService resolves a scan request into a concrete cluster, runs the
// scanner over it, and fans the result out to subscribers and the archive.
// The bus and archive are optional; a nil dependency skips that step.
type ScanService struct {
	provider domain.MarketProvider
	clusters domain.ClusterStore
	bus      domain.SignalBus
	archive  domain.BlobWriter
	scanner  *scanner.Scanner
	defaults *domain.ScannerConfig
	notifier *notify.Notifier
	logger   *slog.Logger
}

func NewScanService(
	provider domain.MarketProvider,
	clusters domain.ClusterStore,
	bus domain.SignalBus,
	archive domain.BlobWriter,
	sc *scanner.Scanner,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		provider: provider,
		clusters: clusters,
		bus:      bus,
		archive:  archive,
		scanner:  sc,
		logger:   logger,
	}
}

// WithDefaults sets the scanner configuration applied to requests that carry
// none of their own, replacing the built-in defaults.
func (s *ScanService) WithDefaults(cfg domain.ScannerConfig) *ScanService {
	s.defaults = &cfg
	return s
}

// WithNotifier enables severity-filtered alerting on completed scans.
func (s *ScanService) WithNotifier(n *notify.Notifier) *ScanService {
	s.notifier = n
	return s
}

// Scan resolves the request, runs every enabled rule, publishes the result,
// and returns it.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) (domain.ScanResult, error) {
	cluster, err := s.resolveCluster(ctx, req)
	if err != nil {
		return domain.ScanResult{}, err
	}

	cfg := domain.DefaultScannerConfig()
	if s.defaults != nil {
		cfg = *s.defaults
	}
	if req.Config != nil {
		cfg = *req.Config
	}

	result := s.scanner.ScanCluster(cluster, cfg)

	s.announce(ctx, result)
	s.archiveResult(ctx, result)
	s.alert(ctx, result)

	return result, nil
}

// resolveCluster turns a request into a fully populated cluster: markets
// from the provider, a detected type when none is given, and an extracted
// threshold config for threshold clusters.
func (s *ScanService) resolveCluster(ctx context.Context, req ScanRequest) (domain.MarketCluster, error) {
	cluster := domain.MarketCluster{
		Name:       req.Name,
		Type:       req.Type,
		Thresholds: req.Thresholds,
	}
	ids := req.MarketIDs

	if req.ClusterID != "" {
		if s.clusters == nil {
			return domain.MarketCluster{}, fmt.Errorf("scan_service: cluster %q: no cluster store configured", req.ClusterID)
		}
		def, err := s.clusters.GetByID(ctx, req.ClusterID)
		if err != nil {
			return domain.MarketCluster{}, fmt.Errorf("scan_service: load cluster %q: %w", req.ClusterID, err)
		}
		cluster.ID = def.ID
		cluster.Name = def.Name
		cluster.Type = def.Type
		cluster.Thresholds = def.Thresholds
		ids = def.MarketIDs
	}

	if len(ids) == 0 {
		return domain.MarketCluster{}, fmt.Errorf("scan_service: %w: no markets in request", domain.ErrInvalidCluster)
	}

	markets, err := s.provider.SnapshotAll(ctx, ids)
	if err != nil {
		return domain.MarketCluster{}, fmt.Errorf("scan_service: resolve markets: %w", err)
	}
	cluster.Markets = markets

	if cluster.Type == "" {
		cluster.Type = scanner.DetectClusterType(markets)
	}
	if cluster.Type == domain.ClusterThreshold && cluster.Thresholds == nil {
		cluster.Thresholds = &domain.ThresholdConfig{
			Markets: scanner.ExtractThresholds(markets),
		}
	}
	return cluster, nil
}

// announce publishes the result on the scan channel and appends it to the
// scan stream. Failures are logged, never fatal: the caller still gets the
// result.
func (s *ScanService) announce(ctx context.Context, result domain.ScanResult) {
	if s.bus == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.WarnContext(ctx, "scan_service: marshal result failed",
			slog.String("scan_id", result.ScanID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.bus.Publish(ctx, scanChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "scan_service: publish failed",
			slog.String("scan_id", result.ScanID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.bus.StreamAppend(ctx, scanChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "scan_service: stream append failed",
			slog.String("scan_id", result.ScanID),
			slog.String("error", err.Error()),
		)
	}
}

// archiveResult writes the result to blob storage under a date-partitioned
// key. Optional and non-fatal like announce.
func (s *ScanService) archiveResult(ctx context.Context, result domain.ScanResult) {
	if s.archive == nil {
		return
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.WarnContext(ctx, "scan_service: marshal archive failed",
			slog.String("scan_id", result.ScanID),
			slog.String("error", err.Error()),
		)
		return
	}

	key := fmt.Sprintf("scans/%s/%s.json", result.ScannedAt.Format("2006/01/02"), result.ScanID)
	if err := s.archive.Put(ctx, key, bytes.NewReader(payload), "application/json"); err != nil {
		s.logger.WarnContext(ctx, "scan_service: archive failed",
			slog.String("scan_id", result.ScanID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.InfoContext(ctx, "scan_service: result archived",
		slog.String("scan_id", result.ScanID),
		slog.String("key", key),
	)
}

// alert pushes severe flags to the notifier. Optional and non-fatal like
// announce.
func (s *ScanService) alert(ctx context.Context, result domain.ScanResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ScanAlert(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "scan_service: alert failed",
			slog.String("scan_id", result.ScanID),
			slog.String("error", err.Error()),
		)
	}
}

// RecentScans replays scan results from the durable stream in stream order,
// up to limit entries.
func (s *ScanService) RecentScans(ctx context.Context, limit int) ([]domain.ScanResult, error) {
	if s.bus == nil {
		return nil, fmt.Errorf("scan_service: recent scans: no signal bus configured")
	}

	msgs, err := s.bus.StreamRead(ctx, scanChannel, "0", limit)
	if err != nil {
		return nil, fmt.Errorf("scan_service: stream read: %w", err)
	}

	results := make([]domain.ScanResult, 0, len(msgs))
	for _, msg := range msgs {
		var r domain.ScanResult
		if err := json.Unmarshal(msg.Payload, &r); err != nil {
			s.logger.WarnContext(ctx, "scan_service: skip malformed stream entry",
				slog.String("entry_id", msg.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
