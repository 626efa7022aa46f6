package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyscan/internal/analysis"
	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/provider"
	"github.com/alanyoungcy/polyscan/internal/scanner"
	"github.com/alanyoungcy/polyscan/internal/server"
	"github.com/alanyoungcy/polyscan/internal/server/handler"
	"github.com/alanyoungcy/polyscan/internal/server/ws"
	"github.com/alanyoungcy/polyscan/internal/service"
)

// services groups the service layer built on top of the wired dependencies.
type services struct {
	scans    *service.ScanService
	analysis *service.AnalysisService
	clusters *service.ClusterService
	markets  *service.MarketService
}

// ServerMode runs the HTTP and WebSocket API until the context is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)

	return g.Wait()
}

// FullMode runs the API server plus a background loop that periodically
// re-scans every stored cluster, so flags keep flowing without API traffic.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode",
		slog.Int("rescan_minutes", a.cfg.Scan.RescanMinutes),
	)

	g, ctx := errgroup.WithContext(ctx)

	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)

	g.Go(func() error {
		return a.rescanLoop(ctx, svcs.scans, deps)
	})

	return g.Wait()
}

// ScanMode performs a one-shot scan: markets are loaded from the configured
// JSON file, grouped into a single cluster, scanned, and the result is
// printed to stdout.
func (a *App) ScanMode(ctx context.Context) error {
	markets, err := loadMarketsFile(a.cfg.Scan.MarketsFile)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	if len(markets) == 0 {
		return fmt.Errorf("scan mode: %s contains no markets", a.cfg.Scan.MarketsFile)
	}

	cluster := domain.MarketCluster{
		ID:      uuid.NewString(),
		Name:    a.cfg.Scan.ClusterName,
		Type:    domain.ClusterType(a.cfg.Scan.ClusterType),
		Markets: markets,
	}
	if cluster.Type == "" {
		cluster.Type = scanner.DetectClusterType(markets)
	}
	if cluster.Type == domain.ClusterThreshold {
		cluster.Thresholds = &domain.ThresholdConfig{
			Markets: scanner.ExtractThresholds(markets),
		}
	}

	a.logger.InfoContext(ctx, "scanning markets file",
		slog.String("file", a.cfg.Scan.MarketsFile),
		slog.Int("markets", len(markets)),
		slog.String("cluster_type", string(cluster.Type)),
	)

	result := scanner.New(a.logger).ScanCluster(cluster, a.cfg.Scanner.Rules())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("scan mode: encode result: %w", err)
	}
	return nil
}

// buildServices assembles the service layer. Postgres is always present in
// the modes that call this; Redis and S3 degrade to nil.
func (a *App) buildServices(deps *Dependencies) *services {
	prov := provider.NewReadThrough(deps.MarketStore, deps.MarketCache, a.logger)

	scans := service.NewScanService(
		prov,
		deps.ClusterStore,
		deps.SignalBus,
		deps.BlobWriter,
		scanner.New(a.logger),
		a.logger,
	).WithDefaults(a.cfg.Scanner.Rules())
	if deps.Notifier != nil {
		scans = scans.WithNotifier(deps.Notifier)
	}

	analysisSvc := service.NewAnalysisService(
		prov,
		analysis.NewAnalyzer(a.logger),
		a.logger,
	).WithDefaults(service.AnalysisDefaults{
		CurveSteps:   a.cfg.Analysis.CurveSteps,
		ProbSteps:    a.cfg.Analysis.ProbSteps,
		TimeSteps:    a.cfg.Analysis.TimeSteps,
		MaxDays:      a.cfg.Analysis.MaxDays,
		DiscountRate: a.cfg.Analysis.DiscountRate,
	})

	return &services{
		scans:    scans,
		analysis: analysisSvc,
		clusters: service.NewClusterService(deps.ClusterStore, prov, a.logger),
		markets:  service.NewMarketService(deps.MarketStore, deps.MarketCache, a.logger),
	}
}

// startHTTPServer registers the handlers, starts the WebSocket hub when a
// signal bus is wired, and launches the HTTP server with graceful shutdown.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Scans:    handler.NewScanHandler(svcs.scans, a.logger),
		Analysis: handler.NewAnalyzeHandler(svcs.analysis, a.logger),
		Markets:  handler.NewMarketHandler(svcs.markets, a.logger),
		Clusters: handler.NewClusterHandler(svcs.clusters, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:              a.cfg.Server.Port,
		CORSOrigins:       a.cfg.Server.CORSOrigins,
		ScanRatePerMinute: a.cfg.Server.ScanRatePerMinute,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// rescanLoop re-scans every stored cluster on a fixed cadence. One pass runs
// immediately so flags are fresh right after startup.
func (a *App) rescanLoop(ctx context.Context, scans *service.ScanService, deps *Dependencies) error {
	interval := time.Duration(a.cfg.Scan.RescanMinutes) * time.Minute

	a.rescanAll(ctx, scans, deps, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.rescanAll(ctx, scans, deps, interval)
		}
	}
}

// rescanAll scans every stored cluster once. When a lock manager is wired,
// only one replica runs the pass. Per-cluster failures are logged and
// skipped so one bad definition cannot stall the loop.
func (a *App) rescanAll(ctx context.Context, scans *service.ScanService, deps *Dependencies, interval time.Duration) {
	if deps.LockManager != nil {
		unlock, err := deps.LockManager.Acquire(ctx, "rescan", interval)
		if errors.Is(err, domain.ErrLockHeld) {
			a.logger.DebugContext(ctx, "rescan: pass held by another replica, skipping")
			return
		}
		if err != nil {
			a.logger.WarnContext(ctx, "rescan: lock unavailable, proceeding unlocked",
				slog.String("error", err.Error()),
			)
		} else {
			defer unlock()
		}
	}

	defs, err := deps.ClusterStore.List(ctx, domain.ListOpts{Limit: 500})
	if err != nil {
		a.logger.WarnContext(ctx, "rescan: list clusters failed",
			slog.String("error", err.Error()),
		)
		return
	}

	flagged := 0
	for _, def := range defs {
		result, err := scans.Scan(ctx, service.ScanRequest{ClusterID: def.ID})
		if err != nil {
			a.logger.WarnContext(ctx, "rescan: cluster scan failed",
				slog.String("cluster_id", def.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		flagged += len(result.Flags)
	}

	a.logger.InfoContext(ctx, "rescan pass complete",
		slog.Int("clusters", len(defs)),
		slog.Int("flags", flagged),
	)
}

// loadMarketsFile reads a JSON array of market snapshots.
func loadMarketsFile(path string) ([]domain.Market, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markets file: %w", err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("parse markets file %s: %w", path, err)
	}
	return markets, nil
}
