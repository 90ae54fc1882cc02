package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jfaulkner/pageharvest/internal/api"
	"github.com/jfaulkner/pageharvest/internal/browser"
	"github.com/jfaulkner/pageharvest/internal/config"
	"github.com/jfaulkner/pageharvest/internal/harvest"
	"github.com/jfaulkner/pageharvest/internal/logging"
	"github.com/jfaulkner/pageharvest/internal/report"
	"github.com/jfaulkner/pageharvest/internal/site"
	"github.com/jfaulkner/pageharvest/internal/store"
)

const defaultConfigFile = "pageharvest.yaml"

// newHarvestCmd creates and configures the 'run' subcommand, which drives a
// full listing crawl plus item-fetch rounds against the configured site.
func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Starts a harvest run",
		Long: `Crawls the configured category listing page by page, then fetches
every discovered product page with a bounded worker pool. Results land as a
timestamped JSON report, and optionally in Postgres.`,
		RunE: runHarvest,
	}
	return cmd
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()

	factory := browser.NewFactory(browser.Config{
		BaseURL:     cfg.Site.BaseURL,
		UserAgent:   cfg.Browser.UserAgent,
		Headless:    cfg.Browser.Headless,
		NavTimeout:  cfg.Browser.NavTimeout,
		SettleDelay: cfg.Browser.SettleDelay,
		DomainQPS:   cfg.Browser.DomainQPS,
		Filter:      harvest.NewRequestFilter(cfg.Browser.ExcludedResourceTypes),
	}, logger.Named("browser"))

	progress := harvest.NewProgress()
	pipeline := harvest.New(
		factory,
		harvest.Config{
			Session: harvest.SessionConfig{
				WorkerLimit:      cfg.Harvest.WorkerLimit,
				MaxRetries:       cfg.Harvest.MaxRetries,
				RetryDelayFactor: cfg.Harvest.RetryDelayFactor,
				ExtractTimeout:   cfg.Harvest.ExtractTimeout,
				JitterMin:        cfg.Harvest.JitterMin,
				JitterMax:        cfg.Harvest.JitterMax,
			},
			FetchRounds: cfg.Harvest.FetchRounds,
		},
		site.AdidasListing(logger.Named("listing")),
		site.AdidasItem(logger.Named("item")),
		progress,
		logger.Named("harvest"),
	)

	if cfg.Server.Port > 0 {
		stop := startStatusServer(cfg.Server.Port, progress, logger.Named("api"))
		defer stop()
	}

	var runs *store.RunStore
	runID := uuid.NewString()
	if cfg.DB.DSN != "" {
		runs, err = store.New(ctx, store.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer runs.Close()
		if err := runs.RecordRun(ctx, runID, cfg.Site.StartURL, time.Now().UTC()); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	logger.Info("harvest starting",
		zap.String("run_id", runID),
		zap.String("start_url", cfg.Site.StartURL),
		zap.Int("worker_limit", cfg.Harvest.WorkerLimit))

	outcomes, err := pipeline.Start(ctx, cfg.Site.StartURL)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run harvest: %w", err)
	}

	writer, werr := report.NewWriter(cfg.Output.Dir, logger.Named("report"))
	if werr != nil {
		return fmt.Errorf("init report writer: %w", werr)
	}
	reportCtx := context.WithoutCancel(ctx)
	if _, werr := writer.Write(reportCtx, outcomes); werr != nil {
		return fmt.Errorf("write report: %w", werr)
	}

	harvested, failed := 0, 0
	for _, o := range outcomes {
		if o.Succeeded {
			harvested++
		} else {
			failed++
		}
		if runs != nil {
			if serr := runs.RecordOutcome(reportCtx, runID, o); serr != nil {
				logger.Warn("Failed to record outcome", zap.String("url", o.Address), zap.Error(serr))
			}
		}
	}
	if runs != nil {
		if serr := runs.FinishRun(reportCtx, runID, time.Now().UTC(), harvested, failed); serr != nil {
			logger.Warn("Failed to finish run", zap.Error(serr))
		}
	}

	logger.Info("harvest finished",
		zap.Int("harvested", harvested),
		zap.Int("failed", failed))
	return err
}

// startStatusServer serves /healthz, /status, and /metrics for the duration
// of the run. The returned func shuts the listener down.
func startStatusServer(port int, progress *harvest.Progress, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", fmt.Sprintf("%d", port)),
		Handler:           api.NewServer(progress.Snapshot, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown", zap.Error(err))
		}
	}
}
