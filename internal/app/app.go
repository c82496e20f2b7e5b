package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"FundingArchive/internal/config"
	"FundingArchive/internal/infrastructure/httpapi"
	"FundingArchive/internal/infrastructure/llm"
	"FundingArchive/internal/infrastructure/mcpserver"
	"FundingArchive/internal/infrastructure/parser"
	"FundingArchive/internal/infrastructure/scheduler"
	"FundingArchive/internal/infrastructure/storage"
	"FundingArchive/internal/infrastructure/telegram"
	"FundingArchive/internal/logging"
	"FundingArchive/internal/ports"
	"FundingArchive/internal/scanner"
	"FundingArchive/internal/usecase"
)

// Version is reported by the CLI and the MCP server.
const Version = "0.3.0"

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	dialect storage.Dialect
	repo    *storage.Repository

	archive  *usecase.Archive
	pipeline *usecase.Pipeline
	reviews  *usecase.ReviewQueue
	grants   *usecase.GrantImporter
}

// New opens the store and builds every use case. A missing DSN is not an
// error: the application starts degraded and reads return empty results.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	}

	db, dialect, err := storage.Open(cfg.Database)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		baseLogger.Warn("database dsn is empty, archive runs degraded")
	case err != nil:
		return nil, fmt.Errorf("open store: %w", err)
	}

	capability, err := storage.ParseCapability(cfg.Search.Capability)
	if err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}
	if capability == storage.CapabilityAuto && cfg.Database.DisableFullText {
		capability = storage.CapabilitySubstring
	}

	repoOpts := []storage.Option{storage.WithLogger(baseLogger.With("component", "storage"))}
	if capability != storage.CapabilityAuto {
		repoOpts = append(repoOpts, storage.WithCapability(capability))
	}
	repo := storage.NewRepository(db, dialect, repoOpts...)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewTelegramScanner(nil))
	source := parser.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	var summarizer ports.Summarizer
	if client := llm.NewChatGPTClient(cfg.ChatGPT); client.Configured() {
		summarizer = client
	} else {
		baseLogger.Info("chatgpt api key not set, messages are stored without summaries")
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n.Configured() {
		notifier = n
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:          source,
		Repository:      repo,
		Summarizer:      summarizer,
		Notifier:        notifier,
		RequireApproval: cfg.Review.RequireApproval,
		Logger:          baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		dialect:  dialect,
		repo:     repo,
		archive:  usecase.NewArchive(repo, repo, cfg.Search, baseLogger.With("component", "archive")),
		pipeline: pipeline,
		reviews:  usecase.NewReviewQueue(repo),
		grants:   usecase.NewGrantImporter(repo, baseLogger.With("component", "grants")),
	}, nil
}

// Archive exposes the read-side service.
func (a *Application) Archive() *usecase.Archive { return a.archive }

// Reviews exposes the moderation queue.
func (a *Application) Reviews() *usecase.ReviewQueue { return a.reviews }

// Grants exposes the legacy grant importer.
func (a *Application) Grants() *usecase.GrantImporter { return a.grants }

// Migrate applies the schema and seeds the category taxonomy.
func (a *Application) Migrate(ctx context.Context) error {
	if a.db == nil {
		return storage.ErrNotConfigured
	}
	return storage.Migrate(ctx, a.db, a.dialect, storage.MigrateOptions{
		FullText:       !a.cfg.Database.DisableFullText,
		SeedCategories: true,
	})
}

// Ingest runs the pipeline once. A zero since falls back to the configured lookback.
func (a *Application) Ingest(ctx context.Context, since time.Time) (usecase.IngestReport, error) {
	if since.IsZero() {
		since = time.Now().In(a.cfg.Scheduler.Location()).Add(-a.cfg.Scheduler.Lookback)
	}
	return a.pipeline.Run(ctx, since)
}

// Handler builds the HTTP handler: JSON API, feeds, health and MCP.
func (a *Application) Handler() http.Handler {
	mcpSrv := mcpserver.New(a.archive, Version, a.logger.With("component", "mcp"))
	return httpapi.NewRouter(a.archive, httpapi.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		RequestTimeout: a.cfg.Server.RequestTimeout,
		Site:           a.cfg.Site,
		Health:         a.repo.Ping,
		MCP:            mcpserver.Handler(mcpSrv),
		Logger:         a.logger.With("component", "http"),
	})
}

// Serve runs the HTTP server and, when enabled, the ingestion scheduler until
// ctx is cancelled or one of them fails.
func (a *Application) Serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Scheduler.Enabled {
		driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
		sched := usecase.NewScheduler(driver, a.pipeline, a.cfg.Scheduler.Lookback, a.logger.With("component", "scheduler"))
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	}

	return g.Wait()
}

// Close releases the connection pool.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
