package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/core/usecase"
	"github.com/docsift/docsift/internal/export"
	"github.com/docsift/docsift/internal/infrastructure/docstore/filestore"
	"github.com/docsift/docsift/internal/infrastructure/docstore/postgres"
	"github.com/docsift/docsift/internal/infrastructure/extractor/pdf"
	"github.com/docsift/docsift/internal/infrastructure/llm/textgen"
	"github.com/docsift/docsift/internal/infrastructure/queue/nats"
	"github.com/docsift/docsift/internal/infrastructure/registry/fileregistry"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
	"github.com/docsift/docsift/internal/infrastructure/storage/localfs"
	"github.com/docsift/docsift/internal/infrastructure/validation/jsonschema"
	"github.com/docsift/docsift/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Registry  ports.SchemaRegistry
	Store     ports.DocumentStore
	Queue     ports.MessageQueue
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ReportUC  ports.ReportProvider
	Validator ports.DataValidator
	Exporter  *export.Service
	Metrics   *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := fileregistry.New(cfg.SchemasDir, fileregistry.PredefinedSchemas())
	if err != nil {
		return nil, fmt.Errorf("init schema registry: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	var (
		store   ports.DocumentStore
		closers []func()
	)
	switch cfg.DocStoreDriver {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pgStore := postgres.NewStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure docstore schema: %w", err)
		}
		store = pgStore
		closers = append(closers, func() { _ = db.Close() })
	default:
		fileStore, err := filestore.New(cfg.DocumentsFile)
		if err != nil {
			return nil, fmt.Errorf("init document store: %w", err)
		}
		store = fileStore
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var queue ports.MessageQueue
	if cfg.NATSURL != "" {
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSProcessedSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
		closers = append(closers, natsQueue.Close)
	}

	classifier := textgen.New(textgen.Config{
		BaseURL:      cfg.LLMURL,
		Timeout:      time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		MaxNewTokens: cfg.LLMMaxNewTokens,
		Temperature:  cfg.LLMTemperature,
		TextLimit:    cfg.ClassifyTextLimit,
	}, executor, logger)

	validator := jsonschema.NewValidator(registry)
	pipelineMetrics := metrics.NewPipelineMetrics("docsift")

	processUC := usecase.NewClassificationPipeline(
		registry,
		storage,
		pdf.NewExtractor(),
		classifier,
		validator,
		store,
		queue,
		pipelineMetrics,
		logger,
	)
	ingestUC := usecase.NewIngestDocumentUseCase(storage, processUC, queue)
	reportUC := usecase.NewReportUseCase(registry, store)
	exporter := export.NewService(store, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Registry:  registry,
		Store:     store,
		Queue:     queue,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReportUC:  reportUC,
		Validator: validator,
		Exporter:  exporter,
		Metrics:   pipelineMetrics,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
