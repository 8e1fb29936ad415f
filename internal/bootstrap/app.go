package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-formatter/internal/queue"
	"resume-formatter/internal/reports"
	"resume-formatter/internal/services/health"
	"resume-formatter/internal/shared/config"
	"resume-formatter/internal/shared/server"
	"resume-formatter/internal/shared/storage/db"
	"resume-formatter/internal/shared/storage/object"
	localstore "resume-formatter/internal/shared/storage/object/local"
	s3store "resume-formatter/internal/shared/storage/object/s3"
	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/resume/classify"
	"resume-formatter/resume/render"
	"resume-formatter/resume/service"
	"resume-formatter/resume/taxonomy"
	"resume-formatter/resume/validate"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Queue    queue.Client
	Reports  reports.Repo
	Taxonomy *taxonomy.Taxonomy
	Pipeline *service.Pipeline
	Jobs     *service.JobRunner

	closers []func() error
}

// BuildOptions adjusts Build for a particular binary.
type BuildOptions struct {
	// TaxonomyPath overrides the embedded synonym table.
	TaxonomyPath string
	// SkipDB leaves reports in memory even when DATABASE_URL is set.
	SkipDB bool
}

// Build prepares shared dependencies.
func Build(ctx context.Context, cfg config.Config, opts BuildOptions) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	tax, err := loadTaxonomy(opts.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	app.Taxonomy = tax

	embedder, err := app.buildEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	app.Pipeline = service.New(tax, nil, service.Options{
		Classifier: classify.Options{
			MinConfidence:     cfg.ClassifierMinConfidence,
			FuzzyThreshold:    cfg.ClassifierFuzzyThreshold,
			KeywordConfidence: cfg.ClassifierKeywordConfidence,
			Provider:          classify.NewProvider(tax, embedder),
		},
		Validator: validate.Options{
			AcceptThreshold:   cfg.ValidatorAcceptThreshold,
			Saturation:        cfg.ValidatorSaturation,
			HeadingPrior:      cfg.ValidatorHeadingPrior,
			RelocationMargin:  cfg.ValidatorRelocationMargin,
			FingerprintLength: cfg.FingerprintLength,
		},
		Render: render.Options{
			ShortWindow: cfg.WindowShort,
			LongWindow:  cfg.WindowLong,
		},
	})

	if !opts.SkipDB {
		app.DB, err = buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	if app.DB != nil {
		app.Reports = &reports.PGRepo{DB: app.DB}
		app.closers = append(app.closers, app.DB.Close)
	} else {
		app.Reports = reports.NewMemoryRepo()
	}

	app.Router = server.NewRouter(health.NewService(app.DB))

	app.Store, err = buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Queue, err = buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Jobs = &service.JobRunner{Pipeline: app.Pipeline, Store: app.Store, Reports: app.Reports}
	return app, nil
}

// Close releases the database and embedding resources.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// BatchConcurrency returns the configured batch limit.
func (a *App) BatchConcurrency() int {
	return a.Config.BatchConcurrency
}

func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return taxonomy.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	tax, err := taxonomy.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	return tax, nil
}

func (a *App) buildEmbedder(ctx context.Context) (classify.Embedder, error) {
	var embedder classify.Embedder = classify.HashEmbedder{}
	if a.Config.Embedder == "gemini" {
		gemini, err := classify.NewGeminiEmbedder(ctx, a.Config.GeminiAPIKey, a.Config.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
		embedder = gemini
	}
	if path := strings.TrimSpace(a.Config.EmbeddingCachePath); path != "" {
		cache := classify.NewVectorCache(path)
		a.closers = append(a.closers, cache.Close)
		embedder = classify.CachedEmbedder{Embedder: embedder, Cache: cache}
	}
	telemetry.Info("bootstrap.embedder", map[string]any{"embedder": embedder.Name()})
	return embedder, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.database_url_empty", map[string]any{"reports": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg, db.RuntimeProfile())
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"reports": "memory", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.FormatQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.FormatQueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
