package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/valkey-io/valkey-go"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/storage/db"
	"resume-analyzer/internal/shared/storage/object"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	s3store "resume-analyzer/internal/shared/storage/object/s3"
	"resume-analyzer/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Valkey          valkey.Client
	Store           object.ObjectStore
	LLM             llm.Client
	AnalysesRepo    analyses.Repo
	AnalysesService *analyses.Service
	AnalysisHandler *analyses.Handler
	WebHandler      *web.Handler
	Health          *health.Service
}

// Build prepares dependencies from cfg and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	llmClient, err := BuildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Store:  store,
		LLM:    llmClient,
		Health: health.NewService(),
	}

	repo, err := buildRepo(ctx, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.AnalysesRepo = repo
	app.AnalysesService = &analyses.Service{
		Repo:     repo,
		LLM:      llmClient,
		Store:    store,
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
	}
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesService, cfg.MaxUploadBytes)
	app.WebHandler = web.NewHandler(app.AnalysesService, cfg.MaxUploadBytes)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		WebHandler:      app.WebHandler,
		Health:          app.Health,
	})

	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("bootstrap: close database: %v", err)
		}
	}
	if a.Valkey != nil {
		a.Valkey.Close()
	}
}

// BuildLLM constructs the configured provider client.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	params := llm.Params{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	}
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Params:  params,
			Timeout: cfg.LLMTimeout,
		})
	case "openai", "groq":
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = openai.GroqBaseURL
			if cfg.LLMProvider == "openai" {
				baseURL = openai.OpenAIBaseURL
			}
		}
		return openai.NewClient(openai.Options{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: baseURL,
			Params:  params,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

// buildRepo selects the result repository. Dev-like environments fall back to
// memory when the configured backend is unreachable.
func buildRepo(ctx context.Context, app *App) (analyses.Repo, error) {
	cfg := app.Config
	switch cfg.ResultStore {
	case "postgres":
		sqlDB, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fallback(cfg, "postgres", err)
		}
		app.DB = sqlDB
		app.Health.Register("postgres", sqlDB.PingContext)
		return &analyses.PGRepo{DB: sqlDB}, nil
	case "valkey":
		client, err := analyses.NewValkeyClient(ctx, cfg.ValkeyAddr, cfg.ValkeyPassword)
		if err != nil {
			return fallback(cfg, "valkey", err)
		}
		app.Valkey = client
		app.Health.Register("valkey", func(ctx context.Context) error {
			return client.Do(ctx, client.B().Ping().Build()).Error()
		})
		return &analyses.ValkeyRepo{Client: client, TTL: cfg.ResultTTL}, nil
	default:
		if !config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: RESULT_STORE=memory; analyses are kept in process memory only")
		}
		return analyses.NewMemoryRepo(), nil
	}
}

func connectDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	sqlDB, err := db.Connect(ctx, databaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func fallback(cfg config.Config, backend string, err error) (analyses.Repo, error) {
	if config.IsDevLike(cfg.Env) {
		log.Printf("bootstrap: %s unavailable; using in-memory repository: %v", backend, err)
		return analyses.NewMemoryRepo(), nil
	}
	return nil, fmt.Errorf("%s result store unavailable: %w", backend, err)
}
