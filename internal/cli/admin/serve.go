package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/loretexai/internal/api/handlers"
	"github.com/cloo-solutions/loretexai/internal/config"
	"github.com/cloo-solutions/loretexai/internal/database"
	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/jobs"
	"github.com/cloo-solutions/loretexai/internal/openai"
	"github.com/cloo-solutions/loretexai/internal/repository"
	"github.com/cloo-solutions/loretexai/internal/server"
	"github.com/cloo-solutions/loretexai/internal/service"
	"github.com/cloo-solutions/loretexai/internal/storage"
	"github.com/cloo-solutions/loretexai/internal/telemetry"
	"github.com/cloo-solutions/loretexai/internal/tokencount"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the loretex API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DatabaseMaxConns,
		MinConns: cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	entryRepo := repository.NewEntryRepository(pool)
	sourceRepo := repository.NewSourceRepository(pool)
	summaryJobRepo := repository.NewSummaryJobRepository(pool)
	workspaceRepo := repository.NewWorkspaceRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if cfg.InitWorkspaceName != "" {
		if err := bootstrapInitialWorkspace(ctx, cfg, workspaceRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial workspace: %w", err)
		}
	}

	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = &S3StorageAdapter{client: s3Client}
	}

	chunkCfg := service.DefaultChunkConfig()
	if cfg.ChunkMaxChars > 0 {
		chunkCfg.MaxChars = cfg.ChunkMaxChars
	}

	// Without an OpenAI key no worker runs: summary jobs stay pending and
	// context assembly simply skips the missing summaries.
	var summaryWorker *jobs.Worker
	if cfg.HasOpenAI() {
		summaryClient := openai.NewClientWithConfig(openai.Config{
			APIKey:       cfg.OpenAIAPIKey,
			SummaryModel: cfg.SummaryModel,
		})
		var summarySvc *service.SummaryService
		if storageClient != nil {
			summarySvc = service.NewSummaryServiceWithImages(summaryClient, entryRepo, sourceRepo, storageClient)
		} else {
			summarySvc = service.NewSummaryService(summaryClient, entryRepo)
		}
		summaryProcessor := jobs.NewSummaryWorker(summaryJobRepo, summarySvc)
		summaryWorker = jobs.NewWorker(summaryProcessor, cfg.SummaryInterval)
		go summaryWorker.Start(ctx)
		log.Println("summary worker started")
	} else {
		log.Println("no OpenAI key configured; summaries stay pending")
	}

	uuidGen := &service.DefaultUUIDGenerator{}

	entrySvc := service.NewEntryServiceWithConfig(entryRepo, txRunner, uuidGen, chunkCfg)
	authSvc := service.NewAuthService(workspaceRepo, apiKeyRepo, uuidGen)

	var sourceHandler *handlers.SourceHandler
	if storageClient != nil {
		sourceSvc := service.NewSourceServiceWithConfig(sourceRepo, storageClient, txRunner, uuidGen, chunkCfg, 0)
		sourceHandler = handlers.NewSourceHandler(sourceSvc)
	} else {
		sourceHandler = handlers.NewSourceHandler(&NoOpSourceService{})
	}

	builderCfg := service.DefaultContextBuilderConfig()
	if cfg.ContextTokens > 0 {
		builderCfg.Budget.DefaultTokens = cfg.ContextTokens
	}

	var counter tokencount.Counter
	if tc, err := tokencount.NewTiktokenCounter(""); err != nil {
		log.Printf("tiktoken unavailable, using character estimates: %v", err)
		counter = tokencount.NewEstimatedCounter()
	} else {
		counter = tc
	}
	contextSvc := service.NewContextServiceWithConfig(entryRepo, counter, builderCfg)

	routerCfg := server.RouterConfig{
		AuthValidator:    authSvc,
		EntryHandler:     handlers.NewEntryHandler(entrySvc),
		SourceHandler:    sourceHandler,
		ContextHandler:   handlers.NewContextHandler(contextSvc),
		AuthHandler:      handlers.NewAuthHandler(authSvc),
		WorkspaceHandler: handlers.NewWorkspaceHandler(authSvc, entrySvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if summaryWorker != nil {
		summaryWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *S3StorageAdapter) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	return a.client.DownloadObject(ctx, key)
}

func (a *S3StorageAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type NoOpSourceService struct{}

func (s *NoOpSourceService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	return nil, fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func (s *NoOpSourceService) CompleteUpload(ctx context.Context, sourceID string) (*domain.Source, error) {
	return nil, fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func (s *NoOpSourceService) GetByID(ctx context.Context, sourceID string) (*domain.Source, error) {
	return nil, fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func (s *NoOpSourceService) List(ctx context.Context, workspaceID string) ([]*domain.Source, error) {
	return nil, fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func (s *NoOpSourceService) GetDownloadURL(ctx context.Context, sourceID string) (string, error) {
	return "", fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func (s *NoOpSourceService) Delete(ctx context.Context, sourceID string) error {
	return fmt.Errorf("source service not configured: S3_ENDPOINT required")
}

func bootstrapInitialWorkspace(ctx context.Context, cfg *config.Config, workspaceRepo *repository.WorkspaceRepository, apiKeyRepo *repository.APIKeyRepository) error {
	ws, err := workspaceRepo.GetByName(ctx, cfg.InitWorkspaceName)
	if err != nil && err != domain.ErrWorkspaceNotFound {
		return fmt.Errorf("failed to check existing workspace: %w", err)
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(workspaceRepo, apiKeyRepo, uuidGen)

	if ws == nil {
		ws, err = authSvc.CreateWorkspace(ctx, cfg.InitWorkspaceName)
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
		log.Printf("bootstrap: created workspace '%s' (id: %s)", ws.Name, ws.ID)
	} else {
		log.Printf("bootstrap: workspace '%s' already exists (id: %s)", ws.Name, ws.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid LORETEX_INIT_API_KEY format (expected 'ltx_<64 hex chars>')")
		}

		existingKey, err := authSvc.GetAPIKeyByHash(ctx, cfg.InitAPIKey)
		if err == nil && existingKey != nil {
			log.Printf("bootstrap: API key already exists (id: %s)", existingKey.ID)
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, ws.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
