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

	"github.com/cloo-solutions/tenantex/internal/api/handlers"
	"github.com/cloo-solutions/tenantex/internal/config"
	"github.com/cloo-solutions/tenantex/internal/extract"
	"github.com/cloo-solutions/tenantex/internal/jobs"
	"github.com/cloo-solutions/tenantex/internal/notify"
	openaiclient "github.com/cloo-solutions/tenantex/internal/openai"
	"github.com/cloo-solutions/tenantex/internal/repository"
	"github.com/cloo-solutions/tenantex/internal/server"
	"github.com/cloo-solutions/tenantex/internal/service"
	"github.com/cloo-solutions/tenantex/internal/storage"
	"github.com/cloo-solutions/tenantex/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the tenantex API server on the specified port",
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

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required: embeddings back every retrieval and ingestion path")
	}
	embeddingClient := openaiclient.NewClientWithConfig(openaiclient.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
	})

	tenantRegistry := repository.NewTenantRegistry(pool)
	passageRepo := repository.NewPassageRepository(pool)

	vectorStore := service.NewVectorStoreService(embeddingClient, passageRepo, tenantRegistry)

	var objectStore service.ObjectStore
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
		objectStore = s3Client
	} else {
		objectStore = &noObjectStore{}
	}

	if !cfg.HasStatusSink() {
		log.Println("STATUS_URL not set; document-status callbacks disabled")
	}
	statusClient := notify.NewStatusClient(cfg.StatusURL, cfg.StatusAPIKey)
	extractor := extract.NewExtractor()

	ingestionSvc := service.NewIngestionService(vectorStore, objectStore, extractor, statusClient)
	retrievalSvc := service.NewRetrievalService(vectorStore)

	queue := jobs.NewQueue(ingestionSvc, cfg.IngestWorkers, cfg.IngestQueueBuffer)
	queue.Start(ctx)
	log.Printf("ingestion queue started (%d workers)", cfg.IngestWorkers)

	routerCfg := server.RouterConfig{
		APIKey:           cfg.APIKey,
		TenantHandler:    handlers.NewTenantHandler(retrievalSvc, queue, tenantRegistry, passageRepo),
		KnowledgeHandler: handlers.NewKnowledgeHandler(retrievalSvc),
		UtilsHandler:     handlers.NewUtilsHandler(passageRepo),
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

	queue.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// noObjectStore stands in when S3 is not configured so only the background
// ingestion path is disabled, not the whole server.
type noObjectStore struct{}

func (s *noObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("object storage not configured: S3_ENDPOINT required")
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
