package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/sbilibin2017/gw-remit/docs"
	"github.com/sbilibin2017/gw-remit/internal/config"
	"github.com/sbilibin2017/gw-remit/internal/facades"
	"github.com/sbilibin2017/gw-remit/internal/handlers"
	"github.com/sbilibin2017/gw-remit/internal/jwt"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/middlewares"
	"github.com/sbilibin2017/gw-remit/internal/notifiers"
	"github.com/sbilibin2017/gw-remit/internal/repositories"
	"github.com/sbilibin2017/gw-remit/internal/scheduler"
	"github.com/sbilibin2017/gw-remit/internal/services"
	"github.com/sbilibin2017/gw-remit/internal/workers"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-remit API
// @version 1.0.0
// @description Remittance service coordinating payment callbacks and mobile-money transfers
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// notifier is a services.Notifier that owns a broker connection.
type notifier interface {
	services.Notifier
	Close() error
}

// newNotifier builds the notification backend selected by NOTIFIER_BACKEND.
func newNotifier(cfg *config.Config) (notifier, error) {
	switch cfg.NotifierBackend {
	case config.NotifierKafka:
		return notifiers.NewKafkaNotifier(notifiers.NewKafkaWriter(cfg.KafkaBrokers(), cfg.NotifyKafkaTopic)), nil
	case config.NotifierRabbitMQ:
		return notifiers.DialRabbitMQNotifier(cfg.NotifyRabbitMQURL, cfg.NotifyRabbitMQExchange)
	default:
		return notifiers.NewLogNotifier(), nil
	}
}

// transactionAPI is the service surface exposed over HTTP.
type transactionAPI interface {
	handlers.TransactionInitiator
	handlers.TransactionHistoryReader
	handlers.PaymentCallbackProcessor
}

// tokener verifies bearer tokens for the middleware and the handlers.
type tokener interface {
	middlewares.Tokener
	handlers.TransactionTokener
}

// newRouter sets up routes and middleware. txMiddleware wraps the
// initiation route so the insert runs in a request-scoped transaction.
func newRouter(
	cfg *config.Config,
	api transactionAPI,
	tok tokener,
	txMiddleware func(http.Handler) http.Handler,
	checks map[string]handlers.HealthCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middlewares.LoggingMiddleware)

	handlers.RegisterHealthHandler(r, handlers.NewHealthHandler(checks))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		handlers.RegisterPaymentCallbackHandler(r, handlers.NewPaymentCallbackHandler(api))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(tok))
			handlers.RegisterGetTransactionHistoryHandler(r, handlers.NewGetTransactionHistoryHandler(api, tok))
			handlers.RegisterInitiateTransactionHandler(r.With(txMiddleware), handlers.NewInitiateTransactionHandler(api, tok))
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}

// run initializes the logger, database, Redis, notifier and HTTP server.
// It starts the delayed-step scheduler and the reconciler and shuts
// everything down gracefully on SIGINT/SIGTERM or when ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	logger.Log.Infow("connected to PostgreSQL", "host", cfg.PostgresHost, "db", cfg.PostgresDB)

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Notifications
	notify, err := newNotifier(cfg)
	if err != nil {
		return fmt.Errorf("notifier setup failed: %w", err)
	}
	defer notify.Close()
	logger.Log.Infow("notifier ready", "backend", cfg.NotifierBackend)

	// Payment gateway
	gateway := facades.NewPaymentGatewayHTTPFacade(cfg.GatewayURL, cfg.GatewayAPIToken, cfg.GatewayTimeout,
		facades.WithServices(cfg.GatewayOrderService, cfg.GatewayTransferService),
	)

	tok := jwt.New(jwt.WithSecretKey(cfg.JWTSecretKey))

	// Initialize repositories
	txReadRepo := repositories.NewTransactionReadRepository(db)
	txWriteRepo := repositories.NewTransactionWriteRepository(db, middlewares.GetTxFromContext)
	accountReadRepo := repositories.NewAccountReadRepository(db)
	lockRepo := repositories.NewInvoiceLockRepository(rdb, cfg.LockTTL)

	// Initialize services
	sched := scheduler.New()
	txService := services.NewTransactionService(
		txReadRepo, txWriteRepo, accountReadRepo, gateway, notify, lockRepo, sched,
		services.WithDelays(cfg.OrderDelay, cfg.TransferDelay, cfg.ResolveDelay),
		services.WithRetries(uint64(cfg.GatewayMaxRetries), 500*time.Millisecond),
		services.WithAfterCommit(middlewares.AfterCommit),
	)

	reconciler := workers.NewReconciler(txService, cfg.ReconcileSchedule, cfg.ReconcileStaleAfter)
	if err := reconciler.Start(); err != nil {
		return fmt.Errorf("reconciler setup failed: %w", err)
	}

	router := newRouter(cfg, txService, tok, middlewares.TxMiddleware(db), map[string]handlers.HealthCheck{
		"postgres": db.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}
	if err := reconciler.Stop(shutdownCtx); err != nil {
		logger.Log.Errorw("reconciler shutdown error", "error", err)
	}
	logger.Log.Infow("stopping scheduler", "pending", sched.Pending())
	if err := sched.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("scheduler shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return serveErr
}
