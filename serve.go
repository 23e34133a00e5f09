package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/kelydev/apiUsuarios/auth"
	"github.com/kelydev/apiUsuarios/config"
	"github.com/kelydev/apiUsuarios/controllers"
	"github.com/kelydev/apiUsuarios/database"
	"github.com/kelydev/apiUsuarios/logging"
	"github.com/kelydev/apiUsuarios/metrics"
	"github.com/kelydev/apiUsuarios/notify"
	"github.com/kelydev/apiUsuarios/repository"
	"github.com/kelydev/apiUsuarios/routes"
)

const serviceName = "apiUsuarios"

var migrateOnStart bool

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// loadConfig loads the environment and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Setup(serviceName, version, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	logger.Info("starting server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrateOnStart {
		if err := applyMigrations(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewUsuarioRepository(db)
	mgr, err := auth.NewManager(repo, auth.NewBcryptHasher(cfg.BcryptCost),
		auth.WithTemporaryTTL(cfg.TemporaryPasswordTTL),
		auth.WithRevokeOnRecovery(cfg.RevokePasswordOnRecovery),
		auth.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	dispatcher, closeDispatcher, err := newDispatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, administration routes are unauthenticated")
	}

	m := metrics.New()
	r := routes.SetupRoutes(controllers.Deps{
		Credentials: mgr,
		Usuarios:    repo,
		Dispatcher:  dispatcher,
		Metrics:     m,
		Logger:      logger,
	}, routes.Options{
		JWTSecret: cfg.JWTSecret,
		Metrics:   m.Handler(),
		Observer:  m,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// newDispatcher returns the Redis queue dispatcher when REDIS_URL is set and
// the log-only dispatcher otherwise.
func newDispatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Dispatcher, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, temporary passwords are only logged as issued")
		return notify.NewLogDispatcher(logger), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "REDIS_URL").Wrap(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
	}
	logger.Info("recovery queue connected", "queue", cfg.RecoveryQueue)
	return notify.NewRedisDispatcher(client, cfg.RecoveryQueue), func() { _ = client.Close() }, nil
}
