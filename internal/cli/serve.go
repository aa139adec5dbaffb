package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pos_sales/api"
	"pos_sales/internal/auth"
	"pos_sales/internal/config"
	"pos_sales/internal/database"
	"pos_sales/internal/logger"
	"pos_sales/internal/sales"
	"pos_sales/internal/telemetry"
	"pos_sales/internal/users"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the sales HTTP API.

Configuration comes from the optional --config YAML file and is then
overridden by environment variables (PORT, JWT_SECRET, DB_DRIVER, DB_DSN,
USER_SERVICE_URL, OTEL_ENABLED, ...).

Example:
  JWT_SECRET=dev DB_DRIVER=memory USER_SERVICE_KNOWN_IDS=S1,A1 pos-sales serve
  pos-sales serve --config ./config.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, log, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	app, err := buildApp(cfg, log)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("sales api listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error trying to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), shutdownTracing(shutdownCtx))
	})
	return g.Wait()
}

type app struct {
	engine  *gin.Engine
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// buildApp wires storage, the user directory and the HTTP routes.
func buildApp(cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{}

	var storage sales.Storage
	if cfg.Database.Driver == config.DriverMemory {
		storage = sales.NewLocalStorage()
	} else {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return database.Close(db) })
		if err := sales.Migrate(db); err != nil {
			a.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		storage = sales.NewGormStorage(db)
	}

	var directory sales.OwnerDirectory
	if cfg.UserService.URL != "" {
		httpDir := users.NewHTTPDirectory(cfg.UserService.URL, cfg.UserService.Timeout, log)
		a.closers = append(a.closers, httpDir.Close)
		directory = httpDir
	} else {
		directory = users.NewStaticDirectory(cfg.UserService.KnownIDs...)
	}

	gin.SetMode(cfg.Mode)
	a.engine = gin.New()

	rc := api.RouterConfig{
		SalesService: sales.NewService(storage, directory, log),
		Verifier:     auth.NewVerifier(cfg.JWTSecret),
		Logger:       log,
		CORSOrigins:  cfg.CORSOrigins,
	}
	if cfg.Telemetry.Enabled {
		rc.TracingService = cfg.Telemetry.ServiceName
	}
	api.InitRoutes(a.engine, rc)
	return a, nil
}
