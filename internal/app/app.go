// Package app wires configuration, storage, peers and HTTP routes into a
// runnable service process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/parikshasetu/exam-platform/api/swagger"
	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/handler"
	"github.com/parikshasetu/exam-platform/internal/middleware"
	"github.com/parikshasetu/exam-platform/internal/service"
	"github.com/parikshasetu/exam-platform/pkg/config"
	"github.com/parikshasetu/exam-platform/pkg/database"
	"github.com/parikshasetu/exam-platform/pkg/logger"
	corsmiddleware "github.com/parikshasetu/exam-platform/pkg/middleware/cors"
	reqidmiddleware "github.com/parikshasetu/exam-platform/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// deps is what every service mount receives.
type deps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	tokens  *service.TokenService
	auth    gin.HandlerFunc
}

// mountFunc registers a service's routes and returns its cleanup.
type mountFunc func(ctx context.Context, d deps, db *sqlx.DB, api *gin.RouterGroup) (func(), error)

var mounts = map[string]mountFunc{
	database.ServiceCourse: mountCourse,
	database.ServiceExam:   mountExam,
	database.ServiceResult: mountResult,
	database.ServiceUser:   mountUser,
}

// Services lists the runnable service names.
func Services() []string {
	return []string{database.ServiceCourse, database.ServiceExam, database.ServiceResult, database.ServiceUser}
}

// Run starts the named service and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, name string) error {
	mount, ok := mounts[name]
	if !ok {
		return fmt.Errorf("unknown service %q", name)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg, name+"-service")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, name); err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.Expiration,
		RefreshExpiry: cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})

	r := newEngine(cfg, logr, metrics)
	handler.RegisterSystemRoutes(r, handler.NewHealthHandler(name, metrics, db), cfg.Metrics.Enabled)

	d := deps{
		cfg:     cfg,
		logger:  logr,
		metrics: metrics,
		tokens:  tokens,
		auth:    middleware.JWT(tokens, cfg.Peers.ServiceToken),
	}
	cleanup, err := mount(ctx, d, db, r.Group(cfg.APIPrefix))
	if err != nil {
		return err
	}
	defer cleanup()

	return serve(ctx, r, cfg.Port, logr)
}

func newEngine(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

func serve(ctx context.Context, r *gin.Engine, port int, logr *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func peerOptions(d deps) client.Options {
	return client.Options{
		Timeout:      d.cfg.Peers.Timeout,
		Retries:      d.cfg.Peers.Retries,
		ServiceToken: d.cfg.Peers.ServiceToken,
		Logger:       d.logger,
		Recorder:     d.metrics,
	}
}

// startDispatcher runs the notification queue until the returned stop is called.
func startDispatcher(ctx context.Context, d deps) (*service.NotificationDispatcher, func()) {
	sender := client.NewNotificationClient(d.cfg.Peers.NotificationServiceURL, peerOptions(d))
	dispatcher := service.NewNotificationDispatcher(sender, service.DispatcherConfig{
		Enabled:    d.cfg.Notifications.Enabled,
		Workers:    d.cfg.Notifications.Workers,
		BufferSize: d.cfg.Notifications.BufferSize,
		Retries:    d.cfg.Notifications.Retries,
		RetryDelay: d.cfg.Notifications.RetryDelay,
	}, d.metrics, d.logger)
	dispatcher.Start(ctx)
	return dispatcher, dispatcher.Stop
}
