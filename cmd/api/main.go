package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahilrms/lab-master/pkg/auth"
	"github.com/sahilrms/lab-master/pkg/logger"
	"github.com/sahilrms/lab-master/pkg/messaging"
	redisbroker "github.com/sahilrms/lab-master/pkg/messaging/redis"

	"github.com/sahilrms/lab-master/internal/config"
	"github.com/sahilrms/lab-master/internal/email"
	"github.com/sahilrms/lab-master/internal/handler"
	authHandler "github.com/sahilrms/lab-master/internal/handler/auth"
	testHandler "github.com/sahilrms/lab-master/internal/handler/test"
	testTypeHandler "github.com/sahilrms/lab-master/internal/handler/testtype"
	"github.com/sahilrms/lab-master/internal/middleware"
	"github.com/sahilrms/lab-master/internal/repository/postgres"
	"github.com/sahilrms/lab-master/internal/router"
	authService "github.com/sahilrms/lab-master/internal/service/auth"
	sampleService "github.com/sahilrms/lab-master/internal/service/sample"
	testService "github.com/sahilrms/lab-master/internal/service/test"
	testTypeService "github.com/sahilrms/lab-master/internal/service/testtype"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:  level,
		Pretty: cfg.Log.Pretty,
	})
	zlog := appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	testRepo := postgres.NewTestRepository(db)
	sampleRepo := postgres.NewSampleRepository(db)
	testTypeRepo := postgres.NewTestTypeRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Message broker: Redis when configured, otherwise a no-op.
	var broker messaging.Broker = messaging.NewNoopBroker()
	if cfg.Redis.Enabled {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, zlog)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
	}
	defer broker.Close()

	emailSvc := email.NewService(cfg.SMTP, zlog)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc)
	testTypeSvc := testTypeService.NewService(testTypeRepo, testRepo, broker, zlog)
	testSvc := testService.NewService(testRepo, sampleRepo, testTypeRepo, userRepo, emailSvc, broker, zlog)
	sampleSvc := sampleService.NewService(sampleRepo, testRepo, testSvc, broker, zlog)

	// Handlers
	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	testH := testHandler.NewHandler(testSvc, sampleSvc)
	testTypeH := testTypeHandler.NewHandler(testTypeSvc)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(authMiddleware, authH, testH, testTypeH, h, router.Config{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		MetricsPrefix:  "lab_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.Timeout(),
		WriteTimeout: cfg.Server.Timeout(),
	}

	go func() {
		appLogger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
