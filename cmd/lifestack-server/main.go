package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lifestack/lifestack/internal/config"
	"github.com/lifestack/lifestack/internal/domain/emergency"
	"github.com/lifestack/lifestack/internal/domain/queue"
	"github.com/lifestack/lifestack/internal/domain/registry"
	"github.com/lifestack/lifestack/internal/platform/auth"
	"github.com/lifestack/lifestack/internal/platform/codes"
	"github.com/lifestack/lifestack/internal/platform/middleware"
	"github.com/lifestack/lifestack/internal/platform/sandbox"
	"github.com/lifestack/lifestack/internal/platform/simplify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifestack-server",
		Short: "Clinical identity record API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Stores and services. Everything lives in process memory; the seeded
	// demo dataset is the whole world until restart.
	gen := codes.NewGenerator()
	patientRepo := registry.NewMemRepository()
	sessionRepo := queue.NewMemRepository()

	registrySvc := registry.NewService(patientRepo, gen, cfg.DefaultClinician, logger)
	queueSvc := queue.NewService(sessionRepo, gen, func(ctx context.Context, id string) error {
		_, err := registrySvc.FindPatientByID(ctx, id)
		return err
	}, cfg.DefaultClinician, logger)

	grantStore := emergency.NewGrantStore(time.Duration(cfg.EmergencyTTLSeconds) * time.Second)
	defer grantStore.Close()
	emergencySvc := emergency.NewService(grantStore, registrySvc, logger)

	simplifier := simplify.NewClient(cfg.SimplifierURL, cfg.SimplifierAPIKey, logger)

	revocation := auth.NewTokenRevocationStore()
	defer revocation.Close()
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	tokenMgr := auth.NewManager([]byte(cfg.AuthSigningKey), sessionTTL, revocation)

	// Demo dataset
	seeder := sandbox.NewSeeder(patientRepo, sessionRepo, gen, logger)
	seeder.ExtraPatients = cfg.SeedExtraPatients
	if _, err := seeder.Seed(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed demo dataset")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Auth middleware on the API group; sign-in itself stays open.
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(tokenMgr)
	} else {
		authMW = auth.Middleware(tokenMgr)
	}

	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	auth.NewHandler(tokenMgr).Register(api, auth.Middleware(tokenMgr))

	protected := api.Group("", authMW)
	registry.NewHandler(registrySvc, grantStore).Register(protected)
	queue.NewHandler(queueSvc).Register(protected)
	emergency.NewHandler(emergencySvc).Register(protected)
	simplify.NewHandler(simplifier, registrySvc).Register(protected)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	return nil
}
