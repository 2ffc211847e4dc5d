package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shriya-upadhyay/meridian/docs"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shriya-upadhyay/meridian/internal/config"
	"github.com/shriya-upadhyay/meridian/internal/handlers"
	"github.com/shriya-upadhyay/meridian/internal/metrics"
	"github.com/shriya-upadhyay/meridian/internal/middleware"
	"github.com/shriya-upadhyay/meridian/internal/sensitive"
	"github.com/shriya-upadhyay/meridian/internal/services"
	"github.com/shriya-upadhyay/meridian/pkg/ledger"
)

// @title           Cross-Border Payment Orchestrator API
// @version         1.0
// @description     Off-ledger orchestration of cross-border payment proposals
// @description     Sensitive fields stay off the ledger until a proposal is accepted and projected into per-role views

// @BasePath  /

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Parties
// @tag.description Configured ledger parties

// @tag.name Proposals
// @tag.description Create, accept and withdraw payment proposals

// @tag.name Transactions
// @tag.description Freeze and settle accepted transactions

// @tag.name Views
// @tag.description Per-role projections of accepted transactions

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Logging)

	log.Info().Msg("Starting Cross-Border Payment Orchestrator")
	log.Info().Str("ledger", cfg.Ledger.BaseURL).Msg("Ledger JSON API")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	gateway := ledger.NewGateway(cfg.Ledger)
	for _, p := range cfg.Parties {
		if p.FullID != "" {
			gateway.RegisterParty(p.Handle, p.FullID)
		}
	}
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Ledger.RequestTimeout)
	if n, err := gateway.LoadParties(loadCtx); err != nil {
		log.Warn().Err(err).Msg("Could not load parties from ledger, using configured identifiers")
	} else {
		log.Info().Int("parties", n).Msg("Parties loaded from ledger")
	}
	cancelLoad()

	store := sensitive.NewStore(
		sensitive.WithTTL(cfg.Cache.TTL),
		sensitive.WithShards(cfg.Cache.Shards),
	)
	go store.Run(ctx, cfg.Cache.SweepInterval)
	defer store.Close()

	proposals := services.NewProposalService(gateway, store, cfg.Parties)

	handler := handlers.NewHandler(proposals)

	if swaggerHost := os.Getenv("SWAGGER_HOST"); swaggerHost != "" {
		docs.SwaggerInfo.Host = swaggerHost
	} else {
		docs.SwaggerInfo.Host = ""
	}

	router := setupRouter(cfg, handler, gateway.ResolveParty)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}

	if level <= zerolog.DebugLevel {
		log.Logger = log.With().Caller().Logger()
	}
}

func setupRouter(cfg *config.Config, h *handlers.Handler, resolveParty func(string) string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewPartyLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
	h.RegisterRoutes(router, middleware.PartyRateLimit(limiter, resolveParty))

	return router
}
