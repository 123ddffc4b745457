package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/boddenberg/corebank-ledger-go/internal/config"
	"github.com/boddenberg/corebank-ledger-go/internal/domain"
	"github.com/boddenberg/corebank-ledger-go/internal/exchange"
	"github.com/boddenberg/corebank-ledger-go/internal/handler"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/memstore"
	"github.com/boddenberg/corebank-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corebank-ledger-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("users_file", cfg.UsersFile),
		zap.String("rates_file", cfg.RatesFile),
		zap.String("commerciants_file", cfg.CommerciantsFile),
		zap.Duration("rate_cache_ttl", cfg.RateCacheTTL),
		zap.Bool("require_auth", cfg.RequireAuth),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "corebank-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Seed data ---
	seed, err := config.LoadSeed(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to load seed data", zap.Error(err))
	}
	logger.Info("seed data loaded",
		zap.Int("users", len(seed.Users)),
		zap.Int("rates", len(seed.Rates)),
		zap.Int("commerciants", len(seed.Commerciants)),
	)

	// --- Exchange graph ---
	edges := make([]exchange.Edge, len(seed.Rates))
	for i, r := range seed.Rates {
		edges[i] = exchange.Edge{From: r.From, To: r.To, Rate: r.Rate}
	}
	graph := exchange.NewGraph(edges)
	converter := exchange.NewCachedConverter(graph, cfg.RateCacheTTL)

	// --- Registry ---
	commerciants := make([]domain.Commerciant, len(seed.Commerciants))
	for i, c := range seed.Commerciants {
		commerciants[i] = domain.Commerciant{
			Name:     c.Name,
			IBAN:     c.IBAN,
			Category: domain.ParseCategory(c.Type),
			Strategy: domain.ParseCashbackStrategy(c.Strategy),
		}
	}
	store := memstore.New(commerciants)
	for _, u := range seed.Users {
		store.AddUser(&domain.User{
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			Age:        domain.AgeFromBirthDate(u.BirthDate),
			Occupation: u.Occupation,
			Plan:       domain.PlanForOccupation(u.Occupation),
		})
	}

	// --- Services ---
	// One mutex across the ledger and the split coordinator: every
	// operation commits atomically with respect to every other.
	engineMu := &sync.Mutex{}
	cashback := service.NewCashbackEngine(converter, metrics, logger)
	bankSvc := service.NewBankService(engineMu, store, converter, cashback, metrics, logger)
	splitSvc := service.NewSplitCoordinator(engineMu, store, converter, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(bankSvc, splitSvc, cfg, metrics, logger)

	// --- Server ---
	srv := handler.NewServer(fmt.Sprintf(":%d", cfg.Port), router, cfg)

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
