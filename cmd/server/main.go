package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/alphavantage"
	"github.com/papertrade/virtual-trading-backend/internal/api"
	"github.com/papertrade/virtual-trading-backend/internal/cache"
	"github.com/papertrade/virtual-trading-backend/internal/config"
	"github.com/papertrade/virtual-trading-backend/internal/database"
	"github.com/papertrade/virtual-trading-backend/internal/ratelimit"
	"github.com/papertrade/virtual-trading-backend/internal/repository"
	"github.com/papertrade/virtual-trading-backend/internal/secrets"
	"github.com/papertrade/virtual-trading-backend/internal/service"
)

// apiKeySetting is the system_setting key holding the fernet-encrypted
// provider API key.
const apiKeySetting = "provider_api_key"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	apiKey, err := resolveAPIKey(cfg, settingsRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve provider API key")
	}

	// Provider stack: rate limiter, HTTP client, in-memory cache
	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.PerDay, log)
	gateway := alphavantage.NewClient(apiKey, cfg.Provider.BaseURL, cfg.Provider.Currency, log)
	priceCache := cache.New(cfg.Pricing.CacheTTL, log)

	// Create services
	systemService := service.NewSystemService(db, limiter)
	priceService := service.NewPriceService(priceRepo, priceCache, gateway, limiter, cfg.Pricing, log)
	ledgerService := service.NewLedgerService(ledgerRepo, portfolioRepo, priceService, log)
	portfolioService := service.NewPortfolioService(portfolioRepo, ledgerRepo, log)
	valuationService := service.NewValuationService(portfolioRepo, ledgerRepo, priceService, log)

	// Background price refresh after market close
	refreshService := service.NewRefreshService(ledgerService, priceService, cfg.Pricing.RefreshSchedule, log)
	if err := refreshService.Start(); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Pricing.RefreshSchedule).Msg("Failed to start price refresh scheduler")
	}
	defer refreshService.Stop()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Price:     priceService,
		Portfolio: portfolioService,
		Ledger:    ledgerService,
		Valuation: valuationService,
	}, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// resolveAPIKey returns the provider API key. A key given through the
// environment wins and is persisted encrypted for later runs; otherwise the
// stored encrypted key is decrypted. Both paths need the fernet secret key.
func resolveAPIKey(cfg *config.Config, settingsRepo *repository.SettingsRepository, log zerolog.Logger) (string, error) {
	if cfg.Provider.SecretKey == "" {
		log.Warn().Msg("No settings secret key configured; using provider API key from environment only")
		return cfg.Provider.APIKey, nil
	}

	enc, err := secrets.NewEncryptor(cfg.Provider.SecretKey)
	if err != nil {
		return "", err
	}

	if cfg.Provider.APIKey != "" {
		token, err := enc.Encrypt(cfg.Provider.APIKey)
		if err != nil {
			return "", err
		}
		if err := settingsRepo.Set(context.Background(), apiKeySetting, token); err != nil {
			return "", err
		}
		return cfg.Provider.APIKey, nil
	}

	token, ok, err := settingsRepo.Get(apiKeySetting)
	if err != nil {
		return "", err
	}
	if !ok {
		log.Warn().Msg("No provider API key configured; provider calls will fail")
		return "", nil
	}
	return enc.Decrypt(token)
}
