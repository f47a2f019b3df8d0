package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/papertrade/virtual-trading-backend/internal/api/handlers"
	custommiddleware "github.com/papertrade/virtual-trading-backend/internal/api/middleware"
	"github.com/papertrade/virtual-trading-backend/internal/config"
	"github.com/papertrade/virtual-trading-backend/internal/service"
)

// Services bundles the service dependencies of the router.
type Services struct {
	System    *service.SystemService
	Price     *service.PriceService
	Portfolio *service.PortfolioService
	Ledger    *service.LedgerService
	Valuation *service.ValuationService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(chimiddleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/quota", systemHandler.Quota)
		})

		// Market data
		priceHandler := handlers.NewPriceHandler(svc.Price)
		r.Get("/tickers", priceHandler.Tickers)
		r.Route("/prices/{ticker}", func(r chi.Router) {
			r.Get("/current", priceHandler.Current)
			r.Get("/at", priceHandler.At)
			r.Get("/history", priceHandler.History)
		})

		// Portfolios and their ledgers
		r.Route("/portfolios", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Valuation)
			transactionHandler := handlers.NewTransactionHandler(svc.Ledger)

			r.Post("/", portfolioHandler.Create)
			r.Get("/", portfolioHandler.List)

			r.Route("/{portfolioId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidatePortfolioID)
				r.Get("/", portfolioHandler.Get)
				r.Get("/valuation", portfolioHandler.Valuation)
				r.Get("/cash", portfolioHandler.Cash)
				r.Get("/holdings", portfolioHandler.Holdings)
				r.Post("/transactions", transactionHandler.Record)
				r.Get("/transactions", transactionHandler.List)
			})
		})
	})

	return r
}
