package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fkhayef/billsplit/docs"
	"github.com/fkhayef/billsplit/internal/balance"
	"github.com/fkhayef/billsplit/internal/event"
	"github.com/fkhayef/billsplit/internal/expense"
	expensesplit "github.com/fkhayef/billsplit/internal/expense/split"
	"github.com/fkhayef/billsplit/internal/settlement"
	mw "github.com/fkhayef/billsplit/pkg/middleware"
)

// stores bundles the persistence contracts the features need
type stores struct {
	events  event.Store
	ledgers expense.Store
}

// routerOptions carries the settings that shape the HTTP surface
type routerOptions struct {
	logger               *slog.Logger
	auth                 *mw.Authenticator
	devAuthHeader        bool
	swagger              bool
	aggregateConcurrency int
}

// newRouter wires every feature onto a chi router
func newRouter(st stores, opts routerOptions) http.Handler {
	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory()

	// Event feature
	eventService := event.NewService(st.events)

	// Ledger feature (with split factory injected)
	expenseService := expense.NewService(st.ledgers, st.events, splitFactory)
	expenseHandler := expense.NewHandler(expenseService)

	// Balance feature; completing an event asks it whether balances are zero
	balanceService := balance.NewService(st.ledgers, st.events, opts.aggregateConcurrency)
	balanceHandler := balance.NewHandler(balanceService)
	eventService.SetSettlementChecker(balanceService)

	// Settlement feature
	settlementService := settlement.NewService(balanceService)
	settlementHandler := settlement.NewHandler(settlementService)

	eventHandler := event.NewHandler(eventService, expenseHandler, balanceHandler, settlementHandler)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(opts.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if opts.swagger {
		docs.SwaggerInfo.BasePath = "/api/v1"
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if opts.devAuthHeader {
			r.Use(mw.TestUserMiddleware(opts.auth))
		} else {
			r.Use(opts.auth.Middleware)
		}

		// Mount feature routers
		r.Mount("/events", eventHandler.Routes())
		r.Mount("/users", balanceHandler.Routes())
	})

	return r
}
