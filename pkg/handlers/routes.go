package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakinadamha/buildpk/pkg/charging"
	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/market/plots"
	"github.com/sakinadamha/buildpk/pkg/market/points"
	"github.com/sakinadamha/buildpk/pkg/middleware"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/registry"
	"github.com/sakinadamha/buildpk/pkg/verify"
)

// Services bundles everything the router needs.
type Services struct {
	Ledger   *ledger.Service
	Registry *registry.Service
	Verify   *verify.Service
	Plots    *plots.Service
	Points   *points.Service
	Charging *charging.Service
	Notify   *notify.Service
}

// NewRouter assembles the full API surface.
func NewRouter(logger *slog.Logger, svc Services) chi.Router {
	economy := NewEconomyHandler(svc.Ledger)
	resources := NewResourcesHandler(svc.Registry)
	verifications := NewVerificationsHandler(svc.Verify)
	plotMarket := NewPlotsHandler(svc.Plots)
	pointsMarket := NewPointsHandler(svc.Points)
	chargers := NewChargingHandler(svc.Charging)
	notifications := NewNotificationsHandler(svc.Notify)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewStructuredLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/economy", func(r chi.Router) {
			r.Get("/balance", economy.GetBalance)
			r.Get("/history", economy.GetHistory)
			r.Post("/stake", economy.Stake)
			r.Post("/unstake", economy.Unstake)
			r.Post("/transfer", economy.Transfer)
			r.Post("/claim-rewards", economy.ClaimRewards)
		})

		r.Route("/resources/{kind}", func(r chi.Router) {
			r.Get("/", resources.ListResources)
			r.Post("/", resources.CreateResource)
			r.Get("/{id}", resources.GetResource)
			r.Patch("/{id}", resources.UpdateResource)
			r.Post("/{id}/contributions", resources.RecordContribution)
		})

		r.Route("/verifications", func(r chi.Router) {
			r.Get("/", verifications.Queue)
			r.Post("/", verifications.Submit)
			r.Post("/{id}/approve", verifications.Approve)
			r.Post("/{id}/reject", verifications.Reject)
		})

		r.Route("/plots", func(r chi.Router) {
			r.Get("/", plotMarket.ListPlots)
			r.Get("/{id}", plotMarket.GetPlot)
			r.Post("/{id}/purchase", plotMarket.PurchasePlot)
			r.Route("/listings", func(r chi.Router) {
				r.Get("/", plotMarket.ListListings)
				r.Post("/", plotMarket.CreateListing)
				r.Post("/{id}/buy", plotMarket.BuyListing)
				r.Post("/{id}/cancel", plotMarket.CancelListing)
			})
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/balance", pointsMarket.GetBalance)
			r.Get("/transactions", pointsMarket.ListTransactions)
			r.Route("/listings", func(r chi.Router) {
				r.Get("/", pointsMarket.ListListings)
				r.Post("/", pointsMarket.CreateListing)
				r.Post("/{id}/buy", pointsMarket.BuyListing)
				r.Post("/{id}/cancel", pointsMarket.CancelListing)
			})
		})

		r.Route("/charging", func(r chi.Router) {
			r.Post("/chargers", chargers.InstallCharger)
			r.Get("/sessions", chargers.ListSessions)
			r.Post("/sessions", chargers.StartSession)
			r.Post("/sessions/{id}/end", chargers.EndSession)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notifications.List)
			r.Post("/{id}/read", notifications.MarkRead)
			r.Post("/read-all", notifications.MarkAllRead)
		})
	})

	return r
}
