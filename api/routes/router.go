package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posbill/billsync-backend/api/controllers"
	"github.com/posbill/billsync-backend/api/middleware"
	billingsvc "github.com/posbill/billsync-backend/internal/billing"
	catalogsvc "github.com/posbill/billsync-backend/internal/catalog"
	syncsvc "github.com/posbill/billsync-backend/internal/sync"
	vendorsvc "github.com/posbill/billsync-backend/internal/vendors"
	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	syncService syncsvc.Service,
	catalogService catalogsvc.Service,
	billingService billingsvc.Service,
	sequences billingsvc.SequenceGenerator,
	vendorService vendorsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	readyDeps := make([]controllers.NamedPinger, 0, 2)
	if dbClient != nil {
		readyDeps = append(readyDeps, controllers.NamedPinger{Name: "database", Pinger: dbClient})
	}
	if redisClient != nil {
		readyDeps = append(readyDeps, controllers.NamedPinger{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps...))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.VendorContext(vendorService, logg))
		if redisClient != nil {
			// Idempotency scopes keys by vendor, so it sits after
			// vendor resolution.
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/v1", func(r chi.Router) {
			r.Post("/sync/items", controllers.SyncItems(syncService, logg))
			r.Post("/sync/categories", controllers.SyncCategories(syncService, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", controllers.CreateItem(catalogService, logg))
				r.Get("/", controllers.ListItems(catalogService, logg))
				r.Get("/{itemID}", controllers.GetItem(catalogService, logg))
				r.Patch("/{itemID}", controllers.UpdateItem(catalogService, logg))
				r.Delete("/{itemID}", controllers.DeleteItem(catalogService, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.CreateCategory(catalogService, logg))
				r.Get("/", controllers.ListCategories(catalogService, logg))
				r.Get("/{categoryID}", controllers.GetCategory(catalogService, logg))
				r.Patch("/{categoryID}", controllers.UpdateCategory(catalogService, logg))
				r.Delete("/{categoryID}", controllers.DeleteCategory(catalogService, logg))
			})

			r.Route("/bills", func(r chi.Router) {
				r.Post("/", controllers.CreateBill(billingService, logg))
				r.Get("/", controllers.ListBills(billingService, logg))
				r.Post("/sync", controllers.SyncBills(billingService, logg))
				r.Get("/{billID}", controllers.GetBill(billingService, logg))
				r.Put("/{billID}/lines", controllers.ReplaceBillLines(billingService, logg))
			})

			r.Route("/vendor", func(r chi.Router) {
				r.Get("/profile", controllers.VendorProfile(vendorService, logg))
				r.Patch("/profile", controllers.UpdateVendorProfile(vendorService, logg))
				r.Get("/numbering", controllers.VendorNumbering(sequences, logg))
				r.Patch("/numbering", controllers.UpdateVendorNumbering(sequences, logg))
				r.Put("/security-pin", controllers.SetSecurityPin(vendorService, logg))
				r.Post("/security-pin/verify", controllers.VerifySecurityPin(vendorService, logg))
			})
		})
	})

	return r
}
