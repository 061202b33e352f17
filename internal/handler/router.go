package handler

import (
	"net/http"

	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the service dependencies of the router.
type Services struct {
	Billing   *service.BillingService
	Customers *service.CustomerService
	Catalog   *service.CatalogService
	Purchases *service.PurchaseService
	Loads     *service.LoadService
	Payroll   *service.PayrollService
}

// NewRouter creates the HTTP router with all routes and middleware. Every
// business resource is scoped under /v1/businesses/{businessID}.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Balance synchronization health, aggregated from the Prometheus
		// counters.
		r.Get("/metrics/sync", syncMetricsHandler(metrics, logger))

		r.Route("/businesses/{businessID}", func(r chi.Router) {

			// Bills
			r.Post("/bills", createBillHandler(svcs.Billing, logger))
			r.Get("/bills", listBillsHandler(svcs.Billing, logger))
			r.Get("/bills/{billID}", getBillHandler(svcs.Billing, logger))
			r.Put("/bills/{billID}", updateBillHandler(svcs.Billing, logger))
			r.Delete("/bills/{billID}", deleteBillHandler(svcs.Billing, logger))

			// Customers and balances
			r.Get("/customers", listCustomersHandler(svcs.Customers, logger))
			r.Post("/customers/refresh", refreshCustomersHandler(svcs.Customers, logger))
			r.Delete("/customers/{customerID}", deleteCustomerHandler(svcs.Customers, logger))
			r.Get("/customers/{phone}/bills", customerBillsHandler(svcs.Billing, logger))
			r.Get("/customers/{phone}/balance", customerBalanceHandler(svcs.Billing, logger))
			r.Get("/customers/{phone}/balance/latest", latestBalanceHandler(svcs.Billing, logger))
			r.Post("/customers/{phone}/refresh", refreshCustomerHandler(svcs.Billing, logger))

			// Suppliers
			r.Post("/suppliers", getOrCreateSupplierHandler(svcs.Catalog, logger))
			r.Get("/suppliers", listSuppliersHandler(svcs.Catalog, logger))
			r.Get("/suppliers/suggest", suggestSuppliersHandler(svcs.Catalog, logger))
			r.Delete("/suppliers/{supplierID}", deleteSupplierHandler(svcs.Catalog, logger))

			// Products
			r.Post("/products", createProductHandler(svcs.Catalog, logger))
			r.Get("/products", listProductsHandler(svcs.Catalog, logger))
			r.Delete("/products/{productID}", deleteProductHandler(svcs.Catalog, logger))

			// Purchases
			r.Post("/purchases", createPurchaseHandler(svcs.Purchases, logger))
			r.Get("/purchases", listPurchasesHandler(svcs.Purchases, logger))
			r.Delete("/purchases/{purchaseID}", deletePurchaseHandler(svcs.Purchases, logger))

			// Loads
			r.Post("/loads", createLoadEntryHandler(svcs.Loads, logger))
			r.Get("/loads", listLoadEntriesHandler(svcs.Loads, logger))
			r.Delete("/loads/{entryID}", deleteLoadEntryHandler(svcs.Loads, logger))

			// Salaries
			r.Post("/salaries", createSalaryHandler(svcs.Payroll, logger))
			r.Get("/salaries", listSalariesHandler(svcs.Payroll, logger))
			r.Delete("/salaries/{entryID}", deleteSalaryHandler(svcs.Payroll, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func syncMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/sync")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.SyncSnapshot())
	}
}
