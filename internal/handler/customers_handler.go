package handler

import (
	"net/http"

	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Customers and balances — /v1/businesses/{businessID}/customers
// ============================================================

func listCustomersHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/customers")
		defer span.End()

		customers, err := svc.ListCustomers(ctx, chi.URLParam(r, "businessID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	}
}

func refreshCustomersHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/customers/refresh")
		defer span.End()

		customers, err := svc.RefreshAll(ctx, chi.URLParam(r, "businessID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	}
}

func deleteCustomerHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/customers/{customerID}")
		defer span.End()

		customerID := chi.URLParam(r, "customerID")
		span.SetAttributes(attribute.String("customer.id", customerID))

		if err := svc.DeleteCustomer(ctx, chi.URLParam(r, "businessID"), customerID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func customerBillsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/customers/{phone}/bills")
		defer span.End()

		bills, err := svc.ListBillsByPhone(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "phone"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
	}
}

func customerBalanceHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/customers/{phone}/balance")
		defer span.End()

		view, err := svc.GetBalanceByPhone(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "phone"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func latestBalanceHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/customers/{phone}/balance/latest")
		defer span.End()

		view, err := svc.LatestBalanceByPhone(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "phone"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func refreshCustomerHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/customers/{phone}/refresh")
		defer span.End()

		cust, err := svc.RefreshCustomer(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "phone"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cust)
	}
}
