package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Bills — /v1/businesses/{businessID}/bills
// ============================================================

func createBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/bills")
		defer span.End()

		businessID := chi.URLParam(r, "businessID")
		span.SetAttributes(attribute.String("business.id", businessID))

		var req domain.BillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bill, err := svc.CreateBill(ctx, businessID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, bill)
	}
}

func listBillsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/bills")
		defer span.End()

		businessID := chi.URLParam(r, "businessID")
		page, pageSize := parsePagination(r)

		bills, err := svc.ListBills(ctx, businessID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"bills":     bills,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

func getBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/bills/{billID}")
		defer span.End()

		bill, err := svc.GetBill(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "billID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func updateBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessID}/bills/{billID}")
		defer span.End()

		businessID := chi.URLParam(r, "businessID")
		billID := chi.URLParam(r, "billID")
		span.SetAttributes(attribute.String("bill.id", billID))

		var req domain.BillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bill, err := svc.UpdateBill(ctx, businessID, billID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func deleteBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/bills/{billID}")
		defer span.End()

		if err := svc.DeleteBill(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "billID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
