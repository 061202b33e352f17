package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Purchases — /v1/businesses/{businessID}/purchases
// ============================================================

func createPurchaseHandler(svc *service.PurchaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/purchases")
		defer span.End()

		var req domain.PurchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		purchase, err := svc.CreatePurchase(ctx, chi.URLParam(r, "businessID"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, purchase)
	}
}

func listPurchasesHandler(svc *service.PurchaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/purchases")
		defer span.End()

		page, pageSize := parsePagination(r)
		purchases, err := svc.ListPurchases(ctx, chi.URLParam(r, "businessID"), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"purchases": purchases,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

func deletePurchaseHandler(svc *service.PurchaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/purchases/{purchaseID}")
		defer span.End()

		if err := svc.DeletePurchase(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "purchaseID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
