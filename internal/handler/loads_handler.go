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
// Loads — /v1/businesses/{businessID}/loads
// ============================================================

func createLoadEntryHandler(svc *service.LoadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/loads")
		defer span.End()

		var req domain.LoadEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		entry, err := svc.CreateLoadEntry(ctx, chi.URLParam(r, "businessID"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func listLoadEntriesHandler(svc *service.LoadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/loads")
		defer span.End()

		page, pageSize := parsePagination(r)
		entries, err := svc.ListLoadEntries(ctx, chi.URLParam(r, "businessID"), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"loads":     entries,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

func deleteLoadEntryHandler(svc *service.LoadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/loads/{entryID}")
		defer span.End()

		if err := svc.DeleteLoadEntry(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "entryID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
