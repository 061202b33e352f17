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
// Salaries — /v1/businesses/{businessID}/salaries
// ============================================================

func createSalaryHandler(svc *service.PayrollService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/salaries")
		defer span.End()

		var req domain.SalaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		entry, err := svc.CreateSalaryEntry(ctx, chi.URLParam(r, "businessID"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func listSalariesHandler(svc *service.PayrollService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/salaries")
		defer span.End()

		entries, err := svc.ListSalaryEntries(ctx, chi.URLParam(r, "businessID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"salaries": entries})
	}
}

func deleteSalaryHandler(svc *service.PayrollService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/salaries/{entryID}")
		defer span.End()

		if err := svc.DeleteSalaryEntry(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "entryID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
