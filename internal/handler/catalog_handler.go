package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Suppliers and products — /v1/businesses/{businessID}/{suppliers,products}
// ============================================================

type nameRequest struct {
	Name string `json:"name"`
}

func getOrCreateSupplierHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/suppliers")
		defer span.End()

		var req nameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		supplier, err := svc.GetOrCreateSupplier(ctx, chi.URLParam(r, "businessID"), req.Name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, supplier)
	}
}

func listSuppliersHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/suppliers")
		defer span.End()

		suppliers, err := svc.ListSuppliers(ctx, chi.URLParam(r, "businessID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
	}
}

func suggestSuppliersHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/suppliers/suggest")
		defer span.End()

		suppliers, err := svc.SuggestSuppliers(ctx, chi.URLParam(r, "businessID"), r.URL.Query().Get("q"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
	}
}

func deleteSupplierHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/suppliers/{supplierID}")
		defer span.End()

		if err := svc.DeleteSupplier(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "supplierID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func createProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessID}/products")
		defer span.End()

		var req nameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		product, err := svc.CreateProduct(ctx, chi.URLParam(r, "businessID"), req.Name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

func listProductsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/{businessID}/products")
		defer span.End()

		products, err := svc.ListProducts(ctx, chi.URLParam(r, "businessID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func deleteProductHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessID}/products/{productID}")
		defer span.End()

		if err := svc.DeleteProduct(ctx, chi.URLParam(r, "businessID"), chi.URLParam(r, "productID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
