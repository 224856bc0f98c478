package transport

import (
	"errors"
	"net/http"

	"pos-register/internal/middleware"
	"pos-register/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductResponse is a catalog entry resolved for the register client
type ProductResponse struct {
	Barcode   string `json:"barcode"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	TaxCode   string `json:"tax_code"`
	TaxName   string `json:"tax_name"`
	TaxRate   string `json:"tax_rate"`
}

// CatalogHandler handles HTTP requests for barcode lookups
type CatalogHandler struct {
	catalogRepo repository.CatalogRepository
	logger      *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogRepo repository.CatalogRepository, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/{barcode}", h.GetByBarcode)
	})
}

// GetByBarcode resolves a scanned barcode to a priced catalog entry
func (h *CatalogHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	product, taxClass, err := h.catalogRepo.FindByBarcode(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Barcode lookup failed", zap.Error(err), zap.String("barcode", barcode))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to look up product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{
		Barcode:   product.Barcode,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		TaxCode:   taxClass.Code,
		TaxName:   taxClass.Name,
		TaxRate:   taxClass.Rate.String(),
	})
}
