package transport

import (
	"errors"
	"net/http"

	"pos-register/internal/domain"
	"pos-register/internal/middleware"
	"pos-register/internal/repository"
	"pos-register/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettleRequest represents the settlement request payload
type SettleRequest struct {
	StoreCode  string            `json:"store_code" validate:"required,max=10"`
	TerminalID string            `json:"terminal_id" validate:"required,max=10"`
	Items      []SettleItemInput `json:"items" validate:"required,min=1,dive"`
	Note       string            `json:"note" validate:"max=500"`
}

// SettleItemInput is one scanned cart line
type SettleItemInput struct {
	Barcode  string `json:"barcode" validate:"required,max=20"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

// SettleResponse represents a committed settlement
type SettleResponse struct {
	TransactionID string        `json:"transaction_id"`
	Totals        domain.Totals `json:"totals"`
	SettledAt     string        `json:"settled_at"`
}

// TransactionResponse is a persisted transaction with its full line set
type TransactionResponse struct {
	Transaction *domain.Transaction      `json:"transaction"`
	Lines       []domain.TransactionLine `json:"lines"`
}

// SettlementHandler handles HTTP requests for sale settlement
type SettlementHandler struct {
	settlementService service.SettlementService
	logger            *zap.Logger
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService service.SettlementService, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// RegisterRoutes registers all settlement routes
func (h *SettlementHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/settlements", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Settle)
		r.Get("/{id}", h.GetTransaction)
	})
}

// Settle handles sale settlement
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Settlement validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The cashier on the header comes from the verified token, never
	// from the request body.
	cashierCode, ok := middleware.GetCashierCode(r.Context())
	if !ok {
		h.logger.Error("Cashier code not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cart := make([]domain.CartLine, len(req.Items))
	for i, item := range req.Items {
		cart[i] = domain.CartLine{Barcode: item.Barcode, Quantity: item.Quantity}
	}

	result, err := h.settlementService.Settle(r.Context(), service.SettleInput{
		StoreCode:   req.StoreCode,
		TerminalID:  req.TerminalID,
		CashierCode: cashierCode,
		Cart:        cart,
		Note:        req.Note,
	})
	if err != nil {
		h.respondWithSettlementError(w, err)
		return
	}

	h.logger.Info("Sale settled",
		zap.String("transaction_id", result.TransactionID),
		zap.String("store_code", req.StoreCode),
		zap.String("terminal_id", req.TerminalID),
		zap.String("cashier_code", cashierCode),
		zap.Int64("total_incl_tax", result.Totals.AmountInclTax),
	)

	middleware.RespondWithJSON(w, http.StatusCreated, SettleResponse{
		TransactionID: result.TransactionID,
		Totals:        result.Totals,
		SettledAt:     result.SettledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetTransaction handles reading back a settled transaction
func (h *SettlementHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	transaction, lines, err := h.settlementService.GetTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", zap.Error(err), zap.String("transaction_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, TransactionResponse{
		Transaction: transaction,
		Lines:       lines,
	})
}

// respondWithSettlementError maps the settlement error taxonomy onto
// HTTP status codes.
func (h *SettlementHandler) respondWithSettlementError(w http.ResponseWriter, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		h.logger.Error("Settlement failed with unclassified error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "settlement failed")
		return
	}

	var se *domain.SettlementError
	errors.As(err, &se)

	switch kind {
	case domain.ErrKindValidation:
		h.logger.Debug("Settlement rejected", zap.Error(err))
		details := map[string]interface{}{"kind": string(kind)}
		if se.Barcode != "" {
			details["barcode"] = se.Barcode
		}
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, se.Message, details)
	case domain.ErrKindComputation:
		h.logger.Error("Catalog data corruption detected", zap.Error(err), zap.String("barcode", se.Barcode))
		middleware.RespondWithError(w, http.StatusInternalServerError, se.Message)
	case domain.ErrKindConflict:
		h.logger.Error("Transaction id conflict not resolved", zap.Error(err))
		middleware.RespondWithError(w, http.StatusConflict, se.Message)
	case domain.ErrKindPersistence:
		h.logger.Error("Settlement persistence failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "store temporarily unavailable, retry the settlement")
	default:
		h.logger.Error("Settlement failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "settlement failed")
	}
}
