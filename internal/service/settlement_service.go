package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pos-register/internal/domain"
	"pos-register/internal/pricing"
	"pos-register/internal/repository"
	"pos-register/internal/txid"
)

// MaxIDRetries bounds how many suffixed identifiers are attempted after
// the base identifier collides.
const MaxIDRetries = 3

// SettleInput is one cart submitted for settlement.
type SettleInput struct {
	StoreCode   string
	TerminalID  string
	CashierCode string
	Cart        []domain.CartLine
	Note        string
}

// SettlementResult is the success outcome of a settlement.
type SettlementResult struct {
	TransactionID string        `json:"transaction_id"`
	Totals        domain.Totals `json:"totals"`
	SettledAt     time.Time     `json:"settled_at"`
}

// SettlementService finalizes carts into permanent transaction records.
type SettlementService interface {
	Settle(ctx context.Context, input SettleInput) (*SettlementResult, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, []domain.TransactionLine, error)
}

type settlementService struct {
	catalogRepo repository.CatalogRepository
	txRepo      repository.TransactionRepository
	now         func() time.Time

	// terminalLocks serializes identifier generation and commit per
	// (store, terminal) pair; identifiers only have one-second
	// resolution, so concurrent settlements from the same terminal
	// would otherwise race for the same id.
	mu            sync.Mutex
	terminalLocks map[string]*sync.Mutex
}

// NewSettlementService creates a new instance of SettlementService
func NewSettlementService(
	catalogRepo repository.CatalogRepository,
	txRepo repository.TransactionRepository,
) SettlementService {
	return &settlementService{
		catalogRepo:   catalogRepo,
		txRepo:        txRepo,
		now:           time.Now,
		terminalLocks: make(map[string]*sync.Mutex),
	}
}

// Settle validates the cart, prices every line, aggregates header
// totals, mints a transaction identifier and persists header plus lines
// as a single atomic unit. A failure at any phase leaves nothing
// persisted and returns a classified *domain.SettlementError.
func (s *settlementService) Settle(ctx context.Context, input SettleInput) (*SettlementResult, error) {
	if len(input.Cart) == 0 {
		return nil, domain.NewValidationError("", "cart is empty")
	}

	// Validating + Pricing: resolve every barcode against the catalog
	// snapshot and price each line. The first unresolvable line fails
	// the whole settlement; there are no partial sales.
	pricedLines := make([]domain.PricedLine, 0, len(input.Cart))
	for _, cartLine := range input.Cart {
		if cartLine.Quantity <= 0 {
			return nil, domain.NewValidationError(cartLine.Barcode,
				fmt.Sprintf("quantity must be positive, got %d", cartLine.Quantity))
		}

		product, taxClass, err := s.catalogRepo.FindByBarcode(ctx, cartLine.Barcode)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, domain.NewValidationError(cartLine.Barcode, "product not found or inactive")
			}
			return nil, domain.NewPersistenceError("catalog lookup failed", err)
		}

		pricedLine, err := pricing.PriceLine(product, taxClass, cartLine.Quantity)
		if err != nil {
			return nil, err
		}
		pricedLines = append(pricedLines, pricedLine)
	}

	// Aggregating
	totals, err := pricing.Aggregate(pricedLines)
	if err != nil {
		return nil, err
	}

	// Persisting: identifier generation and commit run under the
	// per-terminal critical section, with bounded suffix retries
	// against the store's primary-key constraint.
	lock := s.terminalLock(input.StoreCode, input.TerminalID)
	lock.Lock()
	defer lock.Unlock()

	settledAt := s.now()
	baseID := txid.Generate(input.StoreCode, input.TerminalID, settledAt)

	candidateID := baseID
	for attempt := 0; ; attempt++ {
		transaction, lines := buildRecord(candidateID, input, settledAt, totals, pricedLines)

		err = s.txRepo.Save(ctx, transaction, lines)
		if err == nil {
			return &SettlementResult{
				TransactionID: transaction.ID,
				Totals:        totals,
				SettledAt:     settledAt,
			}, nil
		}

		if !errors.Is(err, repository.ErrTransactionExists) {
			return nil, domain.NewPersistenceError("failed to persist transaction", err)
		}
		if attempt >= MaxIDRetries {
			return nil, domain.NewConflictError(
				fmt.Sprintf("transaction id %s still in conflict after %d retries", candidateID, attempt), err)
		}
		candidateID = txid.WithSuffix(baseID, attempt+1)
	}
}

// GetTransaction returns a settled transaction with its full line set.
func (s *settlementService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, []domain.TransactionLine, error) {
	transaction, lines, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, lines, nil
}

// terminalLock returns the mutex guarding one (store, terminal) pair.
func (s *settlementService) terminalLock(storeCode, terminalID string) *sync.Mutex {
	key := storeCode + "/" + terminalID

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.terminalLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.terminalLocks[key] = lock
	}
	return lock
}

// buildRecord assembles the persistable header and lines for one
// identifier candidate. Sequence numbers follow cart input order,
// starting at 1.
func buildRecord(id string, input SettleInput, settledAt time.Time, totals domain.Totals, pricedLines []domain.PricedLine) (*domain.Transaction, []domain.TransactionLine) {
	transaction := &domain.Transaction{
		ID:            id,
		StoreCode:     input.StoreCode,
		TerminalID:    input.TerminalID,
		CashierCode:   input.CashierCode,
		SettledAt:     settledAt,
		AmountExclTax: totals.AmountExclTax,
		TaxAmount:     totals.TaxAmount,
		AmountInclTax: totals.AmountInclTax,
		Note:          input.Note,
		CreatedAt:     settledAt,
	}

	lines := make([]domain.TransactionLine, len(pricedLines))
	for i, pl := range pricedLines {
		seq := i + 1
		lines[i] = domain.TransactionLine{
			ID:              txid.LineID(id, seq),
			TransactionID:   id,
			Seq:             seq,
			Barcode:         pl.Barcode,
			ProductName:     pl.ProductName,
			UnitPrice:       pl.UnitPrice,
			Quantity:        pl.Quantity,
			SubtotalExclTax: pl.SubtotalExclTax,
			TaxCode:         pl.TaxCode,
			TaxRate:         pl.TaxRate,
			TaxAmount:       pl.TaxAmount,
			SubtotalInclTax: pl.SubtotalInclTax,
			CreatedAt:       settledAt,
		}
	}

	return transaction, lines
}
