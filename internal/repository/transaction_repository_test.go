package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"pos-register/internal/domain"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Create the catalog and settlement tables
	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS tax_classes (
			code VARCHAR(10) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			rate INTEGER NOT NULL CHECK (rate >= 0 AND rate <= 10000),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			barcode VARCHAR(20) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			unit_price BIGINT NOT NULL CHECK (unit_price >= 0),
			tax_code VARCHAR(10) NOT NULL REFERENCES tax_classes(code),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(40) PRIMARY KEY,
			store_code VARCHAR(10) NOT NULL,
			terminal_id VARCHAR(10) NOT NULL,
			cashier_code VARCHAR(20) NOT NULL,
			settled_at TIMESTAMP NOT NULL,
			total_amount_excl_tax BIGINT NOT NULL,
			total_tax_amount BIGINT NOT NULL,
			total_amount_incl_tax BIGINT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS transaction_lines (
			id VARCHAR(45) PRIMARY KEY,
			transaction_id VARCHAR(40) NOT NULL REFERENCES transactions(id),
			seq INTEGER NOT NULL,
			barcode VARCHAR(20) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			unit_price BIGINT NOT NULL,
			quantity BIGINT NOT NULL,
			subtotal_excl_tax BIGINT NOT NULL,
			tax_code VARCHAR(10) NOT NULL,
			tax_rate INTEGER NOT NULL,
			tax_amount BIGINT NOT NULL,
			subtotal_incl_tax BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (transaction_id, seq)
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func cleanTransactionTables(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec("DELETE FROM transaction_lines"); err != nil {
		t.Fatalf("failed to clean transaction_lines: %v", err)
	}
	if _, err := testDB.Exec("DELETE FROM transactions"); err != nil {
		t.Fatalf("failed to clean transactions: %v", err)
	}
}

func sampleTransaction(id string) (*domain.Transaction, []domain.TransactionLine) {
	settledAt := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	transaction := &domain.Transaction{
		ID:            id,
		StoreCode:     "STORE001",
		TerminalID:    "POS01",
		CashierCode:   "CASHIER001",
		SettledAt:     settledAt,
		AmountExclTax: 250,
		TaxAmount:     22,
		AmountInclTax: 272,
		Note:          "",
		CreatedAt:     settledAt,
	}

	lines := []domain.TransactionLine{
		{
			ID:              id + "_1",
			TransactionID:   id,
			Seq:             1,
			Barcode:         "4901234567891",
			ProductName:     "Coffee 250ml",
			UnitPrice:       150,
			Quantity:        1,
			SubtotalExclTax: 150,
			TaxCode:         "T08",
			TaxRate:         800,
			TaxAmount:       12,
			SubtotalInclTax: 162,
			CreatedAt:       settledAt,
		},
		{
			ID:              id + "_2",
			TransactionID:   id,
			Seq:             2,
			Barcode:         "4901234567892",
			ProductName:     "Ballpoint pen blue",
			UnitPrice:       100,
			Quantity:        1,
			SubtotalExclTax: 100,
			TaxCode:         "T10",
			TaxRate:         1000,
			TaxAmount:       10,
			SubtotalInclTax: 110,
			CreatedAt:       settledAt,
		},
	}

	return transaction, lines
}

func TestSaveAndFindByID(t *testing.T) {
	cleanTransactionTables(t)
	repo := NewTransactionRepository(testDB)
	ctx := context.Background()

	transaction, lines := sampleTransaction("20260830_STORE001_POS01_140509")
	if err := repo.Save(ctx, transaction, lines); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, foundLines, err := repo.FindByID(ctx, transaction.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if found.ID != transaction.ID ||
		found.StoreCode != transaction.StoreCode ||
		found.TerminalID != transaction.TerminalID ||
		found.CashierCode != transaction.CashierCode {
		t.Errorf("header identity mismatch: %+v", found)
	}
	if found.AmountExclTax != 250 || found.TaxAmount != 22 || found.AmountInclTax != 272 {
		t.Errorf("header totals mismatch: %+v", found)
	}

	if len(foundLines) != len(lines) {
		t.Fatalf("expected %d lines, got %d", len(lines), len(foundLines))
	}
	for i, want := range lines {
		got := foundLines[i]
		if got.ID != want.ID || got.Seq != want.Seq || got.Barcode != want.Barcode {
			t.Errorf("line %d identity mismatch: %+v", i, got)
		}
		if got.UnitPrice != want.UnitPrice || got.Quantity != want.Quantity ||
			got.SubtotalExclTax != want.SubtotalExclTax ||
			got.TaxRate != want.TaxRate || got.TaxAmount != want.TaxAmount ||
			got.SubtotalInclTax != want.SubtotalInclTax {
			t.Errorf("line %d amounts mismatch: %+v", i, got)
		}
	}
}

func TestSaveDuplicateIDReturnsTransactionExists(t *testing.T) {
	cleanTransactionTables(t)
	repo := NewTransactionRepository(testDB)
	ctx := context.Background()

	first, firstLines := sampleTransaction("20260830_STORE001_POS01_140510")
	if err := repo.Save(ctx, first, firstLines); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second, secondLines := sampleTransaction("20260830_STORE001_POS01_140510")
	err := repo.Save(ctx, second, secondLines)
	if !errors.Is(err, ErrTransactionExists) {
		t.Fatalf("expected ErrTransactionExists, got %v", err)
	}

	// The original record is untouched
	var lineCount int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM transaction_lines WHERE transaction_id = $1", first.ID).Scan(&lineCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if lineCount != 2 {
		t.Errorf("expected 2 lines for the original record, got %d", lineCount)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	cleanTransactionTables(t)
	repo := NewTransactionRepository(testDB)
	ctx := context.Background()

	// Duplicate seq within the batch trips the UNIQUE (transaction_id,
	// seq) constraint on the second line insert, after the header insert
	// already succeeded inside the same database transaction.
	transaction, lines := sampleTransaction("20260830_STORE001_POS01_140511")
	lines[1].Seq = lines[0].Seq

	err := repo.Save(ctx, transaction, lines)
	if err == nil {
		t.Fatal("Save with conflicting line sequence should have failed")
	}

	var headerCount int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM transactions WHERE id = $1", transaction.ID).Scan(&headerCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if headerCount != 0 {
		t.Error("header must not survive a failed line insert")
	}

	var lineCount int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM transaction_lines WHERE transaction_id = $1", transaction.ID).Scan(&lineCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if lineCount != 0 {
		t.Error("no lines must survive a failed line insert")
	}
}

func TestFindByIDReturnsLinesInSequenceOrder(t *testing.T) {
	cleanTransactionTables(t)
	repo := NewTransactionRepository(testDB)
	ctx := context.Background()

	transaction, _ := sampleTransaction("20260830_STORE001_POS01_140512")
	settledAt := transaction.SettledAt

	// Insert lines in reverse order; retrieval must still come back
	// ordered by seq.
	lineCount := 5
	lines := make([]domain.TransactionLine, 0, lineCount)
	for seq := lineCount; seq >= 1; seq-- {
		lines = append(lines, domain.TransactionLine{
			ID:              fmt.Sprintf("%s_%d", transaction.ID, seq),
			TransactionID:   transaction.ID,
			Seq:             seq,
			Barcode:         "4901234567890",
			ProductName:     "Green tea 500ml",
			UnitPrice:       120,
			Quantity:        1,
			SubtotalExclTax: 120,
			TaxCode:         "T08",
			TaxRate:         800,
			TaxAmount:       9,
			SubtotalInclTax: 129,
			CreatedAt:       settledAt,
		})
	}
	transaction.AmountExclTax = 600
	transaction.TaxAmount = 45
	transaction.AmountInclTax = 645

	if err := repo.Save(ctx, transaction, lines); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, foundLines, err := repo.FindByID(ctx, transaction.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(foundLines) != lineCount {
		t.Fatalf("expected %d lines, got %d", lineCount, len(foundLines))
	}
	for i, line := range foundLines {
		if line.Seq != i+1 {
			t.Errorf("line %d out of order: seq %d", i, line.Seq)
		}
	}
}

func TestFindByIDNotFound(t *testing.T) {
	cleanTransactionTables(t)
	repo := NewTransactionRepository(testDB)

	_, _, err := repo.FindByID(context.Background(), "20260830_STORE001_POS01_000000")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
