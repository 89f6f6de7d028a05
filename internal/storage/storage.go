// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/projectmdp/marketsync/internal/storage/models"
)

// ErrNotFound is returned by point lookups when no row matches the key.
var ErrNotFound = errors.New("record not found")

// Storage defines keyed CRUD over persisted transaction records, read-only
// lookups into the seller/product caches, aggregate queries, and
// change-driven subscription streams.
type Storage interface {
	// Transaction records
	UpsertTransaction(ctx context.Context, rec *models.TransactionRecord) error
	InsertTransactions(ctx context.Context, recs []models.TransactionRecord) error
	GetTransaction(ctx context.Context, id string) (*models.TransactionRecord, error)
	ListTransactions(ctx context.Context) ([]models.TransactionRecord, error)
	ListTransactionsByStatus(ctx context.Context, status string) ([]models.TransactionRecord, error)
	// UpdatePaymentStatus patches only the status/description fields.
	// A nil description clears the stored one.
	UpdatePaymentStatus(ctx context.Context, id, status string, description *string) error
	DeleteAllTransactions(ctx context.Context) error

	// Read-only relation lookups
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	GetProduct(ctx context.Context, id string) (*models.ProductRecord, error)

	// Aggregates
	CountByBuyer(ctx context.Context, buyerEmail string) (int64, error)
	CountBySeller(ctx context.Context, sellerID string) (int64, error)
	SumByBuyer(ctx context.Context, buyerEmail string) (decimal.Decimal, error)
	SumBySeller(ctx context.Context, sellerID string) (decimal.Decimal, error)

	// Change subscriptions. The returned channel re-emits the full query
	// result on every transaction-record mutation and closes when ctx is
	// done or the store shuts down.
	WatchBuyerTransactions(ctx context.Context, buyerEmail string) (<-chan []models.TransactionRecord, error)
	WatchSellerTransactions(ctx context.Context, sellerID string) (<-chan []models.TransactionRecord, error)

	// Lifecycle
	RunMigrations() error
	Close() error
}
