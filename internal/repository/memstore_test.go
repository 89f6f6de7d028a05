// internal/repository/memstore_test.go
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/projectmdp/marketsync/internal/events"
	"github.com/projectmdp/marketsync/internal/storage"
	"github.com/projectmdp/marketsync/internal/storage/models"
)

// memStore is an in-memory storage.Storage used by the engine tests.
// Errors can be injected per query family to exercise fault paths.
type memStore struct {
	mu           sync.Mutex
	transactions map[string]models.TransactionRecord
	users        map[string]models.UserRecord
	products     map[string]models.ProductRecord
	notifier     *events.Notifier

	listErr   error
	lookupErr error
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[string]models.TransactionRecord),
		users:        make(map[string]models.UserRecord),
		products:     make(map[string]models.ProductRecord),
		notifier:     events.NewNotifier(zap.NewNop(), 4),
	}
}

func (m *memStore) UpsertTransaction(_ context.Context, rec *models.TransactionRecord) error {
	m.mu.Lock()
	m.transactions[rec.TransactionID] = *rec
	m.mu.Unlock()
	m.notifier.Publish(events.NewChange(events.TransactionUpserted, rec.TransactionID))
	return nil
}

func (m *memStore) InsertTransactions(_ context.Context, recs []models.TransactionRecord) error {
	m.mu.Lock()
	for _, rec := range recs {
		m.transactions[rec.TransactionID] = rec
	}
	m.mu.Unlock()
	m.notifier.Publish(events.NewChange(events.TransactionsReplaced, ""))
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id string) (*models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	rec, ok := m.transactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) ListTransactions(_ context.Context) ([]models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.snapshot(func(models.TransactionRecord) bool { return true }), nil
}

func (m *memStore) ListTransactionsByStatus(_ context.Context, status string) ([]models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(r models.TransactionRecord) bool { return r.PaymentStatus == status }), nil
}

func (m *memStore) UpdatePaymentStatus(_ context.Context, id, status string, description *string) error {
	m.mu.Lock()
	rec, ok := m.transactions[id]
	if ok {
		rec.PaymentStatus = status
		rec.PaymentDescription = description
		m.transactions[id] = rec
	}
	m.mu.Unlock()
	m.notifier.Publish(events.NewChange(events.StatusUpdated, id))
	return nil
}

func (m *memStore) DeleteAllTransactions(_ context.Context) error {
	m.mu.Lock()
	m.transactions = make(map[string]models.TransactionRecord)
	m.mu.Unlock()
	m.notifier.Publish(events.NewChange(events.CacheCleared, ""))
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) GetProduct(_ context.Context, id string) (*models.ProductRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) CountByBuyer(_ context.Context, buyerEmail string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.transactions {
		if rec.EmailBuyer == buyerEmail {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountBySeller(_ context.Context, sellerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.transactions {
		if rec.UserSellerID == sellerID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SumByBuyer(_ context.Context, buyerEmail string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, rec := range m.transactions {
		if rec.EmailBuyer == buyerEmail {
			sum = sum.Add(rec.TotalPrice)
		}
	}
	return sum, nil
}

func (m *memStore) SumBySeller(_ context.Context, sellerID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, rec := range m.transactions {
		if rec.UserSellerID == sellerID {
			sum = sum.Add(rec.TotalPrice)
		}
	}
	return sum, nil
}

func (m *memStore) WatchBuyerTransactions(ctx context.Context, buyerEmail string) (<-chan []models.TransactionRecord, error) {
	return m.watch(ctx, func(r models.TransactionRecord) bool { return r.EmailBuyer == buyerEmail })
}

func (m *memStore) WatchSellerTransactions(ctx context.Context, sellerID string) (<-chan []models.TransactionRecord, error) {
	return m.watch(ctx, func(r models.TransactionRecord) bool { return r.UserSellerID == sellerID })
}

func (m *memStore) watch(ctx context.Context, match func(models.TransactionRecord) bool) (<-chan []models.TransactionRecord, error) {
	out := make(chan []models.TransactionRecord, 1)
	sub := m.notifier.Subscribe()

	m.mu.Lock()
	initial := m.snapshot(match)
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
				m.mu.Lock()
				recs := m.snapshot(match)
				m.mu.Unlock()
				select {
				case out <- recs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// snapshot copies matching records sorted by id for determinism.
// Callers must hold the lock.
func (m *memStore) snapshot(match func(models.TransactionRecord) bool) []models.TransactionRecord {
	recs := make([]models.TransactionRecord, 0, len(m.transactions))
	for _, rec := range m.transactions {
		if match(rec) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].TransactionID < recs[j].TransactionID })
	return recs
}

func (m *memStore) RunMigrations() error { return nil }

func (m *memStore) Close() error {
	m.notifier.Close()
	return nil
}
