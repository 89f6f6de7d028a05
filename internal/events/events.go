// internal/events/events.go
package events

import "time"

// ChangeKind identifies the kind of cache mutation.
type ChangeKind string

const (
	// TransactionsReplaced is published after a full-refresh
	// delete-all-then-reinsert.
	TransactionsReplaced ChangeKind = "transactions.replaced"
	// TransactionUpserted is published after a single record upsert.
	TransactionUpserted ChangeKind = "transaction.upserted"
	// StatusUpdated is published after a status-only patch.
	StatusUpdated ChangeKind = "transaction.status_updated"
	// CacheCleared is published after an explicit cache clear.
	CacheCleared ChangeKind = "transactions.cleared"
)

// Change describes a single mutation of the transaction-record cache.
type Change struct {
	Kind ChangeKind
	// TransactionID is set for single-record mutations, empty for bulk ones.
	TransactionID string
	At            time.Time
}

// NewChange builds a Change stamped with the current time.
func NewChange(kind ChangeKind, transactionID string) Change {
	return Change{
		Kind:          kind,
		TransactionID: transactionID,
		At:            time.Now().UTC(),
	}
}
