// internal/domain/transaction.go
package domain

import (
	"github.com/shopspring/decimal"
)

// Transaction is the application-facing representation of a purchase,
// carrying fully resolved seller and product relations.
type Transaction struct {
	ID                 string
	Seller             User
	BuyerEmail         string
	Product            Product
	Quantity           int
	TotalPrice         decimal.Decimal
	Datetime           string
	PaymentID          string
	PaymentStatus      string
	PaymentDescription string

	// UserRole is the viewer's role in this transaction ("buyer"/"seller"),
	// only known when the remote service resolves it. Empty otherwise.
	UserRole string

	// Gateway fields, populated progressively as payment proceeds.
	MidtransOrderID string
	SnapToken       string
	RedirectURL     string
	PaymentType     string
	VANumber        string
	PDFURL          string
	SettlementTime  string
	ExpiryTime      string
}

// TransactionDetails is a read-only composite for detail views. Seller and
// Product are nil when the relation could not be resolved from the cache.
// Never persisted.
type TransactionDetails struct {
	Transaction Transaction
	Seller      *User
	Product     *Product
}

// CreateTransactionResult pairs a freshly created transaction with the
// payment token and redirect URL needed to drive the payment flow. The
// token/URL are transient and never persisted.
type CreateTransactionResult struct {
	Transaction Transaction
	SnapToken   string
	RedirectURL string
}
