// internal/storage/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the flattened persisted form of a transaction.
// Seller and product are stored by foreign key only; the embedded objects
// are intentionally dropped to avoid duplicate/stale relation copies.
type TransactionRecord struct {
	TransactionID      string          `gorm:"primaryKey;type:varchar(64)"`
	UserSellerID       string          `gorm:"index;not null;type:varchar(64)"`
	EmailBuyer         string          `gorm:"index;not null;type:varchar(120)"`
	ProductID          string          `gorm:"index;not null;type:varchar(64)"`
	Quantity           int             `gorm:"not null"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Datetime           string          `gorm:"type:varchar(64)"`
	PaymentID          string          `gorm:"type:varchar(64)"`
	PaymentStatus      string          `gorm:"index;type:varchar(32)"`
	PaymentDescription *string         `gorm:"type:text"`

	MidtransOrderID string `gorm:"type:varchar(64)"`
	SnapToken       string `gorm:"type:varchar(128)"`
	RedirectURL     string `gorm:"type:text"`
	PaymentType     string `gorm:"type:varchar(32)"`
	VANumber        string `gorm:"type:varchar(64)"`
	PDFURL          string `gorm:"type:text"`
	SettlementTime  string `gorm:"type:varchar(64)"`
	ExpiryTime      string `gorm:"type:varchar(64)"`

	LastUpdated time.Time `gorm:"index;not null"`
	Synced      bool      `gorm:"not null"`
}

func (TransactionRecord) TableName() string {
	return "transaction_records"
}
