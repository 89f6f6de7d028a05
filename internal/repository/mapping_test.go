// internal/repository/mapping_test.go
package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectmdp/marketsync/internal/domain"
	"github.com/projectmdp/marketsync/internal/remote"
)

func validPayload() remote.TransactionPayload {
	price := decimal.NewFromFloat(125.50)
	return remote.TransactionPayload{
		TransactionID: "tx-1",
		UserSeller: remote.UserPayload{
			ID:    "seller-1",
			Email: "seller@example.com",
			Name:  "Seller One",
			Phone: "0812000111",
		},
		EmailBuyer: "buyer@example.com",
		Product: remote.ProductPayload{
			ProductID:   "prod-1",
			Name:        "Vintage Lamp",
			Description: "A lamp",
			Price:       &price,
			Category:    "furniture",
			ImageURL:    "https://cdn.example.com/lamp.png",
		},
		Quantity:      2,
		TotalPrice:    decimal.NewFromInt(251),
		Datetime:      "2025-06-01T10:00:00Z",
		PaymentID:     "pay-1",
		PaymentStatus: "pending",

		MidtransOrderID: "order-77",
		SnapToken:       "snap-abc",
		RedirectURL:     "https://pay.example.com/redirect",
		PaymentType:     "bank_transfer",
		VANumber:        "991234",
		PDFURL:          "https://pay.example.com/receipt.pdf",
		SettlementTime:  "",
		ExpiryTime:      "2025-06-02T10:00:00Z",
	}
}

func TestPayloadToTransaction(t *testing.T) {
	p := validPayload()

	tx, err := PayloadToTransaction(&p)
	require.NoError(t, err)

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "seller-1", tx.Seller.ID)
	assert.Equal(t, "Seller One", tx.Seller.Username)
	assert.Equal(t, "both", tx.Seller.Role)
	assert.Equal(t, "local", tx.Seller.AuthProvider)
	assert.Empty(t, tx.Seller.Address)
	assert.Equal(t, "prod-1", tx.Product.ProductID)
	assert.Equal(t, "seller-1", tx.Product.UserID)
	assert.True(t, tx.Product.Price.Equal(decimal.NewFromFloat(125.50)))
	assert.Equal(t, 2, tx.Quantity)
	assert.True(t, tx.TotalPrice.Equal(decimal.NewFromInt(251)))
	assert.Equal(t, "snap-abc", tx.SnapToken)
	assert.Equal(t, "bank_transfer", tx.PaymentType)
	assert.Equal(t, "991234", tx.VANumber)
}

func TestPayloadToTransaction_DefaultsOptionalProductFields(t *testing.T) {
	p := validPayload()
	p.Product.Price = nil
	p.Product.Category = ""
	p.Product.ImageURL = ""

	tx, err := PayloadToTransaction(&p)
	require.NoError(t, err)

	assert.True(t, tx.Product.Price.Equal(decimal.Zero))
	assert.Empty(t, tx.Product.Category)
	assert.Empty(t, tx.Product.Image)
}

func TestPayloadToTransaction_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*remote.TransactionPayload)
	}{
		{"missing product id", func(p *remote.TransactionPayload) { p.Product.ProductID = "" }},
		{"missing product name", func(p *remote.TransactionPayload) { p.Product.Name = "" }},
		{"missing seller id", func(p *remote.TransactionPayload) { p.UserSeller.ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)

			_, err := PayloadToTransaction(&p)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestPayloadToRecord(t *testing.T) {
	p := validPayload()

	rec, err := PayloadToRecord(&p)
	require.NoError(t, err)

	assert.Equal(t, "tx-1", rec.TransactionID)
	assert.Equal(t, "seller-1", rec.UserSellerID)
	assert.Equal(t, "prod-1", rec.ProductID)
	assert.Equal(t, "buyer@example.com", rec.EmailBuyer)
	assert.Equal(t, 2, rec.Quantity)
	assert.True(t, rec.TotalPrice.Equal(decimal.NewFromInt(251)))
	assert.Equal(t, "snap-abc", rec.SnapToken)
	assert.True(t, rec.Synced)
	assert.False(t, rec.LastUpdated.IsZero())
}

func TestPayloadToRecord_Validation(t *testing.T) {
	// Record mapping requires product id and seller id, but not
	// product name: the name lives in the product store.
	p := validPayload()
	p.Product.Name = ""
	_, err := PayloadToRecord(&p)
	require.NoError(t, err)

	p = validPayload()
	p.Product.ProductID = ""
	_, err = PayloadToRecord(&p)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	p = validPayload()
	p.UserSeller.ID = ""
	_, err = PayloadToRecord(&p)
	require.ErrorAs(t, err, &vErr)
}

func TestRecordRoundTripKeepsForeignKeys(t *testing.T) {
	p := validPayload()
	rec, err := PayloadToRecord(&p)
	require.NoError(t, err)

	tx := RecordToTransaction(&rec)

	// Placeholder relations carry only the foreign keys.
	assert.Equal(t, "seller-1", tx.Seller.ID)
	assert.Empty(t, tx.Seller.Username)
	assert.Equal(t, "prod-1", tx.Product.ProductID)
	assert.Empty(t, tx.Product.Name)

	// Scalar and payment fields survive unchanged.
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, 2, tx.Quantity)
	assert.True(t, tx.TotalPrice.Equal(decimal.NewFromInt(251)))
	assert.Equal(t, "pending", tx.PaymentStatus)
	assert.Equal(t, "order-77", tx.MidtransOrderID)
	assert.Equal(t, "2025-06-02T10:00:00Z", tx.ExpiryTime)
}

func TestRecordToTransaction_PlaceholdersAreEmpty(t *testing.T) {
	p := validPayload()
	rec, err := PayloadToRecord(&p)
	require.NoError(t, err)

	tx := RecordToTransaction(&rec)
	tx.Seller.ID = ""
	tx.Product.ProductID = ""
	assert.True(t, tx.Seller.IsEmpty())
	assert.True(t, tx.Product.IsEmpty())
}
