// internal/storage/models/product.go
package models

import "github.com/shopspring/decimal"

// ProductRecord mirrors the product cache maintained by the product
// repository. This layer only reads it.
type ProductRecord struct {
	ProductID   string          `gorm:"primaryKey;type:varchar(64)"`
	Name        string          `gorm:"type:varchar(200)"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2)"`
	Category    string          `gorm:"type:varchar(64)"`
	Image       string          `gorm:"type:text"`
	UserID      string          `gorm:"index;type:varchar(64)"`
	CreatedAt   string          `gorm:"type:varchar(64)"`
	DeletedAt   *string         `gorm:"type:varchar(64)"`
}

func (ProductRecord) TableName() string {
	return "product_records"
}
