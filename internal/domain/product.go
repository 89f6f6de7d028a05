// internal/domain/product.go
package domain

import "github.com/shopspring/decimal"

// Product is an independently owned entity; this layer only reads it.
type Product struct {
	ProductID   string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	UserID      string
	CreatedAt   string
	DeletedAt   *string
}

// EmptyProduct is the documented placeholder for an unresolved product
// relation, built only through this factory.
func EmptyProduct() Product {
	return Product{}
}

// IsEmpty reports whether the product is the unresolved placeholder.
func (p Product) IsEmpty() bool {
	return p.ProductID == "" && p.Name == ""
}
