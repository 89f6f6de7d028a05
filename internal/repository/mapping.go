// internal/repository/mapping.go
package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectmdp/marketsync/internal/domain"
	"github.com/projectmdp/marketsync/internal/remote"
	"github.com/projectmdp/marketsync/internal/storage/models"
)

// PayloadToTransaction maps a remote payload into the rich domain model.
// Product id, product name and seller id are required; everything else
// unknowable from the payload defaults to an empty string. The seller's
// role and auth provider are fixed because the payload cannot carry them.
func PayloadToTransaction(p *remote.TransactionPayload) (domain.Transaction, error) {
	productID := p.Product.ProductID
	productName := p.Product.Name
	sellerID := p.UserSeller.ID

	if productID == "" {
		return domain.Transaction{}, &domain.ValidationError{Field: "product id"}
	}
	if productName == "" {
		return domain.Transaction{}, &domain.ValidationError{Field: "product name"}
	}
	if sellerID == "" {
		return domain.Transaction{}, &domain.ValidationError{Field: "seller id"}
	}

	price := decimal.Zero
	if p.Product.Price != nil {
		price = *p.Product.Price
	}

	return domain.Transaction{
		ID: p.TransactionID,
		Seller: domain.User{
			ID:             sellerID,
			Email:          p.UserSeller.Email,
			Username:       p.UserSeller.Name,
			PhoneNumber:    p.UserSeller.Phone,
			ProfilePicture: p.UserSeller.ProfilePicture,
			Role:           "both",
			AuthProvider:   "local",
		},
		BuyerEmail: p.EmailBuyer,
		Product: domain.Product{
			ProductID:   productID,
			Name:        productName,
			Description: p.Product.Description,
			Price:       price,
			Category:    p.Product.Category,
			Image:       p.Product.ImageURL,
			UserID:      sellerID,
		},
		Quantity:           p.Quantity,
		TotalPrice:         p.TotalPrice,
		Datetime:           p.Datetime,
		PaymentID:          p.PaymentID,
		PaymentStatus:      p.PaymentStatus,
		PaymentDescription: p.PaymentDescription,
		UserRole:           p.UserRole,

		MidtransOrderID: p.MidtransOrderID,
		SnapToken:       p.SnapToken,
		RedirectURL:     p.RedirectURL,
		PaymentType:     p.PaymentType,
		VANumber:        p.VANumber,
		PDFURL:          p.PDFURL,
		SettlementTime:  p.SettlementTime,
		ExpiryTime:      p.ExpiryTime,
	}, nil
}

// PayloadToRecord maps a remote payload into the flattened persisted form,
// stamped as synced now. Product id and seller id are required; embedded
// relations are dropped in favor of their foreign keys.
func PayloadToRecord(p *remote.TransactionPayload) (models.TransactionRecord, error) {
	productID := p.Product.ProductID
	sellerID := p.UserSeller.ID

	if productID == "" {
		return models.TransactionRecord{}, &domain.ValidationError{Field: "product id"}
	}
	if sellerID == "" {
		return models.TransactionRecord{}, &domain.ValidationError{Field: "seller id"}
	}

	var description *string
	if p.PaymentDescription != "" {
		d := p.PaymentDescription
		description = &d
	}

	return models.TransactionRecord{
		TransactionID:      p.TransactionID,
		UserSellerID:       sellerID,
		EmailBuyer:         p.EmailBuyer,
		ProductID:          productID,
		Quantity:           p.Quantity,
		TotalPrice:         p.TotalPrice,
		Datetime:           p.Datetime,
		PaymentID:          p.PaymentID,
		PaymentStatus:      p.PaymentStatus,
		PaymentDescription: description,

		MidtransOrderID: p.MidtransOrderID,
		SnapToken:       p.SnapToken,
		RedirectURL:     p.RedirectURL,
		PaymentType:     p.PaymentType,
		VANumber:        p.VANumber,
		PDFURL:          p.PDFURL,
		SettlementTime:  p.SettlementTime,
		ExpiryTime:      p.ExpiryTime,

		LastUpdated: time.Now().UTC(),
		Synced:      true,
	}, nil
}

// RecordToTransaction reconstructs a domain transaction from its persisted
// form. Seller and product come back as placeholders carrying only the
// foreign key; callers needing full relations must resolve and substitute
// them separately.
func RecordToTransaction(rec *models.TransactionRecord) domain.Transaction {
	seller := domain.EmptyUser()
	seller.ID = rec.UserSellerID

	product := domain.EmptyProduct()
	product.ProductID = rec.ProductID

	description := ""
	if rec.PaymentDescription != nil {
		description = *rec.PaymentDescription
	}

	return domain.Transaction{
		ID:                 rec.TransactionID,
		Seller:             seller,
		BuyerEmail:         rec.EmailBuyer,
		Product:            product,
		Quantity:           rec.Quantity,
		TotalPrice:         rec.TotalPrice,
		Datetime:           rec.Datetime,
		PaymentID:          rec.PaymentID,
		PaymentStatus:      rec.PaymentStatus,
		PaymentDescription: description,

		MidtransOrderID: rec.MidtransOrderID,
		SnapToken:       rec.SnapToken,
		RedirectURL:     rec.RedirectURL,
		PaymentType:     rec.PaymentType,
		VANumber:        rec.VANumber,
		PDFURL:          rec.PDFURL,
		SettlementTime:  rec.SettlementTime,
		ExpiryTime:      rec.ExpiryTime,
	}
}

func userRecordToUser(rec *models.UserRecord) domain.User {
	return domain.User{
		ID:             rec.ID,
		Email:          rec.Email,
		Username:       rec.Username,
		PhoneNumber:    rec.PhoneNumber,
		ProfilePicture: rec.ProfilePicture,
		Address:        rec.Address,
		Role:           rec.Role,
		FirebaseUID:    rec.FirebaseUID,
		AuthProvider:   rec.AuthProvider,
		CreatedAt:      rec.CreatedAt,
		DeletedAt:      rec.DeletedAt,
	}
}

func productRecordToProduct(rec *models.ProductRecord) domain.Product {
	return domain.Product{
		ProductID:   rec.ProductID,
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		Category:    rec.Category,
		Image:       rec.Image,
		UserID:      rec.UserID,
		CreatedAt:   rec.CreatedAt,
		DeletedAt:   rec.DeletedAt,
	}
}
