// internal/remote/types.go
package remote

import (
	"context"

	"github.com/shopspring/decimal"
)

// Client is the boundary contract with the remote transaction service. The
// sync engine consumes this interface only; the HTTP implementation lives
// in this package and test doubles substitute it.
type Client interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateResponse, error)
	MyTransactions(ctx context.Context) (*ListResponse, error)
	TransactionByID(ctx context.Context, id string) (*TransactionResponse, error)
	UpdateTransactionStatus(ctx context.Context, id string, req UpdateStatusRequest) (*TransactionResponse, error)
}

// CreateTransactionRequest is the body of the create operation.
type CreateTransactionRequest struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// UpdateStatusRequest is the body of the status update operation.
type UpdateStatusRequest struct {
	PaymentStatus      string `json:"payment_status"`
	PaymentDescription string `json:"payment_description"`
}

// Envelope is the uniform wrapper of every remote response: either a
// success payload or an error message.
type Envelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IsSuccess reports whether the envelope carries a success payload.
func (e Envelope) IsSuccess() bool {
	return e.Error == ""
}

// UserPayload is the seller fragment of a transaction payload.
type UserPayload struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	ProfilePicture *string `json:"profile_picture"`
}

// ProductPayload is the product fragment of a transaction payload.
type ProductPayload struct {
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
	ImageURL    string           `json:"image_url"`
}

// TransactionPayload is the remote representation of a transaction with its
// denormalized seller and product fragments.
type TransactionPayload struct {
	TransactionID      string          `json:"transaction_id"`
	UserSeller         UserPayload     `json:"user_seller"`
	EmailBuyer         string          `json:"email_buyer"`
	Product            ProductPayload  `json:"product"`
	Quantity           int             `json:"quantity"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Datetime           string          `json:"datetime"`
	PaymentID          string          `json:"payment_id"`
	PaymentStatus      string          `json:"payment_status"`
	PaymentDescription string          `json:"payment_description"`
	UserRole           string          `json:"user_role"`

	MidtransOrderID string `json:"midtrans_order_id"`
	SnapToken       string `json:"snap_token"`
	RedirectURL     string `json:"redirect_url"`
	PaymentType     string `json:"payment_type"`
	VANumber        string `json:"va_number"`
	PDFURL          string `json:"pdf_url"`
	SettlementTime  string `json:"settlement_time"`
	ExpiryTime      string `json:"expiry_time"`
}

// CreateData is the payload of a successful create: the transaction plus
// the gateway token/URL pair that drives the payment flow.
type CreateData struct {
	Transaction TransactionPayload `json:"transaction"`
	SnapToken   string             `json:"snap_token"`
	RedirectURL string             `json:"redirect_url"`
}

// CreateResponse wraps the create payload.
type CreateResponse struct {
	Envelope
	Data *CreateData `json:"data"`
}

// ListData is the payload of the listMine operation.
type ListData struct {
	Transactions []TransactionPayload `json:"transactions"`
}

// ListResponse wraps the list payload.
type ListResponse struct {
	Envelope
	Data *ListData `json:"data"`
}

// TransactionData is the payload of getById and updateStatus.
type TransactionData struct {
	Transaction TransactionPayload `json:"transaction"`
}

// TransactionResponse wraps a single-transaction payload.
type TransactionResponse struct {
	Envelope
	Data *TransactionData `json:"data"`
}
