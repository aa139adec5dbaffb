package sales

import (
	"time"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus rejects anything outside the known statuses. Matching is exact.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// ParsePaymentMethod rejects anything outside the known payment methods.
// Matching is exact.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentCard:
		return PaymentCard, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// SaleItem is one normalized line of a sale.
type SaleItem struct {
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	PriceAtSale Money  `json:"price_at_sale"`
	Quantity    int    `json:"quantity"`
}

// Sale represents a point-of-sale transaction in the system.
type Sale struct {
	ID            string        `json:"id"`
	SaleDate      time.Time     `json:"sale_date"`
	OwnerID       string        `json:"user_id"`
	Items         []SaleItem    `json:"items"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	TotalAmount   Money         `json:"total_amount"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns a copy that shares no item slice with s.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = append([]SaleItem(nil), s.Items...)
	return &c
}

// SalesMetadata summarizes a list of sales.
type SalesMetadata struct {
	Completed   int   `json:"completed"`
	Cancelled   int   `json:"cancelled"`
	TotalAmount Money `json:"total_amount"`
}

func summarize(sales []*Sale) SalesMetadata {
	md := SalesMetadata{}
	for _, sale := range sales {
		md.TotalAmount = md.TotalAmount.Add(sale.TotalAmount)
		switch sale.Status {
		case StatusCompleted:
			md.Completed++
		case StatusCancelled:
			md.Cancelled++
		}
	}
	return md
}
