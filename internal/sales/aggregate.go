package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ComputeTotal derives round(sum(price * quantity), 2) for items and
// rejects an empty list or a total outside (0, MaxAmount].
func ComputeTotal(items []SaleItem) (Money, error) {
	if len(items) == 0 {
		return Money{}, ErrNoItems
	}

	sum := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return Money{}, itemError(i+1, "quantity", "quantity must be an integer greater than or equal to 1")
		}
		if item.PriceAtSale.IsNegative() {
			return Money{}, itemError(i+1, "price_at_sale", "price_at_sale is required and must be a non-negative number")
		}
		sum = sum.Add(item.PriceAtSale.Times(item.Quantity))
	}

	total := NewMoney(sum)
	if !total.IsPositive() {
		return Money{}, ErrNonPositiveTotal
	}
	if total.GreaterThan(MaxAmount) {
		return Money{}, ErrTotalTooLarge
	}
	return total, nil
}

// Finalize checks the aggregate's invariants and overwrites TotalAmount with
// the derived value. It must run before every write.
func (s *Sale) Finalize() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return &ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(s.PaymentMethod)); err != nil {
		return err
	}
	if s.SaleDate.IsZero() {
		return &ValidationError{Field: "sale_date", Message: "sale_date is required"}
	}

	total, err := ComputeTotal(s.Items)
	if err != nil {
		return err
	}
	s.TotalAmount = total
	return nil
}
