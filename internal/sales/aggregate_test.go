package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineItem(productID int64, name, price string, qty int) SaleItem {
	return SaleItem{ProductID: productID, Name: name, PriceAtSale: mustMoney(price), Quantity: qty}
}

func mustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestComputeTotal_WidgetGadget(t *testing.T) {
	total, err := ComputeTotal([]SaleItem{
		lineItem(1, "Widget", "9.99", 2),
		lineItem(2, "Gadget", "5.50", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "25.48", total.String())
}

func TestComputeTotal_MatchesRoundedSum(t *testing.T) {
	lists := [][]SaleItem{
		{lineItem(1, "Pen", "0.10", 3)},
		{lineItem(1, "Pen", "0.01", 1)},
		{lineItem(1, "Pen", "19.99", 7), lineItem(2, "Pad", "3.33", 3), lineItem(3, "Ink", "0.00", 9)},
		{lineItem(1, "Bulk", "12345.67", 1000)},
	}
	for _, items := range lists {
		want := decimal.Zero
		for _, it := range items {
			want = want.Add(it.PriceAtSale.Decimal().Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		want = want.Round(2)

		total, err := ComputeTotal(items)
		require.NoError(t, err)
		assert.True(t, total.Decimal().Equal(want), "got %s want %s", total, want)
		assert.True(t, total.IsPositive())
	}
}

func TestComputeTotal_Rejects(t *testing.T) {
	_, err := ComputeTotal(nil)
	assert.True(t, errors.Is(err, ErrNoItems))

	_, err = ComputeTotal([]SaleItem{lineItem(1, "Free", "0.00", 2)})
	assert.True(t, errors.Is(err, ErrNonPositiveTotal))

	_, err = ComputeTotal([]SaleItem{lineItem(1, "Pen", "1.00", 1), lineItem(2, "Pad", "1.00", 0)})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, 2, vErr.Position)
}

func TestFinalize_OverwritesTotal(t *testing.T) {
	sale := &Sale{
		SaleDate:      time.Now(),
		OwnerID:       "S1",
		Items:         []SaleItem{lineItem(3, "Part", "1.01", 3)},
		Status:        StatusCompleted,
		PaymentMethod: PaymentCash,
		TotalAmount:   mustMoney("999.99"),
	}
	require.NoError(t, sale.Finalize())
	assert.Equal(t, "3.03", sale.TotalAmount.String())
}

func TestFinalize_ChecksFields(t *testing.T) {
	base := func() *Sale {
		return &Sale{
			SaleDate:      time.Now(),
			OwnerID:       "S1",
			Items:         []SaleItem{lineItem(1, "Pen", "1.00", 1)},
			Status:        StatusCompleted,
			PaymentMethod: PaymentCard,
		}
	}

	s := base()
	s.OwnerID = " "
	assert.True(t, IsValidation(s.Finalize()))

	s = base()
	s.Status = "refunded"
	assert.True(t, errors.Is(s.Finalize(), ErrInvalidStatus))

	s = base()
	s.PaymentMethod = "crypto"
	assert.True(t, errors.Is(s.Finalize(), ErrInvalidPaymentMethod))

	s = base()
	s.Items = nil
	assert.True(t, errors.Is(s.Finalize(), ErrNoItems))

	s = base()
	s.SaleDate = time.Time{}
	assert.True(t, IsValidation(s.Finalize()))
}

func TestParseEnums(t *testing.T) {
	st, err := ParseStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, st)
	for _, raw := range []string{"pending", " Cancelled ", "COMPLETED", ""} {
		_, err = ParseStatus(raw)
		assert.True(t, errors.Is(err, ErrInvalidStatus), "status %q", raw)
	}

	pm, err := ParsePaymentMethod("card")
	require.NoError(t, err)
	assert.Equal(t, PaymentCard, pm)
	for _, raw := range []string{"", "CARD", " cash", "crypto"} {
		_, err = ParsePaymentMethod(raw)
		assert.True(t, errors.Is(err, ErrInvalidPaymentMethod), "payment method %q", raw)
	}
}

func TestComputeTotal_UpperBound(t *testing.T) {
	total, err := ComputeTotal([]SaleItem{{ProductID: 1, Name: "Max", PriceAtSale: MaxAmount, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", total.String())

	_, err = ComputeTotal([]SaleItem{{ProductID: 1, Name: "Bulk", PriceAtSale: mustMoney("100.00"), Quantity: 2000000000}})
	assert.True(t, errors.Is(err, ErrTotalTooLarge))

	_, err = ComputeTotal([]SaleItem{
		{ProductID: 1, Name: "Max", PriceAtSale: MaxAmount, Quantity: 1},
		{ProductID: 2, Name: "Cent", PriceAtSale: MoneyFromCents(1), Quantity: 1},
	})
	assert.True(t, errors.Is(err, ErrTotalTooLarge))
}
