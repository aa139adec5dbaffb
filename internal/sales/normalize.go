package sales

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	minNameLength = 2
	maxQuantity   = math.MaxInt32
)

var maxProductID = decimal.NewFromInt(math.MaxInt64)

// NormalizeItems turns an untyped item list, as decoded from a request body,
// into canonical sale items. It stops at the first invalid item and never
// modifies raw.
func NormalizeItems(raw any) ([]SaleItem, error) {
	list, ok := asSequence(raw)
	if !ok || len(list) == 0 {
		return nil, ErrNoItems
	}

	items := make([]SaleItem, 0, len(list))
	for i, entry := range list {
		item, err := normalizeItem(i+1, entry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeItem(pos int, entry any) (SaleItem, error) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return SaleItem{}, itemError(pos, "items", "must be an object")
	}

	productID, ok := toInteger(fields["product_id"])
	if !ok || !productID.IsPositive() || productID.GreaterThan(maxProductID) {
		return SaleItem{}, itemError(pos, "product_id", "product_id is required and must be a positive integer")
	}

	name, _ := fields["name"].(string)
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength {
		return SaleItem{}, itemError(pos, "name", "name is required and must be at least 2 characters")
	}

	quantity, ok := toInteger(fields["quantity"])
	if !ok || quantity.LessThan(decimal.NewFromInt(1)) || quantity.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return SaleItem{}, itemError(pos, "quantity", "quantity must be an integer greater than or equal to 1")
	}

	price, ok := toDecimal(fields["price_at_sale"])
	if !ok || price.IsNegative() {
		return SaleItem{}, itemError(pos, "price_at_sale", "price_at_sale is required and must be a non-negative number")
	}
	priceAtSale := NewMoney(price)
	if priceAtSale.GreaterThan(MaxAmount) {
		return SaleItem{}, itemError(pos, "price_at_sale", "price_at_sale must not exceed "+MaxAmount.String())
	}

	return SaleItem{
		ProductID:   productID.IntPart(),
		Name:        name,
		PriceAtSale: priceAtSale,
		Quantity:    int(quantity.IntPart()),
	}, nil
}

func itemError(pos int, field, msg string) *ValidationError {
	return &ValidationError{Field: field, Position: pos, Message: msg}
}

func asSequence(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// toDecimal reads a number from its exact textual form where one exists,
// so 1.005 stays 1.005 rather than its nearest binary float.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := parseDecimal(n.String())
		return d, err == nil
	case string:
		if strings.TrimSpace(n) == "" {
			return decimal.Decimal{}, false
		}
		d, err := parseDecimal(n)
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case decimal.Decimal:
		return n, exponentInRange(n)
	default:
		return decimal.Decimal{}, false
	}
}

func toInteger(v any) (decimal.Decimal, bool) {
	d, ok := toDecimal(v)
	if !ok || !d.IsInteger() {
		return decimal.Decimal{}, false
	}
	return d, true
}
