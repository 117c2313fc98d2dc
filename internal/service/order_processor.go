package service

import (
	"github.com/shopspring/decimal"

	"github.com/tjena007/Ticketing-System/internal/domain"
)

// OrderProcessor validates orders and prices them.
// It holds no mutable state and is safe to share between workers.
type OrderProcessor struct {
	tax            decimal.Decimal
	locationCharge decimal.Decimal
}

// NewOrderProcessor creates a processor with fixed per-order surcharges.
func NewOrderProcessor(tax, locationCharge decimal.Decimal) *OrderProcessor {
	return &OrderProcessor{
		tax:            tax,
		locationCharge: locationCharge,
	}
}

// Process checks the order's card and returns
// quantity * unit price + tax + location charge.
// An invalid card yields a *domain.ValidationError and no total.
func (p *OrderProcessor) Process(order domain.Order) (decimal.Decimal, error) {
	if err := domain.ValidateCard(order.CardNo); err != nil {
		return decimal.Zero, domain.NewValidationError(order.ID, err)
	}

	seats := decimal.NewFromInt(int64(order.Quantity)).Mul(decimal.NewFromInt(int64(order.UnitPrice)))
	return seats.Add(p.tax).Add(p.locationCharge), nil
}
