package service

import (
	"fmt"
	"math/rand/v2"
)

// PricingModel draws ticket prices uniformly from [min, max).
type PricingModel struct {
	min int
	max int
}

// NewPricingModel creates a pricing model. max must be greater than min.
func NewPricingModel(min, max int) *PricingModel {
	if max <= min {
		panic(fmt.Sprintf("PricingModel: empty range [%d, %d)", min, max))
	}
	return &PricingModel{min: min, max: max}
}

// NextPrice returns a random price in [min, max).
func (m *PricingModel) NextPrice() int {
	return m.min + rand.IntN(m.max-m.min)
}
