package broker

import "math/rand/v2"

// defaultCards is the fixed pool brokers pay with. Some of them fail validation on purpose.
var defaultCards = []int64{
	9088373723126644,
	3612366382365168,
	374951333742767,
	3900366099125857,
	6011354933529823,
	3553991022586867,
	1238031289080833102,
}

// CardPool hands out card numbers from a fixed set.
type CardPool struct {
	cards []int64
}

// NewCardPool creates a pool from cards, or from the default set when cards is empty.
func NewCardPool(cards ...int64) *CardPool {
	if len(cards) == 0 {
		cards = defaultCards
	}
	return &CardPool{cards: append([]int64(nil), cards...)}
}

// Random returns one card from the pool.
func (p *CardPool) Random() int64 {
	return p.cards[rand.IntN(len(p.cards))]
}

// Len returns the pool size.
func (p *CardPool) Len() int {
	return len(p.cards)
}
