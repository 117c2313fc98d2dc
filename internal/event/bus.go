package event

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tjena007/Ticketing-System/internal/domain"
)

// PriceCut is broadcast by a theater when a sampled price is strictly lower
// than the previous one.
type PriceCut struct {
	Originator string    `json:"originator"` // Theater identity
	Price      int       `json:"price"`
	Sequence   int       `json:"sequence"` // 1-based cut number for the originator
	At         time.Time `json:"at"`
}

// Handler receives a price cut. It runs on the publisher's goroutine and
// must return quickly: a slow handler throttles the theater.
type Handler func(PriceCut)

type subscription struct {
	id      string
	handler Handler
}

// PriceCutBus is a registry of price cut handlers, invoked in registration order.
type PriceCutBus struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewPriceCutBus creates an empty bus.
func NewPriceCutBus() *PriceCutBus {
	return &PriceCutBus{}
}

// Subscribe registers h under id. Re-subscribing an id replaces its handler
// and keeps its position.
func (b *PriceCutBus) Subscribe(id string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.subs {
		if b.subs[i].id == id {
			b.subs[i].handler = h
			return
		}
	}
	b.subs = append(b.subs, subscription{id: id, handler: h})
	slog.Info("SUBSCRIBING to price cut event", slog.String("subscriber", id))
}

// Unsubscribe removes id. Unknown ids are ignored.
func (b *PriceCutBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
}

// Len returns the number of subscribers.
func (b *PriceCutBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every subscriber, one at a time, on the caller's goroutine.
// Each handler returns before the next one is called. It returns the number of
// handlers invoked, or domain.ErrNoSubscribers when nobody is registered.
func (b *PriceCutBus) Publish(ev PriceCut) (int, error) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return 0, domain.ErrNoSubscribers
	}

	for _, s := range subs {
		s.handler(ev)
	}
	return len(subs), nil
}
