package broker

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/engine"
	"github.com/tjena007/Ticketing-System/internal/event"
	"github.com/tjena007/Ticketing-System/internal/infra"
	"github.com/tjena007/Ticketing-System/internal/strategy"
)

// OrderSink is where brokers submit orders. Put blocks until the order is stored.
type OrderSink interface {
	Put(order domain.Order)
}

// Config tunes a broker.
type Config struct {
	IdleInterval time.Duration
	QuantityMin  int // inclusive
	QuantityMax  int // exclusive
	BulkOnStart  bool
	Strategy     strategy.Strategy // decides when bulk buying is enabled
}

// TicketBroker buys seats on behalf of its clients. Its loop runs on its own
// goroutine; OnPriceCut runs on the theater's goroutine, so the state both
// sides touch is atomic.
type TicketBroker struct {
	name      string
	cfg       Config
	sink      OrderSink
	cards     *CardPool
	lifecycle *engine.Lifecycle
	metrics   *infra.Metrics

	lastKnownPrice atomic.Int64
	bulkAllowed    atomic.Bool // sticky: never cleared once set
	placed         atomic.Int64
}

// NewTicketBroker creates a new broker.
func NewTicketBroker(name string, cfg Config, sink OrderSink, cards *CardPool, lifecycle *engine.Lifecycle, metrics *infra.Metrics) *TicketBroker {
	if cfg.QuantityMax <= cfg.QuantityMin {
		cfg.QuantityMax = cfg.QuantityMin + 1
	}
	if cfg.Strategy == nil {
		cfg.Strategy = strategy.NewThresholdStrategy(120)
	}
	if cards == nil {
		cards = NewCardPool()
	}
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	if lifecycle == nil {
		// private lifecycle: only ctx or Close on it ends Run
		lifecycle = engine.NewLifecycle()
	}

	b := &TicketBroker{
		name:      name,
		cfg:       cfg,
		sink:      sink,
		cards:     cards,
		lifecycle: lifecycle,
		metrics:   metrics,
	}
	b.bulkAllowed.Store(cfg.BulkOnStart)
	return b
}

// Name returns the broker identity.
func (b *TicketBroker) Name() string {
	return b.name
}

// Subscribe registers the broker for price cuts on bus.
func (b *TicketBroker) Subscribe(bus *event.PriceCutBus) {
	bus.Subscribe(b.name, b.OnPriceCut)
}

// OnPriceCut records the new price and lets the strategy enable bulk buying.
// Called synchronously by the theater; it must stay fast.
func (b *TicketBroker) OnPriceCut(ev event.PriceCut) {
	b.lastKnownPrice.Store(int64(ev.Price))
	if b.cfg.Strategy.OnPriceCut(ev.Price) == strategy.ActionEnableBulk {
		b.bulkAllowed.Store(true)
	}
	slog.Debug("Price cut received",
		slog.String("broker", b.name),
		slog.String("from", ev.Originator),
		slog.Int("price", ev.Price),
		slog.Bool("bulk_allowed", b.bulkAllowed.Load()),
	)
}

// LastKnownPrice returns the last price heard from any theater.
func (b *TicketBroker) LastKnownPrice() int {
	return int(b.lastKnownPrice.Load())
}

// BulkAllowed reports whether the broker may submit orders.
func (b *TicketBroker) BulkAllowed() bool {
	return b.bulkAllowed.Load()
}

// OrdersPlaced returns how many orders this broker has enqueued.
func (b *TicketBroker) OrdersPlaced() int {
	return int(b.placed.Load())
}

// Run submits orders while the theaters are active. It returns within one idle
// interval of the lifecycle closing, or when ctx is cancelled. An order that is
// already being put is never abandoned: Put completes first.
func (b *TicketBroker) Run(ctx context.Context) {
	b.metrics.IncrementBrokers()
	defer b.metrics.DecrementBrokers()

	ready := true
	for b.lifecycle.Active() {
		if ready && b.bulkAllowed.Load() {
			b.createOrder()
			ready = false
			continue
		}

		slog.Debug("WAITING: ticket broker", slog.String("broker", b.name))
		if !b.idle(ctx) {
			break
		}
		ready = true
	}

	slog.Info("CLOSING: ticket broker", slog.String("broker", b.name), slog.Int("orders", b.OrdersPlaced()))
}

// idle sleeps for the idle interval. It returns false when ctx was cancelled.
func (b *TicketBroker) idle(ctx context.Context) bool {
	timer := time.NewTimer(b.cfg.IdleInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-b.lifecycle.Done():
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *TicketBroker) createOrder() {
	quantity := b.cfg.QuantityMin + rand.IntN(b.cfg.QuantityMax-b.cfg.QuantityMin)
	order := domain.NewOrder(b.name, b.cards.Random(), quantity, b.LastKnownPrice())

	slog.Info("CREATING: order", slog.String("broker", b.name), slog.String("order", order.String()))
	b.sink.Put(order)

	b.placed.Add(1)
	b.metrics.RecordOrderPlaced()
}
