package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tjena007/Ticketing-System/internal/broker"
	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/engine"
	"github.com/tjena007/Ticketing-System/internal/event"
	"github.com/tjena007/Ticketing-System/internal/infra"
	"github.com/tjena007/Ticketing-System/internal/service"
	"github.com/tjena007/Ticketing-System/internal/strategy"
)

// Options carries the optional sinks of an exchange.
type Options struct {
	Metrics  *infra.Metrics
	Receipts domain.ReceiptRecorder
	Runs     domain.RunRecorder
}

// Summary describes a finished exchange run.
type Summary struct {
	PriceCuts    map[string]int // per theater
	OrdersPlaced int
	Dropped      int // orders still queued when the last theater closed
}

// Exchange wires K theaters and N brokers around one shared buffer.
// Every broker hears every theater's price cuts.
type Exchange struct {
	buffer    *engine.MultiCellBuffer[domain.Order]
	lifecycle *engine.Lifecycle
	theaters  []*engine.Theater
	brokers   []*broker.TicketBroker
	metrics   *infra.Metrics
}

// NewExchange builds the exchange described by cfg. Nothing runs until Run.
func NewExchange(cfg *infra.Config, opts Options) *Exchange {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &infra.Metrics{}
	}

	e := &Exchange{
		buffer: engine.NewMultiCellBuffer[domain.Order](
			cfg.Buffer.Capacity, cfg.Buffer.WritePermits, cfg.Buffer.ReadPermits,
		).WithMetrics(metrics),
		lifecycle: engine.NewLifecycle(),
		metrics:   metrics,
	}

	processor := service.NewOrderProcessor(cfg.Processing.Tax, cfg.Processing.LocationCharge)
	for i := 0; i < cfg.Theater.Count; i++ {
		th := engine.NewTheater(fmt.Sprintf("Theater_%d", i), engine.TheaterConfig{
			MaxPriceCuts: cfg.Theater.MaxPriceCuts,
			MaxCycles:    cfg.Theater.MaxCycles,
		}, engine.TheaterDeps{
			Source:    e.buffer,
			Oracle:    service.NewPricingModel(cfg.Pricing.Min, cfg.Pricing.Max),
			Processor: processor,
			Bus:       event.NewPriceCutBus(),
			Lifecycle: e.lifecycle,
			Metrics:   metrics,
			Receipts:  opts.Receipts,
			Runs:      opts.Runs,
		})
		e.theaters = append(e.theaters, th)
	}

	cards := broker.NewCardPool()
	for i := 0; i < cfg.Broker.Count; i++ {
		b := broker.NewTicketBroker(fmt.Sprintf("TicketBroker_%d", i), broker.Config{
			IdleInterval: cfg.IdleInterval(),
			QuantityMin:  cfg.Broker.QuantityMin,
			QuantityMax:  cfg.Broker.QuantityMax,
			BulkOnStart:  cfg.Broker.BulkOnStart,
			Strategy:     strategy.NewThresholdStrategy(cfg.Broker.Threshold),
		}, e.buffer, cards, e.lifecycle, metrics)

		for _, th := range e.theaters {
			b.Subscribe(th.Bus())
		}
		e.brokers = append(e.brokers, b)
	}

	return e
}

// Observe subscribes h to the price cuts of every theater.
// An observer counts as a subscriber, so cuts are never missed while one is attached.
func (e *Exchange) Observe(id string, h event.Handler) {
	for _, th := range e.theaters {
		th.Bus().Subscribe(id, h)
	}
}

// Theaters returns the theaters in creation order.
func (e *Exchange) Theaters() []*engine.Theater {
	return e.theaters
}

// Brokers returns the brokers in creation order.
func (e *Exchange) Brokers() []*broker.TicketBroker {
	return e.brokers
}

// Buffer returns the shared order buffer.
func (e *Exchange) Buffer() *engine.MultiCellBuffer[domain.Order] {
	return e.buffer
}

// Lifecycle returns the shared active flag.
func (e *Exchange) Lifecycle() *engine.Lifecycle {
	return e.lifecycle
}

// Run starts every broker and theater, waits for all theaters to terminate and
// then for all brokers to notice. Orders left in the buffer are drained and
// counted as dropped so no broker stays parked in Put. Run may only be called once.
func (e *Exchange) Run(ctx context.Context) Summary {
	var theaters, brokers sync.WaitGroup

	for _, b := range e.brokers {
		brokers.Go(func() { b.Run(ctx) })
	}
	for _, th := range e.theaters {
		theaters.Go(func() { th.Run(ctx) })
	}

	theaters.Wait()
	if len(e.theaters) == 0 {
		e.lifecycle.Close()
	}
	slog.Info("All theaters closed", slog.Int("theaters", len(e.theaters)))

	dropped := e.drain(&brokers)

	summary := Summary{
		PriceCuts: make(map[string]int, len(e.theaters)),
		Dropped:   dropped,
	}
	for _, th := range e.theaters {
		summary.PriceCuts[th.Name()] = th.PriceCuts()
	}
	for _, b := range e.brokers {
		summary.OrdersPlaced += b.OrdersPlaced()
	}

	slog.Info("Exchange finished",
		slog.Int("orders_placed", summary.OrdersPlaced),
		slog.Int("dropped", summary.Dropped),
	)
	return summary
}

// drain empties the buffer until every broker has returned.
func (e *Exchange) drain(brokers *sync.WaitGroup) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		brokers.Wait()
		cancel()
	}()

	dropped := 0
	for {
		// A cancelled ctx still hands out queued orders; it only stops waiting on an empty buffer.
		order, err := e.buffer.TakeContext(ctx)
		if err != nil {
			break
		}
		dropped++
		e.metrics.RecordDropped()
		slog.Warn("DROPPING: order left after close", slog.String("order", order.String()))
	}
	return dropped
}
