package broker

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/engine"
	"github.com/tjena007/Ticketing-System/internal/event"
	"github.com/tjena007/Ticketing-System/internal/infra"
	"github.com/tjena007/Ticketing-System/internal/strategy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (s *recordingSink) Put(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

func (s *recordingSink) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

func testConfig(bulkOnStart bool) Config {
	return Config{
		IdleInterval: 20 * time.Millisecond,
		QuantityMin:  20,
		QuantityMax:  38,
		BulkOnStart:  bulkOnStart,
		Strategy:     strategy.NewThresholdStrategy(120),
	}
}

func runBroker(t *testing.T, b *TicketBroker, ctx context.Context) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()
	return done
}

func TestTicketBroker_ThresholdGating(t *testing.T) {
	b := NewTicketBroker("TicketBroker_0", testConfig(false), &recordingSink{}, nil, engine.NewLifecycle(), nil)

	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 150})
	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 120})
	assert.False(t, b.BulkAllowed(), "prices at or above 120 never enable bulk")
	assert.Equal(t, 120, b.LastKnownPrice())

	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 119})
	assert.True(t, b.BulkAllowed())

	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 190})
	assert.True(t, b.BulkAllowed(), "bulk stays allowed once set")
	assert.Equal(t, 190, b.LastKnownPrice())
}

func TestTicketBroker_IdlesUntilAllowed(t *testing.T) {
	sink := &recordingSink{}
	lifecycle := engine.NewLifecycle()
	b := NewTicketBroker("TicketBroker_1", testConfig(false), sink, nil, lifecycle, nil)

	done := runBroker(t, b, context.Background())

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sink.Orders(), "a broker without bulk never submits")

	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 90})
	require.Eventually(t, func() bool { return len(sink.Orders()) > 0 }, time.Second, 5*time.Millisecond)

	lifecycle.Close()
	<-done

	order := sink.Orders()[0]
	assert.Equal(t, "TicketBroker_1", order.SenderID)
	assert.Equal(t, 90, order.UnitPrice)
	assert.GreaterOrEqual(t, order.Quantity, 20)
	assert.Less(t, order.Quantity, 38)
	assert.Contains(t, defaultCards, order.CardNo)
	assert.False(t, order.IsZero())
}

func TestTicketBroker_ReArmsAfterIdle(t *testing.T) {
	sink := &recordingSink{}
	lifecycle := engine.NewLifecycle()
	metrics := &infra.Metrics{}
	b := NewTicketBroker("TicketBroker_2", testConfig(true), sink, nil, lifecycle, metrics)

	done := runBroker(t, b, context.Background())

	// one order, idle, one order, idle ...
	require.Eventually(t, func() bool { return len(sink.Orders()) >= 3 }, time.Second, 5*time.Millisecond)
	lifecycle.Close()
	<-done

	assert.Equal(t, len(sink.Orders()), b.OrdersPlaced())
	assert.Equal(t, uint64(b.OrdersPlaced()), metrics.Snapshot().OrdersPlaced)
	assert.Zero(t, metrics.Snapshot().ActiveBrokers)
}

func TestTicketBroker_ObservesStopWithinIdleInterval(t *testing.T) {
	cfg := testConfig(false)
	cfg.IdleInterval = time.Hour

	lifecycle := engine.NewLifecycle()
	b := NewTicketBroker("TicketBroker_3", cfg, &recordingSink{}, nil, lifecycle, nil)
	done := runBroker(t, b, context.Background())

	time.Sleep(10 * time.Millisecond)
	lifecycle.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broker did not observe the stop signal")
	}
}

func TestTicketBroker_InFlightPutCompletes(t *testing.T) {
	buf := engine.NewMultiCellBuffer[domain.Order](1, 2, 1)
	buf.Put(domain.NewOrder("someone", 3612366382365168, 1, 1))

	lifecycle := engine.NewLifecycle()
	b := NewTicketBroker("TicketBroker_4", testConfig(true), buf, nil, lifecycle, nil)
	done := runBroker(t, b, context.Background())

	// the broker is now parked inside Put on a full buffer
	time.Sleep(30 * time.Millisecond)
	lifecycle.Close()

	select {
	case <-done:
		t.Fatal("an in-flight put must not be cancelled")
	case <-time.After(30 * time.Millisecond):
	}

	assert.Equal(t, "someone", buf.Take().SenderID)
	<-done
	assert.Equal(t, "TicketBroker_4", buf.Take().SenderID)
}

func TestTicketBroker_ContextCancel(t *testing.T) {
	cfg := testConfig(false)
	cfg.IdleInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	b := NewTicketBroker("TicketBroker_5", cfg, &recordingSink{}, nil, engine.NewLifecycle(), nil)
	done := runBroker(t, b, ctx)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broker ignored context cancellation")
	}
}

func TestTicketBroker_NilCollaboratorsGetDefaults(t *testing.T) {
	cfg := testConfig(true)
	cfg.Strategy = nil
	sink := &recordingSink{}

	b := NewTicketBroker("TicketBroker_7", cfg, sink, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := runBroker(t, b, ctx)

	require.Eventually(t, func() bool { return len(sink.Orders()) > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broker without a lifecycle ignored cancellation")
	}

	b.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 119})
	assert.Equal(t, 119, b.LastKnownPrice())
	assert.Contains(t, defaultCards, sink.Orders()[0].CardNo)
}

func TestTicketBroker_SubscribeToBus(t *testing.T) {
	bus := event.NewPriceCutBus()
	b := NewTicketBroker("TicketBroker_6", testConfig(false), &recordingSink{}, nil, engine.NewLifecycle(), nil)
	b.Subscribe(bus)

	_, err := bus.Publish(event.PriceCut{Originator: "Theater_0", Price: 60})
	require.NoError(t, err)
	assert.Equal(t, 60, b.LastKnownPrice())
	assert.True(t, b.BulkAllowed())
}

func TestCardPool(t *testing.T) {
	pool := NewCardPool()
	assert.Equal(t, 7, pool.Len())
	for i := 0; i < 100; i++ {
		assert.Contains(t, defaultCards, pool.Random())
	}

	custom := NewCardPool(42)
	assert.Equal(t, int64(42), custom.Random())
}
