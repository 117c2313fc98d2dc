package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/event"
	"github.com/tjena007/Ticketing-System/internal/infra"
)

// State is the theater state machine position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateTerminated
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// PriceOracle samples the next ticket price.
type PriceOracle interface {
	NextPrice() int
}

// OrderSource is where the theater pulls orders from.
type OrderSource interface {
	TakeContext(ctx context.Context) (domain.Order, error)
}

// OrderProcessor validates an order and computes its total.
// A validation failure is reported as a *domain.ValidationError.
type OrderProcessor interface {
	Process(order domain.Order) (decimal.Decimal, error)
}

// TheaterConfig bounds a theater run.
type TheaterConfig struct {
	MaxPriceCuts int // tmax
	MaxCycles    int // 0 = unlimited
}

// TheaterDeps are the collaborators of a theater. Receipts and Runs are optional.
type TheaterDeps struct {
	Source    OrderSource
	Oracle    PriceOracle
	Processor OrderProcessor
	Bus       *event.PriceCutBus
	Lifecycle *Lifecycle
	Metrics   *infra.Metrics
	Receipts  domain.ReceiptRecorder
	Runs      domain.RunRecorder
}

// Theater is the single coordinator loop: it samples prices, broadcasts price
// cuts, pulls one order per cycle and hands it to a fresh worker goroutine.
type Theater struct {
	name string
	cfg  TheaterConfig
	deps TheaterDeps

	state atomic.Int32
	cuts  atomic.Int64

	// Loop-owned state (only touched by the Run goroutine)
	cycles        int
	currentPrice  int
	previousPrice int
	dispatched    int
	startedAt     time.Time

	workers sync.WaitGroup
}

// NewTheater creates a theater and joins it to the lifecycle, so the active
// flag stays up until this theater has terminated.
func NewTheater(name string, cfg TheaterConfig, deps TheaterDeps) *Theater {
	if deps.Bus == nil {
		deps.Bus = event.NewPriceCutBus()
	}
	if deps.Lifecycle == nil {
		deps.Lifecycle = NewLifecycle()
	}
	if deps.Metrics == nil {
		deps.Metrics = &infra.Metrics{}
	}
	deps.Lifecycle.Join()

	return &Theater{
		name: name,
		cfg:  cfg,
		deps: deps,
	}
}

// Name returns the theater identity.
func (t *Theater) Name() string {
	return t.name
}

// Bus returns the price cut registry brokers subscribe to.
func (t *Theater) Bus() *event.PriceCutBus {
	return t.deps.Bus
}

// State returns the current state.
func (t *Theater) State() State {
	return State(t.state.Load())
}

// PriceCuts returns the number of price cuts broadcast so far.
func (t *Theater) PriceCuts() int {
	return int(t.cuts.Load())
}

// Run executes the theater until MaxPriceCuts cuts have been broadcast, the
// optional cycle cap is hit, or ctx is cancelled. It then waits for every
// dispatched worker and finally leaves the lifecycle. Run blocks; start it in
// its own goroutine.
func (t *Theater) Run(ctx context.Context) {
	slog.Info("Theater started", slog.String("theater", t.name))
	t.startedAt = time.Now()
	t.deps.Metrics.IncrementTheaters()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.String("theater", t.name), slog.Any("panic", r))
			t.DumpState(fmt.Sprintf("panic_dump_%s.json", t.name))
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	t.setState(StateRunning)
	t.loop(ctx)

	t.setState(StateDraining)
	slog.Info("Theater draining workers", slog.String("theater", t.name), slog.Int("dispatched", t.dispatched))
	t.workers.Wait()

	t.setState(StateTerminated)
	t.deps.Metrics.DecrementTheaters()
	t.recordRun()
	slog.Info("CLOSING: theater", slog.String("theater", t.name), slog.Int("price_cuts", t.PriceCuts()))

	t.deps.Lifecycle.Leave()
}

func (t *Theater) loop(ctx context.Context) {
	for t.PriceCuts() < t.cfg.MaxPriceCuts {
		if t.cfg.MaxCycles > 0 && t.cycles >= t.cfg.MaxCycles {
			slog.Warn("Theater reached cycle cap", slog.String("theater", t.name), slog.Int("cycles", t.cycles))
			return
		}
		if ctx.Err() != nil {
			slog.Info("Theater stopping...", slog.String("theater", t.name))
			return
		}
		t.cycles++

		// 1. Sample
		t.setPrice()

		// 2. Compare & broadcast
		slog.Info("CHECKING: price comparison",
			slog.String("theater", t.name),
			slog.String("previous", domain.FormatCurrency(int64(t.previousPrice))),
			slog.String("current", domain.FormatCurrency(int64(t.currentPrice))),
		)
		if t.currentPrice < t.previousPrice {
			t.priceCut()
		}
		t.previousPrice = t.currentPrice

		// 3. Retrieve & dispatch
		order, err := t.deps.Source.TakeContext(ctx)
		if err != nil {
			slog.Info("Theater stopped waiting for orders", slog.String("theater", t.name), slog.Any("error", err))
			return
		}
		t.dispatch(order)
	}
}

func (t *Theater) setPrice() {
	slog.Debug("PRICING: calculating", slog.String("theater", t.name))
	t.currentPrice = t.deps.Oracle.NextPrice()
	slog.Info("PRICING: price finalized",
		slog.String("theater", t.name),
		slog.String("price", domain.FormatCurrency(int64(t.currentPrice))),
	)
}

// priceCut broadcasts the current price. The cut only counts when somebody heard it.
func (t *Theater) priceCut() {
	seq := t.PriceCuts() + 1
	n, err := t.deps.Bus.Publish(event.PriceCut{
		Originator: t.name,
		Price:      t.currentPrice,
		Sequence:   seq,
		At:         time.Now(),
	})
	if errors.Is(err, domain.ErrNoSubscribers) {
		slog.Error("ERROR: no price cut subscribers", slog.String("theater", t.name))
		t.deps.Metrics.RecordMissedCut()
		return
	}

	t.cuts.Store(int64(seq))
	t.deps.Metrics.RecordPriceCut()
	slog.Info("EVENT: performed price cut",
		slog.String("theater", t.name),
		slog.Int("cut", seq),
		slog.Int("subscribers", n),
	)
}

func (t *Theater) dispatch(order domain.Order) {
	if order.IsZero() {
		panic(fmt.Sprintf("%v: %s received an uninitialized order", domain.ErrEmptyRetrieval, t.name))
	}

	t.dispatched++
	worker := fmt.Sprintf("Processor:%s#%d", t.name, t.dispatched)
	slog.Info("RECEIVING: order", slog.String("theater", t.name), slog.String("order", order.String()))

	t.workers.Add(1)
	go func() {
		defer t.workers.Done()
		t.process(worker, order)
	}()
}

// process is the ephemeral worker body: validate, total, report. No retries.
func (t *Theater) process(worker string, order domain.Order) {
	start := time.Now()
	total, err := t.deps.Processor.Process(order)
	receipt := domain.NewReceipt(t.name, order, total, err)

	if err != nil {
		slog.Warn("VALIDATION CHECK COMPLETE: card number not valid, order dropped",
			slog.String("worker", worker),
			slog.String("sender", order.SenderID),
			slog.Any("error", err),
		)
		t.deps.Metrics.RecordRejected()
	} else {
		slog.Info("PROCESSING COMPLETE",
			slog.String("worker", worker),
			slog.String("order", order.String()),
			slog.String("total", domain.FormatDecimal(total)),
		)
		t.deps.Metrics.RecordProcessed(time.Since(start).Nanoseconds())
	}

	if t.deps.Receipts != nil {
		if err := t.deps.Receipts.RecordReceipt(receipt); err != nil {
			slog.Error("Failed to record receipt", slog.String("worker", worker), slog.Any("error", err))
		}
	}
}

func (t *Theater) recordRun() {
	if t.deps.Runs == nil {
		return
	}
	run := &domain.TheaterRun{
		Theater:    t.name,
		Cycles:     t.cycles,
		PriceCuts:  t.PriceCuts(),
		Dispatched: t.dispatched,
		StartedAt:  t.startedAt,
		FinishedAt: time.Now(),
	}
	if err := t.deps.Runs.RecordRun(run); err != nil {
		slog.Error("Failed to record theater run", slog.String("theater", t.name), slog.Any("error", err))
	}
}

func (t *Theater) setState(s State) {
	t.state.Store(int32(s))
	slog.Debug("Theater state", slog.String("theater", t.name), slog.String("state", s.String()))
}

// DumpState writes the loop state to a file (for post-mortem).
func (t *Theater) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		Theater       string `json:"theater"`
		State         string `json:"state"`
		Cycles        int    `json:"cycles"`
		PriceCuts     int    `json:"price_cuts"`
		CurrentPrice  int    `json:"current_price"`
		PreviousPrice int    `json:"previous_price"`
		Dispatched    int    `json:"dispatched"`
	}{
		Theater:       t.name,
		State:         t.State().String(),
		Cycles:        t.cycles,
		PriceCuts:     t.PriceCuts(),
		CurrentPrice:  t.currentPrice,
		PreviousPrice: t.previousPrice,
		Dispatched:    t.dispatched,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
