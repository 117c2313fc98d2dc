package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/event"
	"github.com/tjena007/Ticketing-System/internal/infra"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLedger struct {
	receipts []domain.Receipt
	runs     []domain.TheaterRun
	err      error
}

func (l *fakeLedger) GetReceipt(orderID string) (*domain.Receipt, error) {
	for i := range l.receipts {
		if l.receipts[i].OrderID == orderID {
			return &l.receipts[i], nil
		}
	}
	return nil, l.err
}

func (l *fakeLedger) ListReceipts(limit int) ([]domain.Receipt, error) {
	if l.err != nil {
		return nil, l.err
	}
	if limit > 0 && limit < len(l.receipts) {
		return l.receipts[:limit], nil
	}
	return l.receipts, nil
}

func (l *fakeLedger) ListRuns() ([]domain.TheaterRun, error) {
	return l.runs, l.err
}

func newTestServer(t *testing.T, ledger Ledger) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		hub.Run(ctx)
	}()

	metrics := &infra.Metrics{}
	metrics.RecordPriceCut()
	srv := httptest.NewServer(NewRouter(hub, metrics, ledger))

	t.Cleanup(func() {
		cancel()
		<-stopped
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_StreamsPriceCutsAndReceipts(t *testing.T) {
	hub, srv := newTestServer(t, nil)
	conn := dial(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: 95, Sequence: 1})
	msg := readMessage(t, conn)
	assert.Equal(t, TypePriceCut, msg.Type)
	data := msg.Data.(map[string]any)
	assert.Equal(t, "Theater_0", data["originator"])
	assert.EqualValues(t, 95, data["price"])

	order := domain.NewOrder("TicketBroker_0", 3612366382365168, 2, 100)
	require.NoError(t, hub.RecordReceipt(domain.NewReceipt("Theater_0", order, decimal.NewFromInt(235), nil)))
	msg = readMessage(t, conn)
	assert.Equal(t, TypeReceipt, msg.Type)
	assert.Equal(t, order.ID.String(), msg.Data.(map[string]any)["order_id"])
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t, nil)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_PublishWithoutClientsNeverBlocks(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < broadcastBufferSize*2; i++ {
			hub.OnPriceCut(event.PriceCut{Originator: "Theater_0", Price: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without a running hub")
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	_, srv := newTestServer(t, nil)
	client := srv.Client()

	resp, err := client.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap infra.MetricsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.EqualValues(t, 1, snap.PriceCuts)
}

func TestRouter_Receipts(t *testing.T) {
	order := domain.NewOrder("TicketBroker_0", 3612366382365168, 2, 100)
	ledger := &fakeLedger{
		receipts: []domain.Receipt{
			*domain.NewReceipt("Theater_0", order, decimal.NewFromInt(235), nil),
			*domain.NewReceipt("Theater_0", domain.NewOrder("TicketBroker_1", 1, 2, 100), decimal.Zero, domain.ErrInvalidCard),
		},
		runs: []domain.TheaterRun{{ID: 1, Theater: "Theater_0", PriceCuts: 20}},
	}
	_, srv := newTestServer(t, ledger)
	client := srv.Client()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"list", "/receipts", http.StatusOK},
		{"list with limit", "/receipts?limit=1", http.StatusOK},
		{"bad limit", "/receipts?limit=abc", http.StatusBadRequest},
		{"get", "/receipts/" + order.ID.String(), http.StatusOK},
		{"missing", "/receipts/nope", http.StatusNotFound},
		{"runs", "/runs", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(srv.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := client.Get(srv.URL + "/receipts?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var receipts []domain.Receipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, order.ID.String(), receipts[0].OrderID)
}

func TestRouter_LedgerErrors(t *testing.T) {
	_, srv := newTestServer(t, &fakeLedger{err: errors.New("disk gone")})

	resp, err := srv.Client().Get(srv.URL + "/receipts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRouter_StorageDisabled(t *testing.T) {
	_, srv := newTestServer(t, nil)

	for _, path := range []string{"/receipts", "/runs"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}
