package feed

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tjena007/Ticketing-System/internal/domain"
	"github.com/tjena007/Ticketing-System/internal/infra"
)

const defaultReceiptLimit = 50

// Ledger is the read side of the receipt store
type Ledger interface {
	GetReceipt(orderID string) (*domain.Receipt, error)
	ListReceipts(limit int) ([]domain.Receipt, error)
	ListRuns() ([]domain.TheaterRun, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the monitor HTTP surface. ledger may be nil when storage is disabled.
func NewRouter(hub *Hub, metrics *infra.Metrics, ledger Ledger) http.Handler {
	api := &monitorAPI{metrics: metrics, ledger: ledger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", api.health)
	r.Get("/metrics", api.snapshot)
	r.Route("/receipts", func(r chi.Router) {
		r.Use(api.requireLedger)
		r.Get("/", api.listReceipts)
		r.Get("/{id}", api.getReceipt)
	})
	r.With(api.requireLedger).Get("/runs", api.listRuns)
	r.Get("/ws", hub.ServeWS)

	return r
}

type monitorAPI struct {
	metrics *infra.Metrics
	ledger  Ledger
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (a *monitorAPI) requireLedger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.ledger == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage disabled"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *monitorAPI) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *monitorAPI) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.metrics.Snapshot())
}

func (a *monitorAPI) listReceipts(w http.ResponseWriter, r *http.Request) {
	limit := defaultReceiptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	receipts, err := a.ledger.ListReceipts(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (a *monitorAPI) getReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := a.ledger.GetReceipt(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if receipt == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "receipt not found"})
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *monitorAPI) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.ledger.ListRuns()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
