package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptStatus is the outcome of processing a single order
type ReceiptStatus string

const (
	ReceiptProcessed ReceiptStatus = "PROCESSED"
	ReceiptRejected  ReceiptStatus = "REJECTED"
)

// Receipt records what a worker did with one order.
// Rejected receipts carry a zero Total and the rejection Reason.
type Receipt struct {
	OrderID   string          `gorm:"primaryKey" json:"order_id"`
	Theater   string          `gorm:"index" json:"theater"`
	SenderID  string          `gorm:"index" json:"sender_id"`
	CardLast4 string          `json:"card_last4"`
	Quantity  int             `json:"quantity"`
	UnitPrice int             `json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:text" json:"total"`
	Status    ReceiptStatus   `gorm:"index" json:"status"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TheaterRun summarizes one theater from start to termination
type TheaterRun struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Theater    string    `gorm:"index" json:"theater"`
	Cycles     int       `json:"cycles"`
	PriceCuts  int       `json:"price_cuts"`
	Dispatched int       `json:"dispatched"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewReceipt builds the receipt for an order processed by theater.
// A non-nil err marks the order as rejected and zeroes the total.
func NewReceipt(theater string, order Order, total decimal.Decimal, err error) *Receipt {
	r := &Receipt{
		OrderID:   order.ID.String(),
		Theater:   theater,
		SenderID:  order.SenderID,
		CardLast4: CardLast4(order.CardNo),
		Quantity:  order.Quantity,
		UnitPrice: order.UnitPrice,
		Total:     total,
		Status:    ReceiptProcessed,
		CreatedAt: time.Now(),
	}
	if err != nil {
		r.Status = ReceiptRejected
		r.Total = decimal.Zero
		r.Reason = err.Error()
	}
	return r
}
