package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Order represents a ticket purchase request issued by a broker.
// An Order is a value: once handed to the buffer it is never mutated,
// and it travels broker -> buffer -> theater -> worker with a single owner at a time.
type Order struct {
	ID        uuid.UUID
	SenderID  string // Broker identity (e.g. "TicketBroker_0")
	CardNo    int64  // Payment card number
	Quantity  int    // Number of seats, > 0
	UnitPrice int    // Price snapshot at creation time, >= 0
}

// NewOrder creates an order with a fresh identifier.
func NewOrder(senderID string, cardNo int64, quantity, unitPrice int) Order {
	return Order{
		ID:        uuid.New(),
		SenderID:  senderID,
		CardNo:    cardNo,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}

// IsZero reports whether the order was never initialized.
func (o Order) IsZero() bool {
	return o.ID == uuid.Nil
}

// String renders the order for trace logs.
func (o Order) String() string {
	return fmt.Sprintf("ORDER{ID: %s, SENDER: %s, CARD_NO: %d, AMOUNT: %d, UNIT PRICE: %s}",
		o.ID, o.SenderID, o.CardNo, o.Quantity, FormatCurrency(int64(o.UnitPrice)))
}
