package infra

import (
	"errors"

	"github.com/tjena007/Ticketing-System/internal/domain"
)

// Recorders fans every receipt out to each recorder in order.
// One failing recorder does not stop the others; all errors are joined.
type Recorders []domain.ReceiptRecorder

// RecordReceipt implements domain.ReceiptRecorder
func (rs Recorders) RecordReceipt(receipt *domain.Receipt) error {
	var errs []error
	for _, r := range rs {
		if err := r.RecordReceipt(receipt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
