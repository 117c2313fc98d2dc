package domain

// ReceiptRecorder persists processing outcomes (ledger, feed, ...).
// Implementations are called from worker goroutines and must be safe for concurrent use.
type ReceiptRecorder interface {
	RecordReceipt(receipt *Receipt) error
}

// RunRecorder persists a theater summary once the theater terminates.
type RunRecorder interface {
	RecordRun(run *TheaterRun) error
}
