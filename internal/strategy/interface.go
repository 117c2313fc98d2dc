package strategy

// ActionType defines what a broker should do after a price cut
type ActionType int

const (
	ActionHold       ActionType = iota // Keep the current buying mode
	ActionEnableBulk                   // Allow order submission from now on
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionHold:
		return "HOLD"
	case ActionEnableBulk:
		return "ENABLE_BULK"
	default:
		return "UNKNOWN"
	}
}

// Strategy is the interface that broker buying strategies must implement.
// It is called synchronously from the theater's price cut broadcast,
// so implementations must not block.
type Strategy interface {
	// OnPriceCut is called with the new price each time a theater cuts it.
	OnPriceCut(price int) ActionType
}
