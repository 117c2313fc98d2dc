package strategy

// ThresholdStrategy enables bulk buying once a price strictly below the threshold is seen.
// It is stateless; stickiness of the decision belongs to the broker.
type ThresholdStrategy struct {
	threshold int
}

// NewThresholdStrategy creates a new instance.
func NewThresholdStrategy(threshold int) *ThresholdStrategy {
	return &ThresholdStrategy{threshold: threshold}
}

// OnPriceCut returns ActionEnableBulk for prices below the threshold.
func (s *ThresholdStrategy) OnPriceCut(price int) ActionType {
	if price < s.threshold {
		return ActionEnableBulk
	}
	return ActionHold
}
