package strategy_test

import (
	"testing"

	"github.com/tjena007/Ticketing-System/internal/strategy"
)

func TestThresholdStrategy(t *testing.T) {
	strat := strategy.NewThresholdStrategy(120)

	tests := []struct {
		price int
		want  strategy.ActionType
	}{
		{40, strategy.ActionEnableBulk},
		{119, strategy.ActionEnableBulk},
		{120, strategy.ActionHold}, // strictly below only
		{121, strategy.ActionHold},
		{199, strategy.ActionHold},
	}

	for _, tt := range tests {
		if got := strat.OnPriceCut(tt.price); got != tt.want {
			t.Errorf("OnPriceCut(%d) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestActionType_String(t *testing.T) {
	if strategy.ActionEnableBulk.String() != "ENABLE_BULK" {
		t.Errorf("unexpected name %q", strategy.ActionEnableBulk.String())
	}
	if strategy.ActionType(42).String() != "UNKNOWN" {
		t.Errorf("unexpected name %q", strategy.ActionType(42).String())
	}
}
