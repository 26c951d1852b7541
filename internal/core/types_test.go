package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func bar(t time.Time, close float64) OHLCV {
	return OHLCV{Symbol: "BTCUSDT", Open: close, High: close, Low: close, Close: close, Volume: 1, Time: t}
}

func TestAction_Constants(t *testing.T) {
	actions := []Action{ActionBuy, ActionSell, ActionHold, ActionStrongBuy, ActionStrongSell}
	expected := []string{"buy", "sell", "hold", "strong_buy", "strong_sell"}

	for i, a := range actions {
		if string(a) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], a)
		}
	}
}

func TestActionFromInt(t *testing.T) {
	tests := []struct {
		in   int
		want Action
	}{
		{1, ActionBuy},
		{-1, ActionSell},
		{0, ActionHold},
		{7, ActionHold},
	}
	for _, tt := range tests {
		if got := ActionFromInt(tt.in); got != tt.want {
			t.Errorf("ActionFromInt(%d) = %s, want %s", tt.in, got, tt.want)
		}
		if tt.want != ActionHold && ActionFromInt(tt.in).Int() != tt.in {
			t.Errorf("Int() round trip failed for %d", tt.in)
		}
	}
}

func TestAction_StrongVariants(t *testing.T) {
	if !ActionStrongBuy.IsBuy() || ActionStrongBuy.IsSell() {
		t.Error("strong_buy should count as buy")
	}
	if !ActionStrongSell.IsSell() || ActionStrongSell.IsBuy() {
		t.Error("strong_sell should count as sell")
	}
	if ActionHold.IsBuy() || ActionHold.IsSell() {
		t.Error("hold is neither buy nor sell")
	}
}

func TestOHLCV_Validate(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		bar     OHLCV
		wantErr bool
	}{
		{"valid", bar(now, 100), false},
		{"zero time", bar(time.Time{}, 100), true},
		{"zero close", bar(now, 0), true},
		{"nan close", bar(now, math.NaN()), true},
		{"negative volume", OHLCV{Close: 1, Volume: -1, Time: now}, true},
		{"inf high", OHLCV{Close: 1, High: math.Inf(1), Time: now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSeries(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	if err := ValidateSeries([]OHLCV{bar(t0, 1), bar(t0.Add(day), 2)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		bars []OHLCV
	}{
		{"empty", nil},
		{"duplicate timestamp", []OHLCV{bar(t0, 1), bar(t0, 2)}},
		{"decreasing timestamp", []OHLCV{bar(t0.Add(day), 1), bar(t0, 2)}},
		{"invalid bar", []OHLCV{bar(t0, 1), bar(t0.Add(day), -5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.bars)
			if !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("ValidateSeries() error = %v, want INVALID_SERIES", err)
			}
		})
	}
}
