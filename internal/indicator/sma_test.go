package indicator

import (
	"math"
	"testing"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14

	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestEMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	if len(ema) != 4 {
		t.Fatalf("expected 4 values, got %d", len(ema))
	}

	// First EMA = SMA = 11
	if ema[0] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[0])
	}

	// Subsequent EMAs should trend upward
	for i := 1; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
	}
}

func TestEMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	ema := EMA(prices, 5)

	if len(ema) != 0 {
		t.Errorf("expected empty slice, got %d values", len(ema))
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestSMA_InvalidPeriod(t *testing.T) {
	if got := SMA([]float64{1, 2, 3}, 0); len(got) != 0 {
		t.Errorf("expected empty slice for zero period, got %v", got)
	}
}

func TestRSI(t *testing.T) {
	// changes: +1, +1, -1, +1 => gains 3, losses 1 over 4 periods
	prices := []float64{10, 11, 12, 11, 12}
	rsi, ok := RSI(prices, 4)
	if !ok {
		t.Fatal("expected RSI to be defined")
	}
	want := 100 - 100/(1+3.0)
	if math.Abs(rsi-want) > 1e-9 {
		t.Errorf("RSI = %f, want %f", rsi, want)
	}
}

func TestRSI_NoLosses(t *testing.T) {
	if _, ok := RSI([]float64{1, 2, 3, 4}, 3); ok {
		t.Error("RSI should be undefined without losses")
	}
}

func TestRSI_NotEnoughData(t *testing.T) {
	if _, ok := RSI([]float64{1, 2}, 3); ok {
		t.Error("RSI should be undefined with too few prices")
	}
}

func TestBollinger(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	bands, ok := Bollinger(prices, 8, 2)
	if !ok {
		t.Fatal("expected bands")
	}
	// mean 5, sample variance 32/7
	std := math.Sqrt(32.0 / 7.0)
	if bands.Middle != 5 {
		t.Errorf("Middle = %f, want 5", bands.Middle)
	}
	if math.Abs(bands.Upper-(5+2*std)) > 1e-9 || math.Abs(bands.Lower-(5-2*std)) > 1e-9 {
		t.Errorf("unexpected bands %+v", bands)
	}
}

func TestCalcMACD(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	m, ok := CalcMACD(prices, 3, 6, 4)
	if !ok {
		t.Fatal("expected MACD values")
	}
	// 40 - 6 + 1 line values, 4 - 1 consumed by the signal seed
	if len(m.Line) != 32 || len(m.Signal) != 32 {
		t.Fatalf("lengths = %d/%d, want 32/32", len(m.Line), len(m.Signal))
	}
	// on a straight line both EMAs lag by (period-1)/2, so the gap is constant
	for i, v := range m.Line {
		if math.Abs(v-1.5) > 1e-9 {
			t.Fatalf("Line[%d] = %v, want 1.5", i, v)
		}
	}
	if math.Abs(m.Signal[len(m.Signal)-1]-1.5) > 1e-9 {
		t.Errorf("signal = %v, want 1.5", m.Signal[len(m.Signal)-1])
	}
}

func TestCalcMACD_NotEnoughData(t *testing.T) {
	if _, ok := CalcMACD([]float64{1, 2, 3, 4, 5}, 2, 4, 3); ok {
		t.Error("expected not ok for short series")
	}
	if _, ok := CalcMACD([]float64{1, 2, 3}, 3, 2, 1); ok {
		t.Error("expected not ok when slow <= fast")
	}
}
