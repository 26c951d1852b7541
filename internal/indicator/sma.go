package indicator

import "math"

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average seeded with the SMA of the
// first period values
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)
	result = append(result, ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}

// RSI calculates the Relative Strength Index of the last period price
// changes using simple averages of gains and losses.
// ok is false when there are fewer than period+1 prices or no losses.
func RSI(prices []float64, period int) (rsi float64, ok bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var gain, loss float64
	window := prices[len(prices)-period-1:]
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	if loss == 0 {
		return 0, false
	}

	rs := (gain / float64(period)) / (loss / float64(period))
	return 100 - 100/(1+rs), true
}

// Bands holds Bollinger band values for the latest window
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes bands over the last period prices using the sample
// standard deviation scaled by width
func Bollinger(prices []float64, period int, width float64) (Bands, bool) {
	if period < 2 || len(prices) < period {
		return Bands{}, false
	}

	window := prices[len(prices)-period:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	mean := sum / float64(period)

	var variance float64
	for _, p := range window {
		variance += (p - mean) * (p - mean)
	}
	std := math.Sqrt(variance / float64(period-1))

	return Bands{
		Upper:  mean + width*std,
		Middle: mean,
		Lower:  mean - width*std,
	}, true
}

// MACD holds the MACD line and its signal line, aligned at the end of the
// price series so that Line[i] and Signal[i] refer to the same bar
type MACD struct {
	Line   []float64
	Signal []float64
}

// CalcMACD computes the fast-slow EMA difference and its signal EMA.
// ok is false when prices cannot fill slow+signal-1 values.
func CalcMACD(prices []float64, fast, slow, signal int) (MACD, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return MACD{}, false
	}
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	if len(slowEMA) == 0 {
		return MACD{}, false
	}

	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}

	sig := EMA(line, signal)
	if len(sig) == 0 {
		return MACD{}, false
	}
	return MACD{Line: line[len(line)-len(sig):], Signal: sig}, true
}
