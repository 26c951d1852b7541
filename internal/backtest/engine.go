package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/newthinker/replay/internal/core"
	"github.com/newthinker/replay/internal/strategy"
	"github.com/shopspring/decimal"
)

// quantityPrecision is the number of decimal places kept for order sizes
const quantityPrecision = 12

// Engine replays a bar series against a signal source, one long position at
// a time. It is single use: after Run the ledger and equity curve are final.
type Engine struct {
	cfg Config

	initial    decimal.Decimal
	commission decimal.Decimal
	fraction   decimal.Decimal

	balance    decimal.Decimal
	position   decimal.Decimal
	entryPrice decimal.Decimal

	trades []Trade
	equity []EquityPoint

	ran bool
}

// New creates an engine after validating cfg
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initial := decimal.NewFromFloat(cfg.InitialBalance)
	return &Engine{
		cfg:        cfg,
		initial:    initial,
		commission: decimal.NewFromFloat(cfg.Commission),
		fraction:   decimal.NewFromFloat(cfg.PositionFraction),
		balance:    initial,
		position:   decimal.Zero,
		entryPrice: decimal.Zero,
	}, nil
}

// Validate checks construction parameters
func (c Config) Validate() error {
	switch {
	case !finite(c.InitialBalance) || c.InitialBalance <= 0:
		return core.WrapError(core.ErrInvalidParam,
			fmt.Errorf("initial balance must be positive, got %v", c.InitialBalance))
	case !finite(c.Commission) || c.Commission < 0 || c.Commission >= 1:
		return core.WrapError(core.ErrInvalidParam,
			fmt.Errorf("commission must be in [0,1), got %v", c.Commission))
	case !finite(c.PositionFraction) || c.PositionFraction <= 0 || c.PositionFraction > 1:
		return core.WrapError(core.ErrInvalidParam,
			fmt.Errorf("position fraction must be in (0,1], got %v", c.PositionFraction))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Status reports whether the engine holds a position
func (e *Engine) Status() Status {
	if e.position.IsPositive() {
		return StatusLong
	}
	return StatusFlat
}

// ExecuteBuy opens a position of quantity at price. It returns false, and
// records nothing, when the cost including commission exceeds the balance,
// when a position is already open, or once Run has completed.
func (e *Engine) ExecuteBuy(price, quantity float64, t time.Time) bool {
	if e.ran || !validOrder(price, quantity) {
		return false
	}
	return e.buy(decimal.NewFromFloat(price), decimal.NewFromFloat(quantity), t, -1)
}

// ExecuteSell closes quantity of the open position at price. It returns
// false, and records nothing, when quantity exceeds the position or once Run
// has completed.
func (e *Engine) ExecuteSell(price, quantity float64, t time.Time) bool {
	if e.ran || !validOrder(price, quantity) {
		return false
	}
	return e.sell(decimal.NewFromFloat(price), decimal.NewFromFloat(quantity), t, -1)
}

// PortfolioValue returns balance + position * price
func (e *Engine) PortfolioValue(price float64) float64 {
	return e.valueAt(decimal.NewFromFloat(price)).InexactFloat64()
}

func (e *Engine) valueAt(price decimal.Decimal) decimal.Decimal {
	return e.balance.Add(e.position.Mul(price))
}

func (e *Engine) buy(p, q decimal.Decimal, t time.Time, index int) bool {
	if !p.IsPositive() || !q.IsPositive() || e.Status() == StatusLong || !e.inOrder(t) {
		return false
	}

	cost := q.Mul(p).Mul(decimal.NewFromInt(1).Add(e.commission))
	if cost.GreaterThan(e.balance) {
		return false
	}

	e.balance = e.balance.Sub(cost)
	e.position = e.position.Add(q)
	e.entryPrice = p
	e.trades = append(e.trades, Trade{
		Side:     SideBuy,
		Index:    index,
		Time:     t,
		Price:    p.InexactFloat64(),
		Quantity: q.InexactFloat64(),
		Amount:   cost.InexactFloat64(),
		Balance:  e.balance.InexactFloat64(),
	})
	return true
}

func (e *Engine) sell(p, q decimal.Decimal, t time.Time, index int) bool {
	if !p.IsPositive() || !q.IsPositive() || !e.inOrder(t) {
		return false
	}
	if q.GreaterThan(e.position) {
		return false
	}

	revenue := q.Mul(p).Mul(decimal.NewFromInt(1).Sub(e.commission))
	profit := p.Sub(e.entryPrice).Mul(q)
	var profitPct decimal.Decimal
	if e.entryPrice.IsPositive() {
		profitPct = p.Sub(e.entryPrice).Div(e.entryPrice).Mul(decimal.NewFromInt(100))
	}

	e.balance = e.balance.Add(revenue)
	e.position = e.position.Sub(q)
	if !e.position.IsPositive() {
		e.entryPrice = decimal.Zero
	}
	e.trades = append(e.trades, Trade{
		Side:      SideSell,
		Index:     index,
		Time:      t,
		Price:     p.InexactFloat64(),
		Quantity:  q.InexactFloat64(),
		Amount:    revenue.InexactFloat64(),
		Balance:   e.balance.InexactFloat64(),
		Profit:    profit.InexactFloat64(),
		ProfitPct: profitPct.InexactFloat64(),
	})
	return true
}

func validOrder(price, quantity float64) bool {
	return finite(price) && finite(quantity) && price > 0 && quantity > 0
}

// inOrder keeps the ledger strictly time ordered
func (e *Engine) inOrder(t time.Time) bool {
	if len(e.trades) == 0 {
		return true
	}
	return t.After(e.trades[len(e.trades)-1].Time)
}

// Run simulates bars in order. For every bar the source is asked for a
// decision given only bars[:i+1]; a buy while flat commits PositionFraction
// of the balance at the close, a sell while long closes the whole position
// at the close, anything else leaves the state untouched. One equity point
// is recorded per bar after the decision is applied.
//
// The series is validated before any state changes, so a failed Run leaves
// the engine exactly as constructed.
func (e *Engine) Run(bars []core.OHLCV, src strategy.SignalSource) (*Result, error) {
	if e.ran || len(e.trades) > 0 {
		return nil, core.ErrEngineUsed
	}
	if src == nil {
		return nil, core.WrapError(core.ErrInvalidParam, errors.New("signal source is nil"))
	}
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}

	e.ran = true
	e.equity = make([]EquityPoint, 0, len(bars))
	signals := make(map[core.Action]int)

	for i, bar := range bars {
		// capacity is capped so the source cannot reach later bars by reslicing
		action := src.Signal(bars[:i+1:i+1], i)
		signals[action]++

		price := decimal.NewFromFloat(bar.Close)
		switch {
		case action.IsBuy() && e.Status() == StatusFlat:
			quantity, _ := e.fraction.Mul(e.balance).QuoRem(price, quantityPrecision)
			e.buy(price, quantity, bar.Time, i)
		case action.IsSell() && e.Status() == StatusLong:
			e.sell(price, e.position, bar.Time, i)
		}

		e.equity = append(e.equity, EquityPoint{
			Time:     bar.Time,
			Value:    e.valueAt(price).InexactFloat64(),
			Price:    bar.Close,
			Cash:     e.balance.InexactFloat64(),
			Position: e.position.InexactFloat64(),
		})
	}

	return &Result{
		Symbol:  bars[0].Symbol,
		Start:   bars[0].Time,
		End:     bars[len(bars)-1].Time,
		Bars:    len(bars),
		Config:  e.cfg,
		Trades:  e.Trades(),
		Equity:  e.EquityCurve(),
		Final:   e.State(),
		Signals: signals,
	}, nil
}

// Trades returns a copy of the trade ledger
func (e *Engine) Trades() []Trade {
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// EquityCurve returns a copy of the equity curve
func (e *Engine) EquityCurve() []EquityPoint {
	out := make([]EquityPoint, len(e.equity))
	copy(out, e.equity)
	return out
}

// State returns a snapshot of balance, position and entry price
func (e *Engine) State() State {
	return State{
		Balance:    e.balance.InexactFloat64(),
		Position:   e.position.InexactFloat64(),
		EntryPrice: e.entryPrice.InexactFloat64(),
		Status:     e.Status(),
	}
}
