// Package builtin registers the strategies shipped with replay.
package builtin

import (
	"github.com/newthinker/replay/internal/strategy"
	"github.com/newthinker/replay/internal/strategy/bollinger"
	"github.com/newthinker/replay/internal/strategy/donchian"
	"github.com/newthinker/replay/internal/strategy/ma_crossover"
	"github.com/newthinker/replay/internal/strategy/macd"
	"github.com/newthinker/replay/internal/strategy/rsi"
)

// Register adds every built-in strategy factory to r
func Register(r *strategy.Registry) {
	r.Register(ma_crossover.Name, ma_crossover.Factory)
	r.Register(rsi.Name, rsi.Factory)
	r.Register(bollinger.Name, bollinger.Factory)
	r.Register(macd.Name, macd.Factory)
	r.Register(donchian.Name, donchian.Factory)
}
