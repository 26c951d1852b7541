package alert

import (
	"testing"

	"github.com/newthinker/replay/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Evaluate(t *testing.T) {
	metrics := map[string]float64{"max_drawdown_pct": -25, "sharpe": 0.4, "trades": 12}

	tests := []struct {
		expr string
		want bool
	}{
		{"max_drawdown_pct < -20", true},
		{"max_drawdown_pct<-30", false},
		{"sharpe >= 0.4", true},
		{"sharpe > 0.4", false},
		{"trades == 12", true},
		{"trades != 12", false},
		{"trades <= 11", false},
		{"unknown > 1", false},
		{"sharpe is low", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, got := Rule{Name: "r", Expr: tt.expr}.Evaluate(metrics)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_Validate(t *testing.T) {
	assert.NoError(t, Rule{Name: "deep", Expr: "max_drawdown_pct < -20"}.Validate())
	assert.ErrorIs(t, Rule{Expr: "sharpe < 1"}.Validate(), core.ErrConfigInvalid)
	assert.ErrorIs(t, Rule{Name: "bad", Expr: "sharpe ~ 1"}.Validate(), core.ErrConfigInvalid)
}

func TestCheck(t *testing.T) {
	rules := []Rule{
		{Name: "deep_drawdown", Expr: "max_drawdown_pct < -20", Severity: "critical", Message: "reduce exposure"},
		{Name: "weak_sharpe", Expr: "sharpe < 0.5"},
		{Name: "losing", Expr: "total_return_pct < 0"},
	}
	fired := Check(rules, map[string]float64{"max_drawdown_pct": -25, "sharpe": 0.4, "total_return_pct": 3})

	require.Len(t, fired, 2)
	assert.Equal(t, "[CRITICAL] deep_drawdown: max_drawdown_pct = -25 (reduce exposure)", fired[0].String())
	assert.Equal(t, "[WARNING] weak_sharpe: sharpe = 0.4", fired[1].String())
	assert.Empty(t, Check(nil, map[string]float64{"sharpe": 1}))
}
