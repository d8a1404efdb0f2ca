package portfolio

import (
	"math"

	"systemtrade/internal/domain"
)

// Summary holds the performance metrics derived from a completed run's
// ledger and realized trades.
type Summary struct {
	InitialCapital   float64
	FinalEquity      float64
	TotalReturn      float64 // fractional, e.g. 0.12 for +12%
	SharpeRatio      float64 // annualised by the run's bar period
	MaxDrawdown      float64 // fractional peak-to-trough decline
	DrawdownDuration int     // longest run of consecutive bars below a prior equity peak
	TotalTrades      int
	WinRate          float64
	ProfitFactor     float64
}

// Summarize computes performance statistics over a ledger. trades is the
// per-round-trip realized P&L; period selects the Sharpe annualisation
// factor.
func Summarize(ledger []Snapshot, trades []float64, period domain.Period) Summary {
	var s Summary
	if len(ledger) == 0 {
		return s
	}

	s.FinalEquity = ledger[len(ledger)-1].Total

	// Periodic returns of the equity curve.
	returns := make([]float64, 0, len(ledger)-1)
	for i := 1; i < len(ledger); i++ {
		prev := ledger[i-1].Total
		if prev != 0 {
			returns = append(returns, ledger[i].Total/prev-1)
		}
	}
	s.SharpeRatio = sharpe(returns, period.BarsPerYear())
	s.MaxDrawdown, s.DrawdownDuration = maxDrawdown(ledger)

	s.TotalTrades = len(trades)
	if len(trades) > 0 {
		var wins int
		var grossProfit, grossLoss float64
		for _, pnl := range trades {
			if pnl > 0 {
				wins++
				grossProfit += pnl
			} else {
				grossLoss += -pnl
			}
		}
		s.WinRate = float64(wins) / float64(len(trades))
		if grossLoss > 0 {
			s.ProfitFactor = grossProfit / grossLoss
		} else if grossProfit > 0 {
			s.ProfitFactor = math.Inf(1)
		}
	}
	return s
}

// WithInitialCapital fills in the fields that depend on starting cash.
func (s Summary) WithInitialCapital(initial float64) Summary {
	s.InitialCapital = initial
	if initial != 0 {
		s.TotalReturn = s.FinalEquity/initial - 1
	}
	return s
}

// sharpe is the annualised ratio of mean periodic return to its standard
// deviation, assuming a zero benchmark.
func sharpe(returns []float64, barsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return math.Sqrt(barsPerYear) * mean / std
}

// maxDrawdown returns the deepest fractional peak-to-trough decline of the
// equity curve and the longest run of consecutive bars spent below a prior
// peak. The two are measured independently: the longest underwater stretch
// may belong to a shallower drawdown than the deepest one.
func maxDrawdown(ledger []Snapshot) (float64, int) {
	var deepest float64
	var longest, current int
	peak := ledger[0].Total
	for _, snap := range ledger {
		if snap.Total >= peak {
			peak = snap.Total
			current = 0
			continue
		}
		current++
		if peak > 0 {
			dd := (peak - snap.Total) / peak
			if dd > deepest {
				deepest = dd
			}
		}
		if current > longest {
			longest = current
		}
	}
	return deepest, longest
}
