// Package httpapi serves persisted backtest results as a JSON REST API.
// The wire types live in pkg/systemtrade so the SDK and the server share
// one definition.
package httpapi

import (
	"math"

	"systemtrade/internal/domain"
	"systemtrade/internal/store"
	"systemtrade/pkg/systemtrade"
)

func convertRun(r *store.Run) systemtrade.Run {
	var profitFactor *float64
	if pf := r.Summary.ProfitFactor; !math.IsInf(pf, 0) && !math.IsNaN(pf) {
		profitFactor = &pf
	}
	return systemtrade.Run{
		ID:        r.ID,
		Strategy:  r.Strategy,
		Symbols:   r.Symbols,
		Market:    r.Market,
		Period:    string(r.Period),
		StartedAt: r.StartedAt.UnixMilli(),

		InitialCapital:   r.Summary.InitialCapital,
		FinalEquity:      r.Summary.FinalEquity,
		TotalReturn:      r.Summary.TotalReturn,
		SharpeRatio:      r.Summary.SharpeRatio,
		MaxDrawdown:      r.Summary.MaxDrawdown,
		DrawdownDuration: r.Summary.DrawdownDuration,
		TotalTrades:      r.Summary.TotalTrades,
		WinRate:          r.Summary.WinRate,
		ProfitFactor:     profitFactor,
	}
}

func convertRunDetail(r *store.Run) systemtrade.RunDetail {
	detail := systemtrade.RunDetail{Run: convertRun(r)}
	detail.EquityCurve = make([]systemtrade.EquityPoint, 0, len(r.EquityCurve))
	for _, pt := range r.EquityCurve {
		detail.EquityCurve = append(detail.EquityCurve, systemtrade.EquityPoint{
			Timestamp: pt.Timestamp.UnixMilli(),
			Cash:      pt.Cash,
			Total:     pt.Total,
		})
	}
	return detail
}

func convertSignals(signals []domain.Signal) []systemtrade.Signal {
	out := make([]systemtrade.Signal, 0, len(signals))
	for _, sig := range signals {
		out = append(out, systemtrade.Signal{
			StrategyID: sig.StrategyID,
			Symbol:     sig.Symbol,
			Timestamp:  sig.Timestamp.UnixMilli(),
			Direction:  string(sig.Direction),
			Strength:   sig.Strength,
		})
	}
	return out
}
