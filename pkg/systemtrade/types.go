package systemtrade

// Run is one backtest run's summary. Timestamps are Unix milliseconds.
type Run struct {
	ID        string   `json:"id"`
	Strategy  string   `json:"strategy"`
	Symbols   []string `json:"symbols"`
	Market    string   `json:"market"`
	Period    string   `json:"period"`
	StartedAt int64    `json:"startedAt"` // Unix ms

	InitialCapital   float64 `json:"initialCapital"`
	FinalEquity      float64 `json:"finalEquity"`
	TotalReturn      float64 `json:"totalReturn"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	DrawdownDuration int     `json:"drawdownDuration"`
	TotalTrades      int     `json:"totalTrades"`
	WinRate          float64 `json:"winRate"`

	// ProfitFactor is omitted when the run had no losing trade, since the
	// ratio is infinite and JSON has no encoding for it.
	ProfitFactor *float64 `json:"profitFactor,omitempty"`
}

// EquityPoint is one row of a run's equity curve.
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"` // Unix ms
	Cash      float64 `json:"cash"`
	Total     float64 `json:"total"`
}

// RunDetail is a run summary together with its equity curve.
type RunDetail struct {
	Run
	EquityCurve []EquityPoint `json:"equityCurve"`
}

// Signal is one signal a run emitted.
type Signal struct {
	StrategyID string  `json:"strategyId"`
	Symbol     string  `json:"symbol"`
	Timestamp  int64   `json:"timestamp"` // Unix ms
	Direction  string  `json:"direction"`
	Strength   float64 `json:"strength"`
}

// RunsResponse lists run summaries, newest first.
type RunsResponse struct {
	Runs []Run `json:"runs"`
}

// SignalsResponse lists a run's signals in emission order.
type SignalsResponse struct {
	RunID   string   `json:"runId"`
	Signals []Signal `json:"signals"`
}
