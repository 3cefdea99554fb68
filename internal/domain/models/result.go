package models

import "time"

// ExitReason says what closed a simulated position, or why it never ran.
type ExitReason string

const (
	ExitTakeProfit     ExitReason = "take_profit"
	ExitStopLoss       ExitReason = "stop_loss"
	ExitHorizonExpired ExitReason = "horizon_expired"
	ExitNoData         ExitReason = "no_data"
)

// SimulationResult is the realized outcome of one simulated position.
// PnLPercent is leverage-adjusted and PnLDollar = CapitalAllocated *
// PnLPercent / 100.
type SimulationResult struct {
	Ticker           string     `json:"ticker"`
	Sentiment        Sentiment  `json:"sentiment"`
	Leverage         float64    `json:"leverage"`
	EntryPrice       float64    `json:"entry_price"`
	ExitPrice        float64    `json:"exit_price"`
	ExitReason       ExitReason `json:"exit_reason"`
	ExitLevel        int        `json:"exit_level,omitempty"` // 1-based take-profit level when ExitReason is take_profit
	ExitTime         time.Time  `json:"exit_time,omitzero"`
	PnLDollar        float64    `json:"pnl_dollar"`
	PnLPercent       float64    `json:"pnl_percent"`
	TakeProfitsHit   int        `json:"take_profits_hit"`
	CapitalAllocated float64    `json:"capital_allocated"`
	MaxGainDollar    float64    `json:"max_gain_dollar"`
	MaxLossDollar    float64    `json:"max_loss_dollar"`
}

// PositionOutcome is one slot of a batch: either a result or the error that
// kept this signal from being simulated. Exactly one of Result/Error is set.
type PositionOutcome struct {
	Signal Signal            `json:"signal"`
	Result *SimulationResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// OK reports whether the slot holds a successful simulation.
func (o PositionOutcome) OK() bool { return o.Result != nil && o.Error == "" }

// PortfolioResult aggregates a batch of simulated positions. Outcomes keep
// the input signal order.
type PortfolioResult struct {
	TotalCapital    float64           `json:"total_capital"`
	TotalPnL        float64           `json:"total_pnl"`
	ROIPercent      float64           `json:"roi_percent"`
	SuccessfulCount int               `json:"successful_count"`
	TotalCount      int               `json:"total_count"`
	WinningCount    int               `json:"winning_count"`
	LosingCount     int               `json:"losing_count"`
	WinRatePercent  float64           `json:"win_rate_percent"`
	LongCount       int               `json:"long_count"`
	ShortCount      int               `json:"short_count"`
	MaxLeverage     float64           `json:"max_leverage"`
	AvgLeverage     float64           `json:"avg_leverage"`
	TotalExposure   float64           `json:"total_exposure"`
	Outcomes        []PositionOutcome `json:"outcomes"`
}
