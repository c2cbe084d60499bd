package interfaces

import (
	"context"
	"time"
)

// OptionSide holds one side (call or put) of a strike's data
type OptionSide struct {
	OpenInterest int64 `json:"openInterest"`
}

// StrikeRecord represents one strike in the option chain. Either side may
// be missing in the provider payload; only records carrying both sides
// participate in downstream computation.
type StrikeRecord struct {
	StrikePrice float64     `json:"strikePrice"`
	Call        *OptionSide `json:"CE,omitempty"`
	Put         *OptionSide `json:"PE,omitempty"`
}

// HasBothSides reports whether the record qualifies for metric computation
func (r *StrikeRecord) HasBothSides() bool {
	return r.Call != nil && r.Put != nil
}

// OptionChainSnapshot is the full payload of one fetch. It is immutable
// once fetched and lives for a single poll cycle.
type OptionChainSnapshot struct {
	Symbol          string
	UnderlyingValue float64
	Records         []StrikeRecord
	ExpiryDates     []string
	Timestamp       string
	FetchedAt       time.Time
}

// StrikeRow is one row of the dashboard table and chart: a qualifying
// strike with both open-interest figures.
type StrikeRow struct {
	StrikePrice      float64 `json:"strike_price"`
	CallOpenInterest int64   `json:"call_open_interest"`
	PutOpenInterest  int64   `json:"put_open_interest"`
}

// DerivedMetrics is the output of one successful poll cycle
type DerivedMetrics struct {
	Symbol          string      `json:"symbol"`
	UnderlyingValue float64     `json:"underlying_value"`
	ATMStrike       float64     `json:"atm_strike"`
	PutCallRatio    float64     `json:"put_call_ratio"`
	Window          []StrikeRow `json:"window"`
	FetchedAt       time.Time   `json:"fetched_at"`
}

// ChainDataService defines the interface for option-chain market data
type ChainDataService interface {
	FetchOptionChain(ctx context.Context, symbol string) (*OptionChainSnapshot, error)
}

// PollCycleRecord is the operational record of one poll cycle
type PollCycleRecord struct {
	Symbol          string    `json:"symbol"`
	StartedAt       time.Time `json:"started_at"`
	DurationMs      int64     `json:"duration_ms"`
	Success         bool      `json:"success"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Trigger         string    `json:"trigger"` // "timer" or "manual"
	UnderlyingValue float64   `json:"underlying_value"`
	ATMStrike       float64   `json:"atm_strike"`
	PutCallRatio    float64   `json:"put_call_ratio"`
	WindowSize      int       `json:"window_size"`
}

// CycleStore persists poll-cycle outcomes for the activity endpoints
type CycleStore interface {
	SavePollCycle(record *PollCycleRecord) error
	ListRecentCycles(limit int) ([]*PollCycleRecord, error)
	CycleStats() (*CycleStats, error)
}

// CycleStats summarizes stored poll cycles
type CycleStats struct {
	TotalCycles   int64      `json:"total_cycles"`
	FailedCycles  int64      `json:"failed_cycles"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
}
