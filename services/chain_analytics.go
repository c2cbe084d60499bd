package services

import (
	"chainboard/interfaces"
	"errors"
	"math"
	"sort"
)

// windowReach is how many strikes are taken on each side of the selected
// strike, giving at most 2*windowReach+1 rows.
const windowReach = 10

var (
	// ErrEmptyStrikeSet means no record in the snapshot carries both sides
	ErrEmptyStrikeSet = errors.New("no strike has both call and put sides")

	// ErrStrikeNotFound means the selected strike is absent from the
	// qualifying set; it can only happen when the caller mixes snapshots
	ErrStrikeNotFound = errors.New("selected strike not found in option chain")
)

// ChainAnalytics derives dashboard metrics from an option-chain snapshot.
// All methods are pure: same snapshot in, same metrics out.
type ChainAnalytics struct{}

// NewChainAnalytics creates a new chain analytics service
func NewChainAnalytics() *ChainAnalytics {
	return &ChainAnalytics{}
}

// ATMResult contains the at-the-money strike computation output
type ATMResult struct {
	ATMStrike       float64   `json:"atm_strike"`
	UnderlyingValue float64   `json:"underlying_value"`
	Strikes         []float64 `json:"strikes"`
}

// WindowResult contains the global put-call ratio and the strike window
type WindowResult struct {
	PutCallRatio float64                `json:"put_call_ratio"`
	Window       []interfaces.StrikeRow `json:"window"`
}

// ComputeATMStrike finds the strike closest to the underlying value among
// records that carry both sides. Ties go to the first minimum encountered
// in the snapshot's record order; the scan is deliberately not sorted
// first, so input order decides ties.
func (a *ChainAnalytics) ComputeATMStrike(snapshot *interfaces.OptionChainSnapshot) (*ATMResult, error) {
	strikes := make([]float64, 0, len(snapshot.Records))
	for i := range snapshot.Records {
		if snapshot.Records[i].HasBothSides() {
			strikes = append(strikes, snapshot.Records[i].StrikePrice)
		}
	}
	if len(strikes) == 0 {
		return nil, ErrEmptyStrikeSet
	}

	atm := strikes[0]
	best := math.Abs(atm - snapshot.UnderlyingValue)
	for _, strike := range strikes[1:] {
		if d := math.Abs(strike - snapshot.UnderlyingValue); d < best {
			atm = strike
			best = d
		}
	}

	return &ATMResult{
		ATMStrike:       atm,
		UnderlyingValue: snapshot.UnderlyingValue,
		Strikes:         strikes,
	}, nil
}

// ComputeStrikeWindow builds one row per qualifying strike, accumulates the
// put-call ratio over ALL qualifying rows, and returns the rows within
// windowReach strikes of selectedStrike in ascending strike order. The
// ratio is global; it is never recomputed over the window alone.
//
// selectedStrike must come from ComputeATMStrike on the same snapshot.
func (a *ChainAnalytics) ComputeStrikeWindow(snapshot *interfaces.OptionChainSnapshot, selectedStrike float64) (*WindowResult, error) {
	rows := make([]interfaces.StrikeRow, 0, len(snapshot.Records))
	var totalCalls, totalPuts int64
	for i := range snapshot.Records {
		rec := &snapshot.Records[i]
		if !rec.HasBothSides() {
			continue
		}
		rows = append(rows, interfaces.StrikeRow{
			StrikePrice:      rec.StrikePrice,
			CallOpenInterest: rec.Call.OpenInterest,
			PutOpenInterest:  rec.Put.OpenInterest,
		})
		totalCalls += rec.Call.OpenInterest
		totalPuts += rec.Put.OpenInterest
	}

	pcr := 0.0
	if totalCalls != 0 {
		pcr = float64(totalPuts) / float64(totalCalls)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].StrikePrice < rows[j].StrikePrice })

	selected := -1
	for i := range rows {
		if rows[i].StrikePrice == selectedStrike {
			selected = i
			break
		}
	}
	if selected < 0 {
		return nil, ErrStrikeNotFound
	}

	lo := selected - windowReach
	if lo < 0 {
		lo = 0
	}
	hi := selected + windowReach + 1
	if hi > len(rows) {
		hi = len(rows)
	}

	return &WindowResult{
		PutCallRatio: pcr,
		Window:       rows[lo:hi],
	}, nil
}
