package services

import (
	"chainboard/interfaces"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minRefreshMinutes = 1
	maxRefreshMinutes = 60
)

// ErrCycleInFlight means a poll cycle is already running; overlapping
// triggers are dropped rather than queued.
var ErrCycleInFlight = errors.New("a poll cycle is already in flight")

// ChainPoller runs the fetch -> ATM -> window pipeline on a timer and on
// manual triggers, and caches the latest successful result for the
// dashboard. At most one cycle is in flight at a time.
type ChainPoller struct {
	dataService interfaces.ChainDataService
	analytics   *ChainAnalytics
	store       interfaces.CycleStore
	symbol      string
	logger      *logrus.Logger

	mu       sync.RWMutex
	latest   *interfaces.DerivedMetrics
	interval time.Duration

	inFlight   sync.Mutex
	intervalCh chan time.Duration
}

// NewChainPoller creates a new chain poller
func NewChainPoller(
	dataService interfaces.ChainDataService,
	analytics *ChainAnalytics,
	store interfaces.CycleStore,
	symbol string,
	refreshMinutes int,
) *ChainPoller {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if refreshMinutes < minRefreshMinutes {
		refreshMinutes = minRefreshMinutes
	}
	if refreshMinutes > maxRefreshMinutes {
		refreshMinutes = maxRefreshMinutes
	}

	return &ChainPoller{
		dataService: dataService,
		analytics:   analytics,
		store:       store,
		symbol:      symbol,
		logger:      logger,
		interval:    time.Duration(refreshMinutes) * time.Minute,
		intervalCh:  make(chan time.Duration, 1),
	}
}

// Start runs the polling loop until ctx is cancelled. One cycle runs
// immediately so the dashboard has data without waiting a full interval.
func (p *ChainPoller) Start(ctx context.Context) {
	p.logger.WithField("interval", p.Interval()).Info("Chain polling started")

	if _, err := p.RunCycle(ctx, "timer"); err != nil {
		p.logger.WithError(err).Warn("Initial poll cycle failed")
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Chain polling stopped")
			return
		case interval := <-p.intervalCh:
			ticker.Reset(interval)
			p.logger.WithField("interval", interval).Info("Refresh interval updated")
		case <-ticker.C:
			if _, err := p.RunCycle(ctx, "timer"); err != nil {
				p.logger.WithError(err).Warn("Poll cycle failed")
			}
		}
	}
}

// RunCycle executes one fetch-compute cycle. If a cycle is already in
// flight the trigger is dropped and ErrCycleInFlight returned. On failure
// the previously cached result is left untouched.
func (p *ChainPoller) RunCycle(ctx context.Context, trigger string) (*interfaces.DerivedMetrics, error) {
	if !p.inFlight.TryLock() {
		p.logger.WithField("trigger", trigger).Warn("Dropping overlapping poll trigger")
		return nil, ErrCycleInFlight
	}
	defer p.inFlight.Unlock()

	record := &interfaces.PollCycleRecord{
		Symbol:    p.symbol,
		StartedAt: time.Now(),
		Trigger:   trigger,
	}

	metrics, err := p.runPipeline(ctx)

	record.DurationMs = time.Since(record.StartedAt).Milliseconds()
	if err != nil {
		record.ErrorMessage = err.Error()
	} else {
		record.Success = true
		record.UnderlyingValue = metrics.UnderlyingValue
		record.ATMStrike = metrics.ATMStrike
		record.PutCallRatio = metrics.PutCallRatio
		record.WindowSize = len(metrics.Window)
	}

	if storeErr := p.store.SavePollCycle(record); storeErr != nil {
		p.logger.WithError(storeErr).Error("Failed to save poll cycle record")
	}

	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.latest = metrics
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"symbol":     p.symbol,
		"trigger":    trigger,
		"atm_strike": metrics.ATMStrike,
		"pcr":        metrics.PutCallRatio,
		"window":     len(metrics.Window),
	}).Info("Poll cycle completed")

	return metrics, nil
}

// runPipeline is the cycle body: fetch, ATM strike, window and ratio.
// Everything it allocates is cycle-local.
func (p *ChainPoller) runPipeline(ctx context.Context) (*interfaces.DerivedMetrics, error) {
	snapshot, err := p.dataService.FetchOptionChain(ctx, p.symbol)
	if err != nil {
		return nil, err
	}

	atm, err := p.analytics.ComputeATMStrike(snapshot)
	if err != nil {
		return nil, err
	}

	window, err := p.analytics.ComputeStrikeWindow(snapshot, atm.ATMStrike)
	if err != nil {
		return nil, err
	}

	return &interfaces.DerivedMetrics{
		Symbol:          p.symbol,
		UnderlyingValue: atm.UnderlyingValue,
		ATMStrike:       atm.ATMStrike,
		PutCallRatio:    window.PutCallRatio,
		Window:          window.Window,
		FetchedAt:       snapshot.FetchedAt,
	}, nil
}

// Latest returns the most recent successful cycle's metrics, or nil if no
// cycle has succeeded yet.
func (p *ChainPoller) Latest() *interfaces.DerivedMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Interval returns the current refresh interval
func (p *ChainPoller) Interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// SetInterval updates the refresh interval in minutes, bounded 1-60.
// The running ticker picks the change up on its next select.
func (p *ChainPoller) SetInterval(minutes int) error {
	if minutes < minRefreshMinutes || minutes > maxRefreshMinutes {
		return fmt.Errorf("refresh interval must be between %d and %d minutes", minRefreshMinutes, maxRefreshMinutes)
	}

	interval := time.Duration(minutes) * time.Minute

	p.mu.Lock()
	p.interval = interval
	p.mu.Unlock()

	// drain a pending update so the latest value wins
	select {
	case <-p.intervalCh:
	default:
	}
	p.intervalCh <- interval

	return nil
}
