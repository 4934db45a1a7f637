package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/metrics"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
)

// LoopState is persisted between runs so cycle numbering survives restarts.
type LoopState struct {
	Cycle     int64     `json:"cycle"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateLoop re-screens every tracked symbol on every configured timeframe
// at a fixed interval.
type UpdateLoop struct {
	screener *Screener

	// store persists the loop state across restarts. Optional.
	store service.Store

	cron    *cron.Cron
	mu      sync.Mutex
	symbols []string
	cycle   int64
}

func NewUpdateLoop(screener *Screener, store service.Store) *UpdateLoop {
	return &UpdateLoop{
		screener: screener,
		store:    store,
	}
}

// Run discovers the symbol universe, prefetches volumes, screens everything
// once and then keeps re-screening on the configured interval until the
// context is canceled.
func (l *UpdateLoop) Run(ctx context.Context) error {
	symbols, err := l.screener.ListSymbols(ctx)
	if err != nil {
		return err
	}

	l.symbols = symbols

	if err := l.screener.PrefetchVolumes(ctx, symbols); err != nil {
		// stale or missing volumes only affect result ordering
		log.WithError(err).Warn("volume prefetch failed")
	}

	l.restoreState()

	l.runCycle(ctx)

	interval := l.screener.Config.Screener.UpdateInterval.Duration()
	l.cron = cron.New()
	l.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		l.runCycle(ctx)
	})
	l.cron.Start()
	defer l.cron.Stop()

	log.Infof("update loop started, interval %s", interval)
	<-ctx.Done()
	log.Info("update loop stopped")
	return nil
}

func (l *UpdateLoop) runCycle(ctx context.Context) {
	if !l.mu.TryLock() {
		log.Warn("previous cycle still running, skipping this tick")
		return
	}
	defer l.mu.Unlock()

	l.cycle++

	timeframes := l.screener.Config.Screener.Timeframes
	log.Infof("cycle #%d: %d symbols on %d timeframes", l.cycle, len(l.symbols), len(timeframes))

	start := time.Now()
	updated, failed := 0, 0

	for _, symbol := range l.symbols {
		for _, interval := range timeframes {
			if ctx.Err() != nil {
				log.Infof("cycle #%d interrupted", l.cycle)
				return
			}

			report, err := l.screener.ScreenSymbol(ctx, symbol, interval)
			if err != nil {
				failed++
				log.WithError(err).Warnf("updating %s %s failed", symbol, interval)
				continue
			}

			if report.Persisted {
				updated++
			}
		}
	}

	elapsed := time.Since(start)
	metrics.ScreenerCyclesTotalMetrics.Inc()
	metrics.ScreenerLastCycleDurationMetrics.Set(elapsed.Seconds())

	log.Infof("cycle #%d done in %s: %d readings updated, %d errors",
		l.cycle, elapsed.Round(time.Second), updated, failed)

	l.saveState()
}

// Shutdown blocks until the running cycle finishes or the context expires.
// Call it after canceling the Run context.
func (l *UpdateLoop) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("shutdown deadline reached, a cycle may still be running")
	}
}

func (l *UpdateLoop) restoreState() {
	if l.store == nil {
		return
	}

	var state LoopState
	if err := l.store.Load(&state); err != nil {
		if !errors.Is(err, service.ErrPersistenceNotExists) {
			log.WithError(err).Warn("can not restore the loop state")
		}
		return
	}

	l.cycle = state.Cycle
	if !state.UpdatedAt.IsZero() {
		log.Infof("resuming from cycle #%d, last update at %s", state.Cycle, state.UpdatedAt.Format(time.RFC3339))
	}
}

func (l *UpdateLoop) saveState() {
	if l.store == nil {
		return
	}

	state := LoopState{
		Cycle:     l.cycle,
		UpdatedAt: time.Now().UTC(),
	}

	if err := l.store.Save(state); err != nil {
		log.WithError(err).Warn("can not save the loop state")
	}
}
