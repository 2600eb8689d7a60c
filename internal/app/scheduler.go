package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler registers the gold price reload on gold.reload_schedule
// (standard five-field cron). An empty schedule disables it.
func (a *App) StartScheduler() error {
	spec := a.Config.Gold.ReloadSchedule
	if spec == "" {
		a.Logger.Info().Msg("Gold price reload schedule disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, a.reloadPrices); err != nil {
		return fmt.Errorf("invalid gold reload schedule %q: %w", spec, err)
	}
	c.Start()
	a.scheduler = c

	a.Logger.Info().Str("schedule", spec).Msg("Scheduler started")
	return nil
}

// StopScheduler stops the scheduler and waits for a running reload to finish.
func (a *App) StopScheduler() {
	if a.scheduler == nil {
		return
	}
	<-a.scheduler.Stop().Done()
	a.scheduler = nil
	a.Logger.Info().Msg("Scheduler stopped")
}

func (a *App) reloadPrices() {
	start := time.Now()
	if err := a.Prices.Reload(); err != nil {
		return
	}
	a.Logger.Info().
		Int("records", a.Prices.Series().Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Gold price reload: complete")
}
