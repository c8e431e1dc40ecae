package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReapTimeout is how long a player may go unseen before being reaped
const DefaultReapTimeout = 5 * time.Minute

// DefaultReapInterval is how often the reaper runs
const DefaultReapInterval = 30 * time.Second

// Reaper periodically removes players whose heartbeat has gone stale.
// For every reaped player it invokes the onReaped callback, which the
// websocket layer uses to close the orphaned connection.
type Reaper struct {
	store    *PresenceStore
	timeout  time.Duration
	interval time.Duration
	onReaped func(username string)
	logger   *slog.Logger

	cron *cron.Cron
}

// NewReaper creates a reaper. onReaped may be nil.
func NewReaper(store *PresenceStore, timeout, interval time.Duration, onReaped func(string), logger *slog.Logger) *Reaper {
	if timeout <= 0 {
		timeout = DefaultReapTimeout
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{
		store:    store,
		timeout:  timeout,
		interval: interval,
		onReaped: onReaped,
		logger:   logger.With(slog.String("component", "reaper")),
	}
}

// Start schedules the reaper on its own goroutine
func (r *Reaper) Start() error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), r.RunOnce); err != nil {
		return fmt.Errorf("scheduling reaper: %w", err)
	}
	r.cron.Start()

	r.logger.Info("reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("timeout", r.timeout))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish
func (r *Reaper) Stop() {
	if r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("reaper stopped")
}

// RunOnce performs a single reap pass
func (r *Reaper) RunOnce() {
	reaped := r.store.ReapInactive(r.timeout)
	for _, username := range reaped {
		r.logger.Info("reaped inactive player", slog.String("username", username))
		if r.onReaped != nil {
			r.onReaped(username)
		}
	}
}
