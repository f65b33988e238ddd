package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/storage"
	"github.com/hyperjump/studycast/pkg/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// staleMessage is the error recorded on reclaimed records.
const staleMessage = "generation abandoned: no progress before the deadline"

// Watchdog marks generating records that stopped making progress as error.
type Watchdog struct {
	store      storage.PodcastStore
	staleAfter time.Duration
	schedule   string
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	cron *cron.Cron
}

// NewWatchdog returns a Watchdog that runs on schedule (cron syntax or
// descriptors such as "@every 1m") and reclaims records idle for staleAfter.
func NewWatchdog(store storage.PodcastStore, staleAfter time.Duration, schedule string, m *metrics.Metrics, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		store:      store,
		staleAfter: staleAfter,
		schedule:   schedule,
		metrics:    m,
		logger:     utils.LoggerOrNop(logger),
		now:        time.Now,
	}
}

// Start schedules the sweep. It returns an error for an invalid schedule.
func (w *Watchdog) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() {
		if _, err := w.Sweep(context.Background()); err != nil {
			w.logger.Error("watchdog sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid watchdog schedule %q: %w", w.schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("watchdog started", zap.String("schedule", w.schedule), zap.Duration("stale_after", w.staleAfter))
	return nil
}

// Stop stops scheduling and waits for a running sweep.
func (w *Watchdog) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.cron = nil
}

// Sweep marks every stale record as error and returns how many were marked.
func (w *Watchdog) Sweep(ctx context.Context) (int, error) {
	ids, err := w.store.ListStale(ctx, w.now().Add(-w.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale podcasts: %w", err)
	}
	marked := 0
	for _, id := range ids {
		if err := w.store.UpdateStatus(ctx, id, models.StatusError, 0, staleMessage); err != nil {
			w.logger.Warn("failed to reclaim podcast", zap.String("podcast", id), zap.Error(err))
			continue
		}
		marked++
		w.logger.Info("reclaimed stale podcast", zap.String("podcast", id))
	}
	w.metrics.StaleReclaimed(marked)
	return marked, nil
}
