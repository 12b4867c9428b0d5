// Package retention removes checkpoints that have not been touched within
// a configured window. Viewers who abandoned content long ago do not need
// a resume point anymore.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/janovincze/mnemosyne/internal/metrics"
)

// Purger deletes checkpoints older than the cutoff and reports how many
// rows were removed. *repositories.CheckpointRepository satisfies it.
type Purger interface {
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config configures a Sweeper.
type Config struct {
	// Schedule is a cron expression for sweep timing.
	Schedule string

	// MaxAge is the retention window: checkpoints untouched for longer
	// are removed.
	MaxAge time.Duration

	// SweepTimeout bounds a single sweep. Zero selects a 5 minute default.
	SweepTimeout time.Duration
}

// Sweeper periodically purges stale checkpoints.
type Sweeper struct {
	purger  Purger
	cfg     Config
	logger  *slog.Logger
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewSweeper creates a Sweeper. Start must be called to begin sweeping.
func NewSweeper(purger Purger, cfg Config, logger *slog.Logger) (*Sweeper, error) {
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", cfg.MaxAge)
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		purger: purger,
		cfg:    cfg,
		logger: logger.With("component", "retention-sweeper"),
		cron:   cron.New(),
	}

	entryID, err := s.cron.AddFunc(cfg.Schedule, s.runScheduled)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}
	s.entryID = entryID

	return s, nil
}

// Start begins scheduled sweeping.
func (s *Sweeper) Start() {
	s.logger.Info("starting retention sweeper",
		"schedule", s.cfg.Schedule,
		"max_age", s.cfg.MaxAge,
	)
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.logger.Info("stopping retention sweeper")
	<-s.cron.Stop().Done()
}

func (s *Sweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepTimeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("retention sweep failed", "error", err)
	}
}

// Sweep purges checkpoints untouched for longer than the retention window
// and returns the number of rows removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.cfg.MaxAge)

	purged, err := s.purger.PurgeStale(ctx, cutoff)
	if err != nil {
		metrics.RetentionSweepsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to purge stale checkpoints: %w", err)
	}

	metrics.RetentionSweepsTotal.WithLabelValues("ok").Inc()
	metrics.RetentionPurgedTotal.Add(float64(purged))

	s.logger.Info("retention sweep finished",
		"purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
	)
	return purged, nil
}
