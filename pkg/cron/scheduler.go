// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pocketledger/pocketledger/pkg/storage"
)

// Scheduler manages background scheduled jobs.
type Scheduler struct {
	cron      *cron.Cron
	uploads   storage.UploadStore
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that prunes stale statement uploads.
// retention is how long an analyzed upload may sit uncommitted before it is
// removed.
func NewScheduler(uploads storage.UploadStore, retention time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		uploads:   uploads,
		retention: retention,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Upload pruning: runs hourly.
	if _, err := s.cron.AddFunc("0 * * * *", s.pruneUploads); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Duration("upload_retention", s.retention),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers upload pruning.
func (s *Scheduler) RunNow() {
	go s.pruneUploads()
}

func (s *Scheduler) pruneUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pruned, err := s.uploads.PruneOlderThan(ctx, s.retention)
	if err != nil {
		s.logger.Error("failed to prune stale uploads", slog.Any("error", err))
		return
	}
	if pruned > 0 {
		s.logger.Info("pruned stale uploads", slog.Int("count", pruned))
	}
}
