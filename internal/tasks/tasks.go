package tasks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/shared"
)

// stagingPrefix matches the temp directories created during zip extraction.
const stagingPrefix = "batch-"

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	// BatchesDiscarded counts expired previews dropped from the batch store.
	BatchesDiscarded int
	// DirsRemoved lists orphaned staging directories deleted from disk.
	DirsRemoved []string
	// Errors pairs paths with removal failures. Failures are logged and do
	// not stop the pass.
	Errors []SweepError
}

// SweepError pairs a staging path with its removal error.
type SweepError struct {
	Path  string
	Error error
}

// Sweeper runs the periodic maintenance pass.
type Sweeper struct {
	store      *batch.Store
	stagingDir string
	maxAge     time.Duration
	interval   time.Duration
	logger     *log.Logger
}

// NewSweeper creates a Sweeper over the given batch store and staging
// directory. maxAge bounds how long an on-disk staging directory may outlive
// its batch; interval is the period between passes.
func NewSweeper(store *batch.Store, stagingDir string, maxAge, interval time.Duration, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Sweeper{
		store:      store,
		stagingDir: stagingDir,
		maxAge:     maxAge,
		interval:   interval,
		logger:     logger,
	}
}

// Run executes RunOnce on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("maintenance sweeper started",
		"interval", s.interval, "staging_dir", s.stagingDir)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce discards expired batches and removes stale staging directories.
func (s *Sweeper) RunOnce() SweepReport {
	report := SweepReport{}

	if s.store != nil {
		report.BatchesDiscarded = s.store.Sweep()
	}

	s.cleanStaleStaging(&report)

	if len(report.DirsRemoved) > 0 || report.BatchesDiscarded > 0 {
		s.logger.Info("maintenance pass complete",
			"batches_discarded", report.BatchesDiscarded,
			"dirs_removed", len(report.DirsRemoved))
	}

	return report
}

// cleanStaleStaging removes extraction directories older than maxAge. Expired
// batches normally take their staging with them; this catches directories
// orphaned by a crash or restart.
func (s *Sweeper) cleanStaleStaging(report *SweepReport) {
	if s.stagingDir == "" {
		return
	}

	entries, err := os.ReadDir(s.stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			report.Errors = append(report.Errors, SweepError{Path: s.stagingDir, Error: err})
			s.logger.Warn("failed to read staging directory", "path", s.stagingDir, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-s.maxAge)

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), stagingPrefix) {
			continue
		}

		path := filepath.Join(s.stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			report.Errors = append(report.Errors, SweepError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			report.Errors = append(report.Errors, SweepError{Path: path, Error: err})
			s.logger.Warn("failed to remove stale staging directory", "path", path, "error", err)
			continue
		}

		report.DirsRemoved = append(report.DirsRemoved, path)
		s.logger.Info("removed stale staging directory",
			"path", path, "age", time.Since(info.ModTime()).Round(time.Second))
	}
}
