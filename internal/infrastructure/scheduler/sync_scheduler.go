// Package scheduler drives the periodic synchronization passes against the
// marketplace.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appamazon "github.com/erp/amazon-connector/internal/application/amazon"
	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// PollInterval is how often a full sync cycle runs.
	PollInterval time.Duration
	// PassTimeout bounds one backend's cycle; a hung marketplace call must
	// not stall the next backend past the interval.
	PassTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns default sync scheduler configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		PollInterval: 30 * time.Minute,
		PassTimeout:  25 * time.Minute,
	}
}

// SyncScheduler runs the three sync stages for every backend on a fixed
// interval: report polling, attachment processing, FBA order polling. The
// backends of one cycle run sequentially; the stages of one backend are
// ordered so freshly downloaded reports are processed in the same cycle.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	backends amazon.BackendRepository
	reports  *appamazon.ReportImportService
	sales    *appamazon.SaleImportService
	fba      *appamazon.FBAImportService
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	backends amazon.BackendRepository,
	reports *appamazon.ReportImportService,
	sales *appamazon.SaleImportService,
	fba *appamazon.FBAImportService,
	logger *zap.Logger,
) *SyncScheduler {
	return &SyncScheduler{
		config:   config,
		backends: backends,
		reports:  reports,
		sales:    sales,
		fba:      fba,
		logger:   logger,
	}
}

// Start starts the scheduler loop. The first cycle runs immediately.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Duration("pass_timeout", s.config.PassTimeout),
	)
	return nil
}

// Stop stops the scheduler and waits for an in-flight cycle to finish
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop runs one cycle per tick
func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle runs the three stages for every backend. A stage error aborts the
// backend's cycle but not the cycle of the other backends.
func (s *SyncScheduler) runCycle(ctx context.Context) {
	backends, err := s.backends.FindAll(ctx)
	if err != nil {
		s.logger.Error("listing backends for sync cycle", zap.Error(err))
		return
	}

	for _, backend := range backends {
		if ctx.Err() != nil {
			return
		}
		s.runBackend(ctx, backend)
	}
}

func (s *SyncScheduler) runBackend(ctx context.Context, backend amazon.Backend) {
	passCtx, cancel := context.WithTimeout(ctx, s.config.PassTimeout)
	defer cancel()

	if _, err := s.reports.ImportReports(passCtx, backend.ID); err != nil {
		s.logger.Error("report polling failed",
			zap.String("backend", backend.Name), zap.Error(err))
		return
	}
	if _, err := s.sales.ProcessPendingReports(passCtx, backend.ID); err != nil {
		s.logger.Error("attachment processing failed",
			zap.String("backend", backend.Name), zap.Error(err))
		return
	}
	if _, err := s.fba.ImportOrders(passCtx, backend.ID); err != nil {
		s.logger.Error("FBA polling failed",
			zap.String("backend", backend.Name), zap.Error(err))
	}
}
