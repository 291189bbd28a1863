package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/flickarr/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	popularCtrl *controllers.PopularController
	refreshMins int
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(popularCtrl *controllers.PopularController, refreshMins int, logger *logrus.Logger) *Scheduler {
	if refreshMins < 1 {
		refreshMins = 30
	}
	return &Scheduler{
		cron:        cron.New(),
		popularCtrl: popularCtrl,
		refreshMins: refreshMins,
		logger:      logger,
	}
}

// Start starts the scheduler and runs an immediate warm-up refresh
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	spec := fmt.Sprintf("@every %dm", s.refreshMins)
	_, err := s.cron.AddFunc(spec, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add popular refresh job: %w", err)
	}

	s.cron.Start()

	// Warm the cache right away rather than waiting a full interval
	go s.runRefresh()

	s.logger.WithField("interval_minutes", s.refreshMins).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runRefresh() {
	s.logger.Debug("Running popular catalog refresh")
	s.popularCtrl.Refresh(context.Background())
}
