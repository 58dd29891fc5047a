package scheduler

import (
	"context"

	"github.com/postmystyle/ugc-monitor/internal/config"
	"github.com/postmystyle/ugc-monitor/internal/instagram"
	"github.com/postmystyle/ugc-monitor/internal/monitoring"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service handles scheduling of monitoring and maintenance tasks
type Service struct {
	config            *config.Config
	monitoringService *monitoring.Service
	tokenRefresher    *instagram.TokenRefresher
	cron              *cron.Cron
}

// NewService creates a new scheduler service. tokenRefresher may be nil when
// app credentials are not configured.
func NewService(cfg *config.Config, monitoringService *monitoring.Service, tokenRefresher *instagram.TokenRefresher) *Service {
	return &Service{
		config:            cfg,
		monitoringService: monitoringService,
		tokenRefresher:    tokenRefresher,
		cron:              cron.New(cron.WithSeconds()),
	}
}

// Start registers the scheduled jobs and begins the cron loop.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.MonitorSchedule, func() {
		logrus.Info("Starting scheduled monitoring run")
		report := s.monitoringService.Run(context.Background())
		if !report.Success {
			logrus.Errorf("Scheduled monitoring run failed with %d errors", len(report.Errors))
		}
	})
	if err != nil {
		return err
	}

	if s.tokenRefresher != nil && s.tokenRefresher.Enabled() {
		_, err = s.cron.AddFunc(s.config.TokenRefreshSchedule, func() {
			logrus.Info("Starting scheduled token refresh check")
			if _, err := s.tokenRefresher.RefreshIfNeeded(context.Background()); err != nil {
				logrus.Errorf("Token refresh check failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with monitoring schedule %q", s.config.MonitorSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
