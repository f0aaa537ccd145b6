package scheduler

import (
	"context"
	"time"

	"panellicense/logger"
	"panellicense/models"
	"panellicense/services"
	"panellicense/utils"
)

// DefaultInterval how often license states are recounted
const DefaultInterval = 5 * time.Minute

// Gauge receives a fresh count of licenses per derived state.
type Gauge interface {
	SetLicenseCounts(models.LicenseStateCounts)
}

// Scheduler periodically recounts licenses by derived state. Expiry is never written back; the
// count only feeds the licenses gauge.
type Scheduler struct {
	counter  services.LicenseCounter
	gauge    Gauge
	interval time.Duration
	now      func() time.Time
}

func New(counter services.LicenseCounter, gauge Gauge, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		counter:  counter,
		gauge:    gauge,
		interval: interval,
		now:      utils.NowUTC,
	}
}

// Start refreshes once immediately, then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	logger.WithFields(map[string]interface{}{
		"interval": s.interval.String(),
	}).Info("Scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to refresh license counts")
	}
}

// Refresh counts licenses at the current time and publishes the result.
func (s *Scheduler) Refresh(ctx context.Context) (models.LicenseStateCounts, error) {
	counts, err := s.counter.CountByState(ctx, s.now())
	if err != nil {
		return models.LicenseStateCounts{}, err
	}
	s.gauge.SetLicenseCounts(counts)

	logger.WithFields(map[string]interface{}{
		"unactivated": counts.Unactivated,
		"active":      counts.Active,
		"grace":       counts.Grace,
		"expired":     counts.Expired,
		"suspended":   counts.Suspended,
	}).Debug("License counts refreshed")
	return counts, nil
}
