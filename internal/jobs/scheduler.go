package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SessionPurger removes session rows past their refresh expiry.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
	log      zerolog.Logger
}

func NewScheduler(sessions SessionPurger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	// Expired rows are already unusable (Consume filters on expiry); the
	// purge just keeps the table from growing without bound.
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for any running job, up to five seconds.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions purged")
	}
}
