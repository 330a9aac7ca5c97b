package jobs

import (
	"context"

	"tutorhub/config"
	sessionService "tutorhub/internal/domains/session/service"
	settlementService "tutorhub/internal/domains/settlement/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler owns the periodic sweeps: meeting backfill and charge settlement.
// Both jobs are convergent, so a missed or overlapping run is harmless.
type Scheduler struct {
	cron       *cron.Cron
	session    sessionService.Session
	settlement settlementService.Settlement
	cfg        *config.Config
}

func NewScheduler(
	session sessionService.Session,
	settlement settlementService.Settlement,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		session:    session,
		settlement: settlement,
		cfg:        cfg,
	}
}

// Start registers the configured jobs and launches the cron loop. It is a
// no-op when jobs are disabled, which keeps multi-replica deployments from
// all running sweeps when only one instance should.
func (s *Scheduler) Start() error {
	if !s.cfg.Jobs.Enable {
		log.Info().Msg("Periodic jobs are disabled")

		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Jobs.MeetingBackfill, s.runMeetingBackfill); err != nil {
		log.Error().Err(err).Str("spec", s.cfg.Jobs.MeetingBackfill).Msg("Failed to schedule meeting backfill job")

		return err // nolint:wrapcheck
	}

	if _, err := s.cron.AddFunc(s.cfg.Jobs.ChargeSettlement, s.runChargeSettlement); err != nil {
		log.Error().Err(err).Str("spec", s.cfg.Jobs.ChargeSettlement).Msg("Failed to schedule charge settlement job")

		return err // nolint:wrapcheck
	}

	s.cron.Start()

	log.Info().
		Str("meetingBackfill", s.cfg.Jobs.MeetingBackfill).
		Str("chargeSettlement", s.cfg.Jobs.ChargeSettlement).
		Msg("Periodic jobs scheduled")

	return nil
}

// Stop halts the cron loop and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Info().Msg("Periodic jobs stopped")
}

func (s *Scheduler) runMeetingBackfill() {
	res, err := s.session.RunMeetingBackfill(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Meeting backfill job failed")

		return
	}

	log.Info().
		Int("scanned", res.Scanned).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Msg("Meeting backfill job finished")
}

func (s *Scheduler) runChargeSettlement() {
	res, err := s.settlement.RunChargeSettlement(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Charge settlement job failed")

		return
	}

	log.Info().
		Int("scanned", res.Scanned).
		Int("captured", res.Captured).
		Int("declined", res.Declined).
		Int("retried", res.Retried).
		Msg("Charge settlement job finished")
}
