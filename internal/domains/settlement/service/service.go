package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tutorhub/config"
	"tutorhub/infras/otel"
	sessionModel "tutorhub/internal/domains/session/model"
	sessionDto "tutorhub/internal/domains/session/model/dto"
	sessionRepo "tutorhub/internal/domains/session/repository"
	"tutorhub/internal/domains/settlement/model/dto"
	"tutorhub/internal/integrations/notifier"
	"tutorhub/internal/integrations/payment"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

// defaultClaimTimeoutMinutes bounds how long a processing claim is honored
// before a later run may take the session over.
const defaultClaimTimeoutMinutes = 15

type Settlement interface {
	RunChargeSettlement(ctx context.Context) (dto.SettlementResult, error)
	GetFailed(ctx context.Context, req gDto.QueryParams) (sessionDto.GetSessionsResponse, error)
}

type serviceImpl struct {
	sessionRepo sessionRepo.Session
	capturer    payment.Capturer
	notifier    notifier.Notifier
	cfg         *config.Config
	otel        otel.Otel
}

func New(
	sessionRepo sessionRepo.Session,
	capturer payment.Capturer,
	notif notifier.Notifier,
	cfg *config.Config,
	otel otel.Otel,
) Settlement {
	return &serviceImpl{
		sessionRepo: sessionRepo,
		capturer:    capturer,
		notifier:    notif,
		cfg:         cfg,
		otel:        otel,
	}
}

// RunChargeSettlement captures every due, uncharged session exactly once. Each
// session is first claimed with a conditional UPDATE; a claim that touches zero
// rows means another run already owns it and the session is skipped, so a
// charge can never be captured twice even with overlapping runs. A claim is a
// lease, not a tombstone: processing rows whose claim outlived the timeout are
// picked up again, so a run that died mid-charge never wedges a session.
func (s *serviceImpl) RunChargeSettlement(ctx context.Context) (res dto.SettlementResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+".RunChargeSettlement")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := s.claimCutoff()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: sessionModel.FieldPaymentRequired, Value: true, Operator: gDto.FilterOperatorEq, Table: sessionModel.TableName},
			settleableFilter(cutoff),
			gDto.Filter{Field: sessionModel.FieldChargeDueAt, Value: timezone.Now(), Operator: gDto.FilterOperatorLessEq, Table: sessionModel.TableName},
			gDto.Filter{Field: sessionModel.FieldStatus, Value: sessionModel.StatusCancelled, Operator: gDto.FilterOperatorNotEq, Table: sessionModel.TableName},
		},
	}

	params := gDto.QueryParams{
		SortBy:  sessionModel.FieldChargeDueAt,
		SortDir: gDto.SortDirAsc,
	}

	due, err := s.sessionRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions due for settlement")

		return res, fmt.Errorf("failed to list sessions due for settlement: %w", err)
	}

	res.Scanned = len(due)

	for _, session := range due {
		claimed, err := s.claim(ctx, session.ID, cutoff)
		if err != nil {
			log.Error().Err(err).Str("sessionID", session.ID).Msg("failed to claim session for settlement")

			continue
		}

		if !claimed {
			continue
		}

		s.settle(ctx, session, &res)
	}

	log.Info().
		Int("scanned", res.Scanned).
		Int("captured", res.Captured).
		Int("declined", res.Declined).
		Int("retried", res.Retried).
		Msg("charge settlement run finished")

	return res, nil
}

// claimCutoff is the instant before which a processing claim counts as
// abandoned.
func (s *serviceImpl) claimCutoff() time.Time {
	timeout := s.cfg.Jobs.SettlementClaimTimeoutMinutes
	if timeout <= 0 {
		timeout = defaultClaimTimeoutMinutes
	}

	return timezone.Now().Add(-time.Duration(timeout) * time.Minute)
}

// settleableFilter admits sessions still waiting for a charge, plus processing
// claims last touched before the cutoff. The cutoff argument carries its own
// name so it never collides with the modified_at column a claim writes.
func settleableFilter(cutoff time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorOr,
		Filters: []any{
			gDto.Filter{
				Field:    sessionModel.FieldSettlementStatus,
				Value:    []string{sessionModel.SettlementUnpaid, sessionModel.SettlementPending},
				Operator: gDto.FilterOperatorIn,
				Table:    sessionModel.TableName,
			},
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorAnd,
				Filters: []any{
					gDto.Filter{
						Field:    sessionModel.FieldSettlementStatus,
						Value:    sessionModel.SettlementProcessing,
						Operator: gDto.FilterOperatorEq,
						Table:    sessionModel.TableName,
						ArgName:  "stale_settlement_status",
					},
					gDto.Filter{
						Field:    constant.FieldModifiedAt,
						Value:    cutoff,
						Operator: gDto.FilterOperatorLessEq,
						Table:    sessionModel.TableName,
						ArgName:  "claimed_before",
					},
				},
			},
		},
	}
}

// claim atomically moves a session into processing. Zero affected rows means a
// concurrent run won the claim. The claim refreshes modified_at, which is the
// lease other runs check against the cutoff.
func (s *serviceImpl) claim(ctx context.Context, sessionID string, cutoff time.Time) (bool, error) {
	mod := map[string]any{
		sessionModel.FieldSettlementStatus: sessionModel.SettlementProcessing,
		constant.FieldModifiedAt:           timezone.Now(),
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: sessionModel.FieldID, Value: sessionID, Operator: gDto.FilterOperatorEq, Table: sessionModel.TableName},
			settleableFilter(cutoff),
		},
	}

	affected, err := s.sessionRepo.UpdateCount(ctx, mod, filter)
	if err != nil {
		return false, fmt.Errorf("failed to claim session: %w", err)
	}

	return affected > 0, nil
}

func (s *serviceImpl) settle(ctx context.Context, session sessionModel.Session, res *dto.SettlementResult) {
	err := s.capturer.Capture(ctx, session.ID, session.Price, session.Currency)

	switch {
	case err == nil:
		s.markSettlement(ctx, session.ID, sessionModel.SettlementPaid, constant.Empty)

		res.Captured++
	case payment.IsDeclined(err):
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("charge declined")

		s.markSettlement(ctx, session.ID, sessionModel.SettlementFailed, err.Error())
		s.notifier.Notify(ctx, session.StudentID, notifier.EventSettlementCaptureFailed, map[string]any{
			"session_id": session.ID,
			"reason":     err.Error(),
		})

		res.Declined++
		res.Errors = append(res.Errors, dto.SettlementError{SessionID: session.ID, Reason: err.Error()})
	case failure.IsRetriable(err):
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("charge capture unavailable, will retry")

		s.markSettlement(ctx, session.ID, sessionModel.SettlementPending, err.Error())

		res.Retried++
		res.Errors = append(res.Errors, dto.SettlementError{SessionID: session.ID, Reason: err.Error()})
	default:
		log.Error().Err(err).Str("sessionID", session.ID).Msg("unexpected capture error, will retry")

		s.markSettlement(ctx, session.ID, sessionModel.SettlementPending, err.Error())

		res.Retried++
		res.Errors = append(res.Errors, dto.SettlementError{SessionID: session.ID, Reason: err.Error()})
	}
}

func (s *serviceImpl) markSettlement(ctx context.Context, sessionID, status, reason string) {
	mod := map[string]any{
		sessionModel.FieldSettlementStatus: status,
		sessionModel.FieldSettlementReason: sql.NullString{String: reason, Valid: reason != constant.Empty},
		constant.FieldModifiedAt:           timezone.Now(),
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: sessionModel.FieldID, Value: sessionID, Operator: gDto.FilterOperatorEq, Table: sessionModel.TableName},
		},
	}

	if err := s.sessionRepo.Update(ctx, mod, filter); err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Str("status", status).Msg("failed to record settlement outcome")
	}
}

// GetFailed lists sessions whose charge was permanently declined, for operator
// follow-up.
func (s *serviceImpl) GetFailed(ctx context.Context, req gDto.QueryParams) (res sessionDto.GetSessionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetFailed")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    sessionModel.FieldSettlementStatus,
				Value:    sessionModel.SettlementFailed,
				Operator: gDto.FilterOperatorEq,
				Table:    sessionModel.TableName,
			},
		},
	}

	total, err := s.sessionRepo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count failed settlements")

		return res, fmt.Errorf("failed to count failed settlements: %w", err)
	}

	models, err := s.sessionRepo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list failed settlements")

		return res, fmt.Errorf("failed to list failed settlements: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}
