package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tutorhub/config"
	"tutorhub/infras/otel"
	bookingModel "tutorhub/internal/domains/booking/model"
	bookingRepo "tutorhub/internal/domains/booking/repository"
	"tutorhub/internal/domains/provider/gateway"
	"tutorhub/internal/domains/session/model"
	"tutorhub/internal/domains/session/model/dto"
	"tutorhub/internal/domains/session/repository"
	"tutorhub/internal/integrations/community"
	"tutorhub/internal/integrations/notifier"
	"tutorhub/shared"
	"tutorhub/shared/cache"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetSession    = "session:get"
	cacheGetAllSession = "session:gets"
	cacheCountSession  = "session:count"
)

type Session interface {
	Materialize(ctx context.Context, bookingID string) (dto.SessionResponse, error)
	RunMeetingBackfill(ctx context.Context) (dto.BackfillResult, error)
	Complete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	MarkNoShow(ctx context.Context, id string) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetSessionsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.SessionResponse, error)
}

type serviceImpl struct {
	repo        repository.Session
	bookingRepo bookingRepo.Booking
	gateway     gateway.Gateway
	pinner      community.Pinner
	notifier    notifier.Notifier
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Session,
	bookingRepo bookingRepo.Booking,
	gw gateway.Gateway,
	pinner community.Pinner,
	notif notifier.Notifier,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Session {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		gateway:     gw,
		pinner:      pinner,
		notifier:    notif,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Materialize turns an accepted booking into a scheduled session. Calling it
// again for the same booking returns the existing session unchanged; the unique
// constraint on booking_id settles concurrent calls. Meeting creation is
// best-effort, a session without a link is picked up by the backfill sweep.
func (s *serviceImpl) Materialize(ctx context.Context, bookingID string) (res dto.SessionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Materialize")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	existing, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check existing session")

		return res, fmt.Errorf("failed to check existing session: %w", err)
	}

	if existing.ID != constant.Empty {
		res.FromModel(existing)

		return res, nil
	}

	if booking.Status != bookingModel.StatusAccepted {
		return res, failure.InvalidState(fmt.Sprintf("booking in status %s cannot be materialized", booking.Status)) // nolint:wrapcheck
	}

	session := dto.NewSessionFromBooking(booking, s.cfg.Billing.Currency, s.cfg.Billing.ChargeDelayHours, user)

	if err = s.repo.Insert(ctx, session); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
			return s.existingSession(ctx, bookingID)
		}

		log.Error().Err(err).Msg("failed to create session")

		return res, fmt.Errorf("failed to create session: %w", err)
	}

	s.markBookingMaterialized(ctx, booking, user)

	// a failed meeting attach is repaired by the backfill sweep
	session, _ = s.attachMeeting(ctx, session)
	s.pinToCommunity(ctx, session)

	payload := map[string]any{"session_id": session.ID, "booking_id": bookingID, "join_url": session.JoinURL.String}
	s.notifier.Notify(ctx, session.StudentID, notifier.EventSessionScheduled, payload)
	s.notifier.Notify(ctx, session.TutorID, notifier.EventSessionScheduled, payload)

	s.invalidate(ctx, session.ID)

	res.FromModel(session)

	return res, nil
}

// existingSession resolves the lost side of a concurrent materialization race.
func (s *serviceImpl) existingSession(ctx context.Context, bookingID string) (res dto.SessionResponse, err error) {
	existing, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get existing session: %w", err)
	}

	res.FromModel(existing)

	return res, nil
}

func (s *serviceImpl) markBookingMaterialized(ctx context.Context, booking bookingModel.BookingRequest, user string) {
	mod := map[string]any{
		bookingModel.FieldStatus:       bookingModel.StatusSessionCreated,
		bookingModel.FieldLastActionBy: user,
		constant.FieldModifiedAt:       timezone.Now(),
		constant.FieldModifiedBy:       user,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldID, Value: booking.ID, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{Field: bookingModel.FieldStatus, Value: bookingModel.StatusAccepted, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
		},
	}

	affected, err := s.bookingRepo.UpdateCount(ctx, mod, filter)
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to mark booking materialized")

		return
	}

	if affected == 0 {
		log.Warn().Str("bookingID", booking.ID).Msg("booking left accepted state during materialization")
	}
}

// attachMeeting requests a meeting link and persists it. The returned error
// carries the provider's actual failure so callers can report it; an auth
// failure additionally prompts the tutor to reconnect their provider.
func (s *serviceImpl) attachMeeting(ctx context.Context, session model.Session) (model.Session, error) {
	meeting, err := s.gateway.CreateMeeting(ctx, session.TutorID, gateway.MeetingRequest{
		Topic:           fmt.Sprintf("Tutoring session %s", session.ID),
		Start:           session.ScheduledStart,
		DurationMinutes: int(session.ScheduledEnd.Sub(session.ScheduledStart) / time.Minute),
	})
	if err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("failed to create meeting, leaving for backfill")

		if failure.GetCode(err) == http.StatusUnauthorized {
			s.notifier.Notify(ctx, session.TutorID, notifier.EventProviderReconnectNeeded, map[string]any{"session_id": session.ID})
		}

		return session, err // nolint:wrapcheck
	}

	if err := s.persistMeeting(ctx, session.ID, meeting); err != nil {
		log.Error().Err(err).Str("sessionID", session.ID).Msg("failed to persist meeting link")

		return session, err
	}

	session.Provider = sql.NullString{String: meeting.Provider, Valid: true}
	session.MeetingExternalID = sql.NullString{String: meeting.ExternalID, Valid: true}
	session.JoinURL = sql.NullString{String: meeting.JoinURL, Valid: true}
	session.MeetingCreatedAt = sql.NullTime{Time: meeting.CreatedAt, Valid: true}

	return session, nil
}

func (s *serviceImpl) persistMeeting(ctx context.Context, sessionID string, meeting gateway.Meeting) error {
	mod := map[string]any{
		model.FieldProvider:          meeting.Provider,
		model.FieldMeetingExternalID: meeting.ExternalID,
		model.FieldJoinURL:           meeting.JoinURL,
		model.FieldMeetingCreatedAt:  meeting.CreatedAt,
		constant.FieldModifiedAt:     timezone.Now(),
	}

	if err := s.repo.Update(ctx, mod, shared.FilterByID(sessionID, model.FieldID, model.TableName)); err != nil {
		return fmt.Errorf("failed to persist meeting: %w", err)
	}

	return nil
}

func (s *serviceImpl) pinToCommunity(ctx context.Context, session model.Session) {
	if !session.CommunityID.Valid {
		return
	}

	if err := s.pinner.Pin(ctx, session.CommunityID.String, session.ID, session.ScheduledEnd); err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Msg("failed to pin session to community")
	}
}

// RunMeetingBackfill retries meeting creation for future scheduled sessions
// that still have no join link. One failing session never aborts the sweep, so
// repeated runs converge on zero missing links while providers stay healthy.
func (s *serviceImpl) RunMeetingBackfill(ctx context.Context) (res dto.BackfillResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+".RunMeetingBackfill")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldJoinURL, Operator: gDto.FilterIsNull, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: model.StatusScheduled, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldScheduledStart, Value: timezone.Now(), Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName},
		},
	}

	params := gDto.QueryParams{
		Limit:   s.cfg.Jobs.BackfillBatchLimit,
		SortBy:  model.FieldScheduledStart,
		SortDir: gDto.SortDirAsc,
	}

	sessions, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions missing meetings")

		return res, fmt.Errorf("failed to list sessions missing meetings: %w", err)
	}

	res.Scanned = len(sessions)

	for _, session := range sessions {
		if _, attachErr := s.attachMeeting(ctx, session); attachErr != nil {
			res.Failed++
			res.Errors = append(res.Errors, dto.BackfillError{
				SessionID: session.ID,
				Reason:    attachErr.Error(),
			})

			continue
		}

		res.Succeeded++
	}

	log.Info().
		Int("scanned", res.Scanned).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Msg("meeting backfill run finished")

	if res.Succeeded > 0 {
		go func() {
			c := context.WithoutCancel(ctx)

			shared.InvalidateCaches(c, s.cache, cacheGetAllSession)
			shared.InvalidateCaches(c, s.cache, cacheGetSession)
		}()
	}

	return res, nil
}

func (s *serviceImpl) Complete(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusCompleted)
}

func (s *serviceImpl) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusCancelled)
}

func (s *serviceImpl) MarkNoShow(ctx context.Context, id string) error {
	return s.transition(ctx, id, model.StatusNoShow)
}

// transition moves a session out of the scheduled state. The status guard is
// repeated inside the UPDATE so two concurrent transitions cannot both win.
func (s *serviceImpl) transition(ctx context.Context, id, to string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	session, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get session")

		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.ID == constant.Empty {
		return failure.NotFound("session not found") // nolint:wrapcheck
	}

	if !model.CanTransition(session.Status, to) {
		return failure.InvalidState(fmt.Sprintf("session in status %s cannot move to %s", session.Status, to)) // nolint:wrapcheck
	}

	mod := map[string]any{
		model.FieldStatus:        to,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: model.StatusScheduled, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	affected, err := s.repo.UpdateCount(ctx, mod, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to update session status")

		return fmt.Errorf("failed to update session status: %w", err)
	}

	if affected == 0 {
		return failure.InvalidState("session already left the scheduled state") // nolint:wrapcheck
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetSession, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete session from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllSession)
		shared.InvalidateCaches(c, s.cache, cacheCountSession)
	}()
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetSessionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllSession, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for sessions")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count sessions")

		return res, fmt.Errorf("failed to count sessions: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get sessions")

		return res, fmt.Errorf("failed to get sessions: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save sessions to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountSession, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for session count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count sessions")

		return res, fmt.Errorf("failed to count sessions: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save session count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.SessionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(nil)

	cacheKey := shared.BuildCacheKey(cacheGetSession, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for session")

		return res, nil
	}

	session, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get session")

		return res, fmt.Errorf("failed to get session: %w", err)
	}

	if session.ID == constant.Empty {
		return res, failure.NotFound("session not found") // nolint:wrapcheck
	}

	res.FromModel(session)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save session to cache")
		}
	}()

	return res, nil
}
