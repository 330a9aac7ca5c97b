package service

import (
	"context"
	"database/sql"
	"fmt"
	"tutorhub/config"
	"tutorhub/infras/otel"
	"tutorhub/internal/domains/booking/model"
	"tutorhub/internal/domains/booking/model/dto"
	"tutorhub/internal/domains/booking/repository"
	"tutorhub/internal/domains/pricing"
	pricingModel "tutorhub/internal/domains/pricing/model"
	pricingRepo "tutorhub/internal/domains/pricing/repository"
	"tutorhub/internal/integrations/notifier"
	"tutorhub/internal/integrations/scheduling"
	"tutorhub/shared"
	"tutorhub/shared/cache"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	rateRepo pricingRepo.Rate
	reserver scheduling.SlotReserver
	notifier notifier.Notifier
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	rateRepo pricingRepo.Rate,
	reserver scheduling.SlotReserver,
	notif notifier.Notifier,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:     repo,
		rateRepo: rateRepo,
		reserver: reserver,
		notifier: notif,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Create books a tutor for the requested window. The pricing snapshot is
// computed before anything is persisted and the slot reservation is the only
// double-booking guard, so a Conflict from the reserver aborts the whole
// operation without leftovers.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	student, _ := ctx.Value(constant.ContextKeyUserID).(string)

	rate, err := s.publishedRate(ctx, req.TutorID, req.SubjectID, req.SessionTypeID)
	if err != nil {
		return res, err
	}

	snapshot := pricing.NewSnapshot(rate.Price, s.cfg.Billing.PaidClassesEnabled)

	booking, err := req.ToModel(student, snapshot)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse booking request")

		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	if err = s.reserver.Reserve(ctx, booking.TutorID, booking.ScheduledStart, booking.ScheduledEnd, booking.ID); err != nil {
		log.Warn().Err(err).Str("tutorID", booking.TutorID).Msg("slot reservation rejected")

		return res, err
	}

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		if releaseErr := s.reserver.Release(ctx, booking.TutorID, booking.ScheduledStart, booking.ScheduledEnd); releaseErr != nil {
			log.Error().Err(releaseErr).Msg("failed to release slot after insert failure")
		}

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) publishedRate(ctx context.Context, tutorID, subjectID, sessionTypeID string) (pricingModel.TutorSubjectRate, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: pricingModel.FieldTutorID, Value: tutorID, Operator: gDto.FilterOperatorEq, Table: pricingModel.TableName},
			gDto.Filter{Field: pricingModel.FieldSubjectID, Value: subjectID, Operator: gDto.FilterOperatorEq, Table: pricingModel.TableName},
			gDto.Filter{Field: pricingModel.FieldSessionTypeID, Value: sessionTypeID, Operator: gDto.FilterOperatorEq, Table: pricingModel.TableName},
			gDto.Filter{Field: pricingModel.FieldActive, Value: true, Operator: gDto.FilterOperatorEq, Table: pricingModel.TableName},
		},
	}

	rate, err := s.rateRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get published rate")

		return rate, fmt.Errorf("failed to get published rate: %w", err)
	}

	if rate.ID == constant.Empty {
		return rate, failure.BadRequestFromString("tutor has no published rate for this subject and session type") // nolint:wrapcheck
	}

	return rate, nil
}

// Cancel moves a booking to cancelled. Only the student or the tutor on the
// booking (or an admin) may do it, and only while the booking is still in a
// cancellable state. The status guard is enforced again inside the UPDATE so a
// concurrent materialization cannot be overwritten.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if !booking.IsParty(user) && role != constant.RoleAdmin {
		return failure.Forbidden("only the student or tutor on this booking can cancel it") // nolint:wrapcheck
	}

	if !model.CanTransition(booking.Status, model.StatusCancelled) {
		return failure.InvalidState(fmt.Sprintf("booking in status %s cannot be cancelled", booking.Status)) // nolint:wrapcheck
	}

	mod := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		model.FieldLastActionBy:  user,
		model.FieldCancelReason:  sql.NullString{String: req.Reason, Valid: req.Reason != constant.Empty},
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    []string{model.StatusRequested, model.StatusAccepted},
				Operator: gDto.FilterOperatorIn,
				Table:    model.TableName,
			},
		},
	}

	affected, err := s.repo.UpdateCount(ctx, mod, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if affected == 0 {
		return failure.InvalidState("booking is no longer cancellable") // nolint:wrapcheck
	}

	if err := s.reserver.Release(ctx, booking.TutorID, booking.ScheduledStart, booking.ScheduledEnd); err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to release reserved slot")
	}

	payload := map[string]any{"booking_id": id, "cancelled_by": user, "reason": req.Reason}
	s.notifier.Notify(ctx, booking.StudentID, notifier.EventBookingCancelled, payload)
	s.notifier.Notify(ctx, booking.TutorID, notifier.EventBookingCancelled, payload)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(nil)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}
