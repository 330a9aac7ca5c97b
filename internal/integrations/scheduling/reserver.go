package scheduling

//go:generate go run go.uber.org/mock/mockgen -source=./reserver.go -destination=../mocks/reserver_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"
	"tutorhub/infras/otel"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "scheduling"

	slotKeyPrefix = "slot"
)

// SlotReserver is the atomic slot-reservation primitive. It is the single point of
// truth preventing double-booking of the same tutor/window; callers never implement
// mutual exclusion over tutor calendars themselves.
type SlotReserver interface {
	Reserve(ctx context.Context, tutorID string, start, end time.Time, holder string) error
	Release(ctx context.Context, tutorID string, start, end time.Time) error
}

type redisReserver struct {
	client *redis.Client
	otel   otel.Otel
}

func NewSlotReserver(client *redis.Client, ot otel.Otel) SlotReserver {
	return &redisReserver{
		client: client,
		otel:   ot,
	}
}

func slotKey(tutorID string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", slotKeyPrefix, tutorID, start.Unix(), end.Unix())
}

// Reserve atomically claims the tutor/window pair for the given holder. The claim
// expires on its own once the window has passed.
func (r *redisReserver) Reserve(ctx context.Context, tutorID string, start, end time.Time, holder string) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Reserve")
	defer scope.End()
	defer scope.TraceIfError(err)

	ttl := time.Until(end)
	if ttl <= 0 {
		return failure.BadRequestFromString("requested window is already in the past") //nolint:wrapcheck
	}

	key := slotKey(tutorID, start, end)

	ok, err := r.client.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to reserve slot")

		return failure.Unavailable("slot reservation is temporarily unavailable") //nolint:wrapcheck
	}

	if !ok {
		return failure.Conflict("this time slot is no longer available") //nolint:wrapcheck
	}

	log.Info().
		Str("tutorID", tutorID).
		Str("start", timezone.Format(start, constant.DateFormat)).
		Msg("slot reserved")

	return nil
}

// Release frees a previously reserved window, e.g. after a cancellation.
func (r *redisReserver) Release(ctx context.Context, tutorID string, start, end time.Time) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Release")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = r.client.Del(ctx, slotKey(tutorID, start, end)).Err(); err != nil {
		log.Error().Err(err).Str("tutorID", tutorID).Msg("failed to release slot")

		return failure.Unavailable("slot release is temporarily unavailable") //nolint:wrapcheck
	}

	return nil
}
