package community

//go:generate go run go.uber.org/mock/mockgen -source=./pin.go -destination=../mocks/pin_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"
	"tutorhub/infras/otel"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "community"

	pinKeyPrefix = "community:pin"
)

// Pinner surfaces an upcoming session inside its community feed until the session
// ends. Pinning is best-effort; callers log and continue on failure.
type Pinner interface {
	Pin(ctx context.Context, communityID, sessionID string, expiresAt time.Time) error
}

type redisPinner struct {
	client *redis.Client
	otel   otel.Otel
}

func NewPinner(client *redis.Client, ot otel.Otel) Pinner {
	return &redisPinner{
		client: client,
		otel:   ot,
	}
}

func (p *redisPinner) Pin(ctx context.Context, communityID, sessionID string, expiresAt time.Time) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Pin")
	defer scope.End()
	defer scope.TraceIfError(err)

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return failure.BadRequestFromString("pin expiry is already in the past") //nolint:wrapcheck
	}

	key := fmt.Sprintf("%s:%s:%s", pinKeyPrefix, communityID, sessionID)

	if err = p.client.Set(ctx, key, sessionID, ttl).Err(); err != nil {
		log.Error().Err(err).Str("communityID", communityID).Str("sessionID", sessionID).Msg("failed to pin session")

		return failure.Unavailable("community pin is temporarily unavailable") //nolint:wrapcheck
	}

	return nil
}
