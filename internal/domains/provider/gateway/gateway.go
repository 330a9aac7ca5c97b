package gateway

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=../mocks/gateway_mock.go -package=mocks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tutorhub/infras/otel"
	"tutorhub/internal/domains/provider/model"
	"tutorhub/internal/domains/provider/repository"
	"tutorhub/shared"
	"tutorhub/shared/cipher"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

type MeetingRequest struct {
	Topic           string
	Start           time.Time
	DurationMinutes int
}

type Meeting struct {
	Provider   string
	ExternalID string
	JoinURL    string
	CreatedAt  time.Time
}

// TokenPair is the result of an OAuth refresh against a provider.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// MeetingProvider is one concrete video conferencing backend. Implementations
// never touch stored connections, they only speak the provider's API.
type MeetingProvider interface {
	Name() string
	CreateMeeting(ctx context.Context, accessToken string, req MeetingRequest) (Meeting, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Gateway resolves a tutor's active connection, keeps its tokens fresh and
// dispatches meeting creation to the matching provider. Every caller that needs
// a meeting link goes through here.
type Gateway interface {
	CreateMeeting(ctx context.Context, tutorID string, req MeetingRequest) (Meeting, error)
}

type gatewayImpl struct {
	connRepo  repository.Connection
	cipher    cipher.Cipher
	providers map[string]MeetingProvider
	otel      otel.Otel
}

func New(connRepo repository.Connection, cipher cipher.Cipher, otel otel.Otel, providers ...MeetingProvider) Gateway {
	byName := make(map[string]MeetingProvider, len(providers))
	for _, provider := range providers {
		byName[provider.Name()] = provider
	}

	return &gatewayImpl{
		connRepo:  connRepo,
		cipher:    cipher,
		providers: byName,
		otel:      otel,
	}
}

func (g *gatewayImpl) CreateMeeting(ctx context.Context, tutorID string, req MeetingRequest) (res Meeting, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".CreateMeeting")
	defer scope.End()
	defer scope.TraceIfError(err)

	conn, err := g.connRepo.Get(ctx, shared.FilterByID(tutorID, model.FieldTutorID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get provider connection")

		return res, fmt.Errorf("failed to get provider connection: %w", err)
	}

	if conn.ID == constant.Empty {
		return res, failure.ProviderConfig("tutor has no active video provider connection") // nolint:wrapcheck
	}

	provider, ok := g.providers[conn.Provider]
	if !ok {
		return res, failure.ProviderConfig(fmt.Sprintf("unsupported video provider: %s", conn.Provider)) // nolint:wrapcheck
	}

	conn, err = g.openTokens(conn)
	if err != nil {
		return res, err
	}

	if conn.TokenExpired(timezone.Now()) {
		conn, err = g.refresh(ctx, provider, conn)
		if err != nil {
			return res, err
		}
	}

	res, err = provider.CreateMeeting(ctx, conn.AccessToken, req)
	if err != nil {
		if failure.GetCode(err) == http.StatusUnauthorized {
			g.markUnhealthy(ctx, conn)
		}

		return res, err
	}

	res.Provider = provider.Name()

	return res, nil
}

// openTokens swaps the stored ciphertext for usable credentials. Decrypted
// tokens only ever live in memory; everything persisted stays sealed.
func (g *gatewayImpl) openTokens(conn model.Connection) (model.Connection, error) {
	access, err := g.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		log.Error().Err(err).Str("tutorID", conn.TutorID).Str("provider", conn.Provider).Msg("failed to decrypt provider credentials")

		return conn, failure.ProviderConfig("stored provider credentials are unreadable, reconnect the provider") // nolint:wrapcheck
	}

	refresh, err := g.cipher.Decrypt(conn.RefreshToken)
	if err != nil {
		log.Error().Err(err).Str("tutorID", conn.TutorID).Str("provider", conn.Provider).Msg("failed to decrypt provider credentials")

		return conn, failure.ProviderConfig("stored provider credentials are unreadable, reconnect the provider") // nolint:wrapcheck
	}

	conn.AccessToken = access
	conn.RefreshToken = refresh

	return conn, nil
}

// refresh exchanges the stored refresh token for fresh credentials and persists
// them. An auth failure here means the tutor must reconnect, so the connection
// is flagged unhealthy instead of being retried.
func (g *gatewayImpl) refresh(ctx context.Context, provider MeetingProvider, conn model.Connection) (model.Connection, error) {
	pair, err := provider.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		log.Error().Err(err).Str("tutorID", conn.TutorID).Str("provider", conn.Provider).Msg("failed to refresh provider token")

		if failure.GetCode(err) == http.StatusUnauthorized {
			g.markUnhealthy(ctx, conn)
		}

		return conn, err
	}

	sealedAccess, err := g.cipher.Encrypt(pair.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to encrypt refreshed provider tokens")

		return conn, fmt.Errorf("failed to encrypt refreshed provider tokens: %w", err)
	}

	mod := map[string]any{
		model.FieldAccessToken:    sealedAccess,
		model.FieldTokenExpiresAt: pair.ExpiresAt,
		model.FieldHealthy:        true,
		constant.FieldModifiedAt:  timezone.Now(),
	}

	if pair.RefreshToken != constant.Empty {
		sealedRefresh, err := g.cipher.Encrypt(pair.RefreshToken)
		if err != nil {
			log.Error().Err(err).Msg("failed to encrypt refreshed provider tokens")

			return conn, fmt.Errorf("failed to encrypt refreshed provider tokens: %w", err)
		}

		mod[model.FieldRefreshToken] = sealedRefresh
	}

	if err := g.connRepo.Update(ctx, mod, shared.FilterByID(conn.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to persist refreshed provider tokens")

		return conn, fmt.Errorf("failed to persist refreshed provider tokens: %w", err)
	}

	conn.AccessToken = pair.AccessToken
	conn.TokenExpiresAt = pair.ExpiresAt
	if pair.RefreshToken != constant.Empty {
		conn.RefreshToken = pair.RefreshToken
	}

	return conn, nil
}

func (g *gatewayImpl) markUnhealthy(ctx context.Context, conn model.Connection) {
	mod := map[string]any{
		model.FieldHealthy:       false,
		constant.FieldModifiedAt: timezone.Now(),
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: conn.ID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	if err := g.connRepo.Update(ctx, mod, filter); err != nil {
		log.Error().Err(err).Str("connectionID", conn.ID).Msg("failed to mark provider connection unhealthy")
	}
}
