package service

import (
	"context"
	"fmt"
	"time"

	"tutorhub/config"
	"tutorhub/infras/otel"
	"tutorhub/internal/domains/provider/gateway"
	"tutorhub/internal/domains/provider/model"
	"tutorhub/internal/domains/provider/model/dto"
	"tutorhub/internal/domains/provider/repository"
	sessionModel "tutorhub/internal/domains/session/model"
	sessionRepo "tutorhub/internal/domains/session/repository"
	"tutorhub/shared"
	"tutorhub/shared/cipher"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

type Provider interface {
	Connect(ctx context.Context, req dto.ConnectProviderRequest) (dto.ConnectProviderResponse, error)
	Migrate(ctx context.Context, tutorID string) (dto.MigrationResult, error)
	GetConnection(ctx context.Context, tutorID string) (dto.ConnectionResponse, error)
}

type serviceImpl struct {
	connRepo    repository.Connection
	sessionRepo sessionRepo.Session
	gateway     gateway.Gateway
	cipher      cipher.Cipher
	cfg         *config.Config
	otel        otel.Otel
}

func New(
	connRepo repository.Connection,
	sessionRepo sessionRepo.Session,
	gw gateway.Gateway,
	ciph cipher.Cipher,
	cfg *config.Config,
	otel otel.Otel,
) Provider {
	return &serviceImpl{
		connRepo:    connRepo,
		sessionRepo: sessionRepo,
		gateway:     gw,
		cipher:      ciph,
		cfg:         cfg,
		otel:        otel,
	}
}

// Connect replaces the tutor's provider connection wholesale. Tokens are
// sealed before they touch the database, and the swap is a single upsert on
// the tutor's row, so a failed replace leaves the previous connection intact.
// Switching to a different provider also re-points every future scheduled
// session at the new provider; past and in-flight sessions keep their links.
func (s *serviceImpl) Connect(ctx context.Context, req dto.ConnectProviderRequest) (res dto.ConnectProviderResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Connect")
	defer scope.End()
	defer scope.TraceIfError(err)

	tutorID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	conn, err := req.ToModel(tutorID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse provider connection request")

		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	current, err := s.connRepo.Get(ctx, shared.FilterByID(tutorID, model.FieldTutorID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get current provider connection")

		return res, fmt.Errorf("failed to get current provider connection: %w", err)
	}

	sealed, err := s.sealTokens(conn)
	if err != nil {
		log.Error().Err(err).Msg("failed to encrypt provider credentials")

		return res, fmt.Errorf("failed to encrypt provider credentials: %w", err)
	}

	if err = s.connRepo.Upsert(ctx, sealed, model.FieldTutorID); err != nil {
		log.Error().Err(err).Msg("failed to store provider connection")

		return res, fmt.Errorf("failed to store provider connection: %w", err)
	}

	res.Connection.FromModel(conn)

	if current.ID != constant.Empty && current.Provider != conn.Provider {
		migration, err := s.Migrate(ctx, tutorID)
		if err != nil {
			log.Error().Err(err).Str("tutorID", tutorID).Msg("provider migration failed to run")
		} else {
			res.Migration = &migration
		}
	}

	return res, nil
}

// sealTokens returns a copy of the connection with both OAuth tokens
// encrypted. Only sealed connections may be handed to the repository.
func (s *serviceImpl) sealTokens(conn model.Connection) (model.Connection, error) {
	access, err := s.cipher.Encrypt(conn.AccessToken)
	if err != nil {
		return conn, err // nolint:wrapcheck
	}

	refresh, err := s.cipher.Encrypt(conn.RefreshToken)
	if err != nil {
		return conn, err // nolint:wrapcheck
	}

	conn.AccessToken = access
	conn.RefreshToken = refresh

	return conn, nil
}

// Migrate re-creates meeting links for the tutor's future scheduled sessions
// under the currently active provider. Each session is handled independently;
// a failure keeps the old link so students are never left without one.
func (s *serviceImpl) Migrate(ctx context.Context, tutorID string) (res dto.MigrationResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Migrate")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: sessionModel.FieldTutorID, Value: tutorID, Operator: gDto.FilterOperatorEq, Table: sessionModel.TableName},
			gDto.Filter{Field: sessionModel.FieldStatus, Value: sessionModel.StatusScheduled, Operator: gDto.FilterOperatorEq, Table: sessionModel.TableName},
			gDto.Filter{Field: sessionModel.FieldScheduledStart, Value: timezone.Now(), Operator: gDto.FilterOperatorGreaterEq, Table: sessionModel.TableName},
		},
	}

	params := gDto.QueryParams{
		SortBy:  sessionModel.FieldScheduledStart,
		SortDir: gDto.SortDirAsc,
	}

	sessions, err := s.sessionRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions for migration")

		return res, fmt.Errorf("failed to list sessions for migration: %w", err)
	}

	for _, session := range sessions {
		if err := s.migrateSession(ctx, session); err != nil {
			log.Warn().Err(err).Str("sessionID", session.ID).Msg("failed to migrate session meeting")

			res.FailedCount++
			res.Errors = append(res.Errors, dto.MigrationError{SessionID: session.ID, Reason: err.Error()})

			continue
		}

		res.MigratedCount++
	}

	res.Success = res.FailedCount == 0

	log.Info().
		Str("tutorID", tutorID).
		Int("migrated", res.MigratedCount).
		Int("failed", res.FailedCount).
		Msg("provider migration finished")

	return res, nil
}

func (s *serviceImpl) migrateSession(ctx context.Context, session sessionModel.Session) error {
	meeting, err := s.gateway.CreateMeeting(ctx, session.TutorID, gateway.MeetingRequest{
		Topic:           fmt.Sprintf("Tutoring session %s", session.ID),
		Start:           session.ScheduledStart,
		DurationMinutes: int(session.ScheduledEnd.Sub(session.ScheduledStart) / time.Minute),
	})
	if err != nil {
		return err // nolint:wrapcheck
	}

	mod := map[string]any{
		sessionModel.FieldProvider:          meeting.Provider,
		sessionModel.FieldMeetingExternalID: meeting.ExternalID,
		sessionModel.FieldJoinURL:           meeting.JoinURL,
		sessionModel.FieldMeetingCreatedAt:  meeting.CreatedAt,
		constant.FieldModifiedAt:            timezone.Now(),
	}

	if err := s.sessionRepo.Update(ctx, mod, shared.FilterByID(session.ID, sessionModel.FieldID, sessionModel.TableName)); err != nil {
		return fmt.Errorf("failed to persist migrated meeting: %w", err)
	}

	return nil
}

func (s *serviceImpl) GetConnection(ctx context.Context, tutorID string) (res dto.ConnectionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetConnection")
	defer scope.End()
	defer scope.TraceIfError(nil)

	conn, err := s.connRepo.Get(ctx, shared.FilterByID(tutorID, model.FieldTutorID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get provider connection")

		return res, fmt.Errorf("failed to get provider connection: %w", err)
	}

	if conn.ID == constant.Empty {
		return res, failure.NotFound("provider connection not found") // nolint:wrapcheck
	}

	res.FromModel(conn)

	return res, nil
}
