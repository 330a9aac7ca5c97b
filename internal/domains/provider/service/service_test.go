package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tutorhub/config"
	"tutorhub/infras/otel/mocks"
	"tutorhub/internal/domains/provider/gateway"
	providerMocks "tutorhub/internal/domains/provider/mocks"
	"tutorhub/internal/domains/provider/model"
	"tutorhub/internal/domains/provider/model/dto"
	"tutorhub/internal/domains/provider/service"
	sessionMocks "tutorhub/internal/domains/session/mocks"
	sessionModel "tutorhub/internal/domains/session/model"
	"tutorhub/shared/cipher"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"
)

type providerServiceMocks struct {
	connRepo    *providerMocks.MockConnection
	sessionRepo *sessionMocks.MockSession
	gateway     *providerMocks.MockGateway
	cipher      cipher.Cipher
}

func newProviderService(t *testing.T) (service.Provider, providerServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.TokenCipherKey = "unit-test-key"

	m := providerServiceMocks{
		connRepo:    providerMocks.NewMockConnection(ctrl),
		sessionRepo: sessionMocks.NewMockSession(ctrl),
		gateway:     providerMocks.NewMockGateway(ctrl),
		cipher:      cipher.New(cfg),
	}

	svc := service.New(m.connRepo, m.sessionRepo, m.gateway, m.cipher, cfg, mocks.NewOtel())

	return svc, m
}

func futureSession(id string) sessionModel.Session {
	return sessionModel.Session{
		ID:             id,
		TutorID:        "tutor-id-456",
		Status:         sessionModel.StatusScheduled,
		ScheduledStart: timezone.Now().Add(48 * time.Hour),
		ScheduledEnd:   timezone.Now().Add(49 * time.Hour),
	}
}

func TestProviderService_Connect(t *testing.T) {
	validReq := dto.ConnectProviderRequest{
		Provider:       model.ProviderMeet,
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: timezone.Format(timezone.Now().Add(time.Hour), constant.DateFormat),
	}

	zoomConnection := model.Connection{
		ID:       "conn-id-123",
		TutorID:  "tutor-id-456",
		Provider: model.ProviderZoom,
		Healthy:  true,
	}

	meeting := gateway.Meeting{
		Provider:   "meet",
		ExternalID: "spaces/abc",
		JoinURL:    "https://meet.example/abc",
		CreatedAt:  timezone.Now(),
	}

	tests := []struct {
		name      string
		req       dto.ConnectProviderRequest
		setupMock func(m providerServiceMocks)
		wantErr   bool
		wantCode  int
		check     func(t *testing.T, res dto.ConnectProviderResponse)
	}{
		{
			name: "first connection",
			req:  validReq,
			setupMock: func(m providerServiceMocks) {
				m.connRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Connection{}, nil)

				m.connRepo.EXPECT().
					Upsert(gomock.Any(), gomock.Any(), model.FieldTutorID).
					Return(nil)
			},
			check: func(t *testing.T, res dto.ConnectProviderResponse) {
				assert.Equal(t, model.ProviderMeet, res.Connection.Provider)
				assert.Nil(t, res.Migration)
			},
		},
		{
			name: "reconnecting the same provider replaces tokens without migration",
			req: dto.ConnectProviderRequest{
				Provider:       model.ProviderZoom,
				AccessToken:    "new-access-token",
				RefreshToken:   "new-refresh-token",
				TokenExpiresAt: validReq.TokenExpiresAt,
			},
			setupMock: func(m providerServiceMocks) {
				m.connRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(zoomConnection, nil)

				m.connRepo.EXPECT().
					Upsert(gomock.Any(), gomock.Any(), model.FieldTutorID).
					Return(nil)
			},
			check: func(t *testing.T, res dto.ConnectProviderResponse) {
				assert.Nil(t, res.Migration)
			},
		},
		{
			name: "failed replace keeps the previous connection",
			req:  validReq,
			setupMock: func(m providerServiceMocks) {
				m.connRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(zoomConnection, nil)

				// the swap is one statement, nothing is deleted first
				m.connRepo.EXPECT().
					Upsert(gomock.Any(), gomock.Any(), model.FieldTutorID).
					Return(errors.New("connection reset by peer"))
			},
			wantErr: true,
		},
		{
			name: "switching providers migrates future sessions",
			req:  validReq,
			setupMock: func(m providerServiceMocks) {
				m.connRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(zoomConnection, nil)

				m.connRepo.EXPECT().
					Upsert(gomock.Any(), gomock.Any(), model.FieldTutorID).
					Return(nil)

				m.sessionRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]sessionModel.Session{futureSession("session-1")}, nil)

				m.gateway.EXPECT().
					CreateMeeting(gomock.Any(), "tutor-id-456", gomock.Any()).
					Return(meeting, nil)

				m.sessionRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			check: func(t *testing.T, res dto.ConnectProviderResponse) {
				if assert.NotNil(t, res.Migration) {
					assert.True(t, res.Migration.Success)
					assert.Equal(t, 1, res.Migration.MigratedCount)
				}
			},
		},
		{
			name: "invalid token expiry",
			req: dto.ConnectProviderRequest{
				Provider:       model.ProviderMeet,
				AccessToken:    "access-token",
				RefreshToken:   "refresh-token",
				TokenExpiresAt: "not-a-timestamp",
			},
			setupMock: func(m providerServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newProviderService(t)
			tt.setupMock(m)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "tutor-id-456")
			res, err := svc.Connect(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)

			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestProviderService_Connect_SealsTokens(t *testing.T) {
	svc, m := newProviderService(t)

	var stored model.Connection

	m.connRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Connection{}, nil)

	m.connRepo.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), model.FieldTutorID).
		DoAndReturn(func(_ context.Context, conn model.Connection, _ string) error {
			stored = conn

			return nil
		})

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "tutor-id-456")
	_, err := svc.Connect(ctx, dto.ConnectProviderRequest{
		Provider:       model.ProviderMeet,
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: timezone.Format(timezone.Now().Add(time.Hour), constant.DateFormat),
	})

	assert.NoError(t, err)

	// nothing readable reaches the database
	assert.NotEqual(t, "access-token", stored.AccessToken)
	assert.NotEqual(t, "refresh-token", stored.RefreshToken)

	access, err := m.cipher.Decrypt(stored.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "access-token", access)

	refresh, err := m.cipher.Decrypt(stored.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, "refresh-token", refresh)
}

func TestProviderService_Migrate(t *testing.T) {
	meeting := gateway.Meeting{
		Provider:   "meet",
		ExternalID: "spaces/abc",
		JoinURL:    "https://meet.example/abc",
		CreatedAt:  timezone.Now(),
	}

	t.Run("partial failure keeps old links and reports each failure", func(t *testing.T) {
		svc, m := newProviderService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{futureSession("session-1"), futureSession("session-2")}, nil)

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-id-456", gomock.Any()).
			Return(meeting, nil)

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-id-456", gomock.Any()).
			Return(gateway.Meeting{}, failure.Unavailable("google meet returned status 503"))

		res, err := svc.Migrate(context.Background(), "tutor-id-456")

		assert.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, 1, res.MigratedCount)
		assert.Equal(t, 1, res.FailedCount)
		assert.Len(t, res.Errors, 1)
		assert.Equal(t, "session-2", res.Errors[0].SessionID)
	})

	t.Run("no future sessions is a successful no-op", func(t *testing.T) {
		svc, m := newProviderService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{}, nil)

		res, err := svc.Migrate(context.Background(), "tutor-id-456")

		assert.NoError(t, err)
		assert.True(t, res.Success)
		assert.Zero(t, res.MigratedCount)
	})
}
