package service_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tutorhub/config"
	"tutorhub/infras/otel/mocks"
	bookingMocks "tutorhub/internal/domains/booking/mocks"
	bookingModel "tutorhub/internal/domains/booking/model"
	"tutorhub/internal/domains/provider/gateway"
	providerMocks "tutorhub/internal/domains/provider/mocks"
	sessionMocks "tutorhub/internal/domains/session/mocks"
	"tutorhub/internal/domains/session/model"
	"tutorhub/internal/domains/session/service"
	integrationMocks "tutorhub/internal/integrations/mocks"
	cacheMocks "tutorhub/shared/cache/mocks"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"
)

type sessionServiceMocks struct {
	repo        *sessionMocks.MockSession
	bookingRepo *bookingMocks.MockBooking
	gateway     *providerMocks.MockGateway
	pinner      *integrationMocks.MockPinner
	notifier    *integrationMocks.MockNotifier
	cache       *cacheMocks.MockRedisCache
}

func newSessionService(t *testing.T, cfg *config.Config) (service.Session, sessionServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := sessionServiceMocks{
		repo:        sessionMocks.NewMockSession(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		gateway:     providerMocks.NewMockGateway(ctrl),
		pinner:      integrationMocks.NewMockPinner(ctrl),
		notifier:    integrationMocks.NewMockNotifier(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
	}

	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(m.repo, m.bookingRepo, m.gateway, m.pinner, m.notifier, cfg, m.cache, mocks.NewOtel())

	return svc, m
}

func acceptedBooking() bookingModel.BookingRequest {
	return bookingModel.BookingRequest{
		ID:              "booking-id-123",
		StudentID:       "student-id-123",
		TutorID:         "tutor-id-456",
		SubjectID:       "subject-id-789",
		Status:          bookingModel.StatusAccepted,
		ScheduledStart:  timezone.Now().Add(24 * time.Hour),
		ScheduledEnd:    timezone.Now().Add(25 * time.Hour),
		Price:           150,
		PlatformFee:     22.50,
		TutorPayout:     127.50,
		PaymentRequired: true,
	}
}

func TestSessionService_Materialize(t *testing.T) {
	cfg := &config.Config{}
	cfg.Billing.Currency = "USD"
	cfg.Billing.ChargeDelayHours = 24

	meeting := gateway.Meeting{
		Provider:   "zoom",
		ExternalID: "987654321",
		JoinURL:    "https://zoom.example/j/987654321",
		CreatedAt:  timezone.Now(),
	}

	existingSession := model.Session{
		ID:        "session-id-existing",
		BookingID: "booking-id-123",
		Status:    model.StatusScheduled,
		JoinURL:   sql.NullString{String: meeting.JoinURL, Valid: true},
	}

	tests := []struct {
		name      string
		setupMock func(m sessionServiceMocks)
		wantErr   bool
		wantCode  int
		wantID    string
	}{
		{
			name: "materializes an accepted booking with a meeting link",
			setupMock: func(m sessionServiceMocks) {
				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking(), nil)

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Session{}, nil)

				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				m.bookingRepo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)

				m.gateway.EXPECT().
					CreateMeeting(gomock.Any(), "tutor-id-456", gomock.Any()).
					Return(meeting, nil)

				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				m.notifier.EXPECT().
					Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(2)
			},
			wantErr: false,
		},
		{
			name: "repeat call returns the existing session untouched",
			setupMock: func(m sessionServiceMocks) {
				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking(), nil)

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(existingSession, nil)
			},
			wantErr: false,
			wantID:  existingSession.ID,
		},
		{
			name: "booking not found",
			setupMock: func(m sessionServiceMocks) {
				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingModel.BookingRequest{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "cancelled booking cannot be materialized",
			setupMock: func(m sessionServiceMocks) {
				cancelled := acceptedBooking()
				cancelled.Status = bookingModel.StatusCancelled

				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(cancelled, nil)

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Session{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "unique violation resolves to the winner's session",
			setupMock: func(m sessionServiceMocks) {
				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking(), nil)

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Session{}, nil)

				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeUniqueViolation)})

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(existingSession, nil)
			},
			wantErr: false,
			wantID:  existingSession.ID,
		},
		{
			name: "provider auth failure leaves the link empty and prompts reconnect",
			setupMock: func(m sessionServiceMocks) {
				m.bookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking(), nil)

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Session{}, nil)

				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				m.bookingRepo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)

				m.gateway.EXPECT().
					CreateMeeting(gomock.Any(), "tutor-id-456", gomock.Any()).
					Return(gateway.Meeting{}, failure.ProviderAuth("zoom rejected the access token"))

				// reconnect prompt for the tutor plus the two scheduling notifications
				m.notifier.EXPECT().
					Notify(gomock.Any(), "tutor-id-456", gomock.Any(), gomock.Any()).
					Times(2)

				m.notifier.EXPECT().
					Notify(gomock.Any(), "student-id-123", gomock.Any(), gomock.Any())
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newSessionService(t, cfg)
			tt.setupMock(m)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "tutor-id-456")
			res, err := svc.Materialize(ctx, "booking-id-123")

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)

			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, res.ID)
			}
		})
	}
}

func TestSessionService_RunMeetingBackfill(t *testing.T) {
	cfg := &config.Config{}
	cfg.Jobs.BackfillBatchLimit = 50

	missing := func(id, tutorID string) model.Session {
		return model.Session{
			ID:             id,
			TutorID:        tutorID,
			Status:         model.StatusScheduled,
			ScheduledStart: timezone.Now().Add(2 * time.Hour),
			ScheduledEnd:   timezone.Now().Add(3 * time.Hour),
		}
	}

	meeting := gateway.Meeting{
		Provider:   "meet",
		ExternalID: "spaces/abc",
		JoinURL:    "https://meet.example/abc",
		CreatedAt:  timezone.Now(),
	}

	t.Run("mixed run repairs what it can and reports the rest", func(t *testing.T) {
		svc, m := newSessionService(t, cfg)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Session{missing("session-1", "tutor-1"), missing("session-2", "tutor-2")}, nil)

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-1", gomock.Any()).
			Return(meeting, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-2", gomock.Any()).
			Return(gateway.Meeting{}, failure.Unavailable("zoom returned status 503"))

		res, err := svc.RunMeetingBackfill(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Scanned)
		assert.Equal(t, 1, res.Succeeded)
		assert.Equal(t, 1, res.Failed)
		assert.Len(t, res.Errors, 1)
		assert.Equal(t, "session-2", res.Errors[0].SessionID)
		assert.Equal(t, "zoom returned status 503", res.Errors[0].Reason)
	})

	t.Run("failure reasons distinguish auth errors from outages", func(t *testing.T) {
		svc, m := newSessionService(t, cfg)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Session{missing("session-1", "tutor-1"), missing("session-2", "tutor-2")}, nil)

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-1", gomock.Any()).
			Return(gateway.Meeting{}, failure.ProviderAuth("zoom rejected the access token"))

		m.notifier.EXPECT().
			Notify(gomock.Any(), "tutor-1", gomock.Any(), gomock.Any())

		m.gateway.EXPECT().
			CreateMeeting(gomock.Any(), "tutor-2", gomock.Any()).
			Return(gateway.Meeting{}, failure.Unavailable("google meet returned status 503"))

		res, err := svc.RunMeetingBackfill(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Failed)
		assert.Len(t, res.Errors, 2)
		assert.Equal(t, "zoom rejected the access token", res.Errors[0].Reason)
		assert.Equal(t, "google meet returned status 503", res.Errors[1].Reason)
	})

	t.Run("empty sweep is a no-op", func(t *testing.T) {
		svc, m := newSessionService(t, cfg)

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Session{}, nil)

		res, err := svc.RunMeetingBackfill(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, res.Scanned)
		assert.Zero(t, res.Failed)
	})
}

func TestSessionService_Transitions(t *testing.T) {
	cfg := &config.Config{}

	scheduled := model.Session{
		ID:     "session-id-123",
		Status: model.StatusScheduled,
	}

	tests := []struct {
		name      string
		run       func(svc service.Session, ctx context.Context) error
		setupMock func(m sessionServiceMocks)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "complete a scheduled session",
			run: func(svc service.Session, ctx context.Context) error {
				return svc.Complete(ctx, scheduled.ID)
			},
			setupMock: func(m sessionServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(scheduled, nil)

				m.repo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)
			},
			wantErr: false,
		},
		{
			name: "no-show a scheduled session",
			run: func(svc service.Session, ctx context.Context) error {
				return svc.MarkNoShow(ctx, scheduled.ID)
			},
			setupMock: func(m sessionServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(scheduled, nil)

				m.repo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)
			},
			wantErr: false,
		},
		{
			name: "completed session cannot be cancelled",
			run: func(svc service.Session, ctx context.Context) error {
				return svc.Cancel(ctx, scheduled.ID)
			},
			setupMock: func(m sessionServiceMocks) {
				completed := scheduled
				completed.Status = model.StatusCompleted

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(completed, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "lost transition race",
			run: func(svc service.Session, ctx context.Context) error {
				return svc.Complete(ctx, scheduled.ID)
			},
			setupMock: func(m sessionServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(scheduled, nil)

				m.repo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(0), nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "session not found",
			run: func(svc service.Session, ctx context.Context) error {
				return svc.Complete(ctx, "missing")
			},
			setupMock: func(m sessionServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Session{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newSessionService(t, cfg)
			tt.setupMock(m)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "operator-id-1")
			err := tt.run(svc, ctx)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
