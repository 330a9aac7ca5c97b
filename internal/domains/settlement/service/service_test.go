package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tutorhub/config"
	"tutorhub/infras/otel/mocks"
	sessionMocks "tutorhub/internal/domains/session/mocks"
	sessionModel "tutorhub/internal/domains/session/model"
	"tutorhub/internal/domains/settlement/service"
	integrationMocks "tutorhub/internal/integrations/mocks"
	"tutorhub/internal/integrations/payment"
	gDto "tutorhub/shared/dto"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"
)

type settlementServiceMocks struct {
	sessionRepo *sessionMocks.MockSession
	capturer    *integrationMocks.MockCapturer
	notifier    *integrationMocks.MockNotifier
}

func newSettlementService(t *testing.T) (service.Settlement, settlementServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := settlementServiceMocks{
		sessionRepo: sessionMocks.NewMockSession(ctrl),
		capturer:    integrationMocks.NewMockCapturer(ctrl),
		notifier:    integrationMocks.NewMockNotifier(ctrl),
	}

	svc := service.New(m.sessionRepo, m.capturer, m.notifier, &config.Config{}, mocks.NewOtel())

	return svc, m
}

func dueSession(id string) sessionModel.Session {
	return sessionModel.Session{
		ID:               id,
		StudentID:        "student-id-123",
		TutorID:          "tutor-id-456",
		Status:           sessionModel.StatusCompleted,
		Price:            150,
		Currency:         "USD",
		PaymentRequired:  true,
		SettlementStatus: sessionModel.SettlementUnpaid,
		ChargeDueAt:      sql.NullTime{Time: timezone.Now().Add(-time.Hour), Valid: true},
	}
}

func TestSettlementService_RunChargeSettlement(t *testing.T) {
	t.Run("captures a due session exactly once", func(t *testing.T) {
		svc, m := newSettlementService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{dueSession("session-1")}, nil)

		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(1), nil)

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-1", 150.0, "USD").
			Return(nil)

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Scanned)
		assert.Equal(t, 1, res.Captured)
		assert.Zero(t, res.Declined)
		assert.Zero(t, res.Retried)
	})

	t.Run("lost claim means another run owns the charge", func(t *testing.T) {
		svc, m := newSettlementService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{dueSession("session-1")}, nil)

		// zero affected rows, no capture may happen
		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(0), nil)

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Scanned)
		assert.Zero(t, res.Captured)
	})

	t.Run("declined charge is terminal and notifies the student", func(t *testing.T) {
		svc, m := newSettlementService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{dueSession("session-1")}, nil)

		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(1), nil)

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-1", 150.0, "USD").
			Return(payment.Declined("capture declined with status 402"))

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		m.notifier.EXPECT().
			Notify(gomock.Any(), "student-id-123", gomock.Any(), gomock.Any())

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Declined)
		assert.Zero(t, res.Captured)
		assert.Len(t, res.Errors, 1)
	})

	t.Run("transient gateway outage leaves the session retriable", func(t *testing.T) {
		svc, m := newSettlementService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{dueSession("session-1")}, nil)

		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(1), nil)

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-1", 150.0, "USD").
			Return(failure.Unavailable("payment gateway unreachable"))

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Retried)
		assert.Zero(t, res.Captured)
		assert.Zero(t, res.Declined)
	})

	t.Run("stale processing claim is picked up by a later run", func(t *testing.T) {
		svc, m := newSettlementService(t)

		stale := dueSession("session-1")
		stale.SettlementStatus = sessionModel.SettlementProcessing

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{stale}, nil)

		// the claim admits abandoned processing rows via the lease cutoff
		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ map[string]any, filter gDto.FilterGroup) (int64, error) {
				where, args := filter.GetWhereClause()
				assert.Contains(t, where, ":claimed_before")
				assert.Contains(t, args, "claimed_before")
				assert.Contains(t, args, "stale_settlement_status")

				return int64(1), nil
			})

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-1", 150.0, "USD").
			Return(nil)

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Scanned)
		assert.Equal(t, 1, res.Captured)
	})

	t.Run("one bad session never aborts the sweep", func(t *testing.T) {
		svc, m := newSettlementService(t)

		m.sessionRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]sessionModel.Session{dueSession("session-1"), dueSession("session-2")}, nil)

		m.sessionRepo.EXPECT().
			UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(int64(1), nil).
			Times(2)

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-1", 150.0, "USD").
			Return(failure.Unavailable("payment gateway unreachable"))

		m.capturer.EXPECT().
			Capture(gomock.Any(), "session-2", 150.0, "USD").
			Return(nil)

		m.sessionRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			Times(2)

		res, err := svc.RunChargeSettlement(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Scanned)
		assert.Equal(t, 1, res.Captured)
		assert.Equal(t, 1, res.Retried)
	})
}

func TestSettlementService_GetFailed(t *testing.T) {
	svc, m := newSettlementService(t)

	failed := dueSession("session-1")
	failed.SettlementStatus = sessionModel.SettlementFailed
	failed.SettlementReason = sql.NullString{String: "capture declined with status 402", Valid: true}

	m.sessionRepo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(1, nil)

	m.sessionRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]sessionModel.Session{failed}, nil)

	res, err := svc.GetFailed(context.Background(), gDto.QueryParams{Page: 1, Limit: 10})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
	assert.Len(t, res.Sessions, 1)
	assert.Equal(t, sessionModel.SettlementFailed, res.Sessions[0].SettlementStatus)
}
