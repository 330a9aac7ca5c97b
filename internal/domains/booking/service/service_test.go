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
	bookingMocks "tutorhub/internal/domains/booking/mocks"
	"tutorhub/internal/domains/booking/model"
	"tutorhub/internal/domains/booking/model/dto"
	"tutorhub/internal/domains/booking/service"
	pricingMocks "tutorhub/internal/domains/pricing/mocks"
	pricingModel "tutorhub/internal/domains/pricing/model"
	integrationMocks "tutorhub/internal/integrations/mocks"
	cacheMocks "tutorhub/shared/cache/mocks"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	gModel "tutorhub/shared/model"
	"tutorhub/shared/timezone"
)

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRateRepo := pricingMocks.NewMockRate(ctrl)
	mockReserver := integrationMocks.NewMockSlotReserver(ctrl)
	mockNotifier := integrationMocks.NewMockNotifier(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Billing.PaidClassesEnabled = true

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockRateRepo, mockReserver, mockNotifier, cfg, mockCache, mockOtel)

	start := timezone.Now().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	validReq := dto.CreateBookingRequest{
		TutorID:       "a2a7b7f0-1111-4e7b-9e64-0d6a3c9f0001",
		SubjectID:     "a2a7b7f0-2222-4e7b-9e64-0d6a3c9f0002",
		SessionTypeID: "a2a7b7f0-3333-4e7b-9e64-0d6a3c9f0003",
		Start:         timezone.Format(start, constant.DateFormat),
		End:           timezone.Format(end, constant.DateFormat),
	}

	validRate := pricingModel.TutorSubjectRate{
		ID:            "rate-id-123",
		TutorID:       validReq.TutorID,
		SubjectID:     validReq.SubjectID,
		SessionTypeID: validReq.SessionTypeID,
		Price:         150,
		Active:        true,
	}

	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func()
		wantErr   bool
		wantCode  int
		check     func(t *testing.T, res dto.BookingResponse)
	}{
		{
			name: "successful creation stamps the pricing snapshot",
			req:  validReq,
			setupMock: func() {
				mockRateRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRate, nil)

				mockReserver.EXPECT().
					Reserve(gomock.Any(), validReq.TutorID, gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
			check: func(t *testing.T, res dto.BookingResponse) {
				assert.Equal(t, model.StatusAccepted, res.Status)
				assert.InDelta(t, 150.0, res.Price, 1e-9)
				assert.InDelta(t, 0.15, res.PlatformFeePct, 1e-9)
				assert.InDelta(t, 22.50, res.PlatformFee, 1e-9)
				assert.InDelta(t, 127.50, res.TutorPayout, 1e-9)
				assert.True(t, res.PaymentRequired)
			},
		},
		{
			name: "no published rate",
			req:  validReq,
			setupMock: func() {
				mockRateRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pricingModel.TutorSubjectRate{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "slot already taken",
			req:  validReq,
			setupMock: func() {
				mockRateRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRate, nil)

				mockReserver.EXPECT().
					Reserve(gomock.Any(), validReq.TutorID, gomock.Any(), gomock.Any(), gomock.Any()).
					Return(failure.Conflict("this time slot is no longer available"))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "insert failure releases the reserved slot",
			req:  validReq,
			setupMock: func() {
				mockRateRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRate, nil)

				mockReserver.EXPECT().
					Reserve(gomock.Any(), validReq.TutorID, gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))

				mockReserver.EXPECT().
					Release(gomock.Any(), validReq.TutorID, gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: true,
		},
		{
			name: "inverted window",
			req: dto.CreateBookingRequest{
				TutorID:       validReq.TutorID,
				SubjectID:     validReq.SubjectID,
				SessionTypeID: validReq.SessionTypeID,
				Start:         validReq.End,
				End:           validReq.Start,
			},
			setupMock: func() {
				mockRateRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRate, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "student-id-123")
			res, err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}

			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestBookingService_Create_LaunchMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRateRepo := pricingMocks.NewMockRate(ctrl)
	mockReserver := integrationMocks.NewMockSlotReserver(ctrl)
	mockNotifier := integrationMocks.NewMockNotifier(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Billing.PaidClassesEnabled = false

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockRateRepo, mockReserver, mockNotifier, cfg, mockCache, mockOtel)

	start := timezone.Now().Add(24 * time.Hour)

	mockRateRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pricingModel.TutorSubjectRate{ID: "rate-id-123", Price: 150, Active: true}, nil)

	mockReserver.EXPECT().
		Reserve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	mockRepo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(nil)

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "student-id-123")
	res, err := svc.Create(ctx, dto.CreateBookingRequest{
		TutorID:       "a2a7b7f0-1111-4e7b-9e64-0d6a3c9f0001",
		SubjectID:     "a2a7b7f0-2222-4e7b-9e64-0d6a3c9f0002",
		SessionTypeID: "a2a7b7f0-3333-4e7b-9e64-0d6a3c9f0003",
		Start:         timezone.Format(start, constant.DateFormat),
		End:           timezone.Format(start.Add(time.Hour), constant.DateFormat),
	})

	assert.NoError(t, err)
	assert.Zero(t, res.Price)
	assert.Zero(t, res.PlatformFee)
	assert.Zero(t, res.TutorPayout)
	assert.False(t, res.PaymentRequired)
}

func TestBookingService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockRateRepo := pricingMocks.NewMockRate(ctrl)
	mockReserver := integrationMocks.NewMockSlotReserver(ctrl)
	mockNotifier := integrationMocks.NewMockNotifier(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(mockRepo, mockRateRepo, mockReserver, mockNotifier, cfg, mockCache, mockOtel)

	acceptedBooking := model.BookingRequest{
		ID:             "booking-id-123",
		StudentID:      "student-id-123",
		TutorID:        "tutor-id-456",
		Status:         model.StatusAccepted,
		ScheduledStart: timezone.Now().Add(24 * time.Hour),
		ScheduledEnd:   timezone.Now().Add(25 * time.Hour),
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
		},
	}

	tests := []struct {
		name      string
		userID    string
		role      string
		setupMock func()
		wantErr   bool
		wantCode  int
	}{
		{
			name:   "student cancels an accepted booking",
			userID: "student-id-123",
			role:   constant.RoleStudent,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking, nil)

				mockRepo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)

				mockReserver.EXPECT().
					Release(gomock.Any(), acceptedBooking.TutorID, gomock.Any(), gomock.Any()).
					Return(nil)

				mockNotifier.EXPECT().
					Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(2)
			},
			wantErr: false,
		},
		{
			name:   "tutor cancels an accepted booking",
			userID: "tutor-id-456",
			role:   constant.RoleTutor,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking, nil)

				mockRepo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(1), nil)

				mockReserver.EXPECT().
					Release(gomock.Any(), acceptedBooking.TutorID, gomock.Any(), gomock.Any()).
					Return(nil)

				mockNotifier.EXPECT().
					Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(2)
			},
			wantErr: false,
		},
		{
			name:   "booking not found",
			userID: "student-id-123",
			role:   constant.RoleStudent,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.BookingRequest{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name:   "caller is neither party",
			userID: "someone-else",
			role:   constant.RoleStudent,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking, nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:   "materialized booking cannot be cancelled",
			userID: "student-id-123",
			role:   constant.RoleStudent,
			setupMock: func() {
				materialized := acceptedBooking
				materialized.Status = model.StatusSessionCreated

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(materialized, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "lost race against materialization",
			userID: "student-id-123",
			role:   constant.RoleStudent,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(acceptedBooking, nil)

				mockRepo.EXPECT().
					UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(int64(0), nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, tt.userID)
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, tt.role)

			err := svc.Cancel(ctx, acceptedBooking.ID, dto.CancelBookingRequest{Reason: "schedule conflict"})

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
