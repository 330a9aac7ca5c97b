package dto

import (
	"database/sql"
	"time"

	bookingModel "tutorhub/internal/domains/booking/model"
	"tutorhub/internal/domains/session/model"
	"tutorhub/shared"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	gModel "tutorhub/shared/model"
	"tutorhub/shared/timezone"

	"github.com/google/uuid"
)

// NewSessionFromBooking carries the booking's parties, window and pricing
// snapshot over to a fresh scheduled session. chargeDelayHours only applies
// when the snapshot requires payment.
func NewSessionFromBooking(booking bookingModel.BookingRequest, currency string, chargeDelayHours int, actor string) model.Session {
	chargeDueAt := sql.NullTime{}
	settlement := constant.Empty

	if booking.PaymentRequired {
		settlement = model.SettlementUnpaid
		chargeDueAt = sql.NullTime{
			Time:  booking.ScheduledEnd.Add(time.Duration(chargeDelayHours) * time.Hour),
			Valid: true,
		}
	}

	return model.Session{
		ID:               uuid.NewString(),
		BookingID:        booking.ID,
		StudentID:        booking.StudentID,
		TutorID:          booking.TutorID,
		SubjectID:        booking.SubjectID,
		CommunityID:      booking.CommunityID,
		ScheduledStart:   booking.ScheduledStart,
		ScheduledEnd:     booking.ScheduledEnd,
		Status:           model.StatusScheduled,
		Price:            booking.Price,
		PlatformFee:      booking.PlatformFee,
		TutorPayout:      booking.TutorPayout,
		Currency:         currency,
		PaymentRequired:  booking.PaymentRequired,
		SettlementStatus: settlement,
		ChargeDueAt:      chargeDueAt,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type SessionResponse struct {
	ID                string  `json:"id"`
	BookingID         string  `json:"booking_id"`
	StudentID         string  `json:"student_id"`
	TutorID           string  `json:"tutor_id"`
	SubjectID         string  `json:"subject_id"`
	CommunityID       string  `json:"community_id,omitempty"`
	ScheduledStart    string  `json:"scheduled_start"`
	ScheduledEnd      string  `json:"scheduled_end"`
	Status            string  `json:"status"`
	Provider          string  `json:"provider,omitempty"`
	MeetingExternalID string  `json:"meeting_external_id,omitempty"`
	JoinURL           string  `json:"join_url,omitempty"`
	Price             float64 `json:"price"`
	PlatformFee       float64 `json:"platform_fee"`
	TutorPayout       float64 `json:"tutor_payout"`
	Currency          string  `json:"currency,omitempty"`
	PaymentRequired   bool    `json:"payment_required"`
	SettlementStatus  string  `json:"settlement_status,omitempty"`
	SettlementReason  string  `json:"settlement_reason,omitempty"`
	ChargeDueAt       string  `json:"charge_due_at,omitempty"`
	gDto.Metadata
}

func (r *SessionResponse) FromModel(model model.Session) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.StudentID = model.StudentID
	r.TutorID = model.TutorID
	r.SubjectID = model.SubjectID
	r.CommunityID = model.CommunityID.String
	r.ScheduledStart = timezone.Format(model.ScheduledStart, constant.DateFormat)
	r.ScheduledEnd = timezone.Format(model.ScheduledEnd, constant.DateFormat)
	r.Status = model.Status
	r.Provider = model.Provider.String
	r.MeetingExternalID = model.MeetingExternalID.String
	r.JoinURL = model.JoinURL.String
	r.Price = model.Price
	r.PlatformFee = model.PlatformFee
	r.TutorPayout = model.TutorPayout
	r.Currency = model.Currency
	r.PaymentRequired = model.PaymentRequired
	r.SettlementStatus = model.SettlementStatus
	r.SettlementReason = model.SettlementReason.String

	if model.ChargeDueAt.Valid {
		r.ChargeDueAt = timezone.Format(model.ChargeDueAt.Time, constant.DateFormat)
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetSessionsResponse struct {
	Sessions  []SessionResponse `json:"sessions"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetSessionsResponse) FromModels(models []model.Session, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Sessions = make([]SessionResponse, len(models))
	for i, mod := range models {
		r.Sessions[i].FromModel(mod)
	}
}

// BackfillError records one session the sweep could not repair.
type BackfillError struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// BackfillResult is the aggregate outcome of one meeting backfill run. One bad
// session never aborts the run.
type BackfillResult struct {
	Scanned   int             `json:"scanned"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BackfillError `json:"errors,omitempty"`
}
