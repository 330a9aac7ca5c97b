package dto

import (
	"database/sql"
	"fmt"
	"time"

	"tutorhub/internal/domains/booking/model"
	"tutorhub/internal/domains/pricing"
	"tutorhub/shared"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	gModel "tutorhub/shared/model"
	"tutorhub/shared/timezone"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	TutorID       string `json:"tutor_id"        validate:"required,uuid4"`
	SubjectID     string `json:"subject_id"      validate:"required,uuid4"`
	SessionTypeID string `json:"session_type_id" validate:"required,uuid4"`
	Start         string `json:"start"           validate:"required"`
	End           string `json:"end"             validate:"required"`
	CommunityID   string `json:"community_id"    validate:"omitempty,uuid4"`
	Notes         string `json:"notes"           validate:"omitempty,max=500"`
}

// ToModel builds the booking with its pricing snapshot stamped in. The returned
// error covers malformed or inverted windows only; pricing never fails.
func (c *CreateBookingRequest) ToModel(studentID string, snapshot pricing.Snapshot) (model.BookingRequest, error) {
	start, err := timezone.Parse(constant.DateFormat, c.Start)
	if err != nil {
		return model.BookingRequest{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := timezone.Parse(constant.DateFormat, c.End)
	if err != nil {
		return model.BookingRequest{}, fmt.Errorf("invalid end time: %w", err)
	}

	if !end.After(start) {
		return model.BookingRequest{}, fmt.Errorf("end time must be after start time")
	}

	communityID := sql.NullString{}
	if c.CommunityID != constant.Empty {
		communityID = sql.NullString{String: c.CommunityID, Valid: true}
	}

	return model.BookingRequest{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		TutorID:         c.TutorID,
		SubjectID:       c.SubjectID,
		SessionTypeID:   c.SessionTypeID,
		CommunityID:     communityID,
		ScheduledStart:  start,
		ScheduledEnd:    end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Notes:           c.Notes,
		Status:          model.StatusAccepted,
		Price:           snapshot.Price,
		PlatformFeePct:  snapshot.PlatformFeePct,
		PlatformFee:     snapshot.PlatformFee,
		TutorPayout:     snapshot.TutorPayout,
		PaymentRequired: snapshot.PaymentRequired,
		LastActionBy:    studentID,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  studentID,
			ModifiedBy: studentID,
		},
	}, nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	StudentID       string  `json:"student_id"`
	TutorID         string  `json:"tutor_id"`
	SubjectID       string  `json:"subject_id"`
	SessionTypeID   string  `json:"session_type_id"`
	CommunityID     string  `json:"community_id,omitempty"`
	ScheduledStart  string  `json:"scheduled_start"`
	ScheduledEnd    string  `json:"scheduled_end"`
	DurationMinutes int     `json:"duration_minutes"`
	Notes           string  `json:"notes,omitempty"`
	Status          string  `json:"status"`
	Price           float64 `json:"price"`
	PlatformFeePct  float64 `json:"platform_fee_pct"`
	PlatformFee     float64 `json:"platform_fee"`
	TutorPayout     float64 `json:"tutor_payout"`
	PaymentRequired bool    `json:"payment_required"`
	LastActionBy    string  `json:"last_action_by"`
	CancelReason    string  `json:"cancel_reason,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.BookingRequest) {
	r.ID = model.ID
	r.StudentID = model.StudentID
	r.TutorID = model.TutorID
	r.SubjectID = model.SubjectID
	r.SessionTypeID = model.SessionTypeID
	r.CommunityID = model.CommunityID.String
	r.ScheduledStart = timezone.Format(model.ScheduledStart, constant.DateFormat)
	r.ScheduledEnd = timezone.Format(model.ScheduledEnd, constant.DateFormat)
	r.DurationMinutes = model.DurationMinutes
	r.Notes = model.Notes
	r.Status = model.Status
	r.Price = model.Price
	r.PlatformFeePct = model.PlatformFeePct
	r.PlatformFee = model.PlatformFee
	r.TutorPayout = model.TutorPayout
	r.PaymentRequired = model.PaymentRequired
	r.LastActionBy = model.LastActionBy
	r.CancelReason = model.CancelReason.String
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.BookingRequest, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
