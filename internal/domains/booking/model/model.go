package model

import (
	"database/sql"
	"time"
	"tutorhub/shared/model"
)

const (
	TableName  = "booking_requests"
	EntityName = "booking"

	FieldID              = "id"
	FieldStudentID       = "student_id"
	FieldTutorID         = "tutor_id"
	FieldSubjectID       = "subject_id"
	FieldSessionTypeID   = "session_type_id"
	FieldCommunityID     = "community_id"
	FieldScheduledStart  = "scheduled_start"
	FieldScheduledEnd    = "scheduled_end"
	FieldDurationMinutes = "duration_minutes"
	FieldNotes           = "notes"
	FieldStatus          = "status"
	FieldPrice           = "price"
	FieldPlatformFeePct  = "platform_fee_pct"
	FieldPlatformFee     = "platform_fee"
	FieldTutorPayout     = "tutor_payout"
	FieldPaymentRequired = "payment_required"
	FieldLastActionBy    = "last_action_by"
	FieldCancelReason    = "cancel_reason"
)

const (
	StatusRequested      = "requested"
	StatusAccepted       = "accepted"
	StatusCancelled      = "cancelled"
	StatusSessionCreated = "session_created"
)

// transitions is the full lifecycle. Anything not listed here is rejected, so a
// cancelled booking can never come back and a materialized booking can never be
// cancelled through this table.
var transitions = map[string][]string{
	StatusRequested: {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusSessionCreated, StatusCancelled},
}

// CanTransition reports whether the lifecycle allows moving from one status to
// another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// BookingRequest carries the agreed window plus the pricing snapshot computed
// once at creation. The snapshot never changes after insert even if the tutor
// republishes rates.
type BookingRequest struct {
	ID              string         `db:"id"`
	StudentID       string         `db:"student_id"`
	TutorID         string         `db:"tutor_id"`
	SubjectID       string         `db:"subject_id"`
	SessionTypeID   string         `db:"session_type_id"`
	CommunityID     sql.NullString `db:"community_id"`
	ScheduledStart  time.Time      `db:"scheduled_start"`
	ScheduledEnd    time.Time      `db:"scheduled_end"`
	DurationMinutes int            `db:"duration_minutes"`
	Notes           string         `db:"notes"`
	Status          string         `db:"status"`
	Price           float64        `db:"price"`
	PlatformFeePct  float64        `db:"platform_fee_pct"`
	PlatformFee     float64        `db:"platform_fee"`
	TutorPayout     float64        `db:"tutor_payout"`
	PaymentRequired bool           `db:"payment_required"`
	LastActionBy    string         `db:"last_action_by"`
	CancelReason    sql.NullString `db:"cancel_reason"`
	model.Metadata
}

// IsParty reports whether the given user is the student or the tutor on this
// booking.
func (b *BookingRequest) IsParty(userID string) bool {
	return userID == b.StudentID || userID == b.TutorID
}
