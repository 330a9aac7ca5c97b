package model

import (
	"database/sql"
	"time"
	"tutorhub/shared/model"
)

const (
	TableName  = "sessions"
	EntityName = "session"

	FieldID                = "id"
	FieldBookingID         = "booking_id"
	FieldStudentID         = "student_id"
	FieldTutorID           = "tutor_id"
	FieldSubjectID         = "subject_id"
	FieldCommunityID       = "community_id"
	FieldScheduledStart    = "scheduled_start"
	FieldScheduledEnd      = "scheduled_end"
	FieldStatus            = "status"
	FieldProvider          = "provider"
	FieldMeetingExternalID = "meeting_external_id"
	FieldJoinURL           = "join_url"
	FieldMeetingCreatedAt  = "meeting_created_at"
	FieldPrice             = "price"
	FieldPlatformFee       = "platform_fee"
	FieldTutorPayout       = "tutor_payout"
	FieldCurrency          = "currency"
	FieldPaymentRequired   = "payment_required"
	FieldSettlementStatus  = "settlement_status"
	FieldSettlementReason  = "settlement_reason"
	FieldChargeDueAt       = "charge_due_at"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

const (
	SettlementUnpaid     = "unpaid"
	SettlementPending    = "pending"
	SettlementProcessing = "processing"
	SettlementPaid       = "paid"
	SettlementFailed     = "failed"
	SettlementRefunded   = "refunded"
)

// CanTransition reports whether a session status change is allowed. Sessions
// only ever leave the scheduled state, every other status is final.
func CanTransition(from, to string) bool {
	if from != StatusScheduled {
		return false
	}

	return to == StatusCompleted || to == StatusCancelled || to == StatusNoShow
}

// Session is the concrete scheduled lesson materialized from an accepted
// booking. booking_id carries a unique constraint, which is what makes
// materialization idempotent under concurrent requests.
type Session struct {
	ID                string         `db:"id"`
	BookingID         string         `db:"booking_id"`
	StudentID         string         `db:"student_id"`
	TutorID           string         `db:"tutor_id"`
	SubjectID         string         `db:"subject_id"`
	CommunityID       sql.NullString `db:"community_id"`
	ScheduledStart    time.Time      `db:"scheduled_start"`
	ScheduledEnd      time.Time      `db:"scheduled_end"`
	Status            string         `db:"status"`
	Provider          sql.NullString `db:"provider"`
	MeetingExternalID sql.NullString `db:"meeting_external_id"`
	JoinURL           sql.NullString `db:"join_url"`
	MeetingCreatedAt  sql.NullTime   `db:"meeting_created_at"`
	Price             float64        `db:"price"`
	PlatformFee       float64        `db:"platform_fee"`
	TutorPayout       float64        `db:"tutor_payout"`
	Currency          string         `db:"currency"`
	PaymentRequired   bool           `db:"payment_required"`
	SettlementStatus  string         `db:"settlement_status"`
	SettlementReason  sql.NullString `db:"settlement_reason"`
	ChargeDueAt       sql.NullTime   `db:"charge_due_at"`
	model.Metadata
}
