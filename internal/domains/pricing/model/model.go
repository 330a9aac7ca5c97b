package model

import "tutorhub/shared/model"

const (
	TableName  = "tutor_subject_rates"
	EntityName = "rate"

	FieldID            = "id"
	FieldTutorID       = "tutor_id"
	FieldSubjectID     = "subject_id"
	FieldSessionTypeID = "session_type_id"
	FieldPrice         = "price"
	FieldActive        = "active"
)

// TutorSubjectRate is the tutor's published price for one subject and session
// type. Bookings read it once at creation; later rate edits never touch
// existing bookings.
type TutorSubjectRate struct {
	ID            string  `db:"id"`
	TutorID       string  `db:"tutor_id"`
	SubjectID     string  `db:"subject_id"`
	SessionTypeID string  `db:"session_type_id"`
	Price         float64 `db:"price"`
	Active        bool    `db:"active"`
	model.Metadata
}
