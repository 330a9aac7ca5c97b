package dto

import (
	"fmt"

	"tutorhub/internal/domains/provider/model"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	gModel "tutorhub/shared/model"
	"tutorhub/shared/timezone"

	"github.com/google/uuid"
)

type ConnectProviderRequest struct {
	Provider       string `json:"provider"         validate:"required,oneof=zoom meet"`
	AccessToken    string `json:"access_token"     validate:"required"`
	RefreshToken   string `json:"refresh_token"    validate:"required"`
	TokenExpiresAt string `json:"token_expires_at" validate:"required"`
}

func (c *ConnectProviderRequest) ToModel(tutorID string) (model.Connection, error) {
	expiresAt, err := timezone.Parse(constant.DateFormat, c.TokenExpiresAt)
	if err != nil {
		return model.Connection{}, fmt.Errorf("invalid token expiry: %w", err)
	}

	return model.Connection{
		ID:             uuid.NewString(),
		TutorID:        tutorID,
		Provider:       c.Provider,
		AccessToken:    c.AccessToken,
		RefreshToken:   c.RefreshToken,
		TokenExpiresAt: expiresAt,
		Healthy:        true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  tutorID,
			ModifiedBy: tutorID,
		},
	}, nil
}

// ConnectionResponse deliberately omits the stored tokens.
type ConnectionResponse struct {
	ID             string `json:"id"`
	TutorID        string `json:"tutor_id"`
	Provider       string `json:"provider"`
	Healthy        bool   `json:"healthy"`
	TokenExpiresAt string `json:"token_expires_at"`
	gDto.Metadata
}

func (r *ConnectionResponse) FromModel(model model.Connection) {
	r.ID = model.ID
	r.TutorID = model.TutorID
	r.Provider = model.Provider
	r.Healthy = model.Healthy
	r.TokenExpiresAt = timezone.Format(model.TokenExpiresAt, constant.DateFormat)
	r.Metadata.FromModel(model.Metadata)
}

// MigrationError records one session that kept its old meeting link.
type MigrationError struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// MigrationResult reports a best-effort migration run. Success means every
// future scheduled session now points at the new provider; partial progress is
// never rolled back.
type MigrationResult struct {
	Success       bool             `json:"success"`
	MigratedCount int              `json:"migrated_count"`
	FailedCount   int              `json:"failed_count"`
	Errors        []MigrationError `json:"errors,omitempty"`
}

type ConnectProviderResponse struct {
	Connection ConnectionResponse `json:"connection"`
	Migration  *MigrationResult   `json:"migration,omitempty"`
}
