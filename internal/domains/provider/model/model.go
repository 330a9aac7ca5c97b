package model

import (
	"time"
	"tutorhub/shared/model"
)

const (
	TableName  = "video_provider_connections"
	EntityName = "provider_connection"

	FieldID             = "id"
	FieldTutorID        = "tutor_id"
	FieldProvider       = "provider"
	FieldAccessToken    = "access_token"
	FieldRefreshToken   = "refresh_token"
	FieldTokenExpiresAt = "token_expires_at"
	FieldHealthy        = "healthy"
)

const (
	ProviderZoom = "zoom"
	ProviderMeet = "meet"
)

// IsSupported reports whether the provider name is one we can dispatch to.
func IsSupported(provider string) bool {
	return provider == ProviderZoom || provider == ProviderMeet
}

// Connection is a tutor's OAuth link to a video conferencing provider. A tutor
// has at most one connection; connecting again replaces it wholesale.
// AccessToken and RefreshToken hold AES-GCM ciphertext, the provider gateway
// decrypts them right before use.
type Connection struct {
	ID             string    `db:"id"`
	TutorID        string    `db:"tutor_id"`
	Provider       string    `db:"provider"`
	AccessToken    string    `db:"access_token"`
	RefreshToken   string    `db:"refresh_token"`
	TokenExpiresAt time.Time `db:"token_expires_at"`
	Healthy        bool      `db:"healthy"`
	model.Metadata
}

// TokenExpired reports whether the access token needs a refresh before use.
// The skew keeps a token from expiring mid-request.
func (c *Connection) TokenExpired(now time.Time) bool {
	return !c.TokenExpiresAt.After(now.Add(time.Minute))
}
