package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tutorhub/config"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

const meetDefaultTimeoutSeconds = 10

type meetProvider struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
}

func NewMeet(cfg *config.Config) MeetingProvider {
	timeout := cfg.External.Meet.TimeoutSeconds
	if timeout <= 0 {
		timeout = meetDefaultTimeoutSeconds
	}

	return &meetProvider{
		baseURL:      cfg.External.Meet.BaseURL,
		tokenURL:     cfg.External.Meet.TokenURL,
		clientID:     cfg.External.Meet.ClientID,
		clientSecret: cfg.External.Meet.ClientSecret,
		client:       &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

func (m *meetProvider) Name() string {
	return "meet"
}

type meetSpaceResponse struct {
	Name       string `json:"name"`
	MeetingURI string `json:"meetingUri"`
}

// CreateMeeting creates a Meet space. Meet spaces are not bound to a time
// window, so the request payload is empty and the scheduling data stays on our
// side.
func (m *meetProvider) CreateMeeting(ctx context.Context, accessToken string, _ MeetingRequest) (res Meeting, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v2/spaces", bytes.NewReader([]byte("{}")))
	if err != nil {
		return res, fmt.Errorf("failed to build meet space request: %w", err)
	}

	httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	httpReq.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+accessToken)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Msg("meet space request failed")

		return res, failure.Unavailable("google meet is unreachable") // nolint:wrapcheck
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return res, failure.ProviderAuth("google meet rejected the access token") // nolint:wrapcheck
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return res, failure.Unavailable(fmt.Sprintf("google meet returned status %d", resp.StatusCode)) // nolint:wrapcheck
	default:
		return res, failure.BadRequestFromString(fmt.Sprintf("google meet rejected the space request with status %d", resp.StatusCode)) // nolint:wrapcheck
	}

	var space meetSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&space); err != nil {
		return res, fmt.Errorf("failed to decode meet space response: %w", err)
	}

	return Meeting{
		ExternalID: space.Name,
		JoinURL:    space.MeetingURI,
		CreatedAt:  timezone.Now(),
	}, nil
}

type meetTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (m *meetProvider) RefreshToken(ctx context.Context, refreshToken string) (res TokenPair, err error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return res, fmt.Errorf("failed to build meet token request: %w", err)
	}

	httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeFormURLEncoded)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Msg("meet token request failed")

		return res, failure.Unavailable("google meet is unreachable") // nolint:wrapcheck
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return res, failure.Unavailable(fmt.Sprintf("google meet returned status %d", resp.StatusCode)) // nolint:wrapcheck
	default:
		return res, failure.ProviderAuth("google meet rejected the refresh token") // nolint:wrapcheck
	}

	var token meetTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return res, fmt.Errorf("failed to decode meet token response: %w", err)
	}

	// Google keeps the refresh token stable, only the access token rotates.
	return TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    timezone.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}
