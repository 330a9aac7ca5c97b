package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tutorhub/config"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"
	"tutorhub/shared/timezone"

	"github.com/rs/zerolog/log"
)

const zoomDefaultTimeoutSeconds = 10

type zoomProvider struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
}

func NewZoom(cfg *config.Config) MeetingProvider {
	timeout := cfg.External.Zoom.TimeoutSeconds
	if timeout <= 0 {
		timeout = zoomDefaultTimeoutSeconds
	}

	return &zoomProvider{
		baseURL:      cfg.External.Zoom.BaseURL,
		tokenURL:     cfg.External.Zoom.TokenURL,
		clientID:     cfg.External.Zoom.ClientID,
		clientSecret: cfg.External.Zoom.ClientSecret,
		client:       &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

func (z *zoomProvider) Name() string {
	return "zoom"
}

type zoomMeetingRequest struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

type zoomMeetingResponse struct {
	ID      int64  `json:"id"`
	JoinURL string `json:"join_url"`
}

func (z *zoomProvider) CreateMeeting(ctx context.Context, accessToken string, req MeetingRequest) (res Meeting, err error) {
	body, err := json.Marshal(zoomMeetingRequest{
		Topic:     req.Topic,
		Type:      2, // scheduled meeting
		StartTime: timezone.Format(req.Start, constant.DateFormat),
		Duration:  req.DurationMinutes,
	})
	if err != nil {
		return res, fmt.Errorf("failed to marshal zoom meeting request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("failed to build zoom meeting request: %w", err)
	}

	httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	httpReq.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+accessToken)

	resp, err := z.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Msg("zoom meeting request failed")

		return res, failure.Unavailable("zoom is unreachable") // nolint:wrapcheck
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return res, failure.ProviderAuth("zoom rejected the access token") // nolint:wrapcheck
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return res, failure.Unavailable(fmt.Sprintf("zoom returned status %d", resp.StatusCode)) // nolint:wrapcheck
	default:
		return res, failure.BadRequestFromString(fmt.Sprintf("zoom rejected the meeting request with status %d", resp.StatusCode)) // nolint:wrapcheck
	}

	var meeting zoomMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return res, fmt.Errorf("failed to decode zoom meeting response: %w", err)
	}

	return Meeting{
		ExternalID: strconv.FormatInt(meeting.ID, 10),
		JoinURL:    meeting.JoinURL,
		CreatedAt:  timezone.Now(),
	}, nil
}

type zoomTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (z *zoomProvider) RefreshToken(ctx context.Context, refreshToken string) (res TokenPair, err error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return res, fmt.Errorf("failed to build zoom token request: %w", err)
	}

	httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeFormURLEncoded)
	httpReq.SetBasicAuth(z.clientID, z.clientSecret)

	resp, err := z.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Msg("zoom token request failed")

		return res, failure.Unavailable("zoom is unreachable") // nolint:wrapcheck
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError:
		return res, failure.Unavailable(fmt.Sprintf("zoom returned status %d", resp.StatusCode)) // nolint:wrapcheck
	default:
		return res, failure.ProviderAuth("zoom rejected the refresh token") // nolint:wrapcheck
	}

	var token zoomTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return res, fmt.Errorf("failed to decode zoom token response: %w", err)
	}

	return TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    timezone.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}
