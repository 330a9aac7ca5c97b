package payment

//go:generate go run go.uber.org/mock/mockgen -source=./capture.go -destination=../mocks/capture_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"tutorhub/config"
	"tutorhub/infras/otel"
	"tutorhub/shared/constant"
	"tutorhub/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "payment"

	defaultTimeoutSeconds = 10
)

// Declined is returned when the gateway permanently rejects a capture. It is never
// retried; the settlement record keeps the reason for operators.
func Declined(msg string) error {
	return &failure.Failure{
		Code:    http.StatusPaymentRequired,
		Message: msg,
	}
}

// IsDeclined reports whether the capture was permanently rejected.
func IsDeclined(err error) bool {
	return failure.GetCode(err) == http.StatusPaymentRequired
}

// Capturer is the opaque payment-capture primitive. Gateway protocol details are
// out of scope here; the implementation only maps outcomes onto the error taxonomy.
type Capturer interface {
	Capture(ctx context.Context, sessionID string, amount float64, currency string) error
}

type captureRequest struct {
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type httpCapturer struct {
	cfg    *config.Config
	client *http.Client
	otel   otel.Otel
}

func NewCapturer(cfg *config.Config, ot otel.Otel) Capturer {
	timeout := cfg.External.Payment.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	return &httpCapturer{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		otel: ot,
	}
}

func (c *httpCapturer) Capture(ctx context.Context, sessionID string, amount float64, currency string) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Capture")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("payment.session_id", sessionID)

	body, err := json.Marshal(captureRequest{
		SessionID: sessionID,
		Amount:    amount,
		Currency:  currency,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal capture request: %w", err)
	}

	url := c.cfg.External.Payment.BaseURL + "/v1/captures"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build capture request: %w", err)
	}

	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	req.Header.Set(constant.RequestHeaderAPIKey, c.cfg.External.Payment.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("capture request failed")

		return failure.Unavailable("payment gateway unreachable") //nolint:wrapcheck
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		log.Warn().Str("sessionID", sessionID).Int("status", resp.StatusCode).Msg("capture declined")

		return Declined(fmt.Sprintf("capture declined with status %d", resp.StatusCode)) //nolint:wrapcheck
	default:
		log.Error().Str("sessionID", sessionID).Int("status", resp.StatusCode).Msg("capture failed")

		return failure.Unavailable(fmt.Sprintf("payment gateway returned status %d", resp.StatusCode)) //nolint:wrapcheck
	}
}
