package payment

//go:generate go run go.uber.org/mock/mockgen -source=./payment.go -destination=./mocks/payment_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kbox/config"
)

// Intent statuses as reported by the gateway.
const (
	IntentStatusRequiresAction = "requires_action"
	IntentStatusProcessing     = "processing"
	IntentStatusSucceeded      = "succeeded"
	IntentStatusCanceled       = "canceled"
)

const methodPromptPay = "promptpay"

// IntentRequest describes a charge to be collected from a customer.
type IntentRequest struct {
	// AmountSubunits is the charge amount in the currency's smallest unit.
	AmountSubunits int64
	Currency       string
	// ReferenceID is our reference, minted before the gateway call so a
	// crashed request can still be reconciled.
	ReferenceID string
	BookingID   string
	Description string
}

// Intent is the gateway-side payment object tracked by a booking.
type Intent struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ReferenceID string `json:"reference_id"`
	// QRCodeURL points at the scannable PromptPay code, present while the
	// intent still requires action.
	QRCodeURL string `json:"qr_code_url"`
}

// Succeeded reports whether the gateway collected the funds.
func (i *Intent) Succeeded() bool {
	return i.Status == IntentStatusSucceeded
}

// Provider talks to the external payment gateway.
type Provider interface {
	CreatePromptPayIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
}

type providerImpl struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(config *config.Config) Provider {
	log.Info().Str("baseURL", config.External.Payment.BaseURL).Msg("Payment provider initialized")

	return &providerImpl{
		baseURL: strings.TrimRight(config.External.Payment.BaseURL, "/"),
		apiKey:  config.External.Payment.APIKey,
		client: &http.Client{
			Timeout: time.Duration(config.External.Payment.TimeoutSeconds) * time.Second,
		},
	}
}

func (p *providerImpl) CreatePromptPayIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountSubunits, 10))
	form.Set("currency", req.Currency)
	form.Set("payment_method_types[]", methodPromptPay)
	form.Set("metadata[reference_id]", req.ReferenceID)

	if req.BookingID != "" {
		form.Set("metadata[booking_id]", req.BookingID)
	}

	if req.Description != "" {
		form.Set("description", req.Description)
	}

	return p.do(ctx, http.MethodPost, "/v1/payment_intents", strings.NewReader(form.Encode()))
}

func (p *providerImpl) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	return p.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil)
}

func (p *providerImpl) CancelIntent(ctx context.Context, intentID string) (*Intent, error) {
	return p.do(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(intentID)+"/cancel", nil)
}

func (p *providerImpl) do(ctx context.Context, method, path string, body io.Reader) (*Intent, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Payment gateway request failed")

		return nil, fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("Payment gateway returned an error")

		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var intent Intent

	err = json.Unmarshal(payload, &intent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &intent, nil
}
