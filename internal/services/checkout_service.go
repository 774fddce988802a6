package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CheckoutService talks to the hosted payment provider: opening checkout
// sessions for tenants and verifying the webhooks the provider sends back.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error)
	VerifyWebhook(rawBody []byte, signature string) (*ProviderEvent, error)
}

type checkoutService struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	successURL    string
	cancelURL     string
	http          *http.Client
}

// CheckoutSessionRequest opens a hosted checkout page. ChargeID is optional:
// when set, the session settles that one charge; when nil, the amount is
// allocated across the tenant's unpaid charges on completion.
type CheckoutSessionRequest struct {
	TenantID    uuid.UUID  `json:"tenant_id"`
	ChargeID    *uuid.UUID `json:"charge_id,omitempty"`
	AmountCents int64      `json:"amount_cents"`
	Description string     `json:"description,omitempty"`
}

type CheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ProviderEvent is the parsed body of a verified provider webhook.
type ProviderEvent struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata"`
	Created  int64             `json:"created"`
}

func NewCheckoutService(apiKey, webhookSecret, baseURL, successURL, cancelURL string) CheckoutService {
	return &checkoutService{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		successURL:    successURL,
		cancelURL:     cancelURL,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *checkoutService) CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("checkout amount must be positive")
	}

	metadata := map[string]string{
		"tenant_id": req.TenantID.String(),
	}
	if req.ChargeID != nil {
		metadata["charge_id"] = req.ChargeID.String()
	}

	payload := map[string]interface{}{
		"amount":      req.AmountCents,
		"currency":    "usd",
		"description": req.Description,
		"metadata":    metadata,
		"success_url": s.successURL,
		"cancel_url":  s.cancelURL,
	}

	body, err := s.makeRequest(ctx, http.MethodPost, "/checkout/sessions", payload)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	var session CheckoutSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session response: %w", err)
	}
	return &session, nil
}

// VerifyWebhook checks the HMAC-SHA256 signature over the raw body before
// parsing. Comparison is constant time.
func (s *checkoutService) VerifyWebhook(rawBody []byte, signature string) (*ProviderEvent, error) {
	if signature == "" {
		return nil, errors.New("missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, errors.New("webhook signature mismatch")
	}

	var event ProviderEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook data: %v", err)
	}
	return &event, nil
}

func (s *checkoutService) makeRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
