package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ProxyPay implements the Provider interface for Multicaixa Express style
// reference payments. CreateIntent synthesises a deterministic token so the
// rest of the flow can be driven without a network call; the HTTP client is
// only exercised when a base URL is configured.
type ProxyPay struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Sandbox bool
}

// Name identifies the provider in payment records and metrics.
func (p ProxyPay) Name() string { return "proxypay" }

// CreateIntent opens a payment reference at the gateway.
func (p ProxyPay) CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return IntentResponse{}, errors.New("payment reference is required")
	}
	if req.Amount <= 0 {
		return IntentResponse{}, errors.New("amount must be positive")
	}
	expiresAt := time.Now().Add(time.Duration(req.ExpiresAtSec) * time.Second)

	if host := strings.TrimSpace(p.BaseURL); host != "" && p.Client != nil {
		if err := p.registerReference(ctx, host, req); err != nil {
			return IntentResponse{}, fmt.Errorf("proxypay: register reference: %w", err)
		}
	}

	token := fmt.Sprintf("PPAY-%s", req.Reference)
	return IntentResponse{
		Provider:    p.Name(),
		Token:       token,
		RedirectURL: fmt.Sprintf("%s/pay/%s", strings.TrimRight(p.host(), "/"), token),
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

func (p ProxyPay) registerReference(ctx context.Context, host string, req IntentRequest) error {
	payload, err := json.Marshal(map[string]any{
		"reference_id": req.Reference,
		"amount":       strconv.FormatInt(req.Amount, 10),
		"currency":     req.Currency,
		"expiry_secs":  req.ExpiresAtSec,
	})
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut,
		strings.TrimRight(host, "/")+"/references/"+req.Reference, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Token "+p.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p ProxyPay) host() string {
	host := strings.TrimSpace(p.BaseURL)
	if host == "" {
		if p.Sandbox {
			return "https://api.sandbox.proxypay.co.ao"
		}
		return "https://api.proxypay.co.ao"
	}
	return host
}

// VerifyWebhook validates the ProxyPay signature and normalises the payload.
func (p ProxyPay) VerifyWebhook(_ *http.Request, body []byte) (WebhookVerifyResult, error) {
	var payload struct {
		ReferenceID string `json:"reference_id"`
		Amount      string `json:"amount"`
		Status      string `json:"status"`
		Signature   string `json:"signature"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	if payload.ReferenceID == "" {
		return WebhookVerifyResult{Valid: false, Err: errors.New("missing reference id")}, nil
	}

	expected := p.computeSignature(payload.ReferenceID, payload.Amount, payload.Status)
	provided := strings.TrimSpace(payload.Signature)
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}

	amount, err := parseAmount(payload.Amount)
	if err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}

	return WebhookVerifyResult{
		Valid:           true,
		Reference:       payload.ReferenceID,
		Amount:          amount,
		Status:          normaliseStatus(payload.Status),
		ProviderPayload: body,
	}, nil
}

func (p ProxyPay) computeSignature(reference, amount, status string) string {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(reference))
	mac.Write([]byte(amount))
	mac.Write([]byte(status))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseAmount(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	if !strings.Contains(trimmed, ".") {
		return strconv.ParseInt(trimmed, 10, 64)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

func normaliseStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "accepted", "paid", "settled":
		return "PAID"
	case "pending":
		return "PENDING"
	case "rejected", "canceled", "cancelled":
		return "FAILED"
	case "expired":
		return "EXPIRED"
	default:
		return "PENDING"
	}
}
