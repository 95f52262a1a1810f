package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func signedPayload(t *testing.T, key, reference, amount, status string) []byte {
	t.Helper()
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(reference))
	mac.Write([]byte(amount))
	mac.Write([]byte(status))
	mac.Write([]byte(key))
	body, err := json.Marshal(map[string]string{
		"reference_id": reference,
		"amount":       amount,
		"status":       status,
		"signature":    hex.EncodeToString(mac.Sum(nil)),
	})
	require.NoError(t, err)
	return body
}

func TestProxyPayCreateIntentDeterministicToken(t *testing.T) {
	provider := ProxyPay{APIKey: "k", Sandbox: true}
	intent, err := provider.CreateIntent(context.Background(), IntentRequest{
		Reference: "PP-ABC123", Amount: 63000, Currency: "AOA", ExpiresAtSec: 900,
	})
	require.NoError(t, err)
	require.Equal(t, "proxypay", intent.Provider)
	require.Equal(t, "PPAY-PP-ABC123", intent.Token)
	require.Contains(t, intent.RedirectURL, "sandbox")
}

func TestProxyPayCreateIntentRequiresReference(t *testing.T) {
	provider := ProxyPay{APIKey: "k"}
	_, err := provider.CreateIntent(context.Background(), IntentRequest{Amount: 100})
	require.Error(t, err)
}

func TestProxyPayVerifyWebhookValidSignature(t *testing.T) {
	provider := ProxyPay{APIKey: "secret"}
	body := signedPayload(t, "secret", "PP-REF1", "63000", "accepted")

	result, err := provider.VerifyWebhook(nil, body)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "PP-REF1", result.Reference)
	require.Equal(t, int64(63000), result.Amount)
	require.Equal(t, "PAID", result.Status)
}

func TestProxyPayVerifyWebhookRejectsTamperedBody(t *testing.T) {
	provider := ProxyPay{APIKey: "secret"}
	body := signedPayload(t, "secret", "PP-REF1", "63000", "accepted")
	tampered := []byte(string(body))
	tampered[20]++

	result, err := provider.VerifyWebhook(nil, tampered)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestProxyPayVerifyWebhookWrongKey(t *testing.T) {
	provider := ProxyPay{APIKey: "other"}
	body := signedPayload(t, "secret", "PP-REF1", "63000", "accepted")

	result, err := provider.VerifyWebhook(nil, body)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestProxyPayStatusNormalisation(t *testing.T) {
	require.Equal(t, "PAID", normaliseStatus("Settled"))
	require.Equal(t, "FAILED", normaliseStatus("rejected"))
	require.Equal(t, "EXPIRED", normaliseStatus("expired"))
	require.Equal(t, "PENDING", normaliseStatus("whatever"))
}

func TestParseAmountHandlesDecimals(t *testing.T) {
	v, err := parseAmount("63000.00")
	require.NoError(t, err)
	require.Equal(t, int64(63000), v)
}
