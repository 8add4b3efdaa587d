package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookSignatureHeader is the request header carrying the delivery
// signature, matching GitHub's convention.
const WebhookSignatureHeader = "X-Hub-Signature-256"

// WebhookVerification reports the outcome of a delivery signature check
// together with the reason, which is audit-logged by the caller.
type WebhookVerification struct {
	OK     bool
	Reason string
}

// VerifyWebhookSignature checks an HMAC-SHA256 signature of the exact raw
// request body against a "sha256=<hex>" header. An empty secret accepts
// unconditionally; that development fallback is surfaced in the reason so
// operators can see it happening.
func VerifyWebhookSignature(secret string, body []byte, signatureHeader string) WebhookVerification {
	if secret == "" {
		return WebhookVerification{OK: true, Reason: "no webhook secret configured"}
	}
	sig, ok := strings.CutPrefix(signatureHeader, "sha256=")
	if !ok {
		return WebhookVerification{OK: false, Reason: "malformed signature header"}
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return WebhookVerification{OK: false, Reason: "malformed signature header"}
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return WebhookVerification{OK: false, Reason: "signature mismatch"}
	}
	return WebhookVerification{OK: true, Reason: "signature verified"}
}

// SignWebhookBody produces the header value a sender would attach.
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
