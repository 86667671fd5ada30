package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// verifySignature checks an X-Hub-Signature-256 header ("sha256=<hex>")
// against the request body. The comparison is constant-time.
func verifySignature(header string, body, secret []byte) error {
	if header == "" {
		return fmt.Errorf("missing X-Hub-Signature-256 header")
	}

	sigHex, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return fmt.Errorf("invalid signature format")
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}

	h := hmac.New(sha256.New, secret)
	h.Write(body)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// SignBody computes the X-Hub-Signature-256 value for a body. Exposed for
// webhook sender configuration checks and tests.
func SignBody(body, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
