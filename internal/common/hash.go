package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests input to lowercase hex. Checkout idempotency keys and
// webhook replay keys are derived through it.
func Sha256Hex(input string) string {
	digest := sha256.Sum256([]byte(input))
	return hex.EncodeToString(digest[:])
}
