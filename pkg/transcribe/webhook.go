package transcribe

import (
	"errors"

	"github.com/zen-systems/promptchain/pkg/crypto"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Transcribe-Signature"

var (
	// ErrMissingSignature is returned when a secret is configured but the
	// request carries no signature header.
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrBadSignature is returned when the signature does not match the body.
	ErrBadSignature = errors.New("invalid webhook signature")
)

// VerifySignature checks the webhook signature against the raw body before
// any parsing. An empty secret disables verification.
func VerifySignature(body []byte, secret, signature string) error {
	if secret == "" {
		return nil
	}
	if signature == "" {
		return ErrMissingSignature
	}
	if !crypto.Verify(body, secret, signature) {
		return ErrBadSignature
	}
	return nil
}
