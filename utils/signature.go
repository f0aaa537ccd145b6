package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the response signature to clients.
const SignatureHeader = "X-License-Signature"

// ResponseSigner signs response bodies with HMAC-SHA256 so installed clients can detect tampering.
type ResponseSigner struct {
	secret []byte
}

// NewResponseSigner returns nil when secret is empty; a nil signer signs nothing.
func NewResponseSigner(secret string) *ResponseSigner {
	if secret == "" {
		return nil
	}
	return &ResponseSigner{secret: []byte(secret)}
}

// Sign returns the hex signature of body.
func (s *ResponseSigner) Sign(body []byte) string {
	if s == nil {
		return ""
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks sig against body in constant time.
func (s *ResponseSigner) Verify(body []byte, sig string) error {
	if s == nil {
		return errors.New("response signing is disabled")
	}
	if sig == "" {
		return errors.New("missing response signature")
	}
	if !hmac.Equal([]byte(s.Sign(body)), []byte(sig)) {
		return errors.New("invalid response signature")
	}
	return nil
}
