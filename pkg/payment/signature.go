package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
)

// SignatureVerifier checks webhook bodies against a hex HMAC sent by the provider.
type SignatureVerifier struct {
	secret []byte
	algo   func() hash.Hash
}

// NewPaystackVerifier signs with HMAC-SHA512, as Paystack does with the account secret key.
func NewPaystackVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret), algo: sha512.New}
}

// NewSHA256Verifier is used for providers that sign with HMAC-SHA256.
func NewSHA256Verifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret), algo: sha256.New}
}

func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(v.algo, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body. An unset secret rejects everything.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(v.algo, v.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
