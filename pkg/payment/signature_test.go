package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSignatureVerifier_Paystack(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"CM-1"}}`)
	mac := hmac.New(sha512.New, []byte("sk_test"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	v := NewPaystackVerifier("sk_test")
	if !v.Verify(body, sig) {
		t.Fatal("valid signature rejected")
	}
	if !v.Verify(body, strings.ToUpper(sig)) {
		t.Fatal("upper-case hex rejected")
	}
	if v.Verify(append(body, ' '), sig) {
		t.Fatal("tampered body accepted")
	}
	if NewPaystackVerifier("other").Verify(body, sig) {
		t.Fatal("wrong secret accepted")
	}
}

func TestSignatureVerifier_Rejects(t *testing.T) {
	body := []byte(`{}`)
	v := NewSHA256Verifier("secret")
	if !v.Verify(body, v.Sign(body)) {
		t.Fatal("round trip failed")
	}
	for name, sig := range map[string]string{"empty": "", "not hex": "zz", "short": "abcd"} {
		if v.Verify(body, sig) {
			t.Fatalf("%s signature accepted", name)
		}
	}
	unset := NewSHA256Verifier("")
	if unset.Verify(body, unset.Sign(body)) {
		t.Fatal("verifier without a secret must reject")
	}
}
