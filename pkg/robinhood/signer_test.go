package robinhood

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"crypto-bridge/internal/errs"
)

func testSeed(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, ed25519.SeedSize))
}

func TestNewSignerValidation(t *testing.T) {
	cases := []struct {
		name string
		seed string
	}{
		{"empty", ""},
		{"not base64", "%%%not-base64%%%"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSigner(tc.seed)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errs.IsKind(err, errs.KindConfig) {
				t.Fatalf("kind = %v, want config", errs.KindOf(err))
			}
		})
	}
}

func TestSignVerify(t *testing.T) {
	s, err := NewSigner(testSeed(t))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	msg := []byte("K1700000000/api/v1/crypto/trading/accounts/GET")
	sig := s.Sign(msg)
	if !ed25519.Verify(s.Public(), msg, sig) {
		t.Fatal("signature does not verify")
	}

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 1
	if ed25519.Verify(s.Public(), tampered, sig) {
		t.Fatal("signature verified for altered message")
	}

	badSig := append([]byte(nil), sig...)
	badSig[0] ^= 1
	if ed25519.Verify(s.Public(), msg, badSig) {
		t.Fatal("altered signature verified")
	}
}

func TestSignDeterministic(t *testing.T) {
	s, err := NewSigner(testSeed(t))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	msg := []byte("same message")
	if !bytes.Equal(s.Sign(msg), s.Sign(msg)) {
		t.Fatal("signing the same message twice produced different signatures")
	}
}
