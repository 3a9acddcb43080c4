package robinhood

import (
	"crypto/ed25519"
	"encoding/base64"

	"crypto-bridge/internal/errs"
)

// Signer holds the Ed25519 private key derived from the configured seed.
type Signer struct {
	priv ed25519.PrivateKey
}

// NewSigner derives the signing key from a base64-encoded 32-byte seed.
// Seed validation happens here and nowhere else; a constructed Signer
// cannot fail to sign.
func NewSigner(seed string) (*Signer, error) {
	if seed == "" {
		return nil, errs.New(errs.KindConfig, "robinhood: private key is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(seed)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "robinhood: private key is not valid base64", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, errs.Newf(errs.KindConfig, "robinhood: private key seed is %d bytes, want %d", len(raw), ed25519.SeedSize)
	}
	return &Signer{priv: ed25519.NewKeyFromSeed(raw)}, nil
}

// Sign returns the detached signature of message.
func (s *Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.priv, message)
}

// Public returns the verification key matching the signing key.
func (s *Signer) Public() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}
