package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ErrInvalidPublicKey indicates the text form of a public key did not decode
// to exactly 32 bytes.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKeyFromBase58 decodes the canonical base58 text form of an account
// address.
func PublicKeyFromBase58(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPublicKey, "%q is not base58", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidPublicKey, "%q decodes to %d bytes", value, len(decoded))
	}
	return decoded, nil
}

// MustPublicKeyFromBase58 is PublicKeyFromBase58 for compile-time constants.
func MustPublicKeyFromBase58(value string) ed25519.PublicKey {
	pub, err := PublicKeyFromBase58(value)
	if err != nil {
		panic(err)
	}
	return pub
}

// PrivateKeyFromBase58 decodes a 64 byte base58 keypair, the format used by
// the Solana CLI and most wallets when exporting a key.
func PrivateKeyFromBase58(value string) (ed25519.PrivateKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 private key")
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid private key size: %d", len(decoded))
	}

	key := ed25519.PrivateKey(decoded)
	expected := ed25519.NewKeyFromSeed(key.Seed())
	if !key.Equal(expected) {
		return nil, errors.New("private key does not match its public key")
	}
	return key, nil
}
