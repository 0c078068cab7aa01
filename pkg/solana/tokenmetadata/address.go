package tokenmetadata

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
)

var MetadataPrefix = []byte("metadata")

var findProgramAddress = solana.FindProgramAddressAndBump

// GetMetadataAddress returns the metadata account address and bump for mint.
// The seeds are "metadata", the program id, and the mint.
func GetMetadataAddress(mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	if len(mint) != ed25519.PublicKeySize {
		return nil, 0, errors.Wrapf(ErrInvalidPublicKey, "mint is %d bytes", len(mint))
	}

	address, bump, err := findProgramAddress(
		ProgramKey,
		MetadataPrefix,
		ProgramKey,
		mint,
	)
	if errors.Is(err, ErrAddressDerivationFailed) {
		return nil, 0, err
	} else if err != nil {
		return nil, 0, errors.Wrap(ErrAddressDerivationFailed, err.Error())
	}

	return address, bump, nil
}
