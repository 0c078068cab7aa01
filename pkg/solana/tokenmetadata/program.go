// Package tokenmetadata builds instructions for the Metaplex Token Metadata
// program and encodes the Borsh payloads it consumes.
package tokenmetadata

import (
	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
)

// ProgramKey is the deployed Token Metadata program,
// metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s.
var ProgramKey = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

var (
	// ErrInvalidPublicKey is returned when a key inside the metadata payload
	// does not decode to exactly 32 bytes. Nothing is encoded.
	ErrInvalidPublicKey = solana.ErrInvalidPublicKey

	// ErrUnsupportedValue is returned for values the payload schema has no
	// encoding for, such as a Uses variant other than UsesAbsent.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrAddressDerivationFailed is returned when the metadata address bump
	// search is exhausted.
	ErrAddressDerivationFailed = solana.ErrAddressDerivationFailed

	ErrInvalidInstructionData = errors.New("unexpected instruction data")
	ErrInvalidAccountData     = errors.New("unexpected account data")
)
