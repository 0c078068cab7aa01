package token

import (
	"crypto/ed25519"

	"github.com/code-payments/token-minter/pkg/solana/binary"
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L16-L30
const MintAccountSize = 82

// Account state encodes COption with a four byte tag.
const stateOptionSize = 4

// Mint is the on-chain state of an SPL token mint.
type Mint struct {
	// Optional authority used to mint new tokens. Once revoked, supply is fixed.
	MintAuthority   ed25519.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, MintAccountSize)

	var offset int
	binary.PutOptionalKey32(b[offset:], m.MintAuthority, &offset, stateOptionSize)
	binary.PutUint64(b[offset:], m.Supply, &offset)
	binary.PutUint8(b[offset:], m.Decimals, &offset)
	binary.PutBool(b[offset:], m.IsInitialized, &offset)
	binary.PutOptionalKey32(b[offset:], m.FreezeAuthority, &offset, stateOptionSize)

	return b
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) != MintAccountSize {
		return false
	}

	*m = Mint{}

	var offset int
	binary.GetOptionalKey32(b[offset:], &m.MintAuthority, &offset, stateOptionSize)
	binary.GetUint64(b[offset:], &m.Supply, &offset)
	binary.GetUint8(b[offset:], &m.Decimals, &offset)
	if ok := binary.GetBool(b[offset:], &m.IsInitialized, &offset); !ok {
		return false
	}
	binary.GetOptionalKey32(b[offset:], &m.FreezeAuthority, &offset, stateOptionSize)

	return true
}
