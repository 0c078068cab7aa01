package tokenmetadata

import (
	"github.com/code-payments/token-minter/pkg/solana/binary"
)

type InstructionType uint8

// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/instruction/mod.rs
const (
	InstructionTypeCreateMetadataAccountV3 InstructionType = 33
)

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	binary.PutUint8(dst[*offset:], uint8(v), offset)
}
