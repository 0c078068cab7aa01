package tokenmetadata

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/binary"
	"github.com/code-payments/token-minter/pkg/solana/system"
)

const createMetadataAccountV3AccountCount = 6

type CreateMetadataAccountV3InstructionArgs struct {
	Data      DataV2 `json:"data"`
	IsMutable bool   `json:"is_mutable"`
}

type CreateMetadataAccountV3InstructionAccounts struct {
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	Payer           ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
}

// Size returns the exact encoded size of args, excluding the instruction type.
func (args *CreateMetadataAccountV3InstructionArgs) Size() int {
	return args.Data.Size() +
		binary.OptionTagSize + // collection_details
		1 // is_mutable
}

// MarshalCreateMetadataAccountV3Args encodes args in field order: data,
// collection_details (always absent), is_mutable. Every key is validated
// before the output is allocated, so on error no bytes are produced.
func MarshalCreateMetadataAccountV3Args(args *CreateMetadataAccountV3InstructionArgs) ([]byte, error) {
	return marshalCreateMetadataAccountV3(args, 0)
}

// UnmarshalCreateMetadataAccountV3Args is the inverse of
// MarshalCreateMetadataAccountV3Args. Trailing bytes are rejected.
func UnmarshalCreateMetadataAccountV3Args(data []byte) (*CreateMetadataAccountV3InstructionArgs, error) {
	var offset int
	args := &CreateMetadataAccountV3InstructionArgs{}

	if err := args.Data.get(data, &offset, ErrInvalidInstructionData); err != nil {
		return nil, err
	}

	r := &decoder{src: data, offset: &offset, invalid: ErrInvalidInstructionData}
	if r.getOption("collection_details") {
		r.fail(errors.Wrap(ErrUnsupportedValue, "collection_details is present"))
	}
	args.IsMutable = r.getBool("is_mutable")
	if r.err != nil {
		return nil, r.err
	}

	if offset != len(data) {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "%d trailing bytes", len(data)-offset)
	}

	return args, nil
}

// NewCreateMetadataAccountV3Instruction builds the instruction that creates
// the metadata account for accounts.Mint.
//
// Accounts, in order:
//
//	0. [WRITE]  metadata account, derived from the mint
//	1. []       mint
//	2. [SIGNER] mint authority
//	3. [SIGNER] payer
//	4. [SIGNER] update authority
//	5. []       system program
func NewCreateMetadataAccountV3Instruction(
	accounts *CreateMetadataAccountV3InstructionAccounts,
	args *CreateMetadataAccountV3InstructionArgs,
) (solana.Instruction, error) {
	for _, account := range []struct {
		name string
		key  ed25519.PublicKey
	}{
		{"mint", accounts.Mint},
		{"mint authority", accounts.MintAuthority},
		{"payer", accounts.Payer},
		{"update authority", accounts.UpdateAuthority},
	} {
		if len(account.key) != ed25519.PublicKeySize {
			return solana.Instruction{}, errors.Wrapf(ErrInvalidPublicKey, "%s is %d bytes", account.name, len(account.key))
		}
	}

	metadata, _, err := GetMetadataAddress(accounts.Mint)
	if err != nil {
		return solana.Instruction{}, err
	}

	data, err := marshalCreateMetadataAccountV3(args, 1)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.Instruction{
		Program: ProgramKey,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  metadata,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MintAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Payer,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UpdateAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  system.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

type DecompiledCreateMetadataAccountV3 struct {
	Metadata        ed25519.PublicKey
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	Payer           ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey

	Args CreateMetadataAccountV3InstructionArgs
}

func DecompileCreateMetadataAccountV3(m solana.Message, index int) (*DecompiledCreateMetadataAccountV3, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || InstructionType(i.Data[0]) != InstructionTypeCreateMetadataAccountV3 {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != createMetadataAccountV3AccountCount {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[5]], system.ProgramKey) {
		return nil, errors.New("system program key mismatch")
	}
	if !m.IsWritable(int(i.Accounts[0])) {
		return nil, errors.Wrap(ErrInvalidInstructionData, "metadata account is not writable")
	}
	for _, j := range []int{2, 3, 4} {
		if !m.IsSigner(int(i.Accounts[j])) {
			return nil, errors.Wrapf(ErrInvalidInstructionData, "account %d is not a signer", j)
		}
	}

	args, err := UnmarshalCreateMetadataAccountV3Args(i.Data[1:])
	if err != nil {
		return nil, err
	}

	return &DecompiledCreateMetadataAccountV3{
		Metadata:        m.Accounts[i.Accounts[0]],
		Mint:            m.Accounts[i.Accounts[1]],
		MintAuthority:   m.Accounts[i.Accounts[2]],
		Payer:           m.Accounts[i.Accounts[3]],
		UpdateAuthority: m.Accounts[i.Accounts[4]],
		Args:            *args,
	}, nil
}

// marshalCreateMetadataAccountV3 encodes args after reserve leading bytes,
// which are left for the instruction type.
func marshalCreateMetadataAccountV3(args *CreateMetadataAccountV3InstructionArgs, reserve int) ([]byte, error) {
	keys, err := args.Data.resolveKeys()
	if err != nil {
		return nil, err
	}

	data := make([]byte, reserve+args.Size())

	offset := 0
	if reserve > 0 {
		putInstructionType(data, InstructionTypeCreateMetadataAccountV3, &offset)
	}
	args.Data.put(data, keys, &offset)
	binary.PutOptionTag(data[offset:], false, &offset) // collection_details
	binary.PutBool(data[offset:], args.IsMutable, &offset)

	return data, nil
}
