package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"

	"github.com/mr-tron/base58"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	isPayer    bool
	isProgram  bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// SortableAccountMeta is a sortable []AccountMeta based on the solana transaction
// account sorting rules.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
type SortableAccountMeta []AccountMeta

// Len is the number of elements in the collection.
func (s SortableAccountMeta) Len() int {
	return len(s)
}

// Less reports whether the element with
// index i should sort before the element with index j.
func (s SortableAccountMeta) Less(i int, j int) bool {
	if s[i].isPayer != s[j].isPayer {
		return s[i].isPayer
	}
	if s[i].isProgram != s[j].isProgram {
		return !s[i].isProgram
	}

	if s[i].IsSigner != s[j].IsSigner {
		return s[i].IsSigner
	}
	if s[i].IsWritable != s[j].IsWritable {
		return s[i].IsWritable
	}

	return bytes.Compare(s[i].PublicKey, s[j].PublicKey) < 0
}

// Swap swaps the elements with indexes i and j.
func (s SortableAccountMeta) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction represents an instruction that has been compiled into a transaction.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}

// AccountMetaJSON is the transport form of an AccountMeta.
type AccountMetaJSON struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// InstructionJSON is the transport form of an Instruction. Keys are base58 and
// data is standard base64, so an instruction built on the server can be handed
// to a client for final assembly and signing without loss.
type InstructionJSON struct {
	ProgramID string            `json:"program_id"`
	Accounts  []AccountMetaJSON `json:"accounts"`
	Data      string            `json:"data"`
}

// ToJSON converts the instruction to its transport form.
func (i Instruction) ToJSON() InstructionJSON {
	accounts := make([]AccountMetaJSON, len(i.Accounts))
	for j, account := range i.Accounts {
		accounts[j] = AccountMetaJSON{
			PublicKey:  base58.Encode(account.PublicKey),
			IsSigner:   account.IsSigner,
			IsWritable: account.IsWritable,
		}
	}

	return InstructionJSON{
		ProgramID: base58.Encode(i.Program),
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(i.Data),
	}
}

// FromJSON is the inverse of Instruction.ToJSON.
func (j InstructionJSON) FromJSON() (Instruction, error) {
	program, err := PublicKeyFromBase58(j.ProgramID)
	if err != nil {
		return Instruction{}, pkgerrors.Wrap(err, "invalid program id")
	}

	data, err := base64.StdEncoding.DecodeString(j.Data)
	if err != nil {
		return Instruction{}, pkgerrors.Wrap(err, "invalid instruction data")
	}

	accounts := make([]AccountMeta, len(j.Accounts))
	for i, account := range j.Accounts {
		pub, err := PublicKeyFromBase58(account.PublicKey)
		if err != nil {
			return Instruction{}, pkgerrors.Wrapf(err, "invalid account at index %d", i)
		}

		accounts[i] = AccountMeta{
			PublicKey:  pub,
			IsSigner:   account.IsSigner,
			IsWritable: account.IsWritable,
		}
	}

	return NewInstruction(program, data, accounts...), nil
}
