// Package computebudget builds instructions for the compute budget program,
// which sets the compute unit limit and priority fee of a transaction.
package computebudget

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/binary"
)

// ProgramKey is ComputeBudget111111111111111111111111111111.
var ProgramKey = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

type command uint8

const (
	commandRequestUnits command = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	var offset int
	data := make([]byte, 1+4)
	binary.PutUint8(data, uint8(commandSetComputeUnitLimit), &offset)
	binary.PutUint32(data[offset:], computeUnitLimit, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute
// unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	var offset int
	data := make([]byte, 1+8)
	binary.PutUint8(data, uint8(commandSetComputeUnitPrice), &offset)
	binary.PutUint64(data[offset:], microLamports, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

func DecompileSetComputeUnitLimit(m solana.Message, index int) (uint32, error) {
	data, err := getInstructionData(m, index, commandSetComputeUnitLimit, 5)
	if err != nil {
		return 0, err
	}

	var limit uint32
	var offset int
	binary.GetUint32(data[1:], &limit, &offset)
	return limit, nil
}

func DecompileSetComputeUnitPrice(m solana.Message, index int) (uint64, error) {
	data, err := getInstructionData(m, index, commandSetComputeUnitPrice, 9)
	if err != nil {
		return 0, err
	}

	var price uint64
	var offset int
	binary.GetUint64(data[1:], &price, &offset)
	return price, nil
}

func getInstructionData(m solana.Message, index int, cmd command, size int) ([]byte, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || command(i.Data[0]) != cmd {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Data) != size {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return i.Data, nil
}
