package tokenmetadata

import (
	"crypto/ed25519"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/system"
)

func TestCreateMetadataAccountV3_EndToEnd(t *testing.T) {
	accounts := testAccounts(t)
	args := &CreateMetadataAccountV3InstructionArgs{
		Data: DataV2{
			Name:   "Moon",
			Symbol: "MOON",
			Uri:    "https://x/y",
			Creators: []Creator{
				{Address: base58.Encode(accounts.MintAuthority), Share: 100},
			},
		},
		IsMutable: true,
	}

	expectedSize := (4 + 4) + (4 + 4) + (4 + 11) + 2 + (1 + 4 + (32 + 1 + 1)) + 1 + 1 + 1 + 1
	require.Equal(t, 76, expectedSize)

	encoded, err := MarshalCreateMetadataAccountV3Args(args)
	require.NoError(t, err)
	assert.Len(t, encoded, expectedSize)
	assert.Equal(t, args.Size(), len(encoded))
	assert.EqualValues(t, 1, encoded[len(encoded)-1])
	assert.EqualValues(t, 0, encoded[len(encoded)-2])

	instruction, err := NewCreateMetadataAccountV3Instruction(accounts, args)
	require.NoError(t, err)
	require.Len(t, instruction.Data, expectedSize+1)
	assert.EqualValues(t, 33, instruction.Data[0])
	assert.Equal(t, encoded, instruction.Data[1:])
	assert.Equal(t, ProgramKey, instruction.Program)
}

func TestCreateMetadataAccountV3_Accounts(t *testing.T) {
	accounts := testAccounts(t)
	metadata, _, err := GetMetadataAddress(accounts.Mint)
	require.NoError(t, err)

	for _, isMutable := range []bool{true, false} {
		instruction, err := NewCreateMetadataAccountV3Instruction(accounts, &CreateMetadataAccountV3InstructionArgs{
			Data:      DataV2{Name: "n"},
			IsMutable: isMutable,
		})
		require.NoError(t, err)

		expected := []solana.AccountMeta{
			{PublicKey: metadata, IsWritable: true},
			{PublicKey: accounts.Mint},
			{PublicKey: accounts.MintAuthority, IsSigner: true},
			{PublicKey: accounts.Payer, IsSigner: true},
			{PublicKey: accounts.UpdateAuthority, IsSigner: true},
			{PublicKey: system.ProgramKey},
		}
		assert.Equal(t, expected, instruction.Accounts)
	}
}

func TestCreateMetadataAccountV3_IsMutableIsTrailingByte(t *testing.T) {
	args := &CreateMetadataAccountV3InstructionArgs{Data: testDataV2(t)}

	immutable, err := MarshalCreateMetadataAccountV3Args(args)
	require.NoError(t, err)

	args.IsMutable = true
	mutable, err := MarshalCreateMetadataAccountV3Args(args)
	require.NoError(t, err)

	require.Len(t, mutable, len(immutable))
	n := len(mutable)
	assert.Equal(t, immutable[:n-1], mutable[:n-1])
	assert.EqualValues(t, 0, immutable[n-1])
	assert.EqualValues(t, 1, mutable[n-1])
}

func TestCreateMetadataAccountV3_InvalidInput(t *testing.T) {
	accounts := testAccounts(t)

	args := &CreateMetadataAccountV3InstructionArgs{
		Data: DataV2{Collection: &Collection{Key: base58.Encode(make([]byte, 16))}},
	}
	encoded, err := MarshalCreateMetadataAccountV3Args(args)
	assert.True(t, errors.Is(err, ErrInvalidPublicKey))
	assert.Nil(t, encoded)

	instruction, err := NewCreateMetadataAccountV3Instruction(accounts, args)
	assert.True(t, errors.Is(err, ErrInvalidPublicKey))
	assert.Nil(t, instruction.Data)
	assert.Nil(t, instruction.Accounts)

	args = &CreateMetadataAccountV3InstructionArgs{Data: DataV2{Uses: Uses(3)}}
	_, err = NewCreateMetadataAccountV3Instruction(accounts, args)
	assert.True(t, errors.Is(err, ErrUnsupportedValue))

	short := *accounts
	short.Payer = short.Payer[:31]
	_, err = NewCreateMetadataAccountV3Instruction(&short, &CreateMetadataAccountV3InstructionArgs{})
	assert.True(t, errors.Is(err, ErrInvalidPublicKey))
}

func TestCreateMetadataAccountV3_DerivationFailure(t *testing.T) {
	defer func(orig func(ed25519.PublicKey, ...[]byte) (ed25519.PublicKey, uint8, error)) {
		findProgramAddress = orig
	}(findProgramAddress)

	findProgramAddress = func(ed25519.PublicKey, ...[]byte) (ed25519.PublicKey, uint8, error) {
		return nil, 0, solana.ErrAddressDerivationFailed
	}

	instruction, err := NewCreateMetadataAccountV3Instruction(testAccounts(t), &CreateMetadataAccountV3InstructionArgs{})
	assert.True(t, errors.Is(err, ErrAddressDerivationFailed))
	assert.Nil(t, instruction.Data)
}

func TestCreateMetadataAccountV3_Unmarshal(t *testing.T) {
	args := &CreateMetadataAccountV3InstructionArgs{Data: testDataV2(t), IsMutable: true}
	encoded, err := MarshalCreateMetadataAccountV3Args(args)
	require.NoError(t, err)

	actual, err := UnmarshalCreateMetadataAccountV3Args(encoded)
	require.NoError(t, err)
	assert.Equal(t, args, actual)

	_, err = UnmarshalCreateMetadataAccountV3Args(append(encoded, 0))
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	_, err = UnmarshalCreateMetadataAccountV3Args(encoded[:len(encoded)-1])
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	corrupt := append([]byte{}, encoded...)
	corrupt[len(corrupt)-2] = 1
	_, err = UnmarshalCreateMetadataAccountV3Args(corrupt)
	assert.True(t, errors.Is(err, ErrUnsupportedValue))

	corrupt[len(corrupt)-2] = 0
	corrupt[len(corrupt)-1] = 7
	_, err = UnmarshalCreateMetadataAccountV3Args(corrupt)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))
}

func TestCreateMetadataAccountV3_Decompile(t *testing.T) {
	accounts := testAccounts(t)
	args := &CreateMetadataAccountV3InstructionArgs{Data: testDataV2(t), IsMutable: true}

	instruction, err := NewCreateMetadataAccountV3Instruction(accounts, args)
	require.NoError(t, err)

	tx := solana.NewTransaction(accounts.Payer, instruction)

	decompiled, err := DecompileCreateMetadataAccountV3(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, instruction.Accounts[0].PublicKey, decompiled.Metadata)
	assert.Equal(t, accounts.Mint, decompiled.Mint)
	assert.Equal(t, accounts.MintAuthority, decompiled.MintAuthority)
	assert.Equal(t, accounts.Payer, decompiled.Payer)
	assert.Equal(t, accounts.UpdateAuthority, decompiled.UpdateAuthority)
	assert.Equal(t, *args, decompiled.Args)

	_, err = DecompileCreateMetadataAccountV3(tx.Message, 1)
	assert.Error(t, err)

	other := solana.NewTransaction(accounts.Payer, system.CreateAccount(accounts.Payer, accounts.Mint, ProgramKey, 1, 1))
	_, err = DecompileCreateMetadataAccountV3(other.Message, 0)
	assert.True(t, errors.Is(err, solana.ErrIncorrectProgram))

	instruction.Data[0] = 32
	tx = solana.NewTransaction(accounts.Payer, instruction)
	_, err = DecompileCreateMetadataAccountV3(tx.Message, 0)
	assert.True(t, errors.Is(err, solana.ErrIncorrectInstruction))
}

func TestCreateMetadataAccountV3_DecompileAccountFlags(t *testing.T) {
	accounts := testAccounts(t)
	args := &CreateMetadataAccountV3InstructionArgs{Data: testDataV2(t), IsMutable: true}

	build := func(modify func(*solana.Instruction)) solana.Message {
		instruction, err := NewCreateMetadataAccountV3Instruction(accounts, args)
		require.NoError(t, err)
		modify(&instruction)
		tx := solana.NewTransaction(accounts.Payer, instruction)
		return tx.Message
	}

	readonlyMetadata := build(func(i *solana.Instruction) { i.Accounts[0].IsWritable = false })
	_, err := DecompileCreateMetadataAccountV3(readonlyMetadata, 0)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	for _, j := range []int{2, 4} {
		unsigned := build(func(i *solana.Instruction) { i.Accounts[j].IsSigner = false })
		_, err = DecompileCreateMetadataAccountV3(unsigned, 0)
		assert.True(t, errors.Is(err, ErrInvalidInstructionData), "account %d", j)
	}

	// Metadata and mint transposed: the mint is neither writable nor the
	// metadata address, and the metadata address is not a signer.
	transposed := build(func(*solana.Instruction) {})
	compiled := &transposed.Instructions[0]
	compiled.Accounts[0], compiled.Accounts[1] = compiled.Accounts[1], compiled.Accounts[0]
	_, err = DecompileCreateMetadataAccountV3(transposed, 0)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	// Authority swapped with the metadata account, which never signs.
	swapped := build(func(*solana.Instruction) {})
	compiled = &swapped.Instructions[0]
	compiled.Accounts[0], compiled.Accounts[2] = compiled.Accounts[2], compiled.Accounts[0]
	_, err = DecompileCreateMetadataAccountV3(swapped, 0)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	_, err = DecompileCreateMetadataAccountV3(build(func(*solana.Instruction) {}), 0)
	assert.NoError(t, err)
}

// The field layout matches an independent Borsh decoder.
func TestCreateMetadataAccountV3_BorshLayout(t *testing.T) {
	type creator struct {
		Address  [32]byte
		Verified bool
		Share    uint8
	}
	type collection struct {
		Key      [32]byte
		Verified bool
	}
	type uses struct {
		UseMethod uint8
		Remaining uint64
		Total     uint64
	}
	type layout struct {
		Name                 string
		Symbol               string
		Uri                  string
		SellerFeeBasisPoints uint16
		Creators             *[]creator
		Collection           *collection
		Uses                 *uses
		CollectionDetails    *uint64
		IsMutable            bool
	}

	creatorKey := generateKey(t)
	collectionKey := generateKey(t)
	args := &CreateMetadataAccountV3InstructionArgs{
		Data: DataV2{
			Name:                 "Moon",
			Symbol:               "MOON",
			Uri:                  "https://x/y",
			SellerFeeBasisPoints: 500,
			Creators:             []Creator{{Address: base58.Encode(creatorKey), Verified: true, Share: 100}},
			Collection:           &Collection{Key: base58.Encode(collectionKey), Verified: true},
		},
		IsMutable: true,
	}

	encoded, err := MarshalCreateMetadataAccountV3Args(args)
	require.NoError(t, err)

	var actual layout
	require.NoError(t, borsh.Deserialize(&actual, encoded))

	assert.Equal(t, "Moon", actual.Name)
	assert.Equal(t, "MOON", actual.Symbol)
	assert.Equal(t, "https://x/y", actual.Uri)
	assert.EqualValues(t, 500, actual.SellerFeeBasisPoints)
	require.NotNil(t, actual.Creators)
	require.Len(t, *actual.Creators, 1)
	assert.Equal(t, []byte(creatorKey), (*actual.Creators)[0].Address[:])
	assert.True(t, (*actual.Creators)[0].Verified)
	assert.EqualValues(t, 100, (*actual.Creators)[0].Share)
	require.NotNil(t, actual.Collection)
	assert.Equal(t, []byte(collectionKey), actual.Collection.Key[:])
	assert.True(t, actual.Collection.Verified)
	assert.Nil(t, actual.Uses)
	assert.Nil(t, actual.CollectionDetails)
	assert.True(t, actual.IsMutable)
}

// Without a collection, and with is_mutable unset, the payload is identical to
// the one produced by the blocto SDK, which places is_mutable ahead of
// collection_details.
func TestCreateMetadataAccountV3_BloctoCrossImpl(t *testing.T) {
	accounts := testAccounts(t)

	instruction, err := NewCreateMetadataAccountV3Instruction(accounts, &CreateMetadataAccountV3InstructionArgs{
		Data: DataV2{
			Name:                 "Moon",
			Symbol:               "MOON",
			Uri:                  "https://x/y",
			SellerFeeBasisPoints: 500,
			Creators:             []Creator{{Address: base58.Encode(accounts.MintAuthority), Verified: true, Share: 100}},
		},
	})
	require.NoError(t, err)

	mint := common.PublicKeyFromBytes(accounts.Mint)
	metadata, err := token_metadata.GetTokenMetaPubkey(mint)
	require.NoError(t, err)
	assert.Equal(t, metadata.Bytes(), []byte(instruction.Accounts[0].PublicKey))

	authority := common.PublicKeyFromBytes(accounts.MintAuthority)
	expected := token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                metadata,
		Mint:                    mint,
		MintAuthority:           authority,
		Payer:                   common.PublicKeyFromBytes(accounts.Payer),
		UpdateAuthority:         common.PublicKeyFromBytes(accounts.UpdateAuthority),
		UpdateAuthorityIsSigner: true,
		IsMutable:               false,
		Data: token_metadata.DataV2{
			Name:                 "Moon",
			Symbol:               "MOON",
			Uri:                  "https://x/y",
			SellerFeeBasisPoints: 500,
			Creators: &[]token_metadata.Creator{
				{Address: authority, Verified: true, Share: 100},
			},
		},
	})
	assert.Equal(t, expected.Data, instruction.Data)
}

func testAccounts(t *testing.T) *CreateMetadataAccountV3InstructionAccounts {
	return &CreateMetadataAccountV3InstructionAccounts{
		Mint:            generateKey(t),
		MintAuthority:   generateKey(t),
		Payer:           generateKey(t),
		UpdateAuthority: generateKey(t),
	}
}
