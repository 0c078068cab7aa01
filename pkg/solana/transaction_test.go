package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Taken from: https://github.com/solana-labs/solana/blob/14339dec0a960e8161d1165b6a8e5cfb73e78f23/sdk/src/transaction.rs#L523
const rustGenerated = "AUc7Cbu+gZalFSGeSFdukHhP7oSGaSdmdNEd5ZokaSysdoMWfIOzjrAbdaBZZuDMAfyNAogAJdrhgVya+jthsgoBAAEDnON0wdcmjhYIDuXvd10F2qEjAyEAJGSe/CGhYbk+WWMBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

// The above example does not have the correct public key encoded in the keypair.
// This is the above example with the correctly generated keypair.
const rustGeneratedAdjusted = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

func TestTransaction_CrossImpl(t *testing.T) {
	keypair := ed25519.PrivateKey{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75, 156, 227, 116, 193, 215, 38, 142, 22, 8,
		14, 229, 239, 119, 93, 5, 218, 161, 35, 3, 33, 0, 36, 100, 158, 252, 33, 161, 97, 185,
		62, 89, 99}
	programID := ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	to := ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx := NewTransaction(
		keypair.Public().(ed25519.PublicKey),
		NewInstruction(
			programID,
			[]byte{1, 2, 3},
			NewAccountMeta(keypair.Public().(ed25519.PublicKey), true),
			NewAccountMeta(to, false),
		),
	)
	require.NoError(t, tx.Sign(keypair))

	generated, err := base64.StdEncoding.DecodeString(rustGenerated)
	require.NoError(t, err)
	assert.Equal(t, generated, tx.Marshal())
}

func TestTransaction_GenerateValidCrossImpl(t *testing.T) {
	keypair := ed25519.NewKeyFromSeed([]byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75})
	programID := ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	to := ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx := NewTransaction(
		keypair.Public().(ed25519.PublicKey),
		NewInstruction(
			programID,
			[]byte{1, 2, 3},
			NewAccountMeta(keypair.Public().(ed25519.PublicKey), true),
			NewAccountMeta(to, false),
		),
	)
	require.NoError(t, tx.Sign(keypair))

	encoded, err := tx.ToBase64()
	require.NoError(t, err)
	assert.Equal(t, rustGeneratedAdjusted, encoded)

	decoded, err := TransactionFromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, tx.Marshal(), decoded.Marshal())
	assert.True(t, decoded.IsSignedBy(keypair.Public().(ed25519.PublicKey)))
}

func TestTransaction_AccountOrdering(t *testing.T) {
	payer := generateKey(t)
	program := generateKey(t)
	keys := []ed25519.PrivateKey{generateKey(t), generateKey(t), generateKey(t), generateKey(t)}
	data := []byte{1, 2, 3}

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			data,
			NewReadonlyAccountMeta(public(keys[0]), true),
			NewReadonlyAccountMeta(public(keys[1]), false),
			NewAccountMeta(public(keys[2]), false),
			NewAccountMeta(public(keys[3]), true),
		),
	)

	// Intentionally sign out of order to ensure ordering is fixed.
	assert.NoError(t, tx.Sign(keys[0], keys[3], payer))

	require.Len(t, tx.Signatures, 3)
	require.Len(t, tx.Message.Accounts, 6)
	assert.EqualValues(t, 3, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 2, tx.Message.Header.NumReadOnly)

	message := tx.Message.Marshal()
	assert.True(t, ed25519.Verify(public(payer), message, tx.Signatures[0][:]))
	assert.True(t, ed25519.Verify(public(keys[3]), message, tx.Signatures[1][:]))
	assert.True(t, ed25519.Verify(public(keys[0]), message, tx.Signatures[2][:]))

	assert.Equal(t, public(payer), tx.Message.Accounts[0])
	assert.Equal(t, public(keys[3]), tx.Message.Accounts[1])
	assert.Equal(t, public(keys[0]), tx.Message.Accounts[2])
	assert.Equal(t, public(keys[2]), tx.Message.Accounts[3])
	assert.Equal(t, public(keys[1]), tx.Message.Accounts[4])
	assert.Equal(t, public(program), tx.Message.Accounts[5])

	assert.Equal(t, byte(5), tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, data, tx.Message.Instructions[0].Data)
	assert.Equal(t, []byte{2, 4, 3, 1}, tx.Message.Instructions[0].Accounts)

	for i, expected := range []struct{ signer, writable bool }{
		{true, true},
		{true, true},
		{true, false},
		{false, true},
		{false, false},
		{false, false},
	} {
		assert.Equal(t, expected.signer, tx.Message.IsSigner(i), "signer %d", i)
		assert.Equal(t, expected.writable, tx.Message.IsWritable(i), "writable %d", i)
	}
	assert.False(t, tx.Message.IsSigner(6))
	assert.False(t, tx.Message.IsWritable(6))
	assert.False(t, tx.Message.IsWritable(-1))
}

func TestTransaction_PartialSigning(t *testing.T) {
	payer := generateKey(t)
	cosigner := generateKey(t)
	program := generateKey(t)

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			[]byte{7},
			NewAccountMeta(public(cosigner), true),
		),
	)
	tx.SetBlockhash(Blockhash{1, 2, 3})

	require.NoError(t, tx.Sign(cosigner))
	assert.True(t, tx.IsSignedBy(public(cosigner)))
	assert.False(t, tx.IsSignedBy(public(payer)))
	assert.Equal(t, []ed25519.PublicKey{public(payer), public(cosigner)}, tx.Signers())

	// The wallet side completes the signature set on the decoded copy.
	encoded, err := tx.ToBase64()
	require.NoError(t, err)
	decoded, err := TransactionFromBase64(encoded)
	require.NoError(t, err)
	require.NoError(t, decoded.Sign(payer))
	assert.True(t, decoded.IsSignedBy(public(payer)))
	assert.True(t, decoded.IsSignedBy(public(cosigner)))

	// Keys outside the signer set are rejected.
	assert.Error(t, tx.Sign(program))
	assert.Error(t, tx.Sign(generateKey(t)))
}

func TestTransaction_InvalidIndexes(t *testing.T) {
	payer := generateKey(t)
	program := generateKey(t)

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			nil,
			NewAccountMeta(public(payer), true),
		),
	)
	tx.Message.Instructions[0].ProgramIndex = 2
	assert.Error(t, tx.Unmarshal(tx.Marshal()))

	tx = NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			nil,
			NewAccountMeta(public(payer), true),
		),
	)
	tx.Message.Instructions[0].Accounts = []byte{2}
	assert.Error(t, tx.Unmarshal(tx.Marshal()))
}

func TestTransaction_TooLarge(t *testing.T) {
	payer := generateKey(t)
	program := generateKey(t)

	tx := NewTransaction(
		public(payer),
		NewInstruction(public(program), make([]byte, MaxTransactionSize)),
	)

	_, err := tx.ToBase64()
	assert.True(t, errors.Is(err, ErrTransactionTooLarge))

	_, err = TransactionFromBase64("not base64!")
	assert.Error(t, err)
}

func TestInstructionJSON_RoundTrip(t *testing.T) {
	program := generateKey(t)
	a := generateKey(t)
	b := generateKey(t)

	instruction := NewInstruction(
		public(program),
		[]byte{33, 0, 1, 2},
		NewAccountMeta(public(a), false),
		NewReadonlyAccountMeta(public(b), true),
	)

	j := instruction.ToJSON()
	assert.Equal(t, base58.Encode(public(program)), j.ProgramID)
	assert.Equal(t, "IQABAg==", j.Data)
	require.Len(t, j.Accounts, 2)
	assert.True(t, j.Accounts[0].IsWritable)
	assert.False(t, j.Accounts[0].IsSigner)
	assert.False(t, j.Accounts[1].IsWritable)
	assert.True(t, j.Accounts[1].IsSigner)

	actual, err := j.FromJSON()
	require.NoError(t, err)
	assert.Equal(t, instruction, actual)

	j.Accounts[1].PublicKey = "short"
	_, err = j.FromJSON()
	assert.True(t, errors.Is(err, ErrInvalidPublicKey))

	j = instruction.ToJSON()
	j.Data = "%%%"
	_, err = j.FromJSON()
	assert.Error(t, err)
}

func generateKey(t *testing.T) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}
