package testutil

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/solana"
)

func TestFakeSolanaClient(t *testing.T) {
	ctx := context.Background()
	client := NewFakeSolanaClient()
	keys := GenerateSolanaKeys(t, 2)

	_, err := client.GetAccountInfo(ctx, keys[0], solana.CommitmentConfirmed)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	client.SetAccount(keys[0], solana.AccountInfo{Owner: keys[1], Lamports: 10})
	info, err := client.GetAccountInfo(ctx, keys[0], solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 10, info.Lamports)

	payer := GenerateSolanaKeypair(t)
	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), solana.NewInstruction(keys[1], []byte{1}))
	require.NoError(t, txn.Sign(payer))

	sig, err := client.SubmitTransaction(ctx, txn, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)
	assert.Len(t, client.Submitted, 1)

	client.Err = errors.New("unavailable")
	_, err = client.GetLatestBlockhash(ctx)
	assert.Error(t, err)
}
