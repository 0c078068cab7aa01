package testutil

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// FakeSolanaClient is an in memory solana.Client. Submitted transactions are
// recorded, but never applied to Accounts.
type FakeSolanaClient struct {
	sync.Mutex

	Blockhash solana.Blockhash
	Rent      uint64
	Accounts  map[string]solana.AccountInfo
	Submitted []solana.Transaction

	// Err fails every call. SubmitErr fails only SubmitTransaction.
	Err       error
	SubmitErr error
}

func NewFakeSolanaClient() *FakeSolanaClient {
	return &FakeSolanaClient{
		Blockhash: sha256.Sum256([]byte("blockhash")),
		Rent:      1461600,
		Accounts:  make(map[string]solana.AccountInfo),
	}
}

func (c *FakeSolanaClient) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	c.Lock()
	defer c.Unlock()

	c.Accounts[base58.Encode(address)] = info
}

func (c *FakeSolanaClient) GetAccountInfo(_ context.Context, account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.Lock()
	defer c.Unlock()

	if c.Err != nil {
		return solana.AccountInfo{}, c.Err
	}

	info, ok := c.Accounts[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *FakeSolanaClient) GetLatestBlockhash(_ context.Context) (solana.Blockhash, error) {
	c.Lock()
	defer c.Unlock()

	return c.Blockhash, c.Err
}

func (c *FakeSolanaClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.Lock()
	defer c.Unlock()

	return c.Rent, c.Err
}

func (c *FakeSolanaClient) SubmitTransaction(_ context.Context, txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.Lock()
	defer c.Unlock()

	if c.Err != nil {
		return solana.Signature{}, c.Err
	}
	if c.SubmitErr != nil {
		return solana.Signature{}, c.SubmitErr
	}

	c.Submitted = append(c.Submitted, txn)

	var sig solana.Signature
	copy(sig[:], txn.Signature())
	return sig, nil
}
