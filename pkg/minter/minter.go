package minter

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/token-minter/pkg/cache"
	"github.com/code-payments/token-minter/pkg/metrics"
	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/token"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

const (
	metricsStructName = "minter"

	tokenTransactionCreatedEventName   = "TokenTransactionCreated"
	tokenTransactionSubmittedEventName = "TokenTransactionSubmitted"

	rentCacheTTL = time.Hour

	// Immutable metadata accounts never change, so entries only leave the
	// cache through eviction.
	metadataCacheBudget = 10_000
)

var (
	ErrTokenCreationDisabled = errors.New("token creation is disabled")
	ErrTokenNotFound         = errors.New("token not found")
)

// Minter composes token creation transactions for a wallet to countersign,
// and reads back the resulting on-chain state.
type Minter struct {
	log  *logrus.Entry
	conf *conf

	sc solana.Client
	tc *token.Client

	// Optional. Recorded as the update authority of immutable tokens.
	updateAuthority ed25519.PrivateKey

	generateMintKey func() (ed25519.PrivateKey, error)

	rentCache     cache.Cache[uint64]
	metadataCache cache.Cache[*tokenmetadata.MetadataAccount]
}

func New(sc solana.Client, updateAuthority ed25519.PrivateKey, configProvider ConfigProvider) *Minter {
	return &Minter{
		log:             logrus.StandardLogger().WithField("type", "minter"),
		conf:            configProvider(),
		sc:              sc,
		tc:              token.NewClient(sc),
		updateAuthority: updateAuthority,
		generateMintKey: func() (ed25519.PrivateKey, error) {
			_, priv, err := ed25519.GenerateKey(nil)
			return priv, err
		},
		rentCache:     cache.NewCache[uint64](16, rentCacheTTL),
		metadataCache: cache.NewCache[*tokenmetadata.MetadataAccount](metadataCacheBudget, 0),
	}
}

type CreateTokenResult struct {
	Mint              ed25519.PublicKey
	Metadata          ed25519.PublicKey
	MetadataBump      uint8
	AssociatedAccount ed25519.PublicKey
	UpdateAuthority   ed25519.PublicKey
	IsMutable         bool

	// Transaction is signed by the mint, and by the service update authority
	// when it is used. The owner's signature is left for the wallet.
	Transaction  solana.Transaction
	Instructions []solana.Instruction
}

func (m *Minter) CreateToken(ctx context.Context, req *CreateTokenRequest) (res *CreateTokenResult, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateToken")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if m.conf.disableTokenCreation.Get(ctx) {
		return nil, ErrTokenCreationDisabled
	}

	validated, err := req.validate()
	if err != nil {
		return nil, err
	}

	log := m.log.WithFields(logrus.Fields{
		"method": "CreateToken",
		"owner":  req.Owner,
		"policy": validated.policy,
	})

	signers := make([]ed25519.PrivateKey, 0, 2)

	updateAuthority := validated.owner
	isMutable := true
	if validated.policy == PolicyImmutable {
		isMutable = false
		if m.updateAuthority != nil {
			updateAuthority = m.updateAuthority.Public().(ed25519.PublicKey)
			signers = append(signers, m.updateAuthority)
		}
	}

	// Only the update authority signs, so it is the only creator that can be
	// marked verified.
	for i, c := range req.Creators {
		if c.Verified && c.Address != base58.Encode(updateAuthority) {
			return nil, errors.Wrapf(ErrInvalidRequest, "creators[%d] cannot be verified", i)
		}
	}

	mintKey, err := m.generateMintKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mint key")
	}
	mint := mintKey.Public().(ed25519.PublicKey)
	signers = append(signers, mintKey)

	log = log.WithField("mint", base58.Encode(mint))

	rent, err := m.getRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		log.WithError(err).Warn("failure getting rent exemption")
		return nil, errors.Wrap(err, "failed to get mint rent exemption")
	}

	computeUnitLimit := m.conf.computeUnitLimit.Get(ctx)
	if computeUnitLimit > math.MaxUint32 {
		computeUnitLimit = math.MaxUint32
	}

	instructions, accounts, err := makeCreateTokenInstructions(&createTokenParams{
		req:              validated,
		mint:             mint,
		updateAuthority:  updateAuthority,
		isMutable:        isMutable,
		rentLamports:     rent,
		computeUnitLimit: uint32(computeUnitLimit),
		computeUnitPrice: m.conf.computeUnitPrice.Get(ctx),
	})
	if err != nil {
		return nil, err
	}

	blockhash, err := m.sc.GetLatestBlockhash(ctx)
	if err != nil {
		log.WithError(err).Warn("failure getting recent blockhash")
		return nil, errors.Wrap(err, "failed to get recent blockhash")
	}

	txn := solana.NewTransaction(validated.owner, instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(signers...); err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if len(txn.Marshal()) > solana.MaxTransactionSize {
		return nil, errors.Wrap(ErrInvalidRequest, solana.ErrTransactionTooLarge.Error())
	}

	log.WithField("metadata", base58.Encode(accounts.metadata)).Info("token creation transaction composed")

	metrics.RecordEvent(ctx, tokenTransactionCreatedEventName, map[string]any{
		"mint":       base58.Encode(mint),
		"owner":      req.Owner,
		"is_mutable": isMutable,
	})

	return &CreateTokenResult{
		Mint:              mint,
		Metadata:          accounts.metadata,
		MetadataBump:      accounts.metadataBump,
		AssociatedAccount: accounts.associatedAccount,
		UpdateAuthority:   updateAuthority,
		IsMutable:         isMutable,
		Transaction:       txn,
		Instructions:      instructions,
	}, nil
}

type SubmitResult struct {
	Signature solana.Signature
	Mint      ed25519.PublicKey
	Metadata  ed25519.PublicKey
}

// Submit sends a countersigned token creation transaction to the network.
// Anything other than a complete token creation transaction is rejected
// with ErrInvalidTransaction.
func (m *Minter) Submit(ctx context.Context, txn solana.Transaction) (res *SubmitResult, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Submit")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	parsed, err := parseCreateTokenTransaction(txn)
	if err != nil {
		return nil, err
	}

	log := m.log.WithFields(logrus.Fields{
		"method":             "Submit",
		"mint":               base58.Encode(parsed.mint.Mint),
		"compute_unit_limit": parsed.computeUnitLimit,
		"compute_unit_price": parsed.computeUnitPrice,
		"revoked":            len(parsed.revoked),
	})
	if parsed.mintTo != nil {
		log = log.WithField("amount", parsed.mintTo.Amount)
	}

	sig, err := m.sc.SubmitTransaction(ctx, txn, m.submitCommitment(ctx))
	if err != nil {
		log.WithError(err).Warn("failure submitting transaction")
		return nil, err
	}

	log.WithField("signature", base58.Encode(sig[:])).Info("token creation transaction submitted")

	metrics.RecordEvent(ctx, tokenTransactionSubmittedEventName, map[string]any{
		"mint":      base58.Encode(parsed.mint.Mint),
		"signature": base58.Encode(sig[:]),
	})

	return &SubmitResult{
		Signature: sig,
		Mint:      parsed.mint.Mint,
		Metadata:  parsed.metadata.Metadata,
	}, nil
}

type TokenInfo struct {
	Mint            ed25519.PublicKey
	State           *token.Mint
	MetadataAddress ed25519.PublicKey

	// Metadata is nil when the mint has no metadata account.
	Metadata *tokenmetadata.MetadataAccount
}

func (m *Minter) GetToken(ctx context.Context, mint ed25519.PublicKey) (*TokenInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetToken")
	defer tracer.End()

	state, err := m.tc.GetMint(ctx, mint, solana.CommitmentConfirmed)
	if err == token.ErrAccountNotFound {
		return nil, ErrTokenNotFound
	} else if err != nil {
		return nil, err
	}

	metadataAddress, _, err := tokenmetadata.GetMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	info := &TokenInfo{
		Mint:            mint,
		State:           state,
		MetadataAddress: metadataAddress,
	}

	cacheKey := base58.Encode(metadataAddress)
	if cached, ok := m.metadataCache.Retrieve(cacheKey); ok {
		info.Metadata = cached
		return info, nil
	}

	accountInfo, err := m.sc.GetAccountInfo(ctx, metadataAddress, solana.CommitmentConfirmed)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return info, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get metadata account")
	}

	if !bytes.Equal(accountInfo.Owner, tokenmetadata.ProgramKey) {
		return nil, errors.Wrap(tokenmetadata.ErrInvalidAccountData, "metadata account has unexpected owner")
	}

	var metadata tokenmetadata.MetadataAccount
	if err := metadata.Unmarshal(accountInfo.Data); err != nil {
		return nil, err
	}
	info.Metadata = &metadata

	if !metadata.IsMutable {
		_ = m.metadataCache.Insert(cacheKey, &metadata, 1)
	}

	return info, nil
}

func (m *Minter) getRentExemption(ctx context.Context, size uint64) (uint64, error) {
	cacheKey := fmt.Sprintf("%d", size)
	if cached, ok := m.rentCache.Retrieve(cacheKey); ok {
		return cached, nil
	}

	rent, err := m.sc.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, err
	}

	_ = m.rentCache.Insert(cacheKey, rent, 1)
	return rent, nil
}

func (m *Minter) submitCommitment(ctx context.Context) solana.Commitment {
	switch value := m.conf.submitCommitment.Get(ctx); value {
	case solana.CommitmentProcessed.Commitment, solana.CommitmentConfirmed.Commitment, solana.CommitmentFinalized.Commitment:
		return solana.Commitment{Commitment: value}
	default:
		m.log.WithField("commitment", value).Warn("unknown submit commitment, using confirmed")
		return solana.CommitmentConfirmed
	}
}
