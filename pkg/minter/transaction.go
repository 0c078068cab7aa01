package minter

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/computebudget"
	"github.com/code-payments/token-minter/pkg/solana/memo"
	"github.com/code-payments/token-minter/pkg/solana/system"
	"github.com/code-payments/token-minter/pkg/solana/token"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

// ErrInvalidTransaction is wrapped when a submitted transaction is not a
// complete, fully signed token creation transaction.
var ErrInvalidTransaction = errors.New("invalid transaction")

type createTokenParams struct {
	req *validatedRequest

	mint            ed25519.PublicKey
	updateAuthority ed25519.PublicKey
	isMutable       bool
	rentLamports    uint64

	computeUnitLimit uint32
	computeUnitPrice uint64
}

type createTokenAccounts struct {
	metadata          ed25519.PublicKey
	metadataBump      uint8
	associatedAccount ed25519.PublicKey
}

// makeCreateTokenInstructions returns the instructions creating a token, in
// execution order:
//
//  1. compute budget limit and price, when configured
//  2. allocate the mint account
//  3. initialize the mint, with the owner as mint and freeze authority
//  4. create the metadata account
//  5. create the owner's associated token account
//  6. mint the initial supply, when non-zero
//  7. revoke the mint and freeze authorities, when requested
//  8. memo, when provided
func makeCreateTokenInstructions(p *createTokenParams) ([]solana.Instruction, *createTokenAccounts, error) {
	owner := p.req.owner

	var instructions []solana.Instruction
	if p.computeUnitLimit > 0 {
		instructions = append(instructions, computebudget.SetComputeUnitLimit(p.computeUnitLimit))
	}
	if p.computeUnitPrice > 0 {
		instructions = append(instructions, computebudget.SetComputeUnitPrice(p.computeUnitPrice))
	}

	instructions = append(
		instructions,
		system.CreateAccount(owner, p.mint, token.ProgramKey, p.rentLamports, token.MintAccountSize),
		token.InitializeMint(p.mint, p.req.Decimals, owner, owner),
	)

	metadataAddress, metadataBump, err := tokenmetadata.GetMetadataAddress(p.mint)
	if err != nil {
		return nil, nil, err
	}

	createMetadata, err := tokenmetadata.NewCreateMetadataAccountV3Instruction(
		&tokenmetadata.CreateMetadataAccountV3InstructionAccounts{
			Mint:            p.mint,
			MintAuthority:   owner,
			Payer:           owner,
			UpdateAuthority: p.updateAuthority,
		},
		&tokenmetadata.CreateMetadataAccountV3InstructionArgs{
			Data: tokenmetadata.DataV2{
				Name:                 p.req.Name,
				Symbol:               p.req.Symbol,
				Uri:                  p.req.Uri,
				SellerFeeBasisPoints: p.req.SellerFeeBasisPoints,
				Creators:             p.req.Creators,
				Collection:           p.req.Collection,
				Uses:                 tokenmetadata.UsesAbsent,
			},
			IsMutable: p.isMutable,
		},
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create metadata instruction")
	}
	instructions = append(instructions, createMetadata)

	createAssociatedAccount, associatedAccount, err := token.CreateAssociatedTokenAccount(owner, owner, p.mint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive associated account")
	}
	instructions = append(instructions, createAssociatedAccount)

	if p.req.amount > 0 {
		instructions = append(instructions, token.MintTo(p.mint, associatedAccount, owner, p.req.amount))
	}

	if p.req.RevokeMintAuthority {
		instructions = append(instructions, token.SetAuthority(p.mint, owner, nil, token.AuthorityTypeMintTokens))
	}
	if p.req.RevokeFreezeAuthority {
		instructions = append(instructions, token.SetAuthority(p.mint, owner, nil, token.AuthorityTypeFreezeAccount))
	}

	if len(p.req.Memo) > 0 {
		memoInstruction, err := memo.Instruction(p.req.Memo, owner)
		if err != nil {
			return nil, nil, errors.Wrapf(ErrInvalidRequest, "memo: %v", err)
		}
		instructions = append(instructions, memoInstruction)
	}

	return instructions, &createTokenAccounts{
		metadata:          metadataAddress,
		metadataBump:      metadataBump,
		associatedAccount: associatedAccount,
	}, nil
}

type parsedCreateToken struct {
	createAccount     *system.DecompiledCreateAccount
	mint              *token.DecompiledInitializeMint
	metadata          *tokenmetadata.DecompiledCreateMetadataAccountV3
	associatedAccount *token.DecompiledCreateAssociatedAccount
	mintTo            *token.DecompiledMintTo
	revoked           []token.AuthorityType
	memo              *memo.DecompiledMemo

	computeUnitLimit uint32
	computeUnitPrice uint64
}

// parseCreateTokenTransaction checks that txn is a fully signed transaction
// creating exactly one mint and its metadata account. Every instruction must
// be one makeCreateTokenInstructions can emit, and must target that mint.
func parseCreateTokenTransaction(txn solana.Transaction) (*parsedCreateToken, error) {
	for _, signer := range txn.Signers() {
		if !txn.IsSignedBy(signer) {
			return nil, errors.Wrapf(ErrInvalidTransaction, "missing signature for %s", base58.Encode(signer))
		}
	}

	var parsed parsedCreateToken
	for i, instruction := range txn.Message.Instructions {
		if err := parsed.add(txn.Message, i, txn.Message.Accounts[instruction.ProgramIndex]); err != nil {
			return nil, errors.Wrapf(ErrInvalidTransaction, "instruction %d: %v", i, err)
		}
	}

	if parsed.createAccount == nil || parsed.mint == nil || parsed.metadata == nil {
		return nil, errors.Wrap(ErrInvalidTransaction, "not a token creation transaction")
	}

	mint := parsed.mint.Mint
	if !bytes.Equal(mint, parsed.metadata.Mint) {
		return nil, errors.Wrap(ErrInvalidTransaction, "metadata is for a different mint")
	}
	if !bytes.Equal(mint, parsed.createAccount.Address) {
		return nil, errors.Wrap(ErrInvalidTransaction, "created account is not the mint")
	}
	if parsed.createAccount.Size != token.MintAccountSize || !bytes.Equal(parsed.createAccount.Owner, token.ProgramKey) {
		return nil, errors.Wrapf(
			ErrInvalidTransaction,
			"mint account allocates %d bytes owned by %s",
			parsed.createAccount.Size,
			base58.Encode(parsed.createAccount.Owner),
		)
	}
	if parsed.associatedAccount != nil && !bytes.Equal(mint, parsed.associatedAccount.Mint) {
		return nil, errors.Wrap(ErrInvalidTransaction, "associated account is for a different mint")
	}
	if parsed.mintTo != nil {
		if !bytes.Equal(mint, parsed.mintTo.Mint) {
			return nil, errors.Wrap(ErrInvalidTransaction, "mints a different token")
		}
		if parsed.associatedAccount == nil || !bytes.Equal(parsed.mintTo.Dest, parsed.associatedAccount.Address) {
			return nil, errors.Wrap(ErrInvalidTransaction, "mints outside the created associated account")
		}
	}

	expected, _, err := tokenmetadata.GetMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(expected, parsed.metadata.Metadata) {
		return nil, errors.Wrap(ErrInvalidTransaction, "metadata address mismatch")
	}

	return &parsed, nil
}

func (p *parsedCreateToken) add(m solana.Message, index int, program ed25519.PublicKey) error {
	switch {
	case bytes.Equal(program, computebudget.ProgramKey):
		if limit, err := computebudget.DecompileSetComputeUnitLimit(m, index); err == nil {
			p.computeUnitLimit = limit
			return nil
		} else if !errors.Is(err, solana.ErrIncorrectInstruction) {
			return err
		}
		price, err := computebudget.DecompileSetComputeUnitPrice(m, index)
		if err != nil {
			return err
		}
		p.computeUnitPrice = price
		return nil

	case bytes.Equal(program, system.ProgramKey):
		decompiled, err := system.DecompileCreateAccount(m, index)
		if err != nil {
			return err
		}
		if p.createAccount != nil {
			return errors.New("multiple account creations")
		}
		p.createAccount = decompiled
		return nil

	case bytes.Equal(program, tokenmetadata.ProgramKey):
		decompiled, err := tokenmetadata.DecompileCreateMetadataAccountV3(m, index)
		if err != nil {
			return err
		}
		if p.metadata != nil {
			return errors.New("multiple metadata instructions")
		}
		p.metadata = decompiled
		return nil

	case bytes.Equal(program, token.AssociatedTokenAccountProgramKey):
		decompiled, err := token.DecompileCreateAssociatedAccount(m, index)
		if err != nil {
			return err
		}
		if p.associatedAccount != nil {
			return errors.New("multiple associated account creations")
		}
		p.associatedAccount = decompiled
		return nil

	case bytes.Equal(program, token.ProgramKey):
		return p.addTokenInstruction(m, index)

	case bytes.Equal(program, memo.ProgramKey):
		decompiled, err := memo.DecompileMemo(m, index)
		if err != nil {
			return err
		}
		if p.memo != nil {
			return errors.New("multiple memos")
		}
		p.memo = decompiled
		return nil
	}

	return errors.Errorf("unexpected program %s", base58.Encode(program))
}

func (p *parsedCreateToken) addTokenInstruction(m solana.Message, index int) error {
	initialize, err := token.DecompileInitializeMint(m, index)
	if err == nil {
		if p.mint != nil {
			return errors.New("multiple mint initializations")
		}
		p.mint = initialize
		return nil
	} else if !errors.Is(err, solana.ErrIncorrectInstruction) {
		return err
	}

	mintTo, err := token.DecompileMintTo(m, index)
	if err == nil {
		if p.mintTo != nil {
			return errors.New("multiple mint instructions")
		}
		p.mintTo = mintTo
		return nil
	} else if !errors.Is(err, solana.ErrIncorrectInstruction) {
		return err
	}

	setAuthority, err := token.DecompileSetAuthority(m, index)
	if err != nil {
		return err
	}
	if p.mint == nil || !bytes.Equal(setAuthority.Account, p.mint.Mint) {
		return errors.New("authority change for an account other than the mint")
	}
	if setAuthority.NewAuthority != nil {
		return errors.New("authority change is not a revocation")
	}
	p.revoked = append(p.revoked, setAuthority.Type)
	return nil
}
