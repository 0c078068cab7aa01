package minter

import (
	"crypto/ed25519"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

const (
	MaxDecimals   = 9
	MaxMemoLength = 256
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Policy decides who may update the metadata after creation.
type Policy string

const (
	// PolicyMutable makes the owner the update authority and leaves the
	// metadata mutable.
	PolicyMutable Policy = "mutable"

	// PolicyImmutable locks the metadata at creation. When the service holds
	// an update authority key, it becomes the recorded update authority and
	// co-signs the transaction.
	PolicyImmutable Policy = "immutable"
)

// CreateTokenRequest describes a new token. Owner pays for and receives the
// initial supply, and holds the mint and freeze authorities unless revoked.
type CreateTokenRequest struct {
	Owner string `json:"owner"`

	Name                 string                    `json:"name"`
	Symbol               string                    `json:"symbol"`
	Uri                  string                    `json:"uri"`
	SellerFeeBasisPoints uint16                    `json:"seller_fee_basis_points"`
	Creators             []tokenmetadata.Creator   `json:"creators,omitempty"`
	Collection           *tokenmetadata.Collection `json:"collection,omitempty"`

	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply"`

	Policy                Policy `json:"policy,omitempty"`
	RevokeMintAuthority   bool   `json:"revoke_mint_authority"`
	RevokeFreezeAuthority bool   `json:"revoke_freeze_authority"`

	Memo string `json:"memo,omitempty"`
}

// validatedRequest is a CreateTokenRequest after validation, with keys decoded.
type validatedRequest struct {
	*CreateTokenRequest

	owner  ed25519.PublicKey
	policy Policy
	amount uint64
}

func (r *CreateTokenRequest) validate() (*validatedRequest, error) {
	owner, err := solana.PublicKeyFromBase58(r.Owner)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "owner: %v", err)
	}

	if len(r.Name) == 0 || len(r.Name) > tokenmetadata.MaxNameLength {
		return nil, errors.Wrapf(ErrInvalidRequest, "name must be 1 to %d bytes", tokenmetadata.MaxNameLength)
	}
	if len(r.Symbol) > tokenmetadata.MaxSymbolLength {
		return nil, errors.Wrapf(ErrInvalidRequest, "symbol exceeds %d bytes", tokenmetadata.MaxSymbolLength)
	}
	if len(r.Uri) == 0 || len(r.Uri) > tokenmetadata.MaxUriLength {
		return nil, errors.Wrapf(ErrInvalidRequest, "uri must be 1 to %d bytes", tokenmetadata.MaxUriLength)
	}
	for _, field := range []string{r.Name, r.Symbol, r.Uri} {
		if !utf8.ValidString(field) {
			return nil, errors.Wrap(ErrInvalidRequest, "text fields must be valid utf-8")
		}
	}
	if r.SellerFeeBasisPoints > tokenmetadata.MaxBasisPoints {
		return nil, errors.Wrapf(ErrInvalidRequest, "seller fee exceeds %d basis points", tokenmetadata.MaxBasisPoints)
	}

	if r.Creators != nil {
		if len(r.Creators) == 0 || len(r.Creators) > tokenmetadata.MaxCreatorLimit {
			return nil, errors.Wrapf(ErrInvalidRequest, "must have 1 to %d creators", tokenmetadata.MaxCreatorLimit)
		}

		var total int
		seen := make(map[string]struct{})
		for i, c := range r.Creators {
			if _, err := solana.PublicKeyFromBase58(c.Address); err != nil {
				return nil, errors.Wrapf(ErrInvalidRequest, "creators[%d].address: %v", i, err)
			}
			if _, ok := seen[c.Address]; ok {
				return nil, errors.Wrapf(ErrInvalidRequest, "duplicate creator %s", c.Address)
			}
			seen[c.Address] = struct{}{}
			total += int(c.Share)
		}
		if total != tokenmetadata.CreatorSharePoint {
			return nil, errors.Wrapf(ErrInvalidRequest, "creator shares sum to %d, expected %d", total, tokenmetadata.CreatorSharePoint)
		}
	}

	if r.Collection != nil {
		if _, err := solana.PublicKeyFromBase58(r.Collection.Key); err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "collection.key: %v", err)
		}
		if r.Collection.Verified {
			return nil, errors.Wrap(ErrInvalidRequest, "collection cannot be verified at creation")
		}
	}

	if r.Decimals > MaxDecimals {
		return nil, errors.Wrapf(ErrInvalidRequest, "decimals exceeds %d", MaxDecimals)
	}
	amount, ok := toBaseUnits(r.InitialSupply, r.Decimals)
	if !ok {
		return nil, errors.Wrap(ErrInvalidRequest, "initial supply overflows")
	}
	if amount == 0 && r.RevokeMintAuthority {
		return nil, errors.Wrap(ErrInvalidRequest, "revoking the mint authority without an initial supply leaves an empty token")
	}

	policy := r.Policy
	switch policy {
	case "":
		policy = PolicyMutable
	case PolicyMutable, PolicyImmutable:
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown policy %q", r.Policy)
	}

	if len(r.Memo) > MaxMemoLength || !utf8.ValidString(r.Memo) {
		return nil, errors.Wrapf(ErrInvalidRequest, "memo must be valid utf-8 of at most %d bytes", MaxMemoLength)
	}

	return &validatedRequest{
		CreateTokenRequest: r,
		owner:              owner,
		policy:             policy,
		amount:             amount,
	}, nil
}

// toBaseUnits scales a whole token quantity by 10^decimals.
func toBaseUnits(supply uint64, decimals uint8) (uint64, bool) {
	amount := supply
	for i := uint8(0); i < decimals; i++ {
		if amount > math.MaxUint64/10 {
			return 0, false
		}
		amount *= 10
	}
	return amount, true
}
