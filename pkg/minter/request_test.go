package minter

import (
	"math"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
	"github.com/code-payments/token-minter/pkg/testutil"
)

func TestValidate_Valid(t *testing.T) {
	req := validRequest(t)

	validated, err := req.validate()
	require.NoError(t, err)
	assert.Equal(t, PolicyMutable, validated.policy)
	assert.EqualValues(t, 1_000_000_000, validated.amount)
	assert.Equal(t, req.Owner, base58.Encode(validated.owner))
}

func TestValidate_Invalid(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	for _, tc := range []struct {
		name   string
		modify func(r *CreateTokenRequest)
	}{
		{"bad owner", func(r *CreateTokenRequest) { r.Owner = "abc" }},
		{"empty name", func(r *CreateTokenRequest) { r.Name = "" }},
		{"long name", func(r *CreateTokenRequest) { r.Name = strings.Repeat("a", tokenmetadata.MaxNameLength+1) }},
		{"long symbol", func(r *CreateTokenRequest) { r.Symbol = strings.Repeat("S", tokenmetadata.MaxSymbolLength+1) }},
		{"empty uri", func(r *CreateTokenRequest) { r.Uri = "" }},
		{"long uri", func(r *CreateTokenRequest) { r.Uri = strings.Repeat("u", tokenmetadata.MaxUriLength+1) }},
		{"invalid utf-8", func(r *CreateTokenRequest) { r.Symbol = string([]byte{0xff}) }},
		{"fee", func(r *CreateTokenRequest) { r.SellerFeeBasisPoints = tokenmetadata.MaxBasisPoints + 1 }},
		{"empty creators", func(r *CreateTokenRequest) { r.Creators = []tokenmetadata.Creator{} }},
		{"too many creators", func(r *CreateTokenRequest) {
			r.Creators = nil
			for _, key := range testutil.GenerateSolanaKeys(t, tokenmetadata.MaxCreatorLimit+1) {
				r.Creators = append(r.Creators, tokenmetadata.Creator{Address: base58.Encode(key), Share: 1})
			}
		}},
		{"shares", func(r *CreateTokenRequest) { r.Creators[0].Share = 99 }},
		{"bad creator", func(r *CreateTokenRequest) { r.Creators[0].Address = "short" }},
		{"duplicate creator", func(r *CreateTokenRequest) {
			r.Creators = []tokenmetadata.Creator{
				{Address: base58.Encode(keys[0]), Share: 50},
				{Address: base58.Encode(keys[0]), Share: 50},
			}
		}},
		{"bad collection", func(r *CreateTokenRequest) {
			r.Collection = &tokenmetadata.Collection{Key: base58.Encode(make([]byte, 31))}
		}},
		{"verified collection", func(r *CreateTokenRequest) {
			r.Collection = &tokenmetadata.Collection{Key: base58.Encode(keys[1]), Verified: true}
		}},
		{"decimals", func(r *CreateTokenRequest) { r.Decimals = MaxDecimals + 1 }},
		{"supply overflow", func(r *CreateTokenRequest) { r.InitialSupply = math.MaxUint64 / 10 }},
		{"revoke without supply", func(r *CreateTokenRequest) {
			r.InitialSupply = 0
			r.RevokeMintAuthority = true
		}},
		{"policy", func(r *CreateTokenRequest) { r.Policy = "frozen" }},
		{"memo", func(r *CreateTokenRequest) { r.Memo = strings.Repeat("m", MaxMemoLength+1) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(t)
			tc.modify(req)

			_, err := req.validate()
			assert.True(t, errors.Is(err, ErrInvalidRequest), "%v", err)
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	amount, ok := toBaseUnits(0, 9)
	assert.True(t, ok)
	assert.EqualValues(t, 0, amount)

	amount, ok = toBaseUnits(21, 0)
	assert.True(t, ok)
	assert.EqualValues(t, 21, amount)

	amount, ok = toBaseUnits(18_446_744_073, 9)
	assert.True(t, ok)
	assert.EqualValues(t, uint64(18_446_744_073_000_000_000), amount)

	_, ok = toBaseUnits(18_446_744_074, 9)
	assert.False(t, ok)
}

func validRequest(t *testing.T) *CreateTokenRequest {
	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	return &CreateTokenRequest{
		Owner:                base58.Encode(owner),
		Name:                 "Moon",
		Symbol:               "MOON",
		Uri:                  "https://example.com/moon.json",
		SellerFeeBasisPoints: 500,
		Creators: []tokenmetadata.Creator{
			{Address: base58.Encode(owner), Verified: true, Share: 100},
		},
		Decimals:      9,
		InitialSupply: 1,
	}
}
