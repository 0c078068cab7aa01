package tokenmetadata

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana/binary"
)

// AccountKeyMetadataV1 is the discriminator stored in the first byte of a
// metadata account.
const AccountKeyMetadataV1 uint8 = 4

// MetadataAccount is the leading part of an on-chain metadata account. Fields
// after IsMutable are not decoded.
type MetadataAccount struct {
	UpdateAuthority ed25519.PublicKey
	Mint            ed25519.PublicKey

	// Data holds the descriptive fields with the on-chain NUL padding
	// removed. Collection and Uses are not part of this layout and are
	// left unset.
	Data DataV2

	PrimarySaleHappened bool
	IsMutable           bool
}

func (a *MetadataAccount) Unmarshal(data []byte) error {
	var offset int
	r := &decoder{src: data, offset: &offset, invalid: ErrInvalidAccountData}

	if key := r.getUint8("key"); r.err == nil && key != AccountKeyMetadataV1 {
		return errors.Wrapf(ErrInvalidAccountData, "unexpected account key %d", key)
	}

	if r.need(2*ed25519.PublicKeySize, "authorities") {
		binary.GetKey32(data[offset:], &a.UpdateAuthority, &offset)
		binary.GetKey32(data[offset:], &a.Mint, &offset)
	}

	a.Data = DataV2{}
	a.Data.getCommon(r)
	a.PrimarySaleHappened = r.getBool("primary_sale_happened")
	a.IsMutable = r.getBool("is_mutable")
	if r.err != nil {
		return r.err
	}

	a.Data.Name = trimPadding(a.Data.Name)
	a.Data.Symbol = trimPadding(a.Data.Symbol)
	a.Data.Uri = trimPadding(a.Data.Uri)

	return nil
}
