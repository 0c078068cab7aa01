package tokenmetadata

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/binary"
)

const (
	// Conventional limits enforced by the on-chain program, not by the encoder.
	MaxNameLength     = 32
	MaxSymbolLength   = 10
	MaxUriLength      = 200
	MaxCreatorLimit   = 5
	MaxBasisPoints    = 10000
	CreatorSharePoint = 100
)

const (
	creatorSize    = ed25519.PublicKeySize + 1 + 1
	collectionSize = ed25519.PublicKeySize + 1
)

// Uses is a closed set of use-tracking variants. Only UsesAbsent can be
// encoded; any other value fails with ErrUnsupportedValue.
type Uses uint8

const (
	UsesAbsent Uses = iota
)

type Creator struct {
	// Address is the base58 text form of the creator's account.
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Share    uint8  `json:"share"`
}

type Collection struct {
	// Key is the base58 text form of the collection mint.
	Key      string `json:"key"`
	Verified bool   `json:"verified"`
}

// DataV2 is the descriptive part of a metadata account.
//
// A nil Creators slice encodes as an absent option. An empty, non-nil slice
// encodes as a present option holding zero creators.
type DataV2 struct {
	Name                 string      `json:"name"`
	Symbol               string      `json:"symbol"`
	Uri                  string      `json:"uri"`
	SellerFeeBasisPoints uint16      `json:"seller_fee_basis_points"`
	Creators             []Creator   `json:"creators,omitempty"`
	Collection           *Collection `json:"collection,omitempty"`
	Uses                 Uses        `json:"-"`
}

// Size returns the exact Borsh encoded size of d.
func (d *DataV2) Size() int {
	size := binary.StringSize(d.Name) +
		binary.StringSize(d.Symbol) +
		binary.StringSize(d.Uri) +
		2 + // seller_fee_basis_points
		binary.OptionTagSize + // creators
		binary.OptionTagSize + // collection
		binary.OptionTagSize // uses

	if d.Creators != nil {
		size += binary.LengthPrefixSize + len(d.Creators)*creatorSize
	}
	if d.Collection != nil {
		size += collectionSize
	}

	return size
}

// Marshal returns the Borsh encoding of d.
func (d *DataV2) Marshal() ([]byte, error) {
	keys, err := d.resolveKeys()
	if err != nil {
		return nil, err
	}

	var offset int
	b := make([]byte, d.Size())
	d.put(b, keys, &offset)
	return b, nil
}

// resolvedKeys holds the decoded form of every key in a DataV2, so that all
// validation happens before anything is written.
type resolvedKeys struct {
	creators   []ed25519.PublicKey
	collection ed25519.PublicKey
}

func (d *DataV2) resolveKeys() (*resolvedKeys, error) {
	if d.Uses != UsesAbsent {
		return nil, errors.Wrapf(ErrUnsupportedValue, "uses variant %d", d.Uses)
	}

	keys := &resolvedKeys{}

	if d.Creators != nil {
		keys.creators = make([]ed25519.PublicKey, len(d.Creators))
		for i, c := range d.Creators {
			pub, err := solana.PublicKeyFromBase58(c.Address)
			if err != nil {
				return nil, errors.Wrapf(err, "creators[%d].address", i)
			}
			keys.creators[i] = pub
		}
	}

	if d.Collection != nil {
		pub, err := solana.PublicKeyFromBase58(d.Collection.Key)
		if err != nil {
			return nil, errors.Wrap(err, "collection.key")
		}
		keys.collection = pub
	}

	return keys, nil
}

// put writes d at dst[*offset:]. dst must have room for d.Size() bytes.
func (d *DataV2) put(dst []byte, keys *resolvedKeys, offset *int) {
	binary.PutString(dst[*offset:], d.Name, offset)
	binary.PutString(dst[*offset:], d.Symbol, offset)
	binary.PutString(dst[*offset:], d.Uri, offset)
	binary.PutUint16(dst[*offset:], d.SellerFeeBasisPoints, offset)

	binary.PutOptionTag(dst[*offset:], d.Creators != nil, offset)
	if d.Creators != nil {
		binary.PutVecLength(dst[*offset:], len(d.Creators), offset)
		for i, c := range d.Creators {
			binary.PutKey32(dst[*offset:], keys.creators[i], offset)
			binary.PutBool(dst[*offset:], c.Verified, offset)
			binary.PutUint8(dst[*offset:], c.Share, offset)
		}
	}

	binary.PutOptionTag(dst[*offset:], d.Collection != nil, offset)
	if d.Collection != nil {
		binary.PutKey32(dst[*offset:], keys.collection, offset)
		binary.PutBool(dst[*offset:], d.Collection.Verified, offset)
	}

	binary.PutOptionTag(dst[*offset:], false, offset) // uses
}

// get reads a DataV2 from src[*offset:]. Malformed input is reported by
// wrapping invalid.
func (d *DataV2) get(src []byte, offset *int, invalid error) error {
	r := &decoder{src: src, offset: offset, invalid: invalid}

	d.getCommon(r)

	if r.getOption("collection") {
		d.Collection = &Collection{
			Key:      r.getKey("collection key"),
			Verified: r.getBool("collection verified"),
		}
	}

	if r.getOption("uses") {
		r.fail(errors.Wrap(ErrUnsupportedValue, "uses is present"))
	}

	return r.err
}

// getCommon reads the fields DataV2 shares with the original Data layout
// stored in metadata accounts.
func (d *DataV2) getCommon(r *decoder) {
	d.Name = r.getString("name")
	d.Symbol = r.getString("symbol")
	d.Uri = r.getString("uri")
	d.SellerFeeBasisPoints = r.getUint16("seller_fee_basis_points")

	if r.getOption("creators") {
		n := r.getVecLength("creators", creatorSize)
		d.Creators = make([]Creator, n)
		for i := 0; i < n; i++ {
			d.Creators[i].Address = r.getKey("creator address")
			d.Creators[i].Verified = r.getBool("creator verified")
			d.Creators[i].Share = r.getUint8("creator share")
		}
	}
}
