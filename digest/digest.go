// Package digest converts content ledger digests between their 32 byte form,
// the 43 character url safe base64 form used on the wire, and the integer form
// used as a token key on the ownership ledger.
//
// The integer form has no notion of leading zero bytes. A digest whose first
// byte is zero therefore encodes to fewer than 43 characters and cannot be
// decoded back through DecodeDigest. Only the integer value survives the trip.
package digest

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

const (
	// Size is the byte length of a ledger digest
	Size = 32

	// EncodedLength is the length of an encoded digest whose first byte is non zero
	EncodedLength = 43
)

var (
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrNegativeInteger     = errors.New("numeric id must not be negative")
	ErrIntegerTooLarge     = errors.New("numeric id does not fit in a digest")
	ErrNotDigestCID        = errors.New("cid does not carry a sha2-256 ledger digest")
)

// EncodeDigest returns the url safe, un-padded base64 form of the digest's
// integer value.
func EncodeDigest(b [Size]byte) string {
	// cannot fail: the value is non negative and at most 256 bits
	s, _ := EncodeInteger(new(big.Int).SetBytes(b[:]))
	return s
}

// EncodeInteger serialises n to its minimal big endian byte form and returns
// the url safe, un-padded base64 encoding of those bytes. Zero is serialised
// as a single zero byte.
func EncodeInteger(n *big.Int) (string, error) {
	if n.Sign() < 0 {
		return "", ErrNegativeInteger
	}
	if n.BitLen() > Size*8 {
		return "", fmt.Errorf("%w: %d bits", ErrIntegerTooLarge, n.BitLen())
	}

	b := n.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}

	s, err := multibase.Encode(multibase.Base64url, b)
	if err != nil {
		return "", err
	}
	// drop the multibase prefix character
	return s[1:], nil
}

// DecodeDigest returns the integer value of an encoded digest. Only the first
// EncodedLength characters are considered. Anything that is not a full length
// url safe base64 digest is rejected with ErrMalformedIdentifier.
func DecodeDigest(s string) (*big.Int, error) {
	if len(s) < EncodedLength {
		return nil, fmt.Errorf("%w: %d characters, want %d", ErrMalformedIdentifier, len(s), EncodedLength)
	}
	s = s[:EncodedLength]
	if r := len(s) % 4; r != 0 {
		s += strings.Repeat("=", 4-r)
	}

	_, b, err := multibase.Decode(string(rune(multibase.Base64urlPad)) + s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIdentifier, err)
	}
	if len(b) != Size {
		return nil, fmt.Errorf("%w: decoded to %d bytes", ErrMalformedIdentifier, len(b))
	}
	return new(big.Int).SetBytes(b), nil
}

// ToCID wraps the digest as a sha2-256 multihash inside a CIDv1 with the raw
// codec.
func ToCID(b [Size]byte) (cid.Cid, error) {
	mh, err := multihash.Encode(b[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// FromCID extracts the ledger digest carried by c.
func FromCID(c cid.Cid) ([Size]byte, error) {
	var out [Size]byte

	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return out, err
	}
	if dec.Code != multihash.SHA2_256 || len(dec.Digest) != Size {
		return out, ErrNotDigestCID
	}
	copy(out[:], dec.Digest)
	return out, nil
}
