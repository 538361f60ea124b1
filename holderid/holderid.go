// Package holderid binds a numeric token id to a holder by folding a 32 bit
// fingerprint of the holder into the id. Anyone holding the derived id can
// recover the original id and check which holder it was bound to without a
// lookup table.
//
// The split point used when unmasking is recomputed from the masked value.
// When the fingerprint clears the most significant bit of the id, the split
// point moves and Recover returns the wrong id. Callers rely on this exact
// behaviour so it is reproduced as is.
package holderid

import (
	"errors"
	"math/big"
)

const (
	// FingerprintBits is the width of the holder fingerprint
	FingerprintBits = 32
)

var (
	ErrNegativeID = errors.New("holder bound ids are only defined for non negative values")
)

var fingerprintMask = big.NewInt(1<<FingerprintBits - 1)

// Fingerprint is a 31 multiplier rolling hash over the code points of holder,
// modulo 2^32.
func Fingerprint(holder string) uint32 {
	var h uint32
	for _, r := range holder {
		h = h*31 + uint32(r)
	}
	return h
}

// Derive returns the id bound to holder.
func Derive(id *big.Int, holder string) (*big.Int, error) {
	if id.Sign() < 0 {
		return nil, ErrNegativeID
	}
	f := Fingerprint(holder)

	masked := xorTop(id, f)
	d := new(big.Int).Lsh(masked, FingerprintBits)
	return d.Or(d, new(big.Int).SetUint64(uint64(f))), nil
}

// Recover returns the original id and the fingerprint carried by derived.
func Recover(derived *big.Int) (*big.Int, uint32, error) {
	if derived.Sign() < 0 {
		return nil, 0, ErrNegativeID
	}
	f := uint32(new(big.Int).And(derived, fingerprintMask).Uint64())
	masked := new(big.Int).Rsh(derived, FingerprintBits)

	return xorTop(masked, f), f, nil
}

// Verify reports whether derived was bound to holder.
func Verify(derived *big.Int, holder string) bool {
	_, f, err := Recover(derived)
	if err != nil {
		return false
	}
	return f == Fingerprint(holder)
}

// xorTop xors f into the 32 most significant bits of x, where the width of x
// is its own bit length. Values narrower than 32 bits are xored whole.
func xorTop(x *big.Int, f uint32) *big.Int {
	shift := uint(0)
	if n := x.BitLen(); n >= FingerprintBits {
		shift = uint(n - FingerprintBits)
	}

	top := new(big.Int).Rsh(x, shift)
	rest := new(big.Int).Sub(x, new(big.Int).Lsh(top, shift))

	top.Xor(top, new(big.Int).SetUint64(uint64(f)))
	top.Lsh(top, shift)
	return top.Or(top, rest)
}
