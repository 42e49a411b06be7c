package model

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NBit is the compact ("nBits") encoding of a proof-of-work target: a
// one-byte exponent followed by a three-byte mantissa, stored internally in
// wire (little-endian) byte order the same way the teacher's BlockHeader.Bits
// field does.
type NBit [4]byte

// NewNBitFromSlice builds an NBit from its 4-byte wire representation.
func NewNBitFromSlice(b []byte) (NBit, error) {
	var n NBit

	if len(b) != 4 {
		return n, fmt.Errorf("nbits must be 4 bytes, got %d", len(b))
	}

	copy(n[:], b)

	return n, nil
}

// NewNBitFromString parses the big-endian hex form conventionally used when
// printing a block's bits field (e.g. "1d00ffff").
func NewNBitFromString(s string) (NBit, error) {
	var n NBit

	b, err := hex.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("decoding nbits hex: %w", err)
	}

	if len(b) != 4 {
		return n, fmt.Errorf("nbits must be 4 bytes, got %d", len(b))
	}

	n[0], n[1], n[2], n[3] = b[3], b[2], b[1], b[0]

	return n, nil
}

// NewNBitFromUint32 builds an NBit from its compact encoding already in
// host-order form (the inverse of Uint32).
func NewNBitFromUint32(compact uint32) NBit {
	var n NBit
	binary.LittleEndian.PutUint32(n[:], compact)

	return n
}

// String renders the big-endian hex form, e.g. "1d00ffff".
func (n NBit) String() string {
	return hex.EncodeToString([]byte{n[3], n[2], n[1], n[0]})
}

// Uint32 returns the compact encoding as a host-order integer.
func (n NBit) Uint32() uint32 {
	return binary.LittleEndian.Uint32(n[:])
}

// CalculateTarget expands the compact encoding into the full 256-bit target
// that a block hash (interpreted as a big-endian integer) must be below.
func (n NBit) CalculateTarget() *big.Int {
	compact := n.Uint32()

	exponent := compact >> 24
	mantissa := compact & 0x007fffff

	// A mantissa with the sign bit (0x00800000) set would make the target
	// negative; Bitcoin's consensus rules treat that as a zero target.
	if compact&0x00800000 != 0 {
		return big.NewInt(0)
	}

	target := new(big.Int).SetUint64(uint64(mantissa))

	if exponent <= 3 {
		target.Rsh(target, uint(8*(3-exponent)))
	} else {
		target.Lsh(target, uint(8*(exponent-3)))
	}

	return target
}

// CalculateDifficulty returns the difficulty-1 target (the genesis bits,
// 0x1d00ffff) divided by this target, the conventional human-facing
// difficulty number.
func (n NBit) CalculateDifficulty() *big.Float {
	target := n.CalculateTarget()
	if target.Sign() == 0 {
		return big.NewFloat(0)
	}

	maxTarget, _ := NewNBitFromString("1d00ffff")

	num := new(big.Float).SetInt(maxTarget.CalculateTarget())
	den := new(big.Float).SetInt(target)

	return new(big.Float).Quo(num, den)
}

// ToCompact packs a 256-bit target back into its compact nBits form,
// rounding toward the nearest representable target at or below t (the
// inverse of CalculateTarget).
func ToCompact(t *big.Int) NBit {
	if t.Sign() <= 0 {
		return NBit{}
	}

	b := t.Bytes()

	exponent := uint32(len(b))

	var mantissa uint32

	switch {
	case exponent <= 3:
		mantissa = uint32(new(big.Int).Lsh(t, uint(8*(3-exponent))).Uint64())
	default:
		mantissa = uint32(new(big.Int).Rsh(t, uint(8*(exponent-3))).Uint64())
	}

	// The mantissa's high bit is reserved as a sign flag; shift the window
	// down by one byte if it would otherwise be set.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := exponent<<24 | mantissa

	var n NBit
	binary.LittleEndian.PutUint32(n[:], compact)

	return n
}
