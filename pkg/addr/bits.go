package addr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bit is a single address bit, 0 or 1.
type Bit uint8

// Bits is an address truncated to a prefix length, most significant bit first.
type Bits []Bit

// String renders the bits as a string of '0' and '1'.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		sb.WriteByte('0' + byte(bit))
	}
	return sb.String()
}

// HasPrefix reports whether p is a leading subsequence of b.
func (b Bits) HasPrefix(p Bits) bool {
	if len(p) > len(b) {
		return false
	}
	for i := range p {
		if b[i] != p[i] {
			return false
		}
	}
	return true
}

// Append returns a new slice holding b followed by bit; b is never aliased.
func (b Bits) Append(bit Bit) Bits {
	out := make(Bits, len(b), len(b)+1)
	copy(out, b)
	return append(out, bit)
}

// MarshalJSON encodes the bits as an array of integers rather than the
// base64 string encoding/json would use for a byte slice.
func (b Bits) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, bit := range b {
		ints[i] = int(bit)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON decodes an array of 0/1 integers.
func (b *Bits) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(Bits, len(ints))
	for i, v := range ints {
		if v != 0 && v != 1 {
			return fmt.Errorf("bit %d: value %d is not 0 or 1", i, v)
		}
		out[i] = Bit(v)
	}
	*b = out
	return nil
}

// value packs the bits into the high end of a 32-bit word, filling the
// remaining low bits with pad (0 or 1).
func (b Bits) value(pad Bit) uint32 {
	var v uint32
	for i := 0; i < MaxLen; i++ {
		bit := pad
		if i < len(b) {
			bit = b[i]
		}
		v = v<<1 | uint32(bit&1)
	}
	return v
}
