// Package addr converts between dotted-decimal IPv4 addresses, prefixes,
// wildcard masks, and the bit sequences that key the prefix trie.
//
// All functions are pure. Malformed input is reported through
// util.FormatError values that unwrap to util.ErrInvalidPrefixFormat or
// util.ErrInvalidAddressFormat.
package addr

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/newtron-network/netpec/pkg/util"
)

// MaxLen is the number of bits in an IPv4 address.
const MaxLen = 32

// ParseIP parses a strict dotted-decimal IPv4 address into its 32-bit value.
// Each of the four octets must be 1-3 decimal digits in 0..255.
func ParseIP(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, util.NewAddressError(s, "expected four octets")
	}
	var v uint32
	for _, p := range parts {
		octet, ok := parseDecimal(p, 3)
		if !ok || octet > 255 {
			return 0, util.NewAddressError(s, "octet "+strconv.Quote(p)+" out of range")
		}
		v = v<<8 | uint32(octet)
	}
	return v, nil
}

// FormatIP renders a 32-bit value as dotted decimal.
func FormatIP(v uint32) string {
	var b strings.Builder
	b.Grow(15)
	for i := 3; i >= 0; i-- {
		b.WriteString(strconv.Itoa(int(v >> (uint(i) * 8) & 0xff)))
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ParsePrefix splits a.b.c.d/n into its address value and length.
// Host bits beyond n are kept as given.
func ParsePrefix(prefix string) (uint32, int, error) {
	ip, length, found := strings.Cut(prefix, "/")
	if !found {
		return 0, 0, util.NewPrefixError(prefix, "missing /length")
	}
	v, err := ParseIP(ip)
	if err != nil {
		return 0, 0, util.NewPrefixError(prefix, "bad address")
	}
	n, ok := parseDecimal(length, 2)
	if !ok || n > MaxLen {
		return 0, 0, util.NewPrefixError(prefix, "length must be 0..32")
	}
	return v, n, nil
}

// PrefixLength returns n for a.b.c.d/n.
func PrefixLength(prefix string) (int, error) {
	_, n, err := ParsePrefix(prefix)
	return n, err
}

// PrefixToBits returns the first n bits of the address in a.b.c.d/n.
func PrefixToBits(prefix string) (Bits, error) {
	v, n, err := ParsePrefix(prefix)
	if err != nil {
		return nil, err
	}
	return valueBits(v, n), nil
}

// IPToBits returns all 32 bits of a dotted-decimal address.
func IPToBits(ip string) (Bits, error) {
	v, err := ParseIP(ip)
	if err != nil {
		return nil, err
	}
	return valueBits(v, MaxLen), nil
}

// BitsToPrefix zero-pads bits to 32 and renders a.b.c.d/len(bits).
func BitsToPrefix(b Bits) string {
	return FormatIP(b.value(0)) + "/" + strconv.Itoa(len(b))
}

// Range returns the first and last address covered by bits: the path
// padded with zeros and with ones. Empty bits cover the whole space.
func Range(b Bits) (start, end string) {
	return FormatIP(b.value(0)), FormatIP(b.value(1))
}

// WildcardToCIDR converts an ACL address/wildcard pair into a.b.c.d/n.
// The network is ip AND NOT wildcard; the length is 32 minus the number of
// set wildcard bits. Malformed input yields ok=false so that a bad wildcard
// inside an ACL rule can be tagged unknown instead of failing the rule.
func WildcardToCIDR(ip, wildcard string) (cidr string, ok bool) {
	v, err := ParseIP(ip)
	if err != nil {
		return "", false
	}
	w, err := ParseIP(wildcard)
	if err != nil {
		return "", false
	}
	length := MaxLen - bits.OnesCount32(w)
	if length < 0 || length > MaxLen {
		return "", false
	}
	return FormatIP(v&^w) + "/" + strconv.Itoa(length), true
}

// MaskLength returns the number of set bits in a dotted-decimal mask.
// A mask already given as a length ("24") passes through unchanged.
func MaskLength(mask string) (int, error) {
	if strings.Contains(mask, ".") {
		v, err := ParseIP(mask)
		if err != nil {
			return 0, err
		}
		return bits.OnesCount32(v), nil
	}
	n, ok := parseDecimal(mask, 2)
	if !ok || n > MaxLen {
		return 0, util.NewAddressError(mask, "mask length must be 0..32")
	}
	return n, nil
}

// Contains reports whether ip falls inside prefix. Host bits of the prefix
// are ignored.
func Contains(prefix, ip string) (bool, error) {
	network, n, err := ParsePrefix(prefix)
	if err != nil {
		return false, err
	}
	v, err := ParseIP(ip)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	mask := ^uint32(0) << uint(MaxLen-n)
	return network&mask == v&mask, nil
}

// CompareIP orders two dotted-decimal addresses numerically. Malformed
// addresses sort before well-formed ones.
func CompareIP(a, b string) int {
	va, errA := ParseIP(a)
	vb, errB := ParseIP(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	case va < vb:
		return -1
	case va > vb:
		return 1
	}
	return 0
}

func valueBits(v uint32, n int) Bits {
	out := make(Bits, n)
	for i := 0; i < n; i++ {
		out[i] = Bit(v >> uint(MaxLen-1-i) & 1)
	}
	return out
}

// parseDecimal accepts 1..maxDigits ASCII digits and nothing else.
func parseDecimal(s string, maxDigits int) (int, bool) {
	if len(s) == 0 || len(s) > maxDigits {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
