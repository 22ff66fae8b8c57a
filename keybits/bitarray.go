package keybits

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadLength  = errors.New("keybits: bit length invalid")
	ErrShortBytes = errors.New("keybits: not enough bytes for the requested bit length")
	ErrBadDigit   = errors.New("keybits: bit strings may only contain '0' and '1'")
)

// BitArray is an immutable sequence of bits. Bit 0 is the MSB of the first
// byte. Bits beyond Len() in the final byte are always zero, so two arrays
// of equal length are equal iff their packed bytes are equal.
type BitArray struct {
	data []byte
	n    int
}

func byteLen(bits int) int { return (bits + 7) / 8 }

// New returns an all zero array of the given length.
func New(bits int) (BitArray, error) {
	if bits < 0 {
		return BitArray{}, fmt.Errorf("%w: %d", ErrBadLength, bits)
	}
	return BitArray{data: make([]byte, byteLen(bits)), n: bits}, nil
}

// Ones returns an array of the given length with every bit set.
func Ones(bits int) (BitArray, error) {
	b, err := New(bits)
	if err != nil {
		return BitArray{}, err
	}
	for i := range b.data {
		b.data[i] = 0xff
	}
	b.clearPad()
	return b, nil
}

// FromBytes takes the first bits bits of b. The input is copied.
func FromBytes(b []byte, bits int) (BitArray, error) {
	if bits < 0 {
		return BitArray{}, fmt.Errorf("%w: %d", ErrBadLength, bits)
	}
	if len(b) < byteLen(bits) {
		return BitArray{}, fmt.Errorf("%w: want %d bytes, got %d", ErrShortBytes, byteLen(bits), len(b))
	}
	out := BitArray{data: make([]byte, byteLen(bits)), n: bits}
	copy(out.data, b)
	out.clearPad()
	return out, nil
}

// FromDigest truncates a hash output to a key digest of the given width.
func FromDigest(digest []byte, bits int) (BitArray, error) {
	return FromBytes(digest, bits)
}

// Parse reads a string of '0' and '1' characters. Underscores are ignored
// so long keys can be grouped for readability.
func Parse(s string) (BitArray, error) {
	s = strings.ReplaceAll(s, "_", "")
	out := BitArray{data: make([]byte, byteLen(len(s))), n: len(s)}
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			out.data[i/8] |= 0x80 >> (i % 8)
		default:
			return BitArray{}, fmt.Errorf("%w: %q at %d", ErrBadDigit, c, i)
		}
	}
	return out, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) BitArray {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *BitArray) clearPad() {
	if rem := b.n % 8; rem != 0 {
		b.data[len(b.data)-1] &= ^byte(0xff >> rem)
	}
}

// Len returns the number of bits.
func (b BitArray) Len() int { return b.n }

// Bit returns bit i (0 or 1) where i=0 is the MSB.
func (b BitArray) Bit(i int) uint8 {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("keybits: bit index %d out of range [0,%d)", i, b.n))
	}
	return (b.data[i/8] >> (7 - uint(i%8))) & 1
}

// Prefix returns the first n bits.
func (b BitArray) Prefix(n int) BitArray {
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("keybits: prefix length %d out of range [0,%d]", n, b.n))
	}
	out := BitArray{data: make([]byte, byteLen(n)), n: n}
	copy(out.data, b.data)
	out.clearPad()
	return out
}

// Append returns a new array one bit longer than b.
func (b BitArray) Append(bit uint8) BitArray {
	out := BitArray{data: make([]byte, byteLen(b.n+1)), n: b.n + 1}
	copy(out.data, b.data)
	if bit != 0 {
		out.data[b.n/8] |= 0x80 >> (b.n % 8)
	}
	return out
}

// Bytes returns the packed bits, MSB first, with zero padding in the final
// byte. The returned slice is a copy.
func (b BitArray) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Equal reports whether both arrays hold the same bits.
func (b BitArray) Equal(o BitArray) bool {
	return b.n == o.n && bytes.Equal(b.data, o.data)
}

// Compare orders arrays lexicographically by bit. When one array is a prefix
// of the other the shorter sorts first.
func (b BitArray) Compare(o BitArray) int {
	common := b.n
	if o.n < common {
		common = o.n
	}
	full := common / 8
	if c := bytes.Compare(b.data[:full], o.data[:full]); c != 0 {
		return c
	}
	for i := full * 8; i < common; i++ {
		x, y := b.Bit(i), o.Bit(i)
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case b.n < o.n:
		return -1
	case b.n > o.n:
		return 1
	}
	return 0
}

// Less reports b < o under Compare.
func (b BitArray) Less(o BitArray) bool { return b.Compare(o) < 0 }

// IsPrefixOf reports whether b is a (not necessarily strict) prefix of o.
func (b BitArray) IsPrefixOf(o BitArray) bool {
	if b.n > o.n {
		return false
	}
	return o.Prefix(b.n).Equal(b)
}

// String renders the bits as '0' and '1' characters.
func (b BitArray) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		sb.WriteByte('0' + b.Bit(i))
	}
	return sb.String()
}
