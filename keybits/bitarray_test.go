package keybits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	b, err := Parse("1011_0001_1")
	require.NoError(t, err)
	assert.Equal(t, 9, b.Len())
	assert.Equal(t, "101100011", b.String())
	assert.Equal(t, []byte{0xb1, 0x80}, b.Bytes())

	_, err = Parse("10x")
	require.ErrorIs(t, err, ErrBadDigit)
}

func TestFromBytesClearsPad(t *testing.T) {
	b, err := FromBytes([]byte{0xff, 0xff}, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xf0}, b.Bytes())

	o, err := Ones(12)
	require.NoError(t, err)
	assert.True(t, b.Equal(o))

	_, err = FromBytes([]byte{0xff}, 12)
	require.ErrorIs(t, err, ErrShortBytes)

	_, err = New(-1)
	require.ErrorIs(t, err, ErrBadLength)
}

func TestBitPrefixAppend(t *testing.T) {
	b := MustParse("0110")
	assert.Equal(t, uint8(0), b.Bit(0))
	assert.Equal(t, uint8(1), b.Bit(1))
	assert.Equal(t, uint8(0), b.Bit(3))
	assert.Panics(t, func() { b.Bit(4) })

	assert.Equal(t, "011", b.Prefix(3).String())
	assert.Equal(t, 0, b.Prefix(0).Len())

	var root BitArray
	p := root
	for i := 0; i < b.Len(); i++ {
		p = p.Append(b.Bit(i))
		assert.True(t, p.IsPrefixOf(b))
		assert.True(t, p.Equal(b.Prefix(i+1)))
	}
	assert.True(t, p.Equal(b))
	assert.False(t, MustParse("1").IsPrefixOf(b))
	assert.False(t, MustParse("01101").IsPrefixOf(b))
}

func TestAppendDoesNotAlias(t *testing.T) {
	base := MustParse("1010101")
	a := base.Append(0)
	c := base.Append(1)
	assert.Equal(t, "10101010", a.String())
	assert.Equal(t, "10101011", c.String())
	assert.Equal(t, "1010101", base.String())
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"0000", "0000", 0},
		{"0000", "0001", -1},
		{"1000", "0111", 1},
		{"000000001", "000000010", -1},
		{"11111111_0", "11111111_1", -1},
		{"01", "011", -1},
		{"011", "01", 1},
		{"", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			a, b := MustParse(tc.a), MustParse(tc.b)
			assert.Equal(t, tc.want, a.Compare(b))
			assert.Equal(t, -tc.want, b.Compare(a))
			assert.Equal(t, tc.want < 0, a.Less(b))
		})
	}
}

func TestCompareMatchesBytesForWholeBytes(t *testing.T) {
	a, err := FromBytes([]byte{0x01, 0x02, 0x03, 0x04}, 32)
	require.NoError(t, err)
	b, err := FromBytes([]byte{0x01, 0x02, 0x03, 0x05}, 32)
	require.NoError(t, err)
	assert.Equal(t, -1, a.Compare(b))
}
