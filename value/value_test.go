package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normano/c5store/value"
)

func TestBoolFromText(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"true", true}, {"YES", true}, {"On", true}, {"1", true},
		{"false", false}, {"no", false}, {"OFF", false}, {"0", false},
	} {
		b, err := value.FromText(tc.in).AsBool()
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, b, tc.in)
	}
}

func TestBoolFromTextInvalid(t *testing.T) {
	_, err := value.FromText("maybe").AsBool()
	assert.Error(t, err)
}

func TestBytesToIntBigEndian(t *testing.T) {
	b := []byte{0x00, 0x00, 0x00, 0x2A} // 42, 4 bytes
	i, err := value.FromBytes(b).AsInt64()
	require.NoError(t, err)
	assert.EqualValues(t, 42, i)
}

func TestBytesWrongWidthFails(t *testing.T) {
	_, err := value.FromBytes([]byte{1, 2, 3}).AsInt64()
	assert.Error(t, err)
}

func TestBytesToStringRequiresUTF8(t *testing.T) {
	s, err := value.FromBytes([]byte("abcd")).AsString()
	require.NoError(t, err)
	assert.Equal(t, "abcd", s)

	_, err = value.FromBytes([]byte{0xff, 0xfe}).AsString()
	assert.Error(t, err)
}

func TestIntUintConversion(t *testing.T) {
	u, err := value.FromInt64(5).AsUint64()
	require.NoError(t, err)
	assert.EqualValues(t, 5, u)

	_, err = value.FromInt64(-1).AsUint64()
	assert.Error(t, err, "negative int64 must fail conversion to uint64")
}

func TestTypeMismatch(t *testing.T) {
	_, err := value.FromBool(true).AsArray()
	assert.Error(t, err)
}

func TestArrayAndMapRoundtrip(t *testing.T) {
	arr := value.FromArray([]value.Value{value.FromText("a"), value.FromText("b")})
	elems, err := arr.AsArray()
	require.NoError(t, err)
	assert.Len(t, elems, 2)

	m := value.FromMap(map[string]value.Value{"k": value.FromInt64(1)})
	decoded, err := m.AsMap()
	require.NoError(t, err)
	assert.Len(t, decoded, 1)
}
