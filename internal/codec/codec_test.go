package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	require.NoError(t, e.WriteBool(true))
	require.NoError(t, e.WriteSByte(-12))
	require.NoError(t, e.WriteByte(0xAB))
	require.NoError(t, e.WriteInt16(-1000))
	require.NoError(t, e.WriteUint16(50000))
	require.NoError(t, e.WriteInt32(-100000))
	require.NoError(t, e.WriteUint32(4000000000))
	require.NoError(t, e.WriteInt64(-1 << 40))
	require.NoError(t, e.WriteUint64(1 << 62))
	require.NoError(t, e.WriteFloat32(3.25))
	require.NoError(t, e.WriteFloat64(-1.5e10))

	d := NewDecoder(bytes.NewReader(buf.Bytes()))

	b, err := d.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	sb, err := d.ReadSByte()
	require.NoError(t, err)
	assert.EqualValues(t, -12, sb)

	by, err := d.ReadByte()
	require.NoError(t, err)
	assert.EqualValues(t, 0xAB, by)

	i16, err := d.ReadInt16()
	require.NoError(t, err)
	assert.EqualValues(t, -1000, i16)

	u16, err := d.ReadUint16()
	require.NoError(t, err)
	assert.EqualValues(t, 50000, u16)

	i32, err := d.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, -100000, i32)

	u32, err := d.ReadUint32()
	require.NoError(t, err)
	assert.EqualValues(t, 4000000000, u32)

	i64, err := d.ReadInt64()
	require.NoError(t, err)
	assert.EqualValues(t, -1<<40, i64)

	u64, err := d.ReadUint64()
	require.NoError(t, err)
	assert.EqualValues(t, 1<<62, u64)

	f32, err := d.ReadFloat32()
	require.NoError(t, err)
	assert.EqualValues(t, 3.25, f32)

	f64, err := d.ReadFloat64()
	require.NoError(t, err)
	assert.EqualValues(t, -1.5e10, f64)
}

func TestStringNullEmptyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	require.NoError(t, e.WriteStringPtr(nil))
	require.NoError(t, e.WriteString(""))
	require.NoError(t, e.WriteString("hello"))

	d := NewDecoder(bytes.NewReader(buf.Bytes()))

	s1, err := d.ReadStringPtr()
	require.NoError(t, err)
	assert.Nil(t, s1)

	s2, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "", s2)

	s3, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s3)
}

func TestByteStringNullEmptyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	require.NoError(t, e.WriteByteString(nil))
	require.NoError(t, e.WriteByteString([]byte{}))
	require.NoError(t, e.WriteByteString([]byte{1, 2, 3}))

	d := NewDecoder(bytes.NewReader(buf.Bytes()))

	b1, err := d.ReadByteString()
	require.NoError(t, err)
	assert.Nil(t, b1)

	b2, err := d.ReadByteString()
	require.NoError(t, err)
	assert.NotNil(t, b2)
	assert.Empty(t, b2)

	b3, err := d.ReadByteString()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b3)
}

func TestMalformedUTF8IsLenientlyRepaired(t *testing.T) {
	malformed := []byte{'a', 'b', 0xff, 'c'}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteByteString(malformed))

	s, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadString()
	require.NoError(t, err)
	assert.Contains(t, s, "a")
	assert.Contains(t, s, "�")
}

func TestBoundedDecoderRejectsOverrunLength(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	require.NoError(t, e.WriteInt32(1000)) // claims a 1000-byte array/string

	d := NewBoundedDecoder(bytes.NewReader(buf.Bytes()), 4) // only the length itself fits
	_, err := d.ReadByteString()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitsExceeded)
}

func TestStringArrayRoundTrip(t *testing.T) {
	values := []string{"alpha", "beta", "gamma"}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteStringArray(values))

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadStringArray()
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestNodeIdArrayRoundTrip(t *testing.T) {
	values := []NodeId{NewNumericNodeId(0, 1), NewNumericNodeId(2, 9999)}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteNodeIdArray(values))

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadNodeIdArray()
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range values {
		assert.True(t, got[i].Equals(values[i]))
	}
}
