package codec

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantMatrixRoundTrip(t *testing.T) {
	v := NewVariantMatrix(VariantInt32, []int32{2, 3}, []interface{}{
		int32(1), int32(2), int32(3), int32(4), int32(5), int32(6),
	})

	var buf bytes.Buffer
	require.NoError(t, v.Encode(NewEncoder(&buf)))

	// Tag 0xC6 = array (0x80) | multi-dimensional (0x40) | Int32 (0x06), per
	// this component's own bit-definition for the multi-dimensional flag.
	want, err := hex.DecodeString(
		"c606000000010000000200000003000000040000000500000006000000" +
			"0200000002000000" + "03000000")
	require.NoError(t, err)
	assert.Equal(t, want, buf.Bytes())

	var decoded Variant
	require.NoError(t, decoded.Decode(NewDecoder(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, VariantInt32, decoded.Type)
	assert.True(t, decoded.IsArray)
	assert.Equal(t, []int32{2, 3}, decoded.ArrayDims)
	assert.Equal(t, v.Array, decoded.Array)
}

func TestVariantScalarRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
	}{
		{"bool", NewVariant(VariantBoolean, true)},
		{"int32", NewVariant(VariantInt32, int32(-7))},
		{"double", NewVariant(VariantDouble, 3.5)},
		{"string", NewVariant(VariantString, "hello")},
		{"nodeid", NewVariant(VariantNodeId, NewNumericNodeId(2, 99))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.v.Encode(NewEncoder(&buf)))

			var decoded Variant
			require.NoError(t, decoded.Decode(NewDecoder(bytes.NewReader(buf.Bytes()))))

			if id, ok := tt.v.Scalar.(NodeId); ok {
				got := decoded.Scalar.(NodeId)
				assert.True(t, got.Equals(id))
				return
			}
			assert.Equal(t, tt.v.Scalar, decoded.Scalar)
		})
	}
}

func TestVariantArrayOfStrings(t *testing.T) {
	v := NewVariantArray(VariantString, []interface{}{"a", "bb", "ccc"})

	var buf bytes.Buffer
	require.NoError(t, v.Encode(NewEncoder(&buf)))

	var decoded Variant
	require.NoError(t, decoded.Decode(NewDecoder(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, v.Array, decoded.Array)
	assert.Nil(t, decoded.ArrayDims)
}

func TestVariantNullArray(t *testing.T) {
	v := NewVariantArray(VariantInt32, nil)

	var buf bytes.Buffer
	require.NoError(t, v.Encode(NewEncoder(&buf)))
	assert.Equal(t, []byte{0x80 | byte(VariantInt32), 0xff, 0xff, 0xff, 0xff}, buf.Bytes())

	var decoded Variant
	require.NoError(t, decoded.Decode(NewDecoder(bytes.NewReader(buf.Bytes()))))
	assert.Nil(t, decoded.Array)
}
