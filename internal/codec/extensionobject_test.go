package codec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/registry"
)

type sampleBody struct {
	Name string
}

func (s *sampleBody) Encode(e *codec.Encoder) error { return e.WriteString(s.Name) }
func (s *sampleBody) Decode(d *codec.Decoder) error {
	name, err := d.ReadString()
	s.Name = name
	return err
}

func TestExtensionObjectKnownTypeRoundTrip(t *testing.T) {
	reg := registry.New()
	id := codec.NewNumericNodeId(0, 500)
	reg.Register(id, func() codec.Encodable { return &sampleBody{} })

	obj, err := codec.NewExtensionObject(reg, &sampleBody{Name: "thermostat"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, obj.Encode(codec.NewEncoderWithRegistry(&buf, reg)))

	var decoded codec.ExtensionObject
	require.NoError(t, decoded.Decode(codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg)))

	body, ok := decoded.Body.(*sampleBody)
	require.True(t, ok)
	assert.Equal(t, "thermostat", body.Name)
}

func TestExtensionObjectUnknownTypePreservesRaw(t *testing.T) {
	reg := registry.New()
	knownID := codec.NewNumericNodeId(0, 1)
	reg.Register(knownID, func() codec.Encodable { return &sampleBody{} })

	unknownID := codec.NewNumericNodeId(0, 999)
	obj := codec.ExtensionObject{TypeId: unknownID, BodyType: codec.ExtensionBodyByteString, Raw: []byte{9, 8, 7}}

	var buf bytes.Buffer
	require.NoError(t, obj.Encode(codec.NewEncoderWithRegistry(&buf, reg)))

	var decoded codec.ExtensionObject
	require.NoError(t, decoded.Decode(codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg)))

	assert.Nil(t, decoded.Body)
	assert.Equal(t, []byte{9, 8, 7}, decoded.Raw)
}

func TestExtensionObjectNoRegistryAttachedPreservesRaw(t *testing.T) {
	obj := codec.ExtensionObject{
		TypeId:   codec.NewNumericNodeId(0, 1),
		BodyType: codec.ExtensionBodyByteString,
		Raw:      []byte{1, 2},
	}

	var buf bytes.Buffer
	require.NoError(t, obj.Encode(codec.NewEncoder(&buf)))

	var decoded codec.ExtensionObject
	require.NoError(t, decoded.Decode(codec.NewDecoder(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, []byte{1, 2}, decoded.Raw)
}

func TestExtensionObjectNoneBody(t *testing.T) {
	obj := codec.ExtensionObject{TypeId: codec.NewNumericNodeId(0, 0), BodyType: codec.ExtensionBodyNone}

	var buf bytes.Buffer
	require.NoError(t, obj.Encode(codec.NewEncoder(&buf)))

	var decoded codec.ExtensionObject
	require.NoError(t, decoded.Decode(codec.NewDecoder(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, codec.ExtensionBodyNone, decoded.BodyType)
}
