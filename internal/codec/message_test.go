package codec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/registry"
)

type readResponseStub struct {
	Count int32
}

func (r *readResponseStub) Encode(e *codec.Encoder) error { return e.WriteInt32(r.Count) }
func (r *readResponseStub) Decode(d *codec.Decoder) error {
	v, err := d.ReadInt32()
	r.Count = v
	return err
}

type otherMessage struct {
	Flag bool
}

func (o *otherMessage) Encode(e *codec.Encoder) error { return e.WriteBool(o.Flag) }
func (o *otherMessage) Decode(d *codec.Decoder) error {
	v, err := d.ReadBool()
	o.Flag = v
	return err
}

func TestMessageRoundTripViaRegistry(t *testing.T) {
	reg := registry.New()
	otherID := codec.NewNumericNodeId(0, 111)
	reg.Register(otherID, func() codec.Encodable { return &otherMessage{} })

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(&otherMessage{Flag: true}))

	id, body, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.NoError(t, err)
	assert.True(t, id.Equals(otherID))
	assert.True(t, body.(*otherMessage).Flag)
}

func TestMessageFastDispatchSkipsRegistry(t *testing.T) {
	reg := registry.New()
	readResponseID := codec.NewNumericNodeId(0, 631) // arbitrary stand-in id
	reg.Register(readResponseID, func() codec.Encodable { return &readResponseStub{} })

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoderWithRegistry(&buf, reg).WriteMessage(&readResponseStub{Count: 7}))

	d := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), nil) // no registry attached
	d.SetFastDispatch(struct {
		ID      codec.NodeId
		Factory func() codec.Encodable
	}{ID: readResponseID, Factory: func() codec.Encodable { return &readResponseStub{} }})

	id, body, err := d.ReadMessage()
	require.NoError(t, err)
	assert.True(t, id.Equals(readResponseID))
	assert.EqualValues(t, 7, body.(*readResponseStub).Count)
}

func TestMessageUnregisteredTypeFails(t *testing.T) {
	reg := registry.New()

	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoder(&buf).WriteNodeId(codec.NewNumericNodeId(0, 42)))

	_, _, err := codec.NewDecoderWithRegistry(bytes.NewReader(buf.Bytes()), reg).ReadMessage()
	require.Error(t, err)
}
