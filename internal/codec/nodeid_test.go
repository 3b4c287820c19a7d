package codec

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIdCompactness(t *testing.T) {
	tests := []struct {
		name    string
		id      NodeId
		wantLen int
		wantHex string
	}{
		{"two-byte", NewNumericNodeId(0, 1234%256), 2, ""},
		{"four-byte", NewNumericNodeId(3, 40000), 4, ""},
		{"four-byte (1234, ns=0)", NewNumericNodeId(0, 1234), 4, "0100d204"},
		{"numeric (id above uint16)", NewNumericNodeId(0, 70000), 7, "02000070110100"},
		{"numeric (ns above byte)", NewNumericNodeId(300, 5), 7, "022c0105000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).WriteNodeId(tt.id))
			assert.Len(t, buf.Bytes(), tt.wantLen)

			if tt.wantHex != "" {
				want, err := hex.DecodeString(tt.wantHex)
				require.NoError(t, err)
				assert.Equal(t, want, buf.Bytes())
			}

			got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadNodeId()
			require.NoError(t, err)
			assert.True(t, got.Equals(tt.id))
		})
	}
}

func TestNodeIdMidRangeNumericUsesFourByteForm(t *testing.T) {
	id := NewNumericNodeId(0, 1234)

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteNodeId(id))

	// Tag 0x01, one namespace byte, uint16 identifier: the most compact
	// shape the id admits (id <= 65535, ns <= 255).
	want, err := hex.DecodeString("0100d204")
	require.NoError(t, err)
	assert.Equal(t, want, buf.Bytes())

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadNodeId()
	require.NoError(t, err)
	assert.True(t, got.Equals(id))
}

func TestNodeIdStringGuidByteString(t *testing.T) {
	tests := []NodeId{
		NewStringNodeId(2, "Temperature"),
		{Namespace: 1, IdType: IdTypeGuid, Guid: NewGuid()},
		{Namespace: 5, IdType: IdTypeByteString, ByteString: []byte{1, 2, 3}},
	}

	for _, id := range tests {
		var buf bytes.Buffer
		require.NoError(t, NewEncoder(&buf).WriteNodeId(id))

		got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadNodeId()
		require.NoError(t, err)
		assert.True(t, got.Equals(id))
	}
}

func TestExpandedNodeIdWithURIAndServerIndex(t *testing.T) {
	eid := ExpandedNodeId{
		NodeId:       NewNumericNodeId(7, 42),
		HasURI:       true,
		NamespaceURI: "http://example.com/ns",
		HasServerIdx: true,
		ServerIndex:  3,
	}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteExpandedNodeId(eid))

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadExpandedNodeId()
	require.NoError(t, err)

	assert.Equal(t, uint16(0), got.NodeId.Namespace) // URI present -> inner ns transmitted as 0
	assert.Equal(t, eid.NamespaceURI, got.NamespaceURI)
	assert.Equal(t, eid.ServerIndex, got.ServerIndex)
	assert.True(t, got.HasURI)
	assert.True(t, got.HasServerIdx)
}

func TestParseNodeIdRoundTripsString(t *testing.T) {
	tests := []NodeId{
		NewNumericNodeId(0, 1234),
		NewNumericNodeId(2, 9999),
		NewStringNodeId(3, "Temperature"),
	}

	for _, id := range tests {
		got, err := ParseNodeId(id.String())
		require.NoError(t, err)
		assert.True(t, got.Equals(id))
	}
}

func TestParseNodeIdDefaultsNamespaceZero(t *testing.T) {
	got, err := ParseNodeId("i=42")
	require.NoError(t, err)
	assert.True(t, got.Equals(NewNumericNodeId(0, 42)))
}

func TestParseNodeIdRejectsMalformedInput(t *testing.T) {
	_, err := ParseNodeId("ns=2;x=nope")
	assert.Error(t, err)

	_, err = ParseNodeId("ns=abc;i=1")
	assert.Error(t, err)
}

func TestExpandedNodeIdNoFlags(t *testing.T) {
	eid := ExpandedNodeId{NodeId: NewNumericNodeId(0, 5)}

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteExpandedNodeId(eid))
	assert.Len(t, buf.Bytes(), 2) // falls back to the compact two-byte NodeId shape

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadExpandedNodeId()
	require.NoError(t, err)
	assert.False(t, got.HasURI)
	assert.False(t, got.HasServerIdx)
	assert.True(t, got.NodeId.Equals(eid.NodeId))
}
