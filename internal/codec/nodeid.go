package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// IdType names which field of a NodeId carries the identifier.
type IdType byte

const (
	IdTypeNumeric IdType = iota
	IdTypeString
	IdTypeGuid
	IdTypeByteString
)

// NodeId encoding tag bytes (the low 6 bits of the first wire byte; bits
// 0x80/0x40 are reserved for ExpandedNodeId's URI/server-index flags).
const (
	nodeIDTagTwoByte    byte = 0x00
	nodeIDTagFourByte   byte = 0x01
	nodeIDTagNumeric    byte = 0x02
	nodeIDTagString     byte = 0x03
	nodeIDTagGuid       byte = 0x04
	nodeIDTagByteString byte = 0x05
)

// NodeId is the tagged union of spec.md §3: a namespace index plus exactly
// one of {numeric, string, Guid, ByteString} identifier.
type NodeId struct {
	Namespace  uint16
	IdType     IdType
	Numeric    uint32
	Str        string
	Guid       Guid
	ByteString []byte
}

// NewNumericNodeId builds a numeric NodeId, the common case.
func NewNumericNodeId(ns uint16, id uint32) NodeId {
	return NodeId{Namespace: ns, IdType: IdTypeNumeric, Numeric: id}
}

// NewStringNodeId builds a string NodeId.
func NewStringNodeId(ns uint16, id string) NodeId {
	return NodeId{Namespace: ns, IdType: IdTypeString, Str: id}
}

// Equals reports whether n and other identify the same node. NodeId
// contains a slice field (ByteString), so it can't use ==.
func (n NodeId) Equals(other NodeId) bool {
	if n.Namespace != other.Namespace || n.IdType != other.IdType {
		return false
	}
	switch n.IdType {
	case IdTypeNumeric:
		return n.Numeric == other.Numeric
	case IdTypeString:
		return n.Str == other.Str
	case IdTypeGuid:
		return n.Guid == other.Guid
	case IdTypeByteString:
		if len(n.ByteString) != len(other.ByteString) {
			return false
		}
		for i := range n.ByteString {
			if n.ByteString[i] != other.ByteString[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (n NodeId) String() string {
	switch n.IdType {
	case IdTypeNumeric:
		return fmt.Sprintf("ns=%d;i=%d", n.Namespace, n.Numeric)
	case IdTypeString:
		return fmt.Sprintf("ns=%d;s=%s", n.Namespace, n.Str)
	case IdTypeGuid:
		return fmt.Sprintf("ns=%d;g=%s", n.Namespace, n.Guid)
	case IdTypeByteString:
		return fmt.Sprintf("ns=%d;b=<%d bytes>", n.Namespace, len(n.ByteString))
	default:
		return "ns=?;?"
	}
}

// ParseNodeId parses the numeric and string textual forms String produces:
// "ns=1;i=1001" or "ns=2;s=Temperature". The "ns=" segment may be omitted,
// defaulting to namespace 0. Guid ("g=") and ByteString ("b=") identifiers
// are not parsed and return an error.
func ParseNodeId(s string) (NodeId, error) {
	ns := uint16(0)
	ident := s
	for _, part := range strings.Split(s, ";") {
		switch {
		case strings.HasPrefix(part, "ns="):
			n, err := strconv.ParseUint(part[3:], 10, 16)
			if err != nil {
				return NodeId{}, fmt.Errorf("invalid node id %q: bad namespace: %w", s, err)
			}
			ns = uint16(n)
		case strings.HasPrefix(part, "i="), strings.HasPrefix(part, "s="),
			strings.HasPrefix(part, "g="), strings.HasPrefix(part, "b="):
			ident = part
		}
	}

	switch {
	case strings.HasPrefix(ident, "i="):
		id, err := strconv.ParseUint(ident[2:], 10, 32)
		if err != nil {
			return NodeId{}, fmt.Errorf("invalid node id %q: bad numeric identifier: %w", s, err)
		}
		return NewNumericNodeId(ns, uint32(id)), nil
	case strings.HasPrefix(ident, "s="):
		return NewStringNodeId(ns, ident[2:]), nil
	default:
		return NodeId{}, fmt.Errorf("invalid node id %q: expected an i= or s= identifier", s)
	}
}

// WriteNodeId writes n using the most compact wire shape the identifier and
// namespace allow: two-byte when namespace is 0 and the numeric id fits in
// a byte, four-byte when namespace fits in a byte and the id fits in a
// uint16, numeric (seven bytes total) otherwise. Non-numeric identifiers
// always use their dedicated tag.
func (e *Encoder) WriteNodeId(n NodeId) error {
	return e.writeNodeIDTagged(n, 0)
}

// writeNodeIDTagged writes n with extraFlags (0x80/0x40) ORed onto the tag
// byte, used by ExpandedNodeId.
func (e *Encoder) writeNodeIDTagged(n NodeId, extraFlags byte) error {
	switch n.IdType {
	case IdTypeNumeric:
		if extraFlags == 0 && n.Namespace == 0 && n.Numeric <= 0xFF {
			if err := e.WriteByte(nodeIDTagTwoByte); err != nil {
				return err
			}
			return e.WriteByte(byte(n.Numeric))
		}
		if extraFlags == 0 && n.Namespace <= 0xFF && n.Numeric <= 0xFFFF {
			if err := e.WriteByte(nodeIDTagFourByte); err != nil {
				return err
			}
			if err := e.WriteByte(byte(n.Namespace)); err != nil {
				return err
			}
			return e.WriteUint16(uint16(n.Numeric))
		}
		if err := e.WriteByte(nodeIDTagNumeric | extraFlags); err != nil {
			return err
		}
		if err := e.WriteUint16(n.Namespace); err != nil {
			return err
		}
		return e.WriteUint32(n.Numeric)

	case IdTypeString:
		if err := e.WriteByte(nodeIDTagString | extraFlags); err != nil {
			return err
		}
		if err := e.WriteUint16(n.Namespace); err != nil {
			return err
		}
		return e.WriteString(n.Str)

	case IdTypeGuid:
		if err := e.WriteByte(nodeIDTagGuid | extraFlags); err != nil {
			return err
		}
		if err := e.WriteUint16(n.Namespace); err != nil {
			return err
		}
		return e.WriteGuid(n.Guid)

	case IdTypeByteString:
		if err := e.WriteByte(nodeIDTagByteString | extraFlags); err != nil {
			return err
		}
		if err := e.WriteUint16(n.Namespace); err != nil {
			return err
		}
		return e.WriteByteString(n.ByteString)

	default:
		return encodingErrorf(fmt.Sprintf("unknown NodeId IdType %d", n.IdType), nil)
	}
}

// ReadNodeId reads a NodeId.
func (d *Decoder) ReadNodeId() (NodeId, error) {
	n, _, err := d.readNodeIDTagged()
	return n, err
}

// readNodeIDTagged returns the decoded NodeId plus the extra flag bits
// (0x80/0x40) found on the tag byte, for ExpandedNodeId to inspect.
func (d *Decoder) readNodeIDTagged() (NodeId, byte, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return NodeId{}, 0, err
	}
	extraFlags := tag & 0xC0
	baseTag := tag &^ 0xC0

	switch baseTag {
	case nodeIDTagTwoByte:
		id, err := d.ReadByte()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NewNumericNodeId(0, uint32(id)), extraFlags, nil

	case nodeIDTagFourByte:
		ns, err := d.ReadByte()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		id, err := d.ReadUint16()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NewNumericNodeId(uint16(ns), uint32(id)), extraFlags, nil

	case nodeIDTagNumeric:
		ns, err := d.ReadUint16()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		id, err := d.ReadUint32()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NewNumericNodeId(ns, id), extraFlags, nil

	case nodeIDTagString:
		ns, err := d.ReadUint16()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		s, err := d.ReadString()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NewStringNodeId(ns, s), extraFlags, nil

	case nodeIDTagGuid:
		ns, err := d.ReadUint16()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		g, err := d.ReadGuid()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NodeId{Namespace: ns, IdType: IdTypeGuid, Guid: g}, extraFlags, nil

	case nodeIDTagByteString:
		ns, err := d.ReadUint16()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		b, err := d.ReadByteString()
		if err != nil {
			return NodeId{}, extraFlags, err
		}
		return NodeId{Namespace: ns, IdType: IdTypeByteString, ByteString: b}, extraFlags, nil

	default:
		return NodeId{}, extraFlags, decodingErrorf(fmt.Sprintf("unknown NodeId tag 0x%02x", baseTag), nil)
	}
}

// ExpandedNodeId is a NodeId plus an optional namespace URI (in place of the
// numeric namespace index) and an optional server index.
type ExpandedNodeId struct {
	NodeId       NodeId
	NamespaceURI string // "" when absent
	HasURI       bool
	ServerIndex  uint32
	HasServerIdx bool
}

// WriteExpandedNodeId writes n, setting bit 0x80 when a namespace URI is
// present and bit 0x40 when a server index is present. When the URI is
// present the inner namespace index is transmitted as 0.
func (e *Encoder) WriteExpandedNodeId(n ExpandedNodeId) error {
	var flags byte
	if n.HasURI {
		flags |= 0x80
	}
	if n.HasServerIdx {
		flags |= 0x40
	}

	inner := n.NodeId
	if n.HasURI {
		inner.Namespace = 0
	}

	if err := e.writeNodeIDTagged(inner, flags); err != nil {
		return err
	}
	if n.HasURI {
		if err := e.WriteString(n.NamespaceURI); err != nil {
			return err
		}
	}
	if n.HasServerIdx {
		if err := e.WriteUint32(n.ServerIndex); err != nil {
			return err
		}
	}
	return nil
}

// ReadExpandedNodeId reads an ExpandedNodeId.
func (d *Decoder) ReadExpandedNodeId() (ExpandedNodeId, error) {
	inner, flags, err := d.readNodeIDTagged()
	if err != nil {
		return ExpandedNodeId{}, err
	}

	result := ExpandedNodeId{NodeId: inner}

	if flags&0x80 != 0 {
		uri, err := d.ReadString()
		if err != nil {
			return ExpandedNodeId{}, err
		}
		result.HasURI = true
		result.NamespaceURI = uri
	}
	if flags&0x40 != 0 {
		idx, err := d.ReadUint32()
		if err != nil {
			return ExpandedNodeId{}, err
		}
		result.HasServerIdx = true
		result.ServerIndex = idx
	}
	return result, nil
}
