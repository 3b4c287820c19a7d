package codec

import "bytes"

// ExtensionObject body-type discriminators (spec.md §3/§4.1).
const (
	ExtensionBodyNone       byte = 0
	ExtensionBodyByteString byte = 1
	ExtensionBodyXmlElement byte = 2
)

// ExtensionObject is a type-identified, length-prefixed body: either a typed
// Encodable the application owns (delegated encode/decode), or an opaque
// byte/XML body preserved raw when the type id is unknown to the registry,
// or when the body is XmlElement (the XML encoding path is out of scope;
// its bytes are always stored opaquely, never decoded).
type ExtensionObject struct {
	TypeId   NodeId
	BodyType byte
	Body     Encodable // set when BodyType == ExtensionBodyByteString and TypeId is registered
	Raw      []byte    // set otherwise: unknown type id, or an XmlElement body
}

// NewExtensionObject wraps an Encodable body under its registered type id.
// reg must be the same registry the value was registered with; the caller
// typically passes the registry it already holds rather than looking the id
// up twice.
func NewExtensionObject(reg TypeRegistry, body Encodable) (ExtensionObject, error) {
	id, ok := reg.IDForType(body)
	if !ok {
		return ExtensionObject{}, encodingErrorf("type not registered for ExtensionObject", nil)
	}
	return ExtensionObject{TypeId: id, BodyType: ExtensionBodyByteString, Body: body}, nil
}

// Encode writes the ExtensionObject: NodeId(typeId), body-type byte, then
// the length-prefixed body. A typed Body is encoded into a scratch buffer
// first so its length can be written ahead of it (the streaming equivalent
// of reserving four bytes and back-patching them).
func (o *ExtensionObject) Encode(e *Encoder) error {
	if err := e.WriteNodeId(o.TypeId); err != nil {
		return err
	}
	if err := e.WriteByte(o.BodyType); err != nil {
		return err
	}

	switch o.BodyType {
	case ExtensionBodyNone:
		return nil

	case ExtensionBodyByteString:
		if o.Body != nil {
			var buf bytes.Buffer
			sub := NewEncoderWithRegistry(&buf, e.registry)
			if err := o.Body.Encode(sub); err != nil {
				return encodingErrorf("extension object body", err)
			}
			return e.WriteByteString(buf.Bytes())
		}
		return e.WriteByteString(o.Raw)

	case ExtensionBodyXmlElement:
		return e.WriteByteString(o.Raw)

	default:
		return encodingErrorf("unknown ExtensionObject body type", nil)
	}
}

// Decode reads an ExtensionObject. When the type id is known to the
// attached registry and the body is a ByteString, the body is decoded into
// a fresh registered instance; otherwise the raw bytes are preserved
// verbatim, including for XmlElement bodies (never decoded, per the binary
// encoder's XML non-goal).
func (o *ExtensionObject) Decode(d *Decoder) error {
	typeId, err := d.ReadNodeId()
	if err != nil {
		return err
	}
	bodyType, err := d.ReadByte()
	if err != nil {
		return err
	}

	o.TypeId = typeId
	o.BodyType = bodyType

	switch bodyType {
	case ExtensionBodyNone:
		return nil

	case ExtensionBodyByteString:
		raw, err := d.ReadByteString()
		if err != nil {
			return err
		}
		if d.registry == nil {
			o.Raw = raw
			return nil
		}
		factory, ok := d.registry.TypeForID(typeId)
		if !ok {
			o.Raw = raw
			return nil
		}
		body := factory()
		sub := NewDecoderWithRegistry(bytes.NewReader(raw), d.registry)
		if err := body.Decode(sub); err != nil {
			return decodingErrorf("extension object body", err)
		}
		o.Body = body
		return nil

	case ExtensionBodyXmlElement:
		raw, err := d.ReadByteString()
		if err != nil {
			return err
		}
		o.Raw = raw
		return nil

	default:
		return decodingErrorf("unknown ExtensionObject body type", nil)
	}
}
