package codec

// fastDispatchEntry binds a NodeId directly to a factory, bypassing the
// registry's generic map lookup. spec.md §4.1 calls out PublishResponse and
// ReadResponse for this: they are by far the hottest messages on a running
// channel's receive pump, so internal/session arms this cache once at
// startup via SetFastDispatch rather than taking the registry's lookup path
// on every publish.
type fastDispatchEntry struct {
	id      NodeId
	factory func() Encodable
}

// SetFastDispatch replaces the Decoder's fast-dispatch entries with the given
// ones. An entry with a nil factory is skipped.
func (d *Decoder) SetFastDispatch(entries ...struct {
	ID      NodeId
	Factory func() Encodable
}) {
	d.fastDispatch = d.fastDispatch[:0]
	for _, e := range entries {
		if e.Factory == nil {
			continue
		}
		d.fastDispatch = append(d.fastDispatch, fastDispatchEntry{id: e.ID, factory: e.Factory})
	}
}

// WriteMessage writes a top-level service message: the NodeId of its
// binary-encoding id, followed by its body, with no body-type byte (unlike
// ExtensionObject, a Message is not optionally-opaque — the chunk framing
// around it already establishes "this is a Message").
func (e *Encoder) WriteMessage(body Encodable) error {
	if e.registry == nil {
		return encodingErrorf("no registry attached for message encoding", nil)
	}
	id, ok := e.registry.IDForType(body)
	if !ok {
		return encodingErrorf("message type not registered", nil)
	}
	if err := e.WriteNodeId(id); err != nil {
		return err
	}
	return body.Encode(e)
}

// ReadMessage reads a top-level service message's NodeId and constructs and
// decodes the matching registered type, taking the fast-dispatch cache
// first when armed. An unregistered id is a hard BadEncodingError (unlike
// ExtensionObject, which falls back to a raw body — a top-level message
// with no concrete type is unusable to any caller).
func (d *Decoder) ReadMessage() (NodeId, Encodable, error) {
	id, err := d.ReadNodeId()
	if err != nil {
		return NodeId{}, nil, err
	}

	for _, fd := range d.fastDispatch {
		if fd.id.Equals(id) {
			body := fd.factory()
			if err := body.Decode(d); err != nil {
				return id, nil, decodingErrorf("message body", err)
			}
			return id, body, nil
		}
	}

	if d.registry == nil {
		return id, nil, encodingErrorf("no registry attached for message decoding", nil)
	}
	factory, ok := d.registry.TypeForID(id)
	if !ok {
		return id, nil, &EncodingError{Detail: "unregistered message type " + id.String()}
	}
	body := factory()
	if err := body.Decode(d); err != nil {
		return id, nil, decodingErrorf("message body", err)
	}
	return id, body, nil
}
