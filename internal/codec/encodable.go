package codec

// Encodable is the capability of reading/writing itself through the codec.
// Every DTO that appears as an ExtensionObject body or top-level Message
// body implements it — the same shape as this codec's Serialize/Deserialize
// method pairs, generalized to OPC UA's type-driven binary encoding.
type Encodable interface {
	Encode(e *Encoder) error
	Decode(d *Decoder) error
}

// TypeRegistry is the capability internal/registry.Registry provides: a
// bidirectional mapping between Encodable concrete types and their
// binary-encoding NodeId, consulted by ExtensionObject and Message. Defined
// here (rather than imported from internal/registry) so the codec package
// has no dependency on the registry package; internal/registry depends on
// codec instead.
type TypeRegistry interface {
	// TypeForID returns a zero-value factory for the type registered under
	// id, or ok=false if id is unknown.
	TypeForID(id NodeId) (factory func() Encodable, ok bool)

	// IDForType returns the NodeId a concrete Encodable value was
	// registered under, or ok=false if its type is unregistered.
	IDForType(v Encodable) (id NodeId, ok bool)
}
