// Package codec implements the OPC UA Part 6 §5.2 binary encoding: the
// little-endian primitive types plus the composite wire types (NodeId,
// ExpandedNodeId, Variant, DataValue, DiagnosticInfo, ExtensionObject) built
// on top of them.
//
// Every type follows the Serialize/Deserialize convention: a value-receiver
// Encode(*Encoder) error and a pointer-receiver Decode(*Decoder) error pair,
// and the primitive helpers (WriteInt32, ReadString, ...) are methods on the
// Encoder and Decoder that wrap the stream.
package codec

import (
	"encoding/binary"
	"io"
	"math"
)

// Encoder writes OPC UA binary-encoded values to an underlying stream.
type Encoder struct {
	w        io.Writer
	buf      [8]byte
	registry TypeRegistry
}

// NewEncoder wraps w in an Encoder with no registry; ExtensionObjects
// encoded through it always write their raw body.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// NewEncoderWithRegistry wraps w in an Encoder that consults reg when
// encoding ExtensionObject and top-level Message bodies.
func NewEncoderWithRegistry(w io.Writer, reg TypeRegistry) *Encoder {
	return &Encoder{w: w, registry: reg}
}

// SetRegistry attaches reg to an already-constructed Encoder.
func (e *Encoder) SetRegistry(reg TypeRegistry) { e.registry = reg }

func (e *Encoder) write(p []byte) error {
	_, err := e.w.Write(p)
	if err != nil {
		return encodingErrorf("write", err)
	}
	return nil
}

// WriteByte writes a single byte.
func (e *Encoder) WriteByte(v byte) error {
	e.buf[0] = v
	return e.write(e.buf[:1])
}

// WriteBool writes a boolean as a single byte, 0 or 1.
func (e *Encoder) WriteBool(v bool) error {
	if v {
		return e.WriteByte(1)
	}
	return e.WriteByte(0)
}

// WriteSByte writes a signed 8-bit integer.
func (e *Encoder) WriteSByte(v int8) error { return e.WriteByte(byte(v)) }

// WriteInt16 writes a little-endian signed 16-bit integer.
func (e *Encoder) WriteInt16(v int16) error { return e.WriteUint16(uint16(v)) }

// WriteUint16 writes a little-endian unsigned 16-bit integer.
func (e *Encoder) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(e.buf[:2], v)
	return e.write(e.buf[:2])
}

// WriteInt32 writes a little-endian signed 32-bit integer.
func (e *Encoder) WriteInt32(v int32) error { return e.WriteUint32(uint32(v)) }

// WriteUint32 writes a little-endian unsigned 32-bit integer.
func (e *Encoder) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	return e.write(e.buf[:4])
}

// WriteInt64 writes a little-endian signed 64-bit integer.
func (e *Encoder) WriteInt64(v int64) error { return e.WriteUint64(uint64(v)) }

// WriteUint64 writes a little-endian unsigned 64-bit integer.
func (e *Encoder) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	return e.write(e.buf[:8])
}

// WriteFloat32 writes a little-endian IEEE-754 single.
func (e *Encoder) WriteFloat32(v float32) error {
	return e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes a little-endian IEEE-754 double.
func (e *Encoder) WriteFloat64(v float64) error {
	return e.WriteUint64(math.Float64bits(v))
}

// WriteString writes a UTF-8 string with an Int32 length prefix. An empty
// string is written with length 0; callers that need to distinguish a null
// string from an empty one should use WriteStringPtr.
func (e *Encoder) WriteString(s string) error {
	return e.WriteByteString([]byte(s))
}

// WriteStringPtr writes a nullable string: nil encodes as length -1.
func (e *Encoder) WriteStringPtr(s *string) error {
	if s == nil {
		return e.WriteInt32(-1)
	}
	return e.WriteString(*s)
}

// WriteByteString writes a ByteString: an Int32 length prefix followed by
// the raw bytes. A nil slice encodes as length -1; a non-nil empty slice
// encodes as length 0.
func (e *Encoder) WriteByteString(b []byte) error {
	if b == nil {
		return e.WriteInt32(-1)
	}
	if err := e.WriteInt32(int32(len(b))); err != nil {
		return err
	}
	return e.write(b)
}

// Decoder reads OPC UA binary-encoded values from an underlying stream. It
// tracks a remaining-length budget seeded from the owning chunk's body size
// so array/string lengths that would overrun the stream fail as a cheap
// arithmetic check instead of surfacing as a short read.
type Decoder struct {
	r            io.Reader
	buf          [8]byte
	remaining    int64
	bounded      bool
	registry     TypeRegistry
	fastDispatch []fastDispatchEntry
}

// NewDecoder wraps r in an unbounded Decoder with no registry; decoded
// ExtensionObjects and top-level Messages always preserve their raw body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// NewBoundedDecoder wraps r in a Decoder whose remaining-length budget is
// seeded from size, typically the owning chunk's reassembled body length.
func NewBoundedDecoder(r io.Reader, size int64) *Decoder {
	return &Decoder{r: r, remaining: size, bounded: true}
}

// NewDecoderWithRegistry wraps r in an unbounded Decoder that consults reg
// when decoding ExtensionObject and top-level Message bodies.
func NewDecoderWithRegistry(r io.Reader, reg TypeRegistry) *Decoder {
	return &Decoder{r: r, registry: reg}
}

// SetRegistry attaches reg to an already-constructed Decoder.
func (d *Decoder) SetRegistry(reg TypeRegistry) { d.registry = reg }

// Remaining reports the remaining-length budget. It is only meaningful for
// bounded decoders.
func (d *Decoder) Remaining() int64 { return d.remaining }

func (d *Decoder) read(p []byte) error {
	if d.bounded {
		if int64(len(p)) > d.remaining {
			return decodingErrorf("read exceeds remaining stream", nil)
		}
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		return decodingErrorf("short read", err)
	}
	if d.bounded {
		d.remaining -= int64(len(p))
	}
	return nil
}

// checkLength validates a declared element/byte count against the
// remaining-length budget before the caller allocates or loops over it.
func (d *Decoder) checkLength(n int64) error {
	if n < 0 {
		return decodingErrorf("negative length", nil)
	}
	if d.bounded && n > d.remaining {
		return &DecodingError{Detail: "array length exceeds remaining stream", Err: ErrLimitsExceeded}
	}
	return nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if err := d.read(d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

// ReadBool reads a boolean: any nonzero byte is true.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	return b != 0, err
}

// ReadSByte reads a signed 8-bit integer.
func (d *Decoder) ReadSByte() (int8, error) {
	b, err := d.ReadByte()
	return int8(b), err
}

// ReadInt16 reads a little-endian signed 16-bit integer.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (d *Decoder) ReadUint16() (uint16, error) {
	if err := d.read(d.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d.buf[:2]), nil
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (d *Decoder) ReadUint32() (uint32, error) {
	if err := d.read(d.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d.buf[:4]), nil
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadUint64 reads a little-endian unsigned 64-bit integer.
func (d *Decoder) ReadUint64() (uint64, error) {
	if err := d.read(d.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(d.buf[:8]), nil
}

// ReadFloat32 reads a little-endian IEEE-754 single.
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian IEEE-754 double.
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadByteString reads a ByteString: an Int32 length prefix followed by the
// raw bytes. Length -1 yields a nil slice; length 0 yields a non-nil empty
// slice.
func (d *Decoder) ReadByteString() ([]byte, error) {
	n, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if err := d.checkLength(int64(n)); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	b := make([]byte, n)
	if err := d.read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadString reads a String as UTF-8. Malformed byte sequences are repaired
// leniently (invalid runs are replaced with the Unicode replacement
// character) rather than failing the decode, per the wire format's lenient
// decoding rule. A null string decodes to "".
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadByteString()
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", nil
	}
	return toValidUTF8(b), nil
}

// ReadStringPtr reads a nullable String: length -1 yields a nil pointer.
func (d *Decoder) ReadStringPtr() (*string, error) {
	b, err := d.ReadByteString()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	s := toValidUTF8(b)
	return &s, nil
}
