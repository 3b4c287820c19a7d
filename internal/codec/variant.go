package codec

import (
	"fmt"
	"time"
)

// VariantType names one of the 25 scalar OPC UA built-in types a Variant
// may carry (plus DiagnosticInfo, which only appears nested). Variant
// itself (24) is a valid element type only inside an array of Variant —
// never as a scalar Variant's own Type.
type VariantType byte

const (
	VariantNull VariantType = iota
	VariantBoolean
	VariantSByte
	VariantByte
	VariantInt16
	VariantUInt16
	VariantInt32
	VariantUInt32
	VariantInt64
	VariantUInt64
	VariantFloat
	VariantDouble
	VariantString
	VariantDateTime
	VariantGuid
	VariantByteString
	VariantXmlElement
	VariantNodeId
	VariantExpandedNodeId
	VariantStatusCode
	VariantQualifiedName
	VariantLocalizedText
	VariantExtensionObject
	VariantDataValue
	VariantVariant
	VariantDiagnosticInfo
)

const variantTypeMask = 0x3F
const variantArrayFlag = 0x80
const variantMultiDimFlag = 0x40

// Variant is a tagged union carrying exactly one scalar value, or an array
// of them (optionally reshaped into a row-major multi-dimensional array via
// ArrayDims).
type Variant struct {
	Type      VariantType
	IsArray   bool
	ArrayDims []int32       // non-nil only for multi-dimensional arrays
	Scalar    interface{}   // valid when !IsArray
	Array     []interface{} // valid when IsArray; row-major flattened when ArrayDims is set
}

// NewVariant builds a scalar Variant.
func NewVariant(t VariantType, v interface{}) Variant {
	return Variant{Type: t, Scalar: v}
}

// NewVariantArray builds a one-dimensional array Variant.
func NewVariantArray(t VariantType, values []interface{}) Variant {
	return Variant{Type: t, IsArray: true, Array: values}
}

// NewVariantMatrix builds a multi-dimensional array Variant from a
// row-major flattened element slice and its shape.
func NewVariantMatrix(t VariantType, dims []int32, values []interface{}) Variant {
	return Variant{Type: t, IsArray: true, ArrayDims: dims, Array: values}
}

// Encode writes v: the tag byte, then either the scalar value or the
// array's length-prefixed elements followed (for multi-dimensional arrays)
// by a length-prefixed dimension vector.
func (v Variant) Encode(e *Encoder) error {
	tag := byte(v.Type) & variantTypeMask
	if v.IsArray {
		tag |= variantArrayFlag
		if len(v.ArrayDims) > 0 {
			tag |= variantMultiDimFlag
		}
	}
	if err := e.WriteByte(tag); err != nil {
		return err
	}

	if !v.IsArray {
		return encodeVariantScalar(e, v.Type, v.Scalar)
	}

	if err := e.WriteArrayLength(len(v.Array), v.Array == nil); err != nil {
		return err
	}
	for _, el := range v.Array {
		if err := encodeVariantScalar(e, v.Type, el); err != nil {
			return err
		}
	}

	if len(v.ArrayDims) > 0 {
		if err := e.WriteInt32(int32(len(v.ArrayDims))); err != nil {
			return err
		}
		for _, dim := range v.ArrayDims {
			if err := e.WriteInt32(dim); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode reads a Variant, rebuilding a multi-dimensional array's shape from
// its trailing dimension vector once all elements are read.
func (v *Variant) Decode(d *Decoder) error {
	tag, err := d.ReadByte()
	if err != nil {
		return err
	}

	t := VariantType(tag & variantTypeMask)
	isArray := tag&variantArrayFlag != 0
	isMultiDim := tag&variantMultiDimFlag != 0

	v.Type = t
	v.IsArray = isArray
	v.ArrayDims = nil

	if !isArray {
		v.Scalar, err = decodeVariantScalar(d, t)
		return err
	}

	n, err := d.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		v.Array = nil
		return nil
	}
	if err := d.checkLength(int64(n)); err != nil {
		return err
	}

	elems := make([]interface{}, n)
	for i := range elems {
		elems[i], err = decodeVariantScalar(d, t)
		if err != nil {
			return err
		}
	}
	v.Array = elems

	if isMultiDim {
		dimCount, err := d.ReadInt32()
		if err != nil {
			return err
		}
		if err := d.checkLength(int64(dimCount)); err != nil {
			return err
		}
		dims := make([]int32, dimCount)
		for i := range dims {
			dims[i], err = d.ReadInt32()
			if err != nil {
				return err
			}
		}
		v.ArrayDims = dims
	}

	return nil
}

func encodeVariantScalar(e *Encoder, t VariantType, val interface{}) error {
	switch t {
	case VariantNull:
		return nil
	case VariantBoolean:
		return e.WriteBool(val.(bool))
	case VariantSByte:
		return e.WriteSByte(val.(int8))
	case VariantByte:
		return e.WriteByte(val.(byte))
	case VariantInt16:
		return e.WriteInt16(val.(int16))
	case VariantUInt16:
		return e.WriteUint16(val.(uint16))
	case VariantInt32:
		return e.WriteInt32(val.(int32))
	case VariantUInt32:
		return e.WriteUint32(val.(uint32))
	case VariantInt64:
		return e.WriteInt64(val.(int64))
	case VariantUInt64:
		return e.WriteUint64(val.(uint64))
	case VariantFloat:
		return e.WriteFloat32(val.(float32))
	case VariantDouble:
		return e.WriteFloat64(val.(float64))
	case VariantString:
		return e.WriteString(val.(string))
	case VariantDateTime:
		return e.WriteDateTime(val.(time.Time))
	case VariantGuid:
		return e.WriteGuid(val.(Guid))
	case VariantByteString:
		return e.WriteByteString(val.([]byte))
	case VariantXmlElement:
		return e.WriteByteString(val.([]byte))
	case VariantNodeId:
		return e.WriteNodeId(val.(NodeId))
	case VariantExpandedNodeId:
		return e.WriteExpandedNodeId(val.(ExpandedNodeId))
	case VariantStatusCode:
		return e.WriteUint32(val.(uint32))
	case VariantQualifiedName:
		return e.WriteQualifiedName(val.(QualifiedName))
	case VariantLocalizedText:
		return e.WriteLocalizedText(val.(LocalizedText))
	case VariantExtensionObject:
		obj := val.(ExtensionObject)
		return obj.Encode(e)
	case VariantDataValue:
		dv := val.(DataValue)
		return dv.Encode(e)
	case VariantVariant:
		inner := val.(Variant)
		return inner.Encode(e)
	default:
		return encodingErrorf(fmt.Sprintf("unsupported Variant scalar type %d", t), nil)
	}
}

func decodeVariantScalar(d *Decoder, t VariantType) (interface{}, error) {
	switch t {
	case VariantNull:
		return nil, nil
	case VariantBoolean:
		return d.ReadBool()
	case VariantSByte:
		return d.ReadSByte()
	case VariantByte:
		return d.ReadByte()
	case VariantInt16:
		return d.ReadInt16()
	case VariantUInt16:
		return d.ReadUint16()
	case VariantInt32:
		return d.ReadInt32()
	case VariantUInt32:
		return d.ReadUint32()
	case VariantInt64:
		return d.ReadInt64()
	case VariantUInt64:
		return d.ReadUint64()
	case VariantFloat:
		return d.ReadFloat32()
	case VariantDouble:
		return d.ReadFloat64()
	case VariantString:
		return d.ReadString()
	case VariantDateTime:
		return d.ReadDateTime()
	case VariantGuid:
		return d.ReadGuid()
	case VariantByteString:
		return d.ReadByteString()
	case VariantXmlElement:
		return d.ReadByteString()
	case VariantNodeId:
		return d.ReadNodeId()
	case VariantExpandedNodeId:
		return d.ReadExpandedNodeId()
	case VariantStatusCode:
		return d.ReadUint32()
	case VariantQualifiedName:
		return d.ReadQualifiedName()
	case VariantLocalizedText:
		return d.ReadLocalizedText()
	case VariantExtensionObject:
		var obj ExtensionObject
		err := obj.Decode(d)
		return obj, err
	case VariantDataValue:
		var dv DataValue
		err := dv.Decode(d)
		return dv, err
	case VariantVariant:
		var inner Variant
		err := inner.Decode(d)
		return inner, err
	default:
		return nil, decodingErrorf(fmt.Sprintf("unsupported Variant scalar type %d", t), nil)
	}
}
