package codec

import "time"

// QualifiedName is a namespace-qualified name: a namespace index plus a
// name string.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// WriteQualifiedName writes q.
func (e *Encoder) WriteQualifiedName(q QualifiedName) error {
	if err := e.WriteUint16(q.NamespaceIndex); err != nil {
		return err
	}
	return e.WriteString(q.Name)
}

// ReadQualifiedName reads a QualifiedName.
func (d *Decoder) ReadQualifiedName() (QualifiedName, error) {
	ns, err := d.ReadUint16()
	if err != nil {
		return QualifiedName{}, err
	}
	name, err := d.ReadString()
	if err != nil {
		return QualifiedName{}, err
	}
	return QualifiedName{NamespaceIndex: ns, Name: name}, nil
}

// LocalizedText bitmask bits (spec.md §3 bitmask-tagged records).
const (
	localizedTextLocaleBit byte = 0x01
	localizedTextTextBit   byte = 0x02
)

// LocalizedText is a bitmask-tagged {locale, text} pair; either field may be
// absent.
type LocalizedText struct {
	Locale *string
	Text   *string
}

// WriteLocalizedText writes t: a presence bitmask byte, then each present
// field in fixed order (locale, then text).
func (e *Encoder) WriteLocalizedText(t LocalizedText) error {
	var mask byte
	if t.Locale != nil {
		mask |= localizedTextLocaleBit
	}
	if t.Text != nil {
		mask |= localizedTextTextBit
	}
	if err := e.WriteByte(mask); err != nil {
		return err
	}
	if t.Locale != nil {
		if err := e.WriteString(*t.Locale); err != nil {
			return err
		}
	}
	if t.Text != nil {
		if err := e.WriteString(*t.Text); err != nil {
			return err
		}
	}
	return nil
}

// ReadLocalizedText reads a LocalizedText.
func (d *Decoder) ReadLocalizedText() (LocalizedText, error) {
	mask, err := d.ReadByte()
	if err != nil {
		return LocalizedText{}, err
	}
	var t LocalizedText
	if mask&localizedTextLocaleBit != 0 {
		s, err := d.ReadString()
		if err != nil {
			return LocalizedText{}, err
		}
		t.Locale = &s
	}
	if mask&localizedTextTextBit != 0 {
		s, err := d.ReadString()
		if err != nil {
			return LocalizedText{}, err
		}
		t.Text = &s
	}
	return t, nil
}

// DataValue bitmask bits, in fixed encode/decode order (spec.md §3).
const (
	dataValueValueBit    byte = 0x01
	dataValueStatusBit   byte = 0x02
	dataValueSourceTSBit byte = 0x04
	dataValueServerTSBit byte = 0x08
	dataValueSourcePSBit byte = 0x10
	dataValueServerPSBit byte = 0x20
)

// DataValue is a bitmask-tagged record of {value, status, sourceTs,
// serverTs, sourcePs, serverPs}; only the present fields are transmitted,
// in that fixed order.
type DataValue struct {
	Value             *Variant
	Status            *uint32
	SourceTimestamp   *time.Time
	ServerTimestamp   *time.Time
	SourcePicoseconds *uint16
	ServerPicoseconds *uint16
}

func (v DataValue) mask() byte {
	var mask byte
	if v.Value != nil {
		mask |= dataValueValueBit
	}
	if v.Status != nil {
		mask |= dataValueStatusBit
	}
	if v.SourceTimestamp != nil {
		mask |= dataValueSourceTSBit
	}
	if v.ServerTimestamp != nil {
		mask |= dataValueServerTSBit
	}
	if v.SourcePicoseconds != nil {
		mask |= dataValueSourcePSBit
	}
	if v.ServerPicoseconds != nil {
		mask |= dataValueServerPSBit
	}
	return mask
}

// Encode writes v.
func (v DataValue) Encode(e *Encoder) error {
	mask := v.mask()
	if err := e.WriteByte(mask); err != nil {
		return err
	}
	if v.Value != nil {
		if err := v.Value.Encode(e); err != nil {
			return err
		}
	}
	if v.Status != nil {
		if err := e.WriteUint32(*v.Status); err != nil {
			return err
		}
	}
	if v.SourceTimestamp != nil {
		if err := e.WriteDateTime(*v.SourceTimestamp); err != nil {
			return err
		}
	}
	if v.ServerTimestamp != nil {
		if err := e.WriteDateTime(*v.ServerTimestamp); err != nil {
			return err
		}
	}
	if v.SourcePicoseconds != nil {
		if err := e.WriteUint16(*v.SourcePicoseconds); err != nil {
			return err
		}
	}
	if v.ServerPicoseconds != nil {
		if err := e.WriteUint16(*v.ServerPicoseconds); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a DataValue.
func (v *DataValue) Decode(d *Decoder) error {
	mask, err := d.ReadByte()
	if err != nil {
		return err
	}
	*v = DataValue{}
	if mask&dataValueValueBit != 0 {
		var val Variant
		if err := val.Decode(d); err != nil {
			return err
		}
		v.Value = &val
	}
	if mask&dataValueStatusBit != 0 {
		s, err := d.ReadUint32()
		if err != nil {
			return err
		}
		v.Status = &s
	}
	if mask&dataValueSourceTSBit != 0 {
		t, err := d.ReadDateTime()
		if err != nil {
			return err
		}
		v.SourceTimestamp = &t
	}
	if mask&dataValueServerTSBit != 0 {
		t, err := d.ReadDateTime()
		if err != nil {
			return err
		}
		v.ServerTimestamp = &t
	}
	if mask&dataValueSourcePSBit != 0 {
		p, err := d.ReadUint16()
		if err != nil {
			return err
		}
		v.SourcePicoseconds = &p
	}
	if mask&dataValueServerPSBit != 0 {
		p, err := d.ReadUint16()
		if err != nil {
			return err
		}
		v.ServerPicoseconds = &p
	}
	return nil
}
