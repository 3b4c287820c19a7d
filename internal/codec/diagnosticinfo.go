package codec

// DiagnosticInfo bitmask bits (spec.md §3: "recursive bitmask-driven
// record; bit 6 carries an inner DiagnosticInfo of identical shape").
const (
	diagSymbolicIdBit      byte = 0x01
	diagNamespaceUriBit    byte = 0x02
	diagLocaleBit          byte = 0x04
	diagLocalizedTextBit   byte = 0x08
	diagAdditionalInfoBit  byte = 0x10
	diagInnerStatusCodeBit byte = 0x20
	diagInnerDiagnosticBit byte = 0x40
)

// DiagnosticInfo is a bitmask-tagged, recursively-nestable diagnostic
// record. Each indexed field names an entry in the accompanying string
// table (owned by the response that carries this DiagnosticInfo); this
// codec stores the raw Int32 indices, leaving table resolution to the
// caller.
type DiagnosticInfo struct {
	SymbolicId      *int32
	NamespaceUri    *int32
	Locale          *int32
	LocalizedText   *int32
	AdditionalInfo  *string
	InnerStatusCode *uint32
	InnerDiagnostic *DiagnosticInfo
}

func (di DiagnosticInfo) mask() byte {
	var mask byte
	if di.SymbolicId != nil {
		mask |= diagSymbolicIdBit
	}
	if di.NamespaceUri != nil {
		mask |= diagNamespaceUriBit
	}
	if di.Locale != nil {
		mask |= diagLocaleBit
	}
	if di.LocalizedText != nil {
		mask |= diagLocalizedTextBit
	}
	if di.AdditionalInfo != nil {
		mask |= diagAdditionalInfoBit
	}
	if di.InnerStatusCode != nil {
		mask |= diagInnerStatusCodeBit
	}
	if di.InnerDiagnostic != nil {
		mask |= diagInnerDiagnosticBit
	}
	return mask
}

// Encode writes di.
func (di DiagnosticInfo) Encode(e *Encoder) error {
	mask := di.mask()
	if err := e.WriteByte(mask); err != nil {
		return err
	}
	if di.SymbolicId != nil {
		if err := e.WriteInt32(*di.SymbolicId); err != nil {
			return err
		}
	}
	if di.NamespaceUri != nil {
		if err := e.WriteInt32(*di.NamespaceUri); err != nil {
			return err
		}
	}
	if di.Locale != nil {
		if err := e.WriteInt32(*di.Locale); err != nil {
			return err
		}
	}
	if di.LocalizedText != nil {
		if err := e.WriteInt32(*di.LocalizedText); err != nil {
			return err
		}
	}
	if di.AdditionalInfo != nil {
		if err := e.WriteString(*di.AdditionalInfo); err != nil {
			return err
		}
	}
	if di.InnerStatusCode != nil {
		if err := e.WriteUint32(*di.InnerStatusCode); err != nil {
			return err
		}
	}
	if di.InnerDiagnostic != nil {
		if err := di.InnerDiagnostic.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a DiagnosticInfo, recursing into the inner record when bit
// 0x40 is set. The wire format bounds the recursion (each inner record is a
// fresh value, never a back-reference), so no depth guard is needed beyond
// the decoder's own remaining-length budget.
func (di *DiagnosticInfo) Decode(d *Decoder) error {
	mask, err := d.ReadByte()
	if err != nil {
		return err
	}
	*di = DiagnosticInfo{}

	if mask&diagSymbolicIdBit != 0 {
		v, err := d.ReadInt32()
		if err != nil {
			return err
		}
		di.SymbolicId = &v
	}
	if mask&diagNamespaceUriBit != 0 {
		v, err := d.ReadInt32()
		if err != nil {
			return err
		}
		di.NamespaceUri = &v
	}
	if mask&diagLocaleBit != 0 {
		v, err := d.ReadInt32()
		if err != nil {
			return err
		}
		di.Locale = &v
	}
	if mask&diagLocalizedTextBit != 0 {
		v, err := d.ReadInt32()
		if err != nil {
			return err
		}
		di.LocalizedText = &v
	}
	if mask&diagAdditionalInfoBit != 0 {
		v, err := d.ReadString()
		if err != nil {
			return err
		}
		di.AdditionalInfo = &v
	}
	if mask&diagInnerStatusCodeBit != 0 {
		v, err := d.ReadUint32()
		if err != nil {
			return err
		}
		di.InnerStatusCode = &v
	}
	if mask&diagInnerDiagnosticBit != 0 {
		var inner DiagnosticInfo
		if err := inner.Decode(d); err != nil {
			return err
		}
		di.InnerDiagnostic = &inner
	}
	return nil
}
