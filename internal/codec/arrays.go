package codec

// WriteArrayLength writes an array's Int32 length prefix: -1 for a nil
// slice, the element count otherwise. Callers encode each element
// themselves immediately after.
func (e *Encoder) WriteArrayLength(n int, isNil bool) error {
	if isNil {
		return e.WriteInt32(-1)
	}
	return e.WriteInt32(int32(n))
}

// ReadArrayLength reads an array's Int32 length prefix, validating it
// against the decoder's remaining-length budget. It returns (-1, nil) for a
// null array.
func (d *Decoder) ReadArrayLength() (int32, error) {
	n, err := d.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n == -1 {
		return -1, nil
	}
	if err := d.checkLength(int64(n)); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteStringArray writes an array of strings; a nil slice encodes as a
// null array (length -1).
func (e *Encoder) WriteStringArray(values []string) error {
	if err := e.WriteArrayLength(len(values), values == nil); err != nil {
		return err
	}
	for _, s := range values {
		if err := e.WriteString(s); err != nil {
			return err
		}
	}
	return nil
}

// ReadStringArray reads an array of strings.
func (d *Decoder) ReadStringArray() ([]string, error) {
	n, err := d.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	values := make([]string, n)
	for i := range values {
		values[i], err = d.ReadString()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// WriteNodeIdArray writes an array of NodeIds.
func (e *Encoder) WriteNodeIdArray(values []NodeId) error {
	if err := e.WriteArrayLength(len(values), values == nil); err != nil {
		return err
	}
	for _, id := range values {
		if err := e.WriteNodeId(id); err != nil {
			return err
		}
	}
	return nil
}

// ReadNodeIdArray reads an array of NodeIds.
func (d *Decoder) ReadNodeIdArray() ([]NodeId, error) {
	n, err := d.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	values := make([]NodeId, n)
	for i := range values {
		values[i], err = d.ReadNodeId()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// WriteUint32Array writes an array of uint32 (e.g. StatusCode results).
func (e *Encoder) WriteUint32Array(values []uint32) error {
	if err := e.WriteArrayLength(len(values), values == nil); err != nil {
		return err
	}
	for _, v := range values {
		if err := e.WriteUint32(v); err != nil {
			return err
		}
	}
	return nil
}

// ReadUint32Array reads an array of uint32.
func (d *Decoder) ReadUint32Array() ([]uint32, error) {
	n, err := d.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	values := make([]uint32, n)
	for i := range values {
		values[i], err = d.ReadUint32()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// WriteExtensionObjectArray writes an array of ExtensionObjects.
func (e *Encoder) WriteExtensionObjectArray(values []ExtensionObject) error {
	if err := e.WriteArrayLength(len(values), values == nil); err != nil {
		return err
	}
	for i := range values {
		if err := values[i].Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// ReadExtensionObjectArray reads an array of ExtensionObjects.
func (d *Decoder) ReadExtensionObjectArray() ([]ExtensionObject, error) {
	n, err := d.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	values := make([]ExtensionObject, n)
	for i := range values {
		if err := values[i].Decode(d); err != nil {
			return nil, err
		}
	}
	return values, nil
}
