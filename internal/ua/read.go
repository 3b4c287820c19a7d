package ua

import "github.com/rcarmo/go-opcua/internal/codec"

// TimestampsToReturn selects which timestamps a ReadResponse's DataValues
// carry.
type TimestampsToReturn int32

const (
	TimestampsToReturnSource TimestampsToReturn = iota
	TimestampsToReturnServer
	TimestampsToReturnBoth
	TimestampsToReturnNeither
)

// ReadValueId names one attribute of one node to read; AttributeId 13 is
// Value, the one this client's bootstrap Read (spec.md §4.5 step 7) uses
// against Server_NamespaceArray/Server_ServerArray.
type ReadValueId struct {
	NodeId       codec.NodeId
	AttributeId  uint32
	IndexRange   *string
	DataEncoding codec.QualifiedName
}

func (r ReadValueId) Encode(e *codec.Encoder) error {
	if err := e.WriteNodeId(r.NodeId); err != nil {
		return err
	}
	if err := e.WriteUint32(r.AttributeId); err != nil {
		return err
	}
	if err := e.WriteStringPtr(r.IndexRange); err != nil {
		return err
	}
	return e.WriteQualifiedName(r.DataEncoding)
}

func (r *ReadValueId) Decode(d *codec.Decoder) error {
	var err error
	if r.NodeId, err = d.ReadNodeId(); err != nil {
		return err
	}
	if r.AttributeId, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.IndexRange, err = d.ReadStringPtr(); err != nil {
		return err
	}
	r.DataEncoding, err = d.ReadQualifiedName()
	return err
}

// ReadRequest reads a batch of node attributes in one round trip.
type ReadRequest struct {
	RequestHeader     RequestHeader
	MaxAge            float64
	TimestampsToReturn TimestampsToReturn
	NodesToRead       []ReadValueId
}

func (r ReadRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteFloat64(r.MaxAge); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(r.TimestampsToReturn)); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(r.NodesToRead), r.NodesToRead == nil); err != nil {
		return err
	}
	for _, v := range r.NodesToRead {
		if err := v.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReadRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.MaxAge, err = d.ReadFloat64(); err != nil {
		return err
	}
	tt, err := d.ReadInt32()
	if err != nil {
		return err
	}
	r.TimestampsToReturn = TimestampsToReturn(tt)
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.NodesToRead = make([]ReadValueId, n)
		for i := range r.NodesToRead {
			if err := r.NodesToRead[i].Decode(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadResponse returns one DataValue per ReadValueId, in request order.
type ReadResponse struct {
	ResponseHeader  ResponseHeader
	Results         []codec.DataValue
	DiagnosticInfos []codec.DiagnosticInfo
}

func (r ReadResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(r.Results), r.Results == nil); err != nil {
		return err
	}
	for _, v := range r.Results {
		if err := v.Encode(e); err != nil {
			return err
		}
	}
	if err := e.WriteArrayLength(len(r.DiagnosticInfos), r.DiagnosticInfos == nil); err != nil {
		return err
	}
	for _, di := range r.DiagnosticInfos {
		if err := di.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReadResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.Results = make([]codec.DataValue, n)
		for i := range r.Results {
			if err := r.Results[i].Decode(d); err != nil {
				return err
			}
		}
	}
	n, err = d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.DiagnosticInfos = make([]codec.DiagnosticInfo, n)
		for i := range r.DiagnosticInfos {
			if err := r.DiagnosticInfos[i].Decode(d); err != nil {
				return err
			}
		}
	}
	return nil
}
