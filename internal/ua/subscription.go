package ua

import (
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// CreateSubscriptionRequest opens the keep-alive subscription spec.md §4.5
// step 8 creates once a session is active.
type CreateSubscriptionRequest struct {
	RequestHeader               RequestHeader
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	PublishingEnabled           bool
	Priority                    byte
}

func (r CreateSubscriptionRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteFloat64(r.RequestedPublishingInterval); err != nil {
		return err
	}
	if err := e.WriteUint32(r.RequestedLifetimeCount); err != nil {
		return err
	}
	if err := e.WriteUint32(r.RequestedMaxKeepAliveCount); err != nil {
		return err
	}
	if err := e.WriteUint32(r.MaxNotificationsPerPublish); err != nil {
		return err
	}
	if err := e.WriteBool(r.PublishingEnabled); err != nil {
		return err
	}
	return e.WriteByte(r.Priority)
}

func (r *CreateSubscriptionRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.RequestedPublishingInterval, err = d.ReadFloat64(); err != nil {
		return err
	}
	if r.RequestedLifetimeCount, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.RequestedMaxKeepAliveCount, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.MaxNotificationsPerPublish, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.PublishingEnabled, err = d.ReadBool(); err != nil {
		return err
	}
	r.Priority, err = d.ReadByte()
	return err
}

// CreateSubscriptionResponse returns the revised publishing parameters and
// the subscription id the publish pump's acknowledgement list indexes by.
type CreateSubscriptionResponse struct {
	ResponseHeader            ResponseHeader
	SubscriptionId            uint32
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

func (r CreateSubscriptionResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteUint32(r.SubscriptionId); err != nil {
		return err
	}
	if err := e.WriteFloat64(r.RevisedPublishingInterval); err != nil {
		return err
	}
	if err := e.WriteUint32(r.RevisedLifetimeCount); err != nil {
		return err
	}
	return e.WriteUint32(r.RevisedMaxKeepAliveCount)
}

func (r *CreateSubscriptionResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.SubscriptionId, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.RevisedPublishingInterval, err = d.ReadFloat64(); err != nil {
		return err
	}
	if r.RevisedLifetimeCount, err = d.ReadUint32(); err != nil {
		return err
	}
	r.RevisedMaxKeepAliveCount, err = d.ReadUint32()
	return err
}

// SubscriptionAcknowledgement tells the server a sequence number's
// notification has been consumed and can be discarded; the publish pump
// attaches the previous cycle's outstanding acks to each new PublishRequest
// (spec.md §5.1's "ack-list building").
type SubscriptionAcknowledgement struct {
	SubscriptionId uint32
	SequenceNumber uint32
}

func (a SubscriptionAcknowledgement) Encode(e *codec.Encoder) error {
	if err := e.WriteUint32(a.SubscriptionId); err != nil {
		return err
	}
	return e.WriteUint32(a.SequenceNumber)
}

func (a *SubscriptionAcknowledgement) Decode(d *codec.Decoder) error {
	var err error
	if a.SubscriptionId, err = d.ReadUint32(); err != nil {
		return err
	}
	a.SequenceNumber, err = d.ReadUint32()
	return err
}

// PublishRequest keeps the channel's in-flight publish count topped up
// (spec.md §5.1); it carries whatever acknowledgements have accumulated
// since the last one went out.
type PublishRequest struct {
	RequestHeader                RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

func (r PublishRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(r.SubscriptionAcknowledgements), r.SubscriptionAcknowledgements == nil); err != nil {
		return err
	}
	for _, a := range r.SubscriptionAcknowledgements {
		if err := a.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *PublishRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.SubscriptionAcknowledgements = make([]SubscriptionAcknowledgement, n)
		for i := range r.SubscriptionAcknowledgements {
			if err := r.SubscriptionAcknowledgements[i].Decode(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// NotificationMessage is one publish cycle's payload: a sequence number plus
// zero or more ExtensionObject-wrapped NotificationData (DataChangeNotification
// or EventNotificationList, both opaque here — spec.md scopes data-change
// vs. event notification content out, treating a NotificationMessage as an
// opaque delivery unit the caller fans out).
type NotificationMessage struct {
	SequenceNumber uint32
	PublishTime    time.Time
	NotificationData []codec.ExtensionObject
}

func (m NotificationMessage) Encode(e *codec.Encoder) error {
	if err := e.WriteUint32(m.SequenceNumber); err != nil {
		return err
	}
	if err := e.WriteDateTime(m.PublishTime); err != nil {
		return err
	}
	return e.WriteExtensionObjectArray(m.NotificationData)
}

func (m *NotificationMessage) Decode(d *codec.Decoder) error {
	var err error
	if m.SequenceNumber, err = d.ReadUint32(); err != nil {
		return err
	}
	if m.PublishTime, err = d.ReadDateTime(); err != nil {
		return err
	}
	m.NotificationData, err = d.ReadExtensionObjectArray()
	return err
}

// PublishResponse carries one subscription's notification batch plus which
// previously-sent acknowledgements the server actually applied.
type PublishResponse struct {
	ResponseHeader           ResponseHeader
	SubscriptionId           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      NotificationMessage
	Results                  []StatusCode
	DiagnosticInfos          []codec.DiagnosticInfo
}

func (r PublishResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteUint32(r.SubscriptionId); err != nil {
		return err
	}
	if err := e.WriteUint32Array(r.AvailableSequenceNumbers); err != nil {
		return err
	}
	if err := e.WriteBool(r.MoreNotifications); err != nil {
		return err
	}
	if err := r.NotificationMessage.Encode(e); err != nil {
		return err
	}
	raw := make([]uint32, len(r.Results))
	for i, s := range r.Results {
		raw[i] = uint32(s)
	}
	if err := e.WriteUint32Array(raw); err != nil {
		return err
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

func (r *PublishResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.SubscriptionId, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.AvailableSequenceNumbers, err = d.ReadUint32Array(); err != nil {
		return err
	}
	if r.MoreNotifications, err = d.ReadBool(); err != nil {
		return err
	}
	if err := r.NotificationMessage.Decode(d); err != nil {
		return err
	}
	raw, err := d.ReadUint32Array()
	if err != nil {
		return err
	}
	r.Results = make([]StatusCode, len(raw))
	for i, v := range raw {
		r.Results[i] = StatusCode(v)
	}
	n, err := d.ReadArrayLength()
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
