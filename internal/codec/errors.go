package codec

import "errors"

// Sentinel errors surfaced by the codec. Every entry point collapses its
// failure to one of these so callers can map them to a status code without
// inspecting error text.
var (
	// ErrDecoding covers malformed tags/lengths, unknown variant
	// discriminants, and truncated streams.
	ErrDecoding = errors.New("codec: bad decoding")

	// ErrEncoding covers missing registry entries and encode-side failures
	// from a delegated Encodable.
	ErrEncoding = errors.New("codec: bad encoding")

	// ErrLimitsExceeded covers array/string lengths that exceed the
	// decoder's remaining-length budget.
	ErrLimitsExceeded = errors.New("codec: limits exceeded")
)

// DecodingError wraps ErrDecoding with the offending detail.
type DecodingError struct {
	Detail string
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return "codec: bad decoding: " + e.Detail + ": " + e.Err.Error()
	}
	return "codec: bad decoding: " + e.Detail
}

func (e *DecodingError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDecoding, e.Err}
	}
	return []error{ErrDecoding}
}

func decodingErrorf(detail string, err error) error {
	return &DecodingError{Detail: detail, Err: err}
}

// EncodingError wraps ErrEncoding with the offending detail.
type EncodingError struct {
	Detail string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return "codec: bad encoding: " + e.Detail + ": " + e.Err.Error()
	}
	return "codec: bad encoding: " + e.Detail
}

func (e *EncodingError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEncoding, e.Err}
	}
	return []error{ErrEncoding}
}

func encodingErrorf(detail string, err error) error {
	return &EncodingError{Detail: detail, Err: err}
}
