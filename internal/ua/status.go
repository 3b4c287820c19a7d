// Package ua supplies the concrete service-message DTOs spec.md treats as
// opaque Encodable values: the secure-channel, session, read, and
// subscription request/response pairs, their shared header types, and the
// status code space they return results in. Every exported message type
// implements codec.Encodable; RegisterAll binds them all to their
// binary-encoding NodeIds on a caller-supplied registry.
package ua

import (
	"fmt"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// StatusCode is the 32-bit result code every OPC UA service operation
// returns (spec.md §7). The top two bits carry severity (00 Good, 01
// Uncertain, 1x Bad); this implementation only distinguishes Good from Bad,
// since nothing in this client's scope produces an Uncertain result.
type StatusCode uint32

const severityMask StatusCode = 0xC0000000
const severityBad StatusCode = 0x80000000

// IsGood reports whether the code's severity bits are both zero.
func (s StatusCode) IsGood() bool { return s&severityMask == 0 }

// IsBad reports whether the code's high severity bit is set.
func (s StatusCode) IsBad() bool { return s&severityBad != 0 }

func (s StatusCode) Error() string { return s.String() }

func (s StatusCode) String() string {
	if name, ok := statusCodeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(0x%08X)", uint32(s))
}

// WriteStatusCode writes s as a plain UInt32.
func WriteStatusCode(e *codec.Encoder, s StatusCode) error { return e.WriteUint32(uint32(s)) }

// ReadStatusCode reads a plain UInt32 status code.
func ReadStatusCode(d *codec.Decoder) (StatusCode, error) {
	v, err := d.ReadUint32()
	return StatusCode(v), err
}

// Good/Bad status codes spec.md §7 names, plus the handful of
// service-specific codes the supplemented operations in SPEC_FULL.md §3.1
// return. Values follow the severity-bit convention (top bit set for Bad)
// but are this implementation's own assignment, not transcribed from the
// official Part 6 Appendix A table — see DESIGN.md's Open Question note.
const (
	Good StatusCode = 0x00000000

	BadUnexpectedError             StatusCode = 0x80010000
	BadDecodingError               StatusCode = 0x80020000
	BadEncodingError               StatusCode = 0x80030000
	BadEncodingLimitsExceeded      StatusCode = 0x80040000
	BadSecurityChecksFailed        StatusCode = 0x80050000
	BadCertificateInvalid          StatusCode = 0x80060000
	BadApplicationSignatureInvalid StatusCode = 0x80070000
	BadIdentityTokenRejected       StatusCode = 0x80080000
	BadIdentityTokenInvalid        StatusCode = 0x80090000
	BadUserAccessDenied            StatusCode = 0x800A0000
	BadSecurityPolicyRejected      StatusCode = 0x800B0000
	BadSecurityModeRejected        StatusCode = 0x800C0000
	BadProtocolVersionUnsupported  StatusCode = 0x800D0000
	BadTcpSecureChannelUnknown     StatusCode = 0x800E0000
	BadUnknownResponse             StatusCode = 0x800F0000
	BadResponseTooLarge            StatusCode = 0x80100000
	BadRequestTimeout              StatusCode = 0x80110000
	BadServerNotConnected          StatusCode = 0x80120000
	BadSessionClosed               StatusCode = 0x80130000
	BadSessionIdInvalid            StatusCode = 0x80140000
	BadSessionNotActivated         StatusCode = 0x80150000
	BadSubscriptionIdInvalid       StatusCode = 0x80160000
	BadNoSubscription              StatusCode = 0x80170000
	BadTooManyPublishRequests      StatusCode = 0x80180000
	BadNodeIdUnknown               StatusCode = 0x80190000
	BadNotConnected                StatusCode = 0x801A0000
	BadConnectionClosed            StatusCode = 0x801B0000
)

var statusCodeNames = map[StatusCode]string{
	Good:                            "Good",
	BadUnexpectedError:              "BadUnexpectedError",
	BadDecodingError:                "BadDecodingError",
	BadEncodingError:                "BadEncodingError",
	BadEncodingLimitsExceeded:       "BadEncodingLimitsExceeded",
	BadSecurityChecksFailed:         "BadSecurityChecksFailed",
	BadCertificateInvalid:           "BadCertificateInvalid",
	BadApplicationSignatureInvalid:  "BadApplicationSignatureInvalid",
	BadIdentityTokenRejected:        "BadIdentityTokenRejected",
	BadIdentityTokenInvalid:         "BadIdentityTokenInvalid",
	BadUserAccessDenied:             "BadUserAccessDenied",
	BadSecurityPolicyRejected:       "BadSecurityPolicyRejected",
	BadSecurityModeRejected:         "BadSecurityModeRejected",
	BadProtocolVersionUnsupported:   "BadProtocolVersionUnsupported",
	BadTcpSecureChannelUnknown:      "BadTcpSecureChannelUnknown",
	BadUnknownResponse:              "BadUnknownResponse",
	BadResponseTooLarge:             "BadResponseTooLarge",
	BadRequestTimeout:               "BadRequestTimeout",
	BadServerNotConnected:           "BadServerNotConnected",
	BadSessionClosed:                "BadSessionClosed",
	BadSessionIdInvalid:             "BadSessionIdInvalid",
	BadSessionNotActivated:          "BadSessionNotActivated",
	BadSubscriptionIdInvalid:        "BadSubscriptionIdInvalid",
	BadNoSubscription:               "BadNoSubscription",
	BadTooManyPublishRequests:       "BadTooManyPublishRequests",
	BadNodeIdUnknown:                "BadNodeIdUnknown",
	BadNotConnected:                 "BadNotConnected",
	BadConnectionClosed:             "BadConnectionClosed",
}
