package uasc

import (
	"errors"
	"fmt"
)

// Status errors surfaced by the secure conversation layer (spec.md §7).
// Decoding and crypto failures here are fatal to the owning channel; callers
// that catch one should tear the conversation down rather than retry it.
var (
	ErrEncodingLimitsExceeded      = errors.New("uasc: chunk count or message size exceeds negotiated limits")
	ErrSecurityChecksFailed        = errors.New("uasc: security checks failed")
	ErrCertificateInvalid          = errors.New("uasc: certificate invalid")
	ErrApplicationSignatureInvalid = errors.New("uasc: application signature invalid")
	ErrSecurityPolicyRejected      = errors.New("uasc: security policy rejected")
	ErrSecurityModeRejected        = errors.New("uasc: security mode rejected")
	ErrSecureChannelUnknown        = errors.New("uasc: unknown secure channel id")
	ErrChannelFaulted              = errors.New("uasc: secure channel is faulted")
	ErrChannelClosed               = errors.New("uasc: secure channel is closed")
	ErrAbortedByPeer               = errors.New("uasc: peer aborted the chunk sequence")
	ErrNonFinalOpenChunk           = fmt.Errorf("%w: multi-chunk OPN is not supported", ErrEncodingLimitsExceeded)
)
