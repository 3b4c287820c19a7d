package session

import "errors"

// Sentinel errors the session layer returns on top of the StatusCode values
// ua.ResponseHeader.ServiceResult carries (spec.md §7).
var (
	ErrRequestTimeout       = errors.New("session: request timed out")
	ErrServerNotConnected   = errors.New("session: not connected")
	ErrChannelFault         = errors.New("session: secure channel faulted")
	ErrCertificateMismatch  = errors.New("session: server certificate does not match the endpoint's advertised certificate")
	ErrServerSignatureBad   = errors.New("session: server signature verification failed")
	ErrNoMatchingEndpoint   = errors.New("session: no endpoint matches the configured security policy and mode")
	ErrNoMatchingUserPolicy = errors.New("session: endpoint advertises no user token policy for the configured identity")
	ErrUnknownIdentityKind  = errors.New("session: unknown identity kind")
)
