// Package errs defines the error envelope shared across the bridge.
// Every failure is classified into a Kind so callers can branch on the
// class of failure instead of matching message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindConfig covers missing or malformed process configuration,
	// including credential material. Fatal at startup.
	KindConfig
	// KindSigning covers signature construction failures.
	KindSigning
	// KindTransport covers network failures and non-2xx upstream
	// responses on outbound authenticated calls.
	KindTransport
	// KindProtocol covers malformed or unknown inbound WebSocket frames.
	KindProtocol
	// KindFanout covers failed delivery to a single broadcast recipient.
	KindFanout
	// KindInvalid covers calls rejected before any I/O, such as an
	// unsupported HTTP method.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSigning:
		return "signing"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindFanout:
		return "fanout"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// E is the concrete error carried through the bridge. HTTP holds the
// upstream status code for transport errors; it stays zero for
// network-level failures so callers can tell the two apart.
type E struct {
	Kind   Kind
	HTTP   int
	Detail string
	cause  error
}

// New returns an error of the given kind.
func New(kind Kind, detail string) *E {
	return &E{Kind: kind, Detail: detail}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, detail string, cause error) *E {
	return &E{Kind: kind, Detail: detail, cause: cause}
}

// WithHTTP returns a transport-class error carrying the upstream status.
func WithHTTP(kind Kind, status int, detail string) *E {
	return &E{Kind: kind, HTTP: status, Detail: detail}
}

func (e *E) Error() string {
	msg := e.Kind.String() + ": " + e.Detail
	if e.HTTP != 0 {
		msg = fmt.Sprintf("%s: status %d: %s", e.Kind, e.HTTP, e.Detail)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *E) Unwrap() error { return e.cause }

// KindOf reports the kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus reports the upstream status embedded in err, or zero when
// none is present (network-level failure or non-transport error).
func HTTPStatus(err error) int {
	var e *E
	if errors.As(err, &e) {
		return e.HTTP
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
