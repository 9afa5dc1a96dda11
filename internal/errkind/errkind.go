// Package errkind is the closed error taxonomy every adapter in PIXL
// translates transport errors into (spec §7). The coordinator and the
// anonymisation engine act only on this taxonomy, never on raw transport
// errors — no exception/error type from pgx, NATS, or net/http is allowed
// to leak past the adapter boundary.
package errkind

import "fmt"

// Kind classifies an error for the consumer dispatch loop.
type Kind int

const (
	// Requeue marks a transient upstream condition: pending jobs, a 5xx
	// response, a broker disconnect. The consumer negative-acks with
	// requeue.
	Requeue Kind = iota
	// Discard marks a study that can never be processed: the remote has
	// no such record, the C-MOVE job failed or timed out, validation
	// could not locate a Registry row, or the instance was excluded by
	// modality/series. The consumer positive-acks; no Registry mutation
	// is made.
	Discard
	// AlreadyExported marks an upload attempted for an Image whose
	// exported_at is already set. Treated as success; no duplicate
	// upload is issued.
	AlreadyExported
	// Configuration marks a missing project config or an unknown tag
	// scheme op. Fatal to the worker task; surfaced to the operator.
	Configuration
	// Programmer marks a contract violation (e.g. secure-hash applied to
	// a non-LO/SH VR). Fatal to the task; the message is not acked.
	Programmer
)

func (k Kind) String() string {
	switch k {
	case Requeue:
		return "requeue"
	case Discard:
		return "discard"
	case AlreadyExported:
		return "already-exported"
	case Configuration:
		return "configuration"
	case Programmer:
		return "programmer"
	default:
		return "unknown"
	}
}

// Error is a taxonomy-classified error. Adapters wrap transport errors in
// one of these before returning them to the coordinator or engine.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a taxonomy error of the given kind.
func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Requeuef builds a Requeue-kind error.
func Requeuef(err error, format string, args ...any) *Error {
	return &Error{Kind: Requeue, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Discardf builds a Discard-kind error.
func Discardf(err error, format string, args ...any) *Error {
	return &Error{Kind: Discard, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Configurationf builds a Configuration-kind error.
func Configurationf(err error, format string, args ...any) *Error {
	return &Error{Kind: Configuration, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Programmerf builds a Programmer-kind error.
func Programmerf(format string, args ...any) *Error {
	return &Error{Kind: Programmer, Msg: fmt.Sprintf(format, args...)}
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	if ok {
		return e, true
	}
	type wrapper interface{ Unwrap() error }
	if w, ok := err.(wrapper); ok {
		return As(w.Unwrap())
	}
	return nil, false
}

// Is reports whether err is a taxonomy error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
