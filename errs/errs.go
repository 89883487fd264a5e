// Package errs defines the error kinds shared across the Salvium client
// core (spec section "error handling design"). Every package-level
// sentinel error wraps one of these kinds so callers can branch on
// classification with errors.As instead of string matching or bespoke
// per-package error types.
package errs

import "fmt"

// Kind classifies a core error for the purposes of propagation: local
// rejection vs. reorg-triggering vs. fatal-to-the-current-iteration vs.
// clean unwind.
type Kind string

const (
	// InvalidEncoding covers a scalar not in [0,L), a point not on the
	// curve or not in the prime-order subgroup, a varint overflow, or a
	// truncated input.
	InvalidEncoding Kind = "invalid_encoding"
	// InvalidProof covers Bulletproofs+ verification failure, CLSAG/TCLSAG
	// challenge mismatch, or a commitment mismatch.
	InvalidProof Kind = "invalid_proof"
	// ProtocolViolation covers an RCT type mismatch with the tx version, an
	// invalid asset pair for conversion, or slippage exceeded.
	ProtocolViolation Kind = "protocol_violation"
	// ChainInconsistency covers a block-hash mismatch at a known height
	// (triggers reorg) or an unexpected daemon reply shape.
	ChainInconsistency Kind = "chain_inconsistency"
	// StoreError is bubbled up verbatim from the external store interface.
	StoreError Kind = "store_error"
	// Cancelled indicates the operation observed a stop request.
	Cancelled Kind = "cancelled"
)

// Error is the concrete error type every package in this module returns
// for classified failures. The zero value is not useful; construct with
// New or Wrap.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, errs.ErrInvalidEncoding)-style matching by
// kind: a target *Error with no Msg and no Cause (the Err* sentinels)
// matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Cause == nil && t.Msg == "" && e.Kind == t.Kind
}

// New builds a classified error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, preserving it for Unwrap.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Sentinels for errors.Is(err, errs.ErrCancelled)-style matching against a
// kind alone, independent of message or cause.
var (
	ErrInvalidEncoding    = &Error{Kind: InvalidEncoding}
	ErrInvalidProof       = &Error{Kind: InvalidProof}
	ErrProtocolViolation  = &Error{Kind: ProtocolViolation}
	ErrChainInconsistency = &Error{Kind: ChainInconsistency}
	ErrStoreError         = &Error{Kind: StoreError}
	ErrCancelled          = &Error{Kind: Cancelled}
)

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "", false
}
