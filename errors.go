package xmlkit

import (
	"fmt"
	"reflect"

	"go.llib.dev/xmlkit/pkg/errorkit"
)

const (
	// ErrNilType is returned when a marshal context is requested for a nil type.
	ErrNilType errorkit.Error = "xmlkit: <nil> is not a marshallable type"
	// ErrMarshalerReused is returned when a single-use marshaler is used twice.
	ErrMarshalerReused errorkit.Error = "xmlkit: single-use marshaler reused"
)

// Kind classifies encoding failures.
type Kind int

const (
	// ContextUnavailable reports that no marshalling context
	// could be built or configured for the value's type.
	ContextUnavailable Kind = iota + 1
	// MarshalFailed reports that a specific value could not be serialized.
	MarshalFailed
	// UpstreamFailed reports that the input value sequence
	// failed before it was fully consumed.
	UpstreamFailed
)

func (k Kind) String() string {
	switch k {
	case ContextUnavailable:
		return "ContextUnavailable"
	case MarshalFailed:
		return "MarshalFailed"
	case UpstreamFailed:
		return "UpstreamFailed"
	default:
		return "Unknown"
	}
}

// EncodingError is the terminal error of an encoded chunk sequence.
// The sequence ends at the element that failed; no partial chunk is emitted.
type EncodingError struct {
	Kind Kind
	// Type is the runtime type that was being encoded, when known.
	Type reflect.Type
	// Value is the offending value for MarshalFailed errors.
	Value any
	// Cause is the underlying failure of the marshalling provider
	// or of the input sequence.
	Cause error
}

func (err *EncodingError) Error() string {
	var msg string
	switch err.Kind {
	case ContextUnavailable:
		msg = fmt.Sprintf("xmlkit: could not create marshal context for %v", err.Type)
	case MarshalFailed:
		msg = fmt.Sprintf("xmlkit: could not marshal [%v]", err.Value)
	case UpstreamFailed:
		msg = "xmlkit: upstream value sequence failed"
	default:
		msg = "xmlkit: encoding failed"
	}
	if err.Cause != nil {
		msg += ": " + err.Cause.Error()
	}
	return msg
}

func (err *EncodingError) Unwrap() error { return err.Cause }
