// Package xmlkit provides a streaming object-to-XML encoder:
// an ordered sequence of values goes in,
// an ordered sequence of XML byte chunks comes out, one chunk per value.
//
// The marshalling capability itself stays behind small collaborator
// interfaces, so the expensive per-type marshalling contexts can be cached
// and the concrete XML library remains replaceable.
package xmlkit

import (
	"bytes"
	"io"
	"reflect"
)

// Marshaler serializes a single value into the given output sink.
//
// A Marshaler is single-use: it is derived from a Context for one encode
// operation and must not be shared between goroutines.
type Marshaler interface {
	Marshal(v any, w io.Writer) error
}

// Context is an expensive-to-build marshalling context for a single type.
//
// A Context is immutable once built and safe for concurrent use;
// the marshalers it derives are not.
type Context interface {
	// NewMarshaler derives a single-use Marshaler
	// configured with the given target character encoding.
	NewMarshaler(charset string) (Marshaler, error)
}

// ContextProvider builds the marshalling Context for a type.
//
// Building may fail when the type is not marshallable.
// Providers may be invoked concurrently, and concurrently for the same type;
// redundant build results are discarded by the ContextCache.
type ContextProvider interface {
	ContextFor(t reflect.Type) (Context, error)
}

// BufferAllocator supplies the growable buffers the encoder marshals into.
// The capacity argument is an initial size hint only; the buffer grows as needed.
type BufferAllocator func(capacity int) *bytes.Buffer
