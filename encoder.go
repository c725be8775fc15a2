package xmlkit

import (
	"bytes"
	"io"
	"reflect"
	"sync"

	"go.llib.dev/xmlkit/pkg/iokit"
	"go.llib.dev/xmlkit/pkg/stream"
)

const defaultBufferSize = 1024

// Encoder turns a sequence of values into a sequence of XML byte chunks,
// one chunk per value, preserving the input order.
//
// The zero value is ready to use:
// it marshals with StdProvider, targets UTF-8,
// and keeps an encoder-private context cache.
type Encoder struct {
	// Provider builds the marshalling contexts.
	//
	// Default: StdProvider
	Provider ContextProvider
	// Charset is the target character encoding of the produced chunks.
	//
	// Default: UTF-8
	Charset string
	// BufferSize is the initial capacity hint of the chunk buffers.
	//
	// Default: 1024
	BufferSize int
	// Allocate supplies the chunk buffers.
	//
	// Default: a freshly allocated bytes.Buffer grown to the capacity hint
	Allocate BufferAllocator
	// Cache is the marshal context cache to use.
	// Supply one to share contexts between encoders.
	//
	// Default: an encoder-private cache built from Provider
	Cache *ContextCache

	init  sync.Once
	cache *ContextCache
}

// Encode consumes the given value sequence in a background goroutine
// and returns the resulting chunk sequence.
//
// The output terminates with the input's completion,
// or at the first value that fails to encode:
// a failed value produces an EncodingError instead of a chunk,
// never a partial chunk.
// Closing the returned PipeOut stops the encoding.
func (e *Encoder) Encode(values stream.Iterator[any]) *stream.PipeOut[[]byte] {
	in, out := stream.Pipe[[]byte]()
	go e.encode(values, in)
	return out
}

// Reader encodes the given value sequence
// and exposes the produced chunks as a blocking reader.
func (e *Encoder) Reader(values stream.Iterator[any]) io.ReadCloser {
	return iokit.NewStreamReader(e.Encode(values))
}

func (e *Encoder) encode(values stream.Iterator[any], in *stream.PipeIn[[]byte]) {
	defer in.Close()
	defer values.Close()
	for values.Next() {
		chunk, err := e.encodeValue(values.Value())
		if err != nil {
			in.Error(err)
			return
		}
		if !in.Value(chunk) {
			return // consumer stopped listening
		}
	}
	if err := values.Err(); err != nil {
		in.Error(&EncodingError{Kind: UpstreamFailed, Cause: err})
	}
}

func (e *Encoder) encodeValue(v any) ([]byte, error) {
	t := reflect.TypeOf(v)
	mctx, err := e.contextCache().GetOrCreate(t)
	if err != nil {
		return nil, err
	}
	m, err := mctx.NewMarshaler(e.charset())
	if err != nil {
		return nil, &EncodingError{Kind: ContextUnavailable, Type: t, Cause: err}
	}
	buf := e.allocate(e.bufferSize())
	if err := m.Marshal(v, buf); err != nil {
		return nil, &EncodingError{Kind: MarshalFailed, Type: t, Value: v, Cause: err}
	}
	return buf.Bytes(), nil
}

func (e *Encoder) contextCache() *ContextCache {
	e.init.Do(func() {
		e.cache = e.Cache
		if e.cache == nil {
			e.cache = &ContextCache{Provider: e.Provider}
		}
	})
	return e.cache
}

func (e *Encoder) charset() string {
	if e.Charset != "" {
		return e.Charset
	}
	return "UTF-8"
}

func (e *Encoder) bufferSize() int {
	if 0 < e.BufferSize {
		return e.BufferSize
	}
	return defaultBufferSize
}

func (e *Encoder) allocate(capacity int) *bytes.Buffer {
	if e.Allocate != nil {
		return e.Allocate(capacity)
	}
	var buf bytes.Buffer
	buf.Grow(capacity)
	return &buf
}
