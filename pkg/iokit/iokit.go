// Package iokit adapts xmlkit streams to the standard io interfaces.
package iokit

import (
	"io"
	"sync"

	"go.llib.dev/xmlkit/pkg/stream"
)

// NewStreamReader returns a StreamReader
// that exposes the byte chunks of src as a blocking io.ReadCloser.
//
// The StreamReader takes ownership of src;
// no one else may consume the stream afterwards.
func NewStreamReader(src *stream.PipeOut[[]byte]) *StreamReader {
	return &StreamReader{src: src, closing: make(chan struct{})}
}

// StreamReader turns an asynchronously produced chunk sequence
// into a synchronous, blocking reader.
//
// At most one chunk worth of unconsumed bytes is held at any time;
// demand for the next chunk is the pending channel receive itself.
//
// StreamReader supports a single reader goroutine.
// Close may be called from any goroutine and unblocks a waiting Read.
type StreamReader struct {
	src *stream.PipeOut[[]byte]

	mutex sync.Mutex
	state readerState
	rem   []byte
	cause error

	closing   chan struct{}
	closeOnce sync.Once
}

type readerState int8

const (
	stateIdle readerState = iota
	stateAwaitingChunk
	stateHasRemainder
	stateCompleted
	stateFailed
)

func (s readerState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateAwaitingChunk:
		return "AwaitingChunk"
	case stateHasRemainder:
		return "HasRemainder"
	case stateCompleted:
		return "Completed"
	case stateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Read serves bytes from the current chunk remainder when one is held,
// otherwise it blocks until the producer hands over the next chunk,
// the sequence terminates, or the StreamReader gets closed.
//
// A normal completion and a caller initiated Close both surface as io.EOF.
// A failed sequence surfaces its failure once every chunk
// received before the failure has been served.
func (r *StreamReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	select {
	case <-r.closing:
		r.markClosed()
	default:
	}

	for {
		switch r.state {
		case stateHasRemainder:
			n := copy(p, r.rem)
			r.rem = r.rem[n:]
			if len(r.rem) == 0 {
				r.rem = nil
				r.state = stateAwaitingChunk
			}
			return n, nil

		case stateCompleted:
			return 0, io.EOF

		case stateFailed:
			return 0, r.cause

		case stateIdle:
			r.state = stateAwaitingChunk

		case stateAwaitingChunk:
			r.await()
		}
	}
}

// await blocks until a chunk, a terminal signal, or a close arrives.
// Spurious empty chunks carry no bytes and keep the state on AwaitingChunk,
// so the surrounding loop re-checks the state instead of assuming data is ready.
func (r *StreamReader) await() {
	select {
	case chunk, ok := <-r.src.ValueChan:
		if !ok {
			if err := r.src.Err(); err != nil {
				r.state = stateFailed
				r.cause = err
				return
			}
			r.state = stateCompleted
			return
		}
		if len(chunk) == 0 {
			return
		}
		r.rem = chunk
		r.state = stateHasRemainder

	case <-r.closing:
		r.markClosed()
	}
}

// markClosed treats a caller initiated close as a clean EOF.
// A sequence that already failed keeps reporting its failure.
func (r *StreamReader) markClosed() {
	if r.state == stateFailed {
		return
	}
	r.rem = nil
	r.state = stateCompleted
}

// Close cancels the upstream subscription, releases any held remainder,
// and unblocks a goroutine currently waiting in Read with io.EOF.
// It is idempotent and safe to call from any goroutine.
func (r *StreamReader) Close() error {
	r.closeOnce.Do(func() { close(r.closing) })
	return r.src.Close()
}
