// Package stream provides a bounded demand pipe
// between a push-based producer and a pull-based consumer.
package stream

import (
	"io"
	"sync"

	"go.llib.dev/xmlkit/pkg/errorkit"
)

// Iterator is the pull side contract of a value sequence.
// Interface design inspirited by https://golang.org/pkg/encoding/json/#Decoder
// https://en.wikipedia.org/wiki/Iterator_pattern
type Iterator[T any] interface {
	// Next will ensure that Value returns the next item when executed.
	// If the next value is not retrievable, Next should return false
	// and ensure Err() will return the error cause.
	Next() bool
	// Value returns the current value in the iterator.
	// The action should be repeatable without side effects.
	Value() T
	// Err return the error cause.
	Err() error
	// Closer is required to make it able to cancel iterators
	// where resources are being used behind the scene.
	io.Closer
}

// Pipe returns a connected sender and receiver pair.
//
// The value channel is unbuffered, so the producer can outrun the consumer
// by at most the single value currently being handed over.
// A higher throughput variant could buffer the value channel,
// but then the total number of in-flight values must be bounded explicitly.
func Pipe[T any]() (*PipeIn[T], *PipeOut[T]) {
	valueChan := make(chan T)
	doneChan := make(chan struct{})
	errChan := make(chan error, 1)
	return &PipeIn[T]{ValueChan: valueChan, DoneChan: doneChan, ErrChan: errChan},
		&PipeOut[T]{ValueChan: valueChan, DoneChan: doneChan, ErrChan: errChan}
}

// PipeIn provides access to feed the pipe's receiver side with values.
//
// The sequence it produces terminates exactly once,
// either with Close for normal completion or with Error for failure.
type PipeIn[T any] struct {
	ValueChan chan<- T
	DoneChan  <-chan struct{}
	ErrChan   chan<- error

	term sync.Once
}

// Value sends a value to the PipeOut side.
// It blocks until the receiver demands the value,
// and reports false if the receiver stopped listening.
//
// Value must not be called after Close or Error.
func (in *PipeIn[T]) Value(v T) (ok bool) {
	select {
	case in.ValueChan <- v:
		return true
	case <-in.DoneChan:
		return false
	}
}

// Error reports a failure to the PipeOut side and terminates the sequence.
// A nil error is ignored. Only the first terminal signal wins;
// calling Error after Close or a previous Error is a no-op.
func (in *PipeIn[T]) Error(err error) {
	if err == nil {
		return
	}
	in.term.Do(func() {
		in.ErrChan <- err
		close(in.ErrChan)
		close(in.ValueChan)
	})
}

// Close signals normal completion to the PipeOut side.
// It is idempotent, and a no-op after Error.
func (in *PipeIn[T]) Close() error {
	in.term.Do(func() {
		close(in.ErrChan)
		close(in.ValueChan)
	})
	return nil
}

// PipeOut implements Iterator while the values are still being produced,
// which makes it suitable for streaming.
//
// The channel fields are exported so adapters can select on value delivery
// together with their own cancellation signals (see iokit.StreamReader).
type PipeOut[T any] struct {
	ValueChan <-chan T
	DoneChan  chan<- struct{}
	ErrChan   <-chan error

	done  sync.Once
	value T
	err   error
}

// Next blocks until the producer hands over the next value,
// and reports false once the sequence terminated.
func (out *PipeOut[T]) Next() bool {
	v, ok := <-out.ValueChan
	if !ok {
		return false
	}
	out.value = v
	return true
}

// Value returns the value of the last successful Next call.
func (out *PipeOut[T]) Value() T {
	return out.value
}

// Err returns the failure the producer terminated the sequence with.
// Its result is meaningful once Next reported false.
func (out *PipeOut[T]) Err() error {
	select {
	case err, ok := <-out.ErrChan:
		if ok {
			out.err = err
		}
	default:
	}
	return out.err
}

// Close signals back to the producer that no more values will be demanded.
// It is idempotent and safe to call from a goroutine other than the consumer's.
func (out *PipeOut[T]) Close() error {
	out.done.Do(func() { close(out.DoneChan) })
	return nil
}

// Slice returns an Iterator that yields the given values in order.
func Slice[T any](vs []T) Iterator[T] {
	return &sliceIter[T]{values: vs}
}

type sliceIter[T any] struct {
	values []T
	index  int
	value  T
}

func (i *sliceIter[T]) Next() bool {
	if len(i.values) <= i.index {
		return false
	}
	i.value = i.values[i.index]
	i.index++
	return true
}

func (i *sliceIter[T]) Value() T     { return i.value }
func (i *sliceIter[T]) Err() error   { return nil }
func (i *sliceIter[T]) Close() error { return nil }

// Collect drains the iterator into a slice, then releases it.
func Collect[T any](itr Iterator[T]) (vs []T, returnErr error) {
	if itr == nil {
		return nil, nil
	}
	defer errorkit.Finish(&returnErr, itr.Close)
	for itr.Next() {
		vs = append(vs, itr.Value())
	}
	return vs, itr.Err()
}
