package iokit_test

import (
	"context"
	"io"
	"testing"
	"time"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.llib.dev/testcase/let"
	"go.llib.dev/testcase/random"

	"go.llib.dev/xmlkit/pkg/iokit"
	"go.llib.dev/xmlkit/pkg/stream"
)

const waitTimeout = time.Second / 8

func ExampleNewStreamReader() {
	in, out := stream.Pipe[[]byte]()

	go func() {
		defer in.Close()
		in.Value([]byte("<greeting>hello</greeting>"))
	}()

	r := iokit.NewStreamReader(out)
	defer r.Close()
	_, _ = io.ReadAll(r)
}

func TestStreamReader(tt *testing.T) {
	s := testcase.NewSpec(tt)

	type pipe struct {
		In  *stream.PipeIn[[]byte]
		Out *stream.PipeOut[[]byte]
	}

	var (
		p = let.Var(s, func(t *testcase.T) pipe {
			in, out := stream.Pipe[[]byte]()
			return pipe{In: in, Out: out}
		})
		subject = let.Var(s, func(t *testcase.T) *iokit.StreamReader {
			r := iokit.NewStreamReader(p.Get(t).Out)
			t.Defer(r.Close)
			return r
		})
	)

	feed := func(t *testcase.T, chunks ...[]byte) {
		in := p.Get(t).In
		go func() {
			defer in.Close()
			for _, chunk := range chunks {
				select {
				case <-t.Done():
					return
				default:
				}
				if !in.Value(chunk) {
					return
				}
			}
		}()
	}

	readFull := func(t *testcase.T, r io.Reader, n int) []byte {
		buf := make([]byte, n)
		read, err := r.Read(buf)
		assert.NoError(t, err)
		return buf[:read]
	}

	s.Then("a chunk bigger than the read buffer is served across multiple reads", func(t *testcase.T) {
		feed(t, []byte("0123456789"))
		r := subject.Get(t)

		assert.Equal(t, "0123", string(readFull(t, r, 4)))
		assert.Equal(t, "4567", string(readFull(t, r, 4)))
		assert.Equal(t, "89", string(readFull(t, r, 4)))

		n, err := r.Read(make([]byte, 4))
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	s.Then("the reader yields the chunks' bytes in production order", func(t *testcase.T) {
		chunks := random.Slice(t.Random.IntBetween(3, 7), func() []byte {
			return []byte(t.Random.String())
		})
		var expected []byte
		for _, chunk := range chunks {
			expected = append(expected, chunk...)
		}

		feed(t, chunks...)
		got, err := io.ReadAll(subject.Get(t))
		assert.NoError(t, err)
		assert.Equal(t, string(expected), string(got))
	})

	s.Then("a read blocked on a slow producer still receives the chunk", func(t *testcase.T) {
		in := p.Get(t).In
		go func() {
			time.Sleep(waitTimeout / 4)
			defer in.Close()
			in.Value([]byte("late"))
		}()

		r := subject.Get(t)
		assert.Within(t, waitTimeout, func(context.Context) {
			assert.Equal(t, "late", string(readFull(t, r, 8)))
		})
	})

	s.Then("a buffered remainder is served without touching the upstream", func(t *testcase.T) {
		in := p.Get(t).In
		go func() { in.Value([]byte("abcd")) }() // sequence intentionally left open

		r := subject.Get(t)
		assert.Within(t, waitTimeout, func(context.Context) {
			assert.Equal(t, "ab", string(readFull(t, r, 2)))
			assert.Equal(t, "cd", string(readFull(t, r, 2)))
		})
	})

	s.Then("completion without chunks is a clean EOF", func(t *testcase.T) {
		assert.NoError(t, p.Get(t).In.Close())

		n, err := subject.Get(t).Read(make([]byte, 1))
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	s.Then("reads after completion keep returning EOF", func(t *testcase.T) {
		feed(t, []byte("a"))
		r := subject.Get(t)

		got, err := io.ReadAll(r)
		assert.NoError(t, err)
		assert.Equal(t, "a", string(got))

		for i := 0; i < 3; i++ {
			_, err := r.Read(make([]byte, 1))
			assert.ErrorIs(t, err, io.EOF)
		}
	})

	s.Then("an upstream failure before any chunk surfaces on the first read", func(t *testcase.T) {
		expErr := t.Random.Error()
		p.Get(t).In.Error(expErr)
		r := subject.Get(t)

		n, err := r.Read(make([]byte, 1))
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, expErr)

		_, err = r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, expErr, "the failure must be re-raised, not turned into EOF")
	})

	s.Then("chunks received before a failure are drained before the failure surfaces", func(t *testcase.T) {
		expErr := t.Random.Error()
		in := p.Get(t).In
		go func() {
			in.Value([]byte("alpha"))
			in.Value([]byte("beta"))
			in.Error(expErr)
		}()

		r := subject.Get(t)
		got, err := io.ReadAll(r)
		assert.ErrorIs(t, err, expErr)
		assert.Equal(t, "alphabeta", string(got))

		_, err = r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, expErr)
	})

	s.Then("empty chunks carry no bytes and cause no zero length reads", func(t *testcase.T) {
		feed(t, []byte{}, []byte("abc"))

		got, err := io.ReadAll(subject.Get(t))
		assert.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})

	s.Then("reading into an empty buffer is a no-op", func(t *testcase.T) {
		n, err := subject.Get(t).Read(nil)
		assert.Equal(t, 0, n)
		assert.NoError(t, err)
	})

	s.Then("closing the reader unblocks a blocked read with EOF", func(t *testcase.T) {
		r := subject.Get(t)

		readResult := make(chan error, 1)
		go func() {
			_, err := r.Read(make([]byte, 4))
			readResult <- err
		}()
		time.Sleep(waitTimeout / 8) // let the read park on the empty stream

		assert.NoError(t, r.Close())
		assert.Within(t, waitTimeout, func(ctx context.Context) {
			select {
			case err := <-readResult:
				assert.ErrorIs(t, err, io.EOF, "a caller initiated close is a clean EOF, not an error")
			case <-ctx.Done():
				t.Error("expected that the blocked read got released by now")
			}
		})

		assert.NoError(t, r.Close(), "close must be idempotent")
		_, err := r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, io.EOF)
	})

	s.Then("close discards a partially consumed chunk", func(t *testcase.T) {
		feed(t, []byte("0123456789"))
		r := subject.Get(t)

		assert.Equal(t, "0123", string(readFull(t, r, 4)))
		assert.NoError(t, r.Close())

		_, err := r.Read(make([]byte, 4))
		assert.ErrorIs(t, err, io.EOF)
	})

	s.Then("close stops the upstream producer", func(t *testcase.T) {
		r := subject.Get(t)

		in := p.Get(t).In
		accepted := make(chan bool, 1)
		go func() { accepted <- in.Value([]byte("zeta")) }()

		assert.NoError(t, r.Close())
		assert.Within(t, waitTimeout, func(ctx context.Context) {
			select {
			case ok := <-accepted:
				assert.False(t, ok, "expected that the producer noticed the cancellation")
			case <-ctx.Done():
				t.Error("expected that the producer got released by now")
			}
		})
	})

	s.Then("a failed sequence keeps reporting its failure after close", func(t *testcase.T) {
		expErr := t.Random.Error()
		p.Get(t).In.Error(expErr)
		r := subject.Get(t)

		_, err := r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, expErr)

		assert.NoError(t, r.Close())
		_, err = r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, expErr)
	})
}
