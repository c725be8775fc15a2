// Package xmlkittest provides test doubles for the xmlkit collaborator interfaces.
package xmlkittest

import (
	"encoding/xml"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go.llib.dev/xmlkit"
)

func NewStubProvider() *StubProvider { return &StubProvider{} }

// StubProvider is a scriptable ContextProvider that records every build attempt.
type StubProvider struct {
	// ContextForFunc overrides the context building.
	//
	// Default: xmlkit.StdProvider
	ContextForFunc func(t reflect.Type) (xmlkit.Context, error)

	mutex  sync.Mutex
	builds map[reflect.Type]int
}

func (p *StubProvider) ContextFor(t reflect.Type) (xmlkit.Context, error) {
	p.record(t)
	if p.ContextForFunc != nil {
		return p.ContextForFunc(t)
	}
	return xmlkit.StdProvider{}.ContextFor(t)
}

// BuildCount tells how many times a context build was attempted for the given type.
func (p *StubProvider) BuildCount(t reflect.Type) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.builds[t]
}

func (p *StubProvider) record(t reflect.Type) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.builds == nil {
		p.builds = map[reflect.Type]int{}
	}
	p.builds[t]++
}

// StubContext derives StubMarshaler values.
type StubContext struct {
	// NewMarshalerFunc overrides the marshaler derivation.
	NewMarshalerFunc func(charset string) (xmlkit.Marshaler, error)
	// MarshalFunc is the marshalling behaviour of the derived marshalers.
	MarshalFunc func(v any, w io.Writer) error
}

func (c *StubContext) NewMarshaler(charset string) (xmlkit.Marshaler, error) {
	if c.NewMarshalerFunc != nil {
		return c.NewMarshalerFunc(charset)
	}
	return &StubMarshaler{MarshalFunc: c.MarshalFunc}, nil
}

// FailOn returns a StubContext whose marshalers fail for the given value,
// and marshal everything else with encoding/xml.
func FailOn(value any, err error) *StubContext {
	return &StubContext{MarshalFunc: func(v any, w io.Writer) error {
		if reflect.DeepEqual(v, value) {
			return err
		}
		return xml.NewEncoder(w).Encode(v)
	}}
}

// StubMarshaler is a scriptable Marshaler that records the received values.
type StubMarshaler struct {
	// MarshalFunc is the marshalling behaviour.
	//
	// Default: succeed without writing anything
	MarshalFunc func(v any, w io.Writer) error

	Received []any
}

func (m *StubMarshaler) Marshal(v any, w io.Writer) error {
	m.Received = append(m.Received, v)
	if m.MarshalFunc != nil {
		return m.MarshalFunc(v, w)
	}
	return nil
}

// LastValue returns the value of the most recent Marshal call.
func (m *StubMarshaler) LastValue() any {
	return m.Received[len(m.Received)-1]
}

// ValueMatch asserts that the most recently marshalled value is the expected one.
func (m *StubMarshaler) ValueMatch(tb testing.TB, expected any) {
	require.Equal(tb, expected, m.LastValue())
}

// StreamContains asserts that the given value was marshalled at some point.
func (m *StubMarshaler) StreamContains(tb testing.TB, expected any) {
	require.Contains(tb, m.Received, expected)
}
