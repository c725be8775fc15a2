package xmlkit

import (
	"encoding/xml"
	"io"
	"reflect"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// StdProvider is the default ContextProvider; it marshals with encoding/xml.
//
// The derived marshalers write an XML declaration naming the target charset,
// and transcode the document when the charset is not UTF-8.
type StdProvider struct{}

func (StdProvider) ContextFor(t reflect.Type) (Context, error) {
	if err := probeType(t); err != nil {
		return nil, err
	}
	return &stdContext{typ: t}, nil
}

// probeType rejects types encoding/xml cannot represent,
// so that unsupported types fail at context build time
// rather than on the first marshalled value.
func probeType(t reflect.Type) error {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch base.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.UnsafePointer:
		return &xml.UnsupportedTypeError{Type: t}
	default:
		return nil
	}
}

// stdContext is the per-type marshalling plan. Immutable after construction.
type stdContext struct {
	typ reflect.Type
}

func (c *stdContext) NewMarshaler(charset string) (Marshaler, error) {
	enc, name, err := resolveCharset(charset)
	if err != nil {
		return nil, err
	}
	return &stdMarshaler{encoding: enc, charset: name}, nil
}

// resolveCharset maps a charset name to its output transcoder.
// UTF-8 needs no transcoding and resolves to a nil encoding.
func resolveCharset(charset string) (encoding.Encoding, string, error) {
	if charset == "" {
		return nil, "UTF-8", nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, "", err
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", err
	}
	if strings.EqualFold(name, "utf-8") {
		return nil, "UTF-8", nil
	}
	return enc, strings.ToUpper(name), nil
}

// stdMarshaler serializes one value as a standalone XML document.
type stdMarshaler struct {
	encoding encoding.Encoding // nil for UTF-8
	charset  string
	used     bool
}

func (m *stdMarshaler) Marshal(v any, w io.Writer) error {
	if m.used {
		return ErrMarshalerReused
	}
	m.used = true

	out := w
	var tw io.WriteCloser
	if m.encoding != nil {
		tw = transform.NewWriter(w, m.encoding.NewEncoder())
		out = tw
	}
	if _, err := io.WriteString(out, `<?xml version="1.0" encoding="`+m.charset+`"?>`); err != nil {
		return err
	}
	if err := xml.NewEncoder(out).Encode(v); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}
