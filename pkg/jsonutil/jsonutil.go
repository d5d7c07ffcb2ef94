// Package jsonutil is the JSON layer for the entire codebase.
// It wraps github.com/go-json-experiment/json behind an encoding/json-shaped
// API so call sites stay familiar, and adds the file helpers the report
// sources and the history store need (atomic writes in particular).
//
// Usage:
//
//	data, err := jsonutil.Marshal(result)
//	err := jsonutil.Unmarshal(data, &reports)
//	err := jsonutil.WriteFileAtomic(path, record, 0o644)
package jsonutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
// The prefix argument exists for encoding/json compatibility and is ignored.
func MarshalIndent(v any, _, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Encoder is a streaming JSON encoder compatible with encoding/json.Encoder.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline,
// matching encoding/json.Encoder.Encode behavior.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v)
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent instructs the encoder to format each subsequent encoded value
// with the given indentation. The prefix argument is ignored.
func (e *Encoder) SetIndent(_, indent string) {
	e.indent = indent
}

// Decoder is a streaming JSON decoder compatible with encoding/json.Decoder.
type Decoder struct {
	r io.Reader
}

// NewStreamDecoder creates a decoder that reads from r.
func NewStreamDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the next JSON-encoded value from the stream into v.
func (d *Decoder) Decode(v any) error {
	return json.UnmarshalRead(d.r, v)
}

// ReadFile reads the file at path and unmarshals it into v.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("jsonutil: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsonutil: decode %s: %w", path, err)
	}
	return nil
}

// WriteFile marshals v with indentation and writes it to path.
func WriteFile(path string, v any, perm os.FileMode) error {
	data, err := json.Marshal(v, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("jsonutil: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("jsonutil: write %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic marshals v and writes it to path via a temp file and
// rename, so readers never observe a partially written file.
func WriteFileAtomic(path string, v any, perm os.FileMode) error {
	data, err := json.Marshal(v, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("jsonutil: encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("jsonutil: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("jsonutil: rename %s: %w", path, err)
	}
	return nil
}

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
		return fmt.Errorf("jsonutil: mkdir %s: %w", dir, err)
	}
	return nil
}
