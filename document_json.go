package securebag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MarshalJSON encodes the document as a JSON object in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Numbers decode
// as json.Number so they survive re-encoding unchanged.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("document must be a JSON object")
	}

	parsed, err := decodeJSONObject(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}

	*d = *parsed
	return nil
}

// decodeJSONObject reads members up to and including the closing brace.
func decodeJSONObject(dec *json.Decoder) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		val, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeJSONObject(dec)
	case '[':
		seq := []any{}
		for dec.More() {
			v, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// FromStruct converts any JSON-marshalable value into a document.
func FromStruct(v any) (*Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	doc := NewDocument()
	if err := doc.UnmarshalJSON(b); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	return doc, nil
}

// Decode populates v, typically a pointer to a struct, from the document.
func (d *Document) Decode(v any) error {
	b, err := json.Marshal(d)
	if err != nil {
		return newCodecError(ErrMarshal, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return newCodecError(ErrUnmarshal, err)
	}
	return nil
}
