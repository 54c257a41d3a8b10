// Package json provides a JSON codec implementation.
package json

import (
	"encoding/json"

	"github.com/zoobzio/securebag"
)

// jsonCodec implements securebag.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() securebag.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &securebag.CodecError{Err: securebag.ErrMarshal, Cause: err}
	}
	return data, nil
}

// Unmarshal decodes JSON data into v. A *securebag.Document keeps numbers
// as json.Number.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &securebag.CodecError{Err: securebag.ErrUnmarshal, Cause: err}
	}
	return nil
}
