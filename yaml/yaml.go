// Package yaml provides a YAML codec implementation.
package yaml

import (
	"github.com/zoobzio/securebag"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements securebag.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() securebag.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, &securebag.CodecError{Err: securebag.ErrMarshal, Cause: err}
	}
	return data, nil
}

// Unmarshal decodes YAML data into v.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return &securebag.CodecError{Err: securebag.ErrUnmarshal, Cause: err}
	}
	return nil
}
