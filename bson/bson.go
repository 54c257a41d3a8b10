// Package bson provides a BSON codec implementation.
//
// BSON documents must be mappings at the top level, which every item is.
package bson

import (
	"github.com/zoobzio/securebag"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements securebag.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() securebag.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, &securebag.CodecError{Err: securebag.ErrMarshal, Cause: err}
	}
	return data, nil
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	if err := bson.Unmarshal(data, v); err != nil {
		return &securebag.CodecError{Err: securebag.ErrUnmarshal, Cause: err}
	}
	return nil
}
