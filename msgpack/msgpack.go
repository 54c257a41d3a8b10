// Package msgpack provides a MessagePack codec implementation.
package msgpack

import (
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/securebag"
)

// msgpackCodec implements securebag.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() securebag.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, &securebag.CodecError{Err: securebag.ErrMarshal, Cause: err}
	}
	return data, nil
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return &securebag.CodecError{Err: securebag.ErrUnmarshal, Cause: err}
	}
	return nil
}
