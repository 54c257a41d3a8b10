package securebag

import "errors"

// Codec provides content-type aware marshaling. Implementations live in the
// json, yaml, msgpack and bson sub-packages; each preserves Document key
// order.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Decode parses data into a Document.
func Decode(c Codec, data []byte) (*Document, error) {
	doc := NewDocument()
	if err := c.Unmarshal(data, doc); err != nil {
		return nil, asCodecError(ErrUnmarshal, err)
	}
	return doc, nil
}

// Encode renders doc with c.
func Encode(c Codec, doc *Document) ([]byte, error) {
	if doc == nil {
		doc = NewDocument()
	}
	data, err := c.Marshal(doc)
	if err != nil {
		return nil, asCodecError(ErrMarshal, err)
	}
	return data, nil
}

func asCodecError(sentinel, err error) error {
	var ce *CodecError
	if errors.As(err, &ce) {
		return err
	}
	return newCodecError(sentinel, err)
}
