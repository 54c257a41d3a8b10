package securebag

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// EncodeMsgpack encodes the document as an ordered MessagePack map.
func (d *Document) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(d.keys)); err != nil {
		return err
	}
	for _, k := range d.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := encodeMsgpackValue(enc, d.values[k]); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}

func encodeMsgpackValue(enc *msgpack.Encoder, v any) error {
	switch t := v.(type) {
	case *Document:
		return t.EncodeMsgpack(enc)
	case []any:
		if err := enc.EncodeArrayLen(len(t)); err != nil {
			return err
		}
		for _, e := range t {
			if err := encodeMsgpackValue(enc, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(nativeNumber(v))
	}
}

// DecodeMsgpack decodes a MessagePack map, keeping key order.
func (d *Document) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	doc := NewDocument()
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		val, err := decodeMsgpackValue(dec)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		doc.Set(key, val)
	}
	*d = *doc
	return nil
}

func decodeMsgpackValue(dec *msgpack.Decoder) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		sub := NewDocument()
		if err := sub.DecodeMsgpack(dec); err != nil {
			return nil, err
		}
		return sub, nil
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		seq := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	default:
		return dec.DecodeInterface()
	}
}
