package securebag

import (
	"go.mongodb.org/mongo-driver/bson"
)

// MarshalBSON encodes the document as an ordered BSON document.
func (d *Document) MarshalBSON() ([]byte, error) {
	return bson.Marshal(d.bsonD())
}

func (d *Document) bsonD() bson.D {
	out := make(bson.D, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, bson.E{Key: k, Value: toBSONValue(d.values[k])})
	}
	return out
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.bsonD()
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSONValue(e)
		}
		return out
	default:
		return nativeNumber(v)
	}
}

// UnmarshalBSON decodes a BSON document, keeping key order.
func (d *Document) UnmarshalBSON(data []byte) error {
	var raw bson.D
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = *fromBSOND(raw)
	return nil
}

func fromBSOND(raw bson.D) *Document {
	doc := NewDocument()
	for _, e := range raw {
		doc.Set(e.Key, fromBSONValue(e.Value))
	}
	return doc
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		return fromBSOND(t)
	case bson.M:
		return FromMap(map[string]any(t))
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	default:
		return v
	}
}
