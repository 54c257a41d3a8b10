package securebag

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// errInvalidUTF8 rejects strings that could not be told apart from
// ciphertext decrypted under the wrong key.
var errInvalidUTF8 = errors.New("string is not valid UTF-8")

// WrapperKey names the single member of the structured-value envelope.
const WrapperKey = "json_wrapper"

// Normalize converts a field value into the bytes that get encrypted.
//
// Strings pass through as UTF-8. Every other value is encoded as JSON inside
// a {"json_wrapper": value} object, which keeps its type across a round
// trip. A string that would itself parse as that object is wrapped too.
// Strings that are not valid UTF-8, at any depth, are rejected with a
// *CodecError.
//
// Legacy items may hold numbers that were stringified before encryption;
// those decode back as strings, since nothing marks them as numbers.
func Normalize(v any) ([]byte, error) {
	if !validUTF8(v) {
		return nil, newCodecError(ErrMarshal, errInvalidUTF8)
	}
	if s, ok := v.(string); ok {
		if _, wrapped := unwrapValue([]byte(s)); !wrapped {
			return []byte(s), nil
		}
	}

	wrapper := NewDocument()
	wrapper.Set(WrapperKey, v)
	b, err := json.Marshal(wrapper)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return b, nil
}

// Denormalize reverses Normalize. Bytes that parse as the wrapper object
// yield the wrapped value; anything else is returned as a string.
func Denormalize(b []byte) any {
	if v, ok := unwrapValue(b); ok {
		return v
	}
	return string(b)
}

func unwrapValue(b []byte) (any, bool) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' || !bytes.Contains(trimmed, []byte(WrapperKey)) {
		return nil, false
	}
	doc := NewDocument()
	if err := doc.UnmarshalJSON(trimmed); err != nil {
		return nil, false
	}
	if doc.Len() != 1 {
		return nil, false
	}
	return doc.Get(WrapperKey)
}

// validUTF8 reports whether every string and key below v is valid UTF-8.
func validUTF8(v any) bool {
	switch t := v.(type) {
	case string:
		return utf8.ValidString(t)
	case *Document:
		ok := true
		t.Range(func(key string, value any) bool {
			ok = utf8.ValidString(key) && validUTF8(value)
			return ok
		})
		return ok
	case []any:
		for _, e := range t {
			if !validUTF8(e) {
				return false
			}
		}
	}
	return true
}
