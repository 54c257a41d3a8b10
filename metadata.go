package securebag

import (
	"fmt"
)

// MetadataKey is the sibling key that carries Metadata in nested documents.
const MetadataKey = "_metadata"

// FormatVersion is the metadata layout version written on save.
const FormatVersion = 1

// Metadata wire keys.
const (
	metaVersionKey       = "format_version"
	metaFormatKey        = "encryption_format"
	metaEncryptedKeysKey = "encrypted_keys"
	metaCipherKey        = "cipher"
)

// Metadata describes how an item was, or will be, encrypted.
type Metadata struct {
	Version       int
	Format        Format
	Cipher        CipherName
	EncryptedKeys []string
}

// Document renders the metadata in its wire shape.
func (m Metadata) Document() *Document {
	keys := make([]any, len(m.EncryptedKeys))
	for i, k := range m.EncryptedKeys {
		keys[i] = k
	}

	doc := NewDocument()
	doc.Set(metaVersionKey, m.Version)
	doc.Set(metaFormatKey, string(m.Format))
	doc.Set(metaEncryptedKeysKey, keys)
	if m.Cipher != "" {
		doc.Set(metaCipherKey, string(m.Cipher))
	}
	return doc
}

// ParseMetadata reads metadata from its wire shape. Missing members are
// left at their zero value.
func ParseMetadata(v any) (Metadata, error) {
	doc, ok := v.(*Document)
	if !ok {
		return Metadata{}, fmt.Errorf("%w: metadata must be a mapping, got %T", ErrInvalidFormat, v)
	}

	var m Metadata
	if raw, ok := doc.Get(metaVersionKey); ok {
		n, ok := intValue(raw)
		if !ok {
			return Metadata{}, fmt.Errorf("%w: format_version %v", ErrInvalidFormat, raw)
		}
		m.Version = n
	}
	if s, ok := doc.GetString(metaFormatKey); ok {
		f, err := ParseFormat(s)
		if err != nil {
			return Metadata{}, err
		}
		m.Format = f
	}
	if s, ok := doc.GetString(metaCipherKey); ok {
		m.Cipher = CipherName(s)
	}
	if raw, ok := doc.Get(metaEncryptedKeysKey); ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return Metadata{}, fmt.Errorf("%w: encrypted_keys must be a list", ErrInvalidFormat)
		}
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return Metadata{}, fmt.Errorf("%w: encrypted_keys entry %v is not a string", ErrInvalidFormat, e)
			}
			m.EncryptedKeys = append(m.EncryptedKeys, s)
		}
		m.EncryptedKeys = uniqueKeys(m.EncryptedKeys)
	}
	return m, nil
}

// uniqueKeys returns keys without duplicates or empty names, in first-seen order.
func uniqueKeys(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, k := range list {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
