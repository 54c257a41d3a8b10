package securebag

import (
	"fmt"
	"strings"
)

// Format identifies how an item is represented at rest.
type Format string

const (
	// FormatAuto means no explicit format: detect on load, choose on save.
	FormatAuto Format = ""

	// FormatPlain is an unencrypted document with no metadata.
	FormatPlain Format = "plain"

	// FormatFlat is the legacy format: the whole document, minus identity
	// fields, is a single envelope.
	FormatFlat Format = "encrypted"

	// FormatNested keeps the document shape and replaces each protected
	// value with an envelope, plus a metadata sibling key.
	FormatNested Format = "nested"
)

// ParseFormat converts a format name into a Format. The empty string is
// FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatPlain, FormatFlat, FormatNested:
		return f, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q (want plain, encrypted or nested)", ErrInvalidFormat, s)
	}
}

// DetectFormat classifies a raw document.
//
// An explicit hint always wins. Otherwise a metadata key means nested, a
// document that is itself an envelope means flat, and any envelope at any
// depth (ignoring id) means nested. Everything else is plain.
//
// Detection without a hint is best effort: a plaintext mapping that happens
// to carry string encrypted_data, iv and cipher members is indistinguishable
// from an envelope. Callers that know the format should pass it.
func DetectFormat(doc *Document, hint Format) Format {
	if hint != FormatAuto {
		return hint
	}
	if doc.Has(MetadataKey) {
		return FormatNested
	}
	if LooksEncrypted(doc) {
		return FormatFlat
	}
	if PartiallyEncrypted(doc) {
		return FormatNested
	}
	return FormatPlain
}

// PartiallyEncrypted reports whether any value below doc, other than an id
// field, is an envelope.
func PartiallyEncrypted(doc *Document) bool {
	found := false
	doc.Range(func(key string, value any) bool {
		if key == IDKey {
			return true
		}
		sub, ok := value.(*Document)
		if !ok {
			return true
		}
		if LooksEncrypted(sub) || PartiallyEncrypted(sub) {
			found = true
			return false
		}
		return true
	})
	return found
}
