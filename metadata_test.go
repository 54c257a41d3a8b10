package securebag

import (
	"errors"
	"testing"
)

func TestMetadataDocument(t *testing.T) {
	m := Metadata{Version: FormatVersion, Format: FormatNested, Cipher: CipherAES256GCM, EncryptedKeys: []string{"password", "token"}}
	doc := m.Document()

	want := []string{"format_version", "encryption_format", "encrypted_keys", "cipher"}
	keys := doc.Keys()
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}

	back, err := ParseMetadata(doc)
	if err != nil {
		t.Fatalf("ParseMetadata() error: %v", err)
	}
	if back.Version != 1 || back.Format != FormatNested || back.Cipher != CipherAES256GCM {
		t.Errorf("ParseMetadata() = %+v", back)
	}
	if len(back.EncryptedKeys) != 2 || back.EncryptedKeys[1] != "token" {
		t.Errorf("EncryptedKeys = %v", back.EncryptedKeys)
	}
}

func TestParseMetadataPartial(t *testing.T) {
	doc := NewDocument()
	doc.Set("encrypted_keys", []any{"a", "b", "a", ""})

	m, err := ParseMetadata(doc)
	if err != nil {
		t.Fatalf("ParseMetadata() error: %v", err)
	}
	if m.Version != 0 || m.Format != FormatAuto || m.Cipher != "" {
		t.Errorf("missing members should stay zero: %+v", m)
	}
	if len(m.EncryptedKeys) != 2 {
		t.Errorf("EncryptedKeys = %v, want [a b]", m.EncryptedKeys)
	}
}

func TestParseMetadataInvalid(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"not a mapping", "nested"},
		{"bad version", FromMap(map[string]any{"format_version": "one"})},
		{"bad format", FromMap(map[string]any{"encryption_format": "zip"})},
		{"keys not a list", FromMap(map[string]any{"encrypted_keys": "password"})},
		{"non-string key", FromMap(map[string]any{"encrypted_keys": []any{1}})},
	}
	for _, tt := range tests {
		if _, err := ParseMetadata(tt.v); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: expected ErrInvalidFormat, got %v", tt.name, err)
		}
	}
}
