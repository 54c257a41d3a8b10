package securebag

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeStrings(t *testing.T) {
	tests := []string{"", "secret", "ünïcödé", `{"not":"wrapped"}`, "42", "true"}
	for _, s := range tests {
		b, err := Normalize(s)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", s, err)
		}
		if string(b) != s {
			t.Errorf("Normalize(%q) = %q, want raw bytes", s, b)
		}
		if got := Denormalize(b); got != s {
			t.Errorf("Denormalize(Normalize(%q)) = %v", s, got)
		}
	}
}

func TestNormalizeWrapsStructuredValues(t *testing.T) {
	db := NewDocument()
	db.Set("user", "u")
	db.Set("port", 5432)

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"int", 42, `{"json_wrapper":42}`},
		{"float", 1.5, `{"json_wrapper":1.5}`},
		{"bool", true, `{"json_wrapper":true}`},
		{"nil", nil, `{"json_wrapper":null}`},
		{"sequence", []any{"a", 1}, `{"json_wrapper":["a",1]}`},
		{"document", db, `{"json_wrapper":{"user":"u","port":5432}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Normalize(tt.v)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Normalize() = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestDenormalize(t *testing.T) {
	if got := Denormalize([]byte(`{"json_wrapper":42}`)); got != json.Number("42") {
		t.Errorf("Denormalize(number) = %#v", got)
	}
	if got := Denormalize([]byte(`{"json_wrapper":null}`)); got != nil {
		t.Errorf("Denormalize(null) = %#v", got)
	}

	doc, ok := Denormalize([]byte(`{"json_wrapper":{"b":1,"a":2}}`)).(*Document)
	if !ok {
		t.Fatal("Denormalize(object) should return a *Document")
	}
	if keys := doc.Keys(); keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys() = %v, want [b a]", keys)
	}

	plain := []string{
		`{"json_wrapper":1,"extra":2}`,
		`{"other":1}`,
		`{"json_wrapper":`,
		`["json_wrapper"]`,
		"not json",
	}
	for _, s := range plain {
		if got := Denormalize([]byte(s)); got != s {
			t.Errorf("Denormalize(%q) = %#v, want the raw string", s, got)
		}
	}
}

func TestNormalizeWrapperLookalikeString(t *testing.T) {
	s := `{"json_wrapper":"sneaky"}`
	b, err := Normalize(s)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if string(b) == s {
		t.Fatal("a string shaped like the wrapper must itself be wrapped")
	}
	if got := Denormalize(b); got != s {
		t.Errorf("round-trip = %#v, want %q", got, s)
	}
}

func TestNormalizeRejectsInvalidUTF8(t *testing.T) {
	nested := NewDocument()
	nested.Set("password", "p\xffw")
	badKey := NewDocument()
	badKey.Set("k\xfe", "v")

	tests := []struct {
		name  string
		value any
	}{
		{"string", "p\xffw"},
		{"nested document", nested},
		{"key", badKey},
		{"sequence", []any{"ok", "\xc3\x28"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.value)
			var ce *CodecError
			if !errors.As(err, &ce) || !errors.Is(err, ErrMarshal) {
				t.Errorf("Normalize() error = %v, want CodecError{ErrMarshal}", err)
			}
		})
	}
}
