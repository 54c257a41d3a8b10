// Package testing provides test utilities for securebag.
package testing

import (
	"context"
	"testing"

	"github.com/zoobzio/securebag"
)

// TestSecret returns the shared secret used across tests.
func TestSecret(tb testing.TB) []byte {
	tb.Helper()
	return []byte("test-secret-for-securebag-items")
}

// TestConfig returns an item configuration with the test secret inline and
// the given keys protected.
func TestConfig(tb testing.TB, keys ...string) securebag.Config {
	tb.Helper()
	return securebag.Config{
		Secret:        TestSecret(tb),
		EncryptedKeys: keys,
	}
}

// CredentialsDocument returns {"id":"a","user":"x","password":"secret"}.
func CredentialsDocument() *securebag.Document {
	doc := securebag.NewDocument()
	doc.Set("id", "a")
	doc.Set("user", "x")
	doc.Set("password", "secret")
	return doc
}

// NestedDocument returns {"id":"a","db":{"user":"admin","password":"p","port":5432}}.
func NestedDocument() *securebag.Document {
	db := securebag.NewDocument()
	db.Set("user", "admin")
	db.Set("password", "p")
	db.Set("port", 5432)

	doc := securebag.NewDocument()
	doc.Set("id", "a")
	doc.Set("db", db)
	return doc
}

// MixedDocument returns a document holding every value kind.
func MixedDocument() *securebag.Document {
	inner := securebag.NewDocument()
	inner.Set("token", "t0k3n")
	inner.Set("ttl", 3600)

	doc := securebag.NewDocument()
	doc.Set("id", "mixed")
	doc.Set("name", "service")
	doc.Set("enabled", true)
	doc.Set("ratio", 0.25)
	doc.Set("nothing", nil)
	doc.Set("hosts", []any{"a.example.com", "b.example.com"})
	doc.Set("api", inner)
	doc.Set("empty", "")
	return doc
}

// FlatDocument seals doc in the legacy whole-document format.
func FlatDocument(tb testing.TB, doc *securebag.Document) *securebag.Document {
	tb.Helper()
	out, err := securebag.SealFlat(doc, securebag.DefaultCipher, TestSecret(tb))
	if err != nil {
		tb.Fatalf("SealFlat() error: %v", err)
	}
	return out
}

// Encrypted saves doc in the nested format with keys protected.
func Encrypted(tb testing.TB, doc *securebag.Document, keys ...string) *securebag.Document {
	tb.Helper()
	item, err := securebag.New(context.Background(), doc, TestConfig(tb, keys...))
	if err != nil {
		tb.Fatalf("New() error: %v", err)
	}
	defer item.Close()
	out, err := item.Save(context.Background())
	if err != nil {
		tb.Fatalf("Save() error: %v", err)
	}
	return out
}

// Account is a tagged struct for typed item tests.
type Account struct {
	ID       string   `json:"id"`
	User     string   `json:"user"`
	Password string   `json:"password" securebag:"encrypt"`
	Database Database `json:"db"`
}

// Database is nested inside Account.
type Database struct {
	Host  string `json:"host"`
	Token string `json:"token" securebag:"encrypt"`
}
