package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/securebag"
	"github.com/zoobzio/securebag/json"
)

func openTest(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample() *securebag.Document {
	db := securebag.NewDocument()
	db.Set("host", "localhost")
	db.Set("port", 5432)

	doc := securebag.NewDocument()
	doc.Set("id", "a")
	doc.Set("user", "x")
	doc.Set("db", db)
	doc.Set("tags", []any{"one", "two"})
	return doc
}

func TestStoreRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"msgpack in memory", Options{InMemory: true}},
		{"json in memory", Options{InMemory: true, Codec: json.New()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openTest(t, tt.opts)

			doc := sample()
			if err := s.Save(ctx, "creds", "a", doc); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			got, err := s.Load(ctx, "creds", "a")
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if !got.Equal(doc) {
				t.Errorf("Load() = %v, want %v", got, doc)
			}
		})
	}
}

func TestStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(Options{Path: dir})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Save(ctx, "creds", "a", sample()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened := openTest(t, Options{Path: dir})
	got, err := reopened.Load(ctx, "creds", "a")
	if err != nil {
		t.Fatalf("Load() after reopen error: %v", err)
	}
	if !got.Equal(sample()) {
		t.Errorf("Load() = %v, want %v", got, sample())
	}
}

func TestStoreNotFound(t *testing.T) {
	s := openTest(t, Options{InMemory: true})
	_, err := s.Load(context.Background(), "creds", "missing")
	if !errors.Is(err, securebag.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestStoreListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, Options{InMemory: true})

	for _, id := range []string{"b", "a"} {
		if err := s.Save(ctx, "creds", id, sample()); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}
	// A bag whose name extends "creds" must not leak into its listing.
	if err := s.Save(ctx, "creds2", "z", sample()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	ids, err := s.List(ctx, "creds")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List() = %v, want [a b]", ids)
	}

	if err := s.Delete(ctx, "creds", "a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Load(ctx, "creds", "a"); !errors.Is(err, securebag.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound after delete, got %v", err)
	}
}
