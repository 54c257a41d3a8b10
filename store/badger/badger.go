// Package badger provides a securebag.ItemStore backed by BadgerDB.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/zoobzio/securebag"
	"github.com/zoobzio/securebag/msgpack"
)

// Options configures a Store.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory; nothing is persisted.
	InMemory bool

	// Codec encodes stored documents. Defaults to MessagePack.
	Codec securebag.Codec

	// Logger receives BadgerDB logs. Nil silences them.
	Logger badger.Logger
}

// Store persists raw items in BadgerDB. Items are stored exactly as
// returned by Item.Save, so protected values stay encrypted at rest.
type Store struct {
	db    *badger.DB
	codec securebag.Codec
}

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	codec := opts.Codec
	if codec == nil {
		codec = msgpack.New()
	}
	return &Store{db: db, codec: codec}, nil
}

// OpenInMemory opens a store that is lost on Close.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// itemKey is bag, a zero byte, then id.
func itemKey(bag, id string) []byte {
	key := make([]byte, 0, len(bag)+len(id)+1)
	key = append(key, bag...)
	key = append(key, 0)
	return append(key, id...)
}

func bagPrefix(bag string) []byte {
	return append([]byte(bag), 0)
}

// Load reads and decodes an item.
func (s *Store) Load(_ context.Context, bag, id string) (*securebag.Document, error) {
	var doc *securebag.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(itemKey(bag, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", securebag.ErrItemNotFound, bag, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			doc, decodeErr = securebag.Decode(s.codec, val)
			return decodeErr
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Save encodes and writes an item, replacing any previous version.
func (s *Store) Save(_ context.Context, bag, id string, doc *securebag.Document) error {
	data, err := securebag.Encode(s.codec, doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(bag, id), data)
	})
}

// Delete removes an item. Deleting a missing item is not an error.
func (s *Store) Delete(_ context.Context, bag, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(bag, id))
	})
}

// List returns the ids stored in bag, in key order.
func (s *Store) List(_ context.Context, bag string) ([]string, error) {
	prefix := bagPrefix(bag)
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ids = append(ids, string(bytes.TrimPrefix(key, prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ securebag.ItemStore = (*Store)(nil)
