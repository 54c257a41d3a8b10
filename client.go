package securebag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ItemStore loads and saves raw items by bag and item id. Load returns an
// error matching ErrItemNotFound when there is no such item.
type ItemStore interface {
	Load(ctx context.Context, bag, id string) (*Document, error)
	Save(ctx context.Context, bag, id string, doc *Document) error
}

// DefaultConcurrency bounds parallel loads in LoadMany.
const DefaultConcurrency = 8

// Client loads and saves items through an ItemStore with a shared Config.
//
// A Client is safe for concurrent use. Items it returns are not; cached
// items are shared between callers of CachedItem.
type Client struct {
	store       ItemStore
	cfg         Config
	cache       *itemCache
	concurrency int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithConcurrency bounds the number of parallel loads in LoadMany.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient returns a client reading and writing store.
func NewClient(store ItemStore, cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		store:       store,
		cfg:         cfg,
		cache:       newItemCache(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration items are loaded with.
func (c *Client) Config() Config {
	return c.cfg
}

// Item loads and decrypts an item from the store.
func (c *Client) Item(ctx context.Context, bag, id string) (*Item, error) {
	raw, err := c.store.Load(ctx, bag, id)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", bag, id, err)
	}
	item, err := Load(ctx, raw, c.cfg)
	if err != nil {
		return nil, err
	}
	if item.DataBag() == "" {
		item.SetDataBag(bag)
	}
	return item, nil
}

// CachedItem returns the item from the client cache, loading it on first use.
func (c *Client) CachedItem(ctx context.Context, bag, id string) (*Item, error) {
	return c.cache.get(ctx, bag, id, func() (*Item, error) {
		return c.Item(ctx, bag, id)
	})
}

// LoadMany loads items in parallel. Results are in the order of ids. The
// first failure cancels the remaining loads and is returned.
func (c *Client) LoadMany(ctx context.Context, bag string, ids ...string) ([]*Item, error) {
	items := make([]*Item, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := c.Item(ctx, bag, id)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, item := range items {
			if item != nil {
				item.Close()
			}
		}
		return nil, err
	}
	return items, nil
}

// Save encrypts item and writes it to the store under its data bag and id.
// A cached copy of the item is replaced and closed.
func (c *Client) Save(ctx context.Context, item *Item, override ...string) error {
	bag, id := item.DataBag(), item.ID()
	if bag == "" || id == "" {
		return fmt.Errorf("%w: data bag %q, id %q", ErrInvalidItem, bag, id)
	}
	doc, err := item.Save(ctx, override...)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, bag, id, doc); err != nil {
		return fmt.Errorf("save %s/%s: %w", bag, id, err)
	}
	c.cache.put(bag, id, item)
	return nil
}

// Protect adds fields to the item's protected set. They are encrypted on
// the next Save.
func (c *Client) Protect(item *Item, fields ...string) {
	item.AddEncryptedKeys(fields...)
}

// Reset drops every cached item.
func (c *Client) Reset() {
	c.cache.reset()
}
