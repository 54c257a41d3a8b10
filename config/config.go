// Package config builds securebag configuration from environment variables
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	"github.com/zoobzio/securebag"
	"github.com/zoobzio/securebag/resolve"
	"github.com/zoobzio/securebag/store/badger"
	"github.com/zoobzio/securebag/store/memory"
)

// DefaultSecretFile is where the shared secret is read from when nothing
// else is configured.
const DefaultSecretFile = "/etc/chef/encrypted_data_bag_secret"

// Config holds all securebag configuration.
type Config struct {
	// Secret is inline key material. It takes precedence over SecretFile.
	Secret string
	// SecretFile is a path or URL the secret is loaded from.
	SecretFile string
	// KeeperURI, when set, unwraps the secret loaded from SecretFile with a
	// gocloud.dev secrets keeper (e.g. base64key://, gcpkms://).
	KeeperURI string
	// HTTPTimeout bounds remote secret fetches.
	HTTPTimeout time.Duration

	// EncryptedKeys are protected on every save.
	EncryptedKeys []string
	// EncryptionFormat is the format written on save.
	EncryptionFormat securebag.Format
	// DecryptionFormat skips format detection on load.
	DecryptionFormat securebag.Format
	// Cipher is used on save.
	Cipher securebag.CipherName
	// DoubleEncrypt is "reject" or "keep".
	DoubleEncrypt securebag.DoubleEncryptPolicy

	// StorePath is the BadgerDB directory for the item store. Empty keeps
	// items in memory.
	StorePath string
	// Concurrency bounds parallel item loads.
	Concurrency int
}

// Load reads configuration from environment variables and a .env file.
func Load() (*Config, error) {
	// Try to load .env file recursively
	loadDotEnv()

	c := &Config{
		Secret:      env.GetString("SECUREBAG_SECRET", ""),
		SecretFile:  env.GetString("SECUREBAG_SECRET_FILE", DefaultSecretFile),
		KeeperURI:   env.GetString("SECUREBAG_KEEPER_URI", ""),
		HTTPTimeout: env.GetDuration("SECUREBAG_HTTP_TIMEOUT_SECONDS", 10, time.Second),

		EncryptedKeys: splitList(env.GetString("SECUREBAG_ENCRYPTED_KEYS", "")),
		Cipher:        securebag.CipherName(env.GetString("SECUREBAG_CIPHER", "")),

		StorePath:   env.GetString("SECUREBAG_STORE_PATH", ""),
		Concurrency: env.GetInt("SECUREBAG_CONCURRENCY", securebag.DefaultConcurrency),
	}

	var err error
	if c.EncryptionFormat, err = securebag.ParseFormat(env.GetString("SECUREBAG_ENCRYPTION_FORMAT", "")); err != nil {
		return nil, fmt.Errorf("SECUREBAG_ENCRYPTION_FORMAT: %w", err)
	}
	if c.DecryptionFormat, err = securebag.ParseFormat(env.GetString("SECUREBAG_DECRYPTION_FORMAT", "")); err != nil {
		return nil, fmt.Errorf("SECUREBAG_DECRYPTION_FORMAT: %w", err)
	}
	if c.DoubleEncrypt, err = parsePolicy(env.GetString("SECUREBAG_DOUBLE_ENCRYPT", "reject")); err != nil {
		return nil, fmt.Errorf("SECUREBAG_DOUBLE_ENCRYPT: %w", err)
	}
	if c.Cipher != "" && !securebag.IsSupportedCipher(c.Cipher) {
		return nil, fmt.Errorf("SECUREBAG_CIPHER: %w", &securebag.UnsupportedCipherError{Cipher: string(c.Cipher)})
	}
	return c, nil
}

// Item returns the item configuration. The secret resolver follows
// SecretFile: local paths are read from disk, URLs are fetched, and a
// configured keeper unwraps the result.
func (c *Config) Item() securebag.Config {
	cfg := securebag.Config{
		EncryptedKeys:    append([]string(nil), c.EncryptedKeys...),
		EncryptionFormat: c.EncryptionFormat,
		DecryptionFormat: c.DecryptionFormat,
		Cipher:           c.Cipher,
		DoubleEncrypt:    c.DoubleEncrypt,
	}
	if c.Secret != "" {
		cfg.Secret = []byte(c.Secret)
		return cfg
	}

	var resolver securebag.SecretResolver = resolve.Auto{HTTP: resolve.NewHTTP(c.HTTPTimeout)}
	if c.KeeperURI != "" {
		resolver = &resolve.Keeper{KeyURI: c.KeeperURI, Source: resolver}
	}
	cfg.SecretLocation = c.SecretFile
	cfg.Resolver = resolver
	return cfg
}

// Client returns a client over store using this configuration.
func (c *Config) Client(store securebag.ItemStore) *securebag.Client {
	return securebag.NewClient(store, c.Item(), securebag.WithConcurrency(c.Concurrency))
}

// Store is an item store that must be closed when no longer needed.
type Store interface {
	securebag.ItemStore
	Close() error
}

// Store opens the configured item store: BadgerDB at StorePath, or an
// in-memory store when StorePath is empty.
func (c *Config) Store() (Store, error) {
	if c.StorePath == "" {
		return memory.New(), nil
	}
	db, err := badger.Open(badger.Options{Path: c.StorePath})
	if err != nil {
		return nil, fmt.Errorf("SECUREBAG_STORE_PATH: %w", err)
	}
	return db, nil
}

func parsePolicy(s string) (securebag.DoubleEncryptPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return securebag.RejectEncrypted, nil
	case "keep":
		return securebag.KeepEncrypted, nil
	}
	return 0, fmt.Errorf("%w: %q (want reject or keep)", securebag.ErrInvalidFormat, s)
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadDotEnv searches for a .env file from the current directory up to
// the root and loads the first one found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
