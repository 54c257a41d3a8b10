package securebag

import (
	"context"
	"errors"
	"fmt"
)

// SecretResolver loads shared key material from a path or URI.
type SecretResolver interface {
	Resolve(ctx context.Context, location string) ([]byte, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(ctx context.Context, location string) ([]byte, error)

// Resolve calls f.
func (f SecretResolverFunc) Resolve(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

var (
	errNoSecret    = errors.New("no secret or secret location configured")
	errNoResolver  = errors.New("secret location set without a resolver")
	errEmptySecret = errors.New("secret is empty")
	errItemClosed  = errors.New("item is closed")
)

// Config carries everything an Item needs beyond the document itself.
// It is passed explicitly; nothing is read from process-wide state.
type Config struct {
	// Secret is used as-is when non-empty. Otherwise Resolver is asked for
	// the secret at SecretLocation.
	Secret         []byte
	SecretLocation string
	Resolver       SecretResolver

	// EncryptedKeys are protected on save in addition to any keys the
	// loaded document already protects.
	EncryptedKeys []string

	// EncryptionFormat forces the format written on save. FormatAuto keeps
	// the loaded format, or nested for plain and new items.
	EncryptionFormat Format

	// DecryptionFormat skips detection on load when set.
	DecryptionFormat Format

	// Cipher used on save. Empty means the cipher recorded in the loaded
	// document, or DefaultCipher.
	Cipher CipherName

	DoubleEncrypt DoubleEncryptPolicy
}

// Validate checks format names, the cipher and the double-encrypt policy.
func (c Config) Validate() error {
	if _, err := ParseFormat(string(c.EncryptionFormat)); err != nil {
		return fmt.Errorf("encryption format: %w", err)
	}
	if _, err := ParseFormat(string(c.DecryptionFormat)); err != nil {
		return fmt.Errorf("decryption format: %w", err)
	}
	if c.Cipher != "" {
		if _, err := lookupCipher(c.Cipher); err != nil {
			return err
		}
	}
	switch c.DoubleEncrypt {
	case RejectEncrypted, KeepEncrypted:
	default:
		return fmt.Errorf("%w: unknown double-encrypt policy %d", ErrInvalidFormat, c.DoubleEncrypt)
	}
	return nil
}

// resolveSecret returns a private copy of the configured key material.
func (c Config) resolveSecret(ctx context.Context) ([]byte, error) {
	if len(c.Secret) > 0 {
		emitSecretResolved(ctx, "inline", nil)
		return append([]byte(nil), c.Secret...), nil
	}

	var err error
	switch {
	case c.SecretLocation == "":
		err = newSecretError("", errNoSecret)
	case c.Resolver == nil:
		err = newSecretError(c.SecretLocation, errNoResolver)
	}
	if err != nil {
		emitSecretResolved(ctx, c.SecretLocation, err)
		return nil, err
	}

	secret, err := c.Resolver.Resolve(ctx, c.SecretLocation)
	if err == nil && len(secret) == 0 {
		err = errEmptySecret
	}
	if err != nil {
		var su *SecretUnavailableError
		if !errors.As(err, &su) {
			err = newSecretError(c.SecretLocation, err)
		}
		emitSecretResolved(ctx, c.SecretLocation, err)
		return nil, err
	}
	emitSecretResolved(ctx, c.SecretLocation, nil)
	return secret, nil
}
