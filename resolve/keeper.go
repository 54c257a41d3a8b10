package resolve

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zoobzio/securebag"
	"gocloud.dev/secrets"

	// base64key:// keepers for local use; other providers are registered by
	// importing their gocloud.dev/secrets driver.
	_ "gocloud.dev/secrets/localsecrets"
)

var errNoSource = errors.New("keeper has no source")

// Keeper resolves a secret stored wrapped by a KMS key. Source loads the
// wrapped secret as base64 text, and the keeper at KeyURI unwraps it.
type Keeper struct {
	KeyURI string
	Source securebag.SecretResolver
}

// Resolve loads and unwraps the secret at location.
func (k *Keeper) Resolve(ctx context.Context, location string) ([]byte, error) {
	if k.Source == nil {
		return nil, unavailable(location, errNoSource)
	}
	wrapped, err := k.Source.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(string(wrapped))
	if err != nil {
		return nil, unavailable(location, fmt.Errorf("wrapped secret is not base64: %w", err))
	}

	keeper, err := secrets.OpenKeeper(ctx, k.KeyURI)
	if err != nil {
		return nil, unavailable(location, fmt.Errorf("open keeper: %w", err))
	}
	defer keeper.Close()

	secret, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, unavailable(location, fmt.Errorf("unwrap: %w", err))
	}
	return trimSecret(location, secret)
}

// Wrap encrypts secret with the keeper at KeyURI and returns the base64
// text that Resolve expects to find at the source.
func (k *Keeper) Wrap(ctx context.Context, secret []byte) (string, error) {
	keeper, err := secrets.OpenKeeper(ctx, k.KeyURI)
	if err != nil {
		return "", fmt.Errorf("open keeper: %w", err)
	}
	defer keeper.Close()

	ciphertext, err := keeper.Encrypt(ctx, secret)
	if err != nil {
		return "", fmt.Errorf("wrap: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
