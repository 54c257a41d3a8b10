// Package resolve provides securebag.SecretResolver implementations for
// secrets kept in files, behind HTTP endpoints, or wrapped by a KMS keeper.
package resolve

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/zoobzio/securebag"
)

// errEmpty is reported for secret sources that hold nothing but whitespace.
var errEmpty = errors.New("secret is empty")

// remotePattern matches locations with a URI scheme.
var remotePattern = regexp.MustCompile(`^\w+://`)

// unavailable wraps a resolution failure.
func unavailable(location string, cause error) error {
	return &securebag.SecretUnavailableError{Location: location, Cause: cause}
}

// trimSecret strips surrounding whitespace and rejects empty secrets.
func trimSecret(location string, b []byte) ([]byte, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, unavailable(location, errEmpty)
	}
	return b, nil
}

// Static always resolves to the same secret, whatever the location.
type Static []byte

// Resolve returns a copy of s.
func (s Static) Resolve(_ context.Context, location string) ([]byte, error) {
	if len(s) == 0 {
		return nil, unavailable(location, errEmpty)
	}
	return append([]byte(nil), s...), nil
}

// Auto dispatches on the location: file:// paths and plain paths are read
// from disk, any other scheme is fetched over HTTP.
type Auto struct {
	File File
	HTTP *HTTP
}

// Resolve loads the secret at location.
func (a Auto) Resolve(ctx context.Context, location string) ([]byte, error) {
	if path, ok := filePath(location); ok {
		return a.File.Resolve(ctx, path)
	}
	h := a.HTTP
	if h == nil {
		h = NewHTTP(DefaultTimeout)
	}
	return h.Resolve(ctx, location)
}

// IsRemote reports whether location is fetched over the network.
func IsRemote(location string) bool {
	_, local := filePath(location)
	return !local
}

func filePath(location string) (string, bool) {
	if path, ok := strings.CutPrefix(location, "file://"); ok {
		return path, true
	}
	if remotePattern.MatchString(location) {
		return "", false
	}
	return location, true
}

var (
	_ securebag.SecretResolver = Static(nil)
	_ securebag.SecretResolver = Auto{}
	_ securebag.SecretResolver = File{}
	_ securebag.SecretResolver = (*HTTP)(nil)
	_ securebag.SecretResolver = (*Keeper)(nil)
)
