package resolve

import (
	"context"
	"os"
)

// File reads the secret from a local file. Surrounding whitespace,
// including the trailing newline most editors add, is not part of the secret.
type File struct{}

// Resolve reads the file at path.
func (File) Resolve(_ context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, unavailable(path, os.ErrNotExist)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	return trimSecret(path, b)
}
