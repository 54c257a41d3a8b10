package securebag

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedCipher indicates a cipher identifier is not recognized.
	ErrUnsupportedCipher = errors.New("unsupported cipher")

	// ErrDecryptionFailed indicates ciphertext was malformed or the key did not match.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSecretUnavailable indicates no usable shared secret could be resolved.
	ErrSecretUnavailable = errors.New("secret unavailable")

	// ErrAlreadyEncrypted indicates an attempt to encrypt a value already in envelope form.
	ErrAlreadyEncrypted = errors.New("already encrypted")

	// ErrInvalidFormat indicates an unknown format name or malformed metadata.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidEnvelope indicates a value does not have the envelope shape.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrItemNotFound indicates the item store has no item under the requested name.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItem indicates an item lacks the identity needed for storage.
	ErrInvalidItem = errors.New("invalid item")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// UnsupportedCipherError reports a cipher identifier outside the registry.
type UnsupportedCipherError struct {
	Cipher string
}

func (e *UnsupportedCipherError) Error() string {
	return fmt.Sprintf("cipher %q is not supported; available ciphers: %v", e.Cipher, SupportedCiphers())
}

func (e *UnsupportedCipherError) Unwrap() error {
	return ErrUnsupportedCipher
}

// DecryptionError reports a value that could not be decrypted.
// The message never includes cipher internals.
type DecryptionError struct {
	Field string // Key of the value that failed, empty for whole-document envelopes
	Cause error  // Original error from the underlying operation
}

func (e *DecryptionError) Error() string {
	msg := "error decrypting value"
	if e.Field != "" {
		msg = fmt.Sprintf("error decrypting field %s", e.Field)
	}
	return msg + ": most likely the provided key is incorrect"
}

func (e *DecryptionError) Unwrap() error {
	return ErrDecryptionFailed
}

// SecretUnavailableError reports a secret that could not be resolved.
type SecretUnavailableError struct {
	Location string // Path or URI that was consulted, if any
	Cause    error  // Original error from the resolver
}

func (e *SecretUnavailableError) Error() string {
	switch {
	case e.Location != "" && e.Cause != nil:
		return fmt.Sprintf("secret unavailable from %q: %v", e.Location, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("secret unavailable: %v", e.Cause)
	case e.Location != "":
		return fmt.Sprintf("secret unavailable from %q", e.Location)
	}
	return ErrSecretUnavailable.Error()
}

func (e *SecretUnavailableError) Unwrap() error {
	return ErrSecretUnavailable
}

// AlreadyEncryptedError reports a protected field whose value is already an envelope.
type AlreadyEncryptedError struct {
	Field string
}

func (e *AlreadyEncryptedError) Error() string {
	return fmt.Sprintf("field %s is already encrypted", e.Field)
}

func (e *AlreadyEncryptedError) Unwrap() error {
	return ErrAlreadyEncrypted
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newDecryptionError creates a DecryptionError for a failed field.
func newDecryptionError(field string, cause error) error {
	return &DecryptionError{Field: field, Cause: cause}
}

// newSecretError creates a SecretUnavailableError for a failed resolution.
func newSecretError(location string, cause error) error {
	return &SecretUnavailableError{Location: location, Cause: cause}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
