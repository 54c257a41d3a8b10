package securebag

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"sort"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherName identifies a supported cipher on the wire.
type CipherName string

const (
	// CipherAES256CBC uses AES-256 in CBC mode with PKCS#7 padding.
	// This is the legacy-compatible default.
	CipherAES256CBC CipherName = "aes-256-cbc"

	// CipherAES256GCM uses AES-256-GCM. The tag is appended to the ciphertext.
	CipherAES256GCM CipherName = "aes-256-gcm"

	// CipherChaCha20Poly1305 uses ChaCha20-Poly1305 with a 96-bit nonce.
	CipherChaCha20Poly1305 CipherName = "chacha20-poly1305"

	// DefaultCipher is used when no cipher is configured.
	DefaultCipher = CipherAES256CBC
)

// Cipher errors.
var (
	errCiphertextShort = errors.New("ciphertext too short")
	errBadBlockSize    = errors.New("ciphertext is not a multiple of the block size")
	errBadPadding      = errors.New("invalid padding")
	errBadIV           = errors.New("invalid iv length")
)

// blockCipher seals and opens single values with a 32-byte key.
type blockCipher interface {
	ivSize() int
	seal(key, iv, plaintext []byte) ([]byte, error)
	open(key, iv, ciphertext []byte) ([]byte, error)
}

// ciphers contains all supported ciphers keyed by wire identifier.
var ciphers = map[CipherName]blockCipher{
	CipherAES256CBC:        cbcCipher{},
	CipherAES256GCM:        aeadCipher{newAEAD: newAESGCM, nonceSize: 12},
	CipherChaCha20Poly1305: aeadCipher{newAEAD: chacha20poly1305.New, nonceSize: chacha20poly1305.NonceSize},
}

// IsSupportedCipher returns true if name is a known cipher.
func IsSupportedCipher(name CipherName) bool {
	_, ok := ciphers[name]
	return ok
}

// SupportedCiphers returns the known cipher identifiers, sorted.
func SupportedCiphers() []CipherName {
	out := make([]CipherName, 0, len(ciphers))
	for name := range ciphers {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func lookupCipher(name CipherName) (blockCipher, error) {
	c, ok := ciphers[name]
	if !ok {
		return nil, &UnsupportedCipherError{Cipher: string(name)}
	}
	return c, nil
}

// cbcCipher implements AES-256-CBC.
type cbcCipher struct{}

func (cbcCipher) ivSize() int { return aes.BlockSize }

func (cbcCipher) seal(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, errBadIV
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func (cbcCipher) open(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, errBadIV
	}
	if len(ciphertext) == 0 {
		return nil, errCiphertextShort
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errBadBlockSize
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}
	return data[:len(data)-n], nil
}

// aeadCipher implements authenticated ciphers with a random nonce.
type aeadCipher struct {
	newAEAD   func(key []byte) (cipher.AEAD, error)
	nonceSize int
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c aeadCipher) ivSize() int { return c.nonceSize }

func (c aeadCipher) seal(key, iv, plaintext []byte) ([]byte, error) {
	aead, err := c.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, errBadIV
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

func (c aeadCipher) open(key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := c.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, errBadIV
	}
	if len(ciphertext) < aead.Overhead() {
		return nil, errCiphertextShort
	}
	return aead.Open(nil, iv, ciphertext, nil)
}
