package securebag

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Envelope wire keys.
const (
	EncryptedDataKey = "encrypted_data"
	IVKey            = "iv"
	CipherKey        = "cipher"
	VersionKey       = "version"
	AuthTagKey       = "auth_tag"
)

// EnvelopeVersion is written into every envelope.
const EnvelopeVersion = 1

// Envelope is the ciphertext form of one value. It is self-contained:
// opening it requires only the shared secret.
type Envelope struct {
	Cipher     CipherName
	IV         []byte
	Ciphertext []byte
	Version    int
}

// Seal encrypts plaintext under a fresh random IV. The key is the SHA-256
// digest of secret.
func Seal(plaintext []byte, name CipherName, secret []byte) (*Envelope, error) {
	c, err := lookupCipher(name)
	if err != nil {
		return nil, err
	}

	iv, err := randomIV(c.ivSize())
	if err != nil {
		return nil, err
	}

	key := deriveKey(secret)
	defer wipe(key)

	ciphertext, err := c.seal(key, iv, plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}

	return &Envelope{
		Cipher:     name,
		IV:         iv,
		Ciphertext: ciphertext,
		Version:    EnvelopeVersion,
	}, nil
}

// Open decrypts an envelope. Every failure, including an unknown cipher,
// is reported as a *DecryptionError.
func Open(env *Envelope, secret []byte) ([]byte, error) {
	if env == nil {
		return nil, newDecryptionError("", ErrInvalidEnvelope)
	}

	c, err := lookupCipher(env.Cipher)
	if err != nil {
		return nil, newDecryptionError("", err)
	}

	key := deriveKey(secret)
	defer wipe(key)

	plaintext, err := c.open(key, env.IV, env.Ciphertext)
	if err != nil {
		return nil, newDecryptionError("", err)
	}
	return plaintext, nil
}

// Document renders the envelope in its wire shape.
func (e *Envelope) Document() *Document {
	doc := NewDocument()
	e.writeTo(doc)
	return doc
}

func (e *Envelope) writeTo(doc *Document) {
	doc.Set(EncryptedDataKey, base64.StdEncoding.EncodeToString(e.Ciphertext))
	doc.Set(IVKey, base64.StdEncoding.EncodeToString(e.IV))
	doc.Set(VersionKey, e.Version)
	doc.Set(CipherKey, string(e.Cipher))
}

// LooksEncrypted reports whether v has the envelope shape: a mapping with
// string encrypted_data, iv and cipher members.
func LooksEncrypted(v any) bool {
	doc, ok := v.(*Document)
	if !ok {
		return false
	}
	for _, k := range []string{EncryptedDataKey, IVKey, CipherKey} {
		if _, ok := doc.GetString(k); !ok {
			return false
		}
	}
	return true
}

// ParseEnvelope reads an envelope from its wire shape. Base64 members may
// contain line breaks, as written by legacy encoders. A separate auth_tag
// member is appended to the ciphertext.
func ParseEnvelope(v any) (*Envelope, error) {
	if !LooksEncrypted(v) {
		return nil, ErrInvalidEnvelope
	}
	doc := v.(*Document)

	data, _ := doc.GetString(EncryptedDataKey)
	ciphertext, err := decodeBase64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted_data: %w", ErrInvalidEnvelope, err)
	}

	ivText, _ := doc.GetString(IVKey)
	iv, err := decodeBase64(ivText)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %w", ErrInvalidEnvelope, err)
	}

	if tagText, ok := doc.GetString(AuthTagKey); ok {
		tag, err := decodeBase64(tagText)
		if err != nil {
			return nil, fmt.Errorf("%w: auth_tag: %w", ErrInvalidEnvelope, err)
		}
		ciphertext = append(ciphertext, tag...)
	}

	name, _ := doc.GetString(CipherKey)
	env := &Envelope{
		Cipher:     CipherName(name),
		IV:         iv,
		Ciphertext: ciphertext,
		Version:    EnvelopeVersion,
	}
	if raw, ok := doc.Get(VersionKey); ok {
		if n, ok := intValue(raw); ok {
			env.Version = n
		}
	}
	return env, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(s)
}

func intValue(v any) (int, bool) {
	s, ok := numberString(v)
	if !ok {
		if js, isStr := v.(string); isStr {
			s = js
		} else {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
