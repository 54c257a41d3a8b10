package securebag

import (
	"errors"
	"unicode/utf8"
)

// DoubleEncryptPolicy decides what happens when a protected field already
// holds an envelope.
type DoubleEncryptPolicy int

const (
	// RejectEncrypted fails with *AlreadyEncryptedError.
	RejectEncrypted DoubleEncryptPolicy = iota

	// KeepEncrypted leaves the existing envelope untouched and records the
	// field as encrypted.
	KeepEncrypted
)

// isIdentity reports whether key is an identity field at the given depth.
// Identity only exists at the top of a document.
func isIdentity(key string, depth int) bool {
	return depth == 0 && (key == IDKey || key == DataBagKey)
}

// keySet records touched keys uniquely, in first-seen order.
type keySet struct {
	seen map[string]bool
	keys []string
}

func (s *keySet) add(key string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.keys = append(s.keys, key)
}

func (s *keySet) list() []string {
	if s.keys == nil {
		return []string{}
	}
	return s.keys
}

// walker carries the per-call state of a document traversal.
type walker struct {
	secret  []byte
	cipher  CipherName
	fields  map[string]bool
	policy  DoubleEncryptPolicy
	touched keySet
}

// DecryptDocument opens every envelope in doc, recursing into nested
// mappings, and returns the plaintext copy with the keys that were
// decrypted. Key order is preserved. The first failure aborts the walk and
// no document is returned.
func DecryptDocument(doc *Document, secret []byte) (*Document, []string, error) {
	if doc == nil {
		doc = NewDocument()
	}
	w := &walker{secret: secret}
	out, err := w.decrypt(doc, 0)
	if err != nil {
		return nil, nil, err
	}
	return out, w.touched.list(), nil
}

func (w *walker) decrypt(doc *Document, depth int) (*Document, error) {
	out := NewDocument()
	for _, key := range doc.keys {
		value := doc.values[key]
		switch {
		case isIdentity(key, depth):
			out.Set(key, cloneValue(value))
		case LooksEncrypted(value):
			plain, err := w.openValue(key, value)
			if err != nil {
				return nil, err
			}
			out.Set(key, plain)
			w.touched.add(key)
		default:
			if sub, ok := value.(*Document); ok {
				dec, err := w.decrypt(sub, depth+1)
				if err != nil {
					return nil, err
				}
				out.Set(key, dec)
				continue
			}
			out.Set(key, cloneValue(value))
		}
	}
	return out, nil
}

func (w *walker) openValue(key string, value any) (any, error) {
	env, err := ParseEnvelope(value)
	if err != nil {
		return nil, newDecryptionError(key, err)
	}
	plaintext, err := Open(env, w.secret)
	if err != nil {
		var de *DecryptionError
		if errors.As(err, &de) && de.Field == "" {
			de.Field = key
		}
		return nil, err
	}
	defer wipe(plaintext)
	// Unauthenticated ciphers can unpad garbage under a wrong key; text
	// that is not UTF-8 never came from Normalize.
	if !utf8.Valid(plaintext) {
		return nil, newDecryptionError(key, errors.New("plaintext is not valid UTF-8"))
	}
	return Denormalize(plaintext), nil
}

// EncryptDocument seals the values of every key named in fields, at any
// depth, and recurses into the remaining mappings. Top-level id and
// data_bag are never sealed. Envelopes already present are never sealed
// again: policy decides whether a targeted one is an error, and untargeted
// ones are left as they are. The returned keys are exactly the keys whose
// values are envelopes in the result.
func EncryptDocument(doc *Document, fields []string, cipher CipherName, secret []byte, policy DoubleEncryptPolicy) (*Document, []string, error) {
	if _, err := lookupCipher(cipher); err != nil {
		return nil, nil, err
	}
	if doc == nil {
		doc = NewDocument()
	}

	w := &walker{
		secret: secret,
		cipher: cipher,
		fields: make(map[string]bool, len(fields)),
		policy: policy,
	}
	for _, f := range fields {
		w.fields[f] = true
	}

	out, err := w.encrypt(doc, 0)
	if err != nil {
		return nil, nil, err
	}
	return out, w.touched.list(), nil
}

func (w *walker) encrypt(doc *Document, depth int) (*Document, error) {
	out := NewDocument()
	for _, key := range doc.keys {
		value := doc.values[key]
		switch {
		case isIdentity(key, depth):
			out.Set(key, cloneValue(value))
		case LooksEncrypted(value):
			if w.fields[key] && w.policy == RejectEncrypted {
				return nil, &AlreadyEncryptedError{Field: key}
			}
			out.Set(key, cloneValue(value))
			w.touched.add(key)
		case w.fields[key]:
			env, err := w.sealValue(value)
			if err != nil {
				return nil, err
			}
			out.Set(key, env.Document())
			w.touched.add(key)
		default:
			if sub, ok := value.(*Document); ok {
				enc, err := w.encrypt(sub, depth+1)
				if err != nil {
					return nil, err
				}
				out.Set(key, enc)
				continue
			}
			out.Set(key, cloneValue(value))
		}
	}
	return out, nil
}

func (w *walker) sealValue(value any) (*Envelope, error) {
	plaintext, err := Normalize(value)
	if err != nil {
		return nil, err
	}
	defer wipe(plaintext)
	return Seal(plaintext, w.cipher, w.secret)
}

// SealFlat encrypts the whole document, minus identity fields, into a
// single envelope. Identity fields stay in plaintext beside it.
func SealFlat(doc *Document, cipher CipherName, secret []byte) (*Document, error) {
	out := NewDocument()
	body := NewDocument()
	doc.Range(func(key string, value any) bool {
		if isIdentity(key, 0) {
			out.Set(key, cloneValue(value))
		} else {
			body.Set(key, value)
		}
		return true
	})

	plaintext, err := Normalize(body)
	if err != nil {
		return nil, err
	}
	defer wipe(plaintext)

	env, err := Seal(plaintext, cipher, secret)
	if err != nil {
		return nil, err
	}
	env.writeTo(out)
	return out, nil
}

// OpenFlat decrypts a document written by SealFlat. It returns the
// identity fields followed by the decrypted body, and the body's keys.
func OpenFlat(doc *Document, secret []byte) (*Document, []string, error) {
	env, err := ParseEnvelope(doc)
	if err != nil {
		return nil, nil, newDecryptionError("", err)
	}
	plaintext, err := Open(env, secret)
	if err != nil {
		return nil, nil, err
	}
	defer wipe(plaintext)

	body, ok := Denormalize(plaintext).(*Document)
	if !ok {
		return nil, nil, newDecryptionError("", ErrInvalidEnvelope)
	}

	out := NewDocument()
	var touched keySet
	for _, key := range []string{IDKey, DataBagKey} {
		if v, ok := doc.Get(key); ok {
			out.Set(key, cloneValue(v))
		}
	}
	body.Range(func(key string, value any) bool {
		if isIdentity(key, 0) && out.Has(key) {
			return true
		}
		out.Set(key, value)
		touched.add(key)
		return true
	})
	return out, touched.list(), nil
}
