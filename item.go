package securebag

import (
	"context"
	"time"
)

// Item is a decrypted data bag item together with what is needed to write
// it back: the protected key set, the format and cipher, and the secret.
//
// An Item is not safe for concurrent use.
type Item struct {
	plaintext        *Document
	dataBag          string
	version          int
	decryptionFormat Format
	encryptionFormat Format
	cipher           CipherName
	encryptedKeys    []string
	policy           DoubleEncryptPolicy
	secret           []byte
}

// Load decrypts a raw item.
//
// Host bookkeeping keys are dropped, a raw_data wrapper is unwrapped and
// data_bag is lifted out of the document. The format is detected unless
// cfg.DecryptionFormat names one. Keys protected by the loaded document,
// together with cfg.EncryptedKeys, become the default protected set for Save.
func Load(ctx context.Context, raw *Document, cfg Config) (*Item, error) {
	start := time.Now()
	emitLoadStart(ctx, cfg.DecryptionFormat)

	item, decrypted, err := load(ctx, raw, cfg)
	if err != nil {
		emitLoadComplete(ctx, "", "", "", time.Since(start), 0, err)
		return nil, err
	}
	emitLoadComplete(ctx, item.dataBag, item.ID(), item.decryptionFormat, time.Since(start), decrypted, nil)
	return item, nil
}

func load(ctx context.Context, raw *Document, cfg Config) (*Item, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}

	doc, dataBag := unwrapRaw(raw)
	format := DetectFormat(doc, cfg.DecryptionFormat)

	var meta Metadata
	if v, ok := doc.Get(MetadataKey); ok {
		m, err := ParseMetadata(v)
		if err != nil {
			return nil, 0, err
		}
		meta = m
		doc.Delete(MetadataKey)
	}

	secret, err := cfg.resolveSecret(ctx)
	if err != nil {
		return nil, 0, err
	}

	item := &Item{
		dataBag:          dataBag,
		version:          FormatVersion,
		decryptionFormat: format,
		encryptionFormat: cfg.EncryptionFormat,
		cipher:           pickCipher(cfg.Cipher, meta.Cipher, envelopeCipher(doc, format)),
		policy:           cfg.DoubleEncrypt,
		secret:           secret,
	}
	if meta.Version > 0 {
		item.version = meta.Version
	}

	var touched []string
	switch format {
	case FormatFlat:
		item.plaintext, touched, err = OpenFlat(doc, secret)
	case FormatNested:
		item.plaintext, touched, err = DecryptDocument(doc, secret)
	default:
		item.plaintext = doc
	}
	if err != nil {
		item.Close()
		return nil, 0, err
	}

	item.encryptedKeys = uniqueKeys(cfg.EncryptedKeys, meta.EncryptedKeys, touched)
	return item, len(touched), nil
}

// New starts an item from plaintext. It is saved in cfg.EncryptionFormat,
// or nested when none is set, protecting cfg.EncryptedKeys.
func New(ctx context.Context, plaintext *Document, cfg Config) (*Item, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	doc, dataBag := unwrapRaw(plaintext)
	doc.Delete(MetadataKey)

	secret, err := cfg.resolveSecret(ctx)
	if err != nil {
		return nil, err
	}
	return &Item{
		plaintext:        doc,
		dataBag:          dataBag,
		version:          FormatVersion,
		decryptionFormat: FormatPlain,
		encryptionFormat: cfg.EncryptionFormat,
		cipher:           pickCipher(cfg.Cipher),
		encryptedKeys:    uniqueKeys(cfg.EncryptedKeys),
		policy:           cfg.DoubleEncrypt,
		secret:           secret,
	}, nil
}

// Save encrypts the working copy and returns the document to store.
//
// Keys named in override replace the default protected set, and become the
// new default. Nested output carries a _metadata key listing exactly the
// keys whose values are envelopes. Flat output is the legacy single
// envelope beside id. Plain output is the working copy itself.
func (i *Item) Save(ctx context.Context, override ...string) (*Document, error) {
	start := time.Now()
	format := i.EncryptionFormat()
	emitSaveStart(ctx, i.dataBag, i.ID(), format)

	out, encrypted, err := i.save(override)
	emitSaveComplete(ctx, i.dataBag, i.ID(), format, i.cipher, time.Since(start), encrypted, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Item) save(override []string) (*Document, int, error) {
	if len(i.secret) == 0 {
		return nil, 0, newSecretError("", errItemClosed)
	}
	fields := i.encryptedKeys
	if len(override) > 0 {
		fields = uniqueKeys(override)
	}

	switch i.EncryptionFormat() {
	case FormatPlain:
		return i.plaintext.Clone(), 0, nil

	case FormatFlat:
		out, err := SealFlat(i.plaintext, i.cipher, i.secret)
		if err != nil {
			return nil, 0, err
		}
		if len(override) > 0 {
			i.encryptedKeys = fields
		}
		return out, 1, nil

	default:
		out, touched, err := EncryptDocument(i.plaintext, fields, i.cipher, i.secret, i.policy)
		if err != nil {
			return nil, 0, err
		}
		meta := Metadata{
			Version:       FormatVersion,
			Format:        FormatNested,
			Cipher:        i.cipher,
			EncryptedKeys: touched,
		}
		out.Set(MetadataKey, meta.Document())
		if len(override) > 0 {
			i.encryptedKeys = fields
		}
		return out, len(touched), nil
	}
}

// Plaintext returns the working copy. Changes made to it are written by the
// next Save.
func (i *Item) Plaintext() *Document {
	return i.plaintext
}

// Metadata describes the item as loaded, with the current protected set.
func (i *Item) Metadata() Metadata {
	return Metadata{
		Version:       i.version,
		Format:        i.decryptionFormat,
		Cipher:        i.cipher,
		EncryptedKeys: i.EncryptedKeys(),
	}
}

// EncryptedKeys returns the default protected key set.
func (i *Item) EncryptedKeys() []string {
	return append([]string{}, i.encryptedKeys...)
}

// SetEncryptedKeys replaces the default protected key set.
func (i *Item) SetEncryptedKeys(keys ...string) {
	i.encryptedKeys = uniqueKeys(keys)
}

// AddEncryptedKeys extends the default protected key set.
func (i *Item) AddEncryptedKeys(keys ...string) {
	i.encryptedKeys = uniqueKeys(i.encryptedKeys, keys)
}

// DecryptionFormat is the format the item was loaded from.
func (i *Item) DecryptionFormat() Format {
	return i.decryptionFormat
}

// EncryptionFormat is the format Save will write.
func (i *Item) EncryptionFormat() Format {
	switch {
	case i.encryptionFormat != FormatAuto:
		return i.encryptionFormat
	case i.decryptionFormat == FormatFlat, i.decryptionFormat == FormatNested:
		return i.decryptionFormat
	}
	return FormatNested
}

// SetEncryptionFormat overrides the format Save will write. FormatAuto
// restores the default choice.
func (i *Item) SetEncryptionFormat(f Format) error {
	f, err := ParseFormat(string(f))
	if err != nil {
		return err
	}
	i.encryptionFormat = f
	return nil
}

// Cipher is the cipher Save will use.
func (i *Item) Cipher() CipherName {
	return i.cipher
}

// ID returns the item id, or "" if it has none.
func (i *Item) ID() string {
	if i.plaintext == nil {
		return ""
	}
	if s, ok := i.plaintext.GetString(IDKey); ok {
		return s
	}
	if v, ok := i.plaintext.Get(IDKey); ok {
		if s, ok := numberString(v); ok {
			return s
		}
	}
	return ""
}

// DataBag returns the name of the bag the item belongs to.
func (i *Item) DataBag() string {
	return i.dataBag
}

// SetDataBag sets the name of the bag the item belongs to.
func (i *Item) SetDataBag(name string) {
	i.dataBag = name
}

// Close zeroes the secret. A closed item can still be read but not saved.
func (i *Item) Close() {
	wipe(i.secret)
	i.secret = nil
}

// unwrapRaw copies raw, unwraps raw_data, drops host bookkeeping keys and
// lifts data_bag out of the document.
func unwrapRaw(raw *Document) (*Document, string) {
	if raw == nil {
		return NewDocument(), ""
	}
	doc := raw.Clone()
	dataBag, _ := doc.GetString(DataBagKey)
	if inner, ok := doc.GetDocument(RawDataKey); ok {
		doc = inner
		if name, ok := doc.GetString(DataBagKey); ok {
			dataBag = name
		}
	}
	for _, k := range hostKeys {
		doc.Delete(k)
	}
	doc.Delete(DataBagKey)
	return doc, dataBag
}

// envelopeCipher returns the cipher of a flat document's envelope.
func envelopeCipher(doc *Document, format Format) CipherName {
	if format != FormatFlat {
		return ""
	}
	s, _ := doc.GetString(CipherKey)
	return CipherName(s)
}

// pickCipher returns the first supported cipher, or DefaultCipher.
func pickCipher(candidates ...CipherName) CipherName {
	for _, c := range candidates {
		if IsSupportedCipher(c) {
			return c
		}
	}
	return DefaultCipher
}
