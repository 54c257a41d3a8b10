package securebag

import (
	"errors"
	"testing"
)

func credentials() *Document {
	doc := NewDocument()
	doc.Set("id", "a")
	doc.Set("user", "x")
	doc.Set("password", "secret")
	return doc
}

func mixed() *Document {
	inner := NewDocument()
	inner.Set("token", "t0k3n")
	inner.Set("ttl", 3600)

	doc := NewDocument()
	doc.Set("id", "m")
	doc.Set("name", "svc")
	doc.Set("enabled", true)
	doc.Set("ratio", 0.25)
	doc.Set("nothing", nil)
	doc.Set("hosts", []any{"a", "b"})
	doc.Set("api", inner)
	doc.Set("empty", "")
	return doc
}

func TestEncryptDocumentScenario(t *testing.T) {
	out, keys, err := EncryptDocument(credentials(), []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "password" {
		t.Errorf("keys = %v, want [password]", keys)
	}
	if v, _ := out.GetString("user"); v != "x" {
		t.Errorf("user = %q, want x", v)
	}
	pw, _ := out.GetDocument("password")
	if !LooksEncrypted(pw) {
		t.Fatalf("password = %v, want an envelope", pw)
	}
	if c, _ := pw.GetString(CipherKey); c != "aes-256-cbc" {
		t.Errorf("cipher = %q, want aes-256-cbc", c)
	}

	plain, touched, err := DecryptDocument(out, testSecret)
	if err != nil {
		t.Fatalf("DecryptDocument() error: %v", err)
	}
	if !plain.Equal(credentials()) {
		t.Errorf("DecryptDocument() = %v, want %v", plain, credentials())
	}
	if len(touched) != 1 || touched[0] != "password" {
		t.Errorf("touched = %v, want [password]", touched)
	}
}

func TestEncryptDocumentNested(t *testing.T) {
	db := NewDocument()
	db.Set("password", "p")
	doc := NewDocument()
	doc.Set("id", "a")
	doc.Set("db", db)

	out, keys, err := EncryptDocument(doc, []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	encDB, ok := out.GetDocument("db")
	if !ok || LooksEncrypted(encDB) {
		t.Fatalf("db should stay a mapping, got %v", encDB)
	}
	if encDB.Len() != 1 {
		t.Errorf("db should keep one child, got %v", encDB.Keys())
	}
	if v, _ := encDB.Get("password"); !LooksEncrypted(v) {
		t.Error("db.password should be encrypted")
	}
	if len(keys) != 1 || keys[0] != "password" {
		t.Errorf("keys = %v", keys)
	}
}

func TestRoundTripIdentity(t *testing.T) {
	subsets := [][]string{
		{"name"},
		{"enabled", "ratio"},
		{"nothing", "hosts"},
		{"api"},
		{"token", "ttl"},
		{"empty"},
		{"name", "enabled", "ratio", "nothing", "hosts", "api", "empty"},
	}
	for _, c := range SupportedCiphers() {
		for _, fields := range subsets {
			enc, _, err := EncryptDocument(mixed(), fields, c, testSecret, RejectEncrypted)
			if err != nil {
				t.Fatalf("%s %v: EncryptDocument() error: %v", c, fields, err)
			}
			dec, _, err := DecryptDocument(enc, testSecret)
			if err != nil {
				t.Fatalf("%s %v: DecryptDocument() error: %v", c, fields, err)
			}
			if !dec.Equal(mixed()) {
				t.Errorf("%s %v: round-trip = %v, want %v", c, fields, dec, mixed())
			}
		}
	}
}

func TestEncryptDocumentKeepsOrder(t *testing.T) {
	enc, _, err := EncryptDocument(mixed(), []string{"enabled", "token"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	want := mixed().Keys()
	got := enc.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestEncryptDocumentFreshIVPerValue(t *testing.T) {
	doc := NewDocument()
	doc.Set("a", "same")
	doc.Set("b", "same")
	enc, _, err := EncryptDocument(doc, []string{"a", "b"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	a, _ := enc.GetDocument("a")
	b, _ := enc.GetDocument("b")
	ivA, _ := a.GetString(IVKey)
	ivB, _ := b.GetString(IVKey)
	dataA, _ := a.GetString(EncryptedDataKey)
	dataB, _ := b.GetString(EncryptedDataKey)
	if ivA == ivB || dataA == dataB {
		t.Error("equal values must not share an IV or ciphertext")
	}
}

func TestEncryptDocumentNeverSealsIdentity(t *testing.T) {
	doc := credentials()
	doc.Set("data_bag", "creds")
	sub := NewDocument()
	sub.Set("id", "inner-id")
	doc.Set("nested", sub)

	enc, keys, err := EncryptDocument(doc, []string{"id", "data_bag", "password"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	if v, _ := enc.GetString("id"); v != "a" {
		t.Errorf("id = %v, want plaintext", v)
	}
	if v, _ := enc.GetString("data_bag"); v != "creds" {
		t.Errorf("data_bag = %v, want plaintext", v)
	}
	// Identity only applies at the top level.
	nested, _ := enc.GetDocument("nested")
	if v, _ := nested.Get("id"); !LooksEncrypted(v) {
		t.Error("nested id is an ordinary field and should be encrypted")
	}
	for _, k := range keys {
		if k == "data_bag" {
			t.Errorf("keys = %v should not include data_bag", keys)
		}
	}
}

func TestEncryptDocumentDoubleEncryptPolicy(t *testing.T) {
	once, _, err := EncryptDocument(credentials(), []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}

	_, _, err = EncryptDocument(once, []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	var ae *AlreadyEncryptedError
	if !errors.As(err, &ae) || ae.Field != "password" {
		t.Fatalf("expected *AlreadyEncryptedError for password, got %v", err)
	}
	if !errors.Is(err, ErrAlreadyEncrypted) {
		t.Error("expected ErrAlreadyEncrypted")
	}

	kept, keys, err := EncryptDocument(once, []string{"password"}, DefaultCipher, testSecret, KeepEncrypted)
	if err != nil {
		t.Fatalf("KeepEncrypted: EncryptDocument() error: %v", err)
	}
	if !kept.Equal(once) {
		t.Error("KeepEncrypted must leave the existing envelope untouched")
	}
	if len(keys) != 1 || keys[0] != "password" {
		t.Errorf("keys = %v, want [password]", keys)
	}

	dec, _, err := DecryptDocument(kept, testSecret)
	if err != nil {
		t.Fatalf("DecryptDocument() error: %v", err)
	}
	if v, _ := dec.GetString("password"); v != "secret" {
		t.Errorf("password = %v, want secret after one decryption", v)
	}
}

func TestEncryptDocumentRecordsUntargetedEnvelopes(t *testing.T) {
	once, _, _ := EncryptDocument(credentials(), []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	out, keys, err := EncryptDocument(once, []string{"user"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "user" || keys[1] != "password" {
		t.Errorf("keys = %v, want [user password]", keys)
	}
	pw, _ := out.Get("password")
	orig, _ := once.Get("password")
	if !pw.(*Document).Equal(orig.(*Document)) {
		t.Error("untargeted envelope should be left as it was")
	}
}

func TestEncryptDocumentUnsupportedCipher(t *testing.T) {
	_, _, err := EncryptDocument(credentials(), []string{"password"}, "rot13", testSecret, RejectEncrypted)
	if !errors.Is(err, ErrUnsupportedCipher) {
		t.Errorf("expected ErrUnsupportedCipher, got %v", err)
	}
}

func TestDecryptDocumentWrongSecret(t *testing.T) {
	for _, c := range SupportedCiphers() {
		enc, _, err := EncryptDocument(mixed(), []string{"name", "api", "hosts"}, c, testSecret, RejectEncrypted)
		if err != nil {
			t.Fatalf("EncryptDocument() error: %v", err)
		}
		dec, keys, err := DecryptDocument(enc, []byte("wrong-secret"))
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("%s: expected ErrDecryptionFailed, got %v", c, err)
		}
		if dec != nil || keys != nil {
			t.Errorf("%s: a failed walk must not return a partial document", c)
		}
		var de *DecryptionError
		if !errors.As(err, &de) || de.Field == "" {
			t.Errorf("%s: expected the failing field to be named, got %v", c, err)
		}
	}
}

func TestDecryptDocumentMalformedEnvelope(t *testing.T) {
	doc := NewDocument()
	doc.Set("ok", "plain")
	doc.Set("bad", FromMap(map[string]any{"encrypted_data": "!!", "iv": "AAAA", "cipher": "aes-256-cbc"}))

	_, _, err := DecryptDocument(doc, testSecret)
	var de *DecryptionError
	if !errors.As(err, &de) || de.Field != "bad" {
		t.Errorf("expected DecryptionError for bad, got %v", err)
	}
}

func TestSealOpenFlat(t *testing.T) {
	doc := NewDocument()
	doc.Set("id", "m")
	doc.Set("data_bag", "apps")
	mixed().Range(func(key string, value any) bool {
		if key != "id" {
			doc.Set(key, value)
		}
		return true
	})

	sealed, err := SealFlat(doc, DefaultCipher, testSecret)
	if err != nil {
		t.Fatalf("SealFlat() error: %v", err)
	}
	if v, _ := sealed.GetString("id"); v != "m" {
		t.Errorf("id = %q, want plaintext beside the envelope", v)
	}
	if v, _ := sealed.GetString("data_bag"); v != "apps" {
		t.Errorf("data_bag = %q, want plaintext beside the envelope", v)
	}
	if !LooksEncrypted(sealed) {
		t.Fatal("sealed document should be an envelope")
	}
	if sealed.Has("name") {
		t.Error("body keys must not appear in plaintext")
	}

	opened, keys, err := OpenFlat(sealed, testSecret)
	if err != nil {
		t.Fatalf("OpenFlat() error: %v", err)
	}
	if !opened.Equal(doc) {
		t.Errorf("OpenFlat() = %v, want %v", opened, doc)
	}
	if len(keys) != 7 || keys[0] != "name" {
		t.Errorf("keys = %v", keys)
	}

	if _, _, err := OpenFlat(sealed, []byte("wrong")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestOpenFlatRejectsNonDocumentPayload(t *testing.T) {
	env, _ := Seal([]byte("just a string"), DefaultCipher, testSecret)
	if _, _, err := OpenFlat(env.Document(), testSecret); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestEncryptDocumentInvalidUTF8(t *testing.T) {
	doc := credentials()
	doc.Set("password", "p\xffw")

	for _, c := range SupportedCiphers() {
		_, _, err := EncryptDocument(doc, []string{"password"}, c, testSecret, RejectEncrypted)
		if !errors.Is(err, ErrMarshal) {
			t.Errorf("%s: expected ErrMarshal, got %v", c, err)
		}
	}
	if _, err := SealFlat(doc, DefaultCipher, testSecret); !errors.Is(err, ErrMarshal) {
		t.Errorf("SealFlat() expected ErrMarshal, got %v", err)
	}

	// Unprotected fields are not serialized and pass through.
	out, _, err := EncryptDocument(doc, []string{"user"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	if v, _ := out.GetString("password"); v != "p\xffw" {
		t.Errorf("password = %q, want it untouched", v)
	}
}

func TestRoundTripMultibyte(t *testing.T) {
	doc := credentials()
	doc.Set("password", "pässwörd ✓ 密码")
	enc, _, err := EncryptDocument(doc, []string{"password"}, DefaultCipher, testSecret, RejectEncrypted)
	if err != nil {
		t.Fatalf("EncryptDocument() error: %v", err)
	}
	dec, _, err := DecryptDocument(enc, testSecret)
	if err != nil {
		t.Fatalf("DecryptDocument() error: %v", err)
	}
	if !dec.Equal(doc) {
		t.Errorf("round-trip = %v, want %v", dec, doc)
	}
}
