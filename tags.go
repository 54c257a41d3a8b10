package securebag

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// TagName is the struct tag that marks a field as protected:
//
//	Password string `json:"password" securebag:"encrypt"`
const TagName = "securebag"

// tagEncrypt is the only recognized tag value.
const tagEncrypt = "encrypt"

func init() {
	sentinel.Tag(TagName)
}

// EncryptedKeysFor returns the document keys protected by T's struct tags.
// Keys are the json names of tagged fields, found at any depth of nested
// structs, in declaration order.
func EncryptedKeysFor[T any]() ([]string, error) {
	spec := sentinel.Scan[T]()
	var keys []string
	if err := collectTaggedKeys(&keys, spec, reflect.TypeFor[T](), ""); err != nil {
		return nil, err
	}
	return uniqueKeys(keys), nil
}

func collectTaggedKeys(keys *[]string, spec sentinel.Metadata, rt reflect.Type, prefix string) error {
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	for _, field := range spec.Fields {
		sf := rt.FieldByIndex(field.Index)
		name := jsonName(sf)
		if name == "" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if val, ok := field.Tags[TagName]; ok {
			if val != tagEncrypt {
				return fmt.Errorf("%w: unknown %s tag %q on %s", ErrInvalidFormat, TagName, val, path)
			}
			*keys = append(*keys, name)
			continue
		}

		nested := field.ReflectType
		if field.Kind == sentinel.KindPointer {
			nested = nested.Elem()
		}
		if nested.Kind() != reflect.Struct {
			continue
		}
		if sub := scanStruct(nested); sub != nil {
			if err := collectTaggedKeys(keys, *sub, nested, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanStruct returns sentinel metadata for a nested struct type.
func scanStruct(rt reflect.Type) *sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok {
		return &spec
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
			Kind:        sentinel.KindScalar,
		}
		if v, ok := sf.Tag.Lookup(TagName); ok {
			fm.Tags[TagName] = v
		}
		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		}
		spec.Fields = append(spec.Fields, fm)
	}
	return &spec
}

// jsonName returns the key encoding/json would use for sf, or "" if the
// field is skipped.
func jsonName(sf reflect.StructField) string {
	if !sf.IsExported() {
		return ""
	}
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return sf.Name
}

// NewFrom starts an item from a tagged struct. Tagged keys are protected in
// addition to cfg.EncryptedKeys.
func NewFrom[T any](ctx context.Context, v T, cfg Config) (*Item, error) {
	keys, err := EncryptedKeysFor[T]()
	if err != nil {
		return nil, err
	}
	doc, err := FromStruct(v)
	if err != nil {
		return nil, err
	}
	cfg.EncryptedKeys = uniqueKeys(cfg.EncryptedKeys, keys)
	return New(ctx, doc, cfg)
}

// DecodeItem decodes an item's plaintext into a T.
func DecodeItem[T any](item *Item) (T, error) {
	var v T
	err := item.Plaintext().Decode(&v)
	return v, err
}
