package securebag

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Identity and bookkeeping keys.
const (
	// IDKey names the item identity field. It is never encrypted.
	IDKey = "id"

	// DataBagKey names the collection field. It is never encrypted.
	DataBagKey = "data_bag"

	// RawDataKey wraps the item body in server-side representations.
	RawDataKey = "raw_data"
)

// hostKeys are added by the item server and dropped on load.
var hostKeys = []string{"chef_type", "json_class"}

// Document is an ordered mapping from string keys to values.
//
// Values are strings, bools, nil, numbers, nested *Document values or
// []any sequences. Insertion order is preserved by every operation and by
// every codec, so re-serializing a document is stable.
//
// The zero value is an empty document ready for use. Documents are not safe
// for concurrent mutation.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// FromMap builds a document from a Go map. Go maps carry no order, so keys
// are sorted. Nested maps become nested documents.
func FromMap(m map[string]any) *Document {
	d := NewDocument()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Len returns the number of keys.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in order. The slice is a copy.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (d *Document) GetString(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetDocument returns the value under key when it is a nested document.
func (d *Document) GetDocument(key string) (*Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Document)
	return sub, ok
}

// Set stores value under key. Existing keys keep their position; new keys
// are appended. map[string]any values are converted to documents.
func (d *Document) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = normalizeValue(value)
}

// Delete removes key. Missing keys are ignored.
func (d *Document) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each key in order until fn returns false.
func (d *Document) Range(fn func(key string, value any) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		keys:   make([]string, len(d.keys)),
		values: make(map[string]any, len(d.values)),
	}
	copy(out.keys, d.keys)
	for k, v := range d.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// ToMap converts the document into plain Go maps and slices.
func (d *Document) ToMap() map[string]any {
	if d == nil {
		return nil
	}
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = toPlain(d.values[k])
	}
	return out
}

// Equal reports whether two documents hold the same keys, in the same order,
// with equal values. Numbers compare by value regardless of their Go type.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i, k := range d.keys {
		if other.keys[i] != k {
			return false
		}
		if !valuesEqual(d.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// String renders the document as JSON.
func (d *Document) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf("<document: %v>", err)
	}
	return string(b)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func toPlain(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toPlain(e)
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	if an, ok := numberString(a); ok {
		bn, ok := numberString(b)
		return ok && an == bn
	}
	switch at := a.(type) {
	case *Document:
		bt, ok := b.(*Document)
		return ok && at.Equal(bt)
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// numberString renders numeric values canonically so that json.Number("42"),
// int64(42) and float64(42) compare equal.
func numberString(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return n.String(), true
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return formatFloat(float64(n)), true
	case float64:
		return formatFloat(n), true
	default:
		return "", false
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// nativeNumber converts json.Number into int64 or float64 for codecs that
// have no arbitrary-precision number type.
func nativeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
