// Package attr models document attributes in two shapes: the client-facing
// Value, a tagged union that is scalar, multi-valued or a bare presence
// marker, and the storage-facing Record, a flat single-value row. Flatten
// and Merge convert between the two.
package attr

// Kind tags the scalar payload of a Record.
type Kind string

const (
	// KindString is a string payload.
	KindString Kind = "STRING"

	// KindNumber is a numeric payload.
	KindNumber Kind = "NUMBER"

	// KindBoolean is a boolean payload.
	KindBoolean Kind = "BOOLEAN"

	// KindNoValue marks a presence-only attribute with no payload.
	KindNoValue Kind = "NO_VALUE"
)

// Value is a client-facing attribute value. Exactly one variant is
// populated; the constructors enforce this, and the zero payload is
// treated as the no-value marker.
type Value struct {
	// DocumentID identifies the owning document.
	DocumentID string

	// Key is the attribute key.
	Key string

	v payload
}

// payload is the variant actually held by a Value.
type payload interface {
	kind() Kind
}

type stringPayload string
type numberPayload float64
type booleanPayload bool
type stringsPayload []string
type numbersPayload []float64
type noPayload struct{}

func (stringPayload) kind() Kind  { return KindString }
func (numberPayload) kind() Kind  { return KindNumber }
func (booleanPayload) kind() Kind { return KindBoolean }
func (stringsPayload) kind() Kind { return KindString }
func (numbersPayload) kind() Kind { return KindNumber }
func (noPayload) kind() Kind      { return KindNoValue }

// String creates a single string-valued attribute.
func String(documentID, key, value string) Value {
	return Value{DocumentID: documentID, Key: key, v: stringPayload(value)}
}

// Number creates a single number-valued attribute.
func Number(documentID, key string, value float64) Value {
	return Value{DocumentID: documentID, Key: key, v: numberPayload(value)}
}

// Boolean creates a boolean-valued attribute.
func Boolean(documentID, key string, value bool) Value {
	return Value{DocumentID: documentID, Key: key, v: booleanPayload(value)}
}

// Strings creates a multi-valued string attribute. An empty list collapses
// to the no-value marker.
func Strings(documentID, key string, values []string) Value {
	if len(values) == 0 {
		return NoValue(documentID, key)
	}
	vs := make([]string, len(values))
	copy(vs, values)
	return Value{DocumentID: documentID, Key: key, v: stringsPayload(vs)}
}

// Numbers creates a multi-valued number attribute. An empty list collapses
// to the no-value marker.
func Numbers(documentID, key string, values []float64) Value {
	if len(values) == 0 {
		return NoValue(documentID, key)
	}
	vs := make([]float64, len(values))
	copy(vs, values)
	return Value{DocumentID: documentID, Key: key, v: numbersPayload(vs)}
}

// NoValue creates a presence-only attribute with no payload, e.g. an
// "untagged" flag.
func NoValue(documentID, key string) Value {
	return Value{DocumentID: documentID, Key: key, v: noPayload{}}
}

// Kind returns the scalar kind of the populated variant. Multi-valued
// variants report the kind of their entries.
func (v Value) Kind() Kind {
	if v.v == nil {
		return KindNoValue
	}
	return v.v.kind()
}

// IsMulti reports whether the value holds a list variant.
func (v Value) IsMulti() bool {
	switch v.v.(type) {
	case stringsPayload, numbersPayload:
		return true
	}
	return false
}

// IsNoValue reports whether the value is the presence-only marker.
func (v Value) IsNoValue() bool {
	if v.v == nil {
		return true
	}
	_, ok := v.v.(noPayload)
	return ok
}

// StringValue returns the single string variant.
func (v Value) StringValue() (string, bool) {
	s, ok := v.v.(stringPayload)
	return string(s), ok
}

// NumberValue returns the single number variant.
func (v Value) NumberValue() (float64, bool) {
	n, ok := v.v.(numberPayload)
	return float64(n), ok
}

// BooleanValue returns the boolean variant.
func (v Value) BooleanValue() (bool, bool) {
	b, ok := v.v.(booleanPayload)
	return bool(b), ok
}

// StringValues returns the string-list variant.
func (v Value) StringValues() ([]string, bool) {
	vs, ok := v.v.(stringsPayload)
	return []string(vs), ok
}

// NumberValues returns the number-list variant.
func (v Value) NumberValues() ([]float64, bool) {
	vs, ok := v.v.(numbersPayload)
	return []float64(vs), ok
}

// Len returns the number of scalar entries the value flattens to.
func (v Value) Len() int {
	switch p := v.v.(type) {
	case stringsPayload:
		return len(p)
	case numbersPayload:
		return len(p)
	default:
		return 1
	}
}
