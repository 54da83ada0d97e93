package attr

// Attribute is the wire-level shape of a logical attribute. Exactly one of
// the value fields is set; a populated *Values field means the
// multi-valued form, and no value fields at all means the presence-only
// marker.
type Attribute struct {
	Key          string    `json:"key"`
	StringValue  *string   `json:"stringValue,omitempty"`
	NumberValue  *float64  `json:"numberValue,omitempty"`
	BooleanValue *bool     `json:"booleanValue,omitempty"`
	StringValues []string  `json:"stringValues,omitempty"`
	NumberValues []float64 `json:"numberValues,omitempty"`
}

// Value converts the wire shape into the tagged union, binding it to a
// document. When several value fields are populated the first in field
// order wins; with none the result is the no-value marker.
func (a Attribute) Value(documentID string) Value {
	switch {
	case a.StringValue != nil:
		return String(documentID, a.Key, *a.StringValue)
	case a.NumberValue != nil:
		return Number(documentID, a.Key, *a.NumberValue)
	case a.BooleanValue != nil:
		return Boolean(documentID, a.Key, *a.BooleanValue)
	case len(a.StringValues) > 0:
		return Strings(documentID, a.Key, a.StringValues)
	case len(a.NumberValues) > 0:
		return Numbers(documentID, a.Key, a.NumberValues)
	default:
		return NoValue(documentID, a.Key)
	}
}

// Attribute converts a value back to its wire shape.
func (v Value) Attribute() Attribute {
	a := Attribute{Key: v.Key}

	switch p := v.v.(type) {
	case stringPayload:
		s := string(p)
		a.StringValue = &s
	case numberPayload:
		n := float64(p)
		a.NumberValue = &n
	case booleanPayload:
		b := bool(p)
		a.BooleanValue = &b
	case stringsPayload:
		a.StringValues = append([]string(nil), p...)
	case numbersPayload:
		a.NumberValues = append([]float64(nil), p...)
	}

	return a
}
