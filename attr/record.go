package attr

import (
	"strconv"

	"github.com/docfold/facet/internal/sortkey"
)

// Record is a single-value storage row. One Value with N list entries
// expands to N records sharing the same (DocumentID, Key); their relative
// order is the list order and must be preserved for round-trips.
type Record struct {
	// DocumentID identifies the owning document.
	DocumentID string

	// Key is the attribute key.
	Key string

	// Kind tags which payload field is meaningful.
	Kind Kind

	// StringValue is set when Kind is KindString.
	StringValue string

	// NumberValue is set when Kind is KindNumber.
	NumberValue float64

	// BooleanValue is set when Kind is KindBoolean.
	BooleanValue bool

	// Derived marks rows synthesized from schema composite-key rules
	// rather than supplied by a client. Derived rows are rebuilt by
	// reindexing; callers drop them before merging rows back into
	// client-facing values.
	Derived bool
}

// StringRecord creates a string row.
func StringRecord(documentID, key, value string) Record {
	return Record{DocumentID: documentID, Key: key, Kind: KindString, StringValue: value}
}

// NumberRecord creates a number row.
func NumberRecord(documentID, key string, value float64) Record {
	return Record{DocumentID: documentID, Key: key, Kind: KindNumber, NumberValue: value}
}

// BooleanRecord creates a boolean row.
func BooleanRecord(documentID, key string, value bool) Record {
	return Record{DocumentID: documentID, Key: key, Kind: KindBoolean, BooleanValue: value}
}

// NoValueRecord creates a presence-marker row.
func NoValueRecord(documentID, key string) Record {
	return Record{DocumentID: documentID, Key: key, Kind: KindNoValue}
}

// DerivedRecord creates a composite-key row. Derived rows are always
// string-kinded.
func DerivedRecord(documentID, key, value string) Record {
	r := StringRecord(documentID, key, value)
	r.Derived = true
	return r
}

// ValueString returns the canonical string form of the payload, used for
// composite-key values and sort keys. The marker row renders as "#" so it
// still sorts under its key prefix.
func (r Record) ValueString() string {
	switch r.Kind {
	case KindNumber:
		return sortkey.FormatNumber(r.NumberValue)
	case KindBoolean:
		return strconv.FormatBool(r.BooleanValue)
	case KindNoValue:
		return "#"
	default:
		return r.StringValue
	}
}
