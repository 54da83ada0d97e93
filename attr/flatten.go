package attr

// Flatten expands one client-facing value into its storage rows. Scalar
// variants emit a single row of the matching kind, list variants emit one
// row per entry in list order, and the no-value marker emits exactly one
// KindNoValue row. The result is never empty and the key is copied through
// unvalidated; schema checks happen in the schema package.
func Flatten(v Value) []Record {
	switch p := v.v.(type) {
	case stringPayload:
		return []Record{StringRecord(v.DocumentID, v.Key, string(p))}

	case numberPayload:
		return []Record{NumberRecord(v.DocumentID, v.Key, float64(p))}

	case booleanPayload:
		return []Record{BooleanRecord(v.DocumentID, v.Key, bool(p))}

	case stringsPayload:
		records := make([]Record, 0, len(p))
		for _, s := range p {
			records = append(records, StringRecord(v.DocumentID, v.Key, s))
		}
		return records

	case numbersPayload:
		records := make([]Record, 0, len(p))
		for _, n := range p {
			records = append(records, NumberRecord(v.DocumentID, v.Key, n))
		}
		return records

	default:
		return []Record{NoValueRecord(v.DocumentID, v.Key)}
	}
}

// FlattenAll flattens a sequence of values in order.
func FlattenAll(values []Value) []Record {
	var records []Record
	for _, v := range values {
		records = append(records, Flatten(v)...)
	}
	return records
}
