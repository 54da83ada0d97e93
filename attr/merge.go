package attr

// Merge reconstructs client-facing values from storage rows with a single
// left-to-right scan. All rows for the same key must be contiguous in the
// input; range reads sorted by sort key provide this, unsorted scans do
// not and must be sorted by the caller first. A key that reappears after a
// different key silently starts a second output value; build with the
// facetdebug tag to turn that into a panic during testing.
//
// Folding rules within one run of rows: the first string row sets the
// single string variant, a second promotes to a string list holding both,
// later rows append. Numbers promote the same way. Boolean and no-value
// rows never promote; a repeat overwrites. A row whose kind differs from
// the run's kind starts a new value.
func Merge(records []Record) []Value {
	var out []Value
	var seen map[string]struct{}
	if contiguityChecks {
		seen = make(map[string]struct{})
	}

	for _, r := range records {
		if len(out) == 0 || !sameGroup(&out[len(out)-1], r) {
			if contiguityChecks {
				if _, dup := seen[r.Key]; dup && (len(out) == 0 || out[len(out)-1].Key != r.Key) {
					panic("attr: non-contiguous records for key " + r.Key)
				}
				seen[r.Key] = struct{}{}
			}
			out = append(out, newValue(r))
			continue
		}
		fold(&out[len(out)-1], r)
	}

	return out
}

// sameGroup reports whether a row continues the in-progress value.
func sameGroup(v *Value, r Record) bool {
	return v.Key == r.Key && v.DocumentID == r.DocumentID && v.Kind() == r.Kind
}

// newValue starts a value from the first row of a run.
func newValue(r Record) Value {
	switch r.Kind {
	case KindString:
		return String(r.DocumentID, r.Key, r.StringValue)
	case KindNumber:
		return Number(r.DocumentID, r.Key, r.NumberValue)
	case KindBoolean:
		return Boolean(r.DocumentID, r.Key, r.BooleanValue)
	default:
		return NoValue(r.DocumentID, r.Key)
	}
}

// fold adds a subsequent same-key row to the in-progress value, promoting
// scalars to lists.
func fold(v *Value, r Record) {
	switch r.Kind {
	case KindString:
		switch p := v.v.(type) {
		case stringPayload:
			v.v = stringsPayload{string(p), r.StringValue}
		case stringsPayload:
			v.v = append(p, r.StringValue)
		}

	case KindNumber:
		switch p := v.v.(type) {
		case numberPayload:
			v.v = numbersPayload{float64(p), r.NumberValue}
		case numbersPayload:
			v.v = append(p, r.NumberValue)
		}

	case KindBoolean:
		// The schema allows at most one boolean row per key; keep the
		// latest if the store holds more.
		v.v = booleanPayload(r.BooleanValue)

	case KindNoValue:
		v.v = noPayload{}
	}
}
