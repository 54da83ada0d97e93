package schema

import (
	"strings"

	"github.com/docfold/facet/attr"
	"github.com/docfold/facet/internal/sortkey"
)

// Derive synthesizes composite-key rows for a document from the resolved
// attribute set, keyed by attribute key. A rule derives only when every
// constituent key is present; a partially satisfied rule contributes
// nothing. Multi-valued constituents derive the cartesian product of their
// entries. Pure function; an unsatisfiable rule is skipped, never an
// error.
//
// Only string and number rows participate. Boolean and no-value rows, and
// rows that are themselves derived, are ignored.
func Derive(s *Schema, documentID string, resolved map[string][]attr.Record) []attr.Record {
	var derived []attr.Record
	for _, rule := range s.CompositeKeys {
		derived = append(derived, deriveRule(rule, documentID, resolved)...)
	}
	return derived
}

func deriveRule(rule CompositeKeyRule, documentID string, resolved map[string][]attr.Record) []attr.Record {
	if len(rule.AttributeKeys) < 2 {
		return nil
	}

	groups := make([][]attr.Record, 0, len(rule.AttributeKeys))
	for _, key := range rule.AttributeKeys {
		group := compositeEligible(resolved[key])
		if len(group) == 0 {
			return nil
		}
		groups = append(groups, group)
	}

	key := rule.Key()
	parts := make([]string, len(groups))

	var records []attr.Record
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(groups) {
			value := strings.Join(parts, CompositeKeyDelimiter)
			records = append(records, attr.DerivedRecord(documentID, key, value))
			return
		}
		for _, r := range groups[depth] {
			parts[depth] = compositeValue(r)
			walk(depth + 1)
		}
	}
	walk(0)

	return records
}

// compositeEligible filters a key's rows down to those usable as
// composite constituents.
func compositeEligible(records []attr.Record) []attr.Record {
	var out []attr.Record
	for _, r := range records {
		if r.Derived {
			continue
		}
		if r.Kind == attr.KindString || r.Kind == attr.KindNumber {
			out = append(out, r)
		}
	}
	return out
}

// compositeValue renders a constituent row for joining. Numbers are
// zero-padded so composite values sort lexicographically.
func compositeValue(r attr.Record) string {
	if r.Kind == attr.KindNumber {
		return sortkey.PaddedNumber(r.NumberValue)
	}
	return r.StringValue
}
