// Package schema defines per-site attribute schemas and validates
// submitted attribute values against them, deriving composite-key rows and
// injecting required defaults along the way.
package schema

import (
	"strings"

	"github.com/docfold/facet/attr"
)

// CompositeKeyDelimiter joins constituent keys and values into derived
// composite rows. It is rejected inside attribute keys, so composite keys
// cannot collide with user keys.
const CompositeKeyDelimiter = "::"

// Access is the caller's tier for the mutation being validated. Admin
// tiers may write and remove reserved attributes that regular tiers may
// not.
type Access string

const (
	AccessCreate      Access = "CREATE"
	AccessUpdate      Access = "UPDATE"
	AccessDelete      Access = "DELETE"
	AccessAdminCreate Access = "ADMIN_CREATE"
	AccessAdminUpdate Access = "ADMIN_UPDATE"
	AccessAdminDelete Access = "ADMIN_DELETE"
)

// IsAdmin reports whether the tier may touch reserved attributes.
func (a Access) IsAdmin() bool {
	switch a {
	case AccessAdminCreate, AccessAdminUpdate, AccessAdminDelete:
		return true
	}
	return false
}

// IsUpdate reports whether the tier mutates an existing document.
func (a Access) IsUpdate() bool {
	return a == AccessUpdate || a == AccessAdminUpdate
}

// Mode selects how much of the schema is enforced.
type Mode string

const (
	// ModeFull validates the complete resulting attribute set, including
	// required attributes. Used on document creation.
	ModeFull Mode = "FULL"

	// ModePartial validates only the attributes being changed and
	// re-derives only the composite rules they touch. Used on
	// single-attribute patches.
	ModePartial Mode = "PARTIAL"
)

// AttributeDefinition declares one attribute key in a schema.
type AttributeDefinition struct {
	// Key is the attribute key.
	Key string `json:"key"`

	// Kind is the declared scalar kind.
	Kind attr.Kind `json:"kind"`

	// Required forces the attribute to be present on every document.
	Required bool `json:"required,omitempty"`

	// AllowedValues restricts values to an enumeration when non-empty.
	// Entries are compared in canonical string form.
	AllowedValues []string `json:"allowedValues,omitempty"`

	// MultipleAllowed permits multi-valued submissions.
	MultipleAllowed bool `json:"multipleAllowed,omitempty"`

	// Reserved marks system-owned keys only admin tiers may mutate.
	Reserved bool `json:"reserved,omitempty"`

	// DefaultValue is injected when a required attribute is missing.
	DefaultValue string `json:"defaultValue,omitempty"`

	// DefaultValues is the multi-valued form of DefaultValue.
	DefaultValues []string `json:"defaultValues,omitempty"`
}

// HasDefault reports whether a missing required attribute can be
// synthesized. No-value attributes always can: the marker row is their
// default.
func (d AttributeDefinition) HasDefault() bool {
	return d.DefaultValue != "" || len(d.DefaultValues) > 0 || d.Kind == attr.KindNoValue
}

// DefaultFor builds the injected value for a document.
func (d AttributeDefinition) DefaultFor(documentID string) attr.Value {
	switch {
	case len(d.DefaultValues) > 0:
		return attr.Strings(documentID, d.Key, d.DefaultValues)
	case d.DefaultValue != "":
		return attr.String(documentID, d.Key, d.DefaultValue)
	default:
		return attr.NoValue(documentID, d.Key)
	}
}

// CompositeKeyRule derives a synthetic attribute by joining the values of
// its constituent keys, in order, with CompositeKeyDelimiter.
type CompositeKeyRule struct {
	// AttributeKeys are the constituent keys, in join order. A rule with
	// fewer than two keys derives nothing.
	AttributeKeys []string `json:"attributeKeys"`
}

// Key returns the derived attribute key for the rule.
func (r CompositeKeyRule) Key() string {
	return strings.Join(r.AttributeKeys, CompositeKeyDelimiter)
}

// Touches reports whether any constituent is in the given key set.
func (r CompositeKeyRule) Touches(keys map[string]struct{}) bool {
	for _, k := range r.AttributeKeys {
		if _, ok := keys[k]; ok {
			return true
		}
	}
	return false
}

// Schema is a site- and classification-scoped attribute schema: an ordered
// set of attribute definitions plus composite-key rules. Schemas are
// read-mostly; callers cache them and treat them as immutable.
type Schema struct {
	// Name identifies the schema.
	Name string `json:"name"`

	// Attributes are the declared attribute definitions, in order.
	Attributes []AttributeDefinition `json:"attributes,omitempty"`

	// CompositeKeys are the composite-key rules.
	CompositeKeys []CompositeKeyRule `json:"compositeKeys,omitempty"`
}

// Definition looks up the declaration for a key.
func (s *Schema) Definition(key string) (AttributeDefinition, bool) {
	for _, d := range s.Attributes {
		if d.Key == key {
			return d, true
		}
	}
	return AttributeDefinition{}, false
}

// Required returns the required definitions in declaration order.
func (s *Schema) Required() []AttributeDefinition {
	var defs []AttributeDefinition
	for _, d := range s.Attributes {
		if d.Required {
			defs = append(defs, d)
		}
	}
	return defs
}
