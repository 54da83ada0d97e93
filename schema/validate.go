package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/docfold/facet/attr"
)

// ExistingAttributes reads a document's currently stored rows. The
// validator only consumes it; caching and ordering are the
// implementation's concern.
type ExistingAttributes interface {
	DocumentAttributes(ctx context.Context, documentID string) ([]attr.Record, error)
}

// Validator enforces a schema over submitted attribute values. It holds no
// state beyond the injected collaborator and is safe for concurrent use.
type Validator struct {
	existing ExistingAttributes
}

// NewValidator creates a validator. existing may be nil when documents are
// always validated from scratch, e.g. on creation.
func NewValidator(existing ExistingAttributes) *Validator {
	return &Validator{existing: existing}
}

// ValidatedChange is the persist-ready result of a successful validation:
// the flattened submitted rows, any rows injected for missing required
// attributes, and the derived composite rows.
type ValidatedChange struct {
	Submitted []attr.Record
	Injected  []attr.Record
	Composite []attr.Record
}

// Records returns every row in the change, submitted first.
func (c *ValidatedChange) Records() []attr.Record {
	out := make([]attr.Record, 0, len(c.Submitted)+len(c.Injected)+len(c.Composite))
	out = append(out, c.Submitted...)
	out = append(out, c.Injected...)
	out = append(out, c.Composite...)
	return out
}

// Group is one attribute key's rows within a change.
type Group struct {
	Key     string
	Records []attr.Record
}

// Groups splits the change into per-key groups, preserving first-seen
// order. Persistence replaces whole key groups atomically, so this is the
// unit the storage layer consumes.
func (c *ValidatedChange) Groups() []Group {
	index := map[string]int{}
	var groups []Group
	for _, r := range c.Records() {
		i, ok := index[r.Key]
		if !ok {
			i = len(groups)
			index[r.Key] = i
			groups = append(groups, Group{Key: r.Key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Validate checks submitted values against the schema and, when they pass,
// produces the persist-ready row bundle. All validation problems are
// collected and returned together as Errors; storage failures from the
// existing-attribute read are returned as ordinary wrapped errors.
//
// ModeFull additionally requires every schema-required attribute to be
// present in the submitted set, the stored set, or an injectable default.
// ModePartial validates only the submitted keys and re-derives only the
// composite rules they touch.
func (v *Validator) Validate(ctx context.Context, s *Schema, documentID string,
	submitted []attr.Value, mode Mode, access Access) (*ValidatedChange, error) {

	existing, err := v.existingRecords(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("read existing attributes: %w", err)
	}

	submittedKeys := make(map[string]struct{}, len(submitted))
	for _, val := range submitted {
		submittedKeys[val.Key] = struct{}{}
	}

	var errs Errors
	errs = append(errs, checkAccess(s, submitted, access)...)
	errs = append(errs, checkValues(s, submitted)...)

	var injected []attr.Record
	if mode == ModeFull {
		var required Errors
		injected, required = resolveRequired(s, documentID, submittedKeys, existing)
		errs = append(errs, required...)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	change := &ValidatedChange{
		Submitted: attr.FlattenAll(submitted),
		Injected:  injected,
	}

	resolved := resolve(existing, change.Submitted, injected)
	for _, rule := range s.CompositeKeys {
		if mode == ModePartial && !rule.Touches(submittedKeys) {
			continue
		}
		change.Composite = append(change.Composite, deriveRule(rule, documentID, resolved)...)
	}

	return change, nil
}

// ValidateDelete checks that the given attribute keys may be removed under
// the caller's tier. Reserved keys need an admin tier and required keys
// may not be removed at all.
func (v *Validator) ValidateDelete(s *Schema, keys []string, access Access) error {
	var errs Errors
	for _, key := range keys {
		def, ok := s.Definition(key)
		if reservedKey(def, ok, key) && !access.IsAdmin() {
			errs = append(errs, ValidationError{
				Key:     key,
				Message: fmt.Sprintf("not authorized to delete reserved attribute %q", key),
				Reason:  ReasonUnauthorized,
			})
		}
		if ok && def.Required {
			errs = append(errs, ValidationError{
				Key:     key,
				Message: fmt.Sprintf("attribute %q is required and cannot be removed", key),
				Reason:  ReasonRequiredMissing,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) existingRecords(ctx context.Context, documentID string) ([]attr.Record, error) {
	if v.existing == nil {
		return nil, nil
	}
	return v.existing.DocumentAttributes(ctx, documentID)
}

// reservedKey reports whether a key is off limits to non-admin tiers:
// declared reserved, containing the composite delimiter and therefore
// colliding with derived rows, or containing "#", the storage sort-key
// separator, which would break per-key row grouping.
func reservedKey(def AttributeDefinition, declared bool, key string) bool {
	if declared && def.Reserved {
		return true
	}
	return strings.Contains(key, CompositeKeyDelimiter) || strings.Contains(key, "#")
}

func checkAccess(s *Schema, submitted []attr.Value, access Access) Errors {
	if access.IsAdmin() {
		return nil
	}
	var errs Errors
	for _, val := range submitted {
		def, ok := s.Definition(val.Key)
		if reservedKey(def, ok, val.Key) {
			errs = append(errs, ValidationError{
				Key:     val.Key,
				Message: fmt.Sprintf("not authorized to set reserved attribute %q", val.Key),
				Reason:  ReasonUnauthorized,
			})
		}
	}
	return errs
}

func checkValues(s *Schema, submitted []attr.Value) Errors {
	var errs Errors
	for _, val := range submitted {
		def, ok := s.Definition(val.Key)
		if !ok {
			// Keys the schema does not declare are free-form.
			continue
		}

		if val.Kind() != def.Kind {
			errs = append(errs, ValidationError{
				Key: val.Key,
				Message: fmt.Sprintf("attribute %q expects %s, got %s",
					val.Key, def.Kind, val.Kind()),
				Reason: ReasonTypeMismatch,
			})
			continue
		}

		if !def.MultipleAllowed && val.Len() > 1 {
			errs = append(errs, ValidationError{
				Key:     val.Key,
				Message: fmt.Sprintf("attribute %q does not allow multiple values", val.Key),
				Reason:  ReasonMultiplicity,
			})
		}

		errs = append(errs, checkAllowedValues(def, val)...)
	}
	return errs
}

// checkAllowedValues compares every scalar entry of a value, in canonical
// string form, against the definition's enumeration. The no-value marker
// is exempt: it carries nothing to compare.
func checkAllowedValues(def AttributeDefinition, val attr.Value) Errors {
	if len(def.AllowedValues) == 0 || val.IsNoValue() {
		return nil
	}

	allowed := make(map[string]struct{}, len(def.AllowedValues))
	for _, a := range def.AllowedValues {
		allowed[a] = struct{}{}
	}

	var errs Errors
	for _, r := range attr.Flatten(val) {
		if _, ok := allowed[r.ValueString()]; !ok {
			errs = append(errs, ValidationError{
				Key:     val.Key,
				Message: fmt.Sprintf("invalid attribute value %q", r.ValueString()),
				Reason:  ReasonDisallowedValue,
			})
		}
	}
	return errs
}

// resolveRequired injects defaults for required attributes absent from
// both the submission and the stored rows, and reports the ones that
// cannot be synthesized.
func resolveRequired(s *Schema, documentID string,
	submittedKeys map[string]struct{}, existing []attr.Record) ([]attr.Record, Errors) {

	existingKeys := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		if !r.Derived {
			existingKeys[r.Key] = struct{}{}
		}
	}

	var injected []attr.Record
	var errs Errors
	for _, def := range s.Required() {
		if _, ok := submittedKeys[def.Key]; ok {
			continue
		}
		if _, ok := existingKeys[def.Key]; ok {
			continue
		}
		if !def.HasDefault() {
			errs = append(errs, ValidationError{
				Key:     def.Key,
				Message: fmt.Sprintf("missing required attribute %q", def.Key),
				Reason:  ReasonRequiredMissing,
			})
			continue
		}
		injected = append(injected, attr.Flatten(def.DefaultFor(documentID))...)
	}
	return injected, errs
}

// resolve builds the full attribute set composite derivation runs
// against: stored rows, with submitted groups replacing their stored
// counterparts (writes replace whole key groups), plus injected defaults.
// Derived rows are excluded; composites never feed composites.
func resolve(existing, submitted, injected []attr.Record) map[string][]attr.Record {
	resolved := make(map[string][]attr.Record)
	replaced := make(map[string]struct{})

	for _, group := range [][]attr.Record{submitted, injected} {
		for _, r := range group {
			resolved[r.Key] = append(resolved[r.Key], r)
			replaced[r.Key] = struct{}{}
		}
	}

	for _, r := range existing {
		if r.Derived {
			continue
		}
		if _, ok := replaced[r.Key]; ok {
			continue
		}
		resolved[r.Key] = append(resolved[r.Key], r)
	}

	return resolved
}
