// Package schema enforces per-site attribute schemas over document
// attribute mutations.
//
// A [Schema] is an ordered set of [AttributeDefinition]s plus zero or more
// [CompositeKeyRule]s. The [Validator] checks a submitted set of
// attr.Value against it and either returns a [ValidatedChange] holding the
// flattened rows, rows injected for missing required attributes, and
// derived composite rows ready to persist, or the complete list of
// problems as [Errors]. Validation is never fail-fast: one response can
// report every error at once.
//
// # Modes
//
// [ModeFull] validates the whole resulting attribute set and is used on
// document creation: required attributes absent from both the submission
// and the stored rows are injected from their schema default, or reported
// when no default exists. [ModePartial] is used on single-attribute
// patches: it skips the required check and re-derives only the composite
// rules whose constituents were touched.
//
// # Access tiers
//
// Every mutation carries an [Access] tier. Reserved attributes, meaning
// those declared reserved in the schema or carrying the composite
// delimiter in their key, may only be written or removed by the admin
// tiers.
//
// # Composite keys
//
// A composite rule joins the values of its constituent attributes, in rule
// order, with [CompositeKeyDelimiter] into one synthetic row used for
// compound lookups. A rule only fires when every constituent is present;
// multi-valued constituents produce the cartesian product. Derived rows
// are marked so storage can rebuild them during reindexing.
//
// All types here are pure values; the only injected capability is the
// [ExistingAttributes] read, so the validator can be exercised entirely
// in memory.
package schema
