// Package sortkey builds partition and sort keys for attribute rows, and
// formats numbers for use inside keys.
package sortkey

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// DocumentPrefix prefixes document partition keys.
	DocumentPrefix = "docs#"

	// AttributePrefix prefixes attribute sort keys. All attribute rows for
	// a document share this prefix, so an ascending range query returns
	// them grouped by attribute key.
	AttributePrefix = "attr#"

	// SchemaPrefix prefixes schema partition keys.
	SchemaPrefix = "schemas#"

	// ClassificationPrefix prefixes schema sort keys.
	ClassificationPrefix = "classification#"

	// maxValueLen caps the value portion of a sort key. DynamoDB limits
	// sort keys to 1024 bytes; the prefix and key take the rest.
	maxValueLen = 800
)

// DocumentPK returns the partition key for a document's attribute rows.
func DocumentPK(documentID string) string {
	return DocumentPrefix + documentID
}

// AttributeSK returns the sort key for one attribute row. The value
// portion is truncated so rows with very long values still fit.
func AttributeSK(key, value string) string {
	return AttributePrefix + key + "#" + Truncate(value)
}

// AttributeKeyPrefix returns the sort-key prefix covering every row of one
// attribute key.
func AttributeKeyPrefix(key string) string {
	return AttributePrefix + key + "#"
}

// SchemaPK returns the partition key for a site's schemas.
func SchemaPK(siteID string) string {
	return SchemaPrefix + siteID
}

// SchemaSK returns the sort key for a classification's schema.
func SchemaSK(classificationID string) string {
	return ClassificationPrefix + classificationID
}

// Truncate caps a sort-key value at the maximum length, cutting on a byte
// boundary.
func Truncate(s string) string {
	if len(s) <= maxValueLen {
		return s
	}
	return s[:maxValueLen]
}

// FormatNumber renders a number in its canonical form: integral values
// without a fraction, everything else in the shortest exact decimal form.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PaddedNumber renders a number zero-padded to a fixed width with four
// fractional digits, so numeric values inside composite keys sort
// lexicographically.
func PaddedNumber(f float64) string {
	return fmt.Sprintf("%020.4f", f)
}
