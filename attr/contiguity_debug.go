//go:build facetdebug

package attr

// contiguityChecks makes Merge panic when a key reappears non-contiguously
// instead of silently emitting a second value. Debug builds only; run the
// tests with -tags=facetdebug to enable.
const contiguityChecks = true
