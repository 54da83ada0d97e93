//go:build !facetdebug

package attr

const contiguityChecks = false
