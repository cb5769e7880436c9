package util

import (
	"fmt"
	"regexp"
)

var legalIdentifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// IsLegalIdentifier reports whether s can be written as a bare object key
func IsLegalIdentifier(s string) bool {
	return legalIdentifierRe.MatchString(s)
}

// Error creates an error with a formatted message
func Error(msg string) error {
	return fmt.Errorf("Internal Error: %s", msg)
}

// Assert panics with an internal error when cond is false.
// It guards invariants that only a broken caller can violate.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(Error(fmt.Sprintf(format, args...)))
	}
}
