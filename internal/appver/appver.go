// Package appver compares the dotted numeric version strings shipped by the
// game client and its storefront pages.
package appver

import (
	"errors"
	"fmt"
	"regexp"

	goversion "github.com/hashicorp/go-version"
)

// ErrMalformed is returned when a version string contains a non-integer
// segment. It is a parse error, never a false comparison result.
var ErrMalformed = errors.New("malformed version string")

// versions are dotted sequences of non-negative integers with no fixed
// segment count
var versionRegexp = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Parse validates and parses a dotted numeric version string
func Parse(s string) (*goversion.Version, error) {
	if !versionRegexp.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}

	return v, nil
}

// IsNewerOrEqual reports whether candidate is at least as new as baseline.
// Segments are compared left to right with the shorter operand zero-padded,
// so "4.2.0" and "4.2" compare as equal. Equal versions satisfy the check.
func IsNewerOrEqual(candidate, baseline string) (bool, error) {
	c, err := Parse(candidate)
	if err != nil {
		return false, err
	}

	b, err := Parse(baseline)
	if err != nil {
		return false, err
	}

	return c.GreaterThanOrEqual(b), nil
}
