package edit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ainkit/ainkit/ain"
)

// ErrVersionSyntax tags malformed version strings. Range errors are
// ain.ErrUnsupportedVersion, reported by Version.Validate.
var ErrVersionSyntax = errors.New("bad version syntax")

// ParseVersion parses "M" or "M.N". Each component is one or two
// decimal digits; the minor component defaults to zero.
func ParseVersion(s string) (ain.Version, error) {
	major, minor, found := strings.Cut(s, ".")
	m, ok := parseComponent(major)
	if !ok {
		return ain.Version{}, fmt.Errorf("%w: %q", ErrVersionSyntax, s)
	}
	n := 0
	if found {
		if n, ok = parseComponent(minor); !ok {
			return ain.Version{}, fmt.Errorf("%w: %q", ErrVersionSyntax, s)
		}
	}
	return ain.Version{Major: m, Minor: n}, nil
}

// parseComponent accepts one or two decimal digits.
func parseComponent(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}
