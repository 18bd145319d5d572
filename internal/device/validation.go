package device

import (
	"fmt"
	"strings"
	"unicode"
)

// maxNameLength bounds a registry name. Names end up in PV prefixes, metric
// labels and history rows.
const maxNameLength = 100

// ValidateName checks that name can be used as a registry key.
//
// A valid name is non-empty, at most maxNameLength bytes and contains no
// whitespace or control characters.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if i := strings.IndexFunc(name, invalidNameRune); i >= 0 {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, name[i:i+1])
	}
	return nil
}

func invalidNameRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
