package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is returned for a malformed label selector.
var ErrInvalidSelector = errors.New("render: invalid label selector")

// ParseSelector accepts exactly one key=value pair. Multi-selector
// composition is not supported and fails loudly instead of silently using
// only the first pair.
func ParseSelector(selector string) (string, string, error) {
	if strings.Contains(selector, ",") {
		return "", "", fmt.Errorf("%w: %q: only a single key=value pair is supported", ErrInvalidSelector, selector)
	}

	key, value, ok := strings.Cut(selector, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: %q: want key=value", ErrInvalidSelector, selector)
	}
	return key, value, nil
}
