package store

import (
	"fmt"
	"strings"
)

const reserved = ".#$[]"

// Split breaks a slash-separated path into segments. Leading and trailing
// slashes are ignored; empty segments and reserved characters are rejected.
func Split(path string) ([]string, error) {
	p := strings.Trim(path, "/")
	if p == "" {
		return nil, fmt.Errorf("%w: %w: empty", ErrStore, ErrInvalidPath)
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %w: %q has an empty segment", ErrStore, ErrInvalidPath, path)
		}
		if strings.ContainsAny(s, reserved) {
			return nil, fmt.Errorf("%w: %w: %q contains one of %q", ErrStore, ErrInvalidPath, path, reserved)
		}
	}
	return segs, nil
}

// ValidKey reports whether k can be used as one path segment: non-empty, no
// slash and none of the reserved characters.
func ValidKey(k string) error {
	if k == "" || strings.ContainsAny(k, reserved+"/") {
		return fmt.Errorf("%w: bad key %q", ErrInvalidPath, k)
	}
	return nil
}

// Join builds a path from segments without validating them.
func Join(segs ...string) string {
	return strings.Join(segs, "/")
}

func wrap(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStore, op, path, err)
}
