package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ValidateKey validates a slot or text key.
//
// Keys double as CSV column suffixes (text.<key>, slot.<key>), so they must be
// non-empty, free of control characters and must not contain '.'.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return New(ErrCodeInvalidKey, "key cannot be empty")
	}
	if len(key) > 128 {
		return New(ErrCodeInvalidKey, "key too long (max 128 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "key %q contains control characters", key)
		}
	}
	if strings.Contains(key, ".") {
		return New(ErrCodeInvalidKey, "key %q must not contain '.'", key)
	}
	return nil
}

// ValidateTemplateKey validates a template key, which is also its on-disk identity.
func ValidateTemplateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidTemplate, "template key cannot be empty")
	}
	if len(key) > 128 {
		return New(ErrCodeInvalidTemplate, "template key too long (max 128 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTemplate, "template key contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidTemplate, "template key contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateOutputName validates a per-row output file name.
// It must be a relative path that stays inside the output directory.
//
// Validation rules:
//   - Name cannot be empty
//   - No null bytes or control characters
//   - No absolute paths
//   - No path traversal sequences (..)
func ValidateOutputName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "output name cannot be empty")
	}
	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output name contains invalid characters")
		}
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidPath, "output name must be relative: %q", name)
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "output name cannot contain path traversal sequences (..)")
		}
	}
	return nil
}

// hexColorRegex matches #rgb, #rrggbb and #rrggbbaa.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateHexColor validates a hex color string.
func ValidateHexColor(s string) error {
	if !hexColorRegex.MatchString(strings.TrimSpace(s)) {
		return New(ErrCodeInvalidColor, "invalid color %q (expected #rgb, #rrggbb or #rrggbbaa)", s)
	}
	return nil
}
