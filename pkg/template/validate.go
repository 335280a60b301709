package template

import (
	"strings"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// ValidateKeys checks slot and text keys: each must be a valid binding key
// (non-empty, no '.') and unique case-insensitively within its group.
func ValidateKeys(d *Definition) error {
	if err := validateGroup("slot", d.SlotKeys()); err != nil {
		return err
	}
	return validateGroup("text", d.TextKeys())
}

func validateGroup(kind string, keys []string) error {
	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		if err := errors.ValidateKey(k); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "%s key %q", kind, k)
		}
		folded := strings.ToLower(strings.TrimSpace(k))
		if prev, ok := seen[folded]; ok {
			return errors.New(errors.ErrCodeInvalidTemplate, "duplicate %s key %q (conflicts with %q)", kind, k, prev)
		}
		seen[folded] = k
	}
	return nil
}

// Validate checks everything a template needs before it can be stored or
// rendered.
func Validate(d *Definition) error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidTemplate, "template is nil")
	}
	if err := errors.ValidateTemplateKey(d.Key); err != nil {
		return err
	}
	if d.Width <= 0 || d.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidTemplate, "template %q has non-positive size %dx%d", d.Key, d.Width, d.Height)
	}
	return ValidateKeys(d)
}
