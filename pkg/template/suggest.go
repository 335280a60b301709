package template

import "github.com/sahilm/fuzzy"

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

// Suggest returns stored keys that fuzzily match key, best match first.
func Suggest(key string, keys []string) []string {
	if key == "" || len(keys) == 0 {
		return nil
	}
	matches := fuzzy.Find(key, keys)
	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
