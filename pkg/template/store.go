package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// Store holds template definitions. Implementations are safe for concurrent
// use; returned definitions must not be modified.
type Store interface {
	// Get returns the template with the given key, or a TEMPLATE_NOT_FOUND error.
	Get(ctx context.Context, key string) (*Definition, error)

	// List returns all templates in storage order.
	List(ctx context.Context) ([]*Definition, error)

	// Keys returns all template keys in storage order.
	Keys(ctx context.Context) ([]string, error)

	// Save validates and stores a template, replacing any with the same key.
	Save(ctx context.Context, d *Definition) error

	// Close releases resources.
	Close() error
}

// NotFound builds the error returned for a missing template, with fuzzy
// suggestions when any stored key is close.
func NotFound(key string, keys []string) error {
	msg := fmt.Sprintf("template %q not found", key)
	if s := Suggest(key, keys); len(s) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
	}
	return errors.New(errors.ErrCodeTemplateNotFound, "%s", msg)
}

// FileStore keeps templates as one JSON or YAML file per template in a
// directory, mirrored in memory.
type FileStore struct {
	dir string

	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

// NewFileStore returns a store rooted at dir. Call [FileStore.Load] or
// [FileStore.LoadWithDefault] to read existing files.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, defs: make(map[string]*Definition)}
}

// Dir returns the template directory.
func (s *FileStore) Dir() string { return s.dir }

// Load reads every *.json, *.yaml and *.yml file in the directory, in file
// name order. A missing directory is empty. Files that fail to parse or
// validate are skipped and reported as warnings, as are parse warnings of the
// files that load.
func (s *FileStore) Load(ctx context.Context) ([]Warning, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read template directory %s", s.dir)
	}

	defs := make(map[string]*Definition)
	var order []string
	var warnings []Warning

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, name)
		def, ws, err := LoadFile(path)
		for _, w := range ws {
			warnings = append(warnings, Warning{Field: name + ": " + w.Field, Message: w.Message})
		}
		if err == nil {
			err = Validate(def)
		}
		if err != nil {
			warnings = append(warnings, Warning{Field: name, Message: "skipped: " + errors.UserMessage(err)})
			continue
		}
		if _, dup := defs[def.Key]; !dup {
			order = append(order, def.Key)
		}
		defs[def.Key] = def
	}

	s.mu.Lock()
	s.defs, s.order = defs, order
	s.mu.Unlock()
	return warnings, nil
}

// LoadWithDefault loads the directory and, when no template loads, writes
// and registers [Default].
func (s *FileStore) LoadWithDefault(ctx context.Context) ([]Warning, error) {
	warnings, err := s.Load(ctx)
	if err != nil {
		return warnings, err
	}
	s.mu.RLock()
	empty := len(s.defs) == 0
	s.mu.RUnlock()
	if empty {
		if err := s.Save(ctx, Default()); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

// LoadFile parses a template file, choosing the format from its extension.
func LoadFile(path string) (*Definition, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "template file %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read template file %s", path)
	}
	return Parse(data, FormatFromPath(path))
}

// Import parses a template file and saves it into the store.
func (s *FileStore) Import(ctx context.Context, path string) (*Definition, []Warning, error) {
	def, warnings, err := LoadFile(path)
	if err != nil {
		return nil, warnings, err
	}
	if err := s.Save(ctx, def); err != nil {
		return nil, warnings, err
	}
	return def, warnings, nil
}

func (s *FileStore) Get(_ context.Context, key string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.defs[key]; ok {
		return d, nil
	}
	return nil, NotFound(key, s.order)
}

func (s *FileStore) List(_ context.Context) ([]*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Definition, len(s.order))
	for i, k := range s.order {
		out[i] = s.defs[k]
	}
	return out, nil
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

// Save writes <key>.json atomically and updates the in-memory view.
func (s *FileStore) Save(_ context.Context, d *Definition) error {
	if err := Validate(d); err != nil {
		return err
	}
	data, err := Marshal(d, FormatJSON)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create template directory %s", s.dir)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, d.Key+".json"), data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[d.Key]; !ok {
		s.order = append(s.order, d.Key)
	}
	s.defs[d.Key] = d
	return nil
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "create temp file for %s", path)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "write %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "rename %s", path)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
