package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/template"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.PreviewSize != 480 || cfg.Workers != 1 || cfg.CameraFactor != 2.5 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != Default().TemplateDir {
		t.Errorf("template dir = %q", cfg.TemplateDir)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
template_dir = "tpl"
workers = 4

[cache]
backend = "none"
ttl = "90m"
prefix = "staging:"

[server]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != "tpl" || cfg.Workers != 4 {
		t.Errorf("top level = %+v", cfg)
	}
	if cfg.PreviewSize != 480 {
		t.Errorf("unset preview_size = %d, want default", cfg.PreviewSize)
	}
	if cfg.Cache.Backend != CacheNone || cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if k := cfg.Keyer().ArtifactKey("h", cache.ArtifactKeyOpts{Kind: cache.KindRender}); !strings.HasPrefix(k, "staging:") {
		t.Errorf("scoped key = %q", k)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `workers = `, "parse config"},
		{"unknown key", `colour = "red"`, "unknown key"},
		{"cache backend", "[cache]\nbackend = \"memcached\"", "cache backend"},
		{"store backend", "[store]\nbackend = \"sqlite\"", "store backend"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", "mongo_uri"},
		{"workers", `workers = 0`, "workers"},
		{"too many workers", `workers = 1000`, "workers"},
		{"preview", `preview_size = -5`, "preview_size"},
		{"camera", `camera_factor = 0.0`, "camera_factor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "coverkit", "config.toml"); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	path, err = DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "coverkit", "config.toml")) {
		t.Errorf("DefaultPath() = %q", path)
	}
}

func TestOpenCache(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")

	c, err := cfg.OpenCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("file backend = %T", c)
	}

	cfg.Cache.Backend = CacheNone
	c, err = cfg.OpenCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}
}

func TestOpenFileStoreSeedsDefault(t *testing.T) {
	cfg := Default()
	cfg.TemplateDir = t.TempDir()

	store, _, err := cfg.OpenStore(context.Background())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != template.Default().Key {
		t.Errorf("keys = %v, want the default template", keys)
	}
}
