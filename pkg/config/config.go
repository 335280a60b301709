// Package config loads the coverkit configuration file.
//
// The file is TOML. Every key is optional; a missing file yields [Default].
//
//	template_dir  = "templates"
//	output_dir    = "output"
//	preview_size  = 480
//	workers       = 4
//	camera_factor = 2.5
//
//	[cache]
//	backend    = "redis"      # file | redis | none
//	redis_addr = "localhost:6379"
//	ttl        = "72h"
//
//	[store]
//	backend   = "mongo"       # file | mongo
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags override file values.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/coverkit/pkg/cache"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/geometry"
	"github.com/matzehuels/coverkit/pkg/pipeline"
	"github.com/matzehuels/coverkit/pkg/template"
)

const appName = "coverkit"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Config is the decoded configuration file.
type Config struct {
	TemplateDir  string  `toml:"template_dir"`
	OutputDir    string  `toml:"output_dir"`
	PreviewSize  int     `toml:"preview_size"`
	Workers      int     `toml:"workers"`
	CameraFactor float64 `toml:"camera_factor"`

	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisPass string        `toml:"redis_password"`
	RedisDB   int           `toml:"redis_db"`
	TTL       time.Duration `toml:"ttl"`

	// Prefix scopes every key, so deployments can share one Redis.
	Prefix string `toml:"prefix"`
}

// StoreConfig selects the template store.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures `coverkit serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		TemplateDir:  "templates",
		OutputDir:    pipeline.DefaultOutputDir,
		PreviewSize:  pipeline.DefaultPreviewSize,
		Workers:      pipeline.DefaultWorkers,
		CameraFactor: geometry.DefaultCameraFactor,
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     cache.DefaultDir(),
			TTL:     cache.TTLArtifact,
		},
		Store: StoreConfig{
			Backend:         StoreFile,
			MongoDatabase:   template.DefaultMongoDatabase,
			MongoCollection: template.DefaultMongoCollection,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/coverkit/config.toml, falling back to
// ~/.config/coverkit/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over [Default]. An empty path selects
// [DefaultPath]. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks backends and numeric ranges.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreFile, StoreMongo:
	default:
		return fmt.Errorf("unknown store backend %q (want file or mongo)", c.Store.Backend)
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return fmt.Errorf("store backend mongo requires mongo_uri")
	}
	if c.PreviewSize <= 0 {
		return fmt.Errorf("preview_size must be positive, got %d", c.PreviewSize)
	}
	if c.Workers <= 0 || c.Workers > pipeline.MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", pipeline.MaxWorkers, c.Workers)
	}
	if c.CameraFactor <= 0 {
		return fmt.Errorf("camera_factor must be positive, got %g", c.CameraFactor)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// OpenCache builds the configured artifact cache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPass,
			DB:       c.Cache.RedisDB,
		})
	default:
		dir := c.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		return cache.NewFileCache(dir)
	}
}

// Keyer returns the cache keyer, scoped when a prefix is configured.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Prefix != "" {
		return cache.NewScopedKeyer(nil, c.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// OpenStore builds the configured template store. A file store is loaded from
// TemplateDir and seeded with the default template when empty; its load
// warnings are returned.
func (c Config) OpenStore(ctx context.Context) (template.Store, []template.Warning, error) {
	if c.Store.Backend == StoreMongo {
		s, err := template.NewMongoStore(ctx, c.Store.MongoURI, c.Store.MongoDatabase, c.Store.MongoCollection)
		return s, nil, err
	}
	s := template.NewFileStore(c.TemplateDir)
	warnings, err := s.LoadWithDefault(ctx)
	if err != nil {
		return nil, warnings, err
	}
	return s, warnings, nil
}

// PipelineOptions returns the per-render defaults from the file.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		OutputDir:   c.OutputDir,
		PreviewSize: c.PreviewSize,
	}
}
