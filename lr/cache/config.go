package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/schuko"
	"gopkg.in/yaml.v3"
)

// Configuration keys and environment variables for the default cache.
const (
	KeyRoot     = "lrkit.cache.root"
	KeyDisabled = "lrkit.cache.disabled"
	EnvConfig   = "LRKIT_CONFIG"    // path of a YAML configuration file
	EnvCacheDir = "LRKIT_CACHE_DIR" // overrides the cache root
)

// Config is a configuration read from a YAML file. Nested keys are joined by
// dots:
//
//     lrkit:
//       cache:
//         root: /var/cache/lrkit
//
// sets key "lrkit.cache.root".
type Config struct {
	values map[string]string
}

var _ schuko.Configuration = (*Config)(nil)

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig reads YAML configuration data.
func ParseConfig(data []byte) (*Config, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	c := &Config{values: make(map[string]string)}
	c.flatten("", tree)
	return c, nil
}

func (c *Config) flatten(prefix string, tree map[string]interface{}) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]interface{}:
			c.flatten(key, v)
		case nil:
			c.values[key] = ""
		default:
			c.values[key] = fmt.Sprint(v)
		}
	}
}

// InitDefaults is part of interface schuko.Configuration.
func (c *Config) InitDefaults() {}

// IsSet is part of interface schuko.Configuration.
func (c *Config) IsSet(key string) bool {
	_, ok := c.values[key]
	return ok
}

// GetString is part of interface schuko.Configuration.
func (c *Config) GetString(key string) string {
	return c.values[key]
}

// GetInt is part of interface schuko.Configuration.
func (c *Config) GetInt(key string) int {
	n, _ := strconv.Atoi(c.values[key])
	return n
}

// GetBool is part of interface schuko.Configuration.
func (c *Config) GetBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.values[key]))
	return b
}

// IsInteractive is part of interface schuko.Configuration.
func (c *Config) IsInteractive() bool {
	return false
}

// ConfigFrom turns a configuration into cache options.
func ConfigFrom(conf schuko.Configuration) []Option {
	var opts []Option
	if conf == nil {
		return opts
	}
	if conf.IsSet(KeyRoot) {
		opts = append(opts, WithRoot(conf.GetString(KeyRoot)))
	}
	if conf.IsSet(KeyDisabled) {
		opts = append(opts, WithDisabled(conf.GetBool(KeyDisabled)))
	}
	return opts
}

// DefaultRoot is the cache root used if no configuration sets one.
func DefaultRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "lrkit", "parsers")
}

// LocateConfig returns the path of the configuration file for the default
// cache: the file named by LRKIT_CONFIG, or a file lrkit.yaml (or config.yaml)
// in the user's configuration directory. It returns "" if there is none.
func LocateConfig() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	if paths := schuko.LocateConfig("lrkit", "", []string{"yaml", "yml"}); len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// DefaultOptions assembles the options for the default cache from the
// configuration file, if any, and the environment.
func DefaultOptions() ([]Option, error) {
	var opts []Option
	if path := LocateConfig(); path != "" {
		conf, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		tracer().Infof("cache configuration from %s", path)
		opts = append(opts, ConfigFrom(conf)...)
	}
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		opts = append(opts, WithRoot(dir))
	}
	return opts, nil
}

var defaultCache struct {
	once  sync.Once
	cache *Cache
	err   error
}

// Default returns a process-wide cache, configured once by DefaultOptions.
func Default() (*Cache, error) {
	defaultCache.once.Do(func() {
		opts, err := DefaultOptions()
		if err != nil {
			defaultCache.err = err
			return
		}
		defaultCache.cache, defaultCache.err = New(DefaultRoot(), opts...)
	})
	return defaultCache.cache, defaultCache.err
}
