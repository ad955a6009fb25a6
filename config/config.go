package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/icook/tiny-ballot/identity"
)

const envPrefix = "BALLOT"

const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Identity IdentityConfig `mapstructure:"identity"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

type StorageConfig struct {
	// Scheme is "memory" or "file".
	Scheme string `mapstructure:"scheme"`
	Path   string `mapstructure:"path"`
}

type IdentityConfig struct {
	Header string `mapstructure:"header"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		API:      APIConfig{Listen: "localhost:8080"},
		Storage:  StorageConfig{Scheme: StorageFile, Path: "./data/ballot"},
		Identity: IdentityConfig{Header: identity.DefaultHeader},
		Log:      LogConfig{Level: "info", Encoding: "console"},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// SetDefaults registers DefaultConfig with v so env vars and flags bound to
// the same keys can override it.
func SetDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("api.listen", def.API.Listen)
	v.SetDefault("storage.scheme", def.Storage.Scheme)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("identity.header", def.Identity.Header)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.encoding", def.Log.Encoding)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
}

// Load reads an optional config file, then BALLOT_* environment variables,
// on top of the defaults.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Scheme {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the file scheme")
		}
	default:
		return errors.Errorf("unknown storage scheme %q", c.Storage.Scheme)
	}
	if c.API.Listen == "" {
		return errors.New("api.listen is required")
	}
	return nil
}
