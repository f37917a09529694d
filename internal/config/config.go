package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration surface of the API process. It is loaded
// once at startup and passed explicitly into component constructors; nothing
// reads the environment at call time.
type Config struct {
	APIPort int `mapstructure:"apiPort"`

	Mongo struct {
		URL            string        `mapstructure:"url"`
		Database       string        `mapstructure:"database"`
		ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	} `mapstructure:"mongo"`

	Auth struct {
		TokenSecret    string        `mapstructure:"tokenSecret"`
		TokenTTL       time.Duration `mapstructure:"tokenTTL"`
		BcryptCost     int           `mapstructure:"bcryptCost"`
		MinPasswordLen int           `mapstructure:"minPasswordLen"`
	} `mapstructure:"auth"`

	Storage struct {
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"accessKey"`
		SecretKey string `mapstructure:"secretKey"`
	} `mapstructure:"storage"`
}

// ImagesEnabled reports whether gift image storage is configured.
func (c *Config) ImagesEnabled() bool {
	return c.Storage.Bucket != ""
}

// ErrMissingTokenSecret is returned when no signing secret is configured.
// The process must refuse to start without one rather than fail per-request.
var ErrMissingTokenSecret = errors.New("config: auth token secret is required")

// ErrMissingMongoURL is returned when no database address is configured.
var ErrMissingMongoURL = errors.New("config: mongo url is required")

// LoadConfig loads the configuration from an optional YAML file and the
// environment. Environment variables override file values; the legacy names
// MONGO_URL, MONGO_DB_NAME and JWT_SECRET are honoured alongside the
// dotted-key forms.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("mongo.url", "MONGO_URL")
	v.BindEnv("mongo.database", "MONGO_DB_NAME")
	v.BindEnv("auth.tokenSecret", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 3060
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "giftdb"
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Auth.MinPasswordLen == 0 {
		cfg.Auth.MinPasswordLen = 6
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Auth.TokenSecret == "" {
		return nil, ErrMissingTokenSecret
	}
	if cfg.Mongo.URL == "" {
		return nil, ErrMissingMongoURL
	}

	return &cfg, nil
}
