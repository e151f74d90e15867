package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

type CacheType string

const (
	CacheTypeLocal CacheType = "local"
	CacheTypeRedis CacheType = "redis"
)

var (
	ErrMissingVerifyURL       = errors.New("verifier url is required in production mode")
	ErrMissingAllowedSourceID = errors.New("at least one allowed data source id is required in production mode")
	ErrMissingRedisConfig     = errors.New("redis cache requires cache.redis settings")
)

var validate = validator.New()

type PresenterConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Throttle int    `yaml:"throttle" validate:"gte=0"`
}

type MetricsConfig struct {
	Host string `yaml:"host" validate:"required"`
}

type VerifierConfig struct {
	URL                  string        `yaml:"url" validate:"omitempty,url"`
	AllowedDataSourceIDs []int64       `yaml:"allowed_data_source_ids"`
	MaxDelay             int64         `yaml:"max_delay" validate:"gte=0"`
	Timeout              time.Duration `yaml:"timeout" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type DedupKey string

const (
	DedupBySignature DedupKey = "signature"
	DedupByRequest   DedupKey = "request"
)

type CacheConfig struct {
	Type           CacheType     `yaml:"type" validate:"oneof=local redis"`
	DedupBy        DedupKey      `yaml:"dedup_by" validate:"oneof=signature request"`
	Size           int           `yaml:"size" validate:"gt=0"`
	TTL            time.Duration `yaml:"ttl" validate:"gt=0"`
	PendingTimeout time.Duration `yaml:"pending_timeout" validate:"gte=0"`
	PollInterval   time.Duration `yaml:"poll_interval" validate:"gt=0"`
	Redis          *RedisConfig  `yaml:"redis"`
}

type AdapterConfig struct {
	Type    string            `yaml:"type" validate:"required"`
	Name    string            `yaml:"name" validate:"required"`
	Timeout time.Duration     `yaml:"timeout" validate:"gt=0"`
	Options map[string]string `yaml:"options"`
}

type DBConfig struct {
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gt=0"`
	DB       string `yaml:"database" validate:"required"`
}

type ReportsConfig struct {
	Expiration    time.Duration `yaml:"expiration" validate:"gte=0"`
	PurgeInterval time.Duration `yaml:"purge_interval" validate:"gt=0"`
	BufferSize    int           `yaml:"buffer_size" validate:"gt=0"`
}

type Config struct {
	Mode      Mode             `yaml:"mode" validate:"oneof=development production"`
	LogLevel  logrus.Level     `yaml:"log_level"`
	Presenter *PresenterConfig `yaml:"presenter" validate:"required"`
	Metrics   *MetricsConfig   `yaml:"metrics"`
	Verifier  *VerifierConfig  `yaml:"verifier" validate:"required"`
	Cache     *CacheConfig     `yaml:"cache" validate:"required"`
	Adapter   *AdapterConfig   `yaml:"adapter" validate:"required"`
	DBConfig  *DBConfig        `yaml:"postgres"`
	Reports   *ReportsConfig   `yaml:"reports" validate:"required"`
}

func (cfg *Config) IsProduction() bool {
	return cfg.Mode == ModeProduction
}

// ReportsEnabled reports whether a report store is configured.
func (cfg *Config) ReportsEnabled() bool {
	return cfg.DBConfig != nil
}

func (cfg *VerifierConfig) IsAllowedDataSourceID(id int64) bool {
	for _, allowed := range cfg.AllowedDataSourceIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func defaultConfig() *Config {
	return &Config{
		Mode:     ModeDevelopment,
		LogLevel: logrus.InfoLevel,
		Presenter: &PresenterConfig{
			Host:     "0.0.0.0:8000",
			Throttle: 100,
		},
		Verifier: &VerifierConfig{
			Timeout: 10 * time.Second,
		},
		Cache: &CacheConfig{
			Type:           CacheTypeLocal,
			DedupBy:        DedupBySignature,
			Size:           1000,
			TTL:            10 * time.Minute,
			PendingTimeout: 30 * time.Second,
			PollInterval:   100 * time.Millisecond,
		},
		Adapter: &AdapterConfig{
			Timeout: 10 * time.Second,
		},
		Reports: &ReportsConfig{
			PurgeInterval: time.Hour,
			BufferSize:    256,
		},
	}
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Cache.Type == CacheTypeRedis {
		if cfg.Cache.Redis == nil {
			return ErrMissingRedisConfig
		}
		if err := validate.Struct(cfg.Cache.Redis); err != nil {
			return fmt.Errorf("invalid redis config: %w", err)
		}
	}
	if cfg.DBConfig != nil {
		if err := validate.Struct(cfg.DBConfig); err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
	}
	if cfg.IsProduction() {
		if cfg.Verifier.URL == "" {
			return ErrMissingVerifyURL
		}
		if len(cfg.Verifier.AllowedDataSourceIDs) == 0 {
			return ErrMissingAllowedSourceID
		}
	}
	return nil
}
