// Package configs provides configuration structures and utilities for the
// catalog service. It offers mechanisms for loading, validating, and saving
// configuration from JSON and YAML files, and (in viper.go) layering
// environment variables and hot reloading on top of them.
//
// Package configs 提供目录服务的配置结构和工具。
// 它提供从JSON和YAML文件加载、验证和保存配置的机制，
// 并在viper.go中支持环境变量覆盖和热重载。
package configs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration of the catalog service.
//
// Config 表示目录服务的完整配置。
type Config struct {
	// Server controls the HTTP listener and routing
	// Server 控制HTTP监听和路由
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// Storage selects and configures the product store
	// Storage 选择并配置产品存储
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`

	// Cache configures the optional read-through product cache
	// Cache 配置可选的产品读穿缓存
	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`

	// Auth configures bearer token validation
	// Auth 配置Bearer令牌校验
	Auth AuthConfig `json:"auth" yaml:"auth" mapstructure:"auth"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`

	// Observability configures tracing, metrics and Server-Timing
	// Observability 配置追踪、指标和Server-Timing
	Observability ObservabilityConfig `json:"observability" yaml:"observability" mapstructure:"observability"`

	// Docs configures the OpenAPI document endpoint
	// Docs 配置OpenAPI文档端点
	Docs DocsConfig `json:"docs" yaml:"docs" mapstructure:"docs"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Mode            string        `json:"mode" yaml:"mode" mapstructure:"mode"`
	BasePath        string        `json:"base_path" yaml:"base_path" mapstructure:"base_path"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the product store. Driver is one of memory,
// sqlite or postgres.
type StorageConfig struct {
	Driver          string        `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN             string        `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	AutoMigrate     bool          `json:"auto_migrate" yaml:"auto_migrate" mapstructure:"auto_migrate"`
	Seed            bool          `json:"seed" yaml:"seed" mapstructure:"seed"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// CacheConfig configures the product cache. Backend is memory or redis.
// CleanupInterval is how often the memory backend sweeps expired entries,
// 0 disables the sweep.
type CacheConfig struct {
	Enable          bool          `json:"enable" yaml:"enable" mapstructure:"enable"`
	Backend         string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	MaxEntries      int           `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`
	ItemTTL         time.Duration `json:"item_ttl" yaml:"item_ttl" mapstructure:"item_ttl"`
	ListTTL         time.Duration `json:"list_ttl" yaml:"list_ttl" mapstructure:"list_ttl"`
	Codec           string        `json:"codec" yaml:"codec" mapstructure:"codec"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	Redis           RedisConfig   `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds the connection settings of the redis cache backend.
type RedisConfig struct {
	URL          string        `json:"url" yaml:"url" mapstructure:"url"`
	KeyPrefix    string        `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// AuthConfig configures validation of HMAC signed bearer tokens.
type AuthConfig struct {
	Enable       bool          `json:"enable" yaml:"enable" mapstructure:"enable"`
	SigningKey   string        `json:"signing_key" yaml:"signing_key" mapstructure:"signing_key"`
	Issuer       string        `json:"issuer" yaml:"issuer" mapstructure:"issuer"`
	Audience     string        `json:"audience" yaml:"audience" mapstructure:"audience"`
	RequiredRole string        `json:"required_role" yaml:"required_role" mapstructure:"required_role"`
	RoleClaim    string        `json:"role_claim" yaml:"role_claim" mapstructure:"role_claim"`
	ClockSkew    time.Duration `json:"clock_skew" yaml:"clock_skew" mapstructure:"clock_skew"`
}

// LogConfig configures the logging behavior.
type LogConfig struct {
	Level    string `json:"level" yaml:"level" mapstructure:"level"`
	Format   string `json:"format" yaml:"format" mapstructure:"format"`
	Output   string `json:"output" yaml:"output" mapstructure:"output"`
	FilePath string `json:"file_path" yaml:"file_path" mapstructure:"file_path"`
}

// ObservabilityConfig configures instrumentation.
type ObservabilityConfig struct {
	ServiceName  string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
	ServerTiming bool   `json:"server_timing" yaml:"server_timing" mapstructure:"server_timing"`
	DBTracing    bool   `json:"db_tracing" yaml:"db_tracing" mapstructure:"db_tracing"`
}

// DocsConfig configures the OpenAPI document endpoint.
type DocsConfig struct {
	Enable bool   `json:"enable" yaml:"enable" mapstructure:"enable"`
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
}

// ExtensionsConfig configures optional features.
type ExtensionsConfig struct {
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload" mapstructure:"hot_reload"`
}

// HotReloadConfig configures reloading the configuration file on change.
type HotReloadConfig struct {
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`
}

// DefaultConfig returns a Config populated with the defaults of the service.
//
// DefaultConfig 返回填充了服务默认值的Config。
//
// Returns:
//   - *Config: A new configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			BasePath:        "",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:          "memory",
			DSN:             "",
			AutoMigrate:     true,
			Seed:            true,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Enable:          false,
			Backend:         "memory",
			MaxEntries:      10000,
			ItemTTL:         5 * time.Minute,
			ListTTL:         2 * time.Minute,
			Codec:           "json",
			CleanupInterval: time.Minute,
			Redis: RedisConfig{
				URL:          "redis://localhost:6379/0",
				KeyPrefix:    "catalog:",
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				DialTimeout:  5 * time.Second,
			},
		},
		Auth: AuthConfig{
			Enable:       false,
			Issuer:       "http://localhost:5028",
			Audience:     "http://localhost:5028",
			RequiredRole: "Admin",
			RoleClaim:    "role",
			ClockSkew:    3 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Observability: ObservabilityConfig{
			ServiceName:  "prodcat",
			ServerTiming: true,
			DBTracing:    false,
		},
		Docs: DocsConfig{
			Enable: true,
			Path:   "/swagger/doc.json",
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable: false,
			},
		},
	}
}

// LoadFromFile loads a configuration from a YAML or JSON file. Values not
// present in the file keep their defaults.
//
// LoadFromFile 从YAML或JSON文件加载配置，文件中未出现的值保持默认值。
//
// Parameters:
//   - filename: Path to the configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if the file cannot be read or decoded
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return LoadFromReader(file, format)
}

// LoadFromReader loads a configuration from a reader in the given format
// (yaml, yml or json).
//
// LoadFromReader 以给定格式（yaml、yml或json）从读取器加载配置。
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile writes the configuration to a YAML or JSON file chosen by the
// file extension.
//
// SaveToFile 根据文件扩展名将配置写入YAML或JSON文件。
func (c *Config) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	case ".json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	default:
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the service cannot run with.
//
// Validate 检查配置中服务无法使用的值。
//
// Returns:
//   - error: The first problem found, or nil
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of: debug, release, test")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/'")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout < time.Second {
		return fmt.Errorf("server.shutdown_timeout must be at least 1 second")
	}

	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be specified when storage.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("storage.driver must be one of: memory, sqlite, postgres")
	}
	if c.Storage.MaxOpenConns < 0 || c.Storage.MaxIdleConns < 0 {
		return fmt.Errorf("storage connection pool sizes must be non-negative")
	}

	if c.Cache.Enable {
		switch c.Cache.Backend {
		case "memory":
			if c.Cache.MaxEntries < 0 {
				return fmt.Errorf("cache.max_entries must be non-negative")
			}
		case "redis":
			if c.Cache.Redis.URL == "" {
				return fmt.Errorf("cache.redis.url must be specified when cache.backend is 'redis'")
			}
		default:
			return fmt.Errorf("cache.backend must be one of: memory, redis")
		}
		switch c.Cache.Codec {
		case "json", "gob":
		default:
			return fmt.Errorf("cache.codec must be one of: json, gob")
		}
		if c.Cache.ItemTTL <= 0 || c.Cache.ListTTL <= 0 {
			return fmt.Errorf("cache ttls must be positive")
		}
		if c.Cache.CleanupInterval < 0 {
			return fmt.Errorf("cache.cleanup_interval must be non-negative")
		}
	}

	if c.Auth.Enable {
		if len(c.Auth.SigningKey) < 32 {
			return fmt.Errorf("auth.signing_key must be at least 32 bytes")
		}
		if c.Auth.RoleClaim == "" {
			return fmt.Errorf("auth.role_claim must not be empty")
		}
		if c.Auth.ClockSkew < 0 {
			return fmt.Errorf("auth.clock_skew must be non-negative")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be one of: text, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr, file")
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path must be specified when log.output is 'file'")
	}

	if c.Docs.Enable && !strings.HasPrefix(c.Docs.Path, "/") {
		return fmt.Errorf("docs.path must start with '/'")
	}

	return nil
}
