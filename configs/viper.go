// Package configs provides configuration structures and utilities for the
// catalog service. This file implements Viper-based configuration management
// with environment overrides and hot reloading support.
//
// Package configs 提供目录服务的配置结构和工具。
// 本文件实现基于Viper的配置管理，支持环境变量覆盖和热重载。
package configs

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// CATALOG_STORAGE_DRIVER overrides storage.driver.
const EnvPrefix = "CATALOG"

// ViperConfig wraps a Config with Viper functionality for environment
// overrides and hot reloading. It provides thread-safe access to the
// configuration and notifies subscribers when the file changes.
//
// ViperConfig 使用Viper功能包装Config以支持环境变量覆盖和热重载。
// 它提供对配置的线程安全访问，并在文件更改时通知订阅者。
type ViperConfig struct {
	config      *Config         // Current configuration / 当前配置
	viper       *viper.Viper    // Viper instance for configuration management / 用于配置管理的Viper实例
	configFile  string          // Path to the configuration file, may be empty / 配置文件路径，可为空
	mu          sync.RWMutex    // Mutex for thread-safe access / 用于线程安全访问的互斥锁
	subscribers []func(*Config) // Subscribers notified on config changes / 配置更改时要通知的订阅者列表
}

// NewViperConfig creates a new ViperConfig. Defaults come from
// DefaultConfig, then the optional file, then CATALOG_* environment
// variables. The result is validated.
//
// NewViperConfig 创建一个新的ViperConfig。
// 默认值来自DefaultConfig，然后是可选的配置文件，最后是CATALOG_*环境变量。
//
// Parameters:
//   - configFile: Path to the configuration file, or "" for defaults and environment only
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading or validation fails
func NewViperConfig(configFile string) (*ViperConfig, error) {
	v := viper.New()

	// Register defaults so every key is known to AutomaticEnv
	// 注册默认值，使AutomaticEnv能识别每个键
	if err := registerDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFile), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &ViperConfig{
		config:      config,
		viper:       v,
		configFile:  configFile,
		subscribers: make([]func(*Config), 0),
	}, nil
}

// EnableHotReload watches the configuration file with fsnotify. When it
// changes, the configuration is reloaded and subscribers are notified. It
// is a no-op without a configuration file.
//
// EnableHotReload 使用fsnotify监视配置文件。
// 文件更改时重新加载配置并通知订阅者。没有配置文件时不执行任何操作。
func (vc *ViperConfig) EnableHotReload() {
	if vc.configFile == "" {
		return
	}
	vc.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed")
		_ = vc.apply()
	})
	vc.viper.WatchConfig()
}

// Reload re-reads the configuration file and notifies subscribers when the
// resulting configuration differs from the current one.
//
// Reload 重新读取配置文件，当配置发生变化时通知订阅者。
func (vc *ViperConfig) Reload() error {
	if vc.configFile != "" {
		if err := vc.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return vc.apply()
}

func (vc *ViperConfig) apply() error {
	newConfig, err := decode(vc.viper)
	if err != nil {
		log.Error().Err(err).Msg("rejected configuration change")
		return err
	}

	vc.mu.Lock()
	if configsEqual(vc.config, newConfig) {
		vc.mu.Unlock()
		return nil
	}
	vc.config = newConfig
	subscribers := make([]func(*Config), len(vc.subscribers))
	copy(subscribers, vc.subscribers)
	vc.mu.Unlock()

	// Notify subscribers
	// 通知订阅者
	for _, subscriber := range subscribers {
		subscriber(newConfig)
	}
	return nil
}

// Subscribe adds a subscriber that will be notified when the configuration
// changes.
//
// Subscribe 添加一个在配置更改时将被通知的订阅者。
//
// Parameters:
//   - subscriber: A function to call with the new configuration
func (vc *ViperConfig) Subscribe(subscriber func(*Config)) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.subscribers = append(vc.subscribers, subscriber)
}

// Get returns the current configuration. It is safe for concurrent use.
//
// Get 返回当前配置，可以并发调用。
func (vc *ViperConfig) Get() *Config {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.config
}

// Load loads a configuration using Viper and optionally enables hot reloading.
//
// Load 使用Viper加载配置，并可选地启用热重载。
//
// Parameters:
//   - configFile: Path to the configuration file, may be empty
//
// Returns:
//   - *ViperConfig: A new ViperConfig instance
//   - error: An error if loading fails
func Load(configFile string) (*ViperConfig, error) {
	vc, err := NewViperConfig(configFile)
	if err != nil {
		return nil, err
	}

	if vc.Get().Extensions.HotReload.Enable {
		vc.EnableHotReload()
	}

	return vc, nil
}

func decode(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// registerDefaults flattens the defaults into dotted viper keys.
func registerDefaults(v *viper.Viper, defaults *Config) error {
	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]interface{}); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// configsEqual checks if two configs are equal.
//
// configsEqual 检查两个配置是否相等。
func configsEqual(c1, c2 *Config) bool {
	return reflect.DeepEqual(c1, c2)
}
