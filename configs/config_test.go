// Package configs provides configuration structures and utilities for the
// catalog service. This file contains tests for the configuration functionality.
//
// Package configs 提供目录服务的配置结构和工具。
// 本文件包含配置功能的测试。
package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns a properly initialized
// and valid Config.
//
// TestDefaultConfig 验证DefaultConfig返回一个正确初始化且有效的Config。
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	// Test default values
	// 测试默认值
	if config.Storage.Driver != "memory" {
		t.Errorf("Expected Storage.Driver to be 'memory', got '%s'", config.Storage.Driver)
	}
	if config.Auth.RequiredRole != "Admin" {
		t.Errorf("Expected Auth.RequiredRole to be 'Admin', got '%s'", config.Auth.RequiredRole)
	}
	if config.Cache.ItemTTL != 5*time.Minute {
		t.Errorf("Expected Cache.ItemTTL to be 5m, got %s", config.Cache.ItemTTL)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() is invalid: %v", err)
	}
}

// TestLoadAndSaveConfig tests saving configuration to files and loading it
// back in both YAML and JSON formats.
//
// TestLoadAndSaveConfig 测试将配置保存到文件和从文件加载配置的能力，
// 包括YAML和JSON两种格式。
func TestLoadAndSaveConfig(t *testing.T) {
	tempDir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.json"} {
		path := filepath.Join(tempDir, name)
		config := DefaultConfig()
		config.Storage.Driver = "sqlite"
		config.Storage.DSN = "file:catalog.db"
		config.Cache.ListTTL = 30 * time.Second

		// Save config
		// 保存配置
		if err := config.SaveToFile(path); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}

		// Load config
		// 加载配置
		loaded, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}

		if loaded.Storage.Driver != "sqlite" {
			t.Errorf("%s: expected Storage.Driver 'sqlite', got '%s'", name, loaded.Storage.Driver)
		}
		if loaded.Storage.DSN != "file:catalog.db" {
			t.Errorf("%s: expected Storage.DSN 'file:catalog.db', got '%s'", name, loaded.Storage.DSN)
		}
		if loaded.Cache.ListTTL != 30*time.Second {
			t.Errorf("%s: expected Cache.ListTTL 30s, got %s", name, loaded.Cache.ListTTL)
		}
	}
}

// TestLoadFromReaderKeepsDefaults verifies that keys missing from the input
// keep their default values.
//
// TestLoadFromReaderKeepsDefaults 验证输入中缺失的键保持默认值。
func TestLoadFromReaderKeepsDefaults(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("server:\n  addr: \":9090\"\n"), "yaml")
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if config.Server.Addr != ":9090" {
		t.Errorf("Expected Server.Addr ':9090', got '%s'", config.Server.Addr)
	}
	if config.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("Expected Server.ShutdownTimeout 15s, got %s", config.Server.ShutdownTimeout)
	}

	empty, err := LoadFromReader(strings.NewReader(""), "yaml")
	if err != nil {
		t.Fatalf("LoadFromReader(empty) error = %v", err)
	}
	if empty.Log.Level != "info" {
		t.Errorf("Expected Log.Level 'info', got '%s'", empty.Log.Level)
	}

	if _, err := LoadFromReader(strings.NewReader(""), "toml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

// TestLoadFromFileUnsupportedExtension verifies the extension check.
func TestLoadFromFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for .ini file")
	}
}

// TestValidateConfig tests the validation rules.
//
// TestValidateConfig 测试配置验证规则。
func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"base path without slash", func(c *Config) { c.Server.BasePath = "api" }, "server.base_path"},
		{"short shutdown", func(c *Config) { c.Server.ShutdownTimeout = time.Millisecond }, "server.shutdown_timeout"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }, ""},
		{"unknown cache backend", func(c *Config) { c.Cache.Enable = true; c.Cache.Backend = "memcached" }, "cache.backend"},
		{"unknown codec", func(c *Config) { c.Cache.Enable = true; c.Cache.Codec = "xml" }, "cache.codec"},
		{"disabled cache is not checked", func(c *Config) { c.Cache.Backend = "memcached" }, ""},
		{"short signing key", func(c *Config) { c.Auth.Enable = true; c.Auth.SigningKey = "short" }, "auth.signing_key"},
		{"auth enabled", func(c *Config) {
			c.Auth.Enable = true
			c.Auth.SigningKey = strings.Repeat("k", 32)
		}, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"file output without path", func(c *Config) { c.Log.Output = "file" }, "log.file_path"},
		{"docs path", func(c *Config) { c.Docs.Path = "swagger" }, "docs.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
