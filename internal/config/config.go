// Package config provides configuration management for webpress using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// Configuration is read from .webpress.yml, overridable through environment
// variables with the WEBPRESS_ prefix and through cobra flags bound by the
// CLI. It covers the HTTP server, the static asset root, the bundle manifest
// location, the external LESS compiler, and development-mode behavior.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Assets      AssetsConfig      `yaml:"assets"`
	Development DevelopmentConfig `yaml:"development"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	URLPrefix string `yaml:"url_prefix"`
}

type AssetsConfig struct {
	// StaticRoot is the directory file-backed assets are resolved against.
	StaticRoot string `yaml:"static_root"`
	// Manifest is the YAML file declaring the bundles to register.
	Manifest string `yaml:"manifest"`
	// LessCommand is the external LESS compiler binary.
	LessCommand string `yaml:"less_command"`
	// LessTimeout bounds a single compiler invocation.
	LessTimeout time.Duration `yaml:"less_timeout"`
	// WatchInvalidate drops memoized content when files under the static
	// root change. Only meaningful outside debug mode, where content is
	// otherwise assumed immutable for the process lifetime.
	WatchInvalidate bool `yaml:"watch_invalidate"`
}

type DevelopmentConfig struct {
	// Debug disables memoization and minification and switches linked
	// rendering to one tag per child asset.
	Debug bool `yaml:"debug"`
	// LiveReload pushes reload events over a websocket when files under the
	// static root change. Only active in debug mode.
	LiveReload bool `yaml:"live_reload"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds a Config from whatever viper has accumulated (config file, env,
// bound flags), applies defaults, and validates the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workarounds for viper key handling: snake_case keys do not match their
	// field names during Unmarshal, so pull them explicitly when set.
	if viper.IsSet("server.url_prefix") {
		config.Server.URLPrefix = viper.GetString("server.url_prefix")
	}
	if viper.IsSet("assets.static_root") {
		config.Assets.StaticRoot = viper.GetString("assets.static_root")
	}
	if viper.IsSet("assets.less_command") {
		config.Assets.LessCommand = viper.GetString("assets.less_command")
	}
	if viper.IsSet("assets.less_timeout") {
		config.Assets.LessTimeout = viper.GetDuration("assets.less_timeout")
	}
	if viper.IsSet("development.debug") {
		config.Development.Debug = viper.GetBool("development.debug")
	}
	if viper.IsSet("development.live_reload") {
		config.Development.LiveReload = viper.GetBool("development.live_reload")
	}
	if viper.IsSet("assets.watch_invalidate") {
		config.Assets.WatchInvalidate = viper.GetBool("assets.watch_invalidate")
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 8060
	}
	if config.Server.URLPrefix == "" {
		config.Server.URLPrefix = "/_webpress"
	}
	if config.Assets.StaticRoot == "" {
		config.Assets.StaticRoot = "static"
	}
	if config.Assets.Manifest == "" {
		config.Assets.Manifest = "bundles.yml"
	}
	if config.Assets.LessCommand == "" {
		config.Assets.LessCommand = "lessc"
	}
	if config.Assets.LessTimeout == 0 {
		config.Assets.LessTimeout = 30 * time.Second
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if !viper.IsSet("development.live_reload") {
		config.Development.LiveReload = true
	}
}

func validate(config *Config) error {
	if err := validateServer(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateAssets(&config.Assets); err != nil {
		return fmt.Errorf("assets config: %w", err)
	}
	return nil
}

func validateServer(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}
	if config.Host != "" {
		for _, char := range []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"} {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}
	if config.URLPrefix != "" && !strings.HasPrefix(config.URLPrefix, "/") {
		return fmt.Errorf("url_prefix must start with /: %s", config.URLPrefix)
	}
	return nil
}

func validateAssets(config *AssetsConfig) error {
	if err := validatePath(config.StaticRoot); err != nil {
		return fmt.Errorf("invalid static_root %q: %w", config.StaticRoot, err)
	}
	if config.Manifest != "" {
		cleanPath := filepath.Clean(config.Manifest)
		if strings.Contains(cleanPath, "..") {
			return fmt.Errorf("manifest contains path traversal: %s", config.Manifest)
		}
	}
	if config.LessTimeout < 0 {
		return fmt.Errorf("less_timeout must not be negative: %s", config.LessTimeout)
	}
	return nil
}

// validatePath rejects empty paths, traversal, and shell metacharacters.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	for _, char := range []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"} {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}
	return nil
}
