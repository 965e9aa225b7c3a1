// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Window   WindowConfig   `mapstructure:"window"`
	Platform PlatformConfig `mapstructure:"platform"`
	Keyboard KeyboardConfig `mapstructure:"keyboard"`
	IPC      IPCConfig      `mapstructure:"ipc"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// WindowConfig describes the initial window
type WindowConfig struct {
	Title      string `mapstructure:"title"`
	AppID      string `mapstructure:"app_id"` // xdg_toplevel app id, used by compositors for window rules
	Width      int32  `mapstructure:"width"`
	Height     int32  `mapstructure:"height"`
	Fullscreen bool   `mapstructure:"fullscreen"`
}

// PlatformConfig contains Wayland session settings
type PlatformConfig struct {
	BlockingEventLoop   bool   `mapstructure:"blocking_event_loop"`  // Only redraw when asked to
	FallbackDecorations bool   `mapstructure:"fallback_decorations"` // Draw our own frame without a decoration manager
	Display             string `mapstructure:"display"`              // Empty means WAYLAND_DISPLAY
}

// KeyboardConfig holds the repeat policy used until the compositor sends one
type KeyboardConfig struct {
	RepeatDelayMs int32 `mapstructure:"repeat_delay_ms"`
	RepeatRate    int32 `mapstructure:"repeat_rate"` // Repeats per second, 0 disables
}

// IPCConfig contains control socket settings
type IPCConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SocketPath string `mapstructure:"socket_path"` // Empty means $XDG_RUNTIME_DIR/wlwindow-<pid>.sock
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel      string `mapstructure:"log_level"`      // Override LOG_LEVEL env var
	TraceProtocol bool   `mapstructure:"trace_protocol"` // Log every request and event at debug level
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Window: WindowConfig{
			Title:  "wlwindow",
			AppID:  "wlwindow",
			Width:  800,
			Height: 600,
		},
		Platform: PlatformConfig{
			BlockingEventLoop:   false,
			FallbackDecorations: true,
		},
		Keyboard: KeyboardConfig{
			RepeatDelayMs: 200,
			RepeatRate:    25,
		},
		IPC: IPCConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("wlwindow")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			viper.AddConfigPath(filepath.Join(dir, "wlwindow"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wlwindow"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("window.title", DefaultConfig.Window.Title)
	viper.SetDefault("window.app_id", DefaultConfig.Window.AppID)
	viper.SetDefault("window.width", DefaultConfig.Window.Width)
	viper.SetDefault("window.height", DefaultConfig.Window.Height)
	viper.SetDefault("window.fullscreen", DefaultConfig.Window.Fullscreen)

	viper.SetDefault("platform.blocking_event_loop", DefaultConfig.Platform.BlockingEventLoop)
	viper.SetDefault("platform.fallback_decorations", DefaultConfig.Platform.FallbackDecorations)
	viper.SetDefault("platform.display", DefaultConfig.Platform.Display)

	viper.SetDefault("keyboard.repeat_delay_ms", DefaultConfig.Keyboard.RepeatDelayMs)
	viper.SetDefault("keyboard.repeat_rate", DefaultConfig.Keyboard.RepeatRate)

	viper.SetDefault("ipc.enabled", DefaultConfig.IPC.Enabled)
	viper.SetDefault("ipc.socket_path", DefaultConfig.IPC.SocketPath)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
	viper.SetDefault("logging.trace_protocol", DefaultConfig.Logging.TraceProtocol)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate rejects values the window cannot start with
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Keyboard.RepeatRate < 0 || c.Keyboard.RepeatDelayMs < 0 {
		return fmt.Errorf("invalid keyboard repeat settings: rate %d, delay %dms", c.Keyboard.RepeatRate, c.Keyboard.RepeatDelayMs)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wlwindow", "wlwindow.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "wlwindow.toml"
	}

	return filepath.Join(home, ".config", "wlwindow", "wlwindow.toml")
}
