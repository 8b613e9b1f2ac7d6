package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// EnvPrefix is the prefix of every environment variable the server reads.
const EnvPrefix = "MHI_SERVER"

// AuthSettings configuration for authentication of the admin surface
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServerSettings configuration for the content server
type ServerSettings struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	DataDirectory  string   `mapstructure:"data_directory"`
	Subdirectories []string `mapstructure:"subdirectories"`
}

// AdminSettings configuration for the MCP corpus inspection surface
type AdminSettings struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxResults int  `mapstructure:"max_results"`
}

// Settings application settings
type Settings struct {
	Server   ServerSettings `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
	Admin    AdminSettings  `mapstructure:"admin"`
	Auth     AuthSettings   `mapstructure:"auth"`
}

// envBindings maps configuration keys to environment variables.
var envBindings = map[string]string{
	"server.host":           EnvPrefix + "_HOST",
	"server.port":           EnvPrefix + "_PORT",
	"server.data_directory": EnvPrefix + "_DATA_DIRECTORY",
	"server.subdirectories": EnvPrefix + "_SUBDIRECTORIES",
	"log_level":             EnvPrefix + "_LOG_LEVEL",
	"admin.enabled":         EnvPrefix + "_ADMIN_ENABLED",
	"admin.max_results":     EnvPrefix + "_ADMIN_MAX_RESULTS",
	"auth.type":             EnvPrefix + "_AUTH_TYPE",
	"auth.basic.username":   EnvPrefix + "_AUTH_BASIC_USERNAME",
	"auth.basic.password":   EnvPrefix + "_AUTH_BASIC_PASSWORD",
	"auth.api_keys":         EnvPrefix + "_AUTH_API_KEYS",
}

// flagBindings maps configuration keys to CLI flag names.
var flagBindings = map[string]string{
	"server.host":           "host",
	"server.port":           "port",
	"server.data_directory": "data-directory",
	"server.subdirectories": "subdirectories",
	"log_level":             "log-level",
	"admin.enabled":         "admin-enabled",
	"admin.max_results":     "admin-max-results",
	"auth.type":             "auth-type",
	"auth.basic.username":   "auth-basic-username",
	"auth.basic.password":   "auth-basic-password",
	"auth.api_keys":         "auth-api-keys",
}

// LoadSettings loads settings from environment variables and an optional config file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > config file > defaults.
// The config file is the one named by the "config" flag, or config.{toml,yaml,json}
// in the working directory. If flags is nil, only env vars, the default
// config file and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 80)
	v.SetDefault("server.data_directory", "./data")
	v.SetDefault("server.subdirectories", []string{"recreated", "original_dumps"})
	v.SetDefault("log_level", "info")
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.max_results", 20)
	v.SetDefault("auth.type", AuthTypeNone)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// Bind CLI flags if provided (highest priority)
	configFile := ""
	if flags != nil {
		for key, name := range flagBindings {
			_ = v.BindPFlag(key, flags.Lookup(name))
		}
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Server.Subdirectories = splitList(settings.Server.Subdirectories)
	settings.Auth.APIKeys = splitList(settings.Auth.APIKeys)
	settings.Server.DataDirectory = expandHomeDir(settings.Server.DataDirectory)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	return &settings, nil
}

// readConfigFile reads an explicit config file, or the optional default one.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// splitList splits comma-separated entries (as they arrive from env vars),
// trims spaces and drops empty entries.
func splitList(in []string) []string {
	var result []string
	for _, item := range in {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ParseLogLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
	return level, nil
}

// ValidateSettings checks for invalid or conflicting configurations.
func ValidateSettings(s *Settings) error {
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", s.Server.Port)
	}

	if strings.TrimSpace(s.Server.DataDirectory) == "" {
		return errors.New("data-directory cannot be empty")
	}

	if len(s.Server.Subdirectories) == 0 {
		return errors.New("at least one corpus subdirectory is required")
	}
	for _, sub := range s.Server.Subdirectories {
		if strings.TrimSpace(sub) == "" {
			return errors.New("corpus subdirectory names cannot be empty")
		}
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return errors.New("log-level must be one of debug, info, warn, error, got: " + s.LogLevel)
	}

	if s.Admin.Enabled && s.Admin.MaxResults <= 0 {
		return errors.New("admin-max-results must be positive")
	}

	return validateAuthSettings(&s.Auth)
}

// validateAuthSettings rejects mutually exclusive or incomplete auth config.
func validateAuthSettings(a *AuthSettings) error {
	hasBasicCreds := a.Basic.Username != "" || a.Basic.Password != ""
	hasAPIKeys := len(a.APIKeys) > 0

	switch a.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if a.Basic.Username == "" || a.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + a.Type)
	}
	return nil
}
