package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// validSettings returns settings that pass validation.
func validSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Host:           "0.0.0.0",
			Port:           80,
			DataDirectory:  "./data",
			Subdirectories: []string{"recreated", "original_dumps"},
		},
		LogLevel: "info",
		Admin:    AdminSettings{MaxResults: 20},
		Auth:     AuthSettings{Type: AuthTypeNone},
	}
}

// newFlagSet declares the flags LoadSettingsWithFlags knows about.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("host", "", "")
	flags.Int("port", 0, "")
	flags.String("data-directory", "", "")
	flags.StringSlice("subdirectories", nil, "")
	flags.String("log-level", "", "")
	flags.Bool("admin-enabled", false, "")
	flags.Int("admin-max-results", 0, "")
	flags.String("auth-type", "", "")
	flags.String("auth-basic-username", "", "")
	flags.String("auth-basic-password", "", "")
	flags.StringSlice("auth-api-keys", nil, "")
	return flags
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Server.Port != 80 {
		t.Errorf("Expected default port 80, got %d", settings.Server.Port)
	}
	if settings.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got '%s'", settings.Server.Host)
	}
	if settings.Server.DataDirectory != "./data" {
		t.Errorf("Expected default data directory './data', got '%s'", settings.Server.DataDirectory)
	}
	want := []string{"recreated", "original_dumps"}
	if strings.Join(settings.Server.Subdirectories, ",") != strings.Join(want, ",") {
		t.Errorf("Expected default subdirectories %v, got %v", want, settings.Server.Subdirectories)
	}
	if settings.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", settings.LogLevel)
	}
	if settings.Admin.Enabled {
		t.Error("Expected admin surface to be disabled by default")
	}
	if settings.Auth.Type != AuthTypeNone {
		t.Errorf("Expected default auth type '%s', got '%s'", AuthTypeNone, settings.Auth.Type)
	}
	if err := ValidateSettings(settings); err != nil {
		t.Errorf("Defaults should be valid, got: %v", err)
	}
}

func TestLoadSettings_EnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MHI_SERVER_PORT", "9090")
	t.Setenv("MHI_SERVER_DATA_DIRECTORY", "/srv/mhi")
	t.Setenv("MHI_SERVER_LOG_LEVEL", "DEBUG")
	t.Setenv("MHI_SERVER_ADMIN_ENABLED", "true")
	t.Setenv("MHI_SERVER_AUTH_TYPE", "basic")
	t.Setenv("MHI_SERVER_AUTH_BASIC_USERNAME", "admin")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", settings.Server.Port)
	}
	if settings.Server.DataDirectory != "/srv/mhi" {
		t.Errorf("Expected data directory '/srv/mhi', got '%s'", settings.Server.DataDirectory)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("Expected normalized log level 'debug', got '%s'", settings.LogLevel)
	}
	if !settings.Admin.Enabled {
		t.Error("Expected admin surface to be enabled")
	}
	if settings.Auth.Type != AuthTypeBasic {
		t.Errorf("Expected auth type '%s', got '%s'", AuthTypeBasic, settings.Auth.Type)
	}
	if settings.Auth.Basic.Username != "admin" {
		t.Errorf("Expected username 'admin', got '%s'", settings.Auth.Basic.Username)
	}
}

func TestLoadSettings_ListEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MHI_SERVER_SUBDIRECTORIES", "first, second,,third")
	t.Setenv("MHI_SERVER_AUTH_API_KEYS", "key1, key2")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if got := strings.Join(settings.Server.Subdirectories, "|"); got != "first|second|third" {
		t.Errorf("Expected subdirectories first|second|third, got %s", got)
	}
	if got := strings.Join(settings.Auth.APIKeys, "|"); got != "key1|key2" {
		t.Errorf("Expected api keys key1|key2, got %s", got)
	}
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MHI_SERVER_PORT", "not-a-number")

	_, err := LoadSettings()
	if err == nil {
		t.Fatal("Expected error for invalid port type")
	}
}

func TestLoadSettings_DefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "log_level = \"warn\"\n\n[server]\nhost = \"127.0.0.2\"\nport = 7000\ndata_directory = \"/var/mhi\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Server.Host != "127.0.0.2" {
		t.Errorf("Expected host 127.0.0.2, got %s", settings.Server.Host)
	}
	if settings.Server.Port != 7000 {
		t.Errorf("Expected port 7000, got %d", settings.Server.Port)
	}
	if settings.Server.DataDirectory != "/var/mhi" {
		t.Errorf("Expected data directory /var/mhi, got %s", settings.Server.DataDirectory)
	}
	if settings.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", settings.LogLevel)
	}
}

func TestLoadSettings_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nport ="), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadSettings(); err == nil {
		t.Fatal("Expected error for malformed config file")
	}
}

func TestLoadSettingsWithFlags_ExplicitConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := "server:\n  port: 8181\n  subdirectories:\n    - only\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	flags := newFlagSet()
	_ = flags.Set("config", path)

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if settings.Server.Port != 8181 {
		t.Errorf("Expected port 8181, got %d", settings.Server.Port)
	}
	if len(settings.Server.Subdirectories) != 1 || settings.Server.Subdirectories[0] != "only" {
		t.Errorf("Expected subdirectories [only], got %v", settings.Server.Subdirectories)
	}
}

func TestLoadSettingsWithFlags_MissingExplicitConfigFile(t *testing.T) {
	flags := newFlagSet()
	_ = flags.Set("config", filepath.Join(t.TempDir(), "absent.toml"))

	if _, err := LoadSettingsWithFlags(flags); err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestLoadSettingsWithFlags_CLIOverridesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MHI_SERVER_PORT", "9090")
	t.Setenv("MHI_SERVER_HOST", "10.0.0.1")

	flags := newFlagSet()
	_ = flags.Set("port", "7777")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Server.Port != 7777 {
		t.Errorf("Expected CLI port 7777, got %d", settings.Server.Port)
	}
	if settings.Server.Host != "10.0.0.1" {
		t.Errorf("Expected env host '10.0.0.1', got '%s'", settings.Server.Host)
	}
}

func TestLoadSettingsWithFlags_AllFlagTypes(t *testing.T) {
	t.Chdir(t.TempDir())
	flags := newFlagSet()

	_ = flags.Set("host", "localhost")
	_ = flags.Set("port", "3000")
	_ = flags.Set("data-directory", "/tmp/corpus")
	_ = flags.Set("subdirectories", "a,b,c")
	_ = flags.Set("log-level", "error")
	_ = flags.Set("admin-enabled", "true")
	_ = flags.Set("admin-max-results", "5")
	_ = flags.Set("auth-type", "apikey")
	_ = flags.Set("auth-api-keys", "k1,k2")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", settings.Server.Host)
	}
	if settings.Server.Port != 3000 {
		t.Errorf("Expected port 3000, got %d", settings.Server.Port)
	}
	if settings.Server.DataDirectory != "/tmp/corpus" {
		t.Errorf("Expected data directory '/tmp/corpus', got '%s'", settings.Server.DataDirectory)
	}
	if got := strings.Join(settings.Server.Subdirectories, ","); got != "a,b,c" {
		t.Errorf("Expected subdirectories a,b,c, got %s", got)
	}
	if settings.LogLevel != "error" {
		t.Errorf("Expected log level 'error', got '%s'", settings.LogLevel)
	}
	if !settings.Admin.Enabled || settings.Admin.MaxResults != 5 {
		t.Errorf("Unexpected admin settings: %+v", settings.Admin)
	}
	if settings.Auth.Type != AuthTypeAPIKey || len(settings.Auth.APIKeys) != 2 {
		t.Errorf("Unexpected auth settings: %+v", settings.Auth)
	}
}

func TestExpandHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/data", filepath.Join(home, "data")},
		{"./data", "./data"},
		{"/abs/~/data", "/abs/~/data"},
	}
	for _, tt := range tests {
		if got := expandHomeDir(tt.in); got != tt.want {
			t.Errorf("expandHomeDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// --- ValidateSettings Tests ---

func TestValidateSettings_Valid(t *testing.T) {
	if err := ValidateSettings(validSettings()); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestValidateSettings_Server(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"port zero", func(s *Settings) { s.Server.Port = 0 }, "port must be between"},
		{"port too large", func(s *Settings) { s.Server.Port = 70000 }, "port must be between"},
		{"empty data directory", func(s *Settings) { s.Server.DataDirectory = " " }, "data-directory"},
		{"no subdirectories", func(s *Settings) { s.Server.Subdirectories = nil }, "at least one corpus subdirectory"},
		{"blank subdirectory", func(s *Settings) { s.Server.Subdirectories = []string{"a", ""} }, "cannot be empty"},
		{"unknown log level", func(s *Settings) { s.LogLevel = "trace" }, "log-level"},
		{"admin without results", func(s *Settings) { s.Admin = AdminSettings{Enabled: true} }, "admin-max-results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSettings_AdminDisabledIgnoresMaxResults(t *testing.T) {
	s := validSettings()
	s.Admin = AdminSettings{Enabled: false, MaxResults: 0}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestValidateSettings_Auth(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthSettings
		wantErr string
	}{
		{"none", AuthSettings{Type: AuthTypeNone}, ""},
		{"empty type", AuthSettings{Type: ""}, ""},
		{"basic", AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "admin", Password: "secret"}}, ""},
		{"apikey", AuthSettings{Type: AuthTypeAPIKey, APIKeys: []string{"key1", "key2"}}, ""},
		{"none with username", AuthSettings{Type: AuthTypeNone, Basic: BasicAuthSettings{Username: "admin"}}, "incompatible"},
		{"none with api keys", AuthSettings{Type: AuthTypeNone, APIKeys: []string{"key1"}}, "incompatible"},
		{"basic missing password", AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "admin"}}, "username and password"},
		{"basic with api keys", AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "a", Password: "b"}, APIKeys: []string{"k"}}, "mutually exclusive"},
		{"apikey missing keys", AuthSettings{Type: AuthTypeAPIKey}, "requires at least one"},
		{"apikey with basic creds", AuthSettings{Type: AuthTypeAPIKey, APIKeys: []string{"k"}, Basic: BasicAuthSettings{Username: "a"}}, "mutually exclusive"},
		{"unknown type", AuthSettings{Type: "oauth"}, "unknown auth-type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.Auth = tt.auth
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}
