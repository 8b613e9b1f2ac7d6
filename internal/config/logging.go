package config

import (
	"context"
	"log/slog"
	"strings"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: server.host", "value", s.Server.Host)
	logger.InfoContext(ctx, "Config: server.port", "value", s.Server.Port)
	logger.InfoContext(ctx, "Config: server.data_directory", "value", s.Server.DataDirectory)
	logger.InfoContext(ctx, "Config: server.subdirectories", "value", strings.Join(s.Server.Subdirectories, ","))
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)

	logger.InfoContext(ctx, "Config: admin.enabled", "value", s.Admin.Enabled)
	if !s.Admin.Enabled {
		return
	}
	logger.InfoContext(ctx, "Config: admin.max_results", "value", s.Admin.MaxResults)

	logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.Any("basic", BasicAuthSettingsLogValue(s.Basic)),
		slog.Any("api_keys", keys),
	)
}

// BasicAuthSettingsLogValue returns a slog.Value for BasicAuthSettings with masked data
func BasicAuthSettingsLogValue(s BasicAuthSettings) slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", "****"),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("host", s.Server.Host),
		slog.Int("port", s.Server.Port),
		slog.String("data_directory", s.Server.DataDirectory),
		slog.Any("subdirectories", s.Server.Subdirectories),
		slog.String("log_level", s.LogLevel),
		slog.Bool("admin_enabled", s.Admin.Enabled),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
	)
}
