package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Path to a config file (default: config.{toml,yaml,json} in the working directory)")
	flags.StringP("host", "H", "", "Host to listen on")
	flags.IntP("port", "p", 0, "Port to listen on")
	flags.StringP("data-directory", "d", "", "Root directory of the content corpus")
	flags.StringSliceP("subdirectories", "s", nil, "Corpus subdirectories in load order; later ones win (comma-separated)")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
	flags.Bool("admin-enabled", false, "Expose the MCP corpus inspection tools at /admin/sse")
	flags.Int("admin-max-results", 0, "Maximum number of entries returned by corpus search")
	flags.StringP("auth-type", "a", "", "Admin authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
}
