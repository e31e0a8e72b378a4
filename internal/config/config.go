package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mithrel/agora/pkg/api"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// SetConfigFile upstream wins; these paths are fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "agora"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "agora"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return err
		}
	}

	// AGORA_* env vars
	v.SetEnvPrefix("agora")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("api_url")) == "" {
		v.Set("api_url", strings.TrimRight(v.GetString("base_url"), "/")+"/api")
	}

	// Allow comma-separated env override for upload.allowed_types
	if s, ok := v.Get("upload.allowed_types").(string); ok {
		v.Set("upload.allowed_types", splitList(s))
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// defaultDataDir resolves $XDG_DATA_HOME/agora or ~/.local/share/agora.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "agora")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "agora")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "agora", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// Defaults, the generated config file and validation all read from this list.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "base_url", Default: "https://localhost:8443", Comment: "Forum origin; attachment and storage URLs are built from it"},
		{Key: "api_url", Default: "", Comment: "Forum API root; empty means base_url + /api"},
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; drafts live in data_dir/drafts.db"},
		{Key: "http_addr", Default: "127.0.0.1:8080", Comment: "Listen address for the preview service"},
		{Key: "output", Default: "plain", Comment: "Default output format: plain, pretty or json"},

		{Key: "auth.token", Default: "", Comment: "Bearer token sent to the forum and required by the preview service when set"},
		{Key: "auth.keyring", Default: true, Comment: "Look up the token in the system keyring (see auth login) when auth.token is empty"},
		{Key: "http.timeout", Default: "30s", Comment: "Timeout for forum requests and downloads"},
		{Key: "log.level", Default: "info", Comment: "Log level: error, warn, info or debug"},

		{Key: "upload.allowed_types", Default: []string{}, Comment: "Override allowed MIME types (empty uses the server policy)"},
		{Key: "upload.max_file_size", Default: 0, Comment: "Override max bytes per file (0 uses the server policy)"},
		{Key: "upload.max_files", Default: 0, Comment: "Override max files per question (0 uses the server policy)"},

		{Key: "markdown.unsafe", Default: false, Comment: "Skip HTML sanitization of rendered markdown"},
	}
}

// ResolveDraftsPath returns the sqlite file holding drafts.
func ResolveDraftsPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "drafts.db")
}

// ApplyUploadOverrides replaces the parts of p that are set in config.
func ApplyUploadOverrides(v *viper.Viper, p api.UploadPolicy) api.UploadPolicy {
	if types := v.GetStringSlice("upload.allowed_types"); len(types) > 0 {
		p.AllowedMIMETypes = append([]string(nil), types...)
	}
	if n := v.GetInt64("upload.max_file_size"); n > 0 {
		p.MaxFileSize = n
	}
	if n := v.GetInt("upload.max_files"); n > 0 {
		p.MaxFileCount = n
	}
	return p
}
