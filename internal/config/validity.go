package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CheckConfigValidity reports every problem found in v at once.
func CheckConfigValidity(v *viper.Viper) error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	for _, key := range []string{"base_url", "api_url"} {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			add("%s is required", key)
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("%s must be an absolute http(s) url", key)
		}
	}
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if raw := v.GetString("http.timeout"); raw != "" {
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			add("http.timeout must be a positive duration")
		}
	}
	switch strings.ToLower(v.GetString("log.level")) {
	case "", "error", "warn", "warning", "info", "debug":
	default:
		add("log.level must be one of error, warn, info, debug")
	}
	switch v.GetString("output") {
	case "", "plain", "pretty", "json":
	default:
		add("output must be plain, pretty or json")
	}
	if v.GetInt64("upload.max_file_size") < 0 {
		add("upload.max_file_size must not be negative")
	}
	if v.GetInt("upload.max_files") < 0 {
		add("upload.max_files must not be negative")
	}
	for _, t := range v.GetStringSlice("upload.allowed_types") {
		if !strings.Contains(t, "/") {
			add("upload.allowed_types entry %q is not a MIME type", t)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
}

// HTTPTimeout parses http.timeout, falling back to 30s.
func HTTPTimeout(v *viper.Viper) time.Duration {
	d, err := time.ParseDuration(v.GetString("http.timeout"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
