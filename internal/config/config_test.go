package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/agora/pkg/api"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("api_url", "https://forum.test/api")
	v.Set("data_dir", "/tmp/agora")

	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("base_url", "not a url")
	v.Set("api_url", "")
	v.Set("data_dir", "")
	v.Set("http.timeout", "soon")
	v.Set("log.level", "loud")
	v.Set("output", "xml")
	v.Set("upload.max_file_size", -1)
	v.Set("upload.max_files", -2)
	v.Set("upload.allowed_types", []string{"png"})

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"base_url must be an absolute http(s) url",
		"api_url is required",
		"data_dir is required",
		"http.timeout must be a positive duration",
		"log.level must be one of",
		"output must be plain, pretty or json",
		"upload.max_file_size must not be negative",
		"upload.max_files must not be negative",
		`upload.allowed_types entry "png"`,
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_url = \"https://file.test\"\n[log]\nlevel = \"debug\"\n"), 0o600))
	t.Setenv("AGORA_LOG_LEVEL", "warn")
	t.Setenv("AGORA_UPLOAD_ALLOWED_TYPES", "image/png, application/zip")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(context.Background(), v))

	assert.Equal(t, "https://file.test", v.GetString("base_url"))
	assert.Equal(t, "https://file.test/api", v.GetString("api_url"))
	assert.Equal(t, "warn", v.GetString("log.level"))
	assert.Equal(t, []string{"image/png", "application/zip"}, v.GetStringSlice("upload.allowed_types"))
	assert.Equal(t, "plain", v.GetString("output"))
	assert.Equal(t, 30*time.Second, HTTPTimeout(v))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, Load(context.Background(), v))
	assert.Equal(t, "https://localhost:8443/api", v.GetString("api_url"))
	assert.NotEmpty(t, v.GetString("data_dir"))
}

func TestRenderDefaultTOMLCoversEveryOption(t *testing.T) {
	out := RenderDefaultTOML()
	assert.True(t, strings.HasPrefix(out, "# Agora configuration (TOML)"))
	assert.Contains(t, out, "[upload]\n")
	assert.Contains(t, out, "max_files = 0\n")
	assert.Contains(t, out, "allowed_types = []\n")
	assert.Contains(t, out, `base_url = "https://localhost:8443"`)

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	for _, o := range GetConfigOptions() {
		assert.True(t, v.IsSet(o.Key), o.Key)
	}
}

func TestUpdateTOML(t *testing.T) {
	existing := "base_url = \"https://x.test\"\nnamespace = \"old\"\n[log]\nlevel = \"debug\"\n"
	out, changed := UpdateTOML(existing)
	require.True(t, changed)
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# namespace = \"old\"")
	assert.Contains(t, out, "base_url = \"https://x.test\"")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "[upload]")
	assert.Equal(t, 1, strings.Count(out, "base_url ="))

	again, changed := UpdateTOML(out)
	assert.False(t, changed)
	assert.Equal(t, out, again)
}

func TestApplyUploadOverrides(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	base := api.UploadPolicy{AllowedMIMETypes: []string{"image/png"}, MaxFileSize: 10, MaxFileCount: 2}
	assert.Equal(t, base, ApplyUploadOverrides(v, base))

	v.Set("upload.max_files", 9)
	v.Set("upload.allowed_types", []string{"text/plain"})
	got := ApplyUploadOverrides(v, base)
	assert.Equal(t, 9, got.MaxFileCount)
	assert.EqualValues(t, 10, got.MaxFileSize)
	assert.Equal(t, []string{"text/plain"}, got.AllowedMIMETypes)
}

func TestResolveDraftsPath(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/var/agora")
	assert.Equal(t, filepath.Join("/var/agora", "drafts.db"), ResolveDraftsPath(v))
}
