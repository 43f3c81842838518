package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBackend, EnvModel, EnvPrompts} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "zero2story.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: openai
model: gpt-4o
max_attempts: 3
truncate: 2000
chapters: [Arrival, Trouble, Escape]
content_filter: false
images:
  enabled: true
`), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2000, cfg.Truncate)
	assert.Equal(t, []string{"Arrival", "Trouble", "Escape"}, cfg.Chapters)
	assert.False(t, cfg.ContentFilter)
	assert.True(t, cfg.Images.Enabled)

	// unset keys keep their defaults
	assert.Equal(t, 4, cfg.Window)
	assert.Equal(t, "outputs", cfg.Images.OutDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvBackend, "openai")
	t.Setenv(EnvModel, "gpt-4o-mini")
	t.Setenv(EnvPrompts, "custom.toml")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "custom.toml", cfg.PromptsPath)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := map[string]string{
		"bad yaml":      "backend: [",
		"zero attempts": "max_attempts: 0",
		"negative":      "window: -1",
		"blank chapter": "chapters: [One, ' ']",
		"no paragraphs": "paragraphs_per_chapter: 0",
		"images no dir": "images: {enabled: true, out_dir: ''}",
		"empty backend": "backend: ''",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := Load(path, true)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_UnsafePlaceholder(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "absent.yaml"), false)
	require.NoError(t, err)
	assert.Empty(t, cfg.Images.UnsafePlaceholder, "no placeholder file ships by default")

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("images: {unsafe_placeholder: nowhere/unsafe.png}"), 0o644))
	_, err = Load(missing, true)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	image := filepath.Join(dir, "unsafe.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o644))
	present := filepath.Join(dir, "present.yaml")
	require.NoError(t, os.WriteFile(present, []byte("images: {unsafe_placeholder: "+image+"}"), 0o644))
	cfg, err = Load(present, true)
	require.NoError(t, err)
	assert.Equal(t, image, cfg.Images.UnsafePlaceholder)
}

func TestMarshal_RoundTrip(t *testing.T) {
	clearEnv(t)

	data, err := Default().Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "zero2story.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
