package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
	if cfg.Export.Format != FormatJSON {
		t.Errorf("expected json export, got %s", cfg.Export.Format)
	}
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dirscope.yaml")
	data := []byte("root: " + dir + "\nport: 9090\nworkers: 4\nexport:\n  format: yaml\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, FormatYAML, cfg.Export.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep defaults
	assert.True(t, cfg.Watch)
	assert.Equal(t, file, cfg.GetConfigFilePath())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("dirscope.yaml", []byte("port: 7000\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "dirscope.yaml", cfg.GetConfigFilePath())
	assert.True(t, filepath.IsAbs(cfg.Root))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"bad format", func(c *Config) { c.Export.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSetRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetRoot("./test_docs")

	absExpected, _ := filepath.Abs("./test_docs")
	assert.Equal(t, absExpected, cfg.Root)
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.SetConfigFilePath(tmpFile)
	cfg.Port = 9999
	cfg.Root = "/srv/data"

	err := cfg.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Manual load to verify
	cfg2 := &Config{}
	err = cfg2.loadFromFile(tmpFile)
	if err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg2.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg2.Port)
	}
	if cfg2.Root != "/srv/data" || cfg2.Export.Format != FormatJSON {
		t.Errorf("config loading failed: %+v", cfg2)
	}
}
