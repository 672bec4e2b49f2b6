package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Matcher.ShortTextThreshold != 10 {
		t.Errorf("ShortTextThreshold = %d, want 10", cfg.Matcher.ShortTextThreshold)
	}
	if cfg.Matcher.MeaningWindow != 20 {
		t.Errorf("MeaningWindow = %d, want 20", cfg.Matcher.MeaningWindow)
	}
	if len(cfg.Classifier.CoreServices) != 3 {
		t.Errorf("CoreServices = %v, want 3 entries", cfg.Classifier.CoreServices)
	}
	if cfg.Classifier.DFUCategory != "DFU" {
		t.Errorf("DFUCategory = %q, want %q", cfg.Classifier.DFUCategory, "DFU")
	}
	if cfg.Mapping.ValidationMode {
		t.Error("validation mode should be off by default")
	}
	if cfg.Mapping.StringMode != "text" {
		t.Errorf("StringMode = %q, want %q", cfg.Mapping.StringMode, "text")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"no corpus", func(c *Config) { c.Paths.Corpus = nil }, "paths.corpus"},
		{"negative threshold", func(c *Config) { c.Matcher.ShortTextThreshold = -1 }, "matcher.shortTextThreshold"},
		{"zero meaning window", func(c *Config) { c.Matcher.MeaningWindow = 0 }, "matcher.meaningWindow"},
		{"negative blacklist extra", func(c *Config) { c.Matcher.BlacklistWindowExtra = -2 }, "matcher.blacklistWindowExtra"},
		{"zero workers", func(c *Config) { c.Mapping.Workers = 0 }, "mapping.workers"},
		{"zero cache", func(c *Config) { c.Mapping.SideFileCacheSize = 0 }, "mapping.sideFileCacheSize"},
		{"bad string mode", func(c *Config) { c.Mapping.StringMode = "fuzzy" }, "mapping.stringMode"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantErr {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Paths.KnownTable != DefaultConfig().Paths.KnownTable {
		t.Errorf("KnownTable = %q, want default", cfg.Paths.KnownTable)
	}
	if cfg.Mapping.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Mapping.Workers)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".blemap")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"version": 1, "matcher": {"shortTextThreshold": 4}, "mapping": {"validationMode": true}}`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Matcher.ShortTextThreshold != 4 {
		t.Errorf("ShortTextThreshold = %d, want 4", cfg.Matcher.ShortTextThreshold)
	}
	if !cfg.Mapping.ValidationMode {
		t.Error("ValidationMode should be true")
	}
	if cfg.Matcher.MeaningWindow != 20 {
		t.Errorf("MeaningWindow = %d, want default 20", cfg.Matcher.MeaningWindow)
	}
	if cfg.Classifier.DFUCategory != "DFU" {
		t.Errorf("DFUCategory = %q, want default", cfg.Classifier.DFUCategory)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLEMAP_MAPPING_WORKERS", "4")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Mapping.Workers != 4 {
		t.Errorf("Workers = %d, want 4 from environment", cfg.Mapping.Workers)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, ".blemap")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() should fail on malformed JSON")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blemap.yaml")
	content := "version: 1\nclassifier:\n  dfuCategory: Firmware\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Classifier.DFUCategory != "Firmware" {
		t.Errorf("DFUCategory = %q, want %q", cfg.Classifier.DFUCategory, "Firmware")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Mapping.Workers = 3

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Mapping.Workers != 3 {
		t.Errorf("Workers = %d, want 3", loaded.Mapping.Workers)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "mapping.workers", Message: "must be positive"}
	want := "config error in field 'mapping.workers': must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
