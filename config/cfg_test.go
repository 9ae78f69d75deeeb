package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if !slices.Contains(cfg.Compiler.AmbiguousWords, "flex") {
		t.Errorf("default ambiguous words should contain %q: %v", "flex", cfg.Compiler.AmbiguousWords)
	}
	if !slices.Contains(cfg.Compiler.RuntimePseudos, "hover") {
		t.Errorf("default runtime pseudo-classes should contain %q", "hover")
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("default console level = %q, want %q", cfg.Logging.ConsoleLogger.Level, "normal")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
compiler:
  ambiguous_words:
    - flex
    - card
logging:
  console:
    level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration(%q) error = %v", configPath, err)
	}
	if want := []string{"flex", "card"}; !slices.Equal(cfg.Compiler.AmbiguousWords, want) {
		t.Errorf("ambiguous words = %v, want %v", cfg.Compiler.AmbiguousWords, want)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q, want %q", cfg.Logging.ConsoleLogger.Level, "debug")
	}
	// values absent from the file keep their defaults
	if !slices.Contains(cfg.Compiler.RuntimePseudos, "hover") {
		t.Errorf("runtime pseudo-classes should keep defaults, got %v", cfg.Compiler.RuntimePseudos)
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\nno_such_section:\n  x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(configPath); err == nil {
		t.Fatal("expected error for unknown configuration field")
	}
}

func TestLoadConfiguration_BadLevel(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  console:\n    level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(configPath); err == nil {
		t.Fatal("expected validation error for bad console level")
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "ambiguous_words") {
		t.Errorf("prepared configuration misses compiler section")
	}

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(out), "version: 1") {
		t.Errorf("dumped configuration misses version, got:\n%s", out)
	}
}
