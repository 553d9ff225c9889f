package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseBackends(t *testing.T) {
	got := ParseBackends(" a:1, b:2,,a:1 ,c:3 ")
	want := []string{"a:1", "b:2", "c:3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("at %d, got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidateConfig(t *testing.T) {
	config := DefaultConfig()
	if err := ValidateConfig(config); err == nil {
		t.Errorf("expected error without backends")
	}

	config.Backends = []string{"localhost:9001"}
	if err := ValidateConfig(config); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	config.Backends = []string{"no-port"}
	if err := ValidateConfig(config); err == nil {
		t.Errorf("expected error for address without port")
	}

	config.Backends = []string{"localhost:9001"}
	config.LeafThreshold = 0
	if err := ValidateConfig(config); err == nil {
		t.Errorf("expected error for zero leaf threshold")
	}
}

func TestSaveLoadConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configFile := filepath.Join(tmpDir, "distmul.json")

	config := DefaultConfig()
	config.Backends = []string{"10.0.0.1:9001", "10.0.0.2:9001"}
	config.LeafThreshold = 32

	if err := SaveConfig(configFile, config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(loaded.Backends) != 2 || loaded.Backends[1] != "10.0.0.2:9001" {
		t.Errorf("Backends = %v", loaded.Backends)
	}
	if loaded.LeafThreshold != 32 {
		t.Errorf("LeafThreshold = %d, want 32", loaded.LeafThreshold)
	}
	if loaded.MultiCoreLeafThreshold != DefaultMultiCoreLeafThreshold {
		t.Errorf("MultiCoreLeafThreshold = %d, want %d", loaded.MultiCoreLeafThreshold, DefaultMultiCoreLeafThreshold)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	file := filepath.Join(tmpDir, "partial.json")
	if err := os.WriteFile(file, []byte(`{"backends":["h:1"]}`), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	loaded, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.LeafThreshold != DefaultLeafThreshold {
		t.Errorf("LeafThreshold = %d, want %d", loaded.LeafThreshold, DefaultLeafThreshold)
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/distmul.json"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	badFile := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(badFile, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadConfig(badFile); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
