package utilities

import (
	"os"
	"path/filepath"
	"testing"
)

type sampleConfigJson struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type sampleConfig struct {
	Name  string
	Count int
}

func (scj sampleConfigJson) ConvertToDomain() sampleConfig {
	return sampleConfig{Name: scj.Name, Count: scj.Count}
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"name":"prover","count":3}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig[sampleConfigJson](path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "prover" || cfg.Count != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig[sampleConfigJson](filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadConfigMalformedJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"name":`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadConfig[sampleConfigJson](path); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
