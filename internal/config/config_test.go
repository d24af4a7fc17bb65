package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Qdrant.Host != "localhost" || cfg.Qdrant.Port != 6334 {
		t.Errorf("unexpected qdrant defaults: %+v", cfg.Qdrant)
	}
	if cfg.Chunker.Size != 1000 || cfg.Chunker.OverlapChars() != 200 {
		t.Errorf("unexpected chunker defaults: %+v", cfg.Chunker)
	}
	if cfg.Pipeline.DraftTemperature != nil || cfg.Pipeline.RefineTemperature != nil {
		t.Errorf("unset temperatures should stay nil: %+v", cfg.Pipeline)
	}
	if !cfg.Pipeline.RefineWithQueryEnabled() {
		t.Error("refine_with_query should default to true")
	}
	if cfg.Server.Mode != "stdio" {
		t.Errorf("unexpected server mode: %q", cfg.Server.Mode)
	}
}

func TestLoad_FileWithPartialValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
qdrant:
  host: qdrant.internal
pipeline:
  model: gpt-4o
  refine_with_query: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Qdrant.Host != "qdrant.internal" {
		t.Errorf("file value not applied: %q", cfg.Qdrant.Host)
	}
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("default not filled in: %d", cfg.Qdrant.Port)
	}
	if cfg.Pipeline.Model != "gpt-4o" {
		t.Errorf("model not applied: %q", cfg.Pipeline.Model)
	}
	if cfg.Pipeline.RefineWithQueryEnabled() {
		t.Error("explicit refine_with_query: false should stick")
	}
}

func TestLoad_ExplicitZerosStick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chunker:
  overlap: 0
pipeline:
  draft_temperature: 0.0
  refine_temperature: 0.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunker.OverlapChars() != 0 {
		t.Errorf("explicit overlap: 0 should stick, got %d", cfg.Chunker.OverlapChars())
	}
	if cfg.Pipeline.DraftTemperature == nil || *cfg.Pipeline.DraftTemperature != 0 {
		t.Errorf("explicit draft_temperature: 0.0 should stick: %+v", cfg.Pipeline.DraftTemperature)
	}
	if cfg.Pipeline.RefineTemperature == nil || *cfg.Pipeline.RefineTemperature != 0 {
		t.Errorf("explicit refine_temperature: 0.0 should stick: %+v", cfg.Pipeline.RefineTemperature)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QDRANT_HOST", "env-host")
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("POSTGRES_DSN", "postgres://env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Qdrant.Host != "env-host" || cfg.Qdrant.Port != 7000 {
		t.Errorf("env override not applied: %+v", cfg.Qdrant)
	}
	if cfg.Postgres.DSN != "postgres://env" {
		t.Errorf("env override not applied: %q", cfg.Postgres.DSN)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("qdrant: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
