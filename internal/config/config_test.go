package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.AliasPrefix != "@/" {
		t.Errorf("expected alias prefix @/, got %s", cfg.AliasPrefix)
	}
	if cfg.CDNBase != "https://esm.sh" {
		t.Errorf("expected esm.sh CDN base, got %s", cfg.CDNBase)
	}
	if cfg.ReactVersion == "" {
		t.Error("expected a pinned react version")
	}
	if len(cfg.EntryCandidates) == 0 {
		t.Error("expected entry candidates")
	}
	if cfg.EntryCandidates[0] != "/App.jsx" {
		t.Errorf("expected /App.jsx as first entry candidate, got %s", cfg.EntryCandidates[0])
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reacthub.yaml")
	yaml := "port: 9000\nreact_version: \"19.0.0\"\nalias_prefix: \"~/\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.loadFromFile(path); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.ReactVersion != "19.0.0" {
		t.Errorf("expected react 19.0.0, got %s", cfg.ReactVersion)
	}
	if cfg.AliasPrefix != "~/" {
		t.Errorf("expected alias prefix ~/, got %s", cfg.AliasPrefix)
	}
	// Untouched fields keep their defaults.
	if cfg.CDNBase != "https://esm.sh" {
		t.Errorf("expected default CDN base, got %s", cfg.CDNBase)
	}
}

func TestLoadWatchSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reacthub.yaml")
	if err := os.WriteFile(path, []byte("watch_seed: false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := load(fs, []string{"-config", path})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.WatchSeed {
		t.Error("watch_seed: false from the config file should survive when the flag is absent")
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err = load(fs, []string{"-config", path, "-watch-seed"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.WatchSeed {
		t.Error("an explicit -watch-seed flag should override the config file")
	}
}
