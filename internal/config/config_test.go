package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lensagent.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
  "lens": {"api_url": "https://api.lens.dev", "profile_id": "0x01"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Lens.PrivateKeyEnv != "EVM_PRIVATE_KEY" {
		t.Fatalf("unexpected private key env: %s", cfg.Lens.PrivateKeyEnv)
	}
	if cfg.Lens.RequestTimeoutMS != 30000 {
		t.Fatalf("unexpected timeout: %d", cfg.Lens.RequestTimeoutMS)
	}
	if cfg.Cache.Driver != "memory" || cfg.Memory.Driver != "memory" || cfg.Events.Driver != "memory" {
		t.Fatalf("unexpected driver defaults: %s/%s/%s", cfg.Cache.Driver, cfg.Memory.Driver, cfg.Events.Driver)
	}
	if cfg.Persona.Path != filepath.Join(filepath.Dir(path), "persona.yaml") {
		t.Fatalf("unexpected persona path: %s", cfg.Persona.Path)
	}
}

func TestLoadResolvesRelativePersonaPath(t *testing.T) {
	path := writeConfig(t, `{
  "lens": {"api_url": "https://api.lens.dev", "profile_id": "0x01"},
  "persona": {"path": "characters/aria.yaml"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "characters", "aria.yaml")
	if cfg.Persona.Path != want {
		t.Fatalf("persona path %s, want %s", cfg.Persona.Path, want)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSettingPrefersConfigOverEnvironment(t *testing.T) {
	path := writeConfig(t, `{
  "lens": {"api_url": "https://api.lens.dev", "profile_id": "0x01"},
  "settings": {"LENS_POLL_INTERVAL": "45"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	t.Setenv("LENS_POLL_INTERVAL", "90")
	if value, ok := cfg.Setting("LENS_POLL_INTERVAL"); !ok || value != "45" {
		t.Fatalf("config value must win: %q ok=%v", value, ok)
	}

	t.Setenv("LENS_DRY_RUN", "true")
	if value, ok := cfg.Setting("LENS_DRY_RUN"); !ok || value != "true" {
		t.Fatalf("env fallback failed: %q ok=%v", value, ok)
	}

	if _, ok := cfg.Setting("UNSET_SETTING"); ok {
		t.Fatal("unset setting must report absence")
	}
}
