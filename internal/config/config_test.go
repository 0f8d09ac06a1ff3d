package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerAddr != ":10000" {
		t.Errorf("ServerAddr = %q, want :10000", cfg.ServerAddr)
	}
	if cfg.OutputDir != "outputs" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.ScanTimeBudget != 8*time.Second || cfg.ScanMaxMatches != 50 || cfg.ScanChunkSize != 5000 {
		t.Errorf("scan budget = %v / %d / %d", cfg.ScanTimeBudget, cfg.ScanMaxMatches, cfg.ScanChunkSize)
	}
	if cfg.HasDatabase() || cfg.HasRedis() {
		t.Error("database and redis should be disabled by default")
	}
	if cfg.IsCachedDataset() {
		t.Error("default dataset mode should stream")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SCAN_TIME_BUDGET", "3")
	t.Setenv("SCAN_MAX_ROWS", "100000")
	t.Setenv("OUTPUT_TTL", "2h")
	t.Setenv("DATASET_MODE", "CACHED")
	t.Setenv("LLM_RATE_PER_SEC", "0.5")
	t.Setenv("DATABASE_URL", "postgres://localhost/studyplan")

	cfg := Load()
	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %q, want :8080", cfg.ServerAddr)
	}
	if cfg.ScanTimeBudget != 3*time.Second {
		t.Errorf("ScanTimeBudget = %v, want 3s", cfg.ScanTimeBudget)
	}
	if cfg.ScanMaxRows != 100000 {
		t.Errorf("ScanMaxRows = %d", cfg.ScanMaxRows)
	}
	if cfg.OutputTTL != 2*time.Hour {
		t.Errorf("OutputTTL = %v", cfg.OutputTTL)
	}
	if !cfg.IsCachedDataset() {
		t.Error("IsCachedDataset() = false")
	}
	if cfg.LLMRatePerSec != 0.5 {
		t.Errorf("LLMRatePerSec = %v", cfg.LLMRatePerSec)
	}
	if !cfg.HasDatabase() {
		t.Error("HasDatabase() = false")
	}
}

func TestLoad_ServerAddrWinsOverPort(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SERVER_ADDR", "127.0.0.1:9000")

	if got := Load().ServerAddr; got != "127.0.0.1:9000" {
		t.Errorf("ServerAddr = %q", got)
	}
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	if got := getEnvDuration("X_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() = %v, want fallback", got)
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (&Config{Env: tt.env}).IsDev(); got != tt.want {
			t.Errorf("IsDev(%q) = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
topics:
  trigonometri: ["G.SRT.C.6", " "]
  boş: []
dataset:
  skill_column: skill_name
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadYAMLConfig()
	if err != nil {
		t.Fatalf("LoadYAMLConfig() error = %v", err)
	}

	want := map[string][]string{"trigonometri": {"G.SRT.C.6"}}
	if got := cfg.TopicMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("TopicMap() = %v, want %v", got, want)
	}
	if cfg.Dataset.SkillColumn != "skill_name" || cfg.Dataset.ProblemColumn != "problem_id" {
		t.Errorf("Dataset = %+v", cfg.Dataset)
	}
}

func TestLoadYAMLConfig_Missing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := LoadYAMLConfig()
	if err != nil || cfg != nil {
		t.Errorf("LoadYAMLConfig() = %v, %v; want nil, nil", cfg, err)
	}
	if cfg.TopicMap() != nil {
		t.Error("nil config should have nil topic map")
	}
}
