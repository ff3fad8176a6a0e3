package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEnvOverridesFile(t *testing.T) {
	for _, key := range []string{"PORT", "DEBUG_MODE", "LLM_API_KEY", "LLM_MODEL", "LLM_CLASSIFIER_MODEL", "EMBEDDING_API_KEY", "GIN_MODE"} {
		unsetEnv(t, key)
	}
	t.Setenv("CONFIG_FILE", writeFile(t, "config.toml", `
[app]
port = 9000

[llm]
api_key = "toml-key"
model = "toml-model"
`))
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "9100")
	t.Setenv("DEBUG_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", cfg.App.Port)
	}
	if cfg.LLM.Model != "toml-model" || cfg.LLM.ClassifierModel != "toml-model" {
		t.Fatalf("unexpected models %q %q", cfg.LLM.Model, cfg.LLM.ClassifierModel)
	}
	if cfg.Embedding.APIKey != "toml-key" {
		t.Fatalf("embedding key should default to the llm key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Mode() != "development" || cfg.App.GinMode != "debug" {
		t.Fatalf("unexpected mode %q gin %q", cfg.Mode(), cfg.App.GinMode)
	}
	if cfg.Session.TimeoutSeconds != 600 || cfg.Session.TopK != 4 {
		t.Fatalf("unexpected session defaults %+v", cfg.Session)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	unsetEnv(t, "LLM_API_KEY")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "none.toml"))
	t.Setenv("ENV_FILE", writeFile(t, ".env", "LLM_API_KEY=dotenv-key\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "dotenv-key" {
		t.Fatalf("expected key from .env, got %q", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		ok      bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "missing key", mutate: func(c *Config) { c.LLM.APIKey = " " }, wantErr: ErrMissingCredential},
		{name: "bad policy", mutate: func(c *Config) { c.Classifier.OnError = "maybe" }},
		{name: "bad embedding", mutate: func(c *Config) { c.Embedding.Type = "word2vec" }},
		{name: "deny policy", mutate: func(c *Config) { c.Classifier.OnError = "deny" }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.LLM.APIKey = "key"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
