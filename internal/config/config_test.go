package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 9090
llm:
  provider: openai
  openai:
    api_key: file-key
    model: gpt-4o-mini
nlu:
  rasa_url: http://localhost:5005
  embed_url: https://api.openai.com
  embed_model: text-embedding-3-small
training:
  similarity_threshold: 0.9
paths:
  courses: data/courses.json
  keywords: data/keywords.txt
  records_db: data/records.db
directors:
  - director_wang
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drilltalk.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Training.ContextBudget != 300 {
		t.Errorf("context budget default = %d, want 300", cfg.Training.ContextBudget)
	}
	if cfg.Training.MaxAttempts != 7 {
		t.Errorf("max attempts default = %d, want 7", cfg.Training.MaxAttempts)
	}
	if cfg.Training.MinReplyChars != 5 {
		t.Errorf("min reply chars default = %d, want 5", cfg.Training.MinReplyChars)
	}
	if cfg.Training.SimilarityThreshold != 0.9 {
		t.Errorf("explicit threshold overridden: %v", cfg.Training.SimilarityThreshold)
	}
	if cfg.Training.RepeatWindow != 12 {
		t.Errorf("repeat window default = %d, want 12", cfg.Training.RepeatWindow)
	}
	if cfg.Training.FailThreshold != 3 {
		t.Errorf("fail threshold default = %d, want 3", cfg.Training.FailThreshold)
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env override", cfg.LLM.OpenAI.APIKey)
	}
}

func TestValidateRejectsMissingPaths(t *testing.T) {
	broken := strings.Replace(validYAML, "courses: data/courses.json", "courses: \"\"", 1)
	if _, err := Load(writeConfig(t, broken)); err == nil {
		t.Fatal("expected error for missing courses path")
	}
}

func TestValidateRejectsNoDirectors(t *testing.T) {
	broken := strings.Replace(validYAML, "directors:\n  - director_wang", "directors: []", 1)
	if _, err := Load(writeConfig(t, broken)); err == nil {
		t.Fatal("expected error for empty directors")
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	broken := strings.Replace(validYAML, "provider: openai", "provider: cohere", 1)
	if _, err := Load(writeConfig(t, broken)); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
