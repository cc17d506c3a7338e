package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD",
		"AGE_GRAPH", "LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL_NAME",
		"OPENAI_TEMPERATURE", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_DEPLOYMENT_NAME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.DB.Host != "localhost" || s.DB.Port != 5432 {
		t.Errorf("unexpected DB defaults: %+v", s.DB)
	}
	if s.GraphName != "demo" {
		t.Errorf("GraphName = %q, want %q", s.GraphName, "demo")
	}
	if s.DefaultColumn != "result" {
		t.Errorf("DefaultColumn = %q, want %q", s.DefaultColumn, "result")
	}
	if s.SystemPrompt == "" {
		t.Error("expected a default system prompt")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "5433")
	t.Setenv("AGE_GRAPH", "people")
	t.Setenv("OPENAI_TEMPERATURE", "0.4")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want %q", s.DB.Host, "db.internal")
	}
	if s.DB.Port != 5433 {
		t.Errorf("DB.Port = %d, want 5433", s.DB.Port)
	}
	if s.GraphName != "people" {
		t.Errorf("GraphName = %q, want %q", s.GraphName, "people")
	}
	if s.LLM.Temperature != 0.4 {
		t.Errorf("Temperature = %v, want 0.4", s.LLM.Temperature)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PGUSER", "envuser")

	path := filepath.Join(t.TempDir(), "agerepl.yaml")
	content := `
db:
  host: yamlhost
  user: yamluser
graph: yamlgraph
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.DB.Host != "yamlhost" {
		t.Errorf("DB.Host = %q, want value from file", s.DB.Host)
	}
	if s.DB.User != "envuser" {
		t.Errorf("DB.User = %q, env must override file", s.DB.User)
	}
	if s.GraphName != "yamlgraph" {
		t.Errorf("GraphName = %q, want value from file", s.GraphName)
	}
	if s.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, defaults must survive partial files", s.DB.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestInitStatements(t *testing.T) {
	clearEnv(t)
	s := Default()
	s.GraphName = "g1"

	stmts := s.InitStatements()
	if len(stmts) != 4 {
		t.Fatalf("got %d init statements, want 4", len(stmts))
	}
	if stmts[3] != "SELECT create_graph('g1');" {
		t.Errorf("create_graph statement = %q", stmts[3])
	}
}

func TestDefaultSchema(t *testing.T) {
	s := Default()
	if got := s.DefaultSchema().Definition(); got != "(result agtype)" {
		t.Errorf("DefaultSchema().Definition() = %q, want %q", got, "(result agtype)")
	}
}
