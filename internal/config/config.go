package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/agequery/agerepl/internal/cypher"
)

// DefaultSystemPrompt instructs the LLM agent to emit pure Cypher through
// the send_cypher tool.
const DefaultSystemPrompt = `You are a Cypher agent for an AGE/PostgreSQL graph database. You have one tool: send_cypher(query).

When to call the tool:
- The user asks to show/run/find/create/update/delete data, or to count/filter/analyze data stored in the graph.

When NOT to call the tool:
- The user wants concepts, syntax help, or examples without execution — then answer in text only.

Rules for tool usage:
- Emit PURE CYPHER ONLY (no SQL wrapper, no graph name, no semicolons).
  Example: MATCH (n) RETURN n AS node
- Prefer clear aliases in RETURN when multiple items are returned.

Examples:
User: Show the first 5 nodes.
Assistant: (call send_cypher with "MATCH (n) RETURN n AS node LIMIT 5")

User: How do I count Person nodes?
Assistant: Explain: "MATCH (p:Person) RETURN count(p) AS count" (no tool call).`

// DBSettings configures the PostgreSQL connection.
type DBSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"dbname"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// LLMSettings configures the chat model provider.
type LLMSettings struct {
	Provider        string  `yaml:"provider"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	OpenAIModel     string  `yaml:"openai_model"`
	Temperature     float64 `yaml:"temperature"`
	AzureAPIKey     string  `yaml:"azure_api_key"`
	AzureEndpoint   string  `yaml:"azure_endpoint"`
	AzureAPIVersion string  `yaml:"azure_api_version"`
	AzureDeployment string  `yaml:"azure_deployment"`
}

// Settings holds everything the REPL and the engine need. Runtime toggles
// (\log, \llm) are not settings; they live on the shell session.
type Settings struct {
	DB            DBSettings  `yaml:"db"`
	GraphName     string      `yaml:"graph"`
	DefaultColumn string      `yaml:"default_column"`
	HistoryFile   string      `yaml:"history_file"`
	SystemPrompt  string      `yaml:"system_prompt"`
	LLM           LLMSettings `yaml:"llm"`
}

// Default returns the built-in settings, matching a local AGE install.
func Default() Settings {
	historyFile := ".agerepl_history"
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".agerepl_history")
	}

	return Settings{
		DB: DBSettings{
			Host: "localhost",
			Port: 5432,
			Name: "postgres",
			User: "postgres",
		},
		GraphName:     "demo",
		DefaultColumn: "result",
		HistoryFile:   historyFile,
		SystemPrompt:  DefaultSystemPrompt,
		LLM: LLMSettings{
			Provider:        "openai",
			OpenAIModel:     "gpt-4.1",
			Temperature:     0,
			AzureAPIVersion: "2024-12-01-preview",
			AzureDeployment: "gpt-4o",
		},
	}
}

// Load builds settings from defaults, an optional YAML file, then
// environment overrides, in that order.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&s)
	return s, nil
}

func applyEnv(s *Settings) {
	setString(&s.DB.Host, "PGHOST")
	setInt(&s.DB.Port, "PGPORT")
	setString(&s.DB.Name, "PGDATABASE")
	setString(&s.DB.User, "PGUSER")
	setString(&s.DB.Password, "PGPASSWORD")
	setString(&s.GraphName, "AGE_GRAPH")

	setString(&s.LLM.Provider, "LLM_PROVIDER")
	setString(&s.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&s.LLM.OpenAIModel, "OPENAI_MODEL_NAME")
	setFloat(&s.LLM.Temperature, "OPENAI_TEMPERATURE")
	setString(&s.LLM.AzureAPIKey, "AZURE_OPENAI_API_KEY")
	setString(&s.LLM.AzureEndpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&s.LLM.AzureAPIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&s.LLM.AzureDeployment, "AZURE_OPENAI_DEPLOYMENT_NAME")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// DefaultSchema returns the single-column fallback schema declared to the
// bridge when no schema can be inferred.
func (s Settings) DefaultSchema() cypher.ColumnSpec {
	return cypher.DefaultSchema(s.DefaultColumn)
}

// InitStatements returns the AGE bootstrap sequence run once after connect.
func (s Settings) InitStatements() []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS age;",
		"LOAD 'age';",
		`SET search_path = ag_catalog, "$user", public;`,
		fmt.Sprintf("SELECT create_graph('%s');", s.GraphName),
	}
}
