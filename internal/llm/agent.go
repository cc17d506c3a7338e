// Package llm drives an OpenAI-compatible chat model that can execute
// Cypher through a single send_cypher tool.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/config"
)

// maxToolRounds bounds the tool-call loop so a misbehaving model cannot
// spin forever against the database.
const maxToolRounds = 8

// SendCypher executes a Cypher query and returns the rendered result text
// handed back to the model as the tool output.
type SendCypher func(ctx context.Context, query string) string

// NewModel builds the chat model for the configured provider. It validates
// the provider configuration up front so the shell can fall back to
// cypher-only mode before the first prompt.
func NewModel(cfg config.LLMSettings) (llms.Model, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
		)
	case "azure":
		if cfg.AzureAPIKey == "" || cfg.AzureEndpoint == "" {
			return nil, errors.New("AZURE_OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT must be set")
		}
		return openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithToken(cfg.AzureAPIKey),
			openai.WithBaseURL(cfg.AzureEndpoint),
			openai.WithAPIVersion(cfg.AzureAPIVersion),
			openai.WithModel(cfg.AzureDeployment),
		)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Agent keeps chat history across turns and resolves tool calls against the
// execution engine.
type Agent struct {
	model       llms.Model
	prompt      string
	send        SendCypher
	temperature float64
	history     []llms.MessageContent
	log         *zap.SugaredLogger
}

func NewAgent(model llms.Model, systemPrompt string, temperature float64, send SendCypher, log *zap.SugaredLogger) *Agent {
	return &Agent{
		model:       model,
		prompt:      systemPrompt,
		send:        send,
		temperature: temperature,
		log:         log,
	}
}

var sendCypherTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        "send_cypher",
		Description: "Execute a Cypher query against the graph database and return the resulting rows.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Pure Cypher to execute. No SQL wrapper, no graph name, no trailing semicolon.",
				},
			},
			"required": []string{"query"},
		},
	},
}

type sendCypherArgs struct {
	Query string `json:"query"`
}

// Ask sends one user turn through the model, resolving tool calls until the
// model produces a final text answer, and records the turn in history.
func (a *Agent) Ask(ctx context.Context, input string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(a.history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, a.prompt))
	messages = append(messages, a.history...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))

	a.log.Debugw("llm in", "input", truncate(input, 1000))

	var final string
	for round := 0; ; round++ {
		if round > maxToolRounds {
			return "", errors.New("tool-call loop exceeded limit")
		}

		resp, err := a.model.GenerateContent(ctx, messages,
			llms.WithTools([]llms.Tool{sendCypherTool}),
			llms.WithTemperature(a.temperature),
		)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("model returned no choices")
		}

		choice := resp.Choices[0]
		a.log.Debugw("llm out", "content", truncate(choice.Content, 1000), "tool_calls", len(choice.ToolCalls))

		if len(choice.ToolCalls) == 0 {
			final = choice.Content
			break
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       toolName(tc),
					Content:    a.runTool(ctx, tc),
				}},
			})
		}
	}

	a.history = append(a.history,
		llms.TextParts(llms.ChatMessageTypeHuman, input),
		llms.TextParts(llms.ChatMessageTypeAI, final),
	)
	return final, nil
}

func (a *Agent) runTool(ctx context.Context, tc llms.ToolCall) string {
	if tc.FunctionCall == nil || tc.FunctionCall.Name != "send_cypher" {
		return fmt.Sprintf("unknown tool %q", toolName(tc))
	}

	var args sendCypherArgs
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
		return "invalid tool arguments: " + err.Error()
	}

	a.log.Debugw("tool in", "query", args.Query)
	result := a.send(ctx, args.Query)
	a.log.Debugw("tool out", "result", truncate(result, 1000))
	return result
}

func toolName(tc llms.ToolCall) string {
	if tc.FunctionCall == nil {
		return ""
	}
	return tc.FunctionCall.Name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
