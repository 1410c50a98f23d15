package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	openailib "github.com/sashabaranov/go-openai"

	"github.com/pocketomega/vibe-runtime/internal/provider"
)

// Client implements provider.AIProvider using the OpenAI-compatible chat
// completions protocol — works against any endpoint exposing that API,
// same as the teacher's internal/llm/openai.Client.
type Client struct {
	client *openailib.Client
	config *Config
}

// NewClient builds a Client from an explicit Config.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	clientConfig := openailib.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(config.HTTPTimeout) * time.Second}
	return &Client{client: openailib.NewClientWithConfig(clientConfig), config: config}, nil
}

// NewClientFromEnv builds a Client from LLM_* environment variables.
func NewClientFromEnv() (*Client, error) {
	cfg, err := NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return NewClient(cfg)
}

// Execute performs a single do/vibe model invocation (spec §6 AIProvider).
// A program's `model m = {...}` binding overrides the client's env-loaded
// defaults per call; `default` leaves req.Model/APIKey/URL empty and this
// falls back to c.config.
func (c *Client) Execute(ctx context.Context, req provider.Request) (provider.Response, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	apiKey := req.APIKey
	baseURL := req.URL

	client := c.client
	if (apiKey != "" && apiKey != c.config.APIKey) || (baseURL != "" && baseURL != c.config.BaseURL) {
		if apiKey == "" {
			apiKey = c.config.APIKey
		}
		overrideCfg := openailib.DefaultConfig(apiKey)
		if baseURL != "" {
			overrideCfg.BaseURL = baseURL
		} else {
			overrideCfg.BaseURL = c.config.BaseURL
		}
		client = openailib.NewClientWithConfig(overrideCfg)
	}

	msgs := make([]openailib.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		cm := openailib.ChatCompletionMessage{Role: m.Role, Content: m.Content}
		if m.Role == "tool" {
			cm.ToolCallID = m.ToolCallID
		}
		if len(m.ToolCalls) > 0 {
			tcs := make([]openailib.ToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				tcs[j] = openailib.ToolCall{
					ID: tc.ID, Type: openailib.ToolTypeFunction,
					Function: openailib.FunctionCall{Name: tc.Name, Arguments: toJSONArgs(tc.Args)},
				}
			}
			cm.ToolCalls = tcs
		}
		msgs[i] = cm
	}
	if len(msgs) == 0 {
		msgs = []openailib.ChatCompletionMessage{{Role: "user", Content: req.Prompt}}
	}

	ccReq := openailib.ChatCompletionRequest{Model: model, Messages: msgs}
	if c.config.Temperature != nil {
		ccReq.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		ccReq.MaxTokens = c.config.MaxTokens
	}
	if len(req.Tools) > 0 {
		ccReq.Tools = toOpenAITools(req.Tools)
	}

	var resp openailib.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, lastErr = client.CreateChatCompletion(ctx, ccReq)
		if lastErr == nil {
			break
		}
		if attempt < c.config.MaxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[vibe] Retry %d/%d after %v, error: %v", attempt+1, c.config.MaxRetries, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return provider.Response{}, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return provider.Response{}, fmt.Errorf("LLM call failed after %d retries: %w", c.config.MaxRetries, lastErr)
	}
	if len(resp.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("no choices returned from LLM")
	}

	choice := resp.Choices[0].Message
	out := provider.Response{IsText: true, Text: choice.Content}
	if len(choice.ToolCalls) > 0 {
		out.ToolCalls = make([]provider.ToolCallRequest, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			out.ToolCalls[i] = provider.ToolCallRequest{ID: tc.ID, Name: tc.Function.Name, Args: fromJSONArgs(tc.Function.Arguments)}
		}
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &provider.Usage{
			PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens: resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// AskUser solicits plain-text input from the human operator over stdin,
// used at `ask` suspension points (spec §6 "askUser(prompt) → string").
func (c *Client) AskUser(ctx context.Context, prompt string) (string, error) {
	fmt.Printf("%s\n> ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading user input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// toJSONArgs renders a tool call's argument map as the JSON string the
// OpenAI wire format expects in FunctionCall.Arguments.
func toJSONArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// fromJSONArgs parses a tool call's Arguments JSON string back into a map,
// used when the model itself requests a tool.
func fromJSONArgs(raw string) map[string]any {
	var out map[string]any
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func toOpenAITools(defs []provider.ToolDefinition) []openailib.Tool {
	out := make([]openailib.Tool, len(defs))
	for i, d := range defs {
		props := make(map[string]any, len(d.Parameters))
		required := make([]string, 0, len(d.Parameters))
		for _, p := range d.Parameters {
			props[p.Name] = map[string]any{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out[i] = openailib.Tool{
			Type: openailib.ToolTypeFunction,
			Function: &openailib.FunctionDefinition{
				Name: d.Name, Description: d.Description,
				Parameters: map[string]any{"type": "object", "properties": props, "required": required},
			},
		}
	}
	return out
}
