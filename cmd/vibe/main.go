// Command vibe runs a hard-coded demonstration program through the
// instruction-stepping interpreter end to end: model declaration, a single
// `do` AI invocation resolved against a real OpenAI-compatible endpoint, and
// a tool declaration available to the tool-calling loop. Wiring follows the
// teacher's cmd/omega/main.go (env loading, client construction, tool
// registry assembly) trimmed to what the driver actually needs — no skill
// manager, prompt loader, or web UI, none of which this interpreter has.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pocketomega/vibe-runtime/internal/adapter/mcptool"
	"github.com/pocketomega/vibe-runtime/internal/adapter/openai"
	"github.com/pocketomega/vibe-runtime/internal/adapter/toolsvc"
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/driver"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/tool"
	"github.com/pocketomega/vibe-runtime/internal/tool/builtin"
	"github.com/pocketomega/vibe-runtime/pkg/config"
)

func main() {
	config.LoadEnv()
	log.Printf("[vibe] reading .env from %s", config.EnvFilePath())

	client, err := openai.NewClientFromEnv()
	if err != nil {
		log.Fatalf("[vibe] LLM client: %v", err)
	}

	registry := tool.NewRegistry()
	registry.Register(builtin.NewTimeTool())
	if os.Getenv("TOOL_HTTP_ENABLED") == "true" {
		registry.Register(builtin.NewHTTPRequestTool(os.Getenv("TOOL_HTTP_ALLOW_INTERNAL") == "true"))
	}

	ctx := context.Background()
	var mcpClients []*mcptool.Client
	if mcpPath := os.Getenv("MCP_CONFIG_PATH"); mcpPath != "" {
		clients, err := loadMCPTools(ctx, registry, mcpPath)
		if err != nil {
			log.Printf("[vibe] mcp: %v (continuing without MCP tools)", err)
		}
		mcpClients = clients
	}
	if err := registry.InitAll(ctx); err != nil {
		log.Fatalf("[vibe] tool init: %v", err)
	}
	defer registry.CloseAll()
	defer func() {
		for _, c := range mcpClients {
			c.Close() //nolint:errcheck // best-effort shutdown
		}
	}()

	tools := toolsvc.New(registry)
	d := &driver.Driver{
		Provider:           client,
		Tools:              tools,
		ToolExecutor:       tools.ExecutorFor,
		Log:                log.Default(),
		RecordInteractions: true,
	}

	program := demoProgram()
	state := runtime.NewState(program, ".")

	result, err := d.Run(ctx, state)
	if err != nil {
		log.Fatalf("[vibe] run failed: %v", err)
	}
	fmt.Printf("result: %s\n", result.String())
}

// loadMCPTools registers every tool exposed by the MCP servers listed in an
// mcp.json-shaped config file, following the teacher's conditional
// registration idiom (cmd/omega/main.go: MCP support activates only when a
// config file is present). It returns the persistent-lifecycle clients it
// connected so the caller can close them on shutdown; per_call servers are
// connected only briefly by peekPerCallTools to list their tools, and no
// client of theirs is returned (each adapter call builds and closes its own).
func loadMCPTools(ctx context.Context, registry *tool.Registry, path string) ([]*mcptool.Client, error) {
	servers, err := mcptool.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading mcp config: %w", err)
	}
	var clients []*mcptool.Client
	for name, cfg := range servers {
		if cfg.Lifecycle == "per_call" {
			tools, err := peekPerCallTools(ctx, cfg)
			if err != nil {
				log.Printf("[vibe] mcp server %q: list tools failed: %v", name, err)
				continue
			}
			for _, t := range tools {
				registry.Register(mcptool.NewMCPToolAdapter(name, t, nil, cfg))
			}
			continue
		}

		client := mcptool.NewClient(cfg)
		if err := client.Connect(ctx); err != nil {
			log.Printf("[vibe] mcp server %q: connect failed: %v", name, err)
			continue
		}
		tools, err := client.ListTools(ctx)
		if err != nil {
			log.Printf("[vibe] mcp server %q: list tools failed: %v", name, err)
			client.Close() //nolint:errcheck // best-effort cleanup
			continue
		}
		for _, t := range tools {
			registry.Register(mcptool.NewMCPToolAdapter(name, t, client, cfg))
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// peekPerCallTools connects briefly to a per_call server just to discover its
// tool schemas at startup; the connection is closed immediately afterward
// since executePerCall reconnects fresh for every actual invocation.
func peekPerCallTools(ctx context.Context, cfg mcptool.ServerConfig) ([]mcptool.ToolInfo, error) {
	c := mcptool.NewClient(cfg)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	defer c.Close() //nolint:errcheck // best-effort cleanup
	return c.ListTools(ctx)
}

// demoProgram builds the AST for spec §8 scenario S1 directly, since no
// parser is wired up yet:
//
//	model m = { name: "gpt-4o-mini" }
//	tool get_weather(city: text): text "looks up current weather for a city"
//	let answer: text = do "what is 2 + 2?" m default
//	answer
func demoProgram() *ast.Program {
	modelConfig := &ast.ObjectLiteral{
		Keys: []string{"name"},
		Values: []ast.Expression{
			&ast.TextLiteral{Value: defaultModelName()},
		},
	}
	return &ast.Program{
		Statements: []ast.Statement{
			&ast.ModelDeclaration{Name: "m", Config: modelConfig},
			&ast.ToolDeclaration{
				Name:        "get_weather",
				Description: "looks up current weather for a city",
				Parameters: []ast.ToolParamDecl{
					{Name: "city", Type: "text", Required: true},
				},
			},
			&ast.LetDeclaration{
				Name:           "answer",
				TypeAnnotation: "text",
				Value: &ast.DoExpression{AIInvocation: ast.AIInvocation{
					Prompt: &ast.TextLiteral{Value: "what is 2 + 2?"},
					Model:  &ast.Identifier{Name: "m"},
					Mode:   "default",
				}},
			},
			&ast.ExpressionStatement{Expr: &ast.Identifier{Name: "answer"}},
		},
	}
}

func defaultModelName() string {
	if m := os.Getenv("LLM_MODEL"); m != "" {
		return m
	}
	return "gpt-4o-mini"
}
