package promptctx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// FormatOptions configures FormatContextForAI.
type FormatOptions struct {
	// IncludeInstructions prepends a short header explaining how to read
	// the rendered transcript. Off by default; the driver renders history
	// through FormatEntries, which never sets it.
	IncludeInstructions bool
}

// FormatResult is the output of FormatContextForAI: the rendered transcript
// plus the latest known value of every named variable across the
// projected entries (last write wins), for callers that want programmatic
// access alongside the text (spec §4.F "{ text, variables }").
type FormatResult struct {
	Text      string
	Variables map[string]value.Value
}

const instructionsHeader = "The following is the ordered execution history of this program. " +
	"`==>`/`<==` bracket a scope; `-->` is a model or user invocation; `[tool]`/`[result]`/`[error]` " +
	"are tool calls made during that invocation; `[summary]` replaces a scope whose history was compressed."

// FormatContextForAI renders entries into the fixed, normative transcript
// format described in spec §4.F. Every line shape below is asserted
// exactly by spec §8's end-to-end scenarios — do not reformat casually.
func FormatContextForAI(entries []ContextEntry, opts FormatOptions) FormatResult {
	var b strings.Builder
	if opts.IncludeInstructions {
		b.WriteString(instructionsHeader)
		b.WriteString("\n\n")
	}

	vars := make(map[string]value.Value)
	maxDepth := 0
	for _, ce := range entries {
		if ce.FrameDepth > maxDepth {
			maxDepth = ce.FrameDepth
		}
	}

	currentFrame := ""
	haveFrame := false
	for _, ce := range entries {
		if !haveFrame || ce.FrameName != currentFrame {
			currentFrame = ce.FrameName
			haveFrame = true
			b.WriteString(frameHeader(ce.FrameName, ce.FrameDepth, maxDepth))
			b.WriteString("\n")
		}
		writeEntry(&b, ce.FrameDepth, ce.Entry)
		if ce.Entry.Kind == frame.EntryVariable {
			vars[ce.Entry.VarName] = ce.Entry.VarValue
		}
	}

	return FormatResult{Text: b.String(), Variables: vars}
}

// FormatEntries renders a bare slice of frame entries with no frame header,
// for call sites that format a scope's entries in isolation — the
// compress-retention summarization prompt built from a PendingCompress
// bundle (spec §4.B), which has no call-stack context of its own.
func FormatEntries(entries []frame.FrameEntry) string {
	var b strings.Builder
	for _, e := range entries {
		writeEntry(&b, 0, e)
	}
	return b.String()
}

func frameHeader(name string, depth, maxDepth int) string {
	indent := strings.Repeat("  ", depth+1)
	switch {
	case depth == maxDepth:
		return fmt.Sprintf("%s%s (current scope)", indent, name)
	case depth == 0:
		return fmt.Sprintf("%s%s (entry)", indent, name)
	default:
		return fmt.Sprintf("%s%s (depth %d)", indent, name, depth)
	}
}

func writeEntry(b *strings.Builder, depth int, e frame.FrameEntry) {
	indent := strings.Repeat("  ", depth+2)
	switch e.Kind {
	case frame.EntryVariable:
		writeVariable(b, indent, e)
	case frame.EntryPrompt:
		writePrompt(b, indent, e)
	case frame.EntryScopeEnter:
		fmt.Fprintf(b, "%s%s\n", indent, scopeMarker("==>", e.ScopeKind, e.ScopeLabel))
	case frame.EntryScopeExit:
		fmt.Fprintf(b, "%s%s\n", indent, scopeMarker("<==", e.ScopeKind, e.ScopeLabel))
	case frame.EntrySummary:
		fmt.Fprintf(b, "%s[summary] %s\n", indent, e.SummaryText)
	case frame.EntryToolCall:
		writeToolCall(b, indent, e)
	}
}

func scopeMarker(arrow string, kind frame.ScopeType, label string) string {
	if label == "" {
		return fmt.Sprintf("%s %s", arrow, kind)
	}
	return fmt.Sprintf("%s %s %s", arrow, kind, label)
}

func variableTypeLabel(e frame.FrameEntry) string {
	if e.VarAnnotation.HasAnnotation() {
		return e.VarAnnotation.String()
	}
	return e.VarValue.Kind.String()
}

func writeVariable(b *strings.Builder, indent string, e frame.FrameEntry) {
	marker := "-"
	if e.VarSource == frame.SourceAI || e.VarSource == frame.SourceUser {
		marker = "<--"
	}
	fmt.Fprintf(b, "%s%s %s (%s): %s\n", indent, marker, e.VarName, variableTypeLabel(e), e.VarValue.String())
}

func writePrompt(b *strings.Builder, indent string, e frame.FrameEntry) {
	fmt.Fprintf(b, "%s--> %s: %q\n", indent, e.AIKind, e.Prompt)
	for _, tc := range e.PromptToolCalls {
		fmt.Fprintf(b, "%s[tool] %s(%s)\n", indent, tc.Name, argsJSON(tc.Args))
		if tc.Error != "" {
			fmt.Fprintf(b, "%s[error] %s\n", indent, tc.Error)
		} else {
			fmt.Fprintf(b, "%s[result] %s\n", indent, resultText(tc.Result))
		}
	}
}

func writeToolCall(b *strings.Builder, indent string, e frame.FrameEntry) {
	fmt.Fprintf(b, "%s[tool] %s(%s)\n", indent, e.ToolName, argsJSON(e.ToolArgs))
	if e.ToolError != "" {
		fmt.Fprintf(b, "%s[error] %s\n", indent, e.ToolError)
	} else {
		fmt.Fprintf(b, "%s[result] %s\n", indent, resultText(e.ToolResult))
	}
}

// argsJSON renders a tool-call argument map with stable key order, matching
// spec §8 S2's `add({"a":2,"b":3})` shape.
func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(args[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// resultText renders a tool result plainly: bare text for a string, JSON
// for everything else, matching spec §8 S2's `[result] 5` / `[result] 20`.
func resultText(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(b)
}
