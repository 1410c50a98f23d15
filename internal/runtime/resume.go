package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// ResumeWithAI answers a suspended do/vibe invocation (spec §4.E
// resume_with_ai). interaction, when non-nil, is appended to
// AIInteractions — pass nil to discard logging for this call. toolCalls are
// the rounds an LLM tool loop ran before producing resultValue; they attach
// to the Prompt entry, never as separate ToolCall entries (spec §9).
func ResumeWithAI(s *RuntimeState, resultValue value.Value, interaction *AIInteraction, toolCalls []frame.PromptToolCall) error {
	if s.Status != StatusAwaitingAI || s.PendingAI == nil {
		return fmt.Errorf("ResumeWithAI called while not awaiting_ai")
	}
	pending := s.PendingAI
	checked, terr := value.Typecheck(resultValue, pending.DestAnnotation)
	if terr != nil {
		s.failf(ErrTypeMismatch, "", "%v", terr)
		return nil
	}
	s.currentFrame().AppendEntry(frame.FrameEntry{
		Kind: frame.EntryPrompt, AIKind: pending.AIKind, Prompt: pending.Prompt,
		Response: checked.DeepCopy(), HasResponse: true, PromptToolCalls: toolCalls,
	})
	if interaction != nil {
		s.AIInteractions = append(s.AIInteractions, *interaction)
	}
	s.LastResult = checked
	s.NextValueSource = frame.SourceAI
	s.PendingAI = nil
	s.Status = StatusRunning
	return nil
}

// ResumeWithUser answers a suspended ask invocation with the operator's
// plain-text reply.
func ResumeWithUser(s *RuntimeState, text string, interaction *AIInteraction) error {
	if s.Status != StatusAwaitingUser || s.PendingAI == nil {
		return fmt.Errorf("ResumeWithUser called while not awaiting_user")
	}
	pending := s.PendingAI
	checked, terr := value.Typecheck(value.Text(text), pending.DestAnnotation)
	if terr != nil {
		s.failf(ErrTypeMismatch, "", "%v", terr)
		return nil
	}
	s.currentFrame().AppendEntry(frame.FrameEntry{
		Kind: frame.EntryPrompt, AIKind: frame.AIAsk, Prompt: pending.Prompt,
		Response: checked.DeepCopy(), HasResponse: true,
	})
	if interaction != nil {
		s.AIInteractions = append(s.AIInteractions, *interaction)
	}
	s.LastResult = checked
	s.NextValueSource = frame.SourceUser
	s.PendingAI = nil
	s.Status = StatusRunning
	return nil
}

// ResumeWithTs answers a suspended ts{} escape block. raw is the
// JSON-encodable result the HostEvaluator produced.
func ResumeWithTs(s *RuntimeState, raw json.RawMessage) error {
	if s.Status != StatusAwaitingTs || s.PendingTs == nil {
		return fmt.Errorf("ResumeWithTs called while not awaiting_ts")
	}
	pending := s.PendingTs
	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			s.failf(ErrTypeMismatch, "", "ts block produced invalid JSON: %v", err)
			return nil
		}
	}
	v := decodedToValue(decoded)
	checked, terr := value.Typecheck(v, pending.DestAnnotation)
	if terr != nil {
		s.failf(ErrTypeMismatch, "", "%v", terr)
		return nil
	}
	s.LastResult = checked
	s.PendingTs = nil
	s.Status = StatusRunning
	return nil
}

// ResumeWithTool answers a suspended explicit call_tool invocation.
func ResumeWithTool(s *RuntimeState, result value.Value) error {
	if s.Status != StatusAwaitingTool || s.PendingTool == nil {
		return fmt.Errorf("ResumeWithTool called while not awaiting_tool")
	}
	pending := s.PendingTool
	checked, terr := value.Typecheck(result, pending.DestAnnotation)
	if terr != nil {
		s.failf(ErrTypeMismatch, "", "%v", terr)
		return nil
	}
	s.currentFrame().AppendEntry(frame.FrameEntry{
		Kind: frame.EntryToolCall, ToolName: pending.ToolName, ToolArgs: pending.Args,
		ToolResult: value.ToPlain(checked), HasToolResult: true,
	})
	s.LastResult = checked
	s.PendingTool = nil
	s.Status = StatusRunning
	return nil
}

// ResumeWithCompress answers a suspended scope_exit(compress) with the
// summarization model's text, rewriting the bracketed entries into a single
// Summary entry (spec §4.B invariant 5).
func ResumeWithCompress(s *RuntimeState, summaryText string) error {
	if s.Status != StatusAwaitingCompress || s.PendingCompress == nil || s.PendingCompressFrame == nil {
		return fmt.Errorf("ResumeWithCompress called while not awaiting_compress")
	}
	s.PendingCompressFrame.ResolveCompress(*s.PendingCompress, summaryText)
	s.PendingCompress = nil
	s.PendingCompressFrame = nil
	s.Status = StatusRunning
	return nil
}

func decodedToValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case string:
		return value.Text(t)
	case float64:
		return value.Number(t)
	case bool:
		return value.Boolean(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = decodedToValue(e)
		}
		return value.Array(items)
	case map[string]any:
		return value.JSON(t)
	default:
		return value.Null
	}
}
