// Package promptctx implements the pure projection from a RuntimeState's
// per-frame entry logs into the prompt context an LLM or a human reader
// sees (spec §4.F). Nothing here mutates RuntimeState; both BuildLocalContext
// and BuildGlobalContext are read-only views over the call stack's
// append-only logs.
package promptctx

import (
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// ContextEntry is one projected FrameEntry, annotated with the frame it
// came from. Order is preserved from the underlying log; duplicate
// variable names with different snapshots are intentional (spec §4.F:
// "the log is history, not a symbol table").
type ContextEntry struct {
	FrameName  string
	FrameDepth int
	Entry      frame.FrameEntry
}

// keep reports whether e should survive projection. Variable entries typed
// `model` or `prompt` are configuration/instruction, not data, and are
// filtered out (spec §4.F).
func keep(e frame.FrameEntry) bool {
	if e.Kind != frame.EntryVariable {
		return true
	}
	if e.VarAnnotation.IsPrompt() {
		return false
	}
	return e.VarValue.Kind != value.KindModel
}

// BuildLocalContext projects only the current (top-of-stack) frame's
// entries (spec §4.F).
func BuildLocalContext(s *runtime.RuntimeState) []ContextEntry {
	depth := len(s.CallStack) - 1
	fr := s.CallStack[depth]
	return projectFrame(fr, depth)
}

// BuildGlobalContext projects every frame's entries, in stack order
// (entry frame first, current frame last) — spec §8 property 6:
// BuildLocalContext is a sub-multiset of BuildGlobalContext when filtered
// to the current frame.
func BuildGlobalContext(s *runtime.RuntimeState) []ContextEntry {
	var out []ContextEntry
	for depth, fr := range s.CallStack {
		out = append(out, projectFrame(fr, depth)...)
	}
	return out
}

func projectFrame(fr *frame.Frame, depth int) []ContextEntry {
	out := make([]ContextEntry, 0, len(fr.OrderedEntries))
	for _, e := range fr.OrderedEntries {
		if !keep(e) {
			continue
		}
		out = append(out, ContextEntry{FrameName: fr.Name, FrameDepth: depth, Entry: e})
	}
	return out
}
