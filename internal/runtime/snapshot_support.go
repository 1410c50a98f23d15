package runtime

import "github.com/pocketomega/vibe-runtime/internal/frame"

// ScopeSnapshot is the serializable form of one internal/runtime scope
// bookkeeping entry, exposed so internal/snapshot can persist and restore
// ScopeLocalsStack without needing to name the unexported openScope type
// (spec §4.I: the document must be self-contained, including in-flight
// scope state for a paused for/while/if body).
type ScopeSnapshot struct {
	Names    []string
	Kind     frame.ScopeType
	Label    string
	EnterIdx int
}

// ScopeStackSnapshot returns a serializable copy of s.ScopeLocalsStack.
func (s *RuntimeState) ScopeStackSnapshot() []ScopeSnapshot {
	if s.ScopeLocalsStack == nil {
		return nil
	}
	out := make([]ScopeSnapshot, len(s.ScopeLocalsStack))
	for i, sc := range s.ScopeLocalsStack {
		out[i] = ScopeSnapshot{Names: sc.Names, Kind: sc.Kind, Label: sc.Label, EnterIdx: sc.EnterIdx}
	}
	return out
}

// RestoreScopeStack replaces s.ScopeLocalsStack from a snapshot produced by
// ScopeStackSnapshot.
func (s *RuntimeState) RestoreScopeStack(items []ScopeSnapshot) {
	if items == nil {
		s.ScopeLocalsStack = nil
		return
	}
	out := make([]openScope, len(items))
	for i, it := range items {
		out[i] = openScope{Names: it.Names, Kind: it.Kind, Label: it.Label, EnterIdx: it.EnterIdx}
	}
	s.ScopeLocalsStack = out
}

// PendingCompressFrameIndex returns PendingCompressFrame's position within
// CallStack, or -1 if it is unset. A serialized document records positions,
// not addresses, so a restored state's frame pointers match the rebuilt
// CallStack rather than the original process's.
func (s *RuntimeState) PendingCompressFrameIndex() int {
	if s.PendingCompressFrame == nil {
		return -1
	}
	for i, f := range s.CallStack {
		if f == s.PendingCompressFrame {
			return i
		}
	}
	return -1
}

// SetPendingCompressFrame points PendingCompressFrame at CallStack[idx], or
// clears it when idx is out of range.
func (s *RuntimeState) SetPendingCompressFrame(idx int) {
	if idx < 0 || idx >= len(s.CallStack) {
		s.PendingCompressFrame = nil
		return
	}
	s.PendingCompressFrame = s.CallStack[idx]
}
