package runtime

import "github.com/pocketomega/vibe-runtime/internal/frame"

// openScope is one entry of ScopeLocalsStack: the local-variable snapshot
// taken at ScopeEnter plus enough of the scope's identity (kind, label, log
// index) that an early `return` can force-close it without having walked
// the instruction stack to find its ScopeExit.
type openScope struct {
	Names    []string
	Kind     frame.ScopeType
	Label    string
	EnterIdx int
}

// enterScope appends a ScopeEnter marker to the current frame and snapshots
// its local variable names, returning the marker's index for the matching
// scope_exit instruction.
func (s *RuntimeState) enterScope(kind frame.ScopeType, label string) int {
	idx := s.currentFrame().ScopeEnter(kind, label)
	names := make([]string, 0, len(s.currentFrame().Locals))
	for n := range s.currentFrame().Locals {
		names = append(names, n)
	}
	s.ScopeLocalsStack = append(s.ScopeLocalsStack, openScope{Names: names, Kind: kind, Label: label, EnterIdx: idx})
	return idx
}

// dropScopeLocals removes every variable declared since the matching
// enterScope call from the current frame's locals (their log entries are
// left untouched). Call this once, at the point the scope is known to be
// exiting — before deciding verbose/forget/compress handling.
func (s *RuntimeState) dropScopeLocals() {
	n := len(s.ScopeLocalsStack) - 1
	before := s.ScopeLocalsStack[n].Names
	s.ScopeLocalsStack = s.ScopeLocalsStack[:n]

	keep := make(map[string]bool, len(before))
	for _, name := range before {
		keep[name] = true
	}
	cur := s.currentFrame()
	for name := range cur.Locals {
		if !keep[name] {
			cur.Remove(name)
		}
	}
}

// closeScopesAbove force-closes (verbose retention) every scope opened since
// depth, deepest first, without consulting the instruction stack. Used when
// a `return` statement unwinds past still-open if/for/while/block scopes in
// the returning function — those scopes' ScopeExit instructions are still
// queued on the instruction stack but get discarded by the unwind, so their
// bracket must be closed here instead or the log would end mid-scope and
// locals declared inside would leak into the caller's view of the frame.
func (s *RuntimeState) closeScopesAbove(depth int) {
	for len(s.ScopeLocalsStack) > depth {
		top := s.ScopeLocalsStack[len(s.ScopeLocalsStack)-1]
		s.dropScopeLocals()
		s.currentFrame().ScopeExitVerbose(top.Kind, top.Label)
	}
}
