package frame

// RetentionMode is the policy applied to a scope's entries at ScopeExit
// (spec §4.B, GLOSSARY "Retention mode").
type RetentionMode string

const (
	RetentionVerbose  RetentionMode = "verbose"
	RetentionForget   RetentionMode = "forget"
	RetentionCompress RetentionMode = "compress"
)

// ScopeEnter appends a ScopeEnter marker entry and returns its index within
// OrderedEntries, so the matching ScopeExit can locate the bracketed slice.
func (f *Frame) ScopeEnter(kind ScopeType, label string) int {
	f.AppendEntry(FrameEntry{Kind: EntryScopeEnter, ScopeKind: kind, ScopeLabel: label})
	return len(f.OrderedEntries) - 1
}

// PendingCompress describes the summarization request a `compress`
// scope_exit produces; the driver resolves it via the AIProvider and
// resumes with ResolveCompress.
type PendingCompress struct {
	EnterIndex int
	ScopeKind  ScopeType
	ScopeLabel string
	Prompt     string
	Model      string
	Entries    []FrameEntry // the entries between ScopeEnter and now, inclusive of ScopeEnter
}

// ScopeExitVerbose appends a matching ScopeExit entry with no rewrite.
func (f *Frame) ScopeExitVerbose(kind ScopeType, label string) {
	f.AppendEntry(FrameEntry{Kind: EntryScopeExit, ScopeKind: kind, ScopeLabel: label})
}

// ScopeExitForget removes the ScopeEnter at enterIndex and every entry
// appended since (inclusive), per spec §4.B.
func (f *Frame) ScopeExitForget(enterIndex int) {
	if enterIndex < 0 || enterIndex > len(f.OrderedEntries) {
		return
	}
	f.OrderedEntries = f.OrderedEntries[:enterIndex]
}

// PrepareCompress builds the PendingCompress describing the slice to
// summarize, without mutating OrderedEntries yet — the actual rewrite
// happens on ResolveCompress once the driver has the summary text.
func (f *Frame) PrepareCompress(enterIndex int, kind ScopeType, label, prompt, model string) PendingCompress {
	entries := make([]FrameEntry, len(f.OrderedEntries)-enterIndex)
	copy(entries, f.OrderedEntries[enterIndex:])
	return PendingCompress{
		EnterIndex: enterIndex,
		ScopeKind:  kind,
		ScopeLabel: label,
		Prompt:     prompt,
		Model:      model,
		Entries:    entries,
	}
}

// ResolveCompress replaces the slice from EnterIndex to the current end
// with a single Summary entry carrying summaryText (spec §4.B).
func (f *Frame) ResolveCompress(pending PendingCompress, summaryText string) {
	if pending.EnterIndex < 0 || pending.EnterIndex > len(f.OrderedEntries) {
		return
	}
	f.OrderedEntries = append(f.OrderedEntries[:pending.EnterIndex], FrameEntry{
		Kind:        EntrySummary,
		SummaryText: summaryText,
	})
}
