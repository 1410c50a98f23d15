package runtime

import (
	"strings"

	"github.com/pocketomega/vibe-runtime/internal/value"
)

// interpolateSimple expands `{name}` placeholders in raw against the
// current lexical scope. Per spec §4.D, a name that does not resolve is
// left as the literal `{name}` text rather than raising an error — this is
// a plain-text convenience distinct from TemplateLiteral's `${expr}` form.
func (s *RuntimeState) interpolateSimple(raw string) string {
	var b strings.Builder
	i := 0
	for i < len(raw) {
		open := strings.IndexByte(raw[i:], '{')
		if open < 0 {
			b.WriteString(raw[i:])
			break
		}
		open += i
		b.WriteString(raw[i:open])
		close := strings.IndexByte(raw[open:], '}')
		if close < 0 {
			b.WriteString(raw[open:])
			break
		}
		close += open
		name := raw[open+1 : close]
		if name == "" || strings.ContainsAny(name, " \t\n{") {
			b.WriteString(raw[open : close+1])
			i = close + 1
			continue
		}
		if v, _, ok := s.resolve(name); ok {
			b.WriteString(v.Value.String())
		} else {
			b.WriteString(raw[open : close+1])
		}
		i = close + 1
	}
	return b.String()
}

// collectTemplate joins a TemplateLiteral's literal parts with the already
// evaluated expression values in parts (the stepper evaluates each Exprs
// entry first, via the temp stack, then calls this to assemble the final
// string).
func collectTemplate(litParts []string, values []value.Value) string {
	var b strings.Builder
	for i, lit := range litParts {
		b.WriteString(lit)
		if i < len(values) {
			b.WriteString(values[i].String())
		}
	}
	return b.String()
}
