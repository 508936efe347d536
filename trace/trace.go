// Package trace implements the ambient diagnostic log for a symbolic
// execution session: an append-only record of committed expressions,
// scaled to what this core actually needs (no symbol resolution, no JSON
// export).
package trace

import (
	"fmt"
	"strings"
)

// Entry is one committed expression: the instruction that produced it and
// the expression ID the symbolic state assigned.
type Entry struct {
	Sequence    uint64
	Address     uint64
	Instruction string
	ExpressionID uint64
	Tainted     bool
}

// ExpressionTrace records one Entry per committed expression. It is
// disabled by default — a caller opts in with Enable() since most sessions
// have no need to retain this history.
type ExpressionTrace struct {
	Enabled bool

	entries      []Entry
	nextSequence uint64
	taintedCount uint64
}

// New creates a disabled ExpressionTrace.
func New() *ExpressionTrace {
	return &ExpressionTrace{entries: make([]Entry, 0, 256)}
}

// Enable turns recording on.
func (t *ExpressionTrace) Enable() { t.Enabled = true }

// Record appends one entry if the trace is enabled; a no-op otherwise.
func (t *ExpressionTrace) Record(address uint64, instruction string, exprID uint64, tainted bool) {
	if !t.Enabled {
		return
	}
	t.entries = append(t.entries, Entry{
		Sequence:     t.nextSequence,
		Address:      address,
		Instruction:  instruction,
		ExpressionID: exprID,
		Tainted:      tainted,
	})
	t.nextSequence++
	if tainted {
		t.taintedCount++
	}
}

// Entries returns every recorded entry, in commit order.
func (t *ExpressionTrace) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// TaintedCount returns how many recorded entries were tainted.
func (t *ExpressionTrace) TaintedCount() uint64 { return t.taintedCount }

// String renders a compact, human-readable report.
func (t *ExpressionTrace) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Expression Trace: %d entries, %d tainted\n", len(t.entries), t.taintedCount)
	for _, e := range t.entries {
		mark := " "
		if e.Tainted {
			mark = "*"
		}
		fmt.Fprintf(&sb, "[%06d] 0x%x %-24s -> expr#%d%s\n", e.Sequence, e.Address, e.Instruction, e.ExpressionID, mark)
	}
	return sb.String()
}
