// Package session wires the symbolic-state store, the opcode dispatcher,
// and a caller-supplied concrete mirror into the single entry point an
// embedding analysis framework calls per decoded instruction: Build.
package session

import (
	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/config"
	"github.com/lookbusy1344/x86-symex/opcodes"
	"github.com/lookbusy1344/x86-symex/symerr"
	"github.com/lookbusy1344/x86-symex/symstate"
	"github.com/lookbusy1344/x86-symex/trace"
)

// Session owns everything private to one analysis context (§5): the
// symbolic state, the concrete mirror it reads/writes alongside, and the
// configuration that governs unknown-opcode handling.
type Session struct {
	cfg      *config.Config
	state    *symstate.State
	concrete arch.ConcreteState
	trace    *trace.ExpressionTrace

	hasLast     bool
	lastAddress uint64
}

// New creates a session. cfg may be nil, in which case config.DefaultConfig
// applies.
func New(cfg *config.Config, concrete arch.ConcreteState) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Session{
		cfg:      cfg,
		state:    symstate.New(cfg.CPU.BitSize, concrete, cfg.SymbolicState.EnableHashConsing),
		concrete: concrete,
		trace:    trace.New(),
	}
}

// State exposes the symbolic-state accessors named in §6: enumerate
// expressions, fetch by ID, fetch current register/memory/flag mappings,
// iterate path constraints.
func (s *Session) State() *symstate.State { return s.state }

// Trace exposes the append-only expression log for external inspection;
// disabled by default, see trace.ExpressionTrace.Enable.
func (s *Session) Trace() *trace.ExpressionTrace { return s.trace }

// Build is the core's one entry point (§6): decode → operands → result →
// destination → flags → control flow → done, staged in a single Txn and
// committed atomically, or rolled back on the first error (§4.6's state
// machine). Calling Build again with the same instruction address as the
// last successful call is a no-op — the idempotence §6 requires of replaying
// an already-processed instruction.
func (s *Session) Build(inst *arch.Instruction) error {
	if s.hasLast && s.lastAddress == inst.Address {
		return nil
	}

	handler, ok := opcodes.Dispatch(inst.Opcode)
	if !ok {
		if s.cfg.Dispatch.AbortOnUnknownOpcode {
			return symerr.New(symerr.KindUnknownOpcode, inst.Address, inst.Mnemonic, "dispatcher has no handler registered")
		}
		s.hasLast, s.lastAddress = true, inst.Address
		return nil
	}

	txn := s.state.Begin(inst.Address)
	if err := handler(txn, s.concrete, inst); err != nil {
		txn.Rollback()
		return err
	}
	for _, expr := range txn.Commit() {
		s.trace.Record(inst.Address, inst.Mnemonic, expr.ID, expr.Tainted())
	}

	s.hasLast, s.lastAddress = true, inst.Address
	return nil
}
