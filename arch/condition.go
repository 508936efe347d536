package arch

// ConditionCode names an x86 Jcc/CMOVcc/SETcc condition. The implemented
// formula is authoritative over the mnemonic's documentation name where the
// two read as if they disagree (e.g. JGE is documented "jump if not less"
// but is evaluated as SF == OF) — see Evaluate.
type ConditionCode int

const (
	CondA  ConditionCode = iota // above            (CF==0 && ZF==0)
	CondAE                      // above or equal   (CF==0)
	CondB                       // below            (CF==1)
	CondBE                      // below or equal   (CF==1 || ZF==1)
	CondE                       // equal            (ZF==1)
	CondG                       // greater          (ZF==0 && SF==OF)
	CondGE                      // greater or equal (SF==OF)
	CondL                       // less             (SF!=OF)
	CondLE                      // less or equal    (ZF==1 || SF!=OF)
	CondNE                      // not equal        (ZF==0)
	CondNO                      // not overflow     (OF==0)
	CondNP                      // not parity       (PF==0)
	CondNS                      // not sign         (SF==0)
	CondO                       // overflow         (OF==1)
	CondP                       // parity           (PF==1)
	CondS                       // sign             (SF==1)
)

// AllConditions enumerates every condition code this module implements
// Jcc/CMOVcc/SETcc for, in a stable order used to generate the per-condition
// handler tables in package opcodes.
var AllConditions = []ConditionCode{
	CondA, CondAE, CondB, CondBE, CondE, CondG, CondGE, CondL, CondLE,
	CondNE, CondNO, CondNP, CondNS, CondO, CondP, CondS,
}

func (c ConditionCode) String() string {
	switch c {
	case CondA:
		return "A"
	case CondAE:
		return "AE"
	case CondB:
		return "B"
	case CondBE:
		return "BE"
	case CondE:
		return "E"
	case CondG:
		return "G"
	case CondGE:
		return "GE"
	case CondL:
		return "L"
	case CondLE:
		return "LE"
	case CondNE:
		return "NE"
	case CondNO:
		return "NO"
	case CondNP:
		return "NP"
	case CondNS:
		return "NS"
	case CondO:
		return "O"
	case CondP:
		return "P"
	case CondS:
		return "S"
	}
	return "??"
}

// Evaluate computes the concrete truth value of c given concrete flag bits.
// This is used only to record the concrete condition_taken bit alongside
// the symbolic ITE a handler builds; it never substitutes for the AST.
func (c ConditionCode) Evaluate(cf, pf, af, zf, sf, of bool) bool {
	switch c {
	case CondA:
		return !cf && !zf
	case CondAE:
		return !cf
	case CondB:
		return cf
	case CondBE:
		return cf || zf
	case CondE:
		return zf
	case CondG:
		return !zf && sf == of
	case CondGE:
		return sf == of
	case CondL:
		return sf != of
	case CondLE:
		return zf || sf != of
	case CondNE:
		return !zf
	case CondNO:
		return !of
	case CondNP:
		return !pf
	case CondNS:
		return !sf
	case CondO:
		return of
	case CondP:
		return pf
	case CondS:
		return sf
	}
	return false
}
