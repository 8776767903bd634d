package vloop

import "github.com/xyproto/vecloop/ir"

// AlignmentKind discriminates the AlignmentSolution sum type (spec.md §9,
// "Tagged variants vs. inheritance").
type AlignmentKind int

const (
	AlignTrivial AlignmentKind = iota
	AlignEmpty
	AlignConstrained
)

// AlignmentSolution describes the admissible pre-loop iteration counts
// for a vector memory reference (spec.md §3).
//
// Constrained semantics: admissible pre-loop counts are
//
//	m*Q + R - invar/(scale*preStride) - init/preStride
//
// for any integer m; the invar and init terms are omitted when Invar is
// nil or the initial value was a compile-time constant.
type AlignmentSolution struct {
	Kind AlignmentKind

	Reason string // set when Kind == AlignEmpty

	MemRef *ir.Node // set when Kind == AlignConstrained
	Q      int64
	R      int64
	Invar  *ir.Node
	Scale  int64
}

func Trivial() AlignmentSolution { return AlignmentSolution{Kind: AlignTrivial} }

func Empty(reason string) AlignmentSolution {
	return AlignmentSolution{Kind: AlignEmpty, Reason: reason}
}

func Constrained(memRef *ir.Node, q, r int64, invar *ir.Node, scale int64) AlignmentSolution {
	return AlignmentSolution{Kind: AlignConstrained, MemRef: memRef, Q: q, R: r, Invar: invar, Scale: scale}
}

// AlignmentParams bundles the inputs Solve needs for one
// memory reference (spec.md §4.2).
type AlignmentParams struct {
	MemRef *ir.Node
	P      *VPointer

	// InitNode is the initial value of iv; InitConst/InitIsConst report
	// whether it is a compile-time constant.
	InitNode    *ir.Node
	InitIsConst bool
	InitConst   int64

	InvarFactor int64 // VPointer.BiggestDetectableInvariantFactor()

	PreStride  int64
	MainStride int64 // = PreStride * unroll factor

	VectorWidthBytes int
	ElementSizeBytes int
	ObjectAlignment  int
}

func isPow2(v int64) bool {
	if v < 0 {
		v = -v
	}
	return v != 0 && v&(v-1) == 0
}

// mod returns the non-negative remainder of a mod m (m > 0), per
// spec.md §4.2's "positive-remainder convention".
func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Solve computes the admissible pre-loop iteration counts for one vector
// memory reference, per spec.md §4.2. Every outcome, including an
// invalid VPointer and an alignment width or main stride that is not a
// power of two, is reported through the returned AlignmentSolution's
// Kind; the returned error is always nil.
func Solve(p AlignmentParams) (AlignmentSolution, error) {
	if !p.P.Valid() {
		return Empty("invalid VPointer"), nil
	}
	if !isPow2(p.PreStride) {
		return Empty(string(ReasonNonPow2Stride)), nil
	}
	if !isPow2(p.P.Scale) {
		return Empty(string(ReasonNonPow2Scale)), nil
	}
	aw := p.VectorWidthBytes
	if p.ObjectAlignment > 0 && p.ObjectAlignment < aw {
		aw = p.ObjectAlignment
	}
	if aw <= 0 || !isPow2(int64(aw)) {
		return Empty("invalid alignment width"), nil
	}
	if !isPow2(p.MainStride) {
		return Empty(string(ReasonNonPow2Stride)), nil
	}

	scale := p.P.Scale
	cConst := p.P.Offset
	if p.InitIsConst {
		cConst += p.InitConst * scale
	}
	var cInvar int64
	if p.P.Invar != nil {
		cInvar = abs64(p.InvarFactor)
	}
	var cInit int64
	if !p.InitIsConst {
		cInit = scale
	}
	cPre := scale * p.PreStride
	cMain := scale * p.MainStride

	awL := int64(aw)
	if mod(cMain, awL) != 0 {
		return Empty(string(ReasonMainMisaligns)), nil
	}

	kindConst, qConst := subEquation(cConst, cPre, awL)
	kindInvar, qInvar := subEquation(cInvar, cPre, awL)
	kindInit, qInit := subEquation(cInit, cPre, awL)

	if kindConst == subEmpty || kindInvar == subEmpty || kindInit == subEmpty {
		return Empty(string(ReasonSubEquationEmpty)), nil
	}
	if kindConst == subTrivial && kindInvar == subTrivial && kindInit == subTrivial {
		return Trivial(), nil
	}

	q := qConst
	if qInvar != 0 && (q == 0 || qInvar < q) {
		q = qInvar
	}
	if qInit != 0 && (q == 0 || qInit < q) {
		q = qInit
	}
	if q < 2 {
		// All constrained equations must share |C_pre| < aw, hence the
		// same q = aw / |C_pre|; a q below 2 indicates a modeling bug
		// upstream, not a user-triggerable failure.
		return Empty("degenerate alignment equation"), nil
	}

	r := mod(-cConst/cPre, q)
	return Constrained(p.MemRef, q, r, p.P.Invar, scale), nil
}

type subKind int

const (
	subTrivial subKind = iota
	subEmpty
	subConstrained
)

// subEquation applies the per-term table of spec.md §4.2 to one of the
// three decomposed constants (C_const, C_invar, C_init).
func subEquation(c, cPre, aw int64) (subKind, int64) {
	absPre := abs64(cPre)
	if absPre >= aw {
		if mod(c, aw) == 0 {
			return subTrivial, 0
		}
		return subEmpty, 0
	}
	if absPre == 0 {
		if c == 0 {
			return subTrivial, 0
		}
		return subEmpty, 0
	}
	if mod(c, absPre) == 0 {
		return subConstrained, aw / absPre
	}
	return subEmpty, 0
}
