package vloop

import "github.com/xyproto/vecloop/ir"

// VPointer is the canonical linear decomposition of a memory node's
// address: base + offset + invar + scale·iv (spec.md §3/§4.1).
type VPointer struct {
	Mem       *ir.Node
	Base      *ir.Node
	Adr       *ir.Node
	Scale     int64
	Offset    int64
	Invar     *ir.Node
	InvarKind ir.Kind

	ok bool
}

// Valid reports whether construction matched the canonical shape.
func (p *VPointer) Valid() bool { return p != nil && p.ok }

// BiggestDetectableInvariantFactor returns the largest power of two
// provably dividing the invariant term: 2^k if Invar is a left shift by
// k, 1 if an invariant is present with no detectable factor, 0 if there
// is no invariant at all (spec.md §4.1, "Biggest detectable factor").
func (p *VPointer) BiggestDetectableInvariantFactor() int64 {
	if p == nil || p.Invar == nil {
		return 0
	}
	if (p.Invar.Op == ir.OpLShiftI || p.Invar.Op == ir.OpLShiftL) && p.Invar.HasShiftAmt {
		return int64(1) << uint(p.Invar.ShiftAmount)
	}
	return 1
}

// AnalysisStack collects the IR nodes visited while building a VPointer
// in analyze-only mode. Passing a non-nil stack suppresses node creation:
// VPointer never calls a mutating Host method in that mode, and any
// invariant terms it would otherwise have combined with a freshly
// inserted Add/Sub are instead synthesized as detached, unregistered
// Nodes purely so the decomposition's Invar field stays populated for
// shape inspection — they are never handed to the host and never used
// for alignment or aliasing decisions, matching spec.md §4.1's "In
// analyze-only mode no IR nodes are created; traversed nodes are pushed
// on the provided stack."
type AnalysisStack struct {
	Nodes []*ir.Node
}

func (s *AnalysisStack) push(n *ir.Node) {
	if s == nil || n == nil {
		return
	}
	s.Nodes = append(s.Nodes, n)
}

// NewVPointer decomposes mem's address into canonical linear form. stack
// may be nil for normal (committing) construction.
func NewVPointer(mem *ir.Node, loop *Loop, host ir.Host, stack *AnalysisStack) *VPointer {
	m := &matcher{loop: loop, host: host, stack: stack}
	return m.build(mem)
}

type matcher struct {
	loop  *Loop
	host  ir.Host
	stack *AnalysisStack
}

// build peels AddP layers off mem's address input, accumulating scale,
// offset, and invar at each step, per spec.md §4.1's outer loop. The
// address is required to be an AddP(base, sub, const) at every layer;
// peeling stops when sub no longer is one (sub then becomes the adr
// shape node) or when sub reduces to the already-fixed base.
func (m *matcher) build(mem *ir.Node) *VPointer {
	p := &VPointer{Mem: mem}
	if mem == nil || len(mem.In) < 2 {
		return p
	}
	cur := mem.In1() // mem.In = [memory, address, (value)]

	var base *ir.Node
	var adr *ir.Node

	for cur != nil && cur.Op == ir.OpAddP {
		m.stack.push(cur)
		addpBase, sub, cst := cur.In0(), cur.In1(), cur.In2()

		if base == nil {
			base = addpBase
		} else if addpBase != base {
			return p // inconsistent base between AddP layers
		}

		if cst != nil && cst.IsConst() {
			p.Offset += cst.Const
		}
		scale, offset, invar, invarKind, ok := m.scaledIVPlusOffset(sub)
		if !ok {
			return p
		}
		p.Scale += scale
		p.Offset += offset
		m.mergeInvar(p, invar, invarKind)

		adr = sub
		if sub == base {
			break
		}
		cur = sub
	}

	if base == nil {
		return p
	}
	if base.Op == ir.OpTop && !m.host.MisalignedVectorsOK() {
		return p
	}
	p.Base = base
	if base.Op == ir.OpTop {
		// Unsafe reference: adr keeps whatever shape node peeling found.
		if adr == nil {
			adr = base
		}
		p.Adr = adr
	} else {
		// Normal case: adr is defined to equal base (spec.md §3).
		p.Adr = base
	}
	p.ok = true
	return p
}

// mergeInvar folds a newly discovered invariant term into p.Invar,
// widening to 64-bit first when either side is 64-bit (spec.md §4.1,
// "When two invariant terms must be combined").
func (m *matcher) mergeInvar(p *VPointer, invar *ir.Node, kind ir.Kind) {
	if invar == nil {
		return
	}
	if p.Invar == nil {
		p.Invar = invar
		p.InvarKind = kind
		return
	}
	target := p.InvarKind
	if kind == ir.KindLong || target == ir.KindLong {
		target = ir.KindLong
	}
	a := m.widen(p.Invar, p.InvarKind, target)
	b := m.widen(invar, kind, target)
	p.Invar = m.makeAdd(a, b, target)
	p.InvarKind = target
}

func (m *matcher) widen(n *ir.Node, from, to ir.Kind) *ir.Node {
	if from == to || to != ir.KindLong {
		return n
	}
	if m.stack != nil {
		m.stack.push(n)
		return &ir.Node{Op: ir.OpConvI2L, In: []*ir.Node{n}, Type: ir.IntType(ir.KindLong)}
	}
	return m.host.ValueNumberOrInsert(m.host.MakeConvIToL(n))
}

func (m *matcher) makeAdd(a, b *ir.Node, kind ir.Kind) *ir.Node {
	if m.stack != nil {
		return &ir.Node{Op: ir.OpAddI, In: []*ir.Node{a, b}, Type: ir.IntType(kind)}
	}
	return m.host.ValueNumberOrInsert(m.host.MakeAdd(a, b, kind))
}

func (m *matcher) makeSub(a, b *ir.Node, kind ir.Kind) *ir.Node {
	if m.stack != nil {
		return &ir.Node{Op: ir.OpSubI, In: []*ir.Node{a, b}, Type: ir.IntType(kind)}
	}
	return m.host.ValueNumberOrInsert(m.host.MakeSub(a, b, kind))
}

func (m *matcher) makeShiftLeft(x *ir.Node, k int64, kind ir.Kind) *ir.Node {
	if m.stack != nil {
		n := &ir.Node{Op: ir.OpLShiftI, In: []*ir.Node{x}, Type: ir.IntType(kind), ShiftAmount: k, HasShiftAmt: true}
		if kind == ir.KindLong {
			n.Op = ir.OpLShiftL
		}
		return n
	}
	return m.host.ValueNumberOrInsert(m.host.MakeShiftLeft(x, k, kind))
}

// scaledIV matches n against spec.md §4.1's scaled_iv grammar: iv,
// iv*const, const*iv, iv<<const, ConvI2L(x)/CastII(x) recursing into x,
// or (scaled_iv_plus_offset(x))<<const. Only the last form may also
// surface an offset and invariant, folded in with the 2^const factor.
// The (scaled_iv_plus_offset(x))<<const branch is gated on
// scaleAlreadySet; every caller in this file passes false, so the branch
// is tried at every nesting level and nested shifts multiply their
// factors (see SPEC_FULL.md §15).
func (m *matcher) scaledIV(n *ir.Node, scaleAlreadySet bool) (scale, offset int64, invar *ir.Node, invarKind ir.Kind, ok bool) {
	m.stack.push(n)
	if n == nil {
		return 0, 0, nil, 0, false
	}
	if n == m.loop.IV {
		return 1, 0, nil, 0, true
	}
	switch n.Op {
	case ir.OpMulI, ir.OpMulL:
		a, b := n.In0(), n.In1()
		if a == m.loop.IV && b.IsConst() {
			return b.Const, 0, nil, 0, true
		}
		if b == m.loop.IV && a.IsConst() {
			return a.Const, 0, nil, 0, true
		}
	case ir.OpLShiftI, ir.OpLShiftL:
		if n.In0() == m.loop.IV && n.HasShiftAmt {
			return int64(1) << uint(n.ShiftAmount), 0, nil, 0, true
		}
		if !scaleAlreadySet {
			innerScale, innerOffset, innerInvar, innerKind, innerOK := m.scaledIVPlusOffset(n.In0())
			if innerOK && n.HasShiftAmt {
				factor := int64(1) << uint(n.ShiftAmount)
				newScale := innerScale * factor
				newOffset := innerOffset * factor
				var newInvar *ir.Node
				newKind := innerKind
				if innerInvar != nil {
					newInvar = m.makeShiftLeft(innerInvar, n.ShiftAmount, innerKind)
				}
				return newScale, newOffset, newInvar, newKind, true
			}
		}
	case ir.OpConvI2L, ir.OpCastII:
		return m.scaledIV(n.In0(), scaleAlreadySet)
	}
	return 0, 0, nil, 0, false
}

// offsetPlusK matches n against spec.md §4.1's offset_plus_k grammar:
// signed constants (64-bit only if they fit in 32 bits), AddI/SubI of a
// constant and an invariant in either order, or a bare invariant (after
// stripping one ConvI2L and one CastII) that, on a main loop, must
// dominate the pre-loop head.
func (m *matcher) offsetPlusK(n *ir.Node, negate bool) (offset int64, invar *ir.Node, invarKind ir.Kind, ok bool) {
	m.stack.push(n)
	if n == nil {
		return 0, nil, 0, false
	}
	// rawOffset/rawInvar/rawKind describe n's value un-negated (n = rawOffset
	// + rawInvar); negate is applied once, uniformly, to both parts below,
	// rather than threaded ad hoc through each branch, so a negated bare
	// invariant (e.g. the "iv - k" side of a SubI) gets its sign flipped
	// exactly like a negated offset constant does.
	var rawOffset int64
	var rawInvar *ir.Node
	var rawKind ir.Kind

	switch {
	case n.IsConst():
		v := n.Const
		if n.Type != nil && n.Type.Kind == ir.KindLong && !ir.FitsInt32(v) {
			return 0, nil, 0, false
		}
		rawOffset = v
	case n.Op == ir.OpAddI || n.Op == ir.OpAddL:
		a, b := n.In0(), n.In1()
		if a.IsConst() && !b.IsConst() {
			rawOffset, rawInvar, rawKind = a.Const, b, b.Type.Kind
		} else if b.IsConst() && !a.IsConst() {
			rawOffset, rawInvar, rawKind = b.Const, a, a.Type.Kind
		} else if iv, ik, ok2 := m.bareInvariant(n); ok2 {
			rawInvar, rawKind = iv, ik
		} else {
			return 0, nil, 0, false
		}
	case n.Op == ir.OpSubI || n.Op == ir.OpSubL:
		a, b := n.In0(), n.In1()
		if a.IsConst() && !b.IsConst() {
			// const - invariant: n = a.Const + (-b).
			rawOffset = a.Const
			rawKind = b.Type.Kind
			rawInvar = m.negateInvar(b, rawKind)
		} else if b.IsConst() && !a.IsConst() {
			rawOffset, rawInvar, rawKind = -b.Const, a, a.Type.Kind
		} else if iv, ik, ok2 := m.bareInvariant(n); ok2 {
			rawInvar, rawKind = iv, ik
		} else {
			return 0, nil, 0, false
		}
	default:
		iv, ik, ok2 := m.bareInvariant(n)
		if !ok2 {
			return 0, nil, 0, false
		}
		rawInvar, rawKind = iv, ik
	}

	if negate {
		rawOffset = -rawOffset
		if rawInvar != nil {
			rawInvar = m.negateInvar(rawInvar, rawKind)
		}
	}
	return rawOffset, rawInvar, rawKind, true
}

// bareInvariant matches n itself as an invariant term, optionally
// stripping one ConvI2L and one CastII, admissible provided it dominates
// the pre-loop head when the loop is the main loop (spec.md §4.1).
func (m *matcher) bareInvariant(n *ir.Node) (*ir.Node, ir.Kind, bool) {
	stripped := n
	if stripped != nil && stripped.Op == ir.OpConvI2L {
		stripped = stripped.In0()
		m.stack.push(stripped)
	}
	if stripped != nil && stripped.Op == ir.OpCastII {
		stripped = stripped.In0()
		m.stack.push(stripped)
	}
	if stripped == nil {
		return nil, 0, false
	}
	if m.loop.IsMain && m.loop.PreLoop != nil {
		preHead := m.loop.PreLoop.Head
		if !m.host.Dominates(stripped, preHead) {
			return nil, 0, false
		}
	}
	return stripped, n.Type.Kind, true
}

// negateInvar builds 0 - n, the sanctioned way to flip an invariant
// term's sign (spec.md §4.1, "When two invariant terms must be
// combined").
func (m *matcher) negateInvar(n *ir.Node, kind ir.Kind) *ir.Node {
	var zero *ir.Node
	if m.stack != nil {
		zero = &ir.Node{Op: ir.OpConst, Type: ir.IntType(kind)}
	} else {
		zero = m.host.MakeZero(kind)
	}
	return m.makeSub(zero, n, kind)
}

// scaledIVPlusOffset tries scaledIV, then offsetPlusK, then decomposes an
// AddI/SubI into a scaled-iv side and an offset side, per spec.md §4.1.
func (m *matcher) scaledIVPlusOffset(n *ir.Node) (scale, offset int64, invar *ir.Node, invarKind ir.Kind, ok bool) {
	m.stack.push(n)
	if n == nil {
		return 0, 0, nil, 0, false
	}
	if scale, offset, invar, invarKind, ok = m.scaledIV(n, false); ok {
		return
	}
	// AddI/SubI get a chance to decompose into a scaled-iv side plus an
	// offset_plus_k side before offsetPlusK's bare-invariant fallback would
	// otherwise swallow the whole compound expression as one opaque term.
	switch n.Op {
	case ir.OpAddI, ir.OpAddL:
		a, b := n.In0(), n.In1()
		if s, o, iv, ik, matched := m.scaledIV(a, false); matched {
			if bo, biv, bik, bok := m.offsetPlusK(b, false); bok {
				merged := iv
				mergedKind := ik
				if biv != nil {
					if iv == nil {
						merged, mergedKind = biv, bik
					} else {
						merged, mergedKind = m.combineTwo(iv, ik, biv, bik)
					}
				}
				return s, o + bo, merged, mergedKind, true
			}
		}
		if s, o, iv, ik, matched := m.scaledIV(b, false); matched {
			if ao, aiv, aik, aok := m.offsetPlusK(a, false); aok {
				merged := iv
				mergedKind := ik
				if aiv != nil {
					if iv == nil {
						merged, mergedKind = aiv, aik
					} else {
						merged, mergedKind = m.combineTwo(iv, ik, aiv, aik)
					}
				}
				return s, o + ao, merged, mergedKind, true
			}
		}
	case ir.OpSubI, ir.OpSubL:
		a, b := n.In0(), n.In1()
		if s, o, iv, ik, matched := m.scaledIV(a, false); matched {
			if bo, biv, bik, bok := m.offsetPlusK(b, true); bok {
				merged := iv
				mergedKind := ik
				if biv != nil {
					if iv == nil {
						merged, mergedKind = biv, bik
					} else {
						merged, mergedKind = m.combineTwo(iv, ik, biv, bik)
					}
				}
				return s, o + bo, merged, mergedKind, true
			}
		}
		// scaled-iv term on the right-hand side: negate the scale, and
		// negate b's own invariant contribution before merging it with
		// a's — n = a - b, so b's invariant (iv) is subtracted, not added.
		if s, o, iv, ik, matched := m.scaledIV(b, false); matched {
			if ao, aiv, aik, aok := m.offsetPlusK(a, false); aok {
				var negIv *ir.Node
				negIvKind := ik
				if iv != nil {
					negIv = m.negateInvar(iv, ik)
				}
				merged := negIv
				mergedKind := negIvKind
				if aiv != nil {
					if negIv == nil {
						merged, mergedKind = aiv, aik
					} else {
						merged, mergedKind = m.combineTwo(aiv, aik, negIv, negIvKind)
					}
				}
				return -s, ao - o, merged, mergedKind, true
			}
		}
	}
	// Neither a scaled IV nor a decomposable AddI/SubI: fall back to
	// treating n as a plain offset_plus_k term (a bare invariant or
	// constant).
	if offset, invar, invarKind, ok = m.offsetPlusK(n, false); ok {
		return 0, offset, invar, invarKind, true
	}
	return 0, 0, nil, 0, false
}

func (m *matcher) combineTwo(a *ir.Node, aKind ir.Kind, b *ir.Node, bKind ir.Kind) (*ir.Node, ir.Kind) {
	target := aKind
	if bKind == ir.KindLong || aKind == ir.KindLong {
		target = ir.KindLong
	}
	wa := m.widen(a, aKind, target)
	wb := m.widen(b, bKind, target)
	return m.makeAdd(wa, wb, target), target
}

// CmpResult is the outcome of comparing two VPointers (spec.md §4.1).
type CmpResult int

const (
	CmpEqual CmpResult = iota
	CmpLess
	CmpGreater
	CmpNotEqual
	CmpUnknown
)

// Cmp compares p1 and p2. They are comparable only when base, adr,
// invar, and scale agree; elemSize is the element size in bytes used to
// decide whether a non-zero offset difference is wide enough to
// guarantee disjoint memory ranges (testable property 2).
func Cmp(p1, p2 *VPointer, elemSize int64) CmpResult {
	if p1 == nil || p2 == nil || !p1.ok || !p2.ok {
		return CmpUnknown
	}
	if p1.Base != p2.Base || p1.Adr != p2.Adr || p1.Invar != p2.Invar || p1.Scale != p2.Scale {
		return CmpUnknown
	}
	diff := p1.Offset - p2.Offset
	if diff == 0 {
		return CmpEqual
	}
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	if elemSize > 0 && abs >= elemSize {
		return CmpNotEqual
	}
	if diff < 0 {
		return CmpLess
	}
	return CmpGreater
}
