package vloop

import (
	"testing"

	"github.com/xyproto/vecloop/ir"
)

// buildArrayAccess builds an AddP(base, iv*elemSize, header) address and a
// Load/Store off it, modeling a[i] inside a counted loop, per spec.md §8's
// scenario S1.
func buildArrayAccess(g *ir.Graph, loopHead, iv, base *ir.Node, elemSize, header int64, store bool, val *ir.Node) *ir.Node {
	scaleConst := g.NewConst(elemSize, ir.KindInt)
	scaled := g.NewBin(ir.OpMulI, iv, scaleConst, ir.KindInt)
	headerConst := g.NewConst(header, ir.KindLong)
	addr := g.NewAddP(base, scaled, headerConst)

	aliasT := ir.MemType(ir.KindInt, 1)
	var mem *ir.Node
	if store {
		mem = g.NewStore(loopHead, nil, addr, val, aliasT)
	} else {
		mem = g.NewLoad(loopHead, nil, addr, aliasT)
	}
	g.AddToLoop(mem, loopHead)
	g.AddToLoop(addr, loopHead)
	g.AddToLoop(scaled, loopHead)
	return mem
}

func TestVPointerScaledOffsetScenarioS1(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	store := buildArrayAccess(g, head, iv, base, 4, 16, true, g.NewConst(1, ir.KindInt))
	loop := &Loop{Head: head, IV: iv}

	p := NewVPointer(store, loop, g, nil)
	if !p.Valid() {
		t.Fatal("expected a valid VPointer for a[i]")
	}
	if p.Scale != 4 {
		t.Errorf("Scale = %d, want 4", p.Scale)
	}
	if p.Offset != 16 {
		t.Errorf("Offset = %d, want 16", p.Offset)
	}
	if p.Base != base {
		t.Errorf("Base = %v, want %v", p.Base, base)
	}
	if p.Invar != nil {
		t.Errorf("Invar = %v, want nil", p.Invar)
	}
}

func TestVPointerBareInvariantOffset(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	invariant := g.NewParam("k", ir.KindInt)

	// addr = AddP(base, invariant, 0): a loop-invariant index, scale 0.
	zero := g.NewConst(0, ir.KindLong)
	addr := g.NewAddP(base, invariant, zero)
	load := g.NewLoad(head, nil, addr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(load, head)
	g.AddToLoop(addr, head)

	loop := &Loop{Head: head, IV: iv}
	p := NewVPointer(load, loop, g, nil)
	if !p.Valid() {
		t.Fatal("expected a valid VPointer for a[k]")
	}
	if p.Scale != 0 {
		t.Errorf("Scale = %d, want 0", p.Scale)
	}
	if p.Invar != invariant {
		t.Errorf("Invar = %v, want %v", p.Invar, invariant)
	}
}

func TestVPointerAnalyzeOnlyNeverMutatesHost(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	// addr = AddP(base, 10 - k, 0): exercises offsetPlusK's "const minus
	// invariant" branch, which folds the negation into a synthesized
	// Sub(zero, k) node. In analyze-only mode that node must be a detached,
	// unregistered synthetic node rather than one committed through
	// g.ValueNumberOrInsert.
	invariant := g.NewParam("k", ir.KindInt)
	ten := g.NewConst(10, ir.KindInt)
	diff := g.NewBin(ir.OpSubI, ten, invariant, ir.KindInt)
	zero := g.NewConst(0, ir.KindLong)
	addr := g.NewAddP(base, diff, zero)
	load := g.NewLoad(head, nil, addr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(load, head)
	g.AddToLoop(addr, head)
	g.AddToLoop(diff, head)

	loop := &Loop{Head: head, IV: iv}

	before := len(g.Nodes())
	stack := &AnalysisStack{}
	p := NewVPointer(load, loop, g, stack)
	if !p.Valid() {
		t.Fatal("expected a valid VPointer for a[10 - k]")
	}
	if len(stack.Nodes) == 0 {
		t.Error("expected analyze-only traversal to push visited nodes onto the stack")
	}
	if got := len(g.Nodes()); got != before {
		t.Errorf("analyze-only construction created %d new host nodes, want 0", got-before)
	}
}

func TestCmpEqualLessGreaterNotEqual(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	loop := &Loop{Head: head, IV: iv}

	load := buildArrayAccess(g, head, iv, base, 4, 0, false, nil)
	p1 := NewVPointer(load, loop, g, nil)

	// a[i+7]: same base/scale/invar, offset shifted by 7 elements (28 bytes).
	store := buildArrayAccess(g, head, iv, base, 4, 28, true, g.NewConst(0, ir.KindInt))
	p2 := NewVPointer(store, loop, g, nil)

	if got := Cmp(p1, p1, 4); got != CmpEqual {
		t.Errorf("Cmp(p1, p1) = %v, want CmpEqual", got)
	}
	if got := Cmp(p1, p2, 4); got != CmpNotEqual {
		t.Errorf("Cmp(p1, p2) with 28-byte offset gap and 4-byte elements = %v, want CmpNotEqual", got)
	}

	// Only 2 bytes apart (less than one 4-byte element) — ambiguous
	// ordering, not provably disjoint memory ranges.
	near := buildArrayAccess(g, head, iv, base, 4, 2, true, g.NewConst(0, ir.KindInt))
	p3 := NewVPointer(near, loop, g, nil)
	if got := Cmp(p1, p3, 4); got != CmpLess {
		t.Errorf("Cmp(p1, p3) = %v, want CmpLess", got)
	}
}

// TestVPointerSubtractedInvariantDiffersFromAdded guards against a
// regression where offset_plus_k's bare-invariant fallback ignored its
// negate flag: a[i - k] and a[i + k] must decompose to distinguishable
// invariant terms (one the negation of the other), not the same node.
func TestVPointerSubtractedInvariantDiffersFromAdded(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	k := g.NewParam("k", ir.KindInt)
	loop := &Loop{Head: head, IV: iv}

	minusSub := g.NewBin(ir.OpSubI, iv, k, ir.KindInt)
	minusAddr := g.NewAddP(base, minusSub, g.NewConst(0, ir.KindLong))
	minusLoad := g.NewLoad(head, nil, minusAddr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(minusLoad, head)
	g.AddToLoop(minusAddr, head)
	g.AddToLoop(minusSub, head)

	plusSub := g.NewBin(ir.OpAddI, iv, k, ir.KindInt)
	plusAddr := g.NewAddP(base, plusSub, g.NewConst(0, ir.KindLong))
	plusLoad := g.NewLoad(head, nil, plusAddr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(plusLoad, head)
	g.AddToLoop(plusAddr, head)
	g.AddToLoop(plusSub, head)

	pMinus := NewVPointer(minusLoad, loop, g, nil)
	pPlus := NewVPointer(plusLoad, loop, g, nil)
	if !pMinus.Valid() || !pPlus.Valid() {
		t.Fatal("expected both a[i-k] and a[i+k] to produce valid VPointers")
	}
	if pMinus.Invar == pPlus.Invar {
		t.Fatal("a[i-k] and a[i+k] must not share the same invariant node: one is the negation of the other")
	}
	if pMinus.Invar.Op != ir.OpSubI || pMinus.Invar.In1() != k {
		t.Fatalf("a[i-k] invariant = %+v, want SubI(0, k)", pMinus.Invar)
	}
	if pPlus.Invar != k {
		t.Fatalf("a[i+k] invariant = %v, want the bare k node", pPlus.Invar)
	}
	if Cmp(pMinus, pPlus, 4) != CmpUnknown {
		t.Error("a[i-k] and a[i+k] have different invariant terms; Cmp must not call them comparable")
	}
}

// TestVPointerScaledIVOnRightOfSubtraction guards against a regression
// where j - ((iv+k)<<1) merged the right-hand side's invariant with a
// plain addition instead of subtracting it, flipping k's sign.
func TestVPointerScaledIVOnRightOfSubtraction(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	k := g.NewParam("k", ir.KindInt)
	j := g.NewParam("j", ir.KindInt)
	loop := &Loop{Head: head, IV: iv}

	inner := g.NewBin(ir.OpAddI, iv, k, ir.KindInt)
	shifted := g.NewShift(ir.OpLShiftI, inner, 1, ir.KindInt)
	sub := g.NewBin(ir.OpSubI, j, shifted, ir.KindInt)
	addr := g.NewAddP(base, sub, g.NewConst(0, ir.KindLong))
	load := g.NewLoad(head, nil, addr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(load, head)
	g.AddToLoop(addr, head)
	g.AddToLoop(sub, head)
	g.AddToLoop(shifted, head)
	g.AddToLoop(inner, head)

	p := NewVPointer(load, loop, g, nil)
	if !p.Valid() {
		t.Fatal("expected a valid VPointer for a[j - ((i+k)<<1)]")
	}
	if p.Scale != -2 {
		t.Fatalf("Scale = %d, want -2", p.Scale)
	}
	// The distributive scaledIV step turns (iv+k)<<1 into a scale-2 term
	// (iv<<1) plus an invariant term (k<<1); the merged invariant must be
	// j + (-(k<<1)), i.e. an Add whose second operand negates a freshly
	// synthesized k<<1 node — not j + (k<<1), which would silently flip
	// k's contribution to the address.
	if p.Invar == nil || p.Invar.Op != ir.OpAddI {
		t.Fatalf("Invar = %+v, want an AddI combining j with the negated shifted invariant", p.Invar)
	}
	negated := p.Invar.In1()
	if negated == nil || negated.Op != ir.OpSubI {
		t.Fatalf("Invar's second operand = %+v, want SubI(0, k<<1)", negated)
	}
	kShifted := negated.In1()
	if kShifted == nil || (kShifted.Op != ir.OpLShiftI && kShifted.Op != ir.OpLShiftL) || kShifted.In0() != k || kShifted.ShiftAmount != 1 {
		t.Fatalf("negated shift operand = %+v, want a fresh LShiftI(k, 1)", kShifted)
	}
}

func TestBiggestDetectableInvariantFactor(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	invariant := g.NewParam("k", ir.KindInt)
	shifted := g.NewShift(ir.OpLShiftI, invariant, 2, ir.KindInt)
	zero := g.NewConst(0, ir.KindLong)
	addr := g.NewAddP(base, shifted, zero)
	load := g.NewLoad(head, nil, addr, ir.MemType(ir.KindInt, 1))
	g.AddToLoop(load, head)
	g.AddToLoop(addr, head)
	g.AddToLoop(shifted, head)

	loop := &Loop{Head: head, IV: iv}
	p := NewVPointer(load, loop, g, nil)
	if !p.Valid() {
		t.Fatal("expected a valid VPointer")
	}
	if got := p.BiggestDetectableInvariantFactor(); got != 4 {
		t.Errorf("BiggestDetectableInvariantFactor() = %d, want 4", got)
	}
}
