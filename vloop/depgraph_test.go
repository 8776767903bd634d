package vloop

import (
	"testing"

	"github.com/xyproto/vecloop/ir"
)

// TestBuildDependenceGraphScenarioS2 mirrors spec.md §8 S2:
// `for (i=0; i<N; ++i) a[i+7] = a[i];`. The store to a[i+7] and the load
// from a[i] are 7 elements (28 bytes) apart on the same array — far
// enough that Cmp alone would call them provably not equal for the
// current iteration, but the offset gap is an exact multiple of the
// element stride, so some other iteration does alias them and the
// dependence graph must still carry an edge.
func TestBuildDependenceGraphScenarioS2(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	load := buildArrayAccess(g, head, iv, base, 4, 0, false, nil)
	store := buildArrayAccess(g, head, iv, base, 4, 28, true, g.NewConst(0, ir.KindInt))

	slice := &Slice{Stores: []*ir.Node{store}, Loads: []*ir.Node{load}}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)

	si, li := dg.IndexOf(store), dg.IndexOf(load)
	if si < 0 || li < 0 {
		t.Fatalf("store/load not registered in the dependence graph: si=%d li=%d", si, li)
	}
	if dg.Independent(si, li) {
		t.Error("store a[i+7] and load a[i] must not be reported independent: a 7-iteration recurrence aliases them")
	}
	if dg.Nodes[li].Depth != dg.Nodes[si].Depth+1 {
		t.Errorf("load depth = %d, want store depth (%d) + 1", dg.Nodes[li].Depth, dg.Nodes[si].Depth)
	}
}

// TestBuildDependenceGraphIncommensurateOffsetIsIndependent checks the
// flip side of S2: when the offset gap is NOT a multiple of the element
// stride, no iteration of the loop ever aliases the two accesses, so
// they must be independent.
func TestBuildDependenceGraphIncommensurateOffsetIsIndependent(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	load := buildArrayAccess(g, head, iv, base, 4, 0, false, nil)
	store := buildArrayAccess(g, head, iv, base, 4, 30, true, g.NewConst(0, ir.KindInt))

	slice := &Slice{Stores: []*ir.Node{store}, Loads: []*ir.Node{load}}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)
	si, li := dg.IndexOf(store), dg.IndexOf(load)
	if !dg.Independent(si, li) {
		t.Error("a 30-byte gap is not a multiple of the 4-byte stride; no iteration ever aliases them")
	}
}

func TestBuildDependenceGraphLoadAfterLoadAlwaysIndependent(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	load0 := buildArrayAccess(g, head, iv, base, 4, 0, false, nil)
	load1 := buildArrayAccess(g, head, iv, base, 4, 0, false, nil) // same offset, still a load

	slice := &Slice{Loads: []*ir.Node{load0, load1}}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)
	i0, i1 := dg.IndexOf(load0), dg.IndexOf(load1)
	if !dg.Independent(i0, i1) {
		t.Error("load-after-load pairs are never linked, even at the same offset")
	}
	if dg.Nodes[i0].Depth != dg.Nodes[i1].Depth {
		t.Errorf("two unlinked loads off the same root should share a depth: %d vs %d", dg.Nodes[i0].Depth, dg.Nodes[i1].Depth)
	}
}

func TestBuildDependenceGraphMutuallyIndependentLoads(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	loads := make([]*ir.Node, 3)
	for i := range loads {
		loads[i] = buildArrayAccess(g, head, iv, base, 4, int64(i*4), false, nil)
	}
	slice := &Slice{Loads: loads}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)
	idxs := make([]int, len(loads))
	for i, l := range loads {
		idxs[i] = dg.IndexOf(l)
	}
	if !dg.MutuallyIndependent(idxs) {
		t.Error("all-load slice must be mutually independent regardless of offset")
	}
}

// TestBuildDependenceGraphChainedStoresAllDependent builds three stores
// to the same array at strides of one element apart; every pair shares
// the same recurrence family, so the graph must chain them with
// strictly increasing depth and no pair reported independent.
func TestBuildDependenceGraphChainedStoresAllDependent(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)

	stores := make([]*ir.Node, 3)
	for i := range stores {
		stores[i] = buildArrayAccess(g, head, iv, base, 4, int64(i*4), true, g.NewConst(int64(i), ir.KindInt))
	}
	slice := &Slice{Stores: stores}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)
	idxs := make([]int, len(stores))
	for i, s := range stores {
		idxs[i] = dg.IndexOf(s)
	}
	for i := 0; i < len(idxs); i++ {
		for j := i + 1; j < len(idxs); j++ {
			if dg.Independent(idxs[i], idxs[j]) {
				t.Errorf("store %d and store %d share a recurrence family and must not be independent", i, j)
			}
		}
	}
	if dg.MutuallyIndependent(idxs) {
		t.Error("a fully chained recurrence must not be reported mutually independent")
	}
}

func TestBuildDependenceGraphSinkAndRootPerSlice(t *testing.T) {
	g := ir.NewGraph()
	head, iv := newCountedLoop(g, "L")
	base := g.NewParam("a", ir.KindLong)
	store := buildArrayAccess(g, head, iv, base, 4, 0, true, g.NewConst(0, ir.KindInt))

	slice := &Slice{Stores: []*ir.Node{store}}
	loop := &Loop{Head: head, IV: iv}
	elemSizeOf := func(*ir.Node) int64 { return 4 }

	dg := BuildDependenceGraph([]*Slice{slice}, loop, g, elemSizeOf)
	// root + one store node + one sink.
	if len(dg.Nodes) != 3 {
		t.Fatalf("len(dg.Nodes) = %d, want 3 (root, store, sink)", len(dg.Nodes))
	}
	si := dg.IndexOf(store)
	if si != 1 {
		t.Fatalf("store index = %d, want 1", si)
	}
	if dg.Nodes[si].Depth != 1 {
		t.Errorf("store depth = %d, want 1 (one hop from root)", dg.Nodes[si].Depth)
	}
}
