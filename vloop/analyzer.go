package vloop

import "github.com/xyproto/vecloop/ir"

// Result is the validated analysis bundle VLoopAnalyzer hands to the code
// generator on success: a reductions set, body order, element-type map,
// memory slices, and the dependence graph built from them (spec.md §6,
// "It exposes to the code generator").
type Result struct {
	Loop        *Loop
	Reductions  ReductionSet
	Body        *Body
	Types       TypeMap
	Slices      []*Slice
	Dependence  *DependenceGraph
}

// VLoopAnalyzer composes §4.3 through §4.8 into a single pass (spec.md
// §4.9). The host supplies the raw facts (loop shape, candidate phis,
// raw body membership, def-use) that a real compiler's IR already
// tracks; VLoopAnalyzer never constructs IR itself, only reads it.
type VLoopAnalyzer struct {
	Host                ir.Host
	MaxVectorWidthBytes int
	Tracer              Tracer

	// RawBody is every node the host reports as a member of Loop.Head.
	RawBody []*ir.Node
	// Phis is every header phi (data and memory) at Loop.Head.
	Phis []*ir.Node
	// MemPhis is the subset of Phis that are memory phis.
	MemPhis []*ir.Node
	// Users answers "what consumes n"; threaded through every stage that
	// needs a def-use query the Host interface does not expose directly
	// (spec.md §4.5/§4.6/§4.7).
	Users Users
	// Succ returns n's in-loop out-edges for VLoopBody's forward walk.
	Succ Users
	// ElemSizeOf returns the element size in bytes of a memory node's
	// access type, used by the dependence graph's VPointer comparisons.
	ElemSizeOf func(*ir.Node) int64
}

func (a *VLoopAnalyzer) tracef(format string, args ...any) {
	if a.Tracer != nil {
		a.Tracer.Tracef(format, args...)
	}
}

// Analyze runs the full pipeline (spec.md §4.9): CheckPreconditions,
// FindReductions, FindMemorySlices, ConstructBody, InferTypes, then
// BuildDependenceGraph. It fails early if a loop has neither a reduction
// nor a store.
func (a *VLoopAnalyzer) Analyze(loop *Loop) (*Result, error) {
	if reason := CheckPreconditions(loop, a.Host, a.MaxVectorWidthBytes); reason != ReasonNone {
		a.tracef("preconditions failed: %s", reason)
		return nil, fail(reason, "loop failed vectorization preconditions")
	}

	reductions := FindReductions(loop.Head, loop.IV, a.Phis, a.Host, a.Users)
	a.tracef("found %d reduction participants", len(reductions))

	slices, err := FindMemorySlices(loop.Head, a.MemPhis, a.Host, a.Users)
	if err != nil {
		a.tracef("memory slice analysis failed: %v", err)
		return nil, err
	}

	hasStore := false
	for _, s := range slices {
		if len(s.Stores) > 0 {
			hasStore = true
			break
		}
	}
	if len(reductions) == 0 && !hasStore {
		a.tracef("loop has neither a reduction nor a store")
		return nil, fail(ReasonNoReductionOrStore, "loop has no reduction and no store")
	}

	body, err := ConstructBody(loop.Head, a.RawBody, a.Succ)
	if err != nil {
		a.tracef("body construction failed: %v", err)
		return nil, err
	}

	types := InferTypes(body.Order, a.Users)
	a.tracef("inferred types for %d body nodes", len(types))

	elemSizeOf := a.ElemSizeOf
	if elemSizeOf == nil {
		elemSizeOf = func(n *ir.Node) int64 {
			if t := types.Of(n); t != nil {
				return int64(t.Kind.SizeBytes())
			}
			return 0
		}
	}
	dep := BuildDependenceGraph(slices, loop, a.Host, elemSizeOf)

	return &Result{
		Loop:       loop,
		Reductions: reductions,
		Body:       body,
		Types:      types,
		Slices:     slices,
		Dependence: dep,
	}, nil
}
