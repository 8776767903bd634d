package vloop

import "github.com/xyproto/vecloop/ir"

// Loop describes the counted loop under analysis: its header, induction
// variable, and the shape facts VLoop.CheckPreconditions needs. The host
// compiler is expected to have already built this much (spec.md §1,
// "Out of scope: IR construction... The spec assumes an IR layer that
// offers... a loop-membership oracle").
type Loop struct {
	Head *ir.Node // OpCountedLoop node
	IV   *ir.Node // induction-variable phi

	IsMain bool
	// PreLoop is set when IsMain is true: the corresponding pre-loop,
	// whose trip count the alignment solver adjusts.
	PreLoop *Loop
	// PreLoopLimit is the opaque limit node the pre-loop rewrite mutates;
	// required when IsMain is true.
	PreLoopLimit *ir.Node

	AlreadyVectorized  bool
	UnrollOnly         bool
	AllowInBodyControl bool
	// BackedgeControlUsers is the number of distinct control nodes using
	// the loop's backedge; a well-formed counted loop has exactly one.
	BackedgeControlUsers int

	// InBodyControlFlow is true if the host detected a branch inside the
	// loop body besides the loop's own exit test.
	InBodyControlFlow bool
}

// CheckPreconditions validates a counted loop per spec.md §4.3. It
// returns ReasonNone on success and the first applicable FailureReason
// otherwise; checks run in the order the spec lists them so the reported
// reason is deterministic.
func CheckPreconditions(loop *Loop, host ir.Host, maxVectorWidthBytes int) FailureReason {
	if maxVectorWidthBytes < 2 || (maxVectorWidthBytes&(maxVectorWidthBytes-1)) != 0 {
		return ReasonNoVectorWidth
	}
	if loop == nil || loop.Head == nil || loop.IV == nil {
		return ReasonNotCountedLoop
	}
	if loop.AlreadyVectorized {
		return ReasonAlreadyVectorized
	}
	if loop.UnrollOnly {
		return ReasonUnrollOnly
	}
	if loop.InBodyControlFlow && !loop.AllowInBodyControl {
		return ReasonInBodyControlFlow
	}
	if loop.BackedgeControlUsers != 1 {
		return ReasonMultipleBackedgeUsers
	}
	if loop.IsMain && loop.PreLoopLimit == nil {
		return ReasonNoPreLoopLimit
	}
	return ReasonNone
}
