package vloop

import (
	"fmt"
	"io"
)

// Tracer is an explicit, injectable diagnostic sink. c67 gates its own
// SIMD and loop-dependency passes behind a package-level `VerboseMode`
// bool and writes straight to os.Stderr (loop_dependency.go,
// simd_analysis.go); Design Note §9 of spec.md calls that shape out
// specifically ("replace process-wide depth counters and print routines
// with an explicit tracer object threaded through calls"), so here it is
// a collaborator passed into the analyzer instead of global state.
type Tracer interface {
	Tracef(format string, args ...any)
}

// NopTracer discards everything; a VLoopAnalyzer with a nil Tracer
// traces nothing in the same way.
type NopTracer struct{}

func (NopTracer) Tracef(string, ...any) {}

// WriterTracer writes each trace line to an underlying io.Writer,
// prefixed the way c67's SIMD trace lines are (`"SIMD: ..."`,
// `"SIMD collectAccesses: ..."`) so a reader moving between the two
// codebases sees the same texture.
type WriterTracer struct {
	W      io.Writer
	Prefix string
}

func (t WriterTracer) Tracef(format string, args ...any) {
	prefix := t.Prefix
	if prefix == "" {
		prefix = "vloop"
	}
	fmt.Fprintf(t.W, prefix+": "+format+"\n", args...)
}
