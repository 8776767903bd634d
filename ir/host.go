package ir

// Host is the set of capabilities spec.md §6 requires the surrounding
// compiler to expose. The analyzer never constructs or frees IR itself;
// every mutation and every membership/dominance question goes through
// this interface, the same separation c67's Target interface (target.go)
// draws between "what architecture am I building for" and "how do I
// build it" — here it is "what does the host IR look like" versus "how
// do I analyze it".
type Host interface {
	// IsMember reports whether n's control is inside loopHead's body.
	IsMember(n *Node, loopHead *Node) bool

	// CtrlOf returns n's owning control node.
	CtrlOf(n *Node) *Node

	// Dominates reports whether a's control dominates b's control.
	Dominates(a, b *Node) bool

	// AliasIndex returns the alias class the host assigns to a memory
	// access type; two memory nodes are in the same slice iff their
	// address types report the same index (spec.md §4.5).
	AliasIndex(t *Type) int

	// MisalignedVectorsOK reports whether the target platform can issue
	// unaligned vector loads/stores (spec.md §4.1, base=Top case).
	MisalignedVectorsOK() bool

	// VectorWidthInBytes returns the SIMD vector width for values of
	// type t, 0 if vectorization of that element type is unsupported.
	VectorWidthInBytes(t *Type) int

	// ObjectAlignmentInBytes is a compile-time constant: every object's
	// base address is guaranteed aligned to this many bytes.
	ObjectAlignmentInBytes() int

	// ValueNumberOrInsert canonicalizes n: returns an existing
	// value-equal node if one is already registered, else registers and
	// returns n itself.
	ValueNumberOrInsert(n *Node) *Node

	// MakeZero, MakeSub, MakeAdd, MakeShiftLeft and MakeConvIToL are the
	// sanctioned node-creation hooks VPointer uses to combine invariant
	// terms (spec.md §4.1, "When two invariant terms must be combined").
	MakeZero(kind Kind) *Node
	MakeSub(a, b *Node, kind Kind) *Node
	MakeAdd(a, b *Node, kind Kind) *Node
	MakeShiftLeft(x *Node, k int64, kind Kind) *Node
	MakeConvIToL(x *Node) *Node
}
