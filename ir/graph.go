package ir

import "fmt"

// Graph is a concrete, in-memory Host implementation: an arena of Nodes
// plus the side tables (value-numbering cache, loop membership, control
// dominance, alias classes, platform limits) spec.md §6 asks a host
// compiler to expose. It exists so the analyzer's own tests — and any
// embedder without a fancier IR yet — have something real to run
// against; it is not meant to replace a production SSA builder.
//
// Modeled on the Program/Function/Block arena style of Typthon's
// pkg/ir (other_examples/...-typthon-compiler-pkg-optimizer-loops.go.go)
// and the value-numbering cache wazero's SSA backend keeps per function
// (other_examples/...-wazevo-backend-isa-arm64-abi.go.go).
type Graph struct {
	nodes  []*Node
	nextID int64

	vnTable map[string]*Node

	member map[int64]map[int64]bool // node ID -> loop head ID -> bool
	ctrl   map[int64]*Node
	domBy  map[int64]map[int64]bool // node ID -> set of node IDs it is dominated by

	misalignedOK    bool
	objectAlignment int
	vectorWidth     map[Kind]int
}

// NewGraph returns an empty Graph with sane platform defaults: 16-byte
// object alignment, no misaligned vector support, and a 32-byte (AVX)
// vector width for every integer kind — override via the Set* methods.
func NewGraph() *Graph {
	return &Graph{
		vnTable:         make(map[string]*Node),
		member:          make(map[int64]map[int64]bool),
		ctrl:            make(map[int64]*Node),
		domBy:           make(map[int64]map[int64]bool),
		objectAlignment: 16,
		vectorWidth: map[Kind]int{
			KindByte: 32, KindUByte: 32, KindShort: 32, KindChar: 32,
			KindInt: 32, KindLong: 32, KindBool: 32,
		},
	}
}

// Nodes returns every node the Graph has allocated, in creation order.
func (g *Graph) Nodes() []*Node { return g.nodes }

func (g *Graph) alloc(op Op, in []*Node, t *Type) *Node {
	g.nextID++
	n := &Node{ID: g.nextID, Op: op, In: in, Type: t}
	g.nodes = append(g.nodes, n)
	return n
}

// --- construction helpers used by tests to build loop bodies ---

func (g *Graph) NewConst(v int64, kind Kind) *Node {
	n := g.alloc(OpConst, nil, IntType(kind))
	n.Const = v
	return n
}

func (g *Graph) NewParam(name string, kind Kind) *Node {
	n := g.alloc(OpParam, nil, IntType(kind))
	n.Name = name
	return n
}

func (g *Graph) NewCountedLoop(name string) *Node {
	n := g.alloc(OpCountedLoop, nil, nil)
	n.Name = name
	g.ctrl[n.ID] = n
	return n
}

func (g *Graph) NewPhi(loopHead *Node, kind Kind, entry, backedge *Node) *Node {
	n := g.alloc(OpPhi, []*Node{entry, backedge}, IntType(kind))
	n.PhiLoopHead = loopHead
	g.SetCtrl(n, loopHead)
	return n
}

func (g *Graph) NewMemPhi(loopHead *Node, aliasIdx int, entry, backedge *Node) *Node {
	n := g.alloc(OpMemPhi, []*Node{entry, backedge}, MemType(KindInt, aliasIdx))
	n.PhiLoopHead = loopHead
	g.SetCtrl(n, loopHead)
	return n
}

func (g *Graph) NewAddP(base, address, offset *Node) *Node {
	return g.alloc(OpAddP, []*Node{base, address, offset}, IntType(KindLong))
}

func (g *Graph) NewBin(op Op, a, b *Node, kind Kind) *Node {
	return g.alloc(op, []*Node{a, b}, IntType(kind))
}

func (g *Graph) NewShift(op Op, x *Node, amount int64, kind Kind) *Node {
	n := g.alloc(op, []*Node{x}, IntType(kind))
	n.ShiftAmount = amount
	n.HasShiftAmt = true
	return n
}

func (g *Graph) NewConv(op Op, x *Node, kind Kind) *Node {
	return g.alloc(op, []*Node{x}, IntType(kind))
}

func (g *Graph) NewLoad(ctrl, mem, addr *Node, t *Type) *Node {
	n := g.alloc(OpLoad, []*Node{mem, addr}, t)
	g.SetCtrl(n, ctrl)
	return n
}

func (g *Graph) NewStore(ctrl, mem, addr, val *Node, t *Type) *Node {
	n := g.alloc(OpStore, []*Node{mem, addr, val}, t)
	g.SetCtrl(n, ctrl)
	return n
}

func (g *Graph) NewLoadStore(ctrl, mem, addr, val *Node, t *Type) *Node {
	n := g.alloc(OpLoadStore, []*Node{mem, addr, val}, t)
	g.SetCtrl(n, ctrl)
	return n
}

func (g *Graph) NewBool(cmp *Node) *Node {
	return g.alloc(OpBool, []*Node{cmp}, IntType(KindInt))
}

func (g *Graph) NewCmp(a, b *Node) *Node {
	return g.alloc(OpCmp, []*Node{a, b}, IntType(KindInt))
}

// SetCtrl records n's owning control node.
func (g *Graph) SetCtrl(n, ctrl *Node) {
	n.Ctrl = ctrl
	g.ctrl[n.ID] = ctrl
}

// AddToLoop marks n as a member of loopHead's body.
func (g *Graph) AddToLoop(n, loopHead *Node) {
	if g.member[n.ID] == nil {
		g.member[n.ID] = make(map[int64]bool)
	}
	g.member[n.ID][loopHead.ID] = true
}

// SetDominates records that a's control dominates b's control.
func (g *Graph) SetDominates(a, b *Node) {
	if g.domBy[b.ID] == nil {
		g.domBy[b.ID] = make(map[int64]bool)
	}
	g.domBy[b.ID][a.ID] = true
}

func (g *Graph) SetMisalignedVectorsOK(ok bool)   { g.misalignedOK = ok }
func (g *Graph) SetObjectAlignment(bytes int)     { g.objectAlignment = bytes }
func (g *Graph) SetVectorWidth(k Kind, bytes int) { g.vectorWidth[k] = bytes }

// --- Host implementation ---

func (g *Graph) IsMember(n *Node, loopHead *Node) bool {
	if n == nil || loopHead == nil {
		return false
	}
	return g.member[n.ID][loopHead.ID]
}

func (g *Graph) CtrlOf(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.Ctrl != nil {
		return n.Ctrl
	}
	return g.ctrl[n.ID]
}

func (g *Graph) Dominates(a, b *Node) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return g.domBy[b.ID][a.ID]
}

func (g *Graph) AliasIndex(t *Type) int {
	if t == nil {
		return -1
	}
	return t.AliasIndex
}

func (g *Graph) MisalignedVectorsOK() bool { return g.misalignedOK }

func (g *Graph) VectorWidthInBytes(t *Type) int {
	if t == nil {
		return 0
	}
	return g.vectorWidth[t.Kind]
}

func (g *Graph) ObjectAlignmentInBytes() int { return g.objectAlignment }

func (g *Graph) ValueNumberOrInsert(n *Node) *Node {
	key := vnKey(n)
	if existing, ok := g.vnTable[key]; ok {
		return existing
	}
	g.vnTable[key] = n
	return n
}

func vnKey(n *Node) string {
	key := fmt.Sprintf("%s:%v:", n.Op, n.Type)
	for _, in := range n.In {
		if in == nil {
			key += "nil,"
			continue
		}
		key += fmt.Sprintf("%d,", in.ID)
	}
	if n.IsConst() {
		key += fmt.Sprintf("c=%d", n.Const)
	}
	if n.HasShiftAmt {
		key += fmt.Sprintf("s=%d", n.ShiftAmount)
	}
	return key
}

func (g *Graph) MakeZero(kind Kind) *Node {
	return g.ValueNumberOrInsert(g.NewConst(0, kind))
}

func (g *Graph) MakeSub(a, b *Node, kind Kind) *Node {
	op := OpSubI
	if kind == KindLong {
		op = OpSubL
	}
	return g.ValueNumberOrInsert(g.NewBin(op, a, b, kind))
}

func (g *Graph) MakeAdd(a, b *Node, kind Kind) *Node {
	op := OpAddI
	if kind == KindLong {
		op = OpAddL
	}
	return g.ValueNumberOrInsert(g.NewBin(op, a, b, kind))
}

func (g *Graph) MakeShiftLeft(x *Node, k int64, kind Kind) *Node {
	op := OpLShiftI
	if kind == KindLong {
		op = OpLShiftL
	}
	return g.ValueNumberOrInsert(g.NewShift(op, x, k, kind))
}

func (g *Graph) MakeConvIToL(x *Node) *Node {
	return g.ValueNumberOrInsert(g.NewConv(OpConvI2L, x, KindLong))
}
