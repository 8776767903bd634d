package vloop

import "github.com/xyproto/vecloop/ir"

// DependenceNode is one memory node's entry in the dependence graph, with
// a list of predecessor/successor indices and a depth equal to the
// longest path from the synthetic root (spec.md §3/§4.8).
type DependenceNode struct {
	Mem   *ir.Node
	Preds []int
	Succs []int
	Depth int
}

// DependenceGraph is a per-slice DAG over memory nodes plus one global
// root and one sink per slice (spec.md §3/§4.8). Node index 0 is always
// the root; it has no Mem.
type DependenceGraph struct {
	Nodes []*DependenceNode
	index map[int64]int // ir.Node.ID -> index into Nodes
	root  int
	sinks map[*Slice]int
}

const rootID = -1

// BuildDependenceGraph constructs the graph for every slice: within a
// slice, ops are compared in predecessor-first order; any pair whose
// VPointer comparison is not provably NOT_EQUAL gets an edge, except
// load-after-load pairs, which are never linked (spec.md §4.8).
// loop, host, and elemSizeOf let the builder construct a VPointer and
// element size for every memory node on demand.
func BuildDependenceGraph(slices []*Slice, loop *Loop, host ir.Host, elemSizeOf func(*ir.Node) int64) *DependenceGraph {
	g := &DependenceGraph{index: make(map[int64]int), sinks: make(map[*Slice]int)}
	g.Nodes = append(g.Nodes, &DependenceNode{}) // synthetic root at index 0
	g.root = 0

	for _, s := range slices {
		ops := sliceOps(s)
		nodeIdx := make([]int, len(ops))
		for i, op := range ops {
			nodeIdx[i] = g.addNode(op)
		}
		// slice head wired to root
		if len(nodeIdx) > 0 {
			g.link(g.root, nodeIdx[0])
		}
		ptrs := make([]*VPointer, len(ops))
		for i, op := range ops {
			ptrs[i] = NewVPointer(op, loop, host, nil)
		}

		hasIncoming := make([]bool, len(ops))
		hasOutgoing := make([]bool, len(ops))

		for i := 0; i < len(ops); i++ {
			for j := i + 1; j < len(ops); j++ {
				if ops[i].Op == ir.OpLoad && ops[j].Op == ir.OpLoad {
					continue
				}
				elemSize := elemSizeOf(ops[i])
				if elemSizeOf(ops[j]) < elemSize {
					elemSize = elemSizeOf(ops[j])
				}
				dependent := Cmp(ptrs[i], ptrs[j], elemSize) != CmpNotEqual || recurrenceAlias(ptrs[i], ptrs[j])
				if dependent {
					g.link(nodeIdx[i], nodeIdx[j])
					hasOutgoing[i] = true
					hasIncoming[j] = true
				}
			}
		}

		sinkIdx := g.addNode(nil)
		g.sinks[s] = sinkIdx
		for i := range ops {
			if !hasOutgoing[i] {
				g.link(nodeIdx[i], sinkIdx)
			}
			if !hasIncoming[i] {
				g.link(g.root, nodeIdx[i])
			}
		}
	}

	g.computeDepth()
	return g
}

// recurrenceAlias reports whether p1 and p2 address the same affine
// family (base/adr/invar/scale) at a nonzero integer multiple of the
// induction step. Cmp may call such a pair provably not equal for the
// current iteration, but some other iteration of the loop does alias
// them, so the dependence graph still needs an edge between them
// (spec.md §8 S2: a[i+7] and a[i] are 7 iterations apart on the same
// array).
func recurrenceAlias(p1, p2 *VPointer) bool {
	if p1 == nil || p2 == nil || !p1.ok || !p2.ok {
		return false
	}
	if p1.Base != p2.Base || p1.Adr != p2.Adr || p1.Invar != p2.Invar || p1.Scale != p2.Scale {
		return false
	}
	if p1.Scale == 0 {
		return false
	}
	diff := p1.Offset - p2.Offset
	return diff != 0 && diff%p1.Scale == 0
}

func sliceOps(s *Slice) []*ir.Node {
	ops := append([]*ir.Node{}, s.Stores...)
	ops = append(ops, s.Loads...)
	return ops
}

func (g *DependenceGraph) addNode(mem *ir.Node) int {
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, &DependenceNode{Mem: mem})
	if mem != nil {
		g.index[mem.ID] = idx
	}
	return idx
}

func (g *DependenceGraph) link(pred, succ int) {
	g.Nodes[pred].Succs = append(g.Nodes[pred].Succs, succ)
	g.Nodes[succ].Preds = append(g.Nodes[succ].Preds, pred)
}

// IndexOf returns n's node index, or -1 if n is not in the graph.
func (g *DependenceGraph) IndexOf(n *ir.Node) int {
	if n == nil {
		return -1
	}
	if idx, ok := g.index[n.ID]; ok {
		return idx
	}
	return -1
}

// computeDepth runs the fixpoint of spec.md §4.8: each non-phi node's
// depth is one more than the maximum depth of its in-body predecessors.
func (g *DependenceGraph) computeDepth() {
	changed := true
	for changed {
		changed = false
		for i, n := range g.Nodes {
			if i == g.root {
				continue
			}
			depth := 0
			for _, p := range n.Preds {
				if g.Nodes[p].Depth+1 > depth {
					depth = g.Nodes[p].Depth + 1
				}
			}
			if depth != n.Depth {
				n.Depth = depth
				changed = true
			}
		}
	}
}

// Independent reports whether the memory nodes at indices i and j can be
// treated as independent, per spec.md §4.8: if their depths differ, a
// backward BFS from the deeper node, pruned below the shallower depth,
// must not reach the shallower node; equal-depth nodes are independent
// iff they are distinct.
func (g *DependenceGraph) Independent(i, j int) bool {
	if i == j {
		return false
	}
	di, dj := g.Nodes[i].Depth, g.Nodes[j].Depth
	if di == dj {
		return true
	}
	deep, shallow := i, j
	if dj > di {
		deep, shallow = j, i
	}
	minDepth := g.Nodes[shallow].Depth
	return !g.bfsReaches(deep, shallow, minDepth)
}

// MutuallyIndependent reports whether every pair within set is
// independent, using a single BFS from all members pruned below their
// minimum depth (spec.md §4.8: "linear in the graph size").
func (g *DependenceGraph) MutuallyIndependent(set []int) bool {
	if len(set) < 2 {
		return true
	}
	minDepth := g.Nodes[set[0]].Depth
	members := make(map[int]bool, len(set))
	for _, idx := range set {
		members[idx] = true
		if g.Nodes[idx].Depth < minDepth {
			minDepth = g.Nodes[idx].Depth
		}
	}

	// Membership is checked before the visited guard: every set member
	// starts marked visited (it is its own BFS seed), so checking
	// visited first would make a member-reaches-member path unreachable.
	visited := make(map[int]bool, len(set))
	queue := append([]int{}, set...)
	for _, idx := range set {
		visited[idx] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range g.Nodes[cur].Preds {
			if p == g.root || g.Nodes[p].Depth < minDepth {
				continue
			}
			if members[p] {
				return false
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			queue = append(queue, p)
		}
	}
	return true
}

// bfsReaches reports whether, walking predecessor edges from start while
// never descending below minDepth, target is reachable.
func (g *DependenceGraph) bfsReaches(start, target, minDepth int) bool {
	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			return true
		}
		for _, p := range g.Nodes[cur].Preds {
			if p == g.root || visited[p] || g.Nodes[p].Depth < minDepth {
				continue
			}
			visited[p] = true
			queue = append(queue, p)
		}
	}
	return false
}
