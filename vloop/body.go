package vloop

import "github.com/xyproto/vecloop/ir"

// Body is the reverse-postorder list of in-loop nodes plus a node→position
// map (spec.md §3/§4.6).
type Body struct {
	Order    []*ir.Node
	Position map[int64]int
}

// PositionOf returns n's index in Order, or -1 if n is not in the body.
func (b *Body) PositionOf(n *ir.Node) int {
	if n == nil || b == nil {
		return -1
	}
	if pos, ok := b.Position[n.ID]; ok {
		return pos
	}
	return -1
}

// disallowedInBody lists node kinds VLoopBody rejects outright
// (spec.md §4.6).
func disallowedInBody(n *ir.Node) bool {
	switch n.Op {
	case ir.OpLoadStore, ir.OpMergeMem:
		return true
	case ir.OpProj:
		return n.Type == nil || !n.Type.Memory
	default:
		return false
	}
}

// ConstructBody performs the two-pass walk of spec.md §4.6: first reject
// any disallowed node in the raw body, then emit a reverse postorder of
// out-edge-reachable nodes starting at the loop head, never crossing the
// backedge (skipping phi uses except from the loop head itself).
//
// rawBody is every node the host reports as a member of loopHead; succ
// returns n's out-edges (its data/control/memory users) restricted to
// in-loop nodes — the host-provided forward traversal VLoopBody needs
// and ir.Host does not otherwise expose (spec.md §4.6, "Depth-first over
// out-edges from the loop head").
func ConstructBody(loopHead *ir.Node, rawBody []*ir.Node, succ Users) (*Body, error) {
	for _, n := range rawBody {
		if n == nil || n == loopHead {
			continue
		}
		if disallowedInBody(n) {
			return nil, fail(ReasonNodeNotAllowed, "node not allowed in vector loop body: "+n.Op.String())
		}
	}

	inBody := make(map[int64]bool, len(rawBody))
	for _, n := range rawBody {
		if n != nil {
			inBody[n.ID] = true
		}
	}
	inBody[loopHead.ID] = true

	visited := make(map[int64]bool, len(rawBody)+1)
	var postorder []*ir.Node

	var visit func(n *ir.Node)
	visit = func(n *ir.Node) {
		if n == nil || visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, s := range succ(n) {
			if s == nil || !inBody[s.ID] {
				continue
			}
			if (s.Op == ir.OpPhi || s.Op == ir.OpMemPhi) && s.PhiLoopHead == loopHead && n != loopHead {
				// Skip the backedge: only the loop head itself may reach
				// a header phi directly in this walk.
				continue
			}
			visit(s)
		}
		postorder = append(postorder, n)
	}
	visit(loopHead)

	// Any body node the head's forward walk never reached (e.g. a phi
	// reachable only via the backedge we deliberately skipped) is still
	// part of the body; append it in encounter order after the head walk
	// so the final reverse still places every non-phi node after at
	// least one of its in-body predecessors.
	for _, n := range rawBody {
		if n != nil && !visited[n.ID] {
			visit(n)
		}
	}

	order := make([]*ir.Node, len(postorder))
	for i, n := range postorder {
		order[len(postorder)-1-i] = n
	}

	pos := make(map[int64]int, len(order))
	for i, n := range order {
		pos[n.ID] = i
	}

	return &Body{Order: order, Position: pos}, nil
}
