package vloop

import "github.com/xyproto/vecloop/ir"

// maxReductionChainLength bounds the cycle search in FindReductions; real
// reduction idioms (sum/min/max/product accumulators) never need more
// than a handful of hops from a phi's backedge input back to the phi
// itself, mirroring the small fixed `unrollFactor` constants c67 uses
// instead of open-ended search (loop_dependency.go).
const maxReductionChainLength = 8

// ReductionSet is the set of node identifiers recognized as participants
// in a reduction cycle (spec.md §3/§4.4).
type ReductionSet map[int64]bool

func (s ReductionSet) Has(n *ir.Node) bool { return n != nil && s[n.ID] }

// reductionOpcode reports whether op can be the arithmetic step of a
// reduction cycle and, if so, whether it is commutative (both input
// edges are interchangeable when checking "same input-edge index").
func reductionOpcode(op ir.Op) (commutative, ok bool) {
	switch op {
	case ir.OpAddI, ir.OpAddL, ir.OpMulI, ir.OpMulL:
		return true, true
	default:
		return false, false
	}
}

// FindReductions detects reduction cycles through loop's header phis
// (spec.md §4.4). For every phi other than the induction variable, it
// walks same-opcode arithmetic nodes from the phi's backedge input back
// to the phi, requiring every participant to consume the phi-bound
// operand through the same input index (modulo a commutative swap) and
// to have no use outside the cycle within the loop body. users supplies
// the def-use query for that "not used outside the cycle" check, with
// loop membership decided by host; passing a nil users skips the check.
func FindReductions(loop *ir.Node, iv *ir.Node, phis []*ir.Node, host ir.Host, users func(*ir.Node) []*ir.Node) ReductionSet {
	result := make(ReductionSet)
	for _, phi := range phis {
		if phi == nil || phi == iv {
			continue
		}
		backedge := phi.In1()
		chain, ok := walkReductionChain(phi, backedge, host, loop)
		if !ok || len(chain) == 0 {
			continue
		}
		if users != nil && usedOutsideCycle(chain, phi, users, host, loop) {
			continue
		}
		for _, n := range chain {
			result[n.ID] = true
		}
	}
	return result
}

// walkReductionChain follows same-opcode nodes from start back to phi,
// requiring every step to consume the running value through the same
// input index modulo a commutative swap.
func walkReductionChain(phi, start *ir.Node, host ir.Host, loopHead *ir.Node) ([]*ir.Node, bool) {
	if start == nil || !host.IsMember(start, loopHead) {
		return nil, false
	}
	_, isReductionOp := reductionOpcode(start.Op)
	if !isReductionOp {
		return nil, false
	}

	var chain []*ir.Node
	cur := start
	wantIndex := -1

	for i := 0; i < maxReductionChainLength; i++ {
		if cur == phi {
			return chain, true
		}
		commutative, ok := reductionOpcode(cur.Op)
		if !ok {
			return nil, false
		}
		idx := edgeIndexTo(cur, phi)
		if idx == -1 {
			// Not a direct producer of phi; must chain through another
			// same-shape node on one edge.
			next, nextIdx, found := findChainEdge(cur, start.Op, commutative, wantIndex)
			if !found {
				return nil, false
			}
			if wantIndex == -1 {
				wantIndex = nextIdx
			} else if nextIdx != wantIndex && !commutative {
				return nil, false
			}
			chain = append(chain, cur)
			cur = next
			continue
		}
		if wantIndex == -1 {
			wantIndex = idx
		} else if idx != wantIndex && !commutative {
			return nil, false
		}
		chain = append(chain, cur)
		return chain, true
	}
	return nil, false
}

// edgeIndexTo returns the input index of needle within haystack's inputs,
// or -1 if absent.
func edgeIndexTo(haystack, needle *ir.Node) int {
	for i, in := range haystack.In {
		if in == needle {
			return i
		}
	}
	return -1
}

// findChainEdge looks for exactly one input of n with the same opcode as
// chainOp, returning it and its index.
func findChainEdge(n *ir.Node, chainOp ir.Op, commutative bool, wantIndex int) (*ir.Node, int, bool) {
	var found *ir.Node
	foundIdx := -1
	for i, in := range n.In {
		if in != nil && in.Op == chainOp {
			if found != nil {
				return nil, 0, false // ambiguous: more than one candidate edge
			}
			found = in
			foundIdx = i
		}
	}
	if found == nil {
		return nil, 0, false
	}
	if wantIndex != -1 && foundIdx != wantIndex && !commutative {
		return nil, 0, false
	}
	return found, foundIdx, true
}

// usedOutsideCycle reports whether any chain member (other than the
// final link feeding back into phi) has a user inside the loop body that
// is neither in the chain nor phi itself. chain[0] is that final link.
func usedOutsideCycle(chain []*ir.Node, phi *ir.Node, users func(*ir.Node) []*ir.Node, host ir.Host, loopHead *ir.Node) bool {
	inChain := make(map[int64]bool, len(chain)+1)
	inChain[phi.ID] = true
	for _, n := range chain {
		inChain[n.ID] = true
	}
	for _, n := range chain[1:] {
		for _, u := range users(n) {
			if u != nil && !inChain[u.ID] && host.IsMember(u, loopHead) {
				return true
			}
		}
	}
	return false
}
