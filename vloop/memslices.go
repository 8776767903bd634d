package vloop

import "github.com/xyproto/vecloop/ir"

// Slice is one alias-disjoint memory slice: the memory phi at the loop
// header (Head) and the node feeding its backedge input (Tail), plus
// every store/load discovered walking the chain between them
// (spec.md §3/§4.5).
type Slice struct {
	Head  *ir.Node
	Tail  *ir.Node
	Stores []*ir.Node // in chain order, tail-to-head becomes head-to-tail after reverse
	Loads  []*ir.Node
}

// Users answers "what consumes n", the one def-use query spec.md §4.5
// needs that isn't in ir.Host's def-operand-oriented capability set
// (spec.md §6 lists only forward/operand queries). Hosts with a real
// use-list index supply it directly; ir.Graph callers can build one with
// ir.Graph's node slice plus a scan, exactly the pattern c67's own
// dependency_graph.go inverts call edges on demand rather than storing
// them redundantly.
type Users func(*ir.Node) []*ir.Node

// FindMemorySlices partitions the loop's memory phis into slices. A
// slice exists per memory phi whose backedge input differs from its
// entry input (spec.md §4.5); phis where they match carry no loop-local
// stores and are skipped.
func FindMemorySlices(loopHead *ir.Node, memPhis []*ir.Node, host ir.Host, users Users) ([]*Slice, error) {
	var slices []*Slice
	for _, phi := range memPhis {
		if phi == nil {
			continue
		}
		entry, backedge := phi.In0(), phi.In1()
		if entry == backedge {
			continue
		}
		s, err := getSlice(phi, backedge, loopHead, host, users)
		if err != nil {
			return nil, err
		}
		slices = append(slices, s)
	}
	return slices, nil
}

// getSlice walks up the memory chain from tail to head, collecting every
// store on the way and every load hanging off a store, per spec.md §4.5.
// Only nodes on the chain itself are checked: a MergeMem outside the
// loop or a memory phi outside the loop body terminates the walk, and
// any other non-store node on the chain is rejected. Users of a store
// other than loads are not inspected, so branches off the store chain
// are not detected or rejected.
func getSlice(head, tail, loopHead *ir.Node, host ir.Host, users Users) (*Slice, error) {
	s := &Slice{Head: head, Tail: tail}

	var storesRev []*ir.Node
	cur := tail
	for cur != nil && cur != head {
		switch cur.Op {
		case ir.OpStore:
			storesRev = append(storesRev, cur)
			if users != nil {
				for _, u := range users(cur) {
					if u != nil && u.Op == ir.OpLoad {
						s.Loads = append(s.Loads, u)
					}
				}
			}
			cur = cur.In0() // memory predecessor
		case ir.OpMergeMem:
			if host.IsMember(cur, loopHead) {
				return nil, fail(ReasonNodeNotAllowed, "MergeMem inside loop body on memory chain")
			}
			cur = nil // whitelisted: MergeMem outside the loop terminates the walk
		case ir.OpMemPhi:
			if host.IsMember(cur, loopHead) && cur != head {
				return nil, fail(ReasonNodeNotAllowed, "unexpected in-loop memory phi on chain")
			}
			cur = nil
		default:
			return nil, fail(ReasonNodeNotAllowed, "disallowed node on memory chain: "+cur.Op.String())
		}
	}

	for i := len(storesRev) - 1; i >= 0; i-- {
		s.Stores = append(s.Stores, storesRev[i])
	}
	return s, nil
}

// SameSlice reports whether two memory nodes share an alias class
// (spec.md §4.5: "Two memory nodes belong to the same slice iff the IR
// reports the same alias index for their address types").
func SameSlice(a, b *ir.Node, host ir.Host) bool {
	if a == nil || b == nil || a.Type == nil || b.Type == nil {
		return false
	}
	return host.AliasIndex(a.Type) == host.AliasIndex(b.Type)
}
