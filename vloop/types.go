package vloop

import "github.com/xyproto/vecloop/ir"

// TypeMap gives every body node its inferred vector element type
// (spec.md §3/§4.7).
type TypeMap map[int64]*ir.Type

func (m TypeMap) Of(n *ir.Node) *ir.Type {
	if n == nil {
		return nil
	}
	if t, ok := m[n.ID]; ok {
		return t
	}
	return n.Type
}

// InferTypes assigns each body node its initial element type, then
// propagates narrowed integer types backward to a fixpoint, per
// spec.md §4.7. body is in any order; candidate predecessors come
// straight off each node's own In edges, so the only def-use seam this
// pass needs is users (the same Users seam ConstructBody and
// FindMemorySlices need) to check that every in-body consumer of a
// candidate has already narrowed to the same type.
func InferTypes(body []*ir.Node, users Users) TypeMap {
	types := make(TypeMap, len(body))
	inBody := make(map[int64]bool, len(body))
	for _, n := range body {
		if n != nil {
			inBody[n.ID] = true
		}
	}

	for _, n := range body {
		types[n.ID] = initialType(n)
	}

	changed := true
	for changed {
		changed = false
		for _, n := range body {
			if n == nil {
				continue
			}
			if propagateBoolCmp(n, types, inBody) {
				changed = true
				continue
			}
			if isNarrowPreservingOp(n.Op) {
				if narrowPreservingException(n, types, inBody) {
					changed = true
				}
				continue
			}
			// Candidate inputs carrying a narrowing signal: every operand
			// of an arithmetic/shift node, or just the value operand of a
			// Store (a store's declared element kind is the ultimate
			// narrowing signal for the value chain feeding it, but the
			// store's own type is never reassigned).
			var signalKind ir.Kind
			var candidates []*ir.Node
			switch {
			case n.Op.IsIntArith():
				nType := types[n.ID]
				if nType == nil || nType.Memory {
					continue
				}
				signalKind = nType.Kind
				candidates = n.In
			case n.Op == ir.OpStore && len(n.In) >= 3:
				nType := types[n.ID]
				if nType == nil {
					continue
				}
				signalKind = nType.Kind
				candidates = n.In[2:3]
			default:
				continue
			}
			for _, in := range candidates {
				if in == nil || !inBody[in.ID] {
					continue
				}
				eligible := in.Op.IsIntArith() || in.Op == ir.OpLoad || in.Op == ir.OpParam || in.Op == ir.OpPhi
				if !eligible {
					continue
				}
				inType := types[in.ID]
				if inType == nil || !inType.Kind.Wider(signalKind) {
					continue
				}
				if allUsersNarrowedTo(in, signalKind, users, inBody, types) {
					if !sameKind(types[in.ID], signalKind) {
						types[in.ID] = ir.IntType(signalKind)
						changed = true
					}
				}
			}
		}
	}

	return types
}

// isNarrowPreservingOp reports whether op is one of §4.7's exceptions
// that preserve higher-order bits: right shifts, AbsI, ReverseBytes.
// Left shift is unaffected and narrows like ordinary arithmetic.
func isNarrowPreservingOp(op ir.Op) bool {
	switch op {
	case ir.OpRShiftI, ir.OpRShiftL, ir.OpURShiftI, ir.OpAbsI, ir.OpReverseBytes:
		return true
	default:
		return false
	}
}

// narrowPreservingException assigns n's own type per §4.7: if its first
// operand is an in-body integer load, adopt the load's type; otherwise
// widen to full int.
func narrowPreservingException(n *ir.Node, types TypeMap, inBody map[int64]bool) bool {
	in := n.In0()
	var want ir.Kind
	if in != nil && inBody[in.ID] && in.Op == ir.OpLoad {
		if t := types[in.ID]; t != nil {
			want = t.Kind
		} else {
			want = ir.KindInt
		}
	} else {
		want = ir.KindInt
	}
	if sameKind(types[n.ID], want) {
		return false
	}
	types[n.ID] = ir.IntType(want)
	return true
}

// initialType seeds a node's element type from its IR container type:
// memory nodes take their declared access type, with the two §4.7
// adjustments (stored char -> signed short, unsigned-byte loads ->
// bool); non-memory integer nodes start at full int, except long nodes,
// which stay long.
func initialType(n *ir.Node) *ir.Type {
	if n.Type == nil {
		return nil
	}
	if n.Type.Memory {
		k := n.Type.Kind
		switch {
		case n.Op == ir.OpStore && k == ir.KindChar:
			k = ir.KindShort
		case n.Op == ir.OpLoad && k == ir.KindUByte:
			k = ir.KindBool
		}
		return ir.MemType(k, n.Type.AliasIndex)
	}
	switch n.Type.Kind {
	case ir.KindInt, ir.KindLong, ir.KindShort, ir.KindByte, ir.KindChar, ir.KindUByte, ir.KindBool:
		if n.Type.Kind == ir.KindLong {
			return ir.IntType(ir.KindLong)
		}
		return ir.IntType(ir.KindInt)
	default:
		return ir.IntType(n.Type.Kind)
	}
}

// allUsersNarrowedTo reports whether every in-body user of in already has
// element type kind, the precondition §4.7 requires before narrowing in.
func allUsersNarrowedTo(in *ir.Node, kind ir.Kind, users Users, inBody map[int64]bool, types TypeMap) bool {
	if users == nil {
		return false
	}
	found := false
	for _, u := range users(in) {
		if u == nil || !inBody[u.ID] {
			continue
		}
		found = true
		if !sameKind(types[u.ID], kind) {
			return false
		}
	}
	return found
}

func sameKind(t *ir.Type, k ir.Kind) bool { return t != nil && t.Kind == k }

// propagateBoolCmp assigns a control-free Bool/its Cmp the element type
// of whichever comparison operand is in the loop body (spec.md §4.7).
func propagateBoolCmp(n *ir.Node, types TypeMap, inBody map[int64]bool) bool {
	if n.Op != ir.OpBool || n.Ctrl != nil {
		return false
	}
	cmp := n.In0()
	if cmp == nil || cmp.Op != ir.OpCmp {
		return false
	}
	a, b := cmp.In0(), cmp.In1()
	var kind ir.Kind
	if a != nil && inBody[a.ID] {
		kind = types[a.ID].Kind
	} else if b != nil && inBody[b.ID] {
		kind = types[b.ID].Kind
	} else {
		return false
	}
	changed := false
	if !sameKind(types[n.ID], kind) {
		types[n.ID] = ir.IntType(kind)
		changed = true
	}
	if !sameKind(types[cmp.ID], kind) {
		types[cmp.ID] = ir.IntType(kind)
		changed = true
	}
	return changed
}
