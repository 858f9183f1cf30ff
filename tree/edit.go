// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

// Op is a put() operation as defined in spec.md §4.1, following
// NETCONF edit-config (RFC 6241 §7.2) semantics. The enum shape and
// the operation names are grounded on the teacher's
// session/edit_config.go operation type.
type Op int

const (
	OpReplace Op = iota
	OpMerge
	OpRemove
	OpCreate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpReplace:
		return "replace"
	case OpMerge:
		return "merge"
	case OpRemove:
		return "remove"
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// ParseOp maps an edit-config operation attribute value to Op.
func ParseOp(s string) (Op, bool) {
	switch s {
	case "replace":
		return OpReplace, true
	case "merge":
		return OpMerge, true
	case "remove":
		return OpRemove, true
	case "create":
		return OpCreate, true
	case "delete":
		return OpDelete, true
	}
	return OpReplace, false
}

// Apply mutates base in place per op, overlaying patch, and returns
// the (possibly new) root — OpReplace on the root itself returns
// patch.Clone() since base cannot be replaced in place.
//
// Merge overlays node-by-node, list entries matched by Key identity
// (RFC 6241 merge semantics); Replace substitutes the addressed
// subtree wholesale; Create/Delete enforce the pre/post-condition
// spec.md §4.1 requires (create fails if the node is already present,
// delete fails if it is absent); Remove is delete without that
// precondition (RFC 6241 "remove" silently no-ops if absent).
func Apply(base, patch *Node, op Op) (*Node, error) {
	switch op {
	case OpReplace:
		return patch.Clone(), nil
	case OpMerge:
		mergeInto(base, patch)
		return base, nil
	case OpCreate:
		var present func(b, p *Node) *Node
		present = func(b, p *Node) *Node {
			idx := b.childByIdentity()
			for _, pc := range p.Children {
				bc, ok := idx[pc.identity()]
				if !ok {
					continue
				}
				if pc.IsLeaf() {
					return pc
				}
				if hit := present(bc, pc); hit != nil {
					return hit
				}
			}
			return nil
		}
		if hit := present(base, patch); hit != nil {
			return nil, errAlreadyExists(hit.Name)
		}
		mergeInto(base, patch)
		return base, nil
	case OpDelete, OpRemove:
		if !removeMatching(base, patch) && op == OpDelete {
			return nil, errNotPresent(patch.Name)
		}
		return base, nil
	default:
		return base, nil
	}
}

// mergeInto overlays patch's children onto base's, matching children
// by identity and recursing; leaf values are overwritten, containers
// are merged recursively, and children present only in patch are
// appended in patch's order.
func mergeInto(base, patch *Node) {
	if patch.IsLeaf() {
		base.Value = patch.Value
		return
	}
	idx := base.childByIdentity()
	for _, pc := range patch.Children {
		if bc, ok := idx[pc.identity()]; ok {
			mergeInto(bc, pc)
			continue
		}
		nc := pc.Clone()
		base.Append(nc)
		idx[nc.identity()] = nc
	}
}

// removeMatching deletes the subtree(s) of base addressed by patch:
// for each child named in patch, if that patch node is itself a leaf
// (the common case — the caller built patch as a bare path to the
// node being deleted) the matching base child is removed wholesale;
// if the patch node has its own children, removeMatching recurses so
// that only the deeper-addressed descendants are pruned. Reports
// whether anything was removed.
func removeMatching(base, patch *Node) bool {
	if patch.IsLeaf() {
		return false
	}
	removedAny := false
	var kept []*Node
	for _, bc := range base.Children {
		pc := findByIdentity(patch.Children, bc.identity())
		switch {
		case pc == nil:
			kept = append(kept, bc)
		case pc.IsLeaf():
			removedAny = true
		default:
			if removeMatching(bc, pc) {
				removedAny = true
			}
			kept = append(kept, bc)
		}
	}
	base.Children = kept
	return removedAny
}

func findByIdentity(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.identity() == id {
			return n
		}
	}
	return nil
}
