// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

// Diff holds the three node sets spec.md §4.2 step 2 requires: Added
// (in source, not in running), Deleted (in running, not in source),
// Changed (present in both, subtree inequality by canonical compare).
// Identity for matching is by YANG list-key tuple or element identity
// (Node.identity), mirroring the teacher's diff.CreateChangedNSMap.
type Diff struct {
	Added   []*Node
	Deleted []*Node
	Changed []*Node
}

// Compute diffs running (the pre-commit target) against source (the
// candidate being committed), walking both trees in lock-step by
// child identity.
func Compute(running, source *Node) *Diff {
	d := &Diff{}
	walkDiff(running, source, d)
	return d
}

func walkDiff(running, source *Node, d *Diff) {
	rIdx := childIndex(running)
	sIdx := childIndex(source)

	for id, sc := range sIdx {
		rc, ok := rIdx[id]
		if !ok {
			d.Added = append(d.Added, sc)
			continue
		}
		if rc.Equal(sc) {
			continue
		}
		if rc.IsLeaf() {
			d.Changed = append(d.Changed, sc)
			continue
		}
		d.Changed = append(d.Changed, sc)
		walkDiff(rc, sc, d)
	}
	for id, rc := range rIdx {
		if _, ok := sIdx[id]; !ok {
			d.Deleted = append(d.Deleted, rc)
		}
	}
}

func childIndex(n *Node) map[string]*Node {
	if n == nil {
		return map[string]*Node{}
	}
	return n.childByIdentity()
}
