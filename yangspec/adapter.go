// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package yangspec

import (
	"github.com/danos/yang/data/datanode"
	"github.com/danos/yang/xpath"

	"github.com/klement/clixon/tree"
)

// nodeAdapter presents a *tree.Node as a datanode.DataNode, the
// interface github.com/danos/yang's validator and xpath engine
// operate on, without copying the tree.
type nodeAdapter struct {
	n *tree.Node
}

func (a nodeAdapter) YangDataName() string { return a.n.Name }

// YangDataValues returns a leaf node's scalar value as a
// single-element slice, the way this API represents it; a non-leaf
// node has no value of its own and yields nil.
func (a nodeAdapter) YangDataValues() []string {
	if !a.n.IsLeaf() {
		return nil
	}
	return []string{a.n.Value}
}

func (a nodeAdapter) YangDataChildren() []datanode.DataNode {
	out := make([]datanode.DataNode, len(a.n.Children))
	for i, c := range a.n.Children {
		out[i] = nodeAdapter{c}
	}
	return out
}

func schemaDataNode(n *tree.Node) datanode.DataNode {
	return nodeAdapter{n}
}

// xpathContext wraps n as the initial nodeset Machine.Run evaluates
// against; xpath.CreateInitialNode derives the parent/sibling
// navigation the xpath engine needs from the root DataNode.
func xpathContext(n *tree.Node) xpath.Datum {
	return xpath.NewNodesetDatum(xpath.CreateInitialNode(nodeAdapter{n}))
}

func xpathResultNodes(res xpath.Datum) []*tree.Node {
	ns, ok := res.(*xpath.NodesetDatum)
	if !ok {
		return nil
	}
	out := make([]*tree.Node, 0, ns.Len())
	for _, xn := range ns.Nodes() {
		if a, ok := xn.Data().(nodeAdapter); ok {
			out = append(out, a.n)
		}
	}
	return out
}
