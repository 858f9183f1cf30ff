// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package tree implements the configuration tree data model of
// spec.md §3: a rooted, ordered XML tree whose elements carry an
// optional YANG schema back-reference, established at parse time by
// Bind. Trees are the sole unit of persistence and validation; every
// datastore, commit-diff and monitoring operation works in terms of
// *tree.Node.
package tree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
)

// Node is one element of a configuration tree. Leaf nodes carry Value
// and no Children; container/list nodes carry Children and an empty
// Value. List nodes are distinguished by a non-empty Key slice naming
// the child element names that form the YANG list-key tuple.
type Node struct {
	Name      string
	Namespace string
	Attrs     []xml.Attr
	Value     string
	Children  []*Node

	// Key names the child elements that form this node's identity
	// within its parent when the parent is a YANG list. Populated by
	// Bind from the loaded schema.
	Key []string

	// Schema is an opaque back-reference to the bound YANG schema
	// node, set by Bind. nil until bound.
	Schema interface{}
}

// New creates an empty root container node.
func New(name string) *Node {
	return &Node{Name: name}
}

// IsLeaf reports whether n carries a scalar value rather than
// children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Clone deep-copies n and its entire subtree. Used by the tree store
// for copy(src,dst) and by the transaction manager to take commit
// snapshots — both require that mutating the copy never affects the
// original (spec.md §4.1, §4.2 invariant 1).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Name:      n.Name,
		Namespace: n.Namespace,
		Value:     n.Value,
		Schema:    n.Schema,
	}
	if n.Attrs != nil {
		c.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}
	if n.Key != nil {
		c.Key = append([]string(nil), n.Key...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// identity returns the value that distinguishes this node from its
// siblings: the key-tuple value for list entries, or the element name
// for everything else (spec.md §4.2: "Identity is by YANG list-key
// tuple or by element identity for non-list nodes").
func (n *Node) identity() string {
	if len(n.Key) == 0 {
		return n.Name
	}
	var b bytes.Buffer
	b.WriteString(n.Name)
	for _, k := range n.Key {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.childValue(k))
	}
	return b.String()
}

func (n *Node) childValue(name string) string {
	for _, c := range n.Children {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// childByIdentity indexes n's children by identity() for O(1) lookup
// during diff and merge.
func (n *Node) childByIdentity() map[string]*Node {
	idx := make(map[string]*Node, len(n.Children))
	for _, c := range n.Children {
		idx[c.identity()] = c
	}
	return idx
}

// Equal performs the canonical compare of spec.md invariant 1 and 3:
// two trees are equal if they have the same names, namespaces, values
// and shape; attributes are not compared. The children of a node with
// a non-empty Key (a list entry) are compared positionally; the
// children of every other node are matched by identity regardless of
// position, so the relative order of list entries within their parent
// is not compared.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Name != o.Name || n.Namespace != o.Namespace || n.Value != o.Value {
		return false
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	if len(n.Key) > 0 {
		for i := range n.Children {
			if !n.Children[i].Equal(o.Children[i]) {
				return false
			}
		}
		return true
	}
	oidx := o.childByIdentity()
	seen := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		id := c.identity()
		if seen[id] {
			// duplicate non-list child names fall back to
			// positional compare below
			return n.equalPositional(o)
		}
		seen[id] = true
		oc, ok := oidx[id]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

func (n *Node) equalPositional(o *Node) bool {
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Find returns the direct child matching name, or nil.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Append adds child to n's children in order.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// SortChildren orders non-list children alphabetically by identity,
// used when canonicalizing a tree read back from two independently
// serialized sources before comparison. Equal already matches
// non-list children by identity, so this affects presentation only;
// nothing in this repository calls it.
func (n *Node) SortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		return n.Children[i].identity() < n.Children[j].identity()
	})
	for _, c := range n.Children {
		c.SortChildren()
	}
}

// Encode writes n as an XML document to w, pretty-printed if pretty.
func (n *Node) Encode(w io.Writer, pretty bool) error {
	enc := xml.NewEncoder(w)
	if pretty {
		enc.Indent("", "  ")
	}
	if err := encodeNode(enc, n); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}, Attr: n.Attrs}
	if n.Namespace != "" {
		start.Attr = append(append([]xml.Attr(nil), start.Attr...),
			xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: n.Namespace})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.IsLeaf() {
		if n.Value != "" {
			if err := enc.EncodeToken(xml.CharData(n.Value)); err != nil {
				return err
			}
		}
	} else {
		for _, c := range n.Children {
			if err := encodeNode(enc, c); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

// String renders n as a pretty-printed XML fragment, primarily for
// logging and tests.
func (n *Node) String() string {
	var b bytes.Buffer
	_ = n.Encode(&b, true)
	return b.String()
}

// Decode parses an XML document from r into a fresh tree rooted at a
// synthetic node named root; Decode does not bind it to a schema (see
// yangspec.Bind).
func Decode(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	root := New("root")
	stack := []*Node{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tree: decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Namespace: t.Name.Space}
			for _, a := range t.Attr {
				if a.Name.Local == "xmlns" && a.Name.Space == "" {
					n.Namespace = a.Value
					continue
				}
				n.Attrs = append(n.Attrs, a)
			}
			parent := stack[len(stack)-1]
			parent.Append(n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			cur := stack[len(stack)-1]
			if cur == root {
				continue
			}
			if trimmed := string(bytes.TrimSpace(t)); trimmed != "" {
				cur.Value += trimmed
			}
		}
	}
	return root, nil
}
