package registry

import (
	"fmt"
	"sort"

	"blemap/internal/identifier"
)

// Node is one level of the known-functionality table. A node is either a
// leaf holding identifiers or a branch holding named children, never both.
type Node struct {
	Identifiers []identifier.Identifier
	Children    map[string]*Node
	leaf        bool
}

// NewLeaf builds a leaf node.
func NewLeaf(ids ...identifier.Identifier) *Node {
	return &Node{Identifiers: ids, leaf: true}
}

// NewBranch builds a branch node.
func NewBranch(children map[string]*Node) *Node {
	if children == nil {
		children = map[string]*Node{}
	}
	return &Node{Children: children}
}

// IsLeaf reports whether the node holds identifiers directly.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Names returns the child names of a branch in sorted order.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk visits every leaf below n with the path of names leading to it.
func (n *Node) Walk(fn func(path []string, ids []identifier.Identifier)) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, []identifier.Identifier)) {
	if n.leaf {
		fn(path, n.Identifiers)
		return
	}
	for _, name := range n.Names() {
		next := append(append([]string(nil), path...), name)
		n.Children[name].walk(next, fn)
	}
}

// All returns every identifier below n, de-duplicated, in walk order.
func (n *Node) All() []identifier.Identifier {
	seen := map[identifier.Identifier]struct{}{}
	var out []identifier.Identifier
	n.Walk(func(_ []string, ids []identifier.Identifier) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	})
	return out
}

// KnownTable holds identifiers whose function is already known by other means.
type KnownTable struct {
	root *Node
	set  map[identifier.Identifier]struct{}
}

// NewKnownTable indexes a tree whose root is a branch of categories.
func NewKnownTable(root *Node) *KnownTable {
	if root == nil {
		root = NewBranch(nil)
	}
	t := &KnownTable{root: root, set: map[identifier.Identifier]struct{}{}}
	for _, id := range root.All() {
		t.set[id] = struct{}{}
	}
	return t
}

// Contains reports whether id appears anywhere in the table.
func (t *KnownTable) Contains(id identifier.Identifier) bool {
	_, ok := t.set[id]
	return ok
}

// Len returns the number of distinct known identifiers.
func (t *KnownTable) Len() int {
	return len(t.set)
}

// Categories returns the top-level category names.
func (t *KnownTable) Categories() []string {
	return t.root.Names()
}

// Category returns the subtree of a top-level category.
func (t *KnownTable) Category(name string) (*Node, bool) {
	n, ok := t.root.Children[name]
	return n, ok
}

// Root returns the root branch.
func (t *KnownTable) Root() *Node {
	return t.root
}

// Skipped describes an entry dropped while building a tree.
type Skipped struct {
	Path   []string
	Value  string
	Reason string
}

// buildNode converts a decoded document (JSON or TOML) into a Node.
// Lists become leaves, mappings become branches. Unparseable identifiers and
// values of any other type are reported in skipped instead of failing the load.
func buildNode(path []string, v interface{}, skipped *[]Skipped) (*Node, bool) {
	switch val := v.(type) {
	case []interface{}:
		ids := make([]identifier.Identifier, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				*skipped = append(*skipped, Skipped{Path: path, Value: fmt.Sprint(item), Reason: "not a string"})
				continue
			}
			id, err := identifier.Parse(s)
			if err != nil {
				*skipped = append(*skipped, Skipped{Path: path, Value: s, Reason: "not an identifier"})
				continue
			}
			ids = append(ids, id)
		}
		return NewLeaf(ids...), true
	case map[string]interface{}:
		children := make(map[string]*Node, len(val))
		for name, child := range val {
			childPath := append(append([]string(nil), path...), name)
			if node, ok := buildNode(childPath, child, skipped); ok {
				children[name] = node
			}
		}
		return NewBranch(children), true
	default:
		*skipped = append(*skipped, Skipped{Path: path, Value: fmt.Sprint(v), Reason: "neither list nor mapping"})
		return nil, false
	}
}
