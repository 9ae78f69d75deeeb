// Package template models the element tree selectors are matched against.
// Trees are owned top-down; parent pointers are non-owning back-references
// used for ancestor walks only.
package template

// Attr is a single element attribute. Boolean marks a value-less attribute,
// which never satisfies a value-bearing attribute selector operator.
type Attr struct {
	Value   string
	Boolean bool
}

// Cond marks membership in a mutually exclusive branch construct. All
// branches of one if/else-if/else chain share Chain; Branch increments per
// alternative. A nil Cond means the node is always present.
type Cond struct {
	Chain  int
	Branch int
}

// Node is one element of the template tree.
type Node struct {
	Tag        string
	ID         string
	Classes    []string
	Attributes map[string]Attr
	Parent     *Node
	Children   []*Node
	Cond       *Cond
}

// HasClass reports whether the node carries a static class.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// AlternativeOf reports whether two nodes are alternatives of the same
// conditional chain and therefore never coexist at runtime.
func (n *Node) AlternativeOf(m *Node) bool {
	return n.Cond != nil && m.Cond != nil &&
		n.Cond.Chain == m.Cond.Chain && n.Cond.Branch != m.Cond.Branch
}

// Siblings returns the runtime sibling list of n: its parent's children with
// every conditional alternative of n removed. This is the list that would
// exist if exactly one branch of each chain were rendered; all sibling
// combinator and structural pseudo-class logic consumes it. A parentless
// node is its own only sibling.
func (n *Node) Siblings() []*Node {
	if n.Parent == nil {
		return []*Node{n}
	}
	out := make([]*Node, 0, len(n.Parent.Children))
	for _, s := range n.Parent.Children {
		if s != n && n.AlternativeOf(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// HasDynamicClass reports whether the node carries a dynamic class binding.
// Used to soften zero-match diagnostics: a selector may well match at
// runtime when classes are bound dynamically.
func (n *Node) HasDynamicClass() bool {
	if n.Attributes == nil {
		return false
	}
	for _, key := range [...]string{":class", "v-bind:class"} {
		if _, ok := n.Attributes[key]; ok {
			return true
		}
	}
	return false
}

// Walk calls fn for the node and all its descendants in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
