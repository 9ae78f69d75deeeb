package selector

import (
	"strings"

	"go.uber.org/zap"

	"stitch/template"
)

// DefaultRuntimePseudos are pseudo-classes whose truth depends on
// runtime state. They cannot be decided against a static template, so
// the matcher treats them as always true rather than excluding nodes.
var DefaultRuntimePseudos = []string{
	"hover", "focus", "focus-within", "focus-visible", "active",
	"visited", "link", "target", "disabled", "enabled", "checked",
	"placeholder-shown", "read-only", "required", "optional",
	"valid", "invalid",
}

// Engine matches parsed selectors against template trees.
type Engine struct {
	log     *zap.Logger
	runtime map[string]struct{}
}

func NewEngine(log *zap.Logger) *Engine {
	e := &Engine{log: log, runtime: make(map[string]struct{})}
	e.RuntimePseudos(DefaultRuntimePseudos)
	return e
}

// RuntimePseudos replaces the set of pseudo-classes assumed true.
func (e *Engine) RuntimePseudos(names []string) {
	e.runtime = make(map[string]struct{}, len(names))
	for _, n := range names {
		e.runtime[strings.ToLower(n)] = struct{}{}
	}
}

// Match evaluates list against the given scope nodes and returns the
// matched nodes in document order, without duplicates. Unless a complex
// selector is anchored with & or starts with an explicit combinator, its
// first compound is matched against the scope nodes and all of their
// descendants.
func (e *Engine) Match(list List, scope []*template.Node) []*template.Node {
	m := &matcher{engine: e, scope: make(map[*template.Node]struct{}, len(scope))}
	for _, n := range scope {
		m.scope[n] = struct{}{}
	}
	var out []*template.Node
	seen := make(map[*template.Node]struct{})
	for _, cx := range list {
		for _, n := range m.matchComplex(cx, scope) {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Match is a convenience wrapper using the default runtime pseudo-class set.
func Match(list List, scope []*template.Node) []*template.Node {
	return NewEngine(zap.NewNop()).Match(list, scope)
}

type matcher struct {
	engine *Engine
	scope  map[*template.Node]struct{}
}

func (m *matcher) matchComplex(cx Complex, scope []*template.Node) []*template.Node {
	if len(cx) == 0 {
		return nil
	}
	first := cx[0]

	var set []*template.Node
	switch {
	case first.Comb != CombNone:
		// explicit leading combinator applies relative to the scope
		set = m.narrow(scope, first.Comb, first.Parts)
	case hasNesting(first.Parts):
		set = m.filter(scope, first.Parts)
	default:
		set = m.filter(m.subtree(scope), first.Parts)
	}
	for _, seg := range cx[1:] {
		comb := seg.Comb
		if comb == CombNone {
			comb = CombDescendant
		}
		set = m.narrow(set, comb, seg.Parts)
		if len(set) == 0 {
			break
		}
	}
	return set
}

func hasNesting(parts Compound) bool {
	for _, p := range parts {
		if p.Kind == KindNesting {
			return true
		}
	}
	return false
}

// subtree returns the scope nodes and their descendants in document order.
func (m *matcher) subtree(scope []*template.Node) []*template.Node {
	var out []*template.Node
	seen := make(map[*template.Node]struct{})
	for _, s := range scope {
		s.Walk(func(n *template.Node) {
			if _, dup := seen[n]; dup {
				return
			}
			seen[n] = struct{}{}
			out = append(out, n)
		})
	}
	return out
}

func (m *matcher) filter(set []*template.Node, parts Compound) []*template.Node {
	var out []*template.Node
	for _, n := range set {
		if m.matches(n, parts) {
			out = append(out, n)
		}
	}
	return out
}

// narrow advances the candidate set across one combinator.
func (m *matcher) narrow(set []*template.Node, comb Combinator, parts Compound) []*template.Node {
	var out []*template.Node
	seen := make(map[*template.Node]struct{})
	add := func(n *template.Node) {
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, n := range set {
		switch comb {
		case CombChild:
			for _, c := range n.Children {
				if m.matches(c, parts) {
					add(c)
				}
			}
		case CombDescendant:
			n.Walk(func(d *template.Node) {
				if d != n && m.matches(d, parts) {
					add(d)
				}
			})
		case CombAdjacent:
			sibs := n.Siblings()
			if i := indexOf(sibs, n); i >= 0 && i+1 < len(sibs) && m.matches(sibs[i+1], parts) {
				add(sibs[i+1])
			}
		case CombGeneral:
			sibs := n.Siblings()
			for j := indexOf(sibs, n) + 1; j > 0 && j < len(sibs); j++ {
				if m.matches(sibs[j], parts) {
					add(sibs[j])
				}
			}
		}
	}
	return out
}

func indexOf(set []*template.Node, n *template.Node) int {
	for i, s := range set {
		if s == n {
			return i
		}
	}
	return -1
}

func (m *matcher) matches(n *template.Node, parts Compound) bool {
	for _, p := range parts {
		if !m.matchPart(n, p) {
			return false
		}
	}
	return true
}

func (m *matcher) matchPart(n *template.Node, p Part) bool {
	switch p.Kind {
	case KindUniversal:
		return true
	case KindType:
		return n.Tag == p.Name
	case KindClass:
		return n.HasClass(p.Name)
	case KindID:
		return n.ID == p.Name
	case KindNesting:
		_, ok := m.scope[n]
		return ok
	case KindAttr:
		return matchAttr(n, p)
	case KindPseudo:
		return m.matchPseudo(n, p)
	}
	return false
}

func matchAttr(n *template.Node, p Part) bool {
	a, ok := n.Attributes[p.Name]
	if !ok {
		return false
	}
	if p.Op == AttrPresent {
		return true
	}
	if a.Boolean {
		return false
	}
	v := a.Value
	switch p.Op {
	case AttrEquals:
		return v == p.Value
	case AttrPrefix:
		return p.Value != "" && strings.HasPrefix(v, p.Value)
	case AttrSuffix:
		return p.Value != "" && strings.HasSuffix(v, p.Value)
	case AttrContains:
		return p.Value != "" && strings.Contains(v, p.Value)
	case AttrIncludes:
		for f := range strings.FieldsSeq(v) {
			if f == p.Value {
				return true
			}
		}
		return false
	case AttrDash:
		return v == p.Value || strings.HasPrefix(v, p.Value+"-")
	}
	return false
}

func (m *matcher) matchPseudo(n *template.Node, p Part) bool {
	switch p.Name {
	case "first-child":
		return position(n.Siblings(), n) == 1
	case "last-child":
		sibs := n.Siblings()
		return position(sibs, n) == len(sibs)
	case "only-child":
		return len(n.Siblings()) == 1
	case "first-of-type":
		return position(ofType(n.Siblings(), n.Tag), n) == 1
	case "last-of-type":
		sibs := ofType(n.Siblings(), n.Tag)
		return position(sibs, n) == len(sibs)
	case "only-of-type":
		return len(ofType(n.Siblings(), n.Tag)) == 1
	case "nth-child":
		return m.nth(p.Raw, n.Siblings(), n, false)
	case "nth-last-child":
		return m.nth(p.Raw, n.Siblings(), n, true)
	case "nth-of-type":
		return m.nth(p.Raw, ofType(n.Siblings(), n.Tag), n, false)
	case "nth-last-of-type":
		return m.nth(p.Raw, ofType(n.Siblings(), n.Tag), n, true)
	case "empty":
		return len(n.Children) == 0
	case "root":
		return n.Parent == nil
	case "has":
		return m.matchHas(n, p.Args)
	case "is", "where", "matches":
		return m.matchAny(n, p.Args)
	case "not":
		return !m.matchAny(n, p.Args)
	}
	// runtime-dependent or unknown pseudo-classes never exclude a node
	return true
}

func (m *matcher) nth(raw string, sibs []*template.Node, n *template.Node, fromEnd bool) bool {
	a, b, ok := parseNth(raw)
	if !ok {
		return true
	}
	pos := position(sibs, n)
	if pos == 0 {
		return false
	}
	if fromEnd {
		pos = len(sibs) - pos + 1
	}
	return matchNth(a, b, pos)
}

// position returns the 1-based index of n in sibs, or 0 when absent.
func position(sibs []*template.Node, n *template.Node) int {
	return indexOf(sibs, n) + 1
}

func ofType(sibs []*template.Node, tag string) []*template.Node {
	var out []*template.Node
	for _, s := range sibs {
		if s.Tag == tag {
			out = append(out, s)
		}
	}
	return out
}

// matchHas evaluates :has relative selectors forward from the subject.
// A complex selector with no explicit leading combinator is taken as a
// descendant search.
func (m *matcher) matchHas(n *template.Node, args List) bool {
	for _, cx := range args {
		set := []*template.Node{n}
		for _, seg := range cx {
			comb := seg.Comb
			if comb == CombNone {
				comb = CombDescendant
			}
			set = m.narrow(set, comb, seg.Parts)
			if len(set) == 0 {
				break
			}
		}
		if len(set) > 0 {
			return true
		}
	}
	return false
}

// matchAny reports whether n matches any complex selector in args, walking
// each one right to left from n.
func (m *matcher) matchAny(n *template.Node, args List) bool {
	for _, cx := range args {
		if len(cx) > 0 && m.matchBackward(cx, len(cx)-1, n) {
			return true
		}
	}
	return false
}

func (m *matcher) matchBackward(cx Complex, idx int, n *template.Node) bool {
	if !m.matches(n, cx[idx].Parts) {
		return false
	}
	if idx == 0 {
		return true
	}
	comb := cx[idx].Comb
	if comb == CombNone {
		comb = CombDescendant
	}
	switch comb {
	case CombChild:
		return n.Parent != nil && m.matchBackward(cx, idx-1, n.Parent)
	case CombDescendant:
		for p := n.Parent; p != nil; p = p.Parent {
			if m.matchBackward(cx, idx-1, p) {
				return true
			}
		}
	case CombAdjacent:
		sibs := n.Siblings()
		if i := indexOf(sibs, n); i > 0 {
			return m.matchBackward(cx, idx-1, sibs[i-1])
		}
	case CombGeneral:
		sibs := n.Siblings()
		for j := indexOf(sibs, n) - 1; j >= 0; j-- {
			if m.matchBackward(cx, idx-1, sibs[j]) {
				return true
			}
		}
	}
	return false
}
