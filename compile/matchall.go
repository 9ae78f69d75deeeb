// Package compile applies resolved style rules to a template tree and
// accumulates per-node classes, per-node declarations and the stylesheet
// channel.
package compile

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stitch/dsl"
	"stitch/selector"
	"stitch/template"
)

// Result is the accumulation surface of MatchAll.
type Result struct {
	classes map[*template.Node][]string
	seen    map[*template.Node]map[string]struct{}
	decls   map[*template.Node][]string
	matched map[*dsl.StyleRule]struct{}
	sheet   []sheetRule
}

type sheetRule struct {
	selector string
	decls    []string
}

// Classes returns the accumulated class list for a node, in rule order,
// first occurrence wins on duplicates.
func (r *Result) Classes(n *template.Node) []string { return r.classes[n] }

// Declarations returns the raw declaration lines attached to a node, in
// rule order.
func (r *Result) Declarations(n *template.Node) []string { return r.decls[n] }

// Matched reports whether the rule's selector matched at least one node.
func (r *Result) Matched(rule *dsl.StyleRule) bool {
	_, ok := r.matched[rule]
	return ok
}

// Stylesheet renders the raw declaration lines grouped per selector path,
// in rule source order. Rules without declarations are omitted.
func (r *Result) Stylesheet() string {
	var sb strings.Builder
	for _, sr := range r.sheet {
		sb.WriteString(sr.selector)
		sb.WriteString(" {\n")
		for _, d := range sr.decls {
			sb.WriteString("\t")
			sb.WriteString(d)
			sb.WriteString("\n")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

// MatchAll walks the resolved rule trees depth-first, matching every rule's
// selector against the scope established by its parent rule's match set.
// Root rules match against the template root node list. Selector problems
// and zero-match selectors are diagnostics, never errors.
func MatchAll(rules []*dsl.StyleRule, roots []*template.Node, log *zap.Logger, warn dsl.WarnFunc) *Result {
	return MatchAllWith(rules, roots, nil, log, warn)
}

// MatchAllWith is MatchAll with a caller-configured matching engine, used
// when the runtime pseudo-class set differs from the default.
func MatchAllWith(rules []*dsl.StyleRule, roots []*template.Node, engine *selector.Engine, log *zap.Logger, warn dsl.WarnFunc) *Result {
	if log == nil {
		log = zap.NewNop()
	}
	if warn == nil {
		warn = dsl.NopWarn
	}
	if engine == nil {
		engine = selector.NewEngine(log)
	}
	c := &collector{
		engine: engine,
		log:    log.Named("compile"),
		warn:   warn,
		res: &Result{
			classes: make(map[*template.Node][]string),
			seen:    make(map[*template.Node]map[string]struct{}),
			decls:   make(map[*template.Node][]string),
			matched: make(map[*dsl.StyleRule]struct{}),
		},
	}
	c.dynamic = hasDynamicClasses(roots)
	for _, rule := range rules {
		c.apply(rule, roots, nil)
	}
	return c.res
}

type collector struct {
	engine  *selector.Engine
	log     *zap.Logger
	warn    dsl.WarnFunc
	res     *Result
	dynamic bool
}

func (c *collector) apply(rule *dsl.StyleRule, scope []*template.Node, path []string) {
	sel := strings.TrimSpace(rule.Selector)
	if sel == "" {
		sel = "&" // bodies without a selector re-scope to the current match set
	}
	list, err := selector.Parse(sel)
	if err != nil {
		c.warn(fmt.Sprintf("invalid selector %q: %v, rule skipped", rule.Selector, err), dsl.Location{})
		return
	}
	matched := c.engine.Match(list, scope)
	path = append(path, sel)
	if len(matched) == 0 {
		msg := fmt.Sprintf("selector %q matched no elements", strings.Join(path, " "))
		if c.dynamic {
			msg += " (template binds classes dynamically, it may match at runtime)"
		}
		c.warn(msg, dsl.Location{})
	} else {
		c.res.matched[rule] = struct{}{}
	}
	c.log.Debug("rule applied",
		zap.String("selector", rule.Selector), zap.Int("matched", len(matched)))

	for _, n := range matched {
		c.addClasses(n, rule.Classes)
		c.res.decls[n] = append(c.res.decls[n], rule.Declarations...)
	}
	if len(rule.Declarations) > 0 {
		c.res.sheet = append(c.res.sheet, sheetRule{
			selector: strings.Join(path, " "),
			decls:    append([]string(nil), rule.Declarations...),
		})
	}
	if len(matched) == 0 {
		// the parent diagnostic covers the whole subtree
		return
	}
	for _, child := range rule.Children {
		c.apply(child, matched, path)
	}
}

func (c *collector) addClasses(n *template.Node, classes []string) {
	seen := c.res.seen[n]
	if seen == nil {
		seen = make(map[string]struct{})
		c.res.seen[n] = seen
	}
	for _, cl := range classes {
		if _, dup := seen[cl]; dup {
			continue
		}
		seen[cl] = struct{}{}
		c.res.classes[n] = append(c.res.classes[n], cl)
	}
}

func hasDynamicClasses(roots []*template.Node) bool {
	for _, r := range roots {
		found := false
		r.Walk(func(n *template.Node) {
			if n.HasDynamicClass() {
				found = true
			}
		})
		if found {
			return true
		}
	}
	return false
}
