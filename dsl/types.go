package dsl

// Location identifies a place in a source unit for diagnostics.
// Line is 1-based; zero means the whole file.
type Location struct {
	File string
	Line int
}

// WarnFunc is the diagnostic sink. Malformed content is reported here and
// parsing/resolution continues; nothing in this package returns errors for
// bad input.
type WarnFunc func(msg string, loc Location)

// NopWarn discards diagnostics.
func NopWarn(string, Location) {}

// UseDirective is a request to inline a named export block, optionally from
// another file.
type UseDirective struct {
	Name string
	From string // empty for local exports
}

// RuleBody holds the content shared by rules and export blocks.
type RuleBody struct {
	Classes      []string       // utility tokens in source order, duplicates kept
	Declarations []string       // raw "property: value;" lines in source order
	Uses         []UseDirective // drained by resolution
	Children     []*StyleRule
}

func (b *RuleBody) cloneInto(dst *RuleBody) {
	dst.Classes = append([]string(nil), b.Classes...)
	dst.Declarations = append([]string(nil), b.Declarations...)
	dst.Uses = append([]UseDirective(nil), b.Uses...)
	if b.Children != nil {
		dst.Children = make([]*StyleRule, len(b.Children))
		for i, c := range b.Children {
			dst.Children[i] = c.Clone()
		}
	}
}

// StyleRule is one selector scope: utility classes and raw declarations
// attached to a selector, with nested child rules.
type StyleRule struct {
	Selector string
	RuleBody
}

// Clone deep-copies the rule. Every inlining site must own an independent
// subtree, shared references would be corrupted by later resolution.
func (r *StyleRule) Clone() *StyleRule {
	out := &StyleRule{Selector: r.Selector}
	r.RuleBody.cloneInto(&out.RuleBody)
	return out
}

// ExportBlock is a named, definition-only rule body. It never matches
// anything by itself; it exists to be inlined via @use.
type ExportBlock struct {
	Name string
	RuleBody
}

// Clone deep-copies the block.
func (e *ExportBlock) Clone() *ExportBlock {
	out := &ExportBlock{Name: e.Name}
	e.RuleBody.cloneInto(&out.RuleBody)
	return out
}

// ImportDirective pulls named exports from another file into the local
// registry.
type ImportDirective struct {
	Names []string
	From  string
}

// ParseResult is the parser output for one source unit.
type ParseResult struct {
	Rules   []*StyleRule
	Exports []*ExportBlock
	Imports []ImportDirective
}
