// Package resolve inlines @use references and applies @import directives,
// turning parser output into a flat rule tree with no remaining directives.
package resolve

import (
	"fmt"
	"path/filepath"

	"stitch/dsl"
)

// Resolve inlines every @use in the parse result, in place. The returned
// rules are pr.Rules with all uses drained; the second result is the set of
// file paths referenced by @import and from-qualified @use directives.
//
// Export bodies are resolved before the rule tree so exports can compose
// other exports regardless of definition order. Resolution never fails:
// unknown names, missing files and circular references are reported to warn
// and skipped.
func Resolve(pr *dsl.ParseResult, path string, cache *Cache, warn dsl.WarnFunc) ([]*dsl.StyleRule, map[string]struct{}) {
	if warn == nil {
		warn = dsl.NopWarn
	}
	r := &resolver{
		path:     path,
		cache:    cache,
		warn:     warn,
		registry: make(map[string]*dsl.ExportBlock),
		resolved: make(map[*dsl.ExportBlock]bool),
		active:   make(map[string]struct{}),
		deps:     make(map[string]struct{}),
	}
	r.buildRegistry(pr)
	for _, e := range pr.Exports {
		r.resolveExport(e)
	}
	for _, rule := range pr.Rules {
		r.resolveBody(&rule.RuleBody)
	}
	return pr.Rules, r.deps
}

type resolver struct {
	path     string
	cache    *Cache
	warn     dsl.WarnFunc
	registry map[string]*dsl.ExportBlock
	resolved map[*dsl.ExportBlock]bool
	active   map[string]struct{} // cycle guard, keyed by name or path#name
	deps     map[string]struct{}
}

func (r *resolver) warnf(format string, args ...any) {
	r.warn(fmt.Sprintf(format, args...), dsl.Location{File: r.path})
}

// buildRegistry fills the name registry: imported exports first, then local
// ones, so a local definition shadows an imported one and a later local
// definition shadows an earlier one. Every shadowing is diagnosed.
func (r *resolver) buildRegistry(pr *dsl.ParseResult) {
	for _, imp := range pr.Imports {
		target := r.resolvePath(imp.From)
		r.deps[target] = struct{}{}
		blocks := r.loadExports(target)
		for _, name := range imp.Names {
			block := findExport(blocks, name)
			if block == nil {
				r.warnf("@import: name %q not found in %s", name, imp.From)
				continue
			}
			if _, ok := r.registry[name]; ok {
				r.warnf("duplicate export name %q, later definition wins", name)
			}
			r.registry[name] = block
		}
	}
	for _, e := range pr.Exports {
		if _, ok := r.registry[e.Name]; ok {
			r.warnf("duplicate export name %q, later definition wins", e.Name)
		}
		r.registry[e.Name] = e
	}
}

// resolveExport drains the uses of one export body. Safe to call in any
// order: a forward reference resolves its target on demand, the active set
// breaks cycles.
func (r *resolver) resolveExport(e *dsl.ExportBlock) {
	if r.resolved[e] {
		return
	}
	r.resolved[e] = true
	r.active[e.Name] = struct{}{}
	r.resolveBody(&e.RuleBody)
	delete(r.active, e.Name)
}

func (r *resolver) resolveBody(b *dsl.RuleBody) {
	for _, use := range b.Uses {
		r.inlineUse(b, use)
	}
	b.Uses = nil
	for _, c := range b.Children {
		r.resolveBody(&c.RuleBody)
	}
}

// inlineUse appends the target block's classes and declarations after the
// body's own content and deep-clones the block's children, so every use site
// owns an independent subtree.
func (r *resolver) inlineUse(b *dsl.RuleBody, use dsl.UseDirective) {
	var block *dsl.ExportBlock
	if use.From != "" {
		target := r.resolvePath(use.From)
		r.deps[target] = struct{}{}
		key := target + "#" + use.Name
		if _, ok := r.active[key]; ok {
			r.warnf("circular @use %q from %s, skipped", use.Name, use.From)
			return
		}
		block = findExport(r.loadExports(target), use.Name)
		if block == nil {
			r.warnf("@use: name %q not found in %s", use.Name, use.From)
			return
		}
	} else {
		if _, ok := r.active[use.Name]; ok {
			r.warnf("circular @use %q, skipped", use.Name)
			return
		}
		block = r.registry[use.Name]
		if block == nil {
			r.warnf("unknown @use %q", use.Name)
			return
		}
		r.resolveExport(block)
	}

	b.Classes = append(b.Classes, block.Classes...)
	b.Declarations = append(b.Declarations, block.Declarations...)
	for _, c := range block.Children {
		b.Children = append(b.Children, c.Clone())
	}
}

func (r *resolver) loadExports(target string) []*dsl.ExportBlock {
	if r.cache == nil {
		r.warnf("no export loader available for %s", target)
		return nil
	}
	return r.cache.Exports(target, r.warn)
}

// resolvePath resolves a directive path relative to the current file.
func (r *resolver) resolvePath(from string) string {
	if filepath.IsAbs(from) {
		return filepath.Clean(from)
	}
	return filepath.Join(filepath.Dir(r.path), from)
}

// findExport returns the last block with the given name, matching the
// last-definition-wins rule.
func findExport(blocks []*dsl.ExportBlock, name string) *dsl.ExportBlock {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Name == name {
			return blocks[i]
		}
	}
	return nil
}
