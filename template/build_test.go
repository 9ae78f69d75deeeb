package template_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"stitch/template"
)

func load(t *testing.T, markup string) []*template.Node {
	t.Helper()
	roots, err := template.Load(strings.NewReader(markup), zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return roots
}

func tags(nodes []*template.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Tag
	}
	return strings.Join(parts, " ")
}

func TestLoad_BasicTree(t *testing.T) {
	roots := load(t, `<div id="app" class="m-4 dark"><p title="x">hi</p><span/></div>`)
	if len(roots) != 1 {
		t.Fatalf("roots = %d", len(roots))
	}
	div := roots[0]
	if div.Tag != "div" || div.ID != "app" {
		t.Errorf("div = %+v", div)
	}
	if !div.HasClass("m-4") || !div.HasClass("dark") || div.HasClass("p-4") {
		t.Errorf("classes = %v", div.Classes)
	}
	if tags(div.Children) != "p span" {
		t.Fatalf("children = %q", tags(div.Children))
	}
	p := div.Children[0]
	if p.Parent != div {
		t.Error("parent back-reference not set")
	}
	if a, ok := p.Attributes["title"]; !ok || a.Value != "x" || a.Boolean {
		t.Errorf("title attr = %+v", p.Attributes)
	}
}

func TestLoad_ConditionalChains(t *testing.T) {
	roots := load(t, `
<div>
	<span v-if="a">A</span>
	<span v-else-if="b">B</span>
	<b v-else="">C</b>
	<i>always</i>
	<em v-if="z">new chain</em>
</div>`)
	kids := roots[0].Children
	if len(kids) != 5 {
		t.Fatalf("children = %q", tags(kids))
	}
	a, bn, cn, i, em := kids[0], kids[1], kids[2], kids[3], kids[4]
	if a.Cond == nil || bn.Cond == nil || cn.Cond == nil {
		t.Fatal("chain members missing conditional tags")
	}
	if a.Cond.Chain != bn.Cond.Chain || a.Cond.Chain != cn.Cond.Chain {
		t.Error("branch members should share a chain")
	}
	if a.Cond.Branch != 0 || bn.Cond.Branch != 1 || cn.Cond.Branch != 2 {
		t.Errorf("branches = %d %d %d", a.Cond.Branch, bn.Cond.Branch, cn.Cond.Branch)
	}
	if i.Cond != nil {
		t.Error("unconditioned sibling must carry no tag")
	}
	if em.Cond == nil || em.Cond.Chain == a.Cond.Chain {
		t.Error("later v-if must start a fresh chain")
	}
}

func TestLoad_ChainClosedByUnconditionedSibling(t *testing.T) {
	roots := load(t, `
<div>
	<span v-if="a">A</span>
	<i>between</i>
	<span v-else="">oops</span>
</div>`)
	kids := roots[0].Children
	if kids[2].Cond != nil {
		t.Errorf("v-else after a break must not join the chain: %+v", kids[2].Cond)
	}
}

func TestLoad_SlotSkippedAndTemplateFlattened(t *testing.T) {
	roots := load(t, `
<div>
	<slot name="header"><p>fallback</p></slot>
	<template v-if="x">
		<h2>title</h2>
		<p>body</p>
	</template>
	<footer/>
</div>`)
	kids := roots[0].Children
	if tags(kids) != "h2 p footer" {
		t.Fatalf("children = %q", tags(kids))
	}
	h2, p := kids[0], kids[1]
	if h2.Cond == nil || p.Cond == nil || h2.Cond.Chain != p.Cond.Chain || h2.Cond.Branch != p.Cond.Branch {
		t.Errorf("hoisted children must share the wrapper's branch tag: %+v %+v", h2.Cond, p.Cond)
	}
}

func TestSiblings_FiltersConditionalAlternatives(t *testing.T) {
	roots := load(t, `
<div>
	<span v-if="x" id="a"/>
	<span v-else="" id="b"/>
	<p id="c"/>
</div>`)
	kids := roots[0].Children
	a, b := kids[0], kids[1]

	got := make([]string, 0, 2)
	for _, s := range a.Siblings() {
		got = append(got, s.ID)
	}
	if strings.Join(got, " ") != "a c" {
		t.Errorf("siblings of a = %v", got)
	}

	got = got[:0]
	for _, s := range b.Siblings() {
		got = append(got, s.ID)
	}
	if strings.Join(got, " ") != "b c" {
		t.Errorf("siblings of b = %v", got)
	}
}

func TestNode_HasDynamicClass(t *testing.T) {
	roots := load(t, `<div><p v-bind:class="cls"/><span/></div>`)
	kids := roots[0].Children
	if !kids[0].HasDynamicClass() {
		t.Error("v-bind:class not detected")
	}
	if kids[1].HasDynamicClass() {
		t.Error("false positive on plain node")
	}
}

func TestLoad_MultiRootFragment(t *testing.T) {
	roots := load(t, "<header/>\n<main/>\n<footer/>")
	if tags(roots) != "header main footer" {
		t.Fatalf("roots = %q", tags(roots))
	}
	if roots[0].Siblings()[0] != roots[0] || len(roots[0].Siblings()) != 1 {
		t.Error("parentless node should be its own only sibling")
	}
}
