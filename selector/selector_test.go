package selector

import (
	"strings"
	"testing"

	"stitch/template"
)

func el(tag string, kids ...*template.Node) *template.Node {
	n := &template.Node{Tag: tag, Attributes: map[string]template.Attr{}}
	for _, k := range kids {
		k.Parent = n
		n.Children = append(n.Children, k)
	}
	return n
}

func classed(n *template.Node, cs ...string) *template.Node {
	n.Classes = append(n.Classes, cs...)
	return n
}

func attred(n *template.Node, key, value string) *template.Node {
	n.Attributes[key] = template.Attr{Value: value}
	return n
}

func branch(n *template.Node, chain, idx int) *template.Node {
	n.Cond = &template.Cond{Chain: chain, Branch: idx}
	return n
}

func mustParse(t *testing.T, s string) List {
	t.Helper()
	list, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return list
}

func matchTags(t *testing.T, sel string, scope ...*template.Node) string {
	t.Helper()
	var tags []string
	for _, n := range Match(mustParse(t, sel), scope) {
		tags = append(tags, n.Tag)
	}
	return strings.Join(tags, " ")
}

func TestParse_Compound(t *testing.T) {
	list := mustParse(t, "div.card#main[role=note]:first-child")
	if len(list) != 1 || len(list[0]) != 1 {
		t.Fatalf("expected a single segment, got %+v", list)
	}
	parts := list[0][0].Parts
	if len(parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(parts))
	}
	want := []struct {
		kind PartKind
		name string
	}{
		{KindType, "div"},
		{KindClass, "card"},
		{KindID, "main"},
		{KindAttr, "role"},
		{KindPseudo, "first-child"},
	}
	for i, w := range want {
		if parts[i].Kind != w.kind || parts[i].Name != w.name {
			t.Errorf("part %d: got kind=%d name=%q, want kind=%d name=%q",
				i, parts[i].Kind, parts[i].Name, w.kind, w.name)
		}
	}
	if parts[3].Op != AttrEquals || parts[3].Value != "note" {
		t.Errorf("attribute part: got op=%d value=%q", parts[3].Op, parts[3].Value)
	}
}

func TestParse_ListAndCombinators(t *testing.T) {
	list := mustParse(t, "h1, h2 > span ~ i")
	if len(list) != 2 {
		t.Fatalf("expected 2 complex selectors, got %d", len(list))
	}
	second := list[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(second))
	}
	if second[0].Comb != CombNone || second[1].Comb != CombChild || second[2].Comb != CombGeneral {
		t.Errorf("unexpected combinators: %q %q %q",
			second[0].Comb, second[1].Comb, second[2].Comb)
	}
}

func TestParse_LeadingCombinator(t *testing.T) {
	list := mustParse(t, "> p")
	if len(list[0]) != 1 || list[0][0].Comb != CombChild {
		t.Fatalf("expected leading child combinator, got %+v", list[0])
	}
}

func TestParse_SelectorArgs(t *testing.T) {
	list := mustParse(t, "div:has(> img, span.badge)")
	args := list[0][0].Parts[1].Args
	if len(args) != 2 {
		t.Fatalf("expected 2 argument selectors, got %d", len(args))
	}
	if args[0][0].Comb != CombChild {
		t.Errorf("first argument should carry a leading child combinator")
	}
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{"", "div >", "div,", "[=x]", ".", ":has(", "div:has(>)"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestMatch_ScopeIncludesSelf(t *testing.T) {
	root := el("div", el("p"), el("span"))
	if got := matchTags(t, "p", root); got != "p" {
		t.Errorf("got %q, want %q", got, "p")
	}
	// a plain compound may match the scope node itself
	if got := matchTags(t, "div", root); got != "div" {
		t.Errorf("got %q, want %q", got, "div")
	}
}

func TestMatch_NestingAnchor(t *testing.T) {
	inner := el("div")
	root := el("div", el("p", inner))
	if got := Match(mustParse(t, "&"), []*template.Node{root}); len(got) != 1 || got[0] != root {
		t.Fatalf("& should match the scope node only, got %d nodes", len(got))
	}
	if got := matchTags(t, "& p", root); got != "p" {
		t.Errorf("got %q, want %q", got, "p")
	}
}

func TestMatch_Combinators(t *testing.T) {
	root := el("section",
		el("h1"),
		el("p", el("em")),
		el("ul", el("li"), el("li")),
	)
	for _, tc := range []struct{ sel, want string }{
		{"section em", "em"},
		{"section > p", "p"},
		{"h1 + p", "p"},
		{"h1 ~ ul", "ul"},
		{"p + p", ""},
		{"> h1", "h1"},
	} {
		if got := matchTags(t, tc.sel, root); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.sel, got, tc.want)
		}
	}
}

func TestMatch_Attributes(t *testing.T) {
	a := attred(el("a"), "href", "https://example.com/docs")
	b := attred(el("b"), "data-kind", "note card")
	c := attred(el("c"), "lang", "en-US")
	d := el("d")
	d.Attributes["hidden"] = template.Attr{Boolean: true}
	root := el("div", a, b, c, d)
	for _, tc := range []struct{ sel, want string }{
		{`[href]`, "a"},
		{`[href="https://example.com/docs"]`, "a"},
		{`[href^="https://"]`, "a"},
		{`[href$=docs]`, "a"},
		{`[href*=example]`, "a"},
		{`[data-kind~=card]`, "b"},
		{`[lang|=en]`, "c"},
		{`[hidden]`, "d"},
		{`[hidden=""]`, ""},
	} {
		if got := matchTags(t, tc.sel, root); got != tc.want {
			t.Errorf("%q: got %q, want %q", tc.sel, got, tc.want)
		}
	}
}

func TestMatch_Structural(t *testing.T) {
	root := el("ul",
		el("li"), el("li"), el("li"), el("li"), el("li"),
	)
	for _, tc := range []struct {
		sel  string
		want int
	}{
		{"li:first-child", 1},
		{"li:last-child", 1},
		{"li:nth-child(odd)", 3},
		{"li:nth-child(2n)", 2},
		{"li:nth-child(-n+3)", 3},
		{"li:nth-child(3)", 1},
		{"li:nth-last-child(-n+2)", 2},
		{"li:nth-child(bogus)", 5},
		{"li:only-child", 0},
	} {
		got := Match(mustParse(t, tc.sel), []*template.Node{root})
		if len(got) != tc.want {
			t.Errorf("%q: got %d nodes, want %d", tc.sel, len(got), tc.want)
		}
	}
	first3 := Match(mustParse(t, "li:nth-child(-n+3)"), []*template.Node{root})
	for i, n := range first3 {
		if n != root.Children[i] {
			t.Errorf("-n+3 should match the first three children in order")
		}
	}
}

func TestMatch_OfType(t *testing.T) {
	root := el("div", el("h1"), el("p"), el("p"), el("span"), el("p"))
	for _, tc := range []struct {
		sel  string
		want int
	}{
		{"p:first-of-type", 1},
		{"p:last-of-type", 1},
		{"p:nth-of-type(2)", 1},
		{"span:only-of-type", 1},
		{"p:only-of-type", 0},
	} {
		if got := Match(mustParse(t, tc.sel), []*template.Node{root}); len(got) != tc.want {
			t.Errorf("%q: got %d nodes, want %d", tc.sel, len(got), tc.want)
		}
	}
}

func TestMatch_HasChildVersusDescendant(t *testing.T) {
	deep := el("div", el("p", el("img")))
	shallow := el("div", el("img"))
	root := el("main", deep, shallow)
	got := Match(mustParse(t, "div:has(> img)"), []*template.Node{root})
	if len(got) != 1 || got[0] != shallow {
		t.Fatalf("div:has(> img) should match only the direct parent")
	}
	got = Match(mustParse(t, "div:has(img)"), []*template.Node{root})
	if len(got) != 2 {
		t.Fatalf("div:has(img) should match both containers, got %d", len(got))
	}
}

func TestMatch_HasSibling(t *testing.T) {
	label := el("label")
	input := el("input")
	root := el("form", label, input)
	got := Match(mustParse(t, "label:has(+ input)"), []*template.Node{root})
	if len(got) != 1 || got[0] != label {
		t.Fatalf("label:has(+ input) should match the label")
	}
}

func TestMatch_IsAndNot(t *testing.T) {
	root := el("main",
		el("div", el("span")),
		el("p", el("span")),
	)
	got := Match(mustParse(t, ":is(div > span)"), []*template.Node{root})
	if len(got) != 1 || got[0].Parent.Tag != "div" {
		t.Fatalf(":is(div > span) should match only the span under div")
	}
	root2 := el("div", classed(el("p"), "lead"), el("p"))
	got = Match(mustParse(t, "p:not(.lead)"), []*template.Node{root2})
	if len(got) != 1 || got[0] != root2.Children[1] {
		t.Fatalf("p:not(.lead) should match only the unclassed paragraph")
	}
}

func TestMatch_RuntimeAndUnknownPseudos(t *testing.T) {
	root := el("div", el("a"), el("p"))
	if got := matchTags(t, "a:hover", root); got != "a" {
		t.Errorf("runtime pseudo-class should not exclude nodes, got %q", got)
	}
	if got := matchTags(t, "p:frobnicate", root); got != "p" {
		t.Errorf("unknown pseudo-class should not exclude nodes, got %q", got)
	}
	if got := matchTags(t, "p::first-line", root); got != "p" {
		t.Errorf("pseudo-element should not exclude nodes, got %q", got)
	}
}

func TestMatch_ConditionalSiblings(t *testing.T) {
	a := branch(el("a"), 0, 0)
	b := branch(el("b"), 0, 1)
	c := el("c")
	root := el("div", a, b, c)
	if got := matchTags(t, "a + *", root); got != "c" {
		t.Errorf("a + *: got %q, want %q (alternatives never coexist)", got, "c")
	}
	if got := matchTags(t, "b + c", root); got != "c" {
		t.Errorf("b + c: got %q, want %q", got, "c")
	}
	if got := matchTags(t, "a + b", root); got != "" {
		t.Errorf("a + b: got %q, want no match", got)
	}
	// b is the first child in any rendering that includes it
	got := Match(mustParse(t, "b:first-child"), []*template.Node{root})
	if len(got) != 1 {
		t.Errorf("b:first-child should match within the filtered sibling list")
	}
}

func TestMatch_DedupAcrossList(t *testing.T) {
	root := el("div", el("p"))
	got := Match(mustParse(t, "p, div p"), []*template.Node{root})
	if len(got) != 1 {
		t.Fatalf("expected deduplicated result, got %d nodes", len(got))
	}
}

func TestParseNth(t *testing.T) {
	for _, tc := range []struct {
		in   string
		a, b int
		ok   bool
	}{
		{"odd", 2, 1, true},
		{"even", 2, 0, true},
		{"3", 0, 3, true},
		{"2n+1", 2, 1, true},
		{"2n + 1", 2, 1, true},
		{"-n+3", -1, 3, true},
		{"n", 1, 0, true},
		{"+n-2", 1, -2, true},
		{"garbage", 0, 0, false},
	} {
		a, b, ok := parseNth(tc.in)
		if a != tc.a || b != tc.b || ok != tc.ok {
			t.Errorf("parseNth(%q) = (%d,%d,%v), want (%d,%d,%v)",
				tc.in, a, b, ok, tc.a, tc.b, tc.ok)
		}
	}
}
