package dsl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultAmbiguousWords lists bare words that are common HTML tag names and
// common utility-class names at the same time. When such a word is the only
// thing in front of an opening brace inside a rule body it is taken as a
// class, not as a type selector.
var DefaultAmbiguousWords = []string{
	"flex", "grid", "table", "block", "hidden", "inline",
	"contents", "container", "caption", "content",
}

// selectorSyntax are characters whose presence makes a word a selector
// fragment rather than a bare utility token.
const selectorSyntax = ".#[:>+~*&,"

// Parser turns raw style-block text into rules, export blocks and import
// directives. It never fails on malformed input: problems are reported to
// the warning sink and parsing continues past the offending construct.
type Parser struct {
	log       *zap.Logger
	ambiguous map[string]struct{}
}

// NewParser creates a parser with the default ambiguous word list.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{log: log.Named("dsl")}
	p.AmbiguousWords(DefaultAmbiguousWords)
	return p
}

// AmbiguousWords replaces the tag/class disambiguation word list.
func (p *Parser) AmbiguousWords(words []string) {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	p.ambiguous = m
}

// Parse parses one source unit. source identifies the file for diagnostics
// and may be empty for inline text.
func (p *Parser) Parse(text []byte, source string, warn WarnFunc) *ParseResult {
	if warn == nil {
		warn = NopWarn
	}
	s := &scanner{
		parser: p,
		file:   source,
		warn:   warn,
	}
	s.src = s.stripComments(string(text))

	res := &ParseResult{}
	s.scanTop(0, len(s.src), res)

	p.log.Debug("Parsed style block",
		zap.String("source", source),
		zap.Int("rules", len(res.Rules)),
		zap.Int("exports", len(res.Exports)),
		zap.Int("imports", len(res.Imports)))
	return res
}

type scanner struct {
	parser *Parser
	src    string
	file   string
	warn   WarnFunc
}

func (s *scanner) warnAt(off int, format string, args ...any) {
	s.warn(fmt.Sprintf(format, args...), Location{File: s.file, Line: s.line(off)})
}

// line returns the 1-based line number of a byte offset.
func (s *scanner) line(off int) int {
	if off > len(s.src) {
		off = len(s.src)
	}
	return 1 + strings.Count(s.src[:off], "\n")
}

// stripComments blanks out /* ... */ spans outside of quoted strings,
// preserving newlines so later offsets map to the same line numbers.
func (s *scanner) stripComments(src string) string {
	out := []byte(src)
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '"', '\'':
			i = skipString(out, i)
		case '/':
			if i+1 < len(out) && out[i+1] == '*' {
				j := strings.Index(string(out[i+2:]), "*/")
				end := len(out)
				if j < 0 {
					s.warn("unterminated comment", Location{File: s.file, Line: 1 + strings.Count(src[:i], "\n")})
				} else {
					end = i + 2 + j + 2
				}
				for k := i; k < end; k++ {
					if out[k] != '\n' {
						out[k] = ' '
					}
				}
				i = end - 1
			}
		}
	}
	return string(out)
}

// skipString returns the index of the closing quote matching the quote at i,
// or the last index before end of input.
func skipString(b []byte, i int) int {
	q := b[i]
	for j := i + 1; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(b) - 1
}

// findDelim locates the next '{' or '}' in [lo,hi) that is outside quoted
// strings and attribute brackets. Returns -1 when there is none.
func (s *scanner) findDelim(lo, hi int) (int, byte) {
	brackets := 0
	for i := lo; i < hi; i++ {
		switch s.src[i] {
		case '"', '\'':
			i = skipString([]byte(s.src), i)
		case '[':
			brackets++
		case ']':
			if brackets > 0 {
				brackets--
			}
		case '{', '}':
			if brackets == 0 {
				return i, s.src[i]
			}
		}
	}
	return -1, 0
}

// matchBrace returns the offset of the '}' matching the '{' at open, or -1.
func (s *scanner) matchBrace(open, hi int) int {
	depth := 1
	brackets := 0
	for i := open + 1; i < hi; i++ {
		switch s.src[i] {
		case '"', '\'':
			i = skipString([]byte(s.src), i)
		case '[':
			brackets++
		case ']':
			if brackets > 0 {
				brackets--
			}
		case '{':
			if brackets == 0 {
				depth++
			}
		case '}':
			if brackets == 0 {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

type span struct{ lo, hi int }

// splitChunk splits the text in front of an opening brace into leading full
// lines and the trailing selector text. Lines ending with a comma are merged
// into the selector.
func (s *scanner) splitChunk(lo, hi int) (lines []span, selector string, selOff int) {
	var pieces []span
	start := lo
	for i := lo; i < hi; i++ {
		if s.src[i] == '\n' {
			pieces = append(pieces, span{start, i})
			start = i + 1
		}
	}
	pieces = append(pieces, span{start, hi})

	last := -1
	for i := len(pieces) - 1; i >= 0; i-- {
		if strings.TrimSpace(s.src[pieces[i].lo:pieces[i].hi]) != "" {
			last = i
			break
		}
	}
	if last < 0 {
		return nil, "", lo
	}
	first := last
	for first > 0 {
		prev := strings.TrimSpace(s.src[pieces[first-1].lo:pieces[first-1].hi])
		if !strings.HasSuffix(prev, ",") {
			break
		}
		first--
	}
	var sel []string
	for i := first; i <= last; i++ {
		if t := strings.TrimSpace(s.src[pieces[i].lo:pieces[i].hi]); t != "" {
			sel = append(sel, t)
		}
	}
	return pieces[:first], strings.Join(sel, " "), pieces[first].lo
}

// scanTop parses top-level content: rules, @export blocks and @import lines.
func (s *scanner) scanTop(lo, hi int, res *ParseResult) {
	pos := lo
	for pos < hi {
		idx, b := s.findDelim(pos, hi)
		if idx < 0 {
			s.topLines(pos, hi, res)
			return
		}
		if b == '}' {
			s.topLines(pos, idx, res)
			s.warnAt(idx, "unexpected '}'")
			pos = idx + 1
			continue
		}

		lines, sel, selOff := s.splitChunk(pos, idx)
		for _, ln := range lines {
			s.topLine(ln, res)
		}

		end := s.matchBrace(idx, hi)
		bodyHi := end
		if end < 0 {
			s.warnAt(idx, "unclosed '{'")
			bodyHi = hi
		}

		switch {
		case sel == "":
			s.warnAt(idx, "missing selector before '{'")
			rule := &StyleRule{Selector: "&"}
			s.scanBody(idx+1, bodyHi, &rule.RuleBody)
			res.Rules = append(res.Rules, rule)

		case isAtWord(sel, "@export"):
			fields := strings.Fields(sel)
			if len(fields) < 2 {
				s.warnAt(selOff, "@export requires a name")
				break
			}
			if len(fields) > 2 {
				s.warnAt(selOff, "extra content after @export name %q", fields[1])
			}
			block := &ExportBlock{Name: fields[1]}
			s.scanBody(idx+1, bodyHi, &block.RuleBody)
			res.Exports = append(res.Exports, block)

		case strings.HasPrefix(sel, "@"):
			s.warnAt(selOff, "unsupported at-rule %q, block skipped", strings.Fields(sel)[0])

		default:
			rule := &StyleRule{Selector: sel}
			s.scanBody(idx+1, bodyHi, &rule.RuleBody)
			res.Rules = append(res.Rules, rule)
		}

		if end < 0 {
			return
		}
		pos = end + 1
	}
}

// topLines handles brace-free trailing content at the top level.
func (s *scanner) topLines(lo, hi int, res *ParseResult) {
	start := lo
	for i := lo; i <= hi; i++ {
		if i == hi || s.src[i] == '\n' {
			s.topLine(span{start, i}, res)
			start = i + 1
		}
	}
}

func (s *scanner) topLine(ln span, res *ParseResult) {
	t := strings.TrimSpace(s.src[ln.lo:ln.hi])
	switch {
	case t == "":
	case isAtWord(t, "@import"):
		if imp, ok := s.parseImport(t, ln.lo); ok {
			res.Imports = append(res.Imports, imp)
		}
	case strings.HasPrefix(t, "@"):
		s.warnAt(ln.lo, "unsupported at-rule %q", strings.Fields(t)[0])
	default:
		s.warnAt(ln.lo, "unexpected content %q outside of any rule", t)
	}
}

// scanBody parses a rule or export body: classes, declarations, @use lines
// and nested child rules.
func (s *scanner) scanBody(lo, hi int, body *RuleBody) {
	pos := lo
	for pos < hi {
		idx, b := s.findDelim(pos, hi)
		if idx < 0 {
			s.bodyLines(pos, hi, body)
			return
		}
		if b == '}' {
			// Only possible when an enclosing brace was left unclosed.
			s.bodyLines(pos, idx, body)
			pos = idx + 1
			continue
		}

		lines, sel, selOff := s.splitChunk(pos, idx)
		for _, ln := range lines {
			s.bodyLine(ln, body)
		}

		end := s.matchBrace(idx, hi)
		bodyHi := end
		if end < 0 {
			s.warnAt(idx, "unclosed '{'")
			bodyHi = hi
		}

		// Leading ambiguous bare words in front of the brace are classes of
		// this body, not part of the nested selector.
		classes, rest := s.splitLeadingClasses(sel)
		body.Classes = append(body.Classes, classes...)

		var child *StyleRule
		switch {
		case rest == "" && len(classes) > 0:
			// The brace opens a sibling scope over the same match set.
			child = &StyleRule{Selector: "&"}
		case rest == "":
			s.warnAt(idx, "missing selector before '{'")
			child = &StyleRule{Selector: "&"}
		case strings.HasPrefix(rest, "@"):
			s.warnAt(selOff, "unsupported at-rule %q, block skipped", strings.Fields(rest)[0])
		default:
			child = &StyleRule{Selector: rest}
		}
		if child != nil {
			s.scanBody(idx+1, bodyHi, &child.RuleBody)
			body.Children = append(body.Children, child)
		}

		if end < 0 {
			return
		}
		pos = end + 1
	}
}

// bodyLines handles brace-free trailing content inside a body.
func (s *scanner) bodyLines(lo, hi int, body *RuleBody) {
	start := lo
	for i := lo; i <= hi; i++ {
		if i == hi || s.src[i] == '\n' {
			s.bodyLine(span{start, i}, body)
			start = i + 1
		}
	}
}

// bodyLine classifies one body line: a @use directive, a raw declaration
// (ends with ';') or space-separated utility classes.
func (s *scanner) bodyLine(ln span, body *RuleBody) {
	t := strings.TrimSpace(s.src[ln.lo:ln.hi])
	switch {
	case t == "":
	case isAtWord(t, "@use"):
		if use, ok := s.parseUse(t, ln.lo); ok {
			body.Uses = append(body.Uses, use)
		}
	case isAtWord(t, "@import"):
		s.warnAt(ln.lo, "@import is only allowed at the top level")
	case strings.HasPrefix(t, "@"):
		s.warnAt(ln.lo, "unsupported at-rule %q", strings.Fields(t)[0])
	case strings.HasSuffix(t, ";"):
		body.Declarations = append(body.Declarations, t)
	default:
		body.Classes = append(body.Classes, strings.Fields(t)...)
	}
}

// splitLeadingClasses strips leading bare ambiguous words off a selector
// candidate. "flex > p" yields ["flex"] and "> p"; "flex" alone yields
// ["flex"] and "".
func (s *scanner) splitLeadingClasses(sel string) ([]string, string) {
	var classes []string
	rest := sel
	for {
		rest = strings.TrimLeft(rest, " \t")
		word := rest
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			word = rest[:i]
		}
		if word == "" || strings.ContainsAny(word, selectorSyntax) {
			break
		}
		if _, ok := s.parser.ambiguous[word]; !ok {
			break
		}
		classes = append(classes, word)
		rest = rest[len(word):]
	}
	return classes, strings.TrimSpace(rest)
}

// parseUse parses "@use name" or "@use name from path".
func (s *scanner) parseUse(t string, off int) (UseDirective, bool) {
	rest := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t[len("@use"):]), ";"))
	if rest == "" {
		s.warnAt(off, "malformed @use: missing name")
		return UseDirective{}, false
	}
	name, tail, _ := strings.Cut(rest, " ")
	use := UseDirective{Name: name}
	tail = strings.TrimSpace(tail)
	if tail != "" {
		from, ok := strings.CutPrefix(tail, "from ")
		if !ok {
			s.warnAt(off, "malformed @use %q: expected 'from <path>'", name)
			return use, true
		}
		use.From = unquote(strings.TrimSpace(from))
		if use.From == "" {
			s.warnAt(off, "malformed @use %q: empty path", name)
		}
	}
	return use, true
}

// parseImport parses "@import name[, name...] from path".
func (s *scanner) parseImport(t string, off int) (ImportDirective, bool) {
	rest := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t[len("@import"):]), ";"))
	namesPart, from, ok := cutLast(rest, " from ")
	if !ok {
		s.warnAt(off, "malformed @import: expected 'from <path>'")
		return ImportDirective{}, false
	}
	var names []string
	for part := range strings.SplitSeq(namesPart, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	if len(names) == 0 {
		s.warnAt(off, "malformed @import: no names")
		return ImportDirective{}, false
	}
	path := unquote(strings.TrimSpace(from))
	if path == "" {
		s.warnAt(off, "malformed @import: empty path")
		return ImportDirective{}, false
	}
	return ImportDirective{Names: names, From: path}, true
}

func isAtWord(s, word string) bool {
	return s == word || strings.HasPrefix(s, word+" ") || strings.HasPrefix(s, word+"\t")
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
