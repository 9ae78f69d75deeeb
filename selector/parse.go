package selector

import (
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

// Parse parses a selector list. Leading combinators are allowed, both at
// the top level (for rules written relative to their scope) and inside
// relational pseudo-classes such as :has(> img).
func Parse(s string) (List, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	list, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("unexpected %q in selector %q", p.peek().data, s)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("empty selector %q", s)
	}
	return list, nil
}

func tokenize(s string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(s))
	var toks []token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if l.Err() != io.EOF {
				return nil, fmt.Errorf("selector %q: %w", s, l.Err())
			}
			return toks, nil
		case css.CommentToken:
		default:
			toks = append(toks, token{tt, string(data)})
		}
	}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.eof() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

// skipWS consumes whitespace tokens and reports whether any were seen.
func (p *parser) skipWS() bool {
	seen := false
	for !p.eof() && p.peek().tt == css.WhitespaceToken {
		p.pos++
		seen = true
	}
	return seen
}

func (p *parser) parseList() (List, error) {
	var list List
	for {
		cx, err := p.parseComplex()
		if err != nil {
			return nil, err
		}
		list = append(list, cx)
		p.skipWS()
		if p.eof() || p.peek().tt != css.CommaToken {
			return list, nil
		}
		p.pos++ // comma
	}
}

func (p *parser) parseComplex() (Complex, error) {
	var cx Complex
	p.skipWS()
	for {
		comb := CombNone
		if sawWS := p.skipWS(); sawWS && len(cx) > 0 {
			comb = CombDescendant
		}
		if t := p.peek(); t.tt == css.DelimToken {
			switch t.data {
			case ">":
				comb = CombChild
				p.pos++
				p.skipWS()
			case "+":
				comb = CombAdjacent
				p.pos++
				p.skipWS()
			case "~":
				comb = CombGeneral
				p.pos++
				p.skipWS()
			}
		}
		if p.eof() || p.peek().tt == css.CommaToken {
			if comb != CombNone && comb != CombDescendant {
				return nil, fmt.Errorf("dangling combinator %q", comb)
			}
			if len(cx) == 0 {
				return nil, fmt.Errorf("empty selector")
			}
			return cx, nil
		}
		parts, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			if comb != CombNone && comb != CombDescendant {
				return nil, fmt.Errorf("dangling combinator %q", comb)
			}
			if len(cx) == 0 {
				return nil, fmt.Errorf("unexpected %q", p.peek().data)
			}
			return cx, nil
		}
		cx = append(cx, Segment{Comb: comb, Parts: parts})
	}
}

func (p *parser) parseCompound() (Compound, error) {
	var parts Compound
	for !p.eof() {
		t := p.peek()
		switch t.tt {
		case css.IdentToken:
			p.pos++
			parts = append(parts, Part{Kind: KindType, Name: t.data})
		case css.HashToken:
			p.pos++
			parts = append(parts, Part{Kind: KindID, Name: t.data[1:]})
		case css.DelimToken:
			switch t.data {
			case "*":
				p.pos++
				parts = append(parts, Part{Kind: KindUniversal})
			case "&":
				p.pos++
				parts = append(parts, Part{Kind: KindNesting})
			case ".":
				p.pos++
				id := p.next()
				if id.tt != css.IdentToken {
					return nil, fmt.Errorf("expected class name after '.', got %q", id.data)
				}
				parts = append(parts, Part{Kind: KindClass, Name: id.data})
			default:
				return parts, nil
			}
		case css.ColonToken:
			part, err := p.parsePseudo()
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case css.LeftBracketToken:
			part, err := p.parseAttr()
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		default:
			return parts, nil
		}
	}
	return parts, nil
}

// relational pseudo-classes whose arguments are selector lists
func takesSelectorArgs(name string) bool {
	switch name {
	case "has", "is", "where", "not", "matches":
		return true
	}
	return false
}

func (p *parser) parsePseudo() (Part, error) {
	p.pos++ // ':'
	if p.peek().tt == css.ColonToken {
		p.pos++ // pseudo-elements are tolerated and treated like pseudo-classes
	}
	t := p.next()
	switch t.tt {
	case css.IdentToken:
		return Part{Kind: KindPseudo, Name: strings.ToLower(t.data)}, nil
	case css.FunctionToken:
		name := strings.ToLower(strings.TrimSuffix(t.data, "("))
		raw, err := p.rawArgs()
		if err != nil {
			return Part{}, err
		}
		part := Part{Kind: KindPseudo, Name: name, Raw: strings.TrimSpace(raw)}
		if takesSelectorArgs(name) {
			args, err := Parse(part.Raw)
			if err != nil {
				return Part{}, fmt.Errorf(":%s(%s): %w", name, part.Raw, err)
			}
			part.Args = args
		}
		return part, nil
	default:
		return Part{}, fmt.Errorf("expected pseudo-class name after ':', got %q", t.data)
	}
}

// rawArgs collects the argument text of a functional pseudo-class up to
// its matching closing parenthesis.
func (p *parser) rawArgs() (string, error) {
	var sb strings.Builder
	depth := 1
	for !p.eof() {
		t := p.next()
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return sb.String(), nil
			}
		}
		sb.WriteString(t.data)
	}
	return "", fmt.Errorf("unclosed function arguments")
}

func (p *parser) parseAttr() (Part, error) {
	p.pos++ // '['
	p.skipWS()
	name := p.next()
	if name.tt != css.IdentToken {
		return Part{}, fmt.Errorf("expected attribute name, got %q", name.data)
	}
	part := Part{Kind: KindAttr, Name: name.data, Op: AttrPresent}
	p.skipWS()
	t := p.next()
	switch t.tt {
	case css.RightBracketToken:
		return part, nil
	case css.DelimToken:
		if t.data != "=" {
			return Part{}, fmt.Errorf("unexpected %q in attribute selector", t.data)
		}
		part.Op = AttrEquals
	case css.PrefixMatchToken:
		part.Op = AttrPrefix
	case css.SuffixMatchToken:
		part.Op = AttrSuffix
	case css.SubstringMatchToken:
		part.Op = AttrContains
	case css.IncludeMatchToken:
		part.Op = AttrIncludes
	case css.DashMatchToken:
		part.Op = AttrDash
	default:
		return Part{}, fmt.Errorf("unexpected %q in attribute selector", t.data)
	}
	p.skipWS()
	val := p.next()
	switch val.tt {
	case css.StringToken:
		part.Value = unquote(val.data)
	case css.IdentToken, css.NumberToken, css.DimensionToken:
		part.Value = val.data
	default:
		return Part{}, fmt.Errorf("expected attribute value, got %q", val.data)
	}
	p.skipWS()
	// case-insensitivity flag is accepted and ignored
	if p.peek().tt == css.IdentToken {
		p.pos++
		p.skipWS()
	}
	if t := p.next(); t.tt != css.RightBracketToken {
		return Part{}, fmt.Errorf("expected ']', got %q", t.data)
	}
	return part, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
