package template

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Load reads a markup fragment and builds the template tree. Parsing is
// permissive: real-world templates are rarely well-formed XML.
func Load(r io.Reader, log *zap.Logger) ([]*Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
		AutoClose:     xml.HTMLAutoClose,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read template: %w", err)
	}
	return Build(doc, log), nil
}

// Build converts a parsed document into template nodes. Slot placeholders
// are dropped, transparent <template> wrappers are flattened so their
// children appear at the wrapper's level, and v-if/v-else-if/v-else
// attributes on consecutive element siblings are folded into conditional
// chain tags.
func Build(doc *etree.Document, log *zap.Logger) []*Node {
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{log: log.Named("template")}
	return b.children(doc.ChildElements(), nil)
}

type builder struct {
	log    *zap.Logger
	chains int
}

// children builds one sibling list, tracking the open conditional chain.
func (b *builder) children(elems []*etree.Element, parent *Node) []*Node {
	var out []*Node
	open := -1  // chain id accepting further branches, -1 when none
	branch := 0 // next branch index in the open chain

	for _, el := range elems {
		if el.Tag == "slot" {
			// Not a render target.
			continue
		}

		var cond *Cond
		switch {
		case hasAttr(el, "v-if"):
			b.chains++
			open, branch = b.chains, 0
			cond = &Cond{Chain: open, Branch: branch}
			branch++
		case hasAttr(el, "v-else-if"):
			if open < 0 {
				b.log.Warn("v-else-if without a preceding v-if sibling", zap.String("tag", el.Tag))
				b.chains++
				open, branch = b.chains, 0
			}
			cond = &Cond{Chain: open, Branch: branch}
			branch++
		case hasAttr(el, "v-else"):
			if open >= 0 {
				cond = &Cond{Chain: open, Branch: branch}
			} else {
				b.log.Warn("v-else without a preceding v-if sibling", zap.String("tag", el.Tag))
			}
			open = -1
		default:
			open = -1
		}

		if el.Tag == "template" {
			// Transparent wrapper: hoist its children. A branch directive on
			// the wrapper applies to every hoisted child that carries no
			// chain tag of its own.
			hoisted := b.children(el.ChildElements(), parent)
			for _, h := range hoisted {
				if cond != nil && h.Cond == nil {
					h.Cond = cond
				}
				out = append(out, h)
			}
			continue
		}

		node := b.element(el, parent)
		node.Cond = cond
		out = append(out, node)
	}
	return out
}

func (b *builder) element(el *etree.Element, parent *Node) *Node {
	node := &Node{
		Tag:    el.Tag,
		Parent: parent,
	}
	if len(el.Attr) > 0 {
		node.Attributes = make(map[string]Attr, len(el.Attr))
	}
	for _, a := range el.Attr {
		key := a.FullKey()
		node.Attributes[key] = Attr{Value: a.Value, Boolean: a.Value == ""}
		switch key {
		case "class":
			node.Classes = strings.Fields(a.Value)
		case "id":
			node.ID = a.Value
		}
	}
	node.Children = b.children(el.ChildElements(), node)
	return node
}

func hasAttr(el *etree.Element, name string) bool {
	return el.SelectAttr(name) != nil
}
