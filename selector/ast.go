// Package selector parses CSS selector strings and matches them against
// template trees at compile time.
package selector

// Combinator relates one compound selector to the previous one.
type Combinator byte

const (
	CombNone       Combinator = 0 // first compound of a complex selector
	CombDescendant Combinator = ' '
	CombChild      Combinator = '>'
	CombAdjacent   Combinator = '+'
	CombGeneral    Combinator = '~'
)

func (c Combinator) String() string {
	if c == CombNone {
		return ""
	}
	return string(byte(c))
}

// PartKind discriminates simple selector parts.
type PartKind int

const (
	KindUniversal PartKind = iota // *
	KindType                      // div
	KindClass                     // .foo
	KindID                        // #bar
	KindAttr                      // [a=b]
	KindPseudo                    // :hover, :nth-child(...), :has(...)
	KindNesting                   // &
)

// AttrOp is an attribute selector operator.
type AttrOp int

const (
	AttrPresent  AttrOp = iota
	AttrEquals          // =
	AttrPrefix          // ^=
	AttrSuffix          // $=
	AttrContains        // *=
	AttrIncludes        // ~=
	AttrDash            // |=
)

// Part is one simple selector.
type Part struct {
	Kind  PartKind
	Name  string // tag, class, id, attribute or pseudo-class name
	Op    AttrOp // attribute operator
	Value string // attribute value
	Args  List   // inner selectors of :has/:is/:where/:not
	Raw   string // raw argument text of other functional pseudo-classes
}

// Compound is a sequence of simple selectors that must all match one node.
type Compound []Part

// Segment is a compound with the combinator linking it to the segment
// before it.
type Segment struct {
	Comb  Combinator
	Parts Compound
}

// Complex is a full selector: segments in source order, left to right.
type Complex []Segment

// List is a comma-separated selector list.
type List []Complex
