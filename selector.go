package htmledit

import (
	"strings"
)

// AttributeOperator is the comparison of an attribute selector.
type AttributeOperator int

const (
	// Exists matches if the attribute is present: [attr]
	Exists AttributeOperator = iota
	// Starts matches a prefix: [attr^=value]
	Starts
	// Ends matches a suffix: [attr$=value]
	Ends
	// SubstringContains matches a substring: [attr*=value]
	SubstringContains
	// WhitespaceTermContains matches one of the whitespace separated words: [attr~=value]
	WhitespaceTermContains
	// EqualsExact matches the whole value: [attr=value]
	EqualsExact
	// EqualsUpToHyphen matches the value or the part before the first hyphen: [attr|=value]
	EqualsUpToHyphen
)

// AttributeSelector constrains one attribute of an element.
type AttributeSelector struct {
	Attribute string
	Operator  AttributeOperator
	Value     string // unused for Exists
}

// PseudoClassKind is a positional constraint.
type PseudoClassKind int

const (
	FirstChild PseudoClassKind = iota
	NthChild
	FirstOfType
	NthOfType
	LastChild
	NthLastChild
	LastOfType
	NthLastOfType
)

// PseudoClass is a pseudo-class with its 1-based position argument. N is
// 1 for the First* and Last* kinds.
type PseudoClass struct {
	Kind PseudoClassKind
	N    int
}

// Selector is a compound selector. All given constraints must match.
type Selector struct {
	Element       string // "" or "*" for any element
	ID            string
	Classes       []string
	PseudoClasses []PseudoClass
	Attributes    []AttributeSelector
}

// Combinator is the relation of a step to the result of the previous step.
type Combinator int

const (
	// Start is the combinator of the first step of a path.
	Start Combinator = iota
	// Descendant is written as whitespace.
	Descendant
	// DirectChild is written as >.
	DirectChild
	// GeneralSibling is written as ~.
	GeneralSibling
	// AdjacentSibling is written as +.
	AdjacentSibling
)

// SelectorStep is one compound selector of a path with the combinator
// that leads to it.
type SelectorStep struct {
	Selector   Selector
	Combinator Combinator
}

// SelectorPath is a chain of steps. The first step has the Start
// combinator.
type SelectorPath []SelectorStep

// SelectorList is a comma separated list of paths.
type SelectorList []SelectorPath

// Matches reports whether the node satisfies all constraints of the
// compound selector. Only elements can match.
func (s Selector) Matches(idx *Index, id NodeID) bool {
	if !idx.IsTag(id) {
		return false
	}
	if s.Element != "" && s.Element != "*" && idx.TagName(id) != s.Element {
		return false
	}
	if s.ID != "" {
		if v, ok := idx.Attr(id, "id"); !ok || v != s.ID {
			return false
		}
	}
	if len(s.Classes) > 0 {
		v, ok := idx.Attr(id, "class")
		if !ok {
			return false
		}
		classes := strings.Fields(v)
		for _, class := range s.Classes {
			if !containsString(classes, class) {
				return false
			}
		}
	}
	for _, pc := range s.PseudoClasses {
		if !pc.matches(idx, id) {
			return false
		}
	}
	for _, attr := range s.Attributes {
		if !attr.matches(idx, id) {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (a AttributeSelector) matches(idx *Index, id NodeID) bool {
	v, ok := idx.Attr(id, a.Attribute)
	if !ok {
		return false
	}
	switch a.Operator {
	case Exists:
		return true
	case Starts:
		return strings.HasPrefix(v, a.Value)
	case Ends:
		return strings.HasSuffix(v, a.Value)
	case SubstringContains:
		return strings.Contains(v, a.Value)
	case WhitespaceTermContains:
		return containsString(strings.Fields(v), a.Value)
	case EqualsExact:
		return v == a.Value
	case EqualsUpToHyphen:
		if v == a.Value {
			return true
		}
		prefix, _, found := strings.Cut(v, "-")
		return found && prefix == a.Value
	}
	return false
}

// matches computes the 1-based position of the node among its element
// siblings (restricted to the same tag name for the OfType kinds), counted
// from the start or from the end.
func (pc PseudoClass) matches(idx *Index, id NodeID) bool {
	var ofType, fromEnd bool
	switch pc.Kind {
	case FirstOfType, NthOfType:
		ofType = true
	case LastChild, NthLastChild:
		fromEnd = true
	case LastOfType, NthLastOfType:
		ofType, fromEnd = true, true
	}
	name := idx.TagName(id)
	var candidates []NodeID
	for _, sib := range idx.Siblings(id) {
		if !idx.IsTag(sib) {
			continue
		}
		if ofType && idx.TagName(sib) != name {
			continue
		}
		candidates = append(candidates, sib)
	}
	n := pc.N
	if n < 1 {
		n = 1
	}
	if n > len(candidates) {
		return false
	}
	if fromEnd {
		return candidates[len(candidates)-n] == id
	}
	return candidates[n-1] == id
}

// Query resolves the path starting at the given nodes. Every step expands
// the result of the previous step by its combinator and keeps the nodes
// the step's selector matches. Duplicates are kept.
func (p SelectorPath) Query(idx *Index, start []NodeID) []NodeID {
	current := start
	for _, step := range p {
		var candidates []NodeID
		for _, src := range current {
			switch step.Combinator {
			case Start:
				candidates = append(candidates, src)
				candidates = append(candidates, idx.Descendants(src)...)
			case Descendant:
				candidates = append(candidates, idx.Descendants(src)...)
			case DirectChild:
				candidates = append(candidates, idx.Children(src)...)
			case GeneralSibling:
				candidates = append(candidates, idx.FollowingSiblings(src)...)
			case AdjacentSibling:
				for _, sib := range idx.FollowingSiblings(src) {
					if idx.IsTag(sib) {
						candidates = append(candidates, sib)
						break
					}
				}
			}
		}
		var matched []NodeID
		for _, c := range candidates {
			if step.Selector.Matches(idx, c) {
				matched = append(matched, c)
			}
		}
		current = matched
	}
	return current
}

// Query concatenates the results of all paths in list order.
func (l SelectorList) Query(idx *Index, start []NodeID) []NodeID {
	var ret []NodeID
	for _, p := range l {
		ret = append(ret, p.Query(idx, start)...)
	}
	return ret
}
