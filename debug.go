package htmledit

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// quoteValue quotes s with the first quote character that does not occur
// in it. If all do, the double quote is escaped.
func quoteValue(s string) string {
	for _, q := range quoteChars {
		if !strings.ContainsRune(s, q) {
			return string(q) + s + string(q)
		}
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

var pseudoClassNames = map[PseudoClassKind]string{}

func init() {
	for name, kind := range pseudoClasses {
		pseudoClassNames[kind] = name
	}
}

func (pc PseudoClass) String() string {
	switch pc.Kind {
	case NthChild, NthOfType, NthLastChild, NthLastOfType:
		return fmt.Sprintf(":%s(%d)", pseudoClassNames[pc.Kind], pc.N)
	}
	return ":" + pseudoClassNames[pc.Kind]
}

func (a AttributeSelector) String() string {
	if a.Operator == Exists {
		return "[" + a.Attribute + "]"
	}
	op := "="
	for _, o := range attributeOperators {
		if o.op == a.Operator {
			op = o.token
			break
		}
	}
	return "[" + a.Attribute + op + quoteValue(a.Value) + "]"
}

func (s Selector) String() string {
	var sb strings.Builder
	sb.WriteString(s.Element)
	if s.ID != "" {
		sb.WriteString("#" + s.ID)
	}
	for _, c := range s.Classes {
		sb.WriteString("." + c)
	}
	for _, pc := range s.PseudoClasses {
		sb.WriteString(pc.String())
	}
	for _, a := range s.Attributes {
		sb.WriteString(a.String())
	}
	return sb.String()
}

func (p SelectorPath) String() string {
	var sb strings.Builder
	for _, step := range p {
		switch step.Combinator {
		case Descendant:
			sb.WriteString(" ")
		case DirectChild:
			sb.WriteString(" > ")
		case GeneralSibling:
			sb.WriteString(" ~ ")
		case AdjacentSibling:
			sb.WriteString(" + ")
		}
		sb.WriteString(step.Selector.String())
	}
	return sb.String()
}

func (l SelectorList) String() string {
	ret := make([]string, 0, len(l))
	for _, p := range l {
		ret = append(ret, p.String())
	}
	return strings.Join(ret, ", ")
}

func (l Literal) String() string {
	return quoteValue(l.Value)
}

func (sp StringPipeline) String() string {
	return commandString(sp.Select) + " | " + commandString(sp.Extract)
}

func (cp CreatingPipeline) String() string {
	ret := []string{commandString(cp.Command)}
	for _, c := range cp.Pipeline {
		ret = append(ret, commandString(c))
	}
	return strings.Join(ret, " | ")
}

func (p Pipeline) String() string {
	ret := make([]string, 0, len(p))
	for _, c := range p {
		ret = append(ret, commandString(c))
	}
	return strings.Join(ret, " | ")
}

func valueString(vs ValueSource) string {
	if s, ok := vs.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(vs)
}

// commandArgs returns the text between the braces of a command and whether
// the command takes arguments at all.
func commandArgs(cmd any) (string, bool) {
	switch c := cmd.(type) {
	case ExtractElement:
		return c.Selector.String(), true
	case RemoveElement:
		return c.Selector.String(), true
	case ForEach:
		return c.Selector.String() + " ↦ " + c.Pipeline.String(), true
	case ReplaceElement:
		return c.Selector.String() + " ↤ " + c.Creating.String(), true
	case ClearAttribute:
		return c.Attribute, true
	case SetAttribute:
		return c.Attribute + " ↤ " + valueString(c.Value), true
	case SetTextContent:
		return valueString(c.Value), true
	case AppendTextContent:
		return valueString(c.Value), true
	case AppendComment:
		return valueString(c.Value), true
	case PrependTextContent:
		return valueString(c.Value), true
	case PrependComment:
		return valueString(c.Value), true
	case AppendElement:
		return c.Creating.String(), true
	case PrependElement:
		return c.Creating.String(), true
	case CreateElement:
		return c.Element, true
	case FromFile:
		return quoteValue(c.Path), true
	case FromReplaced:
		return c.Selector.String(), true
	case QueryElement:
		return c.Selector.String(), true
	case QueryParent:
		return c.Selector.String(), true
	case QueryRoot:
		return c.Selector.String(), true
	case GetAttribute:
		return c.Attribute, true
	}
	return "", false
}

// commandString renders a command in its verbose spelling.
func commandString(cmd interface{ Name() string }) string {
	args, ok := commandArgs(cmd)
	if !ok {
		return cmd.Name()
	}
	return cmd.Name() + "{" + args + "}"
}

// Explain returns the pipeline as an indented tree, one command per line
// with its position.
func (p Pipeline) Explain() string {
	tree := treeprint.New()
	explainPipeline(tree, p, 0)
	return tree.String()
}

func explainPipeline(tree treeprint.Tree, p Pipeline, offset int) {
	for i, c := range p {
		label := fmt.Sprintf("%d %s", offset+i, c.Name())
		switch cmd := c.(type) {
		case ForEach:
			br := tree.AddBranch(label + " {" + cmd.Selector.String() + "}")
			explainPipeline(br, cmd.Pipeline, 0)
		case ReplaceElement:
			br := tree.AddBranch(label + " {" + cmd.Selector.String() + "}")
			explainCreating(br, cmd.Creating)
		case AppendElement:
			explainCreating(tree.AddBranch(label), cmd.Creating)
		case PrependElement:
			explainCreating(tree.AddBranch(label), cmd.Creating)
		default:
			tree.AddNode(fmt.Sprintf("%d %s", offset+i, commandString(c)))
		}
	}
}

func explainCreating(tree treeprint.Tree, cp CreatingPipeline) {
	tree.AddNode("0 " + commandString(cp.Command))
	explainPipeline(tree, cp.Pipeline, 1)
}

// describe returns a short form of a node for log messages.
func (idx *Index) describe(id NodeID) string {
	switch idx.Kind(id) {
	case TagNode:
		var sb strings.Builder
		sb.WriteString("<" + idx.TagName(id))
		for _, a := range idx.Attributes(id) {
			sb.WriteString(fmt.Sprintf(` %s="%s"`, a.Key, a.Val))
		}
		sb.WriteString(">")
		return sb.String()
	case TextNode, CommentNode:
		s := idx.Data(id)
		if len(s) > 20 {
			s = s[:20] + "..."
		}
		return fmt.Sprintf("%s %q", idx.Kind(id), s)
	}
	return idx.Kind(id).String()
}
