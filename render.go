package htmledit

import (
	"strings"
)

// voidElements are rendered without an end tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;")
)

// EscapeText escapes &, < and > so that s can be stored as a text node.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttribute escapes s for use inside a double quoted attribute value.
func EscapeAttribute(s string) string {
	return attrEscaper.Replace(s)
}

// EscapeComment replaces every "--" by the literal text \x2D\x2D, since a
// double hyphen must not appear inside a comment. A remaining hyphen at the
// end becomes \x2D so that the comment does not end in "--->".
func EscapeComment(s string) string {
	s = strings.ReplaceAll(s, "--", `\x2D\x2D`)
	if strings.HasSuffix(s, "-") {
		s = s[:len(s)-1] + `\x2D`
	}
	return s
}

// OuterHTML renders the node including itself.
func (idx *Index) OuterHTML(id NodeID) string {
	var sb strings.Builder
	idx.render(&sb, id)
	return sb.String()
}

// InnerHTML renders the descendants of the node.
func (idx *Index) InnerHTML(id NodeID) string {
	var sb strings.Builder
	for _, c := range idx.Children(id) {
		idx.render(&sb, c)
	}
	return sb.String()
}

func (idx *Index) render(sb *strings.Builder, id NodeID) {
	n := idx.get(id)
	if n == nil {
		return
	}
	switch n.kind {
	case TextNode:
		sb.WriteString(n.data)
	case CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.data)
		sb.WriteString("-->")
	case DoctypeNode:
		sb.WriteString("<!DOCTYPE ")
		sb.WriteString(n.data)
		sb.WriteString(">")
	case DocumentNode:
		for _, c := range n.children {
			idx.render(sb, c)
		}
	case TagNode:
		sb.WriteByte('<')
		sb.WriteString(n.data)
		for _, a := range n.attrs {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteString(`="`)
			sb.WriteString(a.Val)
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if voidElements[n.data] && len(n.children) == 0 {
			return
		}
		for _, c := range n.children {
			idx.render(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.data)
		sb.WriteByte('>')
	}
}

// TextContent joins the contents of all text nodes at or below id with a
// single space. Comments and markup are ignored.
func (idx *Index) TextContent(id NodeID) string {
	var parts []string
	if idx.Kind(id) == TextNode {
		parts = append(parts, idx.Data(id))
	}
	for _, d := range idx.Descendants(id) {
		if idx.Kind(d) == TextNode {
			parts = append(parts, idx.Data(d))
		}
	}
	return strings.Join(parts, " ")
}
