package htmledit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fullDocument detects input that must be parsed as a complete document
// rather than as a body fragment. A byte order mark, whitespace and comments
// may come before the first tag.
var fullDocument = regexp.MustCompile(`(?is)^\x{feff}?(?:\s|<!--.*?-->)*<(?:!doctype|html[\s>]|head[\s>]|body[\s>])`)

const byteOrderMark = "\ufeff"

// rawTextElements hold text that the parser does not unescape, so it is
// kept as is.
var rawTextElements = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

// ParseHTML reads the markup from r and returns a new index with the
// document root.
func ParseHTML(r io.Reader) (*Index, NodeID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NoNode, fmt.Errorf("read html: %w", err)
	}
	idx := NewIndex()
	root, err := idx.LoadHTML(string(data))
	if err != nil {
		return nil, NoNode, err
	}
	return idx, root, nil
}

// LoadHTML parses htmltext into the index and returns a new DocumentNode
// holding the result. Text starting with a doctype or an html, head or body
// tag (after a byte order mark, whitespace and comments) is read as a full
// document, everything else as a fragment in body context so that no html,
// head and body elements get added. A leading byte order mark is kept as the
// first text node of a document.
func (idx *Index) LoadHTML(htmltext string) (NodeID, error) {
	root := idx.NewDocument()
	if fullDocument.MatchString(htmltext) {
		// The parser would put the mark into the body and drop the doctype.
		rest, hasBOM := strings.CutPrefix(htmltext, byteOrderMark)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rest))
		if err != nil {
			return NoNode, fmt.Errorf("parse html: %w", err)
		}
		if hasBOM {
			if err := idx.AppendChild(root, idx.NewText(byteOrderMark)); err != nil {
				return NoNode, err
			}
		}
		for _, n := range doc.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if err := idx.importHTMLNode(root, c, false); err != nil {
					return NoNode, err
				}
			}
		}
		return root, nil
	}
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(htmltext), context)
	if err != nil {
		return NoNode, fmt.Errorf("parse html fragment: %w", err)
	}
	for _, n := range nodes {
		if err := idx.importHTMLNode(root, n, false); err != nil {
			return NoNode, err
		}
	}
	return root, nil
}

func (idx *Index) importHTMLNode(parent NodeID, n *html.Node, raw bool) error {
	var id NodeID
	switch n.Type {
	case html.ElementNode:
		id = idx.NewTag(n.Data)
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + key
			}
			idx.SetAttribute(id, key, EscapeAttribute(a.Val))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := idx.importHTMLNode(id, c, rawTextElements[n.Data]); err != nil {
				return err
			}
		}
	case html.TextNode:
		if raw {
			id = idx.NewText(n.Data)
		} else {
			id = idx.NewText(EscapeText(n.Data))
		}
	case html.CommentNode:
		id = idx.NewComment(n.Data)
	case html.DoctypeNode:
		id = idx.NewDoctype(n.Data)
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := idx.importHTMLNode(parent, c, false); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
	return idx.AppendChild(parent, id)
}

// Loader provides the documents for FROM-FILE. Load parses the file into idx
// and returns its root.
type Loader interface {
	Load(idx *Index, filename string) (NodeID, error)
}

// FileLoader reads documents from the file system. Relative file names are
// resolved against Dir unless FileFinder locates them first.
type FileLoader struct {
	Dir        string
	FileFinder func(string) (string, error)
}

// findFile returns the location of the file. If FileFinder is set and
// returns a location, that is used. Otherwise absolute names are returned
// unchanged and relative names are prefixed with Dir.
func (l FileLoader) findFile(filename string) string {
	if l.FileFinder != nil {
		if loc, err := l.FileFinder(filename); loc != "" && err == nil {
			return loc
		}
	}
	if l.Dir == "" || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(l.Dir, filename)
}

// Load reads and parses the named HTML file into an index of its own and
// imports the result into idx. A file that fails to parse leaves idx
// unchanged.
func (l FileLoader) Load(idx *Index, filename string) (NodeID, error) {
	filename = l.findFile(filename)
	r, err := os.Open(filename)
	if err != nil {
		return NoNode, err
	}
	defer r.Close()
	src, root, err := ParseHTML(r)
	if err != nil {
		return NoNode, fmt.Errorf("%s: %w", filename, err)
	}
	return idx.Import(src, root)
}
