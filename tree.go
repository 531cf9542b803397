package htmledit

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/net/html"
)

// ErrUnknownNode is returned when a NodeID does not name a node of the
// index.
var ErrUnknownNode = errors.New("node not in index")

// ErrCycle is returned if an insertion would make a node its own ancestor.
var ErrCycle = errors.New("node cannot become a descendant of itself")

// NodeKind tells what a node holds.
type NodeKind int

const (
	// TagNode is an element with a name and attributes.
	TagNode NodeKind = iota
	// TextNode holds character data in markup form.
	TextNode
	// CommentNode holds the text of a comment.
	CommentNode
	// DocumentNode is the root container of a parsed document.
	DocumentNode
	// DoctypeNode is a <!DOCTYPE> declaration.
	DoctypeNode
)

func (k NodeKind) String() string {
	switch k {
	case TagNode:
		return "tag"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DocumentNode:
		return "document"
	case DoctypeNode:
		return "doctype"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// NodeID is a handle to a node in an Index. Two equal ids name the same
// node, so changes through one are visible through the other.
type NodeID int

// NoNode is the id of a missing node (the parent of a root for example).
const NoNode NodeID = -1

type node struct {
	kind     NodeKind
	data     string           // tag name, text, comment or doctype name
	attrs    []html.Attribute // sorted by Key, tags only
	parent   NodeID
	children []NodeID
}

// Index is an arena that owns all nodes of a run. Nodes are never freed;
// a detached node keeps its subtree and can be inserted elsewhere.
type Index struct {
	nodes []node
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Len returns the number of nodes ever created in the index.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

func (idx *Index) add(n node) NodeID {
	n.parent = NoNode
	idx.nodes = append(idx.nodes, n)
	return NodeID(len(idx.nodes) - 1)
}

func (idx *Index) get(id NodeID) *node {
	if id < 0 || int(id) >= len(idx.nodes) {
		return nil
	}
	return &idx.nodes[id]
}

// Valid reports whether id names a node of the index.
func (idx *Index) Valid(id NodeID) bool {
	return idx.get(id) != nil
}

// NewTag creates a childless element without attributes.
func (idx *Index) NewTag(name string) NodeID {
	return idx.add(node{kind: TagNode, data: name})
}

// NewText creates a text node. The text is taken as markup and rendered
// verbatim.
func (idx *Index) NewText(text string) NodeID {
	return idx.add(node{kind: TextNode, data: text})
}

// NewComment creates a comment node.
func (idx *Index) NewComment(text string) NodeID {
	return idx.add(node{kind: CommentNode, data: text})
}

// NewDocument creates an empty document root.
func (idx *Index) NewDocument() NodeID {
	return idx.add(node{kind: DocumentNode})
}

// NewDoctype creates a doctype declaration node.
func (idx *Index) NewDoctype(name string) NodeID {
	return idx.add(node{kind: DoctypeNode, data: name})
}

// Kind returns the kind of the node. Unknown ids report DocumentNode with no
// content so that they never match a selector.
func (idx *Index) Kind(id NodeID) NodeKind {
	if n := idx.get(id); n != nil {
		return n.kind
	}
	return DocumentNode
}

// IsTag reports whether id is an element.
func (idx *Index) IsTag(id NodeID) bool {
	n := idx.get(id)
	return n != nil && n.kind == TagNode
}

// TagName returns the element name or "" for non-tags.
func (idx *Index) TagName(id NodeID) string {
	if n := idx.get(id); n != nil && n.kind == TagNode {
		return n.data
	}
	return ""
}

// Data returns the text of a text, comment or doctype node.
func (idx *Index) Data(id NodeID) string {
	if n := idx.get(id); n != nil && n.kind != TagNode {
		return n.data
	}
	return ""
}

// Attr returns the value of an attribute and whether it is present.
func (idx *Index) Attr(id NodeID, key string) (string, bool) {
	n := idx.get(id)
	if n == nil {
		return "", false
	}
	i, found := n.findAttr(key)
	if !found {
		return "", false
	}
	return n.attrs[i].Val, true
}

// Attributes returns a copy of the attribute list in key order.
func (idx *Index) Attributes(id NodeID) []html.Attribute {
	n := idx.get(id)
	if n == nil || len(n.attrs) == 0 {
		return nil
	}
	return append([]html.Attribute(nil), n.attrs...)
}

func (n *node) findAttr(key string) (int, bool) {
	i := sort.Search(len(n.attrs), func(i int) bool { return n.attrs[i].Key >= key })
	return i, i < len(n.attrs) && n.attrs[i].Key == key
}

// SetAttribute adds or replaces an attribute. The value is stored in markup
// form. Non-tags are left untouched.
func (idx *Index) SetAttribute(id NodeID, key, val string) {
	n := idx.get(id)
	if n == nil || n.kind != TagNode {
		return
	}
	i, found := n.findAttr(key)
	if found {
		n.attrs[i].Val = val
		return
	}
	n.attrs = append(n.attrs, html.Attribute{})
	copy(n.attrs[i+1:], n.attrs[i:])
	n.attrs[i] = html.Attribute{Key: key, Val: val}
}

// ClearAttribute removes an attribute. Removing a missing attribute is a
// no-op.
func (idx *Index) ClearAttribute(id NodeID, key string) {
	n := idx.get(id)
	if n == nil {
		return
	}
	if i, found := n.findAttr(key); found {
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	}
}

// Parent returns the parent of id or NoNode.
func (idx *Index) Parent(id NodeID) NodeID {
	if n := idx.get(id); n != nil {
		return n.parent
	}
	return NoNode
}

// Root follows the parent links up to the topmost ancestor.
func (idx *Index) Root(id NodeID) NodeID {
	for {
		p := idx.Parent(id)
		if p == NoNode {
			return id
		}
		id = p
	}
}

// Children returns a copy of the child list of id.
func (idx *Index) Children(id NodeID) []NodeID {
	n := idx.get(id)
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Descendants returns all nodes below id in document order, not including
// id itself.
func (idx *Index) Descendants(id NodeID) []NodeID {
	var ret []NodeID
	var walk func(NodeID)
	walk = func(cur NodeID) {
		n := idx.get(cur)
		if n == nil {
			return
		}
		for _, c := range n.children {
			ret = append(ret, c)
			walk(c)
		}
	}
	walk(id)
	return ret
}

// position returns the index of id in its parent's child list, or -1.
func (idx *Index) position(id NodeID) int {
	p := idx.get(idx.Parent(id))
	if p == nil {
		return -1
	}
	for i, c := range p.children {
		if c == id {
			return i
		}
	}
	return -1
}

// Siblings returns the child list of the parent including id itself. For a
// root the list contains only id.
func (idx *Index) Siblings(id NodeID) []NodeID {
	if idx.Parent(id) == NoNode {
		return []NodeID{id}
	}
	return idx.Children(idx.Parent(id))
}

// PrevSibling returns the node before id in its parent or NoNode.
func (idx *Index) PrevSibling(id NodeID) NodeID {
	pos := idx.position(id)
	if pos <= 0 {
		return NoNode
	}
	return idx.nodes[idx.Parent(id)].children[pos-1]
}

// NextSibling returns the node after id in its parent or NoNode.
func (idx *Index) NextSibling(id NodeID) NodeID {
	pos := idx.position(id)
	if pos < 0 {
		return NoNode
	}
	siblings := idx.nodes[idx.Parent(id)].children
	if pos+1 >= len(siblings) {
		return NoNode
	}
	return siblings[pos+1]
}

// FollowingSiblings returns all nodes after id in its parent.
func (idx *Index) FollowingSiblings(id NodeID) []NodeID {
	pos := idx.position(id)
	if pos < 0 {
		return nil
	}
	siblings := idx.nodes[idx.Parent(id)].children
	return append([]NodeID(nil), siblings[pos+1:]...)
}

// isAncestor reports whether a is id or one of its ancestors.
func (idx *Index) isAncestor(a, id NodeID) bool {
	for cur := id; cur != NoNode; cur = idx.Parent(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

func (idx *Index) checkInsert(parent, child NodeID) error {
	if !idx.Valid(parent) {
		return fmt.Errorf("parent %d: %w", parent, ErrUnknownNode)
	}
	if !idx.Valid(child) {
		return fmt.Errorf("child %d: %w", child, ErrUnknownNode)
	}
	if idx.isAncestor(child, parent) {
		return ErrCycle
	}
	return nil
}

func (idx *Index) insertAt(parent NodeID, pos int, child NodeID) error {
	if err := idx.checkInsert(parent, child); err != nil {
		return err
	}
	if err := idx.Detach(child); err != nil {
		return err
	}
	p := &idx.nodes[parent]
	if pos > len(p.children) {
		pos = len(p.children)
	}
	p.children = append(p.children, NoNode)
	copy(p.children[pos+1:], p.children[pos:])
	p.children[pos] = child
	idx.nodes[child].parent = parent
	return nil
}

// AppendChild makes child the last child of parent. If child is attached
// elsewhere it is moved.
func (idx *Index) AppendChild(parent, child NodeID) error {
	n := idx.get(parent)
	if n == nil {
		return fmt.Errorf("parent %d: %w", parent, ErrUnknownNode)
	}
	return idx.insertAt(parent, len(n.children), child)
}

// PrependChild makes child the first child of parent.
func (idx *Index) PrependChild(parent, child NodeID) error {
	return idx.insertAt(parent, 0, child)
}

// InsertBefore inserts newNode into the parent of sibling, directly before
// sibling. If sibling has no parent nothing happens and false is returned.
func (idx *Index) InsertBefore(sibling, newNode NodeID) (bool, error) {
	if !idx.Valid(sibling) {
		return false, fmt.Errorf("sibling %d: %w", sibling, ErrUnknownNode)
	}
	parent := idx.Parent(sibling)
	if parent == NoNode {
		return false, nil
	}
	if newNode == sibling {
		return true, nil
	}
	if err := idx.checkInsert(parent, newNode); err != nil {
		return false, err
	}
	if err := idx.Detach(newNode); err != nil {
		return false, err
	}
	// newNode may have been a sibling before sibling, so look up again.
	return true, idx.insertAt(parent, idx.position(sibling), newNode)
}

// Detach removes id from its parent's child list. The node and its subtree
// stay valid. Detaching a root is a no-op.
func (idx *Index) Detach(id NodeID) error {
	n := idx.get(id)
	if n == nil {
		return fmt.Errorf("detach %d: %w", id, ErrUnknownNode)
	}
	if n.parent == NoNode {
		return nil
	}
	p := idx.get(n.parent)
	pos := idx.position(id)
	if p == nil || pos < 0 {
		return fmt.Errorf("detach %d: not a child of its parent %d: %w", id, n.parent, ErrUnknownNode)
	}
	p.children = append(p.children[:pos], p.children[pos+1:]...)
	n.parent = NoNode
	return nil
}

// ClearChildren detaches all children of id.
func (idx *Index) ClearChildren(id NodeID) error {
	for _, c := range idx.Children(id) {
		if err := idx.Detach(c); err != nil {
			return err
		}
	}
	return nil
}

// DeepCopy creates an independent copy of the subtree rooted in id. The
// copy has no parent.
func (idx *Index) DeepCopy(id NodeID) (NodeID, error) {
	n := idx.get(id)
	if n == nil {
		return NoNode, fmt.Errorf("copy %d: %w", id, ErrUnknownNode)
	}
	cp := node{kind: n.kind, data: n.data}
	if len(n.attrs) > 0 {
		cp.attrs = append([]html.Attribute(nil), n.attrs...)
	}
	newID := idx.add(cp)
	// idx.nodes may grow while copying, so never keep n across add().
	for _, c := range idx.Children(id) {
		cc, err := idx.DeepCopy(c)
		if err != nil {
			return NoNode, err
		}
		idx.nodes[cc].parent = newID
		idx.nodes[newID].children = append(idx.nodes[newID].children, cc)
	}
	return newID, nil
}

// Import copies the subtree rooted in id of another index into idx and
// returns the new root.
func (idx *Index) Import(src *Index, id NodeID) (NodeID, error) {
	n := src.get(id)
	if n == nil {
		return NoNode, fmt.Errorf("import %d: %w", id, ErrUnknownNode)
	}
	cp := node{kind: n.kind, data: n.data}
	if len(n.attrs) > 0 {
		cp.attrs = append([]html.Attribute(nil), n.attrs...)
	}
	newID := idx.add(cp)
	for _, c := range src.Children(id) {
		cc, err := idx.Import(src, c)
		if err != nil {
			return NoNode, err
		}
		idx.nodes[cc].parent = newID
		idx.nodes[newID].children = append(idx.nodes[newID].children, cc)
	}
	return newID, nil
}
