package htmledit

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ProcessingCommand is a step of a Pipeline. It receives the intermediate
// node list and returns the next one.
type ProcessingCommand interface {
	// Name returns the verbose keyword of the command.
	Name() string
	execute(env *Env, input []NodeID) ([]NodeID, error)
}

// CreatingCommand produces new nodes at the start of a CreatingPipeline.
type CreatingCommand interface {
	Name() string
	create(env *Env, input []NodeID) ([]NodeID, error)
}

// SelectingCommand picks the context nodes of a StringPipeline for one node.
type SelectingCommand interface {
	Name() string
	choose(env *Env, id NodeID) ([]NodeID, error)
}

// ExtractingCommand turns the context nodes of a StringPipeline into
// strings.
type ExtractingCommand interface {
	Name() string
	extract(env *Env, ids []NodeID) []string
}

// ValueSource produces the value of a setting command for one node.
type ValueSource interface {
	resolve(env *Env, id NodeID) ([]string, error)
}

// Literal is a quoted value.
type Literal struct {
	Value string
}

func (l Literal) resolve(*Env, NodeID) ([]string, error) {
	return []string{l.Value}, nil
}

func resolveJoined(env *Env, vs ValueSource, id NodeID) (string, error) {
	vals, err := vs.resolve(env, id)
	if err != nil {
		return "", err
	}
	return strings.Join(vals, ""), nil
}

// canHoldChildren reports whether content may be added below the node.
func canHoldChildren(idx *Index, id NodeID) bool {
	k := idx.Kind(id)
	return idx.Valid(id) && (k == TagNode || k == DocumentNode)
}

// --- processing commands ----------------------------------------------

// ExtractElement replaces the input by deep copies of the matches.
type ExtractElement struct {
	Selector SelectorList
}

// Name returns "EXTRACT-ELEMENT".
func (ExtractElement) Name() string { return "EXTRACT-ELEMENT" }

func (c ExtractElement) execute(env *Env, input []NodeID) ([]NodeID, error) {
	matches := c.Selector.Query(env.Index, input)
	ret := make([]NodeID, 0, len(matches))
	for _, m := range matches {
		cp, err := env.Index.DeepCopy(m)
		if err != nil {
			return nil, err
		}
		ret = append(ret, cp)
	}
	return ret, nil
}

// RemoveElement detaches all matches from their parents.
type RemoveElement struct {
	Selector SelectorList
}

// Name returns "REMOVE-ELEMENT".
func (RemoveElement) Name() string { return "REMOVE-ELEMENT" }

func (c RemoveElement) execute(env *Env, input []NodeID) ([]NodeID, error) {
	for _, m := range c.Selector.Query(env.Index, input) {
		if err := env.Index.Detach(m); err != nil {
			return nil, err
		}
	}
	return input, nil
}

// ForEach runs the sub-pipeline on the matches for its effect.
type ForEach struct {
	Selector SelectorList
	Pipeline Pipeline
}

// Name returns "FOR-EACH".
func (ForEach) Name() string { return "FOR-EACH" }

func (c ForEach) execute(env *Env, input []NodeID) ([]NodeID, error) {
	matches := c.Selector.Query(env.Index, input)
	if _, err := c.Pipeline.Run(env, matches); err != nil {
		return nil, err
	}
	return input, nil
}

// ReplaceElement puts the output of the creating pipeline in place of each
// match.
type ReplaceElement struct {
	Selector SelectorList
	Creating CreatingPipeline
}

// Name returns "REPLACE-ELEMENT".
func (ReplaceElement) Name() string { return "REPLACE-ELEMENT" }

func (c ReplaceElement) execute(env *Env, input []NodeID) ([]NodeID, error) {
	idx := env.Index
	for _, m := range c.Selector.Query(idx, input) {
		produced, err := c.Creating.Run(env, []NodeID{m})
		if err != nil {
			return nil, err
		}
		if idx.Parent(m) == NoNode {
			env.logger().Warn("cannot replace a node without parent", zap.String("node", idx.describe(m)))
			continue
		}
		// Insert first, the match is the anchor for the position.
		for _, p := range produced {
			cp, err := idx.DeepCopy(p)
			if err != nil {
				return nil, err
			}
			if _, err := idx.InsertBefore(m, cp); err != nil {
				return nil, err
			}
		}
		if err := idx.Detach(m); err != nil {
			return nil, err
		}
	}
	return input, nil
}

// ClearAttribute removes an attribute from every input node.
type ClearAttribute struct {
	Attribute string
}

// Name returns "CLEAR-ATTRIBUTE".
func (ClearAttribute) Name() string { return "CLEAR-ATTRIBUTE" }

func (c ClearAttribute) execute(env *Env, input []NodeID) ([]NodeID, error) {
	for _, id := range input {
		env.Index.ClearAttribute(id, c.Attribute)
	}
	return input, nil
}

// ClearContent removes all children of every input node.
type ClearContent struct{}

// Name returns "CLEAR-CONTENT".
func (ClearContent) Name() string { return "CLEAR-CONTENT" }

func (ClearContent) execute(env *Env, input []NodeID) ([]NodeID, error) {
	for _, id := range input {
		if err := env.Index.ClearChildren(id); err != nil {
			return nil, err
		}
	}
	return input, nil
}

// SetAttribute sets an attribute on every input node.
type SetAttribute struct {
	Attribute string
	Value     ValueSource
}

// Name returns "SET-ATTRIBUTE".
func (SetAttribute) Name() string { return "SET-ATTRIBUTE" }

func (c SetAttribute) execute(env *Env, input []NodeID) ([]NodeID, error) {
	for _, id := range input {
		v, err := resolveJoined(env, c.Value, id)
		if err != nil {
			return nil, err
		}
		v = strings.ReplaceAll(EscapeAttribute(v), "\n", `\n`)
		env.Index.SetAttribute(id, c.Attribute, v)
	}
	return input, nil
}

// SetTextContent replaces the children of every input node by one text
// node.
type SetTextContent struct {
	Value ValueSource
}

// Name returns "SET-TEXT-CONTENT".
func (SetTextContent) Name() string { return "SET-TEXT-CONTENT" }

func (c SetTextContent) execute(env *Env, input []NodeID) ([]NodeID, error) {
	idx := env.Index
	for _, id := range input {
		if !canHoldChildren(idx, id) {
			continue
		}
		v, err := resolveJoined(env, c.Value, id)
		if err != nil {
			return nil, err
		}
		if err := idx.ClearChildren(id); err != nil {
			return nil, err
		}
		if err := idx.AppendChild(id, idx.NewText(EscapeText(v))); err != nil {
			return nil, err
		}
	}
	return input, nil
}

// insertContent resolves the value for each input node, transforms it with
// escape and inserts a node made by mk as first or last child.
func insertContent(env *Env, input []NodeID, vs ValueSource, escape func(string) string, mk func(string) NodeID, prepend bool) ([]NodeID, error) {
	idx := env.Index
	for _, id := range input {
		if !canHoldChildren(idx, id) {
			continue
		}
		v, err := resolveJoined(env, vs, id)
		if err != nil {
			return nil, err
		}
		child := mk(escape(v))
		if prepend {
			err = idx.PrependChild(id, child)
		} else {
			err = idx.AppendChild(id, child)
		}
		if err != nil {
			return nil, err
		}
	}
	return input, nil
}

// AppendTextContent adds a text node as last child.
type AppendTextContent struct {
	Value ValueSource
}

// Name returns "APPEND-TEXT-CONTENT".
func (AppendTextContent) Name() string { return "APPEND-TEXT-CONTENT" }

func (c AppendTextContent) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertContent(env, input, c.Value, EscapeText, env.Index.NewText, false)
}

// PrependTextContent adds a text node as first child.
type PrependTextContent struct {
	Value ValueSource
}

// Name returns "PREPEND-TEXT-CONTENT".
func (PrependTextContent) Name() string { return "PREPEND-TEXT-CONTENT" }

func (c PrependTextContent) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertContent(env, input, c.Value, EscapeText, env.Index.NewText, true)
}

// AppendComment adds a comment as last child.
type AppendComment struct {
	Value ValueSource
}

// Name returns "APPEND-COMMENT".
func (AppendComment) Name() string { return "APPEND-COMMENT" }

func (c AppendComment) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertContent(env, input, c.Value, EscapeComment, env.Index.NewComment, false)
}

// PrependComment adds a comment as first child.
type PrependComment struct {
	Value ValueSource
}

// Name returns "PREPEND-COMMENT".
func (PrependComment) Name() string { return "PREPEND-COMMENT" }

func (c PrependComment) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertContent(env, input, c.Value, EscapeComment, env.Index.NewComment, true)
}

// insertElement runs the creating pipeline once per input node and inserts
// the last node it produced.
func insertElement(env *Env, input []NodeID, cp CreatingPipeline, prepend bool) ([]NodeID, error) {
	idx := env.Index
	for _, id := range input {
		if !canHoldChildren(idx, id) {
			continue
		}
		produced, err := cp.Run(env, nil)
		if err != nil {
			return nil, err
		}
		if len(produced) == 0 {
			continue
		}
		last := produced[len(produced)-1]
		if prepend {
			err = idx.PrependChild(id, last)
		} else {
			err = idx.AppendChild(id, last)
		}
		if err != nil {
			return nil, err
		}
	}
	return input, nil
}

// AppendElement adds a created element as last child.
type AppendElement struct {
	Creating CreatingPipeline
}

// Name returns "APPEND-ELEMENT".
func (AppendElement) Name() string { return "APPEND-ELEMENT" }

func (c AppendElement) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertElement(env, input, c.Creating, false)
}

// PrependElement adds a created element as first child.
type PrependElement struct {
	Creating CreatingPipeline
}

// Name returns "PREPEND-ELEMENT".
func (PrependElement) Name() string { return "PREPEND-ELEMENT" }

func (c PrependElement) execute(env *Env, input []NodeID) ([]NodeID, error) {
	return insertElement(env, input, c.Creating, true)
}

// --- creating commands ------------------------------------------------

// CreateElement makes one new empty element.
type CreateElement struct {
	Element string
}

// Name returns "CREATE-ELEMENT".
func (CreateElement) Name() string { return "CREATE-ELEMENT" }

func (c CreateElement) create(env *Env, _ []NodeID) ([]NodeID, error) {
	return []NodeID{env.Index.NewTag(c.Element)}, nil
}

// FromFile loads a document and returns a copy of its root.
type FromFile struct {
	Path string
}

// Name returns "FROM-FILE".
func (FromFile) Name() string { return "FROM-FILE" }

func (c FromFile) create(env *Env, _ []NodeID) ([]NodeID, error) {
	root, ok := env.cached(c.Path)
	if !ok {
		if env.Loader == nil {
			return nil, fmt.Errorf("load %q: no loader configured", c.Path)
		}
		var err error
		root, err = env.Loader.Load(env.Index, c.Path)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", c.Path, err)
		}
		env.remember(c.Path, root)
	}
	cp, err := env.Index.DeepCopy(root)
	if err != nil {
		return nil, err
	}
	return []NodeID{cp}, nil
}

// FromReplaced copies the matches of the selector in the pipeline input,
// which is the node being replaced.
type FromReplaced struct {
	Selector SelectorList
}

// Name returns "FROM-REPLACED".
func (FromReplaced) Name() string { return "FROM-REPLACED" }

func (c FromReplaced) create(env *Env, input []NodeID) ([]NodeID, error) {
	return ExtractElement(c).execute(env, input)
}

// --- selecting commands -----------------------------------------------

// UseElement selects the node itself.
type UseElement struct{}

// Name returns "USE-ELEMENT".
func (UseElement) Name() string { return "USE-ELEMENT" }

func (UseElement) choose(_ *Env, id NodeID) ([]NodeID, error) {
	return []NodeID{id}, nil
}

// UseParent selects the parent of the node, if any.
type UseParent struct{}

// Name returns "USE-PARENT".
func (UseParent) Name() string { return "USE-PARENT" }

func (UseParent) choose(env *Env, id NodeID) ([]NodeID, error) {
	if p := env.Index.Parent(id); p != NoNode {
		return []NodeID{p}, nil
	}
	return nil, nil
}

// QueryElement is accepted by the grammar but cannot be executed.
type QueryElement struct {
	Selector SelectorList
}

// Name returns "QUERY-ELEMENT".
func (QueryElement) Name() string { return "QUERY-ELEMENT" }

func (QueryElement) choose(*Env, NodeID) ([]NodeID, error) {
	return nil, fmt.Errorf("QUERY-ELEMENT: %w", ErrUnsupportedCommand)
}

// QueryParent queries the selector starting at the parent of the node.
type QueryParent struct {
	Selector SelectorList
}

// Name returns "QUERY-PARENT".
func (QueryParent) Name() string { return "QUERY-PARENT" }

func (c QueryParent) choose(env *Env, id NodeID) ([]NodeID, error) {
	p := env.Index.Parent(id)
	if p == NoNode {
		return nil, nil
	}
	return c.Selector.Query(env.Index, []NodeID{p}), nil
}

// QueryRoot queries the selector starting at the root of the node's tree.
type QueryRoot struct {
	Selector SelectorList
}

// Name returns "QUERY-ROOT".
func (QueryRoot) Name() string { return "QUERY-ROOT" }

func (c QueryRoot) choose(env *Env, id NodeID) ([]NodeID, error) {
	return c.Selector.Query(env.Index, []NodeID{env.Index.Root(id)}), nil
}

// --- extracting commands ----------------------------------------------

// GetAttribute returns the attribute value of every node that has it.
type GetAttribute struct {
	Attribute string
}

// Name returns "GET-ATTRIBUTE".
func (GetAttribute) Name() string { return "GET-ATTRIBUTE" }

func (c GetAttribute) extract(env *Env, ids []NodeID) []string {
	var ret []string
	for _, id := range ids {
		if v, ok := env.Index.Attr(id, c.Attribute); ok {
			ret = append(ret, v)
		}
	}
	return ret
}

// GetTextContent returns the text content of every node.
type GetTextContent struct{}

// Name returns "GET-TEXT-CONTENT".
func (GetTextContent) Name() string { return "GET-TEXT-CONTENT" }

func (GetTextContent) extract(env *Env, ids []NodeID) []string {
	ret := make([]string, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, env.Index.TextContent(id))
	}
	return ret
}
