package htmledit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, markup string) (*Index, NodeID) {
	t.Helper()
	idx, root, err := ParseHTML(strings.NewReader(markup))
	require.NoError(t, err)
	return idx, root
}

func TestBuildAndRender(t *testing.T) {
	idx := NewIndex()
	div := idx.NewTag("div")
	idx.SetAttribute(div, "id", "main")
	idx.SetAttribute(div, "class", "a")
	idx.SetAttribute(div, "data-x", "1")
	require.NoError(t, idx.AppendChild(div, idx.NewText("two")))
	require.NoError(t, idx.PrependChild(div, idx.NewComment("one")))
	br := idx.NewTag("br")
	require.NoError(t, idx.AppendChild(div, br))

	if got, want := idx.OuterHTML(div), `<div class="a" data-x="1" id="main"><!--one-->two<br></div>`; got != want {
		t.Errorf("OuterHTML = %s, want %s", got, want)
	}
	if got, want := idx.InnerHTML(div), `<!--one-->two<br>`; got != want {
		t.Errorf("InnerHTML = %s, want %s", got, want)
	}
}

func TestSetAndClearAttribute(t *testing.T) {
	idx := NewIndex()
	p := idx.NewTag("p")
	idx.SetAttribute(p, "b", "1")
	idx.SetAttribute(p, "a", "2")
	idx.SetAttribute(p, "b", "3")
	assert.Equal(t, `<p a="2" b="3"></p>`, idx.OuterHTML(p))

	idx.ClearAttribute(p, "missing")
	idx.ClearAttribute(p, "a")
	assert.Equal(t, `<p b="3"></p>`, idx.OuterHTML(p))
	_, ok := idx.Attr(p, "a")
	assert.False(t, ok)

	// attributes on text nodes are ignored
	txt := idx.NewText("x")
	idx.SetAttribute(txt, "a", "b")
	assert.Empty(t, idx.Attributes(txt))
}

func TestInsertBeforeAndDetach(t *testing.T) {
	idx, root := mustParse(t, `<ul><li id="a">1</li><li id="b">2</li></ul>`)
	ul := idx.Children(root)[0]
	b := idx.Children(ul)[1]

	x := idx.NewTag("li")
	ok, err := idx.InsertBefore(b, x)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `<ul><li id="a">1</li><li></li><li id="b">2</li></ul>`, idx.OuterHTML(ul))
	assert.Equal(t, x, idx.PrevSibling(b))
	assert.Equal(t, b, idx.NextSibling(x))

	require.NoError(t, idx.Detach(b))
	assert.Equal(t, NoNode, idx.Parent(b))
	assert.Equal(t, `<ul><li id="a">1</li><li></li></ul>`, idx.OuterHTML(ul))
	// the detached node keeps its subtree
	assert.Equal(t, `<li id="b">2</li>`, idx.OuterHTML(b))

	// and can be inserted again
	require.NoError(t, idx.PrependChild(ul, b))
	assert.Equal(t, `<ul><li id="b">2</li><li id="a">1</li><li></li></ul>`, idx.OuterHTML(ul))

	// detaching a root is a no-op
	require.NoError(t, idx.Detach(root))
	ok, err = idx.InsertBefore(root, idx.NewTag("p"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoveWithinParent(t *testing.T) {
	idx := NewIndex()
	ul := idx.NewTag("ul")
	a, b, c := idx.NewTag("a"), idx.NewTag("b"), idx.NewTag("c")
	for _, n := range []NodeID{a, b, c} {
		require.NoError(t, idx.AppendChild(ul, n))
	}
	require.NoError(t, idx.AppendChild(ul, a))
	assert.Equal(t, []NodeID{b, c, a}, idx.Children(ul))
	_, err := idx.InsertBefore(b, a)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{a, b, c}, idx.Children(ul))
}

func TestCycleAndUnknownNode(t *testing.T) {
	idx := NewIndex()
	outer := idx.NewTag("div")
	inner := idx.NewTag("span")
	require.NoError(t, idx.AppendChild(outer, inner))

	err := idx.AppendChild(inner, outer)
	assert.True(t, errors.Is(err, ErrCycle), "got %v", err)
	err = idx.AppendChild(outer, NodeID(99))
	assert.True(t, errors.Is(err, ErrUnknownNode), "got %v", err)
	err = idx.Detach(NodeID(-5))
	assert.True(t, errors.Is(err, ErrUnknownNode), "got %v", err)
}

func TestDeepCopyIsIndependent(t *testing.T) {
	idx, root := mustParse(t, `<div id="d"><p class="x">text<!--c--></p></div>`)
	div := idx.Children(root)[0]
	cp, err := idx.DeepCopy(div)
	require.NoError(t, err)
	assert.NotEqual(t, div, cp)
	assert.Equal(t, NoNode, idx.Parent(cp))
	assert.Equal(t, idx.OuterHTML(div), idx.OuterHTML(cp))

	p := idx.Children(cp)[0]
	idx.SetAttribute(p, "class", "changed")
	require.NoError(t, idx.AppendChild(p, idx.NewText("more")))
	idx.SetAttribute(cp, "id", "copy")

	assert.Equal(t, `<div id="d"><p class="x">text<!--c--></p></div>`, idx.OuterHTML(div))
	assert.Equal(t, `<div id="copy"><p class="changed">text<!--c-->more</p></div>`, idx.OuterHTML(cp))
}

func TestTextContent(t *testing.T) {
	idx, root := mustParse(t, `<div>a<b>b</b><!--no-->c</div>`)
	div := idx.Children(root)[0]
	assert.Equal(t, "a b c", idx.TextContent(div))
	assert.Equal(t, "", idx.TextContent(idx.NewTag("p")))
	assert.Equal(t, "solo", idx.TextContent(idx.NewText("solo")))
}

func TestRoot(t *testing.T) {
	idx, root := mustParse(t, `<div><p><em>x</em></p></div>`)
	em := idx.Descendants(root)[2]
	assert.Equal(t, "em", idx.TagName(em))
	assert.Equal(t, root, idx.Root(em))
	assert.Equal(t, root, idx.Root(root))
}

func TestImport(t *testing.T) {
	src, root := mustParse(t, `<p class="x">a<!--b--></p>`)
	dst := NewIndex()
	dst.NewTag("unrelated")
	id, err := dst.Import(src, src.Children(root)[0])
	require.NoError(t, err)
	assert.Equal(t, `<p class="x">a<!--b--></p>`, dst.OuterHTML(id))
	assert.Equal(t, NoNode, dst.Parent(id))

	_, err = dst.Import(src, NodeID(42))
	assert.True(t, errors.Is(err, ErrUnknownNode))
}
