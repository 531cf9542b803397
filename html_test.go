package htmledit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fragment", `<p>x</p><p>y</p>`, `<p>x</p><p>y</p>`},
		{"entities", `<p title="a&quot;b">1 &lt; 2 &amp;&amp; 3</p>`, `<p title="a&quot;b">1 &lt; 2 &amp;&amp; 3</p>`},
		{"script", `<script>if (a < b && c) {}</script>`, `<script>if (a < b && c) {}</script>`},
		{"void", `<p>a<br>b<img src="x.png"></p>`, `<p>a<br>b<img src="x.png"></p>`},
		{"sorted attributes", `<a title="t" href="h" class="c">x</a>`, `<a class="c" href="h" title="t">x</a>`},
		{"comment", `<div><!-- note --></div>`, `<div><!-- note --></div>`},
		{"text only", `plain text`, `plain text`},
		{
			"document",
			`<!DOCTYPE html><html><head><title>t</title></head><body><p>x</p></body></html>`,
			`<!DOCTYPE html><html><head><title>t</title></head><body><p>x</p></body></html>`,
		},
		{
			"comment before doctype",
			`<!-- generated --><!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>`,
			`<!-- generated --><!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>`,
		},
		{
			"byte order mark",
			"\ufeff<!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>",
			"\ufeff<!DOCTYPE html><html><head><title>T</title></head><body><p>x</p></body></html>",
		},
		{
			"byte order mark and comment",
			"\ufeff\n<!--a--><html><body></body></html>",
			"\ufeff<!--a--><html><head></head><body></body></html>",
		},
		{"starts with body", `<body><p>x</p></body>`, `<html><head></head><body><p>x</p></body></html>`},
		{
			"starts with head",
			`<head><title>T</title></head><p>x</p>`,
			`<html><head><title>T</title></head><body><p>x</p></body></html>`,
		},
		{"fragment after comment", `<!-- c --><p>x</p>`, `<!-- c --><p>x</p>`},
		{
			"document without doctype",
			`<html><body><p>x</p></body></html>`,
			`<html><head></head><body><p>x</p></body></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, root := mustParse(t, tt.in)
			assert.Equal(t, DocumentNode, idx.Kind(root))
			assert.Equal(t, tt.want, idx.OuterHTML(root))
			assert.Equal(t, idx.OuterHTML(root), idx.InnerHTML(root))
		})
	}
}

func TestFragmentHasNoWrapper(t *testing.T) {
	idx, root := mustParse(t, `<li>1</li>`)
	for _, sel := range []string{"html", "head", "body"} {
		assert.Empty(t, query(t, idx, []NodeID{root}, sel), sel)
	}
	idx, root = mustParse(t, "  <!doctype html><p>x</p>")
	assert.Len(t, query(t, idx, []NodeID{root}, "body"), 1)

	for _, in := range []string{
		"<!-- generated -->\n<!DOCTYPE html><html><head><title>T</title></head><body></body></html>",
		"\ufeff<!DOCTYPE html><html><head><title>T</title></head><body></body></html>",
	} {
		idx, root = mustParse(t, in)
		assert.Len(t, query(t, idx, []NodeID{root}, "head"), 1, in)
		assert.Len(t, query(t, idx, []NodeID{root}, "html > body"), 1, in)
	}
}

func TestStoredFormIsMarkup(t *testing.T) {
	idx, root := mustParse(t, `<p title="&lt;x&gt;">a &amp; b</p>`)
	p := idx.Children(root)[0]
	v, ok := idx.Attr(p, "title")
	require.True(t, ok)
	assert.Equal(t, "&lt;x&gt;", v)
	assert.Equal(t, "a &amp; b", idx.TextContent(p))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; \"c\"", EscapeText(`a <b> & "c"`))
	assert.Equal(t, "a &lt;b&gt; &amp; &quot;c&quot; 'd'", EscapeAttribute(`a <b> & "c" 'd'`))
	assert.Equal(t, `a\x2D\x2Db\x2D\x2D-c`, EscapeComment("a--b---c"))
	assert.Equal(t, `\x2D\x2D\x2D`, EscapeComment("---"))
	assert.Equal(t, `a\x2D`, EscapeComment("a-"))
	assert.Equal(t, `-a`, EscapeComment("-a"))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part.html"), []byte(`<b>part</b>`), 0o644))

	idx := NewIndex()
	root, err := FileLoader{Dir: dir}.Load(idx, "part.html")
	require.NoError(t, err)
	assert.Equal(t, `<b>part</b>`, idx.OuterHTML(root))
	assert.Equal(t, DocumentNode, idx.Kind(root))
	// document, b and the text node
	assert.Equal(t, 3, idx.Len())

	// a directory opens but cannot be read, the index stays as it is
	_, err = FileLoader{}.Load(idx, dir)
	assert.Error(t, err)
	assert.Equal(t, 3, idx.Len())

	// absolute names ignore Dir
	root, err = FileLoader{Dir: "/nonexistent"}.Load(idx, filepath.Join(dir, "part.html"))
	require.NoError(t, err)
	assert.Equal(t, `<b>part</b>`, idx.OuterHTML(root))

	finder := func(name string) (string, error) {
		return filepath.Join(dir, "part.html"), nil
	}
	root, err = FileLoader{FileFinder: finder}.Load(idx, "whatever.html")
	require.NoError(t, err)
	assert.Equal(t, `<b>part</b>`, idx.OuterHTML(root))

	_, err = FileLoader{Dir: dir}.Load(idx, "missing.html")
	assert.Error(t, err)
}
