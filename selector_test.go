package htmledit

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// ids returns the id attribute of every node.
func ids(idx *Index, nodes []NodeID) []string {
	ret := make([]string, 0, len(nodes))
	for _, n := range nodes {
		v, _ := idx.Attr(n, "id")
		ret = append(ret, v)
	}
	return ret
}

func query(t *testing.T, idx *Index, start []NodeID, sel string) []string {
	t.Helper()
	sl, err := ParseSelectorList(sel)
	require.NoError(t, err, sel)
	return ids(idx, sl.Query(idx, start))
}

func TestAttributeOperators(t *testing.T) {
	idx := NewIndex()
	n := idx.NewTag("a")
	idx.SetAttribute(n, "href", "https://example.com/page")
	idx.SetAttribute(n, "rel", "nofollow  external")
	idx.SetAttribute(n, "lang", "en-US")

	tests := []struct {
		sel  string
		want bool
	}{
		{`[href]`, true},
		{`[title]`, false},
		{`[href^="https:"]`, true},
		{`[href^="http:"]`, false},
		{`[href$='/page']`, true},
		{`[href*=example]`, true},
		{`[href*=?exam ple?]`, false},
		{`[rel~=external]`, true},
		{`[rel~=extern]`, false},
		{`[rel="nofollow  external"]`, true},
		{`[rel=nofollow]`, false},
		{`[lang|=en]`, true},
		{`[lang|=en-US]`, true},
		{`[lang|=US]`, false},
		{`a[href][lang]`, true},
		{`b[href]`, false},
	}
	for _, tt := range tests {
		sel, err := ParseSelector(tt.sel)
		require.NoError(t, err, tt.sel)
		if got := sel.Matches(idx, n); got != tt.want {
			t.Errorf("%s matches = %t, want %t", tt.sel, got, tt.want)
		}
	}
}

func TestIDAndClasses(t *testing.T) {
	idx := NewIndex()
	n := idx.NewTag("p")
	idx.SetAttribute(n, "id", "intro")
	idx.SetAttribute(n, "class", "lead  note")
	for sel, want := range map[string]bool{
		"#intro":           true,
		"p#intro":          true,
		"#Intro":           false,
		".lead":            true,
		".lead.note":       true,
		"p.note#intro":     true,
		".lead.missing":    false,
		"P":                false,
		"*":                true,
		"*.note":           true,
		"div.lead":         false,
		"p:first-child":    true,
		"p:last-of-type":   true,
		"p:nth-child(2)":   false,
		"p.lead[class~=x]": false,
	} {
		s, err := ParseSelector(sel)
		require.NoError(t, err, sel)
		assert.Equal(t, want, s.Matches(idx, n), sel)
	}
	// only elements match
	star, _ := ParseSelector("*")
	assert.False(t, star.Matches(idx, idx.NewText("x")))
	assert.False(t, star.Matches(idx, idx.NewComment("x")))
}

func TestPseudoClasses(t *testing.T) {
	idx, root := mustParse(t, `<div>
		<h2 id="h1"></h2>
		<p id="p1"></p>
		<p id="p2"></p>
		<h2 id="h2"></h2>
		<p id="p3"></p>
	</div>`)
	tests := []struct {
		sel  string
		want []string
	}{
		{"div > :first-child", []string{"h1"}},
		{"p:first-child", nil},
		{"p:first-of-type", []string{"p1"}},
		{"p:nth-child(3)", []string{"p2"}},
		{"p:nth-of-type(3)", []string{"p3"}},
		{"h2:nth-of-type(2)", []string{"h2"}},
		{"div > :last-child", []string{"p3"}},
		{"h2:last-of-type", []string{"h2"}},
		{"h2:last-child", nil},
		{"p:nth-last-child(2)", nil},
		{"h2:nth-last-child(2)", []string{"h2"}},
		{"p:nth-last-of-type(2)", []string{"p2"}},
		{"p:nth-child(9)", nil},
	}
	for _, tt := range tests {
		got := query(t, idx, []NodeID{root}, tt.sel)
		if len(tt.want) == 0 {
			assert.Empty(t, got, tt.sel)
			continue
		}
		assert.Equal(t, tt.want, got, tt.sel)
	}
}

func TestCombinators(t *testing.T) {
	idx, root := mustParse(t, `<ul><li id="a">1</li><li id="b">2</li></ul>`)
	a := idx.Descendants(root)[1]
	require.Equal(t, []string{"a"}, ids(idx, []NodeID{a}))

	assert.Equal(t, []string{"b"}, query(t, idx, []NodeID{a}, "li ~ li"))
	assert.Equal(t, []string{"b"}, query(t, idx, []NodeID{a}, "li + li"))
	assert.Equal(t, []string{"a", "b"}, query(t, idx, []NodeID{root}, "ul > li"))
	assert.Equal(t, []string{"a", "b"}, query(t, idx, []NodeID{root}, "ul li"))
	assert.Empty(t, query(t, idx, []NodeID{root}, "li > li"))
}

func TestAdjacentSkipsText(t *testing.T) {
	idx, root := mustParse(t, `<div><i id="x"></i> text <!--c--><b id="y"></b><b id="z"></b></div>`)
	assert.Equal(t, []string{"y"}, query(t, idx, []NodeID{root}, "i + b"))
	assert.Equal(t, []string{"y", "z"}, query(t, idx, []NodeID{root}, "i ~ b"))
	assert.Empty(t, query(t, idx, []NodeID{root}, "i + b + i"))
}

func TestDescendantExcludesSource(t *testing.T) {
	idx, root := mustParse(t, `<div id="outer"><div id="inner"></div></div>`)
	outer := idx.Children(root)[0]
	// Start includes the input itself, a Descendant step does not.
	assert.Equal(t, []string{"outer", "inner"}, query(t, idx, []NodeID{outer}, "div"))
	assert.Equal(t, []string{"inner"}, query(t, idx, []NodeID{outer}, "div div"))
}

func TestListKeepsDuplicates(t *testing.T) {
	idx, root := mustParse(t, `<p id="one" class="x"></p><p id="two"></p>`)
	assert.Equal(t, []string{"one", "two", "one"}, query(t, idx, []NodeID{root}, "p, .x"))
	assert.Equal(t, []string{"two", "one"}, query(t, idx, []NodeID{root}, "#two, #one"))
}

const oracleDoc = `<html><head><title id="t">x</title></head><body id="body">
<div id="d1" class="box main" lang="en-GB">
  <h1 id="h">Title</h1>
  <p id="p1" class="lead">one <a id="a1" href="https://example.com/x" rel="nofollow external">link</a></p>
  <p id="p2" data-kind="note">two</p>
  <ul id="list">
    <li id="li1" class="item">1</li>
    <li id="li2" class="item odd">2</li>
    <li id="li3" class="item">3</li>
  </ul>
</div>
<div id="d2" class="box"><p id="p3">three</p><span id="s1"></span></div>
</body></html>`

func unique(s []string) []string {
	seen := map[string]bool{}
	var ret []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			ret = append(ret, v)
		}
	}
	return ret
}

// TestAgainstCascadia compares the result sets with cascadia for selectors
// where both engines agree on the meaning.
func TestAgainstCascadia(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(oracleDoc))
	require.NoError(t, err)
	idx, root := mustParse(t, oracleDoc)

	selectors := []string{
		"p",
		"div p",
		"div > p",
		"body > div > ul > li",
		".box",
		".box.main",
		"#list li.item",
		"li.odd",
		"h1 ~ p",
		"h1 + p",
		"p + ul",
		"li ~ li",
		"li + li",
		"[href]",
		`a[href^="https"]`,
		`a[href$=x]`,
		`[rel~=external]`,
		`[data-kind=note]`,
		`[class*=ai]`,
		`div[lang|=en]`,
		"li:first-child",
		"li:last-child",
		"li:nth-child(2)",
		"p:first-of-type",
		"p:last-of-type",
		"p:nth-of-type(2)",
		"li:nth-last-child(3)",
		"p:nth-last-of-type(1)",
		"h1, li",
		"div p, div span",
	}
	for _, sel := range selectors {
		var want []string
		for _, n := range cascadia.QueryAll(doc.Nodes[0], cascadia.MustCompile(sel)) {
			want = append(want, htmlID(n))
		}
		got := unique(query(t, idx, []NodeID{root}, sel))
		assert.ElementsMatch(t, want, got, sel)
	}
}

func htmlID(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "id" {
			return a.Val
		}
	}
	return ""
}
