package htmledit

import (
	"strconv"
	"strings"
)

// Markers between the parts of a binding or iteration command. Each has a
// symbol and an ASCII spelling.
var (
	assignMarkers  = []string{"↤", "<="}
	iterateMarkers = []string{"↦", "=>"}
)

type keywordKind int

const (
	kwProcessing keywordKind = iota
	kwCreating
	kwSelecting
	kwExtracting
)

type keyword struct {
	kind keywordKind
	name string // verbose spelling
}

// keywords maps both spellings of every command to its verbose spelling.
var keywords = map[string]keyword{}

func init() {
	add := func(kind keywordKind, verbose, terse string) {
		keywords[verbose] = keyword{kind, verbose}
		keywords[terse] = keyword{kind, verbose}
	}
	add(kwProcessing, "EXTRACT-ELEMENT", "ONLY")
	add(kwProcessing, "REMOVE-ELEMENT", "WITHOUT")
	add(kwProcessing, "FOR-EACH", "FOR")
	add(kwProcessing, "REPLACE-ELEMENT", "REPLACE")
	add(kwProcessing, "CLEAR-ATTRIBUTE", "CLEAR-ATTR")
	add(kwProcessing, "CLEAR-CONTENT", "CLEAR")
	add(kwProcessing, "SET-ATTRIBUTE", "SET-ATTR")
	add(kwProcessing, "SET-TEXT-CONTENT", "SET-TEXT")
	add(kwProcessing, "APPEND-TEXT-CONTENT", "ADD-TEXT")
	add(kwProcessing, "APPEND-COMMENT", "ADD-COMMENT")
	add(kwProcessing, "APPEND-ELEMENT", "ADD-ELEMENT")
	add(kwProcessing, "PREPEND-TEXT-CONTENT", "PREPEND-TEXT")
	add(kwProcessing, "PREPEND-COMMENT", "PRE-COMMENT")
	add(kwProcessing, "PREPEND-ELEMENT", "PRE-ELEMENT")
	add(kwCreating, "CREATE-ELEMENT", "NEW")
	add(kwCreating, "FROM-FILE", "SOURCE")
	add(kwCreating, "FROM-REPLACED", "KEEP")
	add(kwSelecting, "USE-ELEMENT", "THIS")
	add(kwSelecting, "USE-PARENT", "PARENT")
	add(kwSelecting, "QUERY-ELEMENT", "QUERY")
	add(kwSelecting, "QUERY-PARENT", "Q-PARENT")
	add(kwSelecting, "QUERY-ROOT", "Q-ROOT")
	add(kwExtracting, "GET-ATTRIBUTE", "GET-ATTR")
	add(kwExtracting, "GET-TEXT-CONTENT", "GET-TEXT")
}

var kindNames = map[keywordKind]string{
	kwProcessing: "processing command",
	kwCreating:   "element creating command",
	kwSelecting:  "element selecting command",
	kwExtracting: "value extracting command",
}

// parser is a recursive descent parser over the command string. pos is a
// byte offset.
type parser struct {
	input string
	pos   int
}

func (p *parser) fail(expected string) error {
	return &GrammarError{Input: p.input, Offset: p.pos, Expected: expected}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipWhitespace() bool {
	start := p.pos
	for !p.eof() {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r', '\f':
			p.pos++
		default:
			return p.pos > start
		}
	}
	return p.pos > start
}

// accept consumes s if the input continues with it.
func (p *parser) accept(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if !p.accept(s) {
		return p.fail(strconv.Quote(s))
	}
	return nil
}

func (p *parser) acceptAny(alternatives []string) bool {
	for _, s := range alternatives {
		if p.accept(s) {
			return true
		}
	}
	return false
}

func (p *parser) expectAny(alternatives []string) error {
	if !p.acceptAny(alternatives) {
		return p.fail(strings.Join(alternatives, " or "))
	}
	return nil
}

// finish makes sure the whole input was consumed.
func (p *parser) finish() error {
	p.skipWhitespace()
	if !p.eof() {
		return p.fail("end of input")
	}
	return nil
}

func isNameByte(c byte, extra string) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || strings.IndexByte(extra, c) >= 0
}

func (p *parser) scanName(extra string) string {
	start := p.pos
	for !p.eof() && isNameByte(p.input[p.pos], extra) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// name reads an element or attribute name of a command argument.
func (p *parser) name() (string, error) {
	n := p.scanName(":.")
	if n == "" {
		return "", p.fail("name")
	}
	return n, nil
}

// --- values -----------------------------------------------------------

const quoteChars = `"'?`

// value reads a quoted string. The opening character closes the value, a
// backslash before it makes it part of the value.
func (p *parser) value() (string, error) {
	delim := p.peek()
	if delim == 0 || strings.IndexByte(quoteChars, delim) < 0 {
		return "", p.fail("quoted value")
	}
	start := p.pos
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.input) && p.input[p.pos+1] == delim:
			sb.WriteByte(delim)
			p.pos += 2
		case c == delim:
			p.pos++
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	p.pos = start
	return "", p.fail("closing " + string(delim))
}

// --- selectors --------------------------------------------------------

func startsCompound(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || strings.IndexByte("*#.:[", c) >= 0
}

func (p *parser) selector() (Selector, error) {
	var sel Selector
	consumed := false
	if p.accept("*") {
		sel.Element = "*"
		consumed = true
	} else if c := p.peek(); c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		sel.Element = p.scanName("")
		consumed = true
	}
	for {
		switch p.peek() {
		case '#':
			if sel.ID != "" {
				return sel, p.fail("at most one id")
			}
			p.pos++
			if sel.ID = p.scanName(""); sel.ID == "" {
				return sel, p.fail("id")
			}
		case '.':
			p.pos++
			class := p.scanName("")
			if class == "" {
				return sel, p.fail("class name")
			}
			sel.Classes = append(sel.Classes, class)
		case ':':
			p.pos++
			pc, err := p.pseudoClass()
			if err != nil {
				return sel, err
			}
			sel.PseudoClasses = append(sel.PseudoClasses, pc)
		case '[':
			p.pos++
			attr, err := p.attributeSelector()
			if err != nil {
				return sel, err
			}
			sel.Attributes = append(sel.Attributes, attr)
		default:
			if !consumed {
				return sel, p.fail("selector")
			}
			return sel, nil
		}
		consumed = true
	}
}

var pseudoClasses = map[string]PseudoClassKind{
	"first-child":      FirstChild,
	"nth-child":        NthChild,
	"first-of-type":    FirstOfType,
	"nth-of-type":      NthOfType,
	"last-child":       LastChild,
	"nth-last-child":   NthLastChild,
	"last-of-type":     LastOfType,
	"nth-last-of-type": NthLastOfType,
}

func (p *parser) pseudoClass() (PseudoClass, error) {
	start := p.pos
	name := p.scanName("")
	kind, ok := pseudoClasses[name]
	if !ok {
		p.pos = start
		return PseudoClass{}, p.fail("pseudo class")
	}
	pc := PseudoClass{Kind: kind, N: 1}
	switch kind {
	case NthChild, NthOfType, NthLastChild, NthLastOfType:
		if err := p.expect("("); err != nil {
			return pc, err
		}
		p.skipWhitespace()
		numStart := p.pos
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.input[numStart:p.pos])
		if err != nil || n < 1 {
			p.pos = numStart
			return pc, p.fail("positive number")
		}
		pc.N = n
		p.skipWhitespace()
		if err := p.expect(")"); err != nil {
			return pc, err
		}
	}
	return pc, nil
}

// attributeOperators lists the operators, two character ones before "=".
var attributeOperators = []struct {
	token string
	op    AttributeOperator
}{
	{"^=", Starts},
	{"$=", Ends},
	{"*=", SubstringContains},
	{"~=", WhitespaceTermContains},
	{"|=", EqualsUpToHyphen},
	{"=", EqualsExact},
}

func (p *parser) attributeSelector() (AttributeSelector, error) {
	var attr AttributeSelector
	p.skipWhitespace()
	if attr.Attribute = p.scanName(":"); attr.Attribute == "" {
		return attr, p.fail("attribute name")
	}
	p.skipWhitespace()
	if p.accept("]") {
		attr.Operator = Exists
		return attr, nil
	}
	found := false
	for _, o := range attributeOperators {
		if p.accept(o.token) {
			attr.Operator = o.op
			found = true
			break
		}
	}
	if !found {
		return attr, p.fail("attribute operator or ]")
	}
	p.skipWhitespace()
	if strings.IndexByte(quoteChars, p.peek()) >= 0 && !p.eof() {
		v, err := p.value()
		if err != nil {
			return attr, err
		}
		attr.Value = v
	} else if attr.Value = p.scanName(""); attr.Value == "" {
		return attr, p.fail("attribute value")
	}
	p.skipWhitespace()
	if err := p.expect("]"); err != nil {
		return attr, err
	}
	return attr, nil
}

func (p *parser) selectorPath() (SelectorPath, error) {
	first, err := p.selector()
	if err != nil {
		return nil, err
	}
	path := SelectorPath{{Selector: first, Combinator: Start}}
	for {
		save := p.pos
		hadSpace := p.skipWhitespace()
		var comb Combinator
		switch p.peek() {
		case '>':
			comb = DirectChild
		case '~':
			comb = GeneralSibling
		case '+':
			comb = AdjacentSibling
		default:
			if !hadSpace || p.eof() || !startsCompound(p.peek()) {
				p.pos = save
				return path, nil
			}
			comb = Descendant
		}
		if comb != Descendant {
			p.pos++
			p.skipWhitespace()
		}
		sel, err := p.selector()
		if err != nil {
			return nil, err
		}
		path = append(path, SelectorStep{Selector: sel, Combinator: comb})
	}
}

func (p *parser) selectorList() (SelectorList, error) {
	var list SelectorList
	for {
		path, err := p.selectorPath()
		if err != nil {
			return nil, err
		}
		list = append(list, path)
		save := p.pos
		p.skipWhitespace()
		if !p.accept(",") {
			p.pos = save
			return list, nil
		}
		p.skipWhitespace()
	}
}

// --- commands ---------------------------------------------------------

// keyword reads a command keyword of the wanted kind.
func (p *parser) keyword(kind keywordKind) (string, error) {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c >= 'A' && c <= 'Z' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	kw, ok := keywords[p.input[start:p.pos]]
	if !ok || kw.kind != kind {
		p.pos = start
		return "", p.fail(kindNames[kind])
	}
	return kw.name, nil
}

// open consumes "{" with surrounding whitespace.
func (p *parser) open() error {
	p.skipWhitespace()
	if err := p.expect("{"); err != nil {
		return err
	}
	p.skipWhitespace()
	return nil
}

func (p *parser) close() error {
	p.skipWhitespace()
	return p.expect("}")
}

// emptyArgs consumes an optional "{}".
func (p *parser) emptyArgs() error {
	save := p.pos
	p.skipWhitespace()
	if !p.accept("{") {
		p.pos = save
		return nil
	}
	return p.close()
}

// marker consumes one of the marker spellings between whitespace.
func (p *parser) marker(alternatives []string) error {
	p.skipWhitespace()
	if err := p.expectAny(alternatives); err != nil {
		return err
	}
	p.skipWhitespace()
	return nil
}

func (p *parser) valueSource() (ValueSource, error) {
	if c := p.peek(); c != 0 && strings.IndexByte(quoteChars, c) >= 0 {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	}
	sp, err := p.stringPipeline()
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// optionalAssignValue reads a value source that may be preceded by an
// assignment marker.
func (p *parser) optionalAssignValue() (ValueSource, error) {
	if p.acceptAny(assignMarkers) {
		p.skipWhitespace()
	}
	return p.valueSource()
}

// braced parses "{" f "}".
func braced[T any](p *parser, f func() (T, error)) (T, error) {
	var zero T
	if err := p.open(); err != nil {
		return zero, err
	}
	v, err := f()
	if err != nil {
		return zero, err
	}
	if err := p.close(); err != nil {
		return zero, err
	}
	return v, nil
}

func (p *parser) processingCommand() (ProcessingCommand, error) {
	name, err := p.keyword(kwProcessing)
	if err != nil {
		return nil, err
	}
	switch name {
	case "EXTRACT-ELEMENT":
		sl, err := braced(p, p.selectorList)
		return ExtractElement{Selector: sl}, err
	case "REMOVE-ELEMENT":
		sl, err := braced(p, p.selectorList)
		return RemoveElement{Selector: sl}, err
	case "FOR-EACH":
		return braced(p, func() (ProcessingCommand, error) {
			sl, err := p.selectorList()
			if err != nil {
				return nil, err
			}
			if err := p.marker(iterateMarkers); err != nil {
				return nil, err
			}
			pl, err := p.pipeline()
			return ForEach{Selector: sl, Pipeline: pl}, err
		})
	case "REPLACE-ELEMENT":
		return braced(p, func() (ProcessingCommand, error) {
			sl, err := p.selectorList()
			if err != nil {
				return nil, err
			}
			if err := p.marker(assignMarkers); err != nil {
				return nil, err
			}
			cp, err := p.creatingPipeline()
			return ReplaceElement{Selector: sl, Creating: cp}, err
		})
	case "CLEAR-ATTRIBUTE":
		n, err := braced(p, p.name)
		return ClearAttribute{Attribute: n}, err
	case "CLEAR-CONTENT":
		return ClearContent{}, p.emptyArgs()
	case "SET-ATTRIBUTE":
		return braced(p, func() (ProcessingCommand, error) {
			n, err := p.name()
			if err != nil {
				return nil, err
			}
			if err := p.marker(assignMarkers); err != nil {
				return nil, err
			}
			vs, err := p.valueSource()
			return SetAttribute{Attribute: n, Value: vs}, err
		})
	case "SET-TEXT-CONTENT":
		vs, err := braced(p, p.optionalAssignValue)
		return SetTextContent{Value: vs}, err
	case "APPEND-TEXT-CONTENT":
		vs, err := braced(p, p.optionalAssignValue)
		return AppendTextContent{Value: vs}, err
	case "APPEND-COMMENT":
		vs, err := braced(p, p.optionalAssignValue)
		return AppendComment{Value: vs}, err
	case "PREPEND-TEXT-CONTENT":
		vs, err := braced(p, p.optionalAssignValue)
		return PrependTextContent{Value: vs}, err
	case "PREPEND-COMMENT":
		vs, err := braced(p, p.optionalAssignValue)
		return PrependComment{Value: vs}, err
	case "APPEND-ELEMENT":
		cp, err := braced(p, p.creatingPipeline)
		return AppendElement{Creating: cp}, err
	case "PREPEND-ELEMENT":
		cp, err := braced(p, p.creatingPipeline)
		return PrependElement{Creating: cp}, err
	}
	return nil, p.fail(kindNames[kwProcessing])
}

func (p *parser) creatingCommand() (CreatingCommand, error) {
	name, err := p.keyword(kwCreating)
	if err != nil {
		return nil, err
	}
	switch name {
	case "CREATE-ELEMENT":
		n, err := braced(p, p.name)
		return CreateElement{Element: n}, err
	case "FROM-FILE":
		v, err := braced(p, p.value)
		return FromFile{Path: v}, err
	case "FROM-REPLACED":
		sl, err := braced(p, p.selectorList)
		return FromReplaced{Selector: sl}, err
	}
	return nil, p.fail(kindNames[kwCreating])
}

func (p *parser) selectingCommand() (SelectingCommand, error) {
	name, err := p.keyword(kwSelecting)
	if err != nil {
		return nil, err
	}
	switch name {
	case "USE-ELEMENT":
		return UseElement{}, p.emptyArgs()
	case "USE-PARENT":
		return UseParent{}, p.emptyArgs()
	case "QUERY-ELEMENT":
		sl, err := braced(p, p.selectorList)
		return QueryElement{Selector: sl}, err
	case "QUERY-PARENT":
		sl, err := braced(p, p.selectorList)
		return QueryParent{Selector: sl}, err
	case "QUERY-ROOT":
		sl, err := braced(p, p.selectorList)
		return QueryRoot{Selector: sl}, err
	}
	return nil, p.fail(kindNames[kwSelecting])
}

func (p *parser) extractingCommand() (ExtractingCommand, error) {
	name, err := p.keyword(kwExtracting)
	if err != nil {
		return nil, err
	}
	switch name {
	case "GET-ATTRIBUTE":
		n, err := braced(p, p.name)
		return GetAttribute{Attribute: n}, err
	case "GET-TEXT-CONTENT":
		return GetTextContent{}, p.emptyArgs()
	}
	return nil, p.fail(kindNames[kwExtracting])
}

// pipe consumes a "|" between whitespace. It returns false and leaves the
// position unchanged if there is none.
func (p *parser) pipe() bool {
	save := p.pos
	p.skipWhitespace()
	if p.accept("|") {
		p.skipWhitespace()
		return true
	}
	p.pos = save
	return false
}

func (p *parser) pipeline() (Pipeline, error) {
	var pl Pipeline
	for {
		cmd, err := p.processingCommand()
		if err != nil {
			return nil, err
		}
		pl = append(pl, cmd)
		if !p.pipe() {
			return pl, nil
		}
	}
}

func (p *parser) creatingPipeline() (CreatingPipeline, error) {
	var cp CreatingPipeline
	cmd, err := p.creatingCommand()
	if err != nil {
		return cp, err
	}
	cp.Command = cmd
	for p.pipe() {
		pc, err := p.processingCommand()
		if err != nil {
			return cp, err
		}
		cp.Pipeline = append(cp.Pipeline, pc)
	}
	return cp, nil
}

func (p *parser) stringPipeline() (StringPipeline, error) {
	var sp StringPipeline
	sel, err := p.selectingCommand()
	if err != nil {
		return sp, err
	}
	if !p.pipe() {
		return sp, p.fail(`"|"`)
	}
	ext, err := p.extractingCommand()
	if err != nil {
		return sp, err
	}
	return StringPipeline{Select: sel, Extract: ext}, nil
}

// parseAll runs f on the whole input, allowing surrounding whitespace.
func parseAll[T any](input string, f func(*parser) (T, error)) (T, error) {
	p := &parser{input: input}
	p.skipWhitespace()
	v, err := f(p)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := p.finish(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ParseSelector parses a compound selector such as div#main.note[lang].
func ParseSelector(input string) (Selector, error) {
	return parseAll(input, (*parser).selector)
}

// ParseSelectorPath parses a chain of compound selectors and combinators.
func ParseSelectorPath(input string) (SelectorPath, error) {
	return parseAll(input, (*parser).selectorPath)
}

// ParseSelectorList parses comma separated selector paths.
func ParseSelectorList(input string) (SelectorList, error) {
	return parseAll(input, (*parser).selectorList)
}

// ParseValue parses a quoted value.
func ParseValue(input string) (string, error) {
	return parseAll(input, (*parser).value)
}

// ParseProcessingCommand parses a single processing command.
func ParseProcessingCommand(input string) (ProcessingCommand, error) {
	return parseAll(input, (*parser).processingCommand)
}

// ParseCreatingCommand parses a single element creating command.
func ParseCreatingCommand(input string) (CreatingCommand, error) {
	return parseAll(input, (*parser).creatingCommand)
}

// ParseCreatingPipeline parses a creating command with its processing
// commands.
func ParseCreatingPipeline(input string) (CreatingPipeline, error) {
	return parseAll(input, (*parser).creatingPipeline)
}

// ParseStringPipeline parses a value extracting pipeline such as
// USE-PARENT | GET-ATTR{id}.
func ParseStringPipeline(input string) (StringPipeline, error) {
	return parseAll(input, (*parser).stringPipeline)
}

// ParsePipeline parses a complete command string.
func ParsePipeline(input string) (Pipeline, error) {
	return parseAll(input, (*parser).pipeline)
}
