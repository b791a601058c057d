package outline

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/julien-sobczak/otlbook/pkg/text"
)

// Two or more capitalized segments (ex: FooBar, Foo1Bar2)
var regexWikiWord = regexp.MustCompile(`^(?:[A-Z][a-z0-9]+){2,}$`)

// A whole-line parenthesized token without inner parentheses or whitespace (ex: (foo-bar))
var regexAlias = regexp.MustCompile(`^\(([^()\s]+)\)$`)

// Checkbox markers and their glyphs
var checkboxes = []struct {
	marker string
	glyph  string
}{
	{"[_] ", "\u2610"},
	{"[X] ", "\u2611"},
}

// Node is a line of an outline file with the lines nested below it.
type Node struct {
	// Number of leading tabs. The synthetic root uses -1.
	Depth int
	// Line content without leading tabs and trailing whitespace.
	// The root holds the file name without extension (or is empty).
	Text string
	// 1-based line number. 0 for the root as the root represents the whole file.
	Line int

	Parent   *Node `yaml:"-"`
	Children []*Node

	// Set when Text is a wikiword.
	WikiName string `yaml:",omitempty"`
	// Set when Text is an alias in the header block of the parent.
	AliasName string `yaml:",omitempty"`
}

// MatchWikiWord tests if a text is a wikiword.
func MatchWikiWord(txt string) bool {
	return regexWikiWord.MatchString(txt)
}

// MatchAlias tests if a text is an alias and returns the name between parentheses.
func MatchAlias(txt string) (string, bool) {
	match := regexAlias.FindStringSubmatch(txt)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseFile parses an outline file.
// The root node receives the file name truncated at the first dot.
func ParseFile(path string) (*Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read outline %q: %w", path, err)
	}
	return Parse(text.Lines(string(content)), text.TrimAllExtensions(path)), nil
}

// ParseString parses an outline text.
func ParseString(content string, name string) *Node {
	return Parse(text.Lines(content), name)
}

// Parse builds the outline tree from the given lines.
// Parsing never fails. Depth jumps create deep chains of single children.
func Parse(lines []string, name string) *Node {
	root := &Node{
		Depth: -1,
		Text:  name,
		Line:  0,
	}
	root.parseChildren(lines, 0)
	root.detect()
	return root
}

// parseChildren consumes the lines nested under the node starting at index start
// and returns the index of the first line not belonging to the node.
func (n *Node) parseChildren(lines []string, start int) int {
	i := start
	for i < len(lines) {
		depth, content := text.Dedent(lines[i])
		if depth <= n.Depth {
			break
		}
		child := &Node{
			Depth:  depth,
			Text:   strings.TrimRightFunc(content, unicode.IsSpace),
			Line:   i + 1,
			Parent: n,
		}
		i = child.parseChildren(lines, i+1)
		child.detect()
		n.Children = append(n.Children, child)
	}
	n.promoteAliases()
	return i
}

// detect sets the wikiword and alias names based on the node text.
func (n *Node) detect() {
	if n.Text != "" && MatchWikiWord(n.Text) {
		n.WikiName = n.Text
	}
	if alias, ok := MatchAlias(n.Text); ok {
		n.AliasName = alias
	}
}

// promoteAliases keeps aliases only on the leading run of alias children (= the header block).
func (n *Node) promoteAliases() {
	inHeaderBlock := true
	for _, child := range n.Children {
		if child.AliasName == "" {
			inHeaderBlock = false
			continue
		}
		if !inHeaderBlock {
			child.AliasName = ""
		}
	}
}

// IsRoot returns if the node represents the whole file.
func (n *Node) IsRoot() bool {
	return n.Depth < 0
}

// Len returns the number of lines covered by the node.
func (n *Node) Len() int {
	length := 0
	if !n.IsRoot() {
		length = 1
	}
	for _, child := range n.Children {
		length += child.Len()
	}
	return length
}

// Walk traverses the tree in depth-first pre-order.
// Returning false from fn skips the children of the current node.
func (n *Node) Walk(fn func(node *Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// String returns the node as written in the outline file.
func (n *Node) String() string {
	if n.IsRoot() {
		return fmt.Sprintf("Outline %q", n.Text)
	}
	return text.Indent(n.Depth, n.Text)
}

// Display returns the text with a leading checkbox marker replaced by its glyph.
func (n *Node) Display() string {
	for _, checkbox := range checkboxes {
		if strings.HasPrefix(n.Text, checkbox.marker) {
			return checkbox.glyph + strings.TrimPrefix(n.Text, checkbox.marker)
		}
	}
	return n.Text
}
