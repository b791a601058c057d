package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Tag is a navigable destination for a wikiword or an alias.
type Tag struct {
	// Wikiword or alias
	Name string
	// Path of the file as walked in the collection
	Path string
	// Line number of the destination. 0 means the whole file.
	Line int
	// Text of the destination line (= the wikiword holding the tag)
	Target string
}

// FileLevel returns if the tag refers to an entire file.
func (t Tag) FileLevel() bool {
	return t.Line == 0
}

// ExCmd returns the ctags address used by editors to jump to the destination.
func (t Tag) ExCmd() string {
	if t.FileLevel() {
		// Line 0 means the tag refers to the entire file,
		// just point ctags to the start of the file
		return "0"
	}
	return fmt.Sprintf(`/^\t\*%s$/`, t.Target)
}

// CTagLine formats the tag using the ctags format (http://ctags.sourceforge.net/FORMAT).
func (t Tag) CTagLine() string {
	return fmt.Sprintf("%s\t%s\t%s", t.Name, t.Path, t.ExCmd())
}

// Destination returns the navigation path of the tag.
func (t Tag) Destination() string {
	if t.FileLevel() {
		return t.Path
	}
	return fmt.Sprintf("%s#%s", t.Path, t.Target)
}

func (t Tag) String() string {
	return t.CTagLine()
}

// Tags extracts the tags of an outline in depth-first pre-order.
func Tags(root *Node, path string) []Tag {
	var tags []Tag
	root.Walk(func(node *Node) bool {
		if node.WikiName != "" {
			tags = append(tags, Tag{
				Name:   node.WikiName,
				Path:   path,
				Line:   node.Line,
				Target: node.WikiName,
			})
		}
		if node.AliasName != "" && node.Parent != nil && node.Parent.WikiName != "" {
			// Redirect aliases to parent
			tags = append(tags, Tag{
				Name:   node.AliasName,
				Path:   path,
				Line:   node.Parent.Line,
				Target: node.Parent.WikiName,
			})
		}
		return true
	})
	return tags
}

// TagIndex accumulates the tags of a collection of files.
type TagIndex struct {
	tags        []Tag
	destination map[string]string
}

// NewTagIndex initializes an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		destination: make(map[string]string),
	}
}

// Add registers tags in encounter order.
func (i *TagIndex) Add(tags ...Tag) {
	for _, tag := range tags {
		i.tags = append(i.tags, tag)

		// There might be multiple matches and we only keep one.
		// Files take precedence over in-file tags.
		if _, ok := i.destination[tag.Name]; !ok || tag.FileLevel() {
			i.destination[tag.Name] = tag.Destination()
		}
	}
}

// Len returns the number of registered tags.
func (i *TagIndex) Len() int {
	return len(i.tags)
}

// Tags returns the registered tags in encounter order.
func (i *TagIndex) Tags() []Tag {
	return i.tags
}

// Destination returns the single destination retained for a name.
func (i *TagIndex) Destination(name string) (string, bool) {
	dest, ok := i.destination[name]
	return dest, ok
}

// Navigation returns the name => destination map.
func (i *TagIndex) Navigation() map[string]string {
	result := make(map[string]string, len(i.destination))
	for name, dest := range i.destination {
		result[name] = dest
	}
	return result
}

// CTags returns the sorted and deduplicated ctags lines.
func (i *TagIndex) CTags() []string {
	seen := make(map[string]bool)
	var lines []string
	for _, tag := range i.tags {
		line := tag.CTagLine()
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

// WriteCTags writes the tags file content.
func (i *TagIndex) WriteCTags(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(i.CTags(), "\n"))
	return err
}

// WriteNavigation writes the navigation map as indented JSON.
func (i *TagIndex) WriteNavigation(w io.Writer) error {
	// Keys of maps are sorted by encoding/json
	data, err := json.MarshalIndent(i.destination, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
