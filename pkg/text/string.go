package text

import (
	"path/filepath"
	"strings"
)

// Characters removed at the end of lines before any outline processing.
const trailingSpace = " \t\n"

// IsBlank returns if a text is blank.
func IsBlank(text string) bool {
	return len(strings.TrimSpace(text)) == 0
}

// TrimExtension removes the extension from a file name or file path.
func TrimExtension(path string) string {
	path = strings.TrimSuffix(path, string(filepath.Separator))
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// TrimAllExtensions returns the base name of a path truncated at the first dot.
//
// Ex: "notes/FooBar.otl.html" => "FooBar"
func TrimAllExtensions(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// TrimTrailingSpace strips trailing spaces, tabs and newlines.
// Other whitespace characters (ex: NBSP) are preserved.
func TrimTrailingSpace(line string) string {
	return strings.TrimRight(line, trailingSpace)
}

// Depth returns the number of leading tab characters.
func Depth(line string) int {
	depth := 0
	for depth < len(line) && line[depth] == '\t' {
		depth++
	}
	return depth
}

// Dedent splits a line into its tab depth and the remaining text.
func Dedent(line string) (int, string) {
	depth := Depth(line)
	return depth, line[depth:]
}

// Indent prefixes a text with the given number of tabs.
func Indent(depth int, text string) string {
	if depth <= 0 {
		return text
	}
	return strings.Repeat("\t", depth) + text
}

// Lines splits a text into lines. A final newline does not produce an empty last line.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// CollapseSpaces replaces every run of whitespace by a single space.
func CollapseSpaces(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
