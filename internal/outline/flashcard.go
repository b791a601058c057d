package outline

import (
	"iter"
	"regexp"
	"strings"
)

// Replacement of the hidden cloze on the front side
const clozeEllipsis = "..."

var regexCloze = regexp.MustCompile(`{{(.*?)}}`)

// Flashcard is a question/answer pair extracted from an outline.
type Flashcard struct {
	Front string `json:"front" yaml:"front"`
	Back  string `json:"back" yaml:"back"`
}

// Flashcards returns all flashcards of the outline in depth-first pre-order.
func (n *Node) Flashcards() []Flashcard {
	var result []Flashcard
	for card := range n.AllFlashcards() {
		result = append(result, card)
	}
	return result
}

// AllFlashcards iterates over the flashcards of the outline.
// The children of a node generating cards are not visited.
func (n *Node) AllFlashcards() iter.Seq[Flashcard] {
	return func(yield func(Flashcard) bool) {
		n.yieldFlashcards(yield)
	}
}

func (n *Node) yieldFlashcards(yield func(Flashcard) bool) bool {
	if cards := n.flashcards(); len(cards) > 0 {
		for _, card := range cards {
			if !yield(card) {
				return false
			}
		}
		return true
	}
	for _, child := range n.Children {
		if !child.yieldFlashcards(yield) {
			return false
		}
	}
	return true
}

// flashcards returns the cards described by the node itself.
func (n *Node) flashcards() []Flashcard {
	if n.IsRoot() || !isItem(n.Text) {
		return nil
	}

	// Regular question-answer pairs
	if len(n.Children) == 1 && strings.HasSuffix(n.Text, "?") && isAnswer(n.Children[0].Text) {
		return []Flashcard{{Front: n.Text, Back: n.Children[0].Text}}
	}

	// Clozes
	if len(n.Children) == 0 && isAnswer(n.Text) {
		return ParseCloze(n.Text)
	}

	return nil
}

// ParseCloze generates one card per {{cloze}} of a text.
// The front hides the cloze and the back contains the full text without delimiters.
func ParseCloze(txt string) []Flashcard {
	parts := SplitCloze(txt)
	if len(parts) < 3 {
		return nil
	}

	back := strings.Join(parts, "")

	var result []Flashcard
	for skip := 1; skip < len(parts); skip += 2 {
		var front strings.Builder
		for i, part := range parts {
			if i == skip {
				front.WriteString(clozeEllipsis)
			} else {
				front.WriteString(part)
			}
		}
		result = append(result, Flashcard{
			Front: front.String(),
			Back:  back,
		})
	}
	return result
}

// SplitCloze splits a text around {{cloze}} delimiters.
// Clozes are present at odd indices. The result always has an odd length.
func SplitCloze(txt string) []string {
	var parts []string
	last := 0
	for _, match := range regexCloze.FindAllStringSubmatchIndex(txt, -1) {
		parts = append(parts, txt[last:match[0]], txt[match[2]:match[3]])
		last = match[1]
	}
	return append(parts, txt[last:])
}

// isItem returns if a text is a regular outline item (= not empty and not a block).
func isItem(txt string) bool {
	return txt != "" && !strings.ContainsAny(txt[:1], ":;<>")
}

// isAnswer returns if a text ends with a period but not an ellipsis.
func isAnswer(txt string) bool {
	return strings.HasSuffix(txt, ".") && !strings.HasSuffix(txt, "..")
}
