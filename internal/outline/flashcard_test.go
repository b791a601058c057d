package outline_test

import (
	"testing"

	"github.com/julien-sobczak/otlbook/internal/outline"
	"github.com/julien-sobczak/otlbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashcards(t *testing.T) {
	var tests = []struct {
		name     string
		content  string
		expected []outline.Flashcard
	}{
		{
			name:    "Question and answer",
			content: "What is the capital of France?\n\tParis.\n",
			expected: []outline.Flashcard{
				{Front: "What is the capital of France?", Back: "Paris."},
			},
		},
		{
			name:     "Answer ending with an ellipsis",
			content:  "What is the capital of France?\n\tParis...\n",
			expected: nil,
		},
		{
			name:     "Answer without period",
			content:  "What is the capital of France?\n\tParis\n",
			expected: nil,
		},
		{
			name:     "Question with several children",
			content:  "What is the capital of France?\n\tParis.\n\tI think.\n",
			expected: nil,
		},
		{
			name:    "Cloze",
			content: "The capital of {{France}} is {{Paris}}.\n",
			expected: []outline.Flashcard{
				{Front: "The capital of ... is Paris.", Back: "The capital of France is Paris."},
				{Front: "The capital of France is ....", Back: "The capital of France is Paris."},
			},
		},
		{
			name:     "Cloze with children",
			content:  "The capital of {{France}} is {{Paris}}.\n\tSee also Lyon.\n",
			expected: nil,
		},
		{
			name:     "Text without cloze",
			content:  "Paris is the capital of France.\n",
			expected: nil,
		},
		{
			name:     "Block",
			content:  "; The capital of {{France}} is Paris.\n> The capital of {{France}} is Paris.\n: The capital of {{France}} is Paris.\n",
			expected: nil,
		},
		{
			name:    "Nested",
			content: "Geography\n\tEurope\n\t\tWhat is the capital of France?\n\t\t\tParis.\n",
			expected: []outline.Flashcard{
				{Front: "What is the capital of France?", Back: "Paris."},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := outline.ParseString(tt.content, "")
			assert.Equal(t, tt.expected, root.Flashcards())
		})
	}
}

func TestFlashcardsFromFile(t *testing.T) {
	filename := testutil.SetUpFromGoldenFile(t)

	root, err := outline.ParseFile(filename)
	require.NoError(t, err)

	expected := []outline.Flashcard{
		{Front: "What is the mascot of Go?", Back: "A gopher."},
		{Front: "Go was designed at ....", Back: "Go was designed at Google."},
		{Front: "[_] Read ....", Back: "[_] Read SICP."},
	}
	assert.Equal(t, expected, root.Flashcards())
}

func TestAllFlashcardsStopsEarly(t *testing.T) {
	root := outline.ParseString("A {{b}} {{c}}.\nD {{e}}.\n", "")

	var fronts []string
	for card := range root.AllFlashcards() {
		fronts = append(fronts, card.Front)
		if len(fronts) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"A ... c.", "A b ...."}, fronts)
}

func TestSplitCloze(t *testing.T) {
	var tests = []struct {
		input    string
		expected []string
	}{
		{"No cloze", []string{"No cloze"}},
		{"{{Start}} here", []string{"", "Start", " here"}},
		{"One {{two}} three {{four}}", []string{"One ", "two", " three ", "four", ""}},
		{"Lazy {{a}}}} b", []string{"Lazy ", "a", "}} b"}},
		{"Empty {{}} cloze", []string{"Empty ", "", " cloze"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			actual := outline.SplitCloze(tt.input)
			assert.Equal(t, tt.expected, actual)
			assert.Equal(t, 1, len(actual)%2)
		})
	}
}

func TestParseCloze(t *testing.T) {
	assert.Nil(t, outline.ParseCloze("No cloze."))
	assert.Equal(t, []outline.Flashcard{
		{Front: "... is a language.", Back: "Go is a language."},
	}, outline.ParseCloze("{{Go}} is a language."))
}
