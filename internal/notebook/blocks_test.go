package notebook_test

import (
	"strings"
	"testing"

	"github.com/julien-sobczak/otlbook/internal/notebook"
	"github.com/julien-sobczak/otlbook/internal/testutil"
	"github.com/julien-sobczak/otlbook/pkg/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	content := string(testutil.GoldenFileNamed(t, "TestSplitJoin.otl"))
	segments := notebook.NewSplitter("").SplitString(content)

	expected := []notebook.Segment{
		&notebook.PlainRun{Lines: []string{"JNotebook", "\tA few experiments with J.", "\tArithmetic"}},
		&notebook.UserBlock{Depth: 2, Label: "j-lib", Body: []string{"double =: +:"}},
		&notebook.UserBlock{Depth: 2, Label: "j md5:0123456789abcdef0123456789abcdef", Digest: "0123456789abcdef0123456789abcdef", Body: []string{"   double 1 + 1", "4\u00a0"}},
		&notebook.PlainRun{Lines: []string{"\t\tTrailing spaces are ignored"}},
		&notebook.UserBlock{Depth: 2, Body: []string{"", "anonymous block"}},
		&notebook.UserBlock{Depth: 3, Body: []string{"nested at another depth"}},
		&notebook.UserBlock{Depth: 2, Label: "\tlabel with tab"},
		&notebook.PlainRun{Lines: []string{"\tExplicit definitions"}},
		&notebook.UserBlock{Depth: 2, Label: "j", Body: []string{"f =: 3 : 0", "  y + 1", ")"}},
		&notebook.PlainRun{Lines: []string{""}},
		&notebook.UserBlock{Depth: 0, Label: "top-level", Body: []string{"body"}},
	}
	assert.Equal(t, expected, segments)
}

func TestSplitJoin(t *testing.T) {
	content := string(testutil.GoldenFile(t))

	var expected []string
	for _, line := range text.Lines(content) {
		expected = append(expected, strings.TrimRight(line, " \t\n"))
	}

	splitter := notebook.NewSplitter(notebook.DefaultMarker)
	actual := splitter.Join(splitter.SplitString(content))
	assert.Equal(t, strings.Join(expected, "\n"), actual)
}

func TestSplitJoinRoundTrip(t *testing.T) {
	var tests = []struct {
		name  string
		input []string
	}{
		{
			name:  "Empty",
			input: nil,
		},
		{
			name:  "Plain text only",
			input: []string{"FooBar", "\tSome text"},
		},
		{
			name:  "Block only",
			input: []string{";j", "; 1 + 1"},
		},
		{
			name:  "Consecutive headers",
			input: []string{";j", ";j", "; 1"},
		},
		{
			name:  "Body lines at different depths",
			input: []string{"\t; a", "\t\t; b", "\t; c"},
		},
		{
			name:  "Trailing whitespace",
			input: []string{"Text  ", "\t;j  ", "\t;   2 \t"},
		},
		{
			name:  "Marker not followed by a space",
			input: []string{";;", ";;;", "; ;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expected []string
			for _, line := range tt.input {
				expected = append(expected, strings.TrimRight(line, " \t\n"))
			}

			splitter := notebook.NewSplitter("")
			actual := splitter.Join(splitter.Split(tt.input))
			assert.Equal(t, strings.Join(expected, "\n"), actual)
		})
	}
}

func TestSplitCustomMarker(t *testing.T) {
	splitter := notebook.NewSplitter("%")
	segments := splitter.SplitString("Text\n%py\n% print(1)\n; not a block\n")

	require.Len(t, segments, 3)
	block, ok := segments[1].(*notebook.UserBlock)
	require.True(t, ok)
	assert.Equal(t, "py", block.Label)
	assert.Equal(t, []string{"print(1)"}, block.Body)
	assert.Equal(t, &notebook.PlainRun{Lines: []string{"; not a block"}}, segments[2])
}

func TestUserBlock(t *testing.T) {
	block := notebook.NewUserBlock(1, ".j slow md5:abc123 md5:def456")
	assert.Equal(t, "abc123", block.Digest)
	assert.Equal(t, ".j", block.Syntax())

	block.SetDigest("fed321")
	assert.Equal(t, ".j slow md5:fed321", block.Label)
	assert.Equal(t, "fed321", block.Digest)

	block = notebook.NewUserBlock(0, "")
	assert.Equal(t, "", block.Digest)
	assert.Equal(t, "", block.Syntax())
	block.SetDigest("abc")
	assert.Equal(t, "md5:abc", block.Label)
}

func TestBlocks(t *testing.T) {
	segments := notebook.NewSplitter("").SplitString("A\n;j\n; 1\nB\n; 2\n")

	blocks := notebook.Blocks(segments)
	require.Len(t, blocks, 2)
	assert.Equal(t, "j", blocks[0].Label)
	assert.Equal(t, []string{"2"}, blocks[1].Body)
}
