package notebook

import (
	"regexp"
	"strings"

	"github.com/julien-sobczak/otlbook/pkg/text"
)

// DefaultMarker is the line prefix introducing user blocks.
const DefaultMarker = ";"

var regexDigest = regexp.MustCompile(`md5:(.+?)\b`)

// Segment is either a PlainRun or a *UserBlock.
type Segment interface {
	segment()
}

// PlainRun is a run of consecutive lines outside user blocks.
type PlainRun struct {
	Lines []string
}

func (*PlainRun) segment() {}

// UserBlock is a run of marker-prefixed lines sharing the same depth.
//
// Ex:
//
//	;j md5:45cbd3ba0e5a9a1c4f4e40e40f2c7ecd
//	;    1 + 1
//	; 2
type UserBlock struct {
	Depth int
	// Text following the marker on the header line. Empty for anonymous blocks.
	Label string
	// Digest of the code the last time the block was evaluated (md5:<digest> in the label).
	Digest string
	Body   []string
}

func (*UserBlock) segment() {}

// NewUserBlock creates a block and extracts the cached digest from the label.
func NewUserBlock(depth int, label string) *UserBlock {
	block := &UserBlock{
		Depth: depth,
		Label: label,
	}
	if match := regexDigest.FindStringSubmatch(label); match != nil {
		block.Digest = match[1]
	}
	return block
}

// Syntax returns the first word of the label.
func (b *UserBlock) Syntax() string {
	fields := strings.Fields(b.Label)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SetDigest replaces the md5:<digest> tokens present in the label.
func (b *UserBlock) SetDigest(digest string) {
	var fields []string
	for _, field := range strings.Fields(b.Label) {
		if strings.HasPrefix(field, "md5:") {
			continue
		}
		fields = append(fields, field)
	}
	fields = append(fields, "md5:"+digest)
	b.Label = strings.Join(fields, " ")
	b.Digest = digest
}

// Splitter isolates user blocks from the remaining text.
type Splitter struct {
	Marker string
}

// NewSplitter returns a splitter using the given marker (DefaultMarker when empty).
func NewSplitter(marker string) *Splitter {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Splitter{
		Marker: marker,
	}
}

// Split groups lines into alternating plain runs and user blocks.
// Trailing spaces, tabs and newlines are stripped from every line.
func (s *Splitter) Split(lines []string) []Segment {
	var segments []Segment

	last := func() Segment {
		if len(segments) == 0 {
			return nil
		}
		return segments[len(segments)-1]
	}

	for _, line := range lines {
		line = text.TrimTrailingSpace(line)
		depth, content := text.Dedent(line)

		switch {
		case content == s.Marker || strings.HasPrefix(content, s.Marker+" "):
			// Continue the current block when the indentation matches
			block, ok := last().(*UserBlock)
			if !ok || block.Depth != depth {
				block = NewUserBlock(depth, "")
				segments = append(segments, block)
			}
			block.Body = append(block.Body, strings.TrimPrefix(content[len(s.Marker):], " "))
		case strings.HasPrefix(content, s.Marker):
			// No trailing space, always a new block
			segments = append(segments, NewUserBlock(depth, content[len(s.Marker):]))
		default:
			run, ok := last().(*PlainRun)
			if !ok {
				run = &PlainRun{}
				segments = append(segments, run)
			}
			run.Lines = append(run.Lines, line)
		}
	}

	return segments
}

// SplitString splits a text.
func (s *Splitter) SplitString(content string) []Segment {
	return s.Split(text.Lines(content))
}

// Join reassembles segments into a text. Lines are joined with "\n".
func (s *Splitter) Join(segments []Segment) string {
	var lines []string
	for _, segment := range segments {
		switch seg := segment.(type) {
		case *PlainRun:
			lines = append(lines, seg.Lines...)
		case *UserBlock:
			indent := text.Indent(seg.Depth, "")
			if seg.Label != "" {
				lines = append(lines, indent+s.Marker+seg.Label)
			}
			for _, line := range seg.Body {
				lines = append(lines, text.TrimTrailingSpace(indent+s.Marker+" "+line))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Blocks returns the user blocks in document order.
func Blocks(segments []Segment) []*UserBlock {
	var blocks []*UserBlock
	for _, segment := range segments {
		if block, ok := segment.(*UserBlock); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}
