package notebook

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/julien-sobczak/otlbook/internal/helpers"
	"github.com/julien-sobczak/otlbook/pkg/text"
)

const (
	// DefaultLanguage is the only language supported by the default interpreter.
	DefaultLanguage = "j"

	// Trailing character of lines generated by the interpreter
	OutputMarker = "\u00a0"
	// Record separator echoed before the last line of code.
	// Everything the interpreter prints before it is junk.
	Sentinel = "\u241e"
	// J session convention is to have user input indented 3 columns
	Prompt = "   "
)

// ErrMissingInterpreter is returned when no interpreter executable can be found.
var ErrMissingInterpreter = errors.New("couldn't find ijconsole or jconsole, please install a J programming language interpreter")

var regexComment = regexp.MustCompile(`NB\..*$`)

// Interpreter executes a program and returns everything written on stdout.
type Interpreter interface {
	Run(ctx context.Context, code string) (string, error)
}

// Evaluator runs the executable user blocks of a document.
type Evaluator struct {
	interpreter Interpreter

	regexLibrary    *regexp.Regexp
	regexExecutable *regexp.Regexp

	listeners []func(block *UserBlock, cached bool)
}

// NewEvaluator creates an evaluator for blocks labelled with the given language.
// An optional leading dot is accepted in labels (ex: ".j") to prevent HTML tag like formations.
func NewEvaluator(language string, interpreter Interpreter) *Evaluator {
	if language == "" {
		language = DefaultLanguage
	}
	quoted := regexp.QuoteMeta(language)
	return &Evaluator{
		interpreter:     interpreter,
		regexLibrary:    regexp.MustCompile(`^\.?` + quoted + `-lib\b`),
		regexExecutable: regexp.MustCompile(`^\.?` + quoted + `\b`),
	}
}

// OnEvaluation registers a callback invoked after every executable block.
func (e *Evaluator) OnEvaluation(fn func(block *UserBlock, cached bool)) {
	e.listeners = append(e.listeners, fn)
}

func (e *Evaluator) notifyListeners(block *UserBlock, cached bool) {
	for _, fn := range e.listeners {
		fn(block, cached)
	}
}

// IsLibrary returns if the block contains code shared with the following blocks.
func (e *Evaluator) IsLibrary(block *UserBlock) bool {
	return e.regexLibrary.MatchString(block.Label)
}

// IsExecutable returns if the block must be evaluated.
func (e *Evaluator) IsExecutable(block *UserBlock) bool {
	return !e.IsLibrary(block) && e.regexExecutable.MatchString(block.Label)
}

// Evaluate runs every executable block in document order and rewrites it with the output.
// Blocks whose code has not changed since the last evaluation are left untouched unless force is set.
func (e *Evaluator) Evaluate(ctx context.Context, segments []Segment, force bool) error {
	var trail []string

	for _, block := range Blocks(segments) {
		if e.IsLibrary(block) {
			trail = append(trail, block.Body...)
			continue
		}
		if !e.IsExecutable(block) {
			continue
		}

		formatted := FormatCode(block.Body)

		code := make([]string, 0, len(trail)+len(formatted)+1)
		code = append(code, trail...)
		code = append(code, formatted...)
		digest := HashCode(code)

		if !force && digest == block.Digest {
			e.notifyListeners(block, true)
			continue
		}

		// Eat the junk printed by the console up to the sentinel
		if len(formatted) > 0 && strings.TrimSpace(formatted[len(formatted)-1]) != ")" {
			last := code[len(code)-1]
			code = append(code[:len(code)-1], "echo '"+Sentinel+"'", last)
		}

		output, err := e.interpreter.Run(ctx, strings.Join(code, "\n"))
		if err != nil {
			return fmt.Errorf("unable to evaluate block %q at depth %d: %w", block.Label, block.Depth, err)
		}

		block.Body = append(formatted, CleanOutput(output)...)
		block.SetDigest(digest)
		e.notifyListeners(block, false)
	}

	return nil
}

// FormatCode removes generated lines and indents user input.
func FormatCode(lines []string) []string {
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasSuffix(line, OutputMarker) {
			continue
		}
		if !strings.HasPrefix(line, Prompt) {
			line = Prompt + line
		}
		result = append(result, line)
	}
	return result
}

// HashCode returns the digest of the meaningful part of the code.
// Comments, blank lines and whitespace differences do not change the digest.
func HashCode(lines []string) string {
	var code []string
	for _, line := range lines {
		line = strings.TrimSpace(regexComment.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		code = append(code, text.CollapseSpaces(line))
	}
	return helpers.HashLines(code)
}

// CleanOutput extracts the output lines following the sentinel.
// Every returned line ends with OutputMarker.
func CleanOutput(output string) []string {
	var result []string
	junk := true
	for _, line := range text.Lines(output) {
		if junk {
			i := strings.LastIndex(line, Sentinel)
			if i < 0 {
				continue
			}
			line = line[i+len(Sentinel):]
			junk = false
		}
		if text.IsBlank(line) {
			continue
		}
		if len(result) == 0 {
			line = strings.TrimPrefix(line, Prompt)
		}
		result = append(result, strings.TrimRightFunc(line, unicode.IsSpace)+OutputMarker)
	}
	return result
}
