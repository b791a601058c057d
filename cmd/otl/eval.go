package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/julien-sobczak/otlbook/internal/core"
	"github.com/julien-sobczak/otlbook/internal/notebook"
	godiffpatch "github.com/sourcegraph/go-diff-patch"
	"github.com/spf13/cobra"
)

var force bool
var showDiff bool

func init() {
	evalCmd.Flags().BoolVarP(&force, "force", "f", false, "evaluate all blocks even when unchanged")
	evalCmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print the changes on stderr")
	rootCmd.AddCommand(evalCmd)
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate code blocks",
	Long: `Read a document from stdin, evaluate the code blocks whose code changed since
the last evaluation and write the updated document on stdout.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		input, err := io.ReadAll(os.Stdin)
		exitOnError(err)

		config := core.CurrentConfig()
		evaluator := notebook.NewEvaluator(config.ConfigFile.Eval.Language, config.Interpreter())
		evaluator.OnEvaluation(func(block *notebook.UserBlock, cached bool) {
			if cached {
				core.CurrentLogger().Debugf("Skipping block %q (up-to-date)", block.Label)
			} else {
				core.CurrentLogger().Infof("Evaluated block %q", block.Label)
			}
		})

		output, err := evalDocument(ctx, config.Splitter(), evaluator, string(input), force)
		if errors.Is(err, notebook.ErrMissingInterpreter) {
			fmt.Fprintf(os.Stderr, "No interpreter found in $PATH. Install J or update [eval] interpreters in .otl/config.\n")
		}
		exitOnError(err)

		fmt.Fprint(os.Stdout, output)
		if showDiff {
			printDiff(os.Stderr, godiffpatch.GeneratePatch("stdin", string(input), output))
		}
	},
}

// evalDocument returns the document with the output of the evaluated blocks.
func evalDocument(ctx context.Context, splitter *notebook.Splitter, evaluator *notebook.Evaluator, input string, force bool) (string, error) {
	segments := splitter.SplitString(input)
	if err := evaluator.Evaluate(ctx, segments, force); err != nil {
		return "", err
	}
	output := splitter.Join(segments)
	if output != "" {
		output += "\n"
	}
	return output, nil
}

func printDiff(w io.Writer, diff string) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			red.Fprintln(w, line)
		} else if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			green.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}
