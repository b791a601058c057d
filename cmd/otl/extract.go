package main

import (
	"fmt"
	"io"
	"os"

	"github.com/julien-sobczak/otlbook/internal/core"
	"github.com/julien-sobczak/otlbook/internal/notebook"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <syntax>",
	Short: "Extract code blocks",
	Long:  `Extract deindented fragments of specific syntax from the outline read from stdin (ex: otl extract j-lib).`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input, err := io.ReadAll(os.Stdin)
		exitOnError(err)

		segments := core.CurrentConfig().Splitter().SplitString(string(input))
		exitOnError(extractBlocks(os.Stdout, segments, args[0]))
	},
}

// extractBlocks prints the body of blocks using the given syntax.
func extractBlocks(w io.Writer, segments []notebook.Segment, syntax string) error {
	for _, block := range notebook.Blocks(segments) {
		if block.Syntax() != syntax {
			continue
		}
		for _, line := range block.Body {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
