package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/julien-sobczak/otlbook/internal/outline"
	"github.com/julien-sobczak/otlbook/pkg/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var debug bool
var glyphs bool
var echoFormat string

func init() {
	echoCmd.Flags().BoolVarP(&debug, "debug", "", false, "print debug versions of nodes")
	echoCmd.Flags().BoolVarP(&glyphs, "glyphs", "", false, "display checkboxes as glyphs")
	echoCmd.Flags().StringVarP(&echoFormat, "format", "", "text", "output format: text or yaml")
	rootCmd.AddCommand(echoCmd)
}

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Parse and echo stdin",
	Long:  `Test the parser by parsing and echoing the outline read from stdin.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		input, err := io.ReadAll(os.Stdin)
		exitOnError(err)

		root := outline.ParseString(string(input), "")
		if debug {
			spew.Fdump(os.Stdout, root)
			return
		}
		exitOnError(echoOutline(os.Stdout, root, echoFormat, glyphs))
	},
}

// echoOutline prints the outline using the given format.
func echoOutline(w io.Writer, root *outline.Node, format string, glyphs bool) error {
	switch format {
	case "text":
		var err error
		root.Walk(func(node *outline.Node) bool {
			if node.IsRoot() || err != nil {
				return err == nil
			}
			line := node.String()
			if glyphs {
				line = text.Indent(node.Depth, node.Display())
			}
			_, err = fmt.Fprintln(w, line)
			return err == nil
		})
		return err
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(root.Children); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format %q (expected text or yaml)", format)
	}
}
