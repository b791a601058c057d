package main

import (
	"context"
	"fmt"
	"os"

	"github.com/julien-sobczak/otlbook/internal/core"
	"github.com/spf13/cobra"
)

var watch bool

func init() {
	tagsCmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate tags when outline files change")
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Generate tags",
	Long:  `Generate a ctags file and a navigation index for the wikiwords and aliases of all outline files.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		exitOnError(writeTags(ctx))
		if !watch {
			return
		}

		err := core.CurrentCollection().Watch(ctx, func(changed []string) error {
			core.CurrentLogger().Infof("Detected changes in %d file(s)", len(changed))
			return writeTags(ctx)
		})
		exitOnError(err)
	},
}

func writeTags(ctx context.Context) error {
	index, written, err := core.CurrentCollection().WriteTags(ctx)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(os.Stderr, "Wrote %s (%d tags)\n", path, index.Len())
	}
	return nil
}
