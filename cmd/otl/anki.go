package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/julien-sobczak/otlbook/internal/anki"
	"github.com/julien-sobczak/otlbook/internal/core"
	"github.com/julien-sobczak/otlbook/internal/outline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dump bool
var dumpFormat string
var dumpQuery string

func init() {
	ankiCmd.Flags().BoolVarP(&dump, "dump", "", false, "print tab-separated plaintext export instead of uploading to Anki")
	ankiCmd.Flags().StringVarP(&dumpFormat, "format", "", "tsv", "dump format: tsv, json or yaml")
	ankiCmd.Flags().StringVarP(&dumpQuery, "jq", "", "", "dump only the cards matching a jq expression (ex: 'select(.front | test(\"Go\"))')")
	rootCmd.AddCommand(ankiCmd)
}

var ankiCmd = &cobra.Command{
	Use:   "anki",
	Short: "Upload flashcards to Anki",
	Long:  `Extract flashcards from all outline files and synchronize the current Anki deck using AnkiConnect.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()

		cards, err := core.CurrentCollection().Flashcards(ctx)
		exitOnError(err)

		if dump {
			if dumpQuery != "" {
				cards, err = filterCards(cards, dumpQuery)
				exitOnError(err)
			}
			exitOnError(dumpCards(os.Stdout, cards, dumpFormat))
			return
		}

		exitOnError(uploadCards(ctx, cards))
	},
}

func uploadCards(ctx context.Context, cards []outline.Flashcard) error {
	client := core.CurrentConfig().AnkiClient()
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(os.Stderr, "Updating Anki deck with %d cards\n", len(cards))

	synchronizer := anki.NewSynchronizer(client)
	synchronizer.OnChange(func(change anki.Change) {
		core.CurrentLogger().Info(change)
	})
	plan, err := synchronizer.Update(ctx, cards)
	if err != nil {
		return err
	}
	if plan.Empty() {
		core.CurrentLogger().Info("Deck is up-to-date")
	} else {
		core.CurrentLogger().Infof("%d added, %d updated, %d suspended, %d unsuspended",
			plan.Count(anki.Added), plan.Count(anki.Updated), plan.Count(anki.Suspended), plan.Count(anki.Unsuspended))
	}

	return client.Sync(ctx)
}

// dumpCards prints the cards using the given format.
func dumpCards(w io.Writer, cards []outline.Flashcard, format string) error {
	switch format {
	case "tsv":
		for _, card := range cards {
			front := strings.ReplaceAll(card.Front, "\t", " ")
			back := strings.ReplaceAll(card.Back, "\t", " ")
			if _, err := fmt.Fprintf(w, "%s\t%s\t\n", front, back); err != nil {
				return err
			}
		}
		return nil
	case "json":
		if cards == nil {
			cards = []outline.Flashcard{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cards)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(cards); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format %q (expected tsv, json or yaml)", format)
	}
}

// filterCards keeps the cards for which the jq expression outputs a value other than false or null.
func filterCards(cards []outline.Flashcard, expr string) ([]outline.Flashcard, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}

	var result []outline.Flashcard
	for _, card := range cards {
		input := map[string]any{
			"front": card.Front,
			"back":  card.Back,
		}
		iter := code.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				return nil, err
			}
			if v != nil && v != false {
				result = append(result, card)
				break
			}
		}
	}
	return result, nil
}
