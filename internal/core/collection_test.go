package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/julien-sobczak/otlbook/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionGetRelativePath(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDirNamed(t, "TestCollection")
	require.Equal(t, dirname, CurrentConfig().RootDirectory)

	relpath, err := CurrentCollection().GetFileRelativePath(filepath.Join(dirname, "projects", "TodoList.otl.html"))
	require.NoError(t, err)
	assert.Equal(t, "projects/TodoList.otl.html", relpath)
	assert.Equal(t, filepath.Join(dirname, "projects", "TodoList.otl.html"), CurrentCollection().GetAbsolutePath(relpath))
}

func TestCollection(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDir(t)

	// Symlinks are not followed
	require.NoError(t, os.Symlink(filepath.Join(dirname, "WikiIndex.otl"), filepath.Join(dirname, "Link.otl")))

	files, err := CurrentCollection().Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ProgrammingLanguages.otl",
		"WikiIndex.otl",
		"projects/TodoList.otl.html",
	}, files)
}

func TestCollectionOutlines(t *testing.T) {
	SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	outlines, err := CurrentCollection().Outlines(context.Background())
	require.NoError(t, err)
	require.Len(t, outlines, 3)

	assert.Equal(t, "ProgrammingLanguages.otl", outlines[0].RelativePath)
	assert.Equal(t, "ProgrammingLanguages", outlines[0].Root.Text)
	assert.Equal(t, "WikiIndex.otl", outlines[1].RelativePath)
	assert.Equal(t, "WikiIndex", outlines[1].Root.Text)
	assert.Equal(t, "projects/TodoList.otl.html", outlines[2].RelativePath)
	assert.Equal(t, "TodoList", outlines[2].Root.Text)

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := CurrentCollection().Outlines(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Unreadable file", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permissions are ignored for root")
		}
		path := CurrentCollection().GetAbsolutePath("WikiIndex.otl")
		require.NoError(t, os.Chmod(path, 0000))
		defer os.Chmod(path, 0644)

		_, err := CurrentCollection().Outlines(context.Background())
		assert.ErrorIs(t, err, os.ErrPermission)
	})
}

func TestCollectionBuildTags(t *testing.T) {
	SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	index, err := CurrentCollection().BuildTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GoLang\tProgrammingLanguages.otl\t/^\\t\\*GoLang$/",
		"ProgrammingLanguages\tProgrammingLanguages.otl\t0",
		"ProgrammingLanguages\tWikiIndex.otl\t/^\\t\\*ProgrammingLanguages$/",
		"TodoList\tprojects/TodoList.otl.html\t/^\\t\\*TodoList$/",
		"TodoList\tprojects/TodoList.otl.html\t0",
		"WikiIndex\tWikiIndex.otl\t/^\\t\\*WikiIndex$/",
		"WikiIndex\tWikiIndex.otl\t0",
		"go\tProgrammingLanguages.otl\t/^\\t\\*GoLang$/",
		"pl\tWikiIndex.otl\t/^\\t\\*ProgrammingLanguages$/",
	}, index.CTags())

	assert.Equal(t, map[string]string{
		"GoLang":               "ProgrammingLanguages.otl#GoLang",
		"ProgrammingLanguages": "ProgrammingLanguages.otl",
		"TodoList":             "projects/TodoList.otl.html",
		"WikiIndex":            "WikiIndex.otl",
		"go":                   "ProgrammingLanguages.otl#GoLang",
		"pl":                   "WikiIndex.otl#ProgrammingLanguages",
	}, index.Navigation())
}

func TestCollectionWriteTags(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	_, written, err := CurrentCollection().WriteTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dirname, "tags"),
		filepath.Join(dirname, "tags.json"),
	}, written)

	tags, err := os.ReadFile(filepath.Join(dirname, "tags"))
	require.NoError(t, err)
	assert.Contains(t, string(tags), "WikiIndex\tWikiIndex.otl\t0")
	assert.NotContains(t, string(tags), "OldNotes") // ignored directory
	assert.NotContains(t, string(tags), "FooBar")   // unsupported extension

	navigation, err := os.ReadFile(filepath.Join(dirname, "tags.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"GoLang": "ProgrammingLanguages.otl#GoLang",
		"ProgrammingLanguages": "ProgrammingLanguages.otl",
		"TodoList": "projects/TodoList.otl.html",
		"WikiIndex": "WikiIndex.otl",
		"go": "ProgrammingLanguages.otl#GoLang",
		"pl": "WikiIndex.otl#ProgrammingLanguages"
	}`, string(navigation))

	t.Run("Without navigation", func(t *testing.T) {
		CurrentConfig().ConfigFile.Tags.Navigation = ""
		require.NoError(t, os.Remove(filepath.Join(dirname, "tags.json")))

		_, written, err := CurrentCollection().WriteTags(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dirname, "tags")}, written)
		assert.NoFileExists(t, filepath.Join(dirname, "tags.json"))
	})
}

func TestCollectionFlashcards(t *testing.T) {
	SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	cards, err := CurrentCollection().Flashcards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []outline.Flashcard{
		{Front: "Go was designed at ....", Back: "Go was designed at Google."},
		{Front: "What is Go?", Back: "A language."},
		{Front: "[_] Read ....", Back: "[_] Read SICP."},
	}, cards)
}

func TestCollectionEmpty(t *testing.T) {
	SetUpCollectionFromTempDir(t)

	files, err := CurrentCollection().Files()
	require.NoError(t, err)
	assert.Empty(t, files)

	cards, err := CurrentCollection().Flashcards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}
