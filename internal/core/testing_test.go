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

func TestSetUpCollectionFromGoldenDirNamed(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDirNamed(t, "TestCollection")
	require.FileExists(t, filepath.Join(dirname, "projects/TodoList.otl.html"))
	require.FileExists(t, filepath.Join(dirname, ".otl/config"))
	assert.Equal(t, dirname, os.Getenv("OTL_HOME"))
}

func TestSetUpCollectionFromGoldenFile(t *testing.T) {
	filename := SetUpCollectionFromGoldenFile(t)
	require.FileExists(t, filename)
	assert.Equal(t, "TestSetUpCollectionFromGoldenFile.otl", filepath.Base(filename))
	assert.Equal(t, filepath.Dir(filename), CurrentConfig().RootDirectory)

	cards, err := CurrentCollection().Flashcards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []outline.Flashcard{
		{Front: "What is the mascot of Go?", Back: "A gopher."},
	}, cards)
}

func TestSetUpCollectionFromFileContent(t *testing.T) {
	filename := SetUpCollectionFromFileContent(t, "WikiIndex.otl", "WikiIndex\n")
	assert.Equal(t, filepath.Dir(filename), CurrentConfig().RootDirectory)

	files, err := CurrentCollection().Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"WikiIndex.otl"}, files)
}

func TestReplaceLine(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test.txt")
	os.WriteFile(path, []byte("Hello\nWorld"), 0644)

	ReplaceLine(t, path, 1, "Hello", "Hi")

	newContent, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hi\nWorld", string(newContent))

	ReplaceLine(t, path, 2, "World", "You")

	newContent, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hi\nYou", string(newContent))
}

func TestAppendLines(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "test.txt")
	os.WriteFile(path, []byte("Hello\nWorld"), 0644)

	AppendLines(t, path, "Hi")

	newContent, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld\nHi", string(newContent))

	AppendLines(t, path, "Bonjour\nCoucou\n")

	newContent, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld\nHi\nBonjour\nCoucou\n", string(newContent))
}
