package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionWatch(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- CurrentCollection().Watch(ctx, func(changed []string) error {
			changes <- changed
			return nil
		})
	}()
	time.Sleep(200 * time.Millisecond) // Let the watcher register directories

	// Ignored changes
	require.NoError(t, os.WriteFile(filepath.Join(dirname, "notes.txt"), []byte("Updated"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dirname, "archives", "OldNotes.otl"), []byte("Updated"), 0644))
	// Same content
	content, err := os.ReadFile(filepath.Join(dirname, "WikiIndex.otl"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dirname, "WikiIndex.otl"), content, 0644))
	// Relevant changes
	require.NoError(t, os.WriteFile(filepath.Join(dirname, "NewPage.otl"), []byte("NewPage\n"), 0644))
	AppendLines(t, filepath.Join(dirname, "projects", "TodoList.otl.html"), "\t[_] Read TAOCP.")

	select {
	case changed := <-changes:
		assert.ElementsMatch(t, []string{"NewPage.otl", "projects/TodoList.otl.html"}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change detected")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not stopped")
	}
}

func TestCollectionWatchError(t *testing.T) {
	dirname := SetUpCollectionFromGoldenDirNamed(t, "TestCollection")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errStop := errors.New("stop")
	done := make(chan error, 1)
	go func() {
		done <- CurrentCollection().Watch(ctx, func(changed []string) error {
			return errStop
		})
	}()
	time.Sleep(200 * time.Millisecond)

	AppendLines(t, filepath.Join(dirname, "WikiIndex.otl"), "\tMore notes")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errStop)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not stopped")
	}
}
