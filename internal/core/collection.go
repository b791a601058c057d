package core

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/julien-sobczak/otlbook/internal/outline"
	"github.com/julien-sobczak/otlbook/pkg/resync"
	"golang.org/x/sync/errgroup"
)

var (
	// Lazy-load collection and ensure a single walk configuration
	collectionOnce      resync.Once
	collectionSingleton *Collection
)

// Collection is the set of outline files under the root directory.
type Collection struct {
	Path   string
	config *Config
}

// Outline is a parsed outline file.
type Outline struct {
	// Slash-separated path relative to the collection root
	RelativePath string
	Root         *outline.Node
}

func CurrentCollection() *Collection {
	collectionOnce.Do(func() {
		collectionSingleton = NewCollection(CurrentConfig())
	})
	return collectionSingleton
}

func NewCollection(config *Config) *Collection {
	return &Collection{
		Path:   config.RootDirectory,
		config: config,
	}
}

// GetFileRelativePath converts an absolute path of a file to a slash-separated path relative to the collection.
func (c *Collection) GetFileRelativePath(path string) (string, error) {
	relpath, err := filepath.Rel(c.Path, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relpath), nil
}

// GetAbsolutePath converts a relative path to an absolute path.
func (c *Collection) GetAbsolutePath(relativePath string) string {
	return filepath.Join(c.Path, filepath.FromSlash(relativePath))
}

// Files returns the relative paths of outline files in lexical walk order.
func (c *Collection) Files() ([]string, error) {
	var matchedFiles []string

	CurrentLogger().Infof("Reading %s...", c.Path)
	err := filepath.WalkDir(c.Path, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == c.Path {
			return nil
		}

		relpath, err := c.GetFileRelativePath(path)
		if err != nil {
			return err
		}

		if c.config.IgnoreFile.MustExcludeFile(relpath, info.IsDir()) {
			CurrentLogger().Tracef("Ignoring %s", relpath)
			if info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		// We look for only specific extension
		if !c.config.ConfigFile.SupportExtension(relpath) {
			return nil
		}

		// Ignore certain file modes like symlinks
		fileInfo, err := os.Lstat(path) // NB: os.Stat follows symlinks
		if err != nil {
			return err
		}
		if !fileInfo.Mode().IsRegular() {
			// Exclude any file with a mode bit set (device, socket, named pipe, ...)
			return nil
		}

		// A file found to process!
		matchedFiles = append(matchedFiles, relpath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk %s: %w", c.Path, err)
	}
	return matchedFiles, nil
}

// Outlines parses every outline file of the collection.
// Files are parsed concurrently but returned in walk order.
// A single unreadable file aborts the whole walk.
func (c *Collection) Outlines(ctx context.Context) ([]*Outline, error) {
	relpaths, err := c.Files()
	if err != nil {
		return nil, err
	}

	outlines := make([]*Outline, len(relpaths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.ConfigFile.Core.Parallel)
	for i, relpath := range relpaths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			CurrentLogger().Debugf("Parsing %s...", relpath)
			root, err := outline.ParseFile(c.GetAbsolutePath(relpath))
			if err != nil {
				return err
			}
			outlines[i] = &Outline{
				RelativePath: relpath,
				Root:         root,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outlines, nil
}

// BuildTags merges the tags of all files in walk order.
func (c *Collection) BuildTags(ctx context.Context) (*outline.TagIndex, error) {
	outlines, err := c.Outlines(ctx)
	if err != nil {
		return nil, err
	}

	index := outline.NewTagIndex()
	for _, o := range outlines {
		index.Add(outline.Tags(o.Root, o.RelativePath)...)
	}
	return index, nil
}

// WriteTags generates the tags file and the navigation index in the collection root.
// The paths of the written files are returned.
func (c *Collection) WriteTags(ctx context.Context) (*outline.TagIndex, []string, error) {
	index, err := c.BuildTags(ctx)
	if err != nil {
		return nil, nil, err
	}

	var written []string

	tagsPath := c.GetAbsolutePath(c.config.ConfigFile.Tags.File)
	if err := writeFile(tagsPath, index.WriteCTags); err != nil {
		return nil, nil, err
	}
	written = append(written, tagsPath)

	if c.config.ConfigFile.Tags.Navigation != "" {
		navigationPath := c.GetAbsolutePath(c.config.ConfigFile.Tags.Navigation)
		if err := writeFile(navigationPath, index.WriteNavigation); err != nil {
			return nil, nil, err
		}
		written = append(written, navigationPath)
	}

	return index, written, nil
}

// Flashcards extracts the flashcards of all files in walk order.
func (c *Collection) Flashcards(ctx context.Context) ([]outline.Flashcard, error) {
	outlines, err := c.Outlines(ctx)
	if err != nil {
		return nil, err
	}

	var cards []outline.Flashcard
	for _, o := range outlines {
		found := o.Root.Flashcards()
		CurrentLogger().Debugf("Found %d flashcard(s) in %s", len(found), o.RelativePath)
		cards = append(cards, found...)
	}
	return cards, nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return f.Close()
}
