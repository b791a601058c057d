package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julien-sobczak/otlbook/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Reset forces singletons to be recreated. Useful between unit tests.
func Reset() {
	collectionOnce.Reset()
	configOnce.Reset()
	loggerOnce.Reset()
}

/* Fixtures */

// SetUpCollectionFromGoldenFile populates a temp directory containing a valid .otl collection and a single file.
func SetUpCollectionFromGoldenFile(t *testing.T) string {
	return SetUpCollectionFromGoldenFileNamed(t, t.Name()+".otl")
}

// SetUpCollectionFromGoldenFileNamed populates a temp directory based on the given golden file name.
func SetUpCollectionFromGoldenFileNamed(t *testing.T, testname string) string {
	filename := testutil.SetUpFromGoldenFileNamed(t, testname)
	dirname := filepath.Dir(filename)
	configureDir(t, dirname)
	return filename
}

// SetUpCollectionFromFileContent populates a temp directory based on the given file content.
func SetUpCollectionFromFileContent(t *testing.T, name, content string) string {
	filename := testutil.SetUpFromFileContent(t, name, content)
	dirname := filepath.Dir(filename)
	configureDir(t, dirname)
	return filename
}

// SetUpCollectionFromGoldenDir populates a temp directory containing a valid .otl collection.
func SetUpCollectionFromGoldenDir(t *testing.T) string {
	return SetUpCollectionFromGoldenDirNamed(t, t.Name())
}

// SetUpCollectionFromGoldenDirNamed populates a temp directory based on the given golden dir name.
func SetUpCollectionFromGoldenDirNamed(t *testing.T, testname string) string {
	dirname := testutil.SetUpFromGoldenDirNamed(t, testname)
	configureDir(t, dirname)
	return dirname
}

// SetUpCollectionFromTempDir populates a temp directory containing a valid .otl collection.
func SetUpCollectionFromTempDir(t *testing.T) string {
	dirname := t.TempDir()
	configureDir(t, dirname)
	return dirname
}

func configureDir(t *testing.T, dirname string) {
	otlDir := filepath.Join(dirname, ".otl")
	if _, err := os.Stat(otlDir); os.IsNotExist(err) {
		// Create a default configuration if not exists for CurrentConfig() to work
		if err := os.Mkdir(otlDir, os.ModePerm); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(otlDir, "config"), []byte(`
[core]
parallel=2

[anki]
command=""
startup="0s"
`), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}
	// Force the application to consider the temporary directory as the home
	t.Setenv("OTL_HOME", dirname)
	t.Cleanup(Reset)
	Reset()

	// Force debug level in tests to diagnose more easily
	CurrentLogger().SetVerboseLevel(VerboseDebug)
	CurrentLogger().Debugf("✨ Set up directory %q", otlDir)
}

/* Editing */

// ReplaceLine replaces a line in a file after checking its current value.
func ReplaceLine(t *testing.T, path string, lineNumber int, oldLine string, newLine string) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.LessOrEqual(t, lineNumber, len(lines))
	require.Equal(t, oldLine, lines[lineNumber-1])
	lines[lineNumber-1] = newLine
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))
}

// AppendLines append multiple lines in a file.
func AppendLines(t *testing.T, path string, text string) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	lines = append(lines, strings.Split(text, "\n")...)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))
}
