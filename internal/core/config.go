package core

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/julien-sobczak/otlbook/internal/anki"
	"github.com/julien-sobczak/otlbook/internal/notebook"
	"github.com/julien-sobczak/otlbook/pkg/resync"
	"github.com/julien-sobczak/otlbook/pkg/text"
	"github.com/pelletier/go-toml/v2"
)

// How many parent directories to traverse before considering a directory has no .otl directory
const maxDepth = 10

// Default .otl/config content
const DefaultConfig = `
[core]
extensions=["otl", "otl.html"]
parallel=4

[tags]
file="tags"
navigation="tags.json"

[eval]
marker=";"
language="j"
interpreters=["ijconsole", "jconsole"]

[anki]
url="http://localhost:8765"
query="deck:current"
deck="Default"
model="Basic"
command="anki"
startup="3s"
`

// Default .otlignore content
const DefaultIgnore = `
.git/
.otl/
`

var (
	// Lazy-load configuration and ensure a single read
	configOnce      resync.Once
	configSingleton *Config
)

// Note: Fields must be public for toml package to unmarshall
type ConfigFile struct {
	Core ConfigCore
	Tags ConfigTags
	Eval ConfigEval
	Anki ConfigAnki
}
type ConfigCore struct {
	// Suffixes of outline files without the leading dot (ex: "otl.html")
	Extensions []string
	// Number of files parsed concurrently
	Parallel int
}
type ConfigTags struct {
	File string
	// Empty to skip the JSON navigation index
	Navigation string
}
type ConfigEval struct {
	Marker       string
	Language     string
	Interpreters []string
}
type ConfigAnki struct {
	URL     string `toml:"url"`
	Query   string
	Deck    string
	Model   string
	Command string
	Startup string
}

// Validate checks the configuration values.
func (f *ConfigFile) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Core),
		validation.Field(&f.Tags),
		validation.Field(&f.Eval),
		validation.Field(&f.Anki),
	)
}

func (c ConfigCore) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Extensions, validation.Required),
		validation.Field(&c.Parallel, validation.Required, validation.Min(1)),
	)
}

func (c ConfigTags) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.File, validation.Required),
	)
}

func (c ConfigEval) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Marker, validation.Required, validation.By(noWhitespace)),
		validation.Field(&c.Language, validation.Required, validation.By(noWhitespace)),
		validation.Field(&c.Interpreters, validation.Required),
	)
}

func (c ConfigAnki) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.Query, validation.Required),
		validation.Field(&c.Deck, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Startup, validation.By(duration)),
	)
}

func noWhitespace(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, " \t\n") {
		return errors.New("must not contain whitespace")
	}
	return nil
}

func duration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a valid duration (ex: 3s)")
	}
	return nil
}

// SupportExtension checks if the given file must be considered as an outline.
func (f *ConfigFile) SupportExtension(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, extension := range f.Core.Extensions {
		if strings.HasSuffix(base, "."+strings.ToLower(extension)) { // case-insensitive
			return true
		}
	}
	return false
}

// StartupDelay returns the delay to wait for Anki to start.
func (c ConfigAnki) StartupDelay() time.Duration {
	d, err := time.ParseDuration(c.Startup)
	if err != nil {
		return 0
	}
	return d
}

// Options returns the options of the AnkiConnect client.
func (c ConfigAnki) Options() anki.Options {
	return anki.Options{
		URL:     c.URL,
		Query:   c.Query,
		Deck:    c.Deck,
		Model:   c.Model,
		Command: c.Command,
		Startup: c.StartupDelay(),
	}
}

type IgnoreFile struct {
	Entries GlobPaths
}

func (i *IgnoreFile) MustExcludeFile(path string, dir bool) bool {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if dir {
		path += "/"
	}
	return i.Entries.Match(path)
}

type GlobPath string

func (g GlobPath) Negate() bool {
	return strings.HasPrefix(string(g), "!")
}

func (g GlobPath) Expr() string {
	return strings.TrimPrefix(string(g), "!")
}

// Regexp converts the glob expression using the gitignore syntax.
func (g GlobPath) Regexp() (*regexp.Regexp, error) {
	// The Go standard library doesn't support the same Git syntax (ex: ** is missing).
	// Compare https://git-scm.com/docs/gitignore with https://go.dev/src/path/filepath/match.go
	expr := g.Expr()
	leadingSlash := strings.HasPrefix(expr, "/")
	trailingSlash := strings.HasSuffix(expr, "/")
	// Ex: "projects/" => `/projects/.*?` to match "projects/Todo.otl" but not "myprojects/"
	if !leadingSlash {
		expr = "/" + expr
	}
	if trailingSlash {
		expr += "**/"
	}

	var patterns []string
	for _, part := range strings.Split(expr, "**/") {
		var quoted []string
		for _, subpart := range strings.Split(part, "*") {
			quoted = append(quoted, regexp.QuoteMeta(subpart))
		}
		patterns = append(patterns, strings.Join(quoted, "[^/]*?")) // * => [^/]*
	}
	pattern := strings.Join(patterns, ".*?") // ** => .*?
	if leadingSlash {
		pattern = "^" + pattern
	}
	return regexp.Compile(pattern)
}

// Match tests a given path. NB: Directories must have a trailing /.
func (g GlobPath) Match(path string) bool {
	if runtime.GOOS == "windows" {
		path = filepath.ToSlash(path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	re, err := g.Regexp()
	if err != nil {
		CurrentLogger().Warnf("Invalid glob pattern %q: %v", g, err)
		return false
	}
	return re.MatchString(path)
}

type GlobPaths []GlobPath

// Match tests if a file path satisfies the conditions.
func (g GlobPaths) Match(path string) bool {
	foundMatch := false
	for _, entry := range g {
		if entry.Match(path) {
			if entry.Negate() {
				// An exclusion matched, the file must no longer be excluded.
				return false
			}
			foundMatch = true
		}
	}
	return foundMatch
}

/* Main config */

type Config struct {
	// Absolute top directory of the collection (= containing the .otl sub-directory if any)
	RootDirectory string

	// .otl/config content
	ConfigFile ConfigFile

	// .otlignore content
	IgnoreFile IgnoreFile
}

func CurrentConfig() *Config {
	configOnce.Do(func() {
		var err error
		configSingleton, err = ReadConfigFromDirectory(currentHome())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current configuration: %v\n", err)
			os.Exit(1)
		}
	})
	return configSingleton
}

// Splitter returns the splitter isolating user blocks in documents.
func (c *Config) Splitter() *notebook.Splitter {
	return notebook.NewSplitter(c.ConfigFile.Eval.Marker)
}

// Interpreter returns the interpreter running executable blocks.
func (c *Config) Interpreter() notebook.Interpreter {
	console := notebook.NewConsole(c.ConfigFile.Eval.Interpreters...)
	console.OnPreExecution(func(cmd string, args ...string) {
		CurrentLogger().Debugf("Running command %q", strings.TrimSpace(cmd+" "+strings.Join(args, " ")))
	})
	return console
}

// AnkiClient returns a client for the configured AnkiConnect instance.
func (c *Config) AnkiClient() *anki.Client {
	client := anki.NewClient(c.ConfigFile.Anki.Options())
	client.OnStart(func(cmd string, args ...string) {
		CurrentLogger().Infof("AnkiConnect not reachable at %s, starting %q...", c.ConfigFile.Anki.URL, cmd)
	})
	return client
}

func currentHome() string {
	// Supports overriding the root directory mainly for testing purposes.
	// Ex:
	//
	//   $ env OTL_HOME=./examples go run ./cmd/otl tags
	if path, ok := os.LookupEnv("OTL_HOME"); ok {
		abspath, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to evaluate $OTL_HOME")
			os.Exit(1)
		}
		if _, err := os.Stat(abspath); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Path in $OTL_HOME undefined")
			os.Exit(1)
		}
		return abspath
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to determine current directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// findRootDirectory searches for a .otl directory in the given directory or any parent directories.
func findRootDirectory(path string) (string, bool, error) {
	rootPath := path
	for i := 0; i < maxDepth; i++ { // Safeguard to not go up too far
		_, err := os.Stat(filepath.Join(rootPath, ".otl"))
		if err == nil {
			return rootPath, true, nil
		}
		if !os.IsNotExist(err) {
			return "", false, fmt.Errorf("error while searching for configuration directory: %w", err)
		}
		parent := filepath.Dir(rootPath)
		if parent == rootPath {
			// Root directory detected
			break
		}
		rootPath = parent
	}
	return path, false, nil
}

// ReadConfigFromDirectory loads the configuration by searching for a .otl directory in the given directory
// or any parent directories. The given directory is the collection root when no .otl directory exists.
func ReadConfigFromDirectory(path string) (*Config, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	rootPath, found, err := findRootDirectory(path)
	if err != nil {
		return nil, err
	}

	var configFile ConfigFile
	if err := parseConfigFile(DefaultConfig, &configFile); err != nil {
		return nil, fmt.Errorf("default configuration is broken: %w", err)
	}

	// Check for .otl/config
	if found {
		otlConfigPath := filepath.Join(rootPath, ".otl", "config")
		content, err := os.ReadFile(otlConfigPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read .otl/config file: %w", err)
		}
		if err == nil {
			if err := parseConfigFile(string(content), &configFile); err != nil {
				return nil, fmt.Errorf("failed to parse .otl/config file: %w", err)
			}
		}
	}

	if err := applyEnv(&configFile); err != nil {
		return nil, err
	}
	if err := configFile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Check for .otlignore
	ignoreContent := DefaultIgnore
	content, err := os.ReadFile(filepath.Join(rootPath, ".otlignore"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .otlignore file: %w", err)
	}
	if err == nil {
		ignoreContent = string(content)
	}

	return &Config{
		RootDirectory: rootPath,
		ConfigFile:    configFile,
		IgnoreFile:    *parseIgnoreFile(ignoreContent),
	}, nil
}

// applyEnv overrides configuration values using environment variables.
func applyEnv(f *ConfigFile) error {
	if url, ok := os.LookupEnv("OTL_ANKI_URL"); ok {
		f.Anki.URL = url
	}
	if value, ok := os.LookupEnv("OTL_PARALLEL"); ok {
		parallel, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid $OTL_PARALLEL %q: %w", value, err)
		}
		f.Core.Parallel = parallel
	}
	return nil
}

// parseConfigFile decodes the content on top of the current values.
func parseConfigFile(content string, result *ConfigFile) error {
	r := strings.NewReader(content)
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	return d.Decode(result)
}

func parseIgnoreFile(content string) *IgnoreFile {
	var result IgnoreFile
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if text.IsBlank(line) {
			// ignore blank line
			continue
		}
		if strings.HasPrefix(line, "#") {
			// ignore comment
			continue
		}
		result.Entries = append(result.Entries, GlobPath(strings.TrimSpace(line)))
	}
	return &result
}
