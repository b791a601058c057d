package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/julien-sobczak/otlbook/internal/outline"
)

const (
	// DefaultURL is the address AnkiConnect listens on.
	DefaultURL = "http://localhost:8765"
	// Version of the AnkiConnect API
	Version = 6

	DefaultQuery   = "deck:current"
	DefaultDeck    = "Default"
	DefaultModel   = "Basic"
	DefaultCommand = "anki"
	DefaultStartup = 3 * time.Second
)

// ErrUnreachable is returned when AnkiConnect does not answer, even after starting Anki.
var ErrUnreachable = errors.New("can't connect to AnkiConnect. Do you have the AnkiConnect add-on installed?")

// RestError is an error reported by AnkiConnect in the response payload.
type RestError struct {
	Action  string
	Message string
}

func (e *RestError) Error() string {
	return fmt.Sprintf("AnkiConnect action %q failed: %s", e.Action, e.Message)
}

// Options configures the connection to AnkiConnect.
type Options struct {
	URL string
	// Query selecting the cards managed by the synchronization
	Query string
	// Deck and note type of new cards
	Deck  string
	Model string
	// Command starting Anki when AnkiConnect is not reachable. Empty to never start Anki.
	Command string
	// Delay to let Anki load the AnkiConnect add-on
	Startup time.Duration
}

// DefaultOptions returns the options matching a default Anki installation.
func DefaultOptions() Options {
	return Options{
		URL:     DefaultURL,
		Query:   DefaultQuery,
		Deck:    DefaultDeck,
		Model:   DefaultModel,
		Command: DefaultCommand,
		Startup: DefaultStartup,
	}
}

// Client is an AnkiConnect client.
// See https://foosoft.net/projects/anki-connect/
type Client struct {
	options    Options
	httpClient *http.Client

	// Process started by the client, if any
	cmd *exec.Cmd

	listeners []func(cmd string, args ...string)
}

// NewClient creates a client without checking AnkiConnect is running.
func NewClient(options Options) *Client {
	defaults := DefaultOptions()
	if options.URL == "" {
		options.URL = defaults.URL
	}
	if options.Query == "" {
		options.Query = defaults.Query
	}
	if options.Deck == "" {
		options.Deck = defaults.Deck
	}
	if options.Model == "" {
		options.Model = defaults.Model
	}
	return &Client{
		options:    options,
		httpClient: &http.Client{},
	}
}

// OnStart registers a callback invoked before starting Anki.
func (c *Client) OnStart(fn func(cmd string, args ...string)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Client) notifyListeners(cmd string, args ...string) {
	for _, fn := range c.listeners {
		fn(cmd, args...)
	}
}

// Connect ensures AnkiConnect is reachable, starting Anki when needed.
// Anki is stopped on Close only when started by the client.
func (c *Client) Connect(ctx context.Context) error {
	if c.Ping(ctx) == nil {
		// Anki is already running, work with that
		return nil
	}
	if c.options.Command == "" {
		return ErrUnreachable
	}

	c.notifyListeners(c.options.Command)
	cmd := exec.Command(c.options.Command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start %s: %w", c.options.Command, err)
	}
	c.cmd = cmd

	// Let's check that it actually has the add-on
	select {
	case <-time.After(c.options.Startup):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("%w (%v)", ErrUnreachable, err)
	}
	return nil
}

// Close stops Anki if started by the client.
func (c *Client) Close() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Process.Kill()
	_ = c.cmd.Wait()
	c.cmd = nil
	return err
}

// Ping checks AnkiConnect answers HTTP requests.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.options.URL, nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Invoke executes an AnkiConnect action and decodes the result into result (ignored when nil).
func (c *Client) Invoke(ctx context.Context, action string, params map[string]any, result any) error {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(request{
		Action:  action,
		Version: Version,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.options.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP response code for action %q: %d", action, res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	var ret response
	if err := json.Unmarshal(body, &ret); err != nil {
		return fmt.Errorf("invalid AnkiConnect response for action %q: %w", action, err)
	}
	if ret.Error != nil && *ret.Error != "" {
		return &RestError{Action: action, Message: *ret.Error}
	}
	if result == nil || len(ret.Result) == 0 {
		return nil
	}
	return json.Unmarshal(ret.Result, result)
}

type field struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

type cardInfo struct {
	CardID int64            `json:"cardId"`
	Note   int64            `json:"note"`
	Fields map[string]field `json:"fields"`
}

// Cards returns the cards matching the configured query.
func (c *Client) Cards(ctx context.Context) ([]Card, error) {
	var ids []int64
	if err := c.Invoke(ctx, "findCards", map[string]any{"query": c.options.Query}, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var infos []cardInfo
	if err := c.Invoke(ctx, "cardsInfo", map[string]any{"cards": ids}, &infos); err != nil {
		return nil, err
	}
	var suspended []bool
	if err := c.Invoke(ctx, "areSuspended", map[string]any{"cards": ids}, &suspended); err != nil {
		return nil, err
	}
	if len(infos) != len(ids) || len(suspended) != len(ids) {
		return nil, fmt.Errorf("inconsistent AnkiConnect responses: %d cards, %d infos, %d statuses", len(ids), len(infos), len(suspended))
	}

	cards := make([]Card, 0, len(ids))
	for i, info := range infos {
		cards = append(cards, Card{
			ID:        info.CardID,
			NoteID:    info.Note,
			Front:     info.Fields["Front"].Value,
			Back:      info.Fields["Back"].Value,
			Suspended: suspended[i],
		})
	}
	return cards, nil
}

// AddCard creates a new note in the configured deck.
func (c *Client) AddCard(ctx context.Context, card outline.Flashcard) error {
	note := map[string]any{
		"deckName":  c.options.Deck,
		"modelName": c.options.Model,
		"fields": map[string]string{
			"Front": card.Front,
			"Back":  card.Back,
		},
		"options": map[string]any{
			"allowDuplicate": false,
		},
		"tags": []string{},
	}
	return c.Invoke(ctx, "addNote", map[string]any{"note": note}, nil)
}

// UpdateCard replaces the fields of the note of an existing card.
func (c *Client) UpdateCard(ctx context.Context, card Card, back string) error {
	note := map[string]any{
		"id": card.NoteID,
		"fields": map[string]string{
			"Front": card.Front,
			"Back":  back,
		},
	}
	return c.Invoke(ctx, "updateNoteFields", map[string]any{"note": note}, nil)
}

// Suspend suspends the given cards.
func (c *Client) Suspend(ctx context.Context, ids []int64) error {
	return c.Invoke(ctx, "suspend", map[string]any{"cards": ids}, nil)
}

// Unsuspend unsuspends the given cards.
func (c *Client) Unsuspend(ctx context.Context, ids []int64) error {
	return c.Invoke(ctx, "unsuspend", map[string]any{"cards": ids}, nil)
}

// Sync synchronizes the local collection with AnkiWeb.
func (c *Client) Sync(ctx context.Context) error {
	return c.Invoke(ctx, "sync", nil, nil)
}
