package anki

import (
	"context"
	"fmt"

	"github.com/julien-sobczak/otlbook/internal/outline"
	"golang.org/x/exp/slices"
	"golang.org/x/text/unicode/norm"
)

// Card is a card present in the remote deck.
type Card struct {
	ID        int64
	NoteID    int64
	Front     string
	Back      string
	Suspended bool
}

// Deck is the remote collection of cards.
type Deck interface {
	Cards(ctx context.Context) ([]Card, error)
	AddCard(ctx context.Context, card outline.Flashcard) error
	UpdateCard(ctx context.Context, card Card, back string) error
	Suspend(ctx context.Context, ids []int64) error
	Unsuspend(ctx context.Context, ids []int64) error
}

// ChangeKind is the type of modification applied to the deck.
type ChangeKind string

const (
	Added       ChangeKind = "add"
	Updated     ChangeKind = "update"
	Suspended   ChangeKind = "suspend"
	Unsuspended ChangeKind = "unsuspend"
)

// Change is a single modification of the deck.
type Change struct {
	Kind  ChangeKind
	Front string
	Back  string
	// Existing card, nil for new cards
	Card *Card
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("Adding card '%s'", c.Front)
	case Updated:
		return fmt.Sprintf("Updating card '%s' to have back '%s'", c.Front, c.Back)
	case Suspended:
		return fmt.Sprintf("Live card '%s' not found in input, suspending", c.Front)
	case Unsuspended:
		return fmt.Sprintf("Card '%s' found again in input, unsuspending", c.Front)
	}
	return string(c.Kind)
}

// Plan lists the changes required to make the deck match the input cards.
type Plan struct {
	Changes []Change
}

// Empty returns if the deck is already up-to-date.
func (p *Plan) Empty() bool {
	return len(p.Changes) == 0
}

// Count returns the number of changes of the given kind.
func (p *Plan) Count(kind ChangeKind) int {
	count := 0
	for _, change := range p.Changes {
		if change.Kind == kind {
			count++
		}
	}
	return count
}

func (p *Plan) ids(kind ChangeKind) []int64 {
	var ids []int64
	for _, change := range p.Changes {
		if change.Kind == kind && change.Card != nil {
			ids = append(ids, change.Card.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// normalize returns the key used to match fronts.
func normalize(front string) string {
	return norm.NFC.String(front)
}

// Diff compares the cards of the deck with the input cards.
// Cards are matched by front. The first input card wins when several share the same front.
//   - Unseen fronts are added.
//   - Existing cards with a different back are updated.
//   - Live cards absent from the input are suspended.
//   - Suspended cards present in the input are unsuspended.
func Diff(existing []Card, input []outline.Flashcard) *Plan {
	plan := &Plan{}

	deck := make(map[string]Card)
	for _, card := range existing {
		deck[normalize(card.Front)] = card
	}

	seen := make(map[string]bool)
	for _, card := range input {
		key := normalize(card.Front)
		if seen[key] {
			continue
		}
		seen[key] = true

		current, ok := deck[key]
		if !ok {
			plan.Changes = append(plan.Changes, Change{
				Kind:  Added,
				Front: card.Front,
				Back:  card.Back,
			})
			continue
		}
		if current.Suspended {
			plan.Changes = append(plan.Changes, Change{
				Kind:  Unsuspended,
				Front: current.Front,
				Back:  current.Back,
				Card:  &current,
			})
		}
		if current.Back != card.Back {
			plan.Changes = append(plan.Changes, Change{
				Kind:  Updated,
				Front: current.Front,
				Back:  card.Back,
				Card:  &current,
			})
		}
	}

	// Suspend in deck order
	suspended := make(map[int64]bool)
	for _, card := range existing {
		if card.Suspended || seen[normalize(card.Front)] || suspended[card.ID] {
			continue
		}
		suspended[card.ID] = true
		plan.Changes = append(plan.Changes, Change{
			Kind:  Suspended,
			Front: card.Front,
			Back:  card.Back,
			Card:  &card,
		})
	}

	return plan
}

// Synchronizer makes a remote deck consist of the input cards.
type Synchronizer struct {
	deck      Deck
	listeners []func(change Change)
}

// NewSynchronizer creates a synchronizer for the given deck.
func NewSynchronizer(deck Deck) *Synchronizer {
	return &Synchronizer{
		deck: deck,
	}
}

// OnChange registers a callback invoked before every change.
func (s *Synchronizer) OnChange(fn func(change Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Synchronizer) notifyListeners(change Change) {
	for _, fn := range s.listeners {
		fn(change)
	}
}

// Plan determines the changes without modifying the deck.
func (s *Synchronizer) Plan(ctx context.Context, input []outline.Flashcard) (*Plan, error) {
	existing, err := s.deck.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list cards: %w", err)
	}
	return Diff(existing, input), nil
}

// Update applies the changes required to make the deck match the input cards.
func (s *Synchronizer) Update(ctx context.Context, input []outline.Flashcard) (*Plan, error) {
	plan, err := s.Plan(ctx, input)
	if err != nil {
		return nil, err
	}
	return plan, s.Apply(ctx, plan)
}

// Apply executes a plan. Cards are unsuspended before suspending the others.
func (s *Synchronizer) Apply(ctx context.Context, plan *Plan) error {
	for _, change := range plan.Changes {
		switch change.Kind {
		case Added:
			s.notifyListeners(change)
			err := s.deck.AddCard(ctx, outline.Flashcard{Front: change.Front, Back: change.Back})
			if err != nil {
				return fmt.Errorf("unable to add card %q: %w", change.Front, err)
			}
		case Updated:
			s.notifyListeners(change)
			if err := s.deck.UpdateCard(ctx, *change.Card, change.Back); err != nil {
				return fmt.Errorf("unable to update card %q: %w", change.Front, err)
			}
		}
	}

	for _, change := range plan.Changes {
		if change.Kind == Unsuspended || change.Kind == Suspended {
			s.notifyListeners(change)
		}
	}
	if ids := plan.ids(Unsuspended); len(ids) > 0 {
		if err := s.deck.Unsuspend(ctx, ids); err != nil {
			return fmt.Errorf("unable to unsuspend %d cards: %w", len(ids), err)
		}
	}
	if ids := plan.ids(Suspended); len(ids) > 0 {
		if err := s.deck.Suspend(ctx, ids); err != nil {
			return fmt.Errorf("unable to suspend %d cards: %w", len(ids), err)
		}
	}
	return nil
}
