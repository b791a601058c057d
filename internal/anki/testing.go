package anki

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
)

// FakeServer is an in-memory AnkiConnect implementation.
// Useful in tests to avoid requiring a running Anki.
type FakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	cards   map[int64]*Card
	nextID  int64
	actions []string
	// Action name => error message returned by the server
	Failures map[string]string
}

// NewFakeServer starts a fake AnkiConnect server stopped at the end of the test.
func NewFakeServer(t *testing.T, cards ...Card) *FakeServer {
	s := &FakeServer{
		cards:    make(map[int64]*Card),
		nextID:   1000,
		Failures: make(map[string]string),
	}
	for _, card := range cards {
		s.cards[card.ID] = &card
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Actions returns the names of the invoked actions.
func (s *FakeServer) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

// Cards returns the cards in the deck ordered by id.
func (s *FakeServer) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Card
	for _, card := range s.cards {
		result = append(result, *card)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

type fakeRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  struct {
		Query string  `json:"query"`
		Cards []int64 `json:"cards"`
		Note  struct {
			ID     int64             `json:"id"`
			Fields map[string]string `json:"fields"`
		} `json:"note"`
	} `json:"params"`
}

func (s *FakeServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte("AnkiConnect v.6"))
		return
	}

	var req fakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, req.Action)

	if msg, ok := s.Failures[req.Action]; ok {
		s.reply(w, nil, msg)
		return
	}

	switch req.Action {
	case "findCards":
		ids := []int64{}
		for id := range s.cards {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		s.reply(w, ids, "")
	case "cardsInfo":
		var infos []cardInfo
		for _, id := range req.Params.Cards {
			card := s.cards[id]
			infos = append(infos, cardInfo{
				CardID: card.ID,
				Note:   card.NoteID,
				Fields: map[string]field{
					"Front": {Value: card.Front, Order: 0},
					"Back":  {Value: card.Back, Order: 1},
				},
			})
		}
		s.reply(w, infos, "")
	case "areSuspended":
		var statuses []bool
		for _, id := range req.Params.Cards {
			statuses = append(statuses, s.cards[id].Suspended)
		}
		s.reply(w, statuses, "")
	case "addNote":
		for _, card := range s.cards {
			if card.Front == req.Params.Note.Fields["Front"] {
				s.reply(w, nil, "cannot create note because it is a duplicate")
				return
			}
		}
		s.nextID++
		s.cards[s.nextID] = &Card{
			ID:     s.nextID,
			NoteID: s.nextID + 1000,
			Front:  req.Params.Note.Fields["Front"],
			Back:   req.Params.Note.Fields["Back"],
		}
		s.reply(w, s.nextID+1000, "")
	case "updateNoteFields":
		for _, card := range s.cards {
			if card.NoteID == req.Params.Note.ID {
				card.Front = req.Params.Note.Fields["Front"]
				card.Back = req.Params.Note.Fields["Back"]
			}
		}
		s.reply(w, nil, "")
	case "suspend", "unsuspend":
		for _, id := range req.Params.Cards {
			s.cards[id].Suspended = req.Action == "suspend"
		}
		s.reply(w, true, "")
	case "sync":
		s.reply(w, nil, "")
	default:
		s.reply(w, nil, "unsupported action")
	}
}

func (s *FakeServer) reply(w http.ResponseWriter, result any, msg string) {
	var res struct {
		Result any     `json:"result"`
		Error  *string `json:"error"`
	}
	res.Result = result
	if msg != "" {
		res.Error = &msg
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
