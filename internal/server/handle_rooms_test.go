package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playperu/imposter/internal/imagegen"
	"github.com/playperu/imposter/internal/imposter"
	"github.com/playperu/imposter/internal/realtime"
	"github.com/playperu/imposter/internal/session"
	"github.com/playperu/imposter/internal/store"
)

type fixture struct {
	router   http.Handler
	sessions *session.Service
	broker   *realtime.Broker
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T, mutate ...func(*Deps)) *fixture {
	t.Helper()
	logger := quietLogger()
	broker := realtime.NewBroker()
	t.Cleanup(broker.Close)
	sessions := session.New(store.NewMemoryStore(), broker, logger, time.Second)
	deps := Deps{
		Sessions:    sessions,
		Broker:      broker,
		Illustrator: imagegen.NewIllustrator(nil, imagegen.NewMemoryCache(), 0, logger),
		Gemini:      imagegen.NewGemini("", ""),
		PublicURL:   "https://imposter.example/",
	}
	for _, m := range mutate {
		m(&deps)
	}
	return &fixture{router: NewRouter(logger, deps), sessions: sessions, broker: broker}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

// createRoom makes a room hosted by Alex and joins the given guests.
func (f *fixture) createRoom(t *testing.T, settings map[string]any, guests ...string) (string, []imposter.Player) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/rooms", map[string]any{"hostName": "Alex", "settings": settings})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[RoomResponse](t, w)
	players := []imposter.Player{*created.Player}
	for _, name := range guests {
		w := f.do(t, http.MethodPost, "/api/rooms/"+created.Room.Code+"/join", JoinRoomRequest{PlayerName: name})
		if w.Code != http.StatusOK {
			t.Fatalf("join %s: expected 200, got %d: %s", name, w.Code, w.Body.String())
		}
		players = append(players, *decode[RoomResponse](t, w).Player)
	}
	return created.Room.Code, players
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/rooms", map[string]any{
		"hostName": "Alex",
		"settings": map[string]any{"playerCount": 4, "turnMode": "free"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[RoomResponse](t, w)
	if !resp.Success {
		t.Error("expected success")
	}
	if len(resp.Room.Code) != imposter.CodeLength {
		t.Errorf("code %q has wrong length", resp.Room.Code)
	}
	if resp.Player == nil || !resp.Player.IsHost || resp.Player.ID != resp.Room.HostID {
		t.Errorf("expected host player, got %+v", resp.Player)
	}
	if resp.Player != nil && (resp.Player.Token == "" || resp.Player.Token == resp.Player.ID) {
		t.Errorf("expected a secret token distinct from the id, got %+v", resp.Player)
	}
	if resp.Room.Settings.PlayerCount != 4 || resp.Room.Settings.TurnMode != imposter.TurnFree {
		t.Errorf("settings not applied: %+v", resp.Room.Settings)
	}
	if resp.Room.Settings.Category != "animals" {
		t.Errorf("expected default category, got %q", resp.Room.Settings.Category)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"short name", map[string]any{"hostName": "A"}, http.StatusBadRequest},
		{"too many imposters", map[string]any{"hostName": "Alex", "settings": map[string]any{"playerCount": 3, "imposterCount": 2}}, http.StatusBadRequest},
		{"unknown category", map[string]any{"hostName": "Alex", "settings": map[string]any{"category": "cars"}}, http.StatusBadRequest},
		{"unknown field", map[string]any{"hostName": "Alex", "colour": "red"}, http.StatusBadRequest},
		{"unknown settings key", map[string]any{"hostName": "Alex", "settings": map[string]any{"rounds": 3}}, http.StatusBadRequest},
		{"not json", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/rooms", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Success || resp.Error == "" {
				t.Errorf("expected error body, got %+v", resp)
			}
		})
	}
}

func TestJoinErrors(t *testing.T) {
	f := newFixture(t)
	code, _ := f.createRoom(t, map[string]any{"playerCount": 3}, "Bo", "Cid")

	tests := []struct {
		name    string
		code    string
		player  string
		want    int
		wantMsg string
	}{
		{"missing room", "ZZZZZZ", "Dee", http.StatusNotFound, "Room not found"},
		{"bad code", "abc", "Dee", http.StatusBadRequest, "Please enter a valid 6-character room code"},
		{"full", code, "Dee", http.StatusConflict, "Room is full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/rooms/"+tt.code+"/join", JoinRoomRequest{PlayerName: tt.player})
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if got := decode[ErrorResponse](t, w).Error; got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestJoinNameTaken(t *testing.T) {
	f := newFixture(t)
	code, _ := f.createRoom(t, nil, "Bo")
	w := f.do(t, http.MethodPost, "/api/rooms/"+strings.ToLower(code)+"/join", JoinRoomRequest{PlayerName: "BO"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "Name already taken in this room" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestRoundOverHTTP(t *testing.T) {
	f := newFixture(t)
	code, players := f.createRoom(t, map[string]any{"imagesEnabled": false}, "Bo", "Cid", "Dee")
	host := players[0]

	// Only the host may start.
	w := f.do(t, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{Token: players[1].Token})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-host start: expected 403, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{Token: host.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	started := decode[RoomResponse](t, w).Room
	if started.State != imposter.StatePlaying || started.TotalPlayers != 4 || started.TurnPlayerID != host.ID {
		t.Fatalf("unexpected room after start: %+v", started)
	}

	room, err := f.sessions.Get(t.Context(), code)
	if err != nil {
		t.Fatalf("loading room: %v", err)
	}

	// The public snapshot never leaks the words.
	w = f.do(t, http.MethodGet, "/api/rooms/"+code, nil)
	if body := w.Body.String(); strings.Contains(body, room.RoundWords.Civilian) || strings.Contains(body, room.RoundWords.Imposter) {
		t.Fatalf("public room leaks words: %s", body)
	}

	// Nobody joins a round in progress.
	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/join", JoinRoomRequest{PlayerName: "Eve"})
	if w.Code != http.StatusConflict {
		t.Fatalf("join while playing: expected 409, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "Game already in progress" {
		t.Errorf("join while playing: error = %q", got)
	}

	// Sequential: Bo cannot peek before Alex is done.
	w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token="+players[1].Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("out of turn card: expected 409, got %d", w.Code)
	}

	// A card must be looked at before it is confirmed.
	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/confirm", PlayerRequest{Token: host.Token})
	if w.Code != http.StatusConflict {
		t.Fatalf("confirm unseen card: expected 409, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "Reveal the card before confirming" {
		t.Errorf("confirm unseen card: error = %q", got)
	}

	imposters := 0
	for i, p := range players {
		w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token="+p.Token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("card %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
		card := decode[CardResponse](t, w)
		if card.Number != i+1 || card.Image != nil || card.PlayerID != p.ID || card.State != imposter.CardRevealed {
			t.Errorf("card %d: unexpected %+v", i, card)
		}
		if card.Word != room.RoundWords.Word(card.Role) {
			t.Errorf("card %d: word %q does not match role %s", i, card.Word, card.Role)
		}
		if card.Role == imposter.RoleImposter {
			imposters++
		}

		w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/confirm", PlayerRequest{Token: p.Token})
		if w.Code != http.StatusOK {
			t.Fatalf("confirm %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
		view := decode[RoomResponse](t, w).Room
		if view.ViewedCount != i+1 {
			t.Errorf("viewedCount = %d, want %d", view.ViewedCount, i+1)
		}
	}
	if imposters != 1 {
		t.Errorf("expected 1 imposter, got %d", imposters)
	}

	// Locked cards stay locked.
	w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token="+host.Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("locked card: expected 409, got %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/rooms/"+code, nil)
	if view := decode[RoomResponse](t, w).Room; !view.RoundReady {
		t.Errorf("expected round ready, got %+v", view)
	}

	// Settings are frozen once playing.
	w = f.do(t, http.MethodPatch, "/api/rooms/"+code+"/settings", UpdateSettingsRequest{Token: host.Token})
	if w.Code != http.StatusConflict {
		t.Fatalf("settings while playing: expected 409, got %d", w.Code)
	}
}

func TestCardWithImages(t *testing.T) {
	f := newFixture(t)
	code, players := f.createRoom(t, map[string]any{"turnMode": "free"}, "Bo", "Cid")
	f.do(t, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{Token: players[0].Token})

	w := f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token="+players[2].Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	card := decode[CardResponse](t, w)
	if card.Image == nil || !card.Image.Fallback || !strings.Contains(card.Image.URL, "dicebear") {
		t.Errorf("expected fallback image, got %+v", card.Image)
	}

	w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing token: expected 400, got %d", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token=stranger", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger: expected 403, got %d", w.Code)
	}
}

// Someone holding only the public snapshot can neither read cards nor act
// for other players.
func TestOutsiderCannotUsePublicIDs(t *testing.T) {
	f := newFixture(t)
	code, players := f.createRoom(t, map[string]any{"turnMode": "free", "imagesEnabled": false}, "Bo", "Cid")
	f.do(t, http.MethodPost, "/api/rooms/"+code+"/start", PlayerRequest{Token: players[0].Token})

	w := f.do(t, http.MethodGet, "/api/rooms/"+code, nil)
	public := w.Body.String()
	for _, p := range players {
		if strings.Contains(public, p.Token) {
			t.Fatalf("public room leaks a token: %s", public)
		}
	}
	var snapshot RoomResponse
	if err := json.Unmarshal([]byte(public), &snapshot); err != nil {
		t.Fatalf("decoding room: %v", err)
	}

	for _, p := range snapshot.Room.Players {
		w = f.do(t, http.MethodGet, "/api/rooms/"+code+"/card?token="+p.ID, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("card for %s by id: expected 403, got %d: %s", p.Name, w.Code, w.Body.String())
		}
		w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/confirm", PlayerRequest{Token: p.ID})
		if w.Code != http.StatusForbidden {
			t.Errorf("confirm for %s by id: expected 403, got %d", p.Name, w.Code)
		}
	}

	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/leave", PlayerRequest{Token: snapshot.Room.HostID})
	if w.Code != http.StatusOK || decode[LeaveResponse](t, w).Closed {
		t.Fatalf("leave with host id must not close the room")
	}
	w = f.do(t, http.MethodPatch, "/api/rooms/"+code+"/settings", UpdateSettingsRequest{Token: snapshot.Room.HostID})
	if w.Code != http.StatusForbidden {
		t.Errorf("settings with host id: expected 403, got %d", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/rooms/"+code, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("room should survive, got %d", w.Code)
	}
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	code, players := f.createRoom(t, nil, "Bo", "Cid")

	w := f.do(t, http.MethodPatch, "/api/rooms/"+code+"/settings", map[string]any{
		"token":    players[1].Token,
		"settings": map[string]any{"quirkiness": 5},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-host: expected 403, got %d", w.Code)
	}

	w = f.do(t, http.MethodPatch, "/api/rooms/"+code+"/settings", map[string]any{
		"token":    players[0].Token,
		"settings": map[string]any{"quirkiness": 5, "category": "food"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	s := decode[RoomResponse](t, w).Room.Settings
	if s.Quirkiness != 5 || s.Category != "food" || s.PlayerCount != 6 {
		t.Errorf("unexpected settings %+v", s)
	}

	w = f.do(t, http.MethodPatch, "/api/rooms/"+code+"/settings", map[string]any{
		"token":    players[0].Token,
		"settings": map[string]any{"playerCount": 20, "imposterCount": 4},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch: expected 400, got %d", w.Code)
	}
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	code, players := f.createRoom(t, nil, "Bo")

	w := f.do(t, http.MethodPost, "/api/rooms/"+code+"/leave", PlayerRequest{Token: players[1].Token})
	if w.Code != http.StatusOK || decode[LeaveResponse](t, w).Closed {
		t.Fatalf("guest leave: unexpected %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/leave", PlayerRequest{Token: players[0].Token})
	if w.Code != http.StatusOK || !decode[LeaveResponse](t, w).Closed {
		t.Fatalf("host leave: expected closed room")
	}

	w = f.do(t, http.MethodGet, "/api/rooms/"+code, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after host left, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/rooms/"+code+"/leave", PlayerRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token: expected 400, got %d", w.Code)
	}
}

func TestOnlinePlayUnavailable(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Sessions = session.New(nil, d.Broker, quietLogger(), time.Second)
	})

	w := f.do(t, http.MethodPost, "/api/rooms", map[string]any{"hostName": "Alex"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("create: expected 503, got %d", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/rooms/ABCDEF/events", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("events: expected 503, got %d", w.Code)
	}

	// Local play does not need the backend.
	w = f.do(t, http.MethodPost, "/api/local/deal", map[string]any{"settings": map[string]any{"playerCount": 5, "imagesEnabled": false}})
	if w.Code != http.StatusOK {
		t.Fatalf("local deal: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[CategoriesResponse](t, w)
	if len(resp.Categories) != 5 || resp.Categories[0].Name != "animals" {
		t.Errorf("unexpected categories %+v", resp.Categories)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.RateLimitRPS = 0.001
		d.RateLimitBurst = 2
	})
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		w := f.do(t, http.MethodGet, "/api/categories", nil)
		if w.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, w.Code)
		}
	}
}
