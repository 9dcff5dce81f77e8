package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaminalder/codex-five-in-a-row/internal/app"
	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/settings"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService()
	h := NewServer(s)
	return s, h
}

func post(t *testing.T, h http.Handler, path, pid string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if pid != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: pid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// seatedGame creates a game through the service with p1 and p2 seated.
func seatedGame(t *testing.T, svc *app.Service, cfg app.Config) string {
	t.Helper()
	gs, err := svc.CreateGame(cfg)
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")
	return gs.ID
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
	if !strings.Contains(body, "name=\"patterns\"") || !strings.Contains(body, "Line 5") {
		t.Fatalf("index should offer the default patterns; got body: %q", body)
	}
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	form := url.Values{"width": {"7"}, "height": {"9"}, "players": {"3"}, "autocheck": {"on"}}
	rr := post(t, h, "/game", "", form)
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok {
		t.Fatalf("created game %q not found", loc)
	}
	if gs.Game.Width != 7 || gs.Game.Height != 9 || len(gs.Game.Players) != 3 || !gs.AutoCheck {
		t.Fatalf("form not applied: %dx%d players=%d autocheck=%v",
			gs.Game.Width, gs.Game.Height, len(gs.Game.Players), gs.AutoCheck)
	}
}

func TestCreateWithCustomPatterns(t *testing.T) {
	svc, h := newTestServer(t)
	form := url.Values{"patterns": {`[{"name":"Square","cells":[[0,0],[1,0],[0,1],[1,1],[2]]}]`}}
	rr := post(t, h, "/game", "", form)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rr.Code, rr.Body.String())
	}
	gs, _ := svc.Get(strings.TrimPrefix(rr.Result().Header.Get("Location"), "/game/"))
	if len(gs.Game.Patterns) != 1 {
		t.Fatalf("expected one pattern, got %v", gs.Game.Patterns)
	}
	p := gs.Game.Patterns[0]
	if p.Name != "Square" || !p.Enabled || len(p.Cells) != 4 {
		t.Fatalf("unexpected pattern %+v", p)
	}

	rr = post(t, h, "/game", "", url.Values{"patterns": {"[{"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed patterns, got %d", rr.Code)
	}
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Config{})

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "player_id" {
			playerID = c.Value
			break
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	latest, ok := svc.Get(gs.ID)
	if !ok || latest.SeatOf(playerID) != 0 {
		t.Fatalf("expected auto-claim of seat 0; seats=%v pid=%q", latest.Seats, playerID)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, "id=\"board\"") || !strings.Contains(body, "You play X") {
		t.Fatalf("expected embedded board and seat line; got body: %q", body)
	}
}

func TestUnknownGameIsNotFound(t *testing.T) {
	_, h := newTestServer(t)
	for _, path := range []string{"/game/nope", "/game/nope/state"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", path, rr.Code)
		}
	}
	if rr := post(t, h, "/game/nope/stage", "p1", url.Values{"cell": {"A1"}}); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for stage, got %d", rr.Code)
	}
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Config{})
	svc.Join(gs.ID, "p1")

	rr := post(t, h, "/game/"+gs.ID+"/join", "p2", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.SeatOf("p2") != 1 {
		t.Fatalf("expected seat 1 for p2, got seats %v", latest.Seats)
	}
}

func TestStageAndConfirmRendersWinningCells(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{AutoCheck: true})
	base := "/game/" + id

	for _, cell := range []string{"A1", "B1", "C1"} {
		if rr := post(t, h, base+"/stage", "p1", url.Values{"cell": {cell}}); strings.Contains(rr.Body.String(), "alert") {
			t.Fatalf("stage %s refused: %s", cell, rr.Body.String())
		}
	}
	rr := post(t, h, base+"/confirm", "p1", url.Values{})
	if strings.Count(rr.Body.String(), ">X</span>") != 3 {
		t.Fatalf("expected three X stones, got %q", rr.Body.String())
	}

	post(t, h, base+"/stage", "p2", url.Values{"x": {"0"}, "y": {"5"}})
	post(t, h, base+"/confirm", "p2", url.Values{})

	post(t, h, base+"/stage", "p1", url.Values{"x": {"3"}, "y": {"0"}})
	post(t, h, base+"/stage", "p1", url.Values{"cell": {"e1"}})
	rr = post(t, h, base+"/confirm", "p1", url.Values{})
	body := rr.Body.String()
	if n := strings.Count(body, `class=" winning"`); n != 5 {
		t.Fatalf("expected 5 winning cells, got %d in %q", n, body)
	}
	if !strings.Contains(body, "Player 1 wins!") {
		t.Fatalf("expected win status, got %q", body)
	}
	if strings.Contains(body, "/stage\" hx-vals") {
		t.Fatalf("finished board should not offer moves")
	}
	latest, _ := svc.Get(id)
	if latest.Game.State != domain.Won {
		t.Fatalf("expected won state, got %v", latest.Game.State)
	}
}

func TestActionErrorsShownInFragment(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{})
	base := "/game/" + id

	cases := []struct {
		pid, want string
		form      url.Values
	}{
		{"p2", "Not your turn", url.Values{"cell": {"A1"}}},
		{"p9", "You are a spectator", url.Values{"cell": {"A1"}}},
		{"p1", domain.ErrInvalidCoordinates.Error(), url.Values{"cell": {"Z99"}}},
		{"p1", domain.ErrInvalidCoordinates.Error(), url.Values{"x": {"a"}, "y": {"1"}}},
	}
	svc.Join(id, "p9") // spectator, both seats taken
	for _, tc := range cases {
		rr := post(t, h, base+"/stage", tc.pid, tc.form)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), tc.want) {
			t.Fatalf("expected %q in fragment, got %q", tc.want, rr.Body.String())
		}
	}

	post(t, h, base+"/stage", "p1", url.Values{"cell": {"A1"}})
	post(t, h, base+"/confirm", "p1", url.Values{})
	rr := post(t, h, base+"/stage", "p2", url.Values{"cell": {"A1"}})
	if !strings.Contains(rr.Body.String(), domain.ErrCellOccupied.Error()) {
		t.Fatalf("expected occupied message, got %q", rr.Body.String())
	}
}

func TestUndoClearSkipAndReset(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{})
	base := "/game/" + id

	post(t, h, base+"/stage", "p1", url.Values{"cell": {"A1"}})
	post(t, h, base+"/stage", "p1", url.Values{"cell": {"B1"}})
	post(t, h, base+"/undo", "p1", url.Values{})
	if gs, _ := svc.Get(id); len(gs.Game.Pending) != 1 {
		t.Fatalf("expected one staged cell after undo, got %v", gs.Game.Pending)
	}
	post(t, h, base+"/clear", "p1", url.Values{})
	if gs, _ := svc.Get(id); len(gs.Game.Pending) != 0 {
		t.Fatalf("expected no staged cells after clear, got %v", gs.Game.Pending)
	}
	post(t, h, base+"/skip", "p1", url.Values{})
	if gs, _ := svc.Get(id); gs.Game.Current != 1 {
		t.Fatalf("expected turn to pass, current=%d", gs.Game.Current)
	}
	post(t, h, base+"/stage", "p2", url.Values{"cell": {"C3"}})
	post(t, h, base+"/confirm", "p2", url.Values{})
	post(t, h, base+"/reset", "p1", url.Values{})
	gs, _ := svc.Get(id)
	if gs.Game.Current != 0 || gs.Game.Owner(2, 2) != domain.Empty {
		t.Fatalf("expected a fresh round, got %+v", gs.Game)
	}
}

func TestFalseClaimEliminates(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{})
	post(t, h, "/game/"+id+"/stage", "p1", url.Values{"cell": {"A1"}})
	rr := post(t, h, "/game/"+id+"/confirm", "p1", url.Values{"claim": {"on"}})
	if !strings.Contains(rr.Body.String(), "eliminated") {
		t.Fatalf("expected eliminated player in fragment, got %q", rr.Body.String())
	}
	gs, _ := svc.Get(id)
	if len(gs.Game.Eliminated) != 1 || gs.Game.Eliminated[0] != 0 || gs.Game.Current != 1 {
		t.Fatalf("expected p1 eliminated and p2 to move, got %v current=%d", gs.Game.Eliminated, gs.Game.Current)
	}
}

func TestStateEndpointReturnsJSON(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{})
	post(t, h, "/game/"+id+"/stage", "p1", url.Values{"cell": {"B3"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/"+id+"/state", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON, got %q", ct)
	}
	var got struct {
		ID   string `json:"id"`
		Game struct {
			State   string  `json:"state"`
			Pending [][]int `json:"pending"`
			Width   int     `json:"width"`
		} `json:"game"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != id || got.Game.State != "in_progress" || got.Game.Width != 20 {
		t.Fatalf("unexpected state %+v", got)
	}
	if len(got.Game.Pending) != 1 || got.Game.Pending[0][0] != 1 || got.Game.Pending[0][1] != 2 {
		t.Fatalf("expected pending [[1,2]], got %v", got.Game.Pending)
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	rrCreate := post(t, h, "/game", "", url.Values{})
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestWebSocketStreamsSnapshots(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{})
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first app.GameState
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if first.ID != id || len(first.Game.Pending) != 0 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}

	if _, err := svc.Stage(id, "p1", 4, 4); err != nil {
		t.Fatalf("stage: %v", err)
	}
	var next app.GameState
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if len(next.Game.Pending) != 1 || next.Game.Pending[0] != (domain.Point{X: 4, Y: 4}) {
		t.Fatalf("expected staged cell in update, got %v", next.Game.Pending)
	}
}

// playFirstRowWin lets p1 complete A1 to E1 while p2 answers once at A6.
func playFirstRowWin(t *testing.T, h http.Handler, base string) string {
	t.Helper()
	for _, cell := range []string{"A1", "B1", "C1"} {
		post(t, h, base+"/stage", "p1", url.Values{"cell": {cell}})
	}
	post(t, h, base+"/confirm", "p1", url.Values{})
	post(t, h, base+"/stage", "p2", url.Values{"cell": {"A6"}})
	post(t, h, base+"/confirm", "p2", url.Values{})
	post(t, h, base+"/stage", "p1", url.Values{"cell": {"D1"}})
	post(t, h, base+"/stage", "p1", url.Values{"cell": {"E1"}})
	return post(t, h, base+"/confirm", "p1", url.Values{}).Body.String()
}

func TestStatusNamesSeatsWhoseIDsDifferFromIndex(t *testing.T) {
	svc, h := newTestServer(t)
	id := seatedGame(t, svc, app.Config{
		AutoCheck: true,
		Players: []domain.Player{
			domain.NewPlayer(10, "Ann", "X", domain.AvailableColors[0]),
			domain.NewPlayer(11, "Bob", "O", domain.AvailableColors[1]),
		},
	})
	base := "/game/" + id

	rr := post(t, h, base+"/join", "p1", url.Values{})
	if !strings.Contains(rr.Body.String(), "Ann to move") {
		t.Fatalf("expected Ann to move, got %q", rr.Body.String())
	}
	body := playFirstRowWin(t, h, base)
	if !strings.Contains(body, "Ann wins!") {
		t.Fatalf("expected Ann to win, got %q", body)
	}
	if strings.Count(body, ">X</span>") != 5 || strings.Count(body, ">O</span>") != 1 {
		t.Fatalf("stones should carry their owners' figures, got %q", body)
	}
}

func TestHideBoardOnDraw(t *testing.T) {
	s := settings.Default()
	s.HideBoardOnWin = true
	svc := app.NewService()
	h := NewServer(svc, WithSettings(s))
	id := seatedGame(t, svc, app.Config{})
	base := "/game/" + id

	post(t, h, base+"/stage", "p1", url.Values{"cell": {"A1"}})
	post(t, h, base+"/confirm", "p1", url.Values{"claim": {"on"}})
	if rr := post(t, h, base+"/join", "p1", url.Values{}); !strings.Contains(rr.Body.String(), `class="grid"`) {
		t.Fatalf("board should stay visible while the round runs, got %q", rr.Body.String())
	}
	post(t, h, base+"/stage", "p2", url.Values{"cell": {"C3"}})
	body := post(t, h, base+"/confirm", "p2", url.Values{"claim": {"on"}}).Body.String()
	if !strings.Contains(body, "Draw") {
		t.Fatalf("expected a draw, got %q", body)
	}
	if strings.Contains(body, `class="grid"`) {
		t.Fatalf("board should be hidden after a draw, got %q", body)
	}
}

func TestEliminatedPlayerIsRefused(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Config{Players: domain.DefaultPlayers(3)})
	for _, pid := range []string{"p1", "p2", "p3"} {
		svc.Join(gs.ID, pid)
	}
	base := "/game/" + gs.ID

	post(t, h, base+"/stage", "p1", url.Values{"cell": {"A1"}})
	post(t, h, base+"/confirm", "p1", url.Values{"claim": {"on"}})
	post(t, h, base+"/skip", "p2", url.Values{})
	post(t, h, base+"/skip", "p3", url.Values{})
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Current != 1 {
		t.Fatalf("turn should pass over the eliminated seat, current=%d", latest.Game.Current)
	}
	rr := post(t, h, base+"/stage", "p1", url.Values{"cell": {"B2"}})
	if !strings.Contains(rr.Body.String(), "Not your turn") {
		t.Fatalf("expected refusal, got %q", rr.Body.String())
	}
}
