package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jaminalder/codex-five-in-a-row/internal/app"
	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
	"github.com/jaminalder/codex-five-in-a-row/internal/roster"
	"github.com/jaminalder/codex-five-in-a-row/internal/settings"
)

type handlers struct {
	svc    *app.Service
	tpl    *templates
	log    *zap.Logger
	roster *roster.Store

	mu           sync.RWMutex
	settings     settings.Settings
	settingsPath string
}

// current returns the settings new games start from.
func (h *handlers) current() settings.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

type cellView struct {
	X, Y    int
	Label   string
	Figure  string
	Color   string
	Pending bool
	Winning bool
}

type rowView struct {
	Label string
	Cells []cellView
}

type playerView struct {
	Name       string
	Figure     string
	Color      string
	Current    bool
	Eliminated bool
	Winner     bool
}

type boardView struct {
	ID        string
	Columns   []string
	Rows      []rowView
	Players   []playerView
	Status    string
	Remaining int
	Staged    int
	Running   bool
	Hidden    bool
	AutoCheck bool
	Error     string
}

func newBoardView(gs app.GameState, hideOnWin bool, errMsg string) boardView {
	g := gs.Game
	v := boardView{
		ID:        gs.ID,
		Remaining: g.Remaining,
		Staged:    len(g.Pending),
		Running:   g.State == domain.InProgress,
		Hidden:    hideOnWin && g.State != domain.InProgress,
		AutoCheck: gs.AutoCheck,
		Error:     errMsg,
	}
	pending := make(map[pattern.Point]bool, len(g.Pending))
	for _, p := range g.Pending {
		pending[p] = true
	}
	winning := make(map[pattern.Point]bool, len(g.WinningCells))
	for _, p := range g.WinningCells {
		winning[p] = true
	}
	for x := 0; x < g.Width; x++ {
		v.Columns = append(v.Columns, strings.TrimSuffix(domain.FormatCoordinate(pattern.Point{X: x}), "1"))
	}
	current, _ := seatPlayer(g, g.Current)
	for y := 0; y < g.Height; y++ {
		row := rowView{Label: strconv.Itoa(y + 1)}
		for x := 0; x < g.Width; x++ {
			p := pattern.Point{X: x, Y: y}
			c := cellView{X: x, Y: y, Label: domain.FormatCoordinate(p), Pending: pending[p], Winning: winning[p]}
			if owner, ok := g.Player(g.Owner(x, y)); ok {
				c.Figure, c.Color = owner.Figure, owner.Color.String()
			} else if c.Pending {
				c.Figure, c.Color = current.Figure, current.Color.String()
			}
			row.Cells = append(row.Cells, c)
		}
		v.Rows = append(v.Rows, row)
	}
	eliminated := make(map[int]bool, len(g.Eliminated))
	for _, i := range g.Eliminated {
		eliminated[i] = true
	}
	for i, p := range g.Players {
		v.Players = append(v.Players, playerView{
			Name:       p.Name,
			Figure:     p.Figure,
			Color:      p.Color.String(),
			Current:    v.Running && i == g.Current,
			Eliminated: eliminated[i],
			Winner:     g.State == domain.Won && i == g.Winner,
		})
	}
	switch g.State {
	case domain.Won:
		if w, ok := seatPlayer(g, g.Winner); ok {
			v.Status = w.Name + " wins!"
		}
	case domain.Draw:
		v.Status = "Draw: every player was eliminated"
	default:
		v.Status = fmt.Sprintf("%s to move (%d left)", current.Name, g.Remaining)
	}
	return v
}

// seatPlayer returns the player sitting at seat. Stones on the board carry
// player ids instead and go through Snapshot.Player.
func seatPlayer(g domain.Snapshot, seat int) (domain.Player, bool) {
	if seat < 0 || seat >= len(g.Players) {
		return domain.Player{}, false
	}
	return g.Players[seat], true
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(gs, h.current().HideBoardOnWin, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	s := h.current()
	data := struct {
		Width, Height, Players int
		MinSize, MaxSize       int
		MinPlayers, MaxPlayers int
		Patterns               string
	}{
		Width:      s.Width,
		Height:     s.Height,
		Players:    len(s.Roster(0)),
		MinSize:    domain.MinBoardSize,
		MaxSize:    domain.MaxBoardSize,
		MinPlayers: settings.MinPlayers,
		MaxPlayers: domain.MaxPlayers,
	}
	if b, err := json.Marshal(s.Patterns); err == nil {
		data.Patterns = string(b)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "", data))
}

func formInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.Form.Get(key)))
	if err != nil {
		return def
	}
	return v
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.Form.Get(key)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s := h.current()
	cfg := app.Config{
		Width:     formInt(r, "width", s.Width),
		Height:    formInt(r, "height", s.Height),
		Players:   s.Roster(formInt(r, "players", 0)),
		Patterns:  pattern.Clone(s.Patterns),
		AutoCheck: formBool(r, "autocheck"),
		HotSeat:   formBool(r, "hotseat"),
	}
	if raw := strings.TrimSpace(r.Form.Get("patterns")); raw != "" {
		var ps []pattern.Pattern
		if err := json.Unmarshal([]byte(raw), &ps); err != nil {
			http.Error(w, "invalid patterns: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg.Patterns = ps
	}
	gs, err := h.svc.CreateGame(cfg)
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// ensure cookie and auto-claim seat
	pid := ensurePlayerCookie(w, r)
	seat, gs, err := h.svc.Join(id, pid)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID        string
		Seat      string
		BoardHTML template.HTML
	}{ID: gs.ID}
	switch {
	case gs.HotSeat:
		data.Seat = "Hot seat: everyone plays from this screen"
	case seat == app.Spectator:
		data.Seat = "You are watching"
	default:
		if p, ok := seatPlayer(gs.Game, seat); ok {
			data.Seat = fmt.Sprintf("You play %s (%s)", p.Figure, p.Name)
		}
	}
	data.BoardHTML = template.HTML(h.renderBoard(*gs, ""))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_, gs, err := h.svc.Join(id, pid)
	if err != nil || gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, ""))
}

// act runs one player action and answers with the board fragment, carrying
// a message when the action was refused.
func (h *handlers) act(w http.ResponseWriter, r *http.Request, fn func(id, pid string) (*app.GameState, error)) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()
	gs, err := fn(id, pid)
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		errMsg = errorMessage(err)
		gs, _ = h.svc.Get(id)
	}
	if gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, errMsg))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, app.ErrEliminated):
		return "You have been eliminated"
	case errors.Is(err, domain.ErrGameOver),
		errors.Is(err, domain.ErrInvalidCoordinates),
		errors.Is(err, domain.ErrCellOccupied),
		errors.Is(err, domain.ErrAlreadySelected),
		errors.Is(err, domain.ErrMoveLimit),
		errors.Is(err, domain.ErrNoPlayers):
		return err.Error()
	default:
		return "Invalid move"
	}
}

func (h *handlers) stage(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id, pid string) (*app.GameState, error) {
		if label := r.Form.Get("cell"); label != "" {
			return h.svc.StageLabel(id, pid, label)
		}
		x, errX := strconv.Atoi(r.Form.Get("x"))
		y, errY := strconv.Atoi(r.Form.Get("y"))
		if errX != nil || errY != nil {
			return nil, domain.ErrInvalidCoordinates
		}
		return h.svc.Stage(id, pid, x, y)
	})
}

func (h *handlers) undo(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Unstage)
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.ClearStaged)
}

func (h *handlers) confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id, pid string) (*app.GameState, error) {
		return h.svc.Confirm(id, pid, formBool(r, "claim"))
	})
}

func (h *handlers) skip(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Skip)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Reset)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.log.Warn("encode state", zap.String("game_id", gs.ID), zap.Error(err))
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// Plain requests only get the headers
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()
	h.log.Debug("event stream opened", zap.String("game_id", id))
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = io.WriteString(w, "event: board\n")
			// one data line per payload line keeps multi-line HTML intact
			for _, line := range strings.Split(string(b), "\n") {
				_, _ = fmt.Fprintf(w, "data: %s\n", line)
			}
			_, _ = io.WriteString(w, "\n")
			flusher.Flush()
		}
	}
}
