package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
	"github.com/jaminalder/codex-five-in-a-row/internal/roster"
	"github.com/jaminalder/codex-five-in-a-row/internal/settings"
)

type seatForm struct {
	Index  int
	Name   string
	Figure string
	Color  string
}

type settingsView struct {
	Width, Height, PlayerCount int
	MinSize, MaxSize           int
	MaxPlayers                 int
	HideBoardOnWin             bool
	Patterns                   string
	Seats                      []seatForm
	Figures                    []string
	Names                      []string
	Saved                      bool
	Error                      string
}

func (h *handlers) newSettingsView(s settings.Settings, patterns string) settingsView {
	v := settingsView{
		Width:          s.Width,
		Height:         s.Height,
		PlayerCount:    s.PlayerCount,
		MinSize:        domain.MinBoardSize,
		MaxSize:        domain.MaxBoardSize,
		MaxPlayers:     domain.MaxPlayers,
		HideBoardOnWin: s.HideBoardOnWin,
		Patterns:       patterns,
		Figures:        domain.AvailableFigures,
		Names:          h.roster.Names(),
	}
	if patterns == "" {
		if b, err := json.MarshalIndent(s.Patterns, "", "  "); err == nil {
			v.Patterns = string(b)
		}
	}
	for i, p := range s.Players {
		v.Seats = append(v.Seats, seatForm{Index: i, Name: p.Name, Figure: p.Figure, Color: p.Color.String()})
	}
	return v
}

func (h *handlers) renderSettings(w http.ResponseWriter, status int, v settingsView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(renderTemplate(h.tpl.settings, "", v))
}

func (h *handlers) settingsPage(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, http.StatusOK, h.newSettingsView(h.current(), ""))
}

// saveSettings applies the settings form. Fields left blank or invalid keep
// their current value.
func (h *handlers) saveSettings(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s := h.current()
	s.Players = append([]settings.PlayerSettings(nil), s.Players...)
	s.Width = formInt(r, "width", s.Width)
	s.Height = formInt(r, "height", s.Height)
	s.PlayerCount = formInt(r, "player_count", s.PlayerCount)
	s.HideBoardOnWin = formBool(r, "hide_board_on_win")
	raw := strings.TrimSpace(r.Form.Get("patterns"))
	if raw != "" {
		var ps []pattern.Pattern
		if err := json.Unmarshal([]byte(raw), &ps); err != nil {
			v := h.newSettingsView(s, raw)
			v.Error = "invalid patterns: " + err.Error()
			h.renderSettings(w, http.StatusBadRequest, v)
			return
		}
		s.Patterns = ps
	}
	for i := range s.Players {
		key := func(field string) string { return fmt.Sprintf("%s_%d", field, i) }
		if _, ok := r.Form[key("name")]; ok {
			s.Players[i].Name = roster.NormalizeName(r.Form.Get(key("name")))
		}
		if f := r.Form.Get(key("figure")); f != "" {
			s.Players[i].Figure = f
		}
		var c domain.Color
		if err := c.UnmarshalText([]byte(r.Form.Get(key("color")))); err == nil {
			s.Players[i].Color = c
		}
	}
	s.Clamp()

	if h.settingsPath != "" {
		if err := settings.Save(h.settingsPath, s); err != nil {
			h.log.Error("save settings", zap.String("path", h.settingsPath), zap.Error(err))
			v := h.newSettingsView(s, "")
			v.Error = "could not save settings"
			h.renderSettings(w, http.StatusInternalServerError, v)
			return
		}
	}
	h.mu.Lock()
	h.settings = s
	h.mu.Unlock()
	h.log.Info("settings updated",
		zap.Int("width", s.Width),
		zap.Int("height", s.Height),
		zap.Int("player_count", s.PlayerCount),
		zap.Int("patterns", len(s.Patterns)),
	)
	v := h.newSettingsView(s, "")
	v.Saved = true
	h.renderSettings(w, http.StatusOK, v)
}

type ratingRow struct {
	Rank int
	roster.Entry
}

func (h *handlers) rating(w http.ResponseWriter, r *http.Request) {
	var data struct{ Rows []ratingRow }
	for i, e := range h.roster.Stats() {
		data.Rows = append(data.Rows, ratingRow{Rank: i + 1, Entry: e})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.rating, "", data))
}

func (h *handlers) renderPlayers(w http.ResponseWriter, status int, errMsg string) {
	data := struct {
		Names []string
		Error string
	}{Names: h.roster.Names(), Error: errMsg}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(renderTemplate(h.tpl.players, "", data))
}

func (h *handlers) players(w http.ResponseWriter, r *http.Request) {
	h.renderPlayers(w, http.StatusOK, "")
}

// rosterEdit runs one roster change and returns to the player list, or
// shows the list again with the reason the change was refused.
func (h *handlers) rosterEdit(w http.ResponseWriter, r *http.Request, fn func() error) {
	_ = r.ParseForm()
	err := fn()
	switch {
	case err == nil:
		http.Redirect(w, r, "/players", http.StatusSeeOther)
	case errors.Is(err, roster.ErrEmptyName),
		errors.Is(err, roster.ErrNameTaken),
		errors.Is(err, roster.ErrUnknownPlayer):
		h.renderPlayers(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("roster update", zap.Error(err))
		h.renderPlayers(w, http.StatusInternalServerError, "could not save players")
	}
}

func (h *handlers) addPlayer(w http.ResponseWriter, r *http.Request) {
	h.rosterEdit(w, r, func() error { return h.roster.Add(r.Form.Get("name")) })
}

func (h *handlers) renamePlayer(w http.ResponseWriter, r *http.Request) {
	h.rosterEdit(w, r, func() error { return h.roster.Rename(r.Form.Get("name"), r.Form.Get("new_name")) })
}

func (h *handlers) deletePlayer(w http.ResponseWriter, r *http.Request) {
	h.rosterEdit(w, r, func() error { return h.roster.Delete(r.Form.Get("name")) })
}
