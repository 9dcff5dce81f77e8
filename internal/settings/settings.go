// Package settings holds the user-editable game configuration: board size,
// player roster and win patterns, persisted as YAML or JSON.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
	"gopkg.in/yaml.v3"
)

// MinPlayers is the smallest roster a game can start with.
const MinPlayers = 2

// PlayerSettings is one roster entry.
type PlayerSettings struct {
	Name   string       `json:"name" yaml:"name"`
	Figure string       `json:"figure" yaml:"figure"`
	Color  domain.Color `json:"color" yaml:"color"`
}

// Settings configures new games.
type Settings struct {
	Width          int               `json:"width" yaml:"width"`
	Height         int               `json:"height" yaml:"height"`
	PlayerCount    int               `json:"player_count" yaml:"player_count"`
	HideBoardOnWin bool              `json:"hide_board_on_win" yaml:"hide_board_on_win"`
	Patterns       []pattern.Pattern `json:"win_patterns" yaml:"win_patterns"`
	Players        []PlayerSettings  `json:"players" yaml:"players"`
}

// Default returns a 20x20 board, the stock patterns and a full roster of
// unnamed players.
func Default() Settings {
	s := Settings{
		Width:    20,
		Height:   20,
		Patterns: pattern.Defaults(),
	}
	for i := 0; i < domain.MaxPlayers; i++ {
		s.Players = append(s.Players, PlayerSettings{
			Figure: domain.AvailableFigures[i],
			Color:  domain.AvailableColors[i],
		})
	}
	return s
}

// Clamp forces the values into their allowed ranges and pads the roster so
// every seat has an entry with a figure and a color.
func (s *Settings) Clamp() {
	s.Width = clamp(s.Width, domain.MinBoardSize, domain.MaxBoardSize)
	s.Height = clamp(s.Height, domain.MinBoardSize, domain.MaxBoardSize)
	s.PlayerCount = clamp(s.PlayerCount, 0, domain.MaxPlayers)
	if len(s.Players) > domain.MaxPlayers {
		s.Players = s.Players[:domain.MaxPlayers]
	}
	for i := len(s.Players); i < domain.MaxPlayers; i++ {
		s.Players = append(s.Players, PlayerSettings{
			Figure: domain.AvailableFigures[i],
			Color:  domain.AvailableColors[i],
		})
	}
	for i := range s.Players {
		if s.Players[i].Figure == "" {
			s.Players[i].Figure = domain.AvailableFigures[i]
		}
		// a roster entry without a color decodes as black
		if s.Players[i].Color == (domain.Color{}) {
			s.Players[i].Color = domain.AvailableColors[i]
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Roster builds n players from the configured seats. n is clamped to
// [MinPlayers, domain.MaxPlayers]; n <= 0 uses PlayerCount.
func (s Settings) Roster(n int) []domain.Player {
	if n <= 0 {
		n = s.PlayerCount
	}
	n = clamp(n, MinPlayers, domain.MaxPlayers)
	out := make([]domain.Player, n)
	for i := range out {
		figure, color := domain.AvailableFigures[i], domain.AvailableColors[i]
		var name string
		if i < len(s.Players) {
			name = s.Players[i].Name
			if s.Players[i].Figure != "" {
				figure = s.Players[i].Figure
			}
			if s.Players[i].Color != (domain.Color{}) {
				color = s.Players[i].Color
			}
		}
		out[i] = domain.NewPlayer(i, name, figure, color)
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads settings from path, YAML for .yaml/.yml and JSON otherwise.
// Keys missing from the file keep their defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.Clamp()
	return s, nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s Settings) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// LoadOrCreate loads path, writing the defaults there first when the file
// does not exist. created reports whether the file was written.
func LoadOrCreate(path string) (s Settings, created bool, err error) {
	s, err = Load(path)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Settings{}, false, err
	}
	s = Default()
	if err := Save(path, s); err != nil {
		return Settings{}, false, err
	}
	return s, true, nil
}
