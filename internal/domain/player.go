package domain

import (
	"fmt"
	"strconv"
)

// Color is an RGB color. It encodes as "#rrggbb".
type Color struct{ R, G, B uint8 }

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses "#rrggbb".
func (c *Color) UnmarshalText(b []byte) error {
	s := string(b)
	if len(s) != 7 || s[0] != '#' {
		return fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q", s)
	}
	c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
	return nil
}

// Player is a seat in a game. ID doubles as the owner id of its stones and
// is stable for the whole game.
type Player struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Figure string `json:"figure"`
	Color  Color  `json:"color"`
}

// Figures and colors offered to players, indexed by seat.
var (
	AvailableFigures = []string{"X", "O", "▲", "■", "◆", "●", "★", "✚", "✖", "◇"}
	AvailableColors  = []Color{
		{255, 0, 0},
		{0, 0, 255},
		{0, 200, 0},
		{255, 165, 0},
		{160, 60, 200},
		{0, 170, 180},
		{255, 215, 0},
		{255, 105, 180},
		{140, 90, 40},
		{200, 200, 200},
	}
)

// MaxPlayers is the number of distinct seats the figure and color tables allow.
var MaxPlayers = min(len(AvailableFigures), len(AvailableColors))

// NewPlayer returns player id with the given look. An empty name becomes
// "Player N" where N is the 1-based seat.
func NewPlayer(id int, name, figure string, color Color) Player {
	if name == "" {
		name = fmt.Sprintf("Player %d", id+1)
	}
	return Player{ID: id, Name: name, Figure: figure, Color: color}
}

// DefaultPlayers returns n players using the stock figures and colors.
// n is clamped to [0, MaxPlayers].
func DefaultPlayers(n int) []Player {
	n = clamp(n, 0, MaxPlayers)
	out := make([]Player, n)
	for i := range out {
		out[i] = NewPlayer(i, "", AvailableFigures[i], AvailableColors[i])
	}
	return out
}
