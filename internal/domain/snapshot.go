package domain

import "github.com/jaminalder/codex-five-in-a-row/internal/pattern"

// Snapshot is a detached copy of a game, safe to hand to other goroutines.
// LastPlayer and Winner are -1 when unset.
type Snapshot struct {
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Cells        [][]int           `json:"cells"`
	Players      []Player          `json:"players"`
	Patterns     []pattern.Pattern `json:"patterns"`
	Current      int               `json:"current"`
	Pending      []Point           `json:"pending"`
	Remaining    int               `json:"remaining"`
	Eliminated   []int             `json:"eliminated"`
	LastPlayer   int               `json:"lastPlayer"`
	Winner       int               `json:"winner"`
	WinningCells []Point           `json:"winningCells"`
	State        State             `json:"state"`
}

// Snapshot copies the current game state.
func (r *Rules) Snapshot() Snapshot {
	return Snapshot{
		Width:        r.board.Width(),
		Height:       r.board.Height(),
		Cells:        r.board.Cells(),
		Players:      append([]Player(nil), r.players...),
		Patterns:     pattern.Clone(r.patterns),
		Current:      r.current,
		Pending:      r.PendingMoves(),
		Remaining:    r.RemainingMoves(),
		Eliminated:   r.Eliminated(),
		LastPlayer:   r.last,
		Winner:       r.winner,
		WinningCells: r.WinningCells(),
		State:        r.state,
	}
}

// Owner returns the owner of (x, y), or Empty.
func (s Snapshot) Owner(x, y int) int {
	if y < 0 || y >= len(s.Cells) || x < 0 || x >= len(s.Cells[y]) {
		return Empty
	}
	return s.Cells[y][x]
}

// Player returns the player with the given id.
func (s Snapshot) Player(id int) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}
