package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
)

// MaxMovesPerTurn caps how many stones a player may stage in one turn.
const MaxMovesPerTurn = 3

// State is the lifecycle of a game.
type State uint8

const (
	InProgress State = iota
	Won
	Draw
)

func (s State) String() string {
	switch s {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in_progress":
		*s = InProgress
	case "won":
		*s = Won
	case "draw":
		*s = Draw
	default:
		return fmt.Errorf("unknown game state %q", b)
	}
	return nil
}

// Errors returned by rule operations. Their text is fit to show to a player.
var (
	ErrGameOver           = errors.New("game over")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrCellOccupied       = errors.New("cell occupied")
	ErrAlreadySelected    = errors.New("cell already selected")
	ErrMoveLimit          = errors.New("move limit reached")
	ErrNoPlayers          = errors.New("no players")
)

const nobody = -1

// Rules drives a game on a board: players stage up to MaxMovesPerTurn cells,
// confirm them onto the board, and the last mover is checked for a win or
// eliminated after a false claim. Rules is not safe for concurrent use.
type Rules struct {
	board    *Board
	players  []Player
	patterns []pattern.Pattern

	current      int
	pending      []Point
	eliminated   map[int]struct{}
	last         int
	winner       int
	winningCells []Point
	state        State
}

// NewRules starts a game. A nil patterns list selects pattern.Defaults().
// The patterns are read, never modified.
func NewRules(board *Board, players []Player, patterns []pattern.Pattern) *Rules {
	if patterns == nil {
		patterns = pattern.Defaults()
	}
	r := &Rules{board: board, players: players, patterns: patterns}
	r.clearState()
	return r
}

func (r *Rules) clearState() {
	r.current = 0
	r.pending = nil
	r.eliminated = make(map[int]struct{})
	r.last = nobody
	r.winner = nobody
	r.winningCells = nil
	r.state = InProgress
}

func (r *Rules) Board() *Board               { return r.board }
func (r *Rules) Players() []Player           { return r.players }
func (r *Rules) Patterns() []pattern.Pattern { return r.patterns }
func (r *Rules) State() State                { return r.state }
func (r *Rules) GameOver() bool              { return r.state != InProgress }
func (r *Rules) IsDraw() bool                { return r.state == Draw }
func (r *Rules) CurrentPlayerIndex() int     { return r.current }
func (r *Rules) RemainingMoves() int         { return MaxMovesPerTurn - len(r.pending) }
func (r *Rules) PendingMoves() []Point       { return append([]Point(nil), r.pending...) }
func (r *Rules) WinningCells() []Point       { return append([]Point(nil), r.winningCells...) }

// IsPlayerActive reports whether the player at index has not been eliminated.
func (r *Rules) IsPlayerActive(index int) bool {
	_, out := r.eliminated[index]
	return !out
}

// CurrentPlayer returns the player whose turn it is.
func (r *Rules) CurrentPlayer() (Player, bool) {
	if r.current < 0 || r.current >= len(r.players) {
		return Player{}, false
	}
	return r.players[r.current], true
}

// LastPlayerIndex returns the index of the player who confirmed most recently.
func (r *Rules) LastPlayerIndex() (int, bool) {
	return r.last, r.last != nobody
}

// Winner returns the winning player once the game is won.
func (r *Rules) Winner() (Player, bool) {
	if r.winner == nobody {
		return Player{}, false
	}
	return r.players[r.winner], true
}

// Eliminated returns the eliminated player indices in ascending order.
func (r *Rules) Eliminated() []int {
	out := make([]int, 0, len(r.eliminated))
	for i := range r.eliminated {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// AddPendingMove stages (x, y) for the current turn without touching the board.
func (r *Rules) AddPendingMove(x, y int) error {
	if r.GameOver() {
		return ErrGameOver
	}
	if !r.board.IsValidPosition(x, y) {
		return ErrInvalidCoordinates
	}
	if !r.board.IsEmpty(x, y) {
		return ErrCellOccupied
	}
	p := Point{X: x, Y: y}
	for _, q := range r.pending {
		if q == p {
			return ErrAlreadySelected
		}
	}
	if len(r.pending) >= MaxMovesPerTurn {
		return ErrMoveLimit
	}
	r.pending = append(r.pending, p)
	return nil
}

// RemoveLastPendingMove drops the most recently staged cell. It reports
// false when nothing is staged.
func (r *Rules) RemoveLastPendingMove() bool {
	if len(r.pending) == 0 {
		return false
	}
	r.pending = r.pending[:len(r.pending)-1]
	return true
}

// ClearPendingMoves drops every staged cell.
func (r *Rules) ClearPendingMoves() { r.pending = nil }

// ConfirmTurn places the staged stones for the current player and records
// them as the last mover. It neither checks for a win nor advances the turn.
func (r *Rules) ConfirmTurn() error {
	if r.GameOver() {
		return ErrGameOver
	}
	player, ok := r.CurrentPlayer()
	if !ok {
		return ErrNoPlayers
	}
	seen := make(map[Point]struct{}, len(r.pending))
	for _, p := range r.pending {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if r.board.IsEmpty(p.X, p.Y) {
			r.board.PlaceFigure(p.X, p.Y, player.ID)
		}
	}
	r.pending = nil
	r.last = r.current
	return nil
}

// CheckWinner scans every stone of the last mover for a completed pattern.
// On a match the game is won and true is returned. Before anyone has moved
// it reports false.
func (r *Rules) CheckWinner() (bool, error) {
	if r.GameOver() {
		return false, ErrGameOver
	}
	if r.last == nobody {
		return false, nil
	}
	id := r.players[r.last].ID
	for y := 0; y < r.board.Height(); y++ {
		for x := 0; x < r.board.Width(); x++ {
			if !r.board.owns(x, y, id) {
				continue
			}
			if cells, ok := r.board.CheckWinAt(x, y, id, r.patterns); ok {
				r.winner = r.last
				r.winningCells = cells
				r.state = Won
				return true, nil
			}
		}
	}
	return false, nil
}

// EliminateLastPlayer removes the last mover from future turns. When every
// player is eliminated the game ends in a draw. It reports false before
// anyone has moved and once the game has been won.
func (r *Rules) EliminateLastPlayer() bool {
	if r.last == nobody || r.state == Won {
		return false
	}
	r.eliminated[r.last] = struct{}{}
	if len(r.eliminated) >= len(r.players) {
		r.state = Draw
	}
	return true
}

// AdvanceTurn passes the turn to the next player who is still active.
func (r *Rules) AdvanceTurn() error {
	if r.GameOver() || len(r.eliminated) >= len(r.players) {
		return ErrGameOver
	}
	for attempts := 0; attempts < len(r.players); attempts++ {
		r.current = (r.current + 1) % len(r.players)
		if r.IsPlayerActive(r.current) {
			return nil
		}
	}
	return ErrGameOver
}

// SkipTurn discards the staged cells and hands the turn to the next seat.
// Unlike AdvanceTurn it does not step over eliminated players.
func (r *Rules) SkipTurn() error {
	if r.GameOver() {
		return ErrGameOver
	}
	if len(r.players) == 0 {
		return ErrNoPlayers
	}
	r.pending = nil
	r.current = (r.current + 1) % len(r.players)
	return nil
}

// Reset clears the board and all turn state for a new game with the same
// players and patterns.
func (r *Rules) Reset() {
	r.board.Reset()
	r.clearState()
}

// ParseCoordinate reads a label such as "C7" or "aa12" on this game's board.
func (r *Rules) ParseCoordinate(text string) (Point, bool) {
	return ParseCoordinate(text, r.board)
}
