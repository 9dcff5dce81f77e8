package domain

import "github.com/jaminalder/codex-five-in-a-row/internal/pattern"

// Board size limits. Requested dimensions are clamped into this range.
const (
	MinBoardSize = 5
	MaxBoardSize = 50
)

// Empty marks an unoccupied cell in Board.Cells.
const Empty = -1

// Point is a board coordinate: X is the column, Y the row, both 0-based.
type Point = pattern.Point

// Board is a width x height grid of owner ids stored row-major.
type Board struct {
	width, height int
	grid          []int
	shapes        *pattern.Expander
}

// NewBoard returns an empty board using the shared pattern expander.
func NewBoard(width, height int) *Board {
	return NewBoardWithExpander(width, height, pattern.Shared)
}

// NewBoardWithExpander returns an empty board that expands win patterns with e.
func NewBoardWithExpander(width, height int, e *pattern.Expander) *Board {
	if e == nil {
		e = pattern.Shared
	}
	b := &Board{
		width:  clamp(width, MinBoardSize, MaxBoardSize),
		height: clamp(height, MinBoardSize, MaxBoardSize),
		shapes: e,
	}
	b.Reset()
	return b
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

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// IsValidPosition reports whether (x, y) lies on the board.
func (b *Board) IsValidPosition(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// IsEmpty reports whether (x, y) is on the board and unoccupied.
func (b *Board) IsEmpty(x, y int) bool {
	return b.IsValidPosition(x, y) && b.grid[y*b.width+x] == Empty
}

// Cell returns the owner of (x, y). ok is false when the cell is off the
// board or unoccupied.
func (b *Board) Cell(x, y int) (owner int, ok bool) {
	if !b.IsValidPosition(x, y) {
		return 0, false
	}
	v := b.grid[y*b.width+x]
	if v == Empty {
		return 0, false
	}
	return v, true
}

// PlaceFigure claims (x, y) for playerID. It fails without touching the board
// when the cell is off the board, occupied, or playerID is negative.
func (b *Board) PlaceFigure(x, y, playerID int) bool {
	if playerID < 0 || !b.IsEmpty(x, y) {
		return false
	}
	b.grid[y*b.width+x] = playerID
	return true
}

// IsFull reports whether no empty cell remains.
func (b *Board) IsFull() bool {
	for _, v := range b.grid {
		if v == Empty {
			return false
		}
	}
	return true
}

// Reset clears every cell, keeping the dimensions.
func (b *Board) Reset() {
	b.grid = make([]int, b.width*b.height)
	for i := range b.grid {
		b.grid[i] = Empty
	}
}

// Cells returns a copy of the grid as rows of owner ids, Empty for free cells.
func (b *Board) Cells() [][]int {
	rows := make([][]int, b.height)
	for y := range rows {
		rows[y] = append([]int(nil), b.grid[y*b.width:(y+1)*b.width]...)
	}
	return rows
}

// CountInDirection counts consecutive cells owned by playerID starting one
// step from (x, y) along (dx, dy). The start cell itself is not counted.
func (b *Board) CountInDirection(x, y, dx, dy, playerID int) int {
	if dx == 0 && dy == 0 {
		return 0
	}
	n := 0
	cx, cy := x+dx, y+dy
	for b.owns(cx, cy, playerID) {
		n++
		cx += dx
		cy += dy
	}
	return n
}

func (b *Board) owns(x, y, playerID int) bool {
	v, ok := b.Cell(x, y)
	return ok && v == playerID
}

// CheckWinAt reports whether some enabled pattern, in any rotation or
// reflection, is fully covered by playerID's stones and includes (x, y).
// Patterns are tried in order and the first placement found wins; the
// returned cells are the stones of that placement.
func (b *Board) CheckWinAt(x, y, playerID int, patterns []pattern.Pattern) ([]Point, bool) {
	for _, p := range patterns {
		if !p.Enabled || len(p.Cells) == 0 {
			continue
		}
		shape := p.Shape()
		if ln, ok := pattern.DetectLine(shape); ok {
			if cells, ok := b.matchLine(x, y, playerID, ln); ok {
				return cells, true
			}
		}
		// a line that missed is scanned as well; both paths must agree
		for _, variant := range b.shapes.Variants(shape) {
			if cells, ok := b.matchVariant(x, y, playerID, variant); ok {
				return cells, true
			}
		}
	}
	return nil, false
}

// matchLine walks outward from (x, y) along ln and reports the first
// ln.Length cells of the contiguous run through (x, y).
func (b *Board) matchLine(x, y, playerID int, ln pattern.Line) ([]Point, bool) {
	if !b.owns(x, y, playerID) {
		return nil, false
	}
	back := b.CountInDirection(x, y, -ln.DX, -ln.DY, playerID)
	total := 1 + back + b.CountInDirection(x, y, ln.DX, ln.DY, playerID)
	if total < ln.Length {
		return nil, false
	}
	sx, sy := x-back*ln.DX, y-back*ln.DY
	cells := make([]Point, ln.Length)
	for i := range cells {
		cells[i] = Point{X: sx + i*ln.DX, Y: sy + i*ln.DY}
	}
	return cells, true
}

// matchVariant tries every placement of variant that puts one of its cells
// on (x, y).
func (b *Board) matchVariant(x, y, playerID int, variant []Point) ([]Point, bool) {
	for _, off := range variant {
		base := Point{X: x - off.X, Y: y - off.Y}
		if base.X < 0 || base.Y < 0 {
			continue
		}
		cells := make([]Point, 0, len(variant))
		for _, c := range variant {
			at := base.Add(c)
			if !b.owns(at.X, at.Y, playerID) {
				break
			}
			cells = append(cells, at)
		}
		if len(cells) == len(variant) {
			return cells, true
		}
	}
	return nil, false
}
