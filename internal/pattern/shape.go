package pattern

import (
	"sort"
	"strconv"
	"strings"
)

// Point is a grid coordinate or a pattern offset. X is the column, Y the row.
// It encodes as a two-element array, [x, y].
type Point struct {
	X int
	Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Normalize translates cells so the minimum x and y are zero and returns
// them sorted by (x, y). The input is not modified.
func Normalize(cells []Point) []Point {
	if len(cells) == 0 {
		return []Point{}
	}
	minX, minY := cells[0].X, cells[0].Y
	for _, c := range cells[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
	}
	out := make([]Point, len(cells))
	for i, c := range cells {
		out[i] = Point{X: c.X - minX, Y: c.Y - minY}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Equal reports whether two shapes hold the same cells in the same order.
func Equal(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Key encodes a shape as a compact string, e.g. "0,0;1,0;2,0".
func Key(shape []Point) string {
	var sb strings.Builder
	for i, c := range shape {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(c.X))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(c.Y))
	}
	return sb.String()
}

func rotate(cells []Point) []Point {
	out := make([]Point, len(cells))
	for i, c := range cells {
		out[i] = Point{X: -c.Y, Y: c.X}
	}
	return out
}

func reflect(cells []Point) []Point {
	out := make([]Point, len(cells))
	for i, c := range cells {
		out[i] = Point{X: -c.X, Y: c.Y}
	}
	return out
}
