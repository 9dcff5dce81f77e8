package pattern

// Line describes a straight run of Length consecutive cells along (DX, DY).
type Line struct {
	DX     int
	DY     int
	Length int
}

// Directions are the four line directions a run can follow.
var Directions = [4]Point{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// DetectLine reports whether a normalized shape is a horizontal, vertical,
// diagonal or anti-diagonal run of consecutive cells. Shapes with fewer than
// two cells are never lines.
func DetectLine(shape []Point) (Line, bool) {
	if len(shape) < 2 {
		return Line{}, false
	}
	for _, d := range Directions {
		if isRun(shape, d) {
			return Line{DX: d.X, DY: d.Y, Length: len(shape)}, true
		}
	}
	return Line{}, false
}

// isRun checks that consecutive cells (sorted by x, then y) differ by exactly
// one step of d. Vertical runs share x, so they are ordered by y.
func isRun(shape []Point, d Point) bool {
	for i := 1; i < len(shape); i++ {
		prev, cur := shape[i-1], shape[i]
		if cur.X-prev.X != d.X || cur.Y-prev.Y != d.Y {
			return false
		}
	}
	return true
}
