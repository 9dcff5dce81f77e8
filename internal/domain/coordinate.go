package domain

import (
	"strconv"
	"strings"
)

// maxColumnLetters bounds the letter prefix; four letters already exceed any
// board width.
const maxColumnLetters = 4

// ParseCoordinate reads a spreadsheet-style label: a column in base-26
// letters (A=1 ... Z=26, AA=27) followed by a 1-based row number, e.g. "C7".
// Letters must come first and case is ignored. The result is 0-based and
// only returned when it lies on b.
func ParseCoordinate(text string, b *Board) (Point, bool) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if len(s) < 2 {
		return Point{}, false
	}
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	letters, digits := s[:i], s[i:]
	if letters == "" || digits == "" || len(letters) > maxColumnLetters {
		return Point{}, false
	}
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return Point{}, false
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return Point{}, false
	}
	col := 0
	for j := 0; j < len(letters); j++ {
		col = col*26 + int(letters[j]-'A'+1)
	}
	p := Point{X: col - 1, Y: row - 1}
	if !b.IsValidPosition(p.X, p.Y) {
		return Point{}, false
	}
	return p, true
}

// FormatCoordinate is the inverse of ParseCoordinate: (26, 4) becomes "AA5".
func FormatCoordinate(p Point) string {
	if p.X < 0 || p.Y < 0 {
		return ""
	}
	var col []byte
	for n := p.X + 1; n > 0; n = (n - 1) / 26 {
		col = append([]byte{byte('A' + (n-1)%26)}, col...)
	}
	return string(col) + strconv.Itoa(p.Y+1)
}
