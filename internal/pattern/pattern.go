package pattern

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is a named win shape. Cells are offsets relative to any origin;
// they are normalized when the pattern is matched. A pattern without cells
// never matches.
type Pattern struct {
	Name    string  `json:"name" yaml:"name"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Cells   []Point `json:"cells" yaml:"cells"`
}

// Shape returns the canonical form of the pattern's cells.
func (p Pattern) Shape() []Point { return Normalize(p.Cells) }

// Defaults returns the stock patterns: five in a row horizontally and five on
// a diagonal. Rotations and reflections cover the remaining directions.
func Defaults() []Pattern {
	return []Pattern{
		{Name: "Line 5", Enabled: true, Cells: []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
		{Name: "Diagonal 5", Enabled: true, Cells: []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}},
	}
}

// Clone returns a deep copy of ps.
func Clone(ps []Pattern) []Pattern {
	if ps == nil {
		return nil
	}
	out := make([]Pattern, len(ps))
	for i, p := range ps {
		out[i] = p
		out[i].Cells = append([]Point(nil), p.Cells...)
	}
	return out
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a point from [x, y].
func (p *Point) UnmarshalJSON(b []byte) error {
	var v [2]int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// MarshalYAML encodes the point as a flow sequence [x, y].
func (p Point) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	n.Content = []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(p.X)},
		{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(p.Y)},
	}
	return n, nil
}

type rawPattern struct {
	Name    string        `json:"name" yaml:"name"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	Cells   []interface{} `json:"cells" yaml:"cells"`
}

func (r rawPattern) pattern() Pattern {
	p := Pattern{Name: r.Name, Enabled: true, Cells: SanitizeCells(r.Cells)}
	if r.Enabled != nil {
		p.Enabled = *r.Enabled
	}
	return p
}

// UnmarshalJSON decodes a pattern, dropping malformed cells instead of
// failing. A missing "enabled" field means enabled.
func (p *Pattern) UnmarshalJSON(b []byte) error {
	var r rawPattern
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return err
	}
	*p = r.pattern()
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var r rawPattern
	if err := value.Decode(&r); err != nil {
		return err
	}
	*p = r.pattern()
	return nil
}

// SanitizeCells converts loosely typed cell data into points. Every entry
// must be a two-element list of integer-convertible values; anything else
// is skipped, as are repeated cells.
func SanitizeCells(raw []interface{}) []Point {
	out := make([]Point, 0, len(raw))
	seen := make(map[Point]struct{}, len(raw))
	for _, entry := range raw {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) != 2 {
			continue
		}
		x, okX := toInt(pair[0])
		y, okY := toInt(pair[1])
		if !okX || !okY {
			continue
		}
		pt := Point{X: x, Y: y}
		if _, dup := seen[pt]; dup {
			continue
		}
		seen[pt] = struct{}{}
		out = append(out, pt)
	}
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return int64ToInt(int64(n))
	case int64:
		return int64ToInt(n)
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int64ToInt(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return int64ToInt(i)
	}
	return 0, false
}

// int64ToInt accepts only values in int32 range, so offsets can be
// subtracted without overflow.
func int64ToInt(i int64) (int, bool) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, false
	}
	return int(i), true
}

// floatToInt accepts only whole numbers in int32 range.
func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
