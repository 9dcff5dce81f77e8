package pattern

import "sync"

// Expander enumerates the distinct orientations of a shape under the eight
// symmetries of the square and memoizes the result per canonical shape.
// Entries are never evicted. An Expander is safe for concurrent use.
type Expander struct {
	mu    sync.RWMutex
	cache map[string][][]Point
}

// NewExpander returns an Expander with an empty cache.
func NewExpander() *Expander {
	return &Expander{cache: make(map[string][][]Point)}
}

// Shared is the process-wide expander used by boards that are not given one.
var Shared = NewExpander()

// Variants returns the deduplicated orientations of shape: the four rotations
// of the shape followed by the four rotations of its mirror image, each
// normalized, in first-seen order. The first element is always the
// normalized shape itself.
//
// The returned slices are shared with the cache and must not be modified.
func (e *Expander) Variants(shape []Point) [][]Point {
	canon := Normalize(shape)
	key := Key(canon)

	e.mu.RLock()
	v, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return v
	}

	v = expand(canon)

	e.mu.Lock()
	defer e.mu.Unlock()
	// another goroutine may have filled the entry meanwhile; keep the first
	if prev, ok := e.cache[key]; ok {
		return prev
	}
	e.cache[key] = v
	return v
}

// Len reports how many shapes have been expanded and cached.
func (e *Expander) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func expand(canon []Point) [][]Point {
	seen := make(map[string]struct{}, 8)
	var out [][]Point
	collect := func(start []Point) {
		cur := start
		for i := 0; i < 4; i++ {
			n := Normalize(cur)
			k := Key(n)
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				out = append(out, n)
			}
			cur = rotate(cur)
		}
	}
	collect(canon)
	collect(reflect(canon))
	return out
}
