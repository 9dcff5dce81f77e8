// Package roster keeps the named players known to the server together with
// their game statistics, persisted as a YAML or JSON file.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Errors returned by roster edits. Their text is fit to show to a user.
var (
	ErrEmptyName     = errors.New("enter a player name")
	ErrNameTaken     = errors.New("a player with that name already exists")
	ErrUnknownPlayer = errors.New("player not found")
)

// Entry is one named player. Names are unique ignoring case.
type Entry struct {
	Name        string `json:"name" yaml:"name"`
	GamesPlayed int    `json:"games_played" yaml:"games_played"`
	Wins        int    `json:"wins" yaml:"wins"`
}

type file struct {
	Players []Entry `json:"players" yaml:"players"`
}

// Store is a roster safe for concurrent use. Every change is written to
// its file at once; a Store without a path lives in memory only.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// NormalizeName trims the name and collapses inner runs of whitespace.
func NormalizeName(name string) string { return strings.Join(strings.Fields(name), " ") }

// Open loads the roster at path. A missing file yields an empty roster that
// is created on the first change.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var f file
	if isYAML(path) {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	for _, e := range f.Players {
		e.Name = NormalizeName(e.Name)
		if e.Name == "" || s.find(e.Name) >= 0 {
			continue
		}
		s.entries = append(s.entries, e)
	}
	return s, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (s *Store) find(name string) int {
	for i, e := range s.entries {
		if strings.EqualFold(e.Name, name) {
			return i
		}
	}
	return -1
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	f := file{Players: s.entries}
	var (
		data []byte
		err  error
	)
	if isYAML(s.path) {
		data, err = yaml.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create roster dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write roster %s: %w", s.path, err)
	}
	return nil
}

// Names lists the players alphabetically, ignoring case.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// Exists reports whether name is on the roster.
func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(NormalizeName(name)) >= 0
}

// Add registers a new player with no games.
func (s *Store) Add(name string) error {
	name = NormalizeName(name)
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(name) >= 0 {
		return ErrNameTaken
	}
	s.entries = append(s.entries, Entry{Name: name})
	return s.saveLocked()
}

// Delete removes a player and their statistics.
func (s *Store) Delete(name string) error {
	name = NormalizeName(name)
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(name)
	if i < 0 {
		return ErrUnknownPlayer
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.saveLocked()
}

// Rename changes a player's name and keeps their statistics. Changing only
// the case of a name is allowed.
func (s *Store) Rename(oldName, newName string) error {
	oldName, newName = NormalizeName(oldName), NormalizeName(newName)
	if oldName == "" || newName == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(oldName)
	if i < 0 {
		return ErrUnknownPlayer
	}
	if j := s.find(newName); j >= 0 && j != i {
		return ErrNameTaken
	}
	s.entries[i].Name = newName
	return s.saveLocked()
}

// Stats returns every player ordered by wins, then games played, then name.
func (s *Store) Stats() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Entry(nil), s.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed > b.GamesPlayed
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}

// Record counts one finished game for every listed player and a win for
// winner, which is empty after a draw. Names not on the roster are ignored.
func (s *Store) Record(players []string, winner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, name := range players {
		if i := s.find(NormalizeName(name)); i >= 0 {
			s.entries[i].GamesPlayed++
			changed = true
		}
	}
	if winner = NormalizeName(winner); winner != "" {
		if i := s.find(winner); i >= 0 {
			s.entries[i].Wins++
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked()
}
