package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, 20, s.Width)
	assert.Equal(t, 20, s.Height)
	assert.Zero(t, s.PlayerCount)
	assert.Len(t, s.Players, domain.MaxPlayers)
	assert.Equal(t, pattern.Defaults(), s.Patterns)
}

func TestClamp(t *testing.T) {
	s := Settings{Width: 2, Height: 80, PlayerCount: 42, Players: []PlayerSettings{{Name: "Ann"}}}
	s.Clamp()
	assert.Equal(t, domain.MinBoardSize, s.Width)
	assert.Equal(t, domain.MaxBoardSize, s.Height)
	assert.Equal(t, domain.MaxPlayers, s.PlayerCount)
	require.Len(t, s.Players, domain.MaxPlayers)
	assert.Equal(t, "Ann", s.Players[0].Name)
	assert.Equal(t, domain.AvailableFigures[0], s.Players[0].Figure)
	assert.Equal(t, domain.AvailableColors[4], s.Players[4].Color)
	assert.Equal(t, domain.AvailableColors[0], s.Players[0].Color)
}

func TestLoadFillsMissingRosterLook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	body := "players:\n  - name: Ann\n  - name: Ben\n    color: '#123456'\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, PlayerSettings{Name: "Ann", Figure: "X", Color: domain.AvailableColors[0]}, s.Players[0])
	assert.Equal(t, domain.Color{R: 0x12, G: 0x34, B: 0x56}, s.Players[1].Color)

	ps := Settings{Players: []PlayerSettings{{Name: "Cy"}}}.Roster(2)
	assert.Equal(t, domain.AvailableColors[0], ps[0].Color)
}

func TestRoster(t *testing.T) {
	s := Default()
	s.Players[1].Name = "Bob"
	s.Players[1].Figure = "@"

	ps := s.Roster(0)
	require.Len(t, ps, MinPlayers, "zero players is raised to the minimum")
	assert.Equal(t, "Player 1", ps[0].Name)
	assert.Equal(t, "Bob", ps[1].Name)
	assert.Equal(t, "@", ps[1].Figure)
	assert.Equal(t, 1, ps[1].ID)

	s.PlayerCount = 4
	assert.Len(t, s.Roster(0), 4)
	assert.Len(t, s.Roster(99), domain.MaxPlayers)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"settings.yaml", "settings.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			s := Default()
			s.Width, s.Height, s.PlayerCount = 15, 12, 3
			s.HideBoardOnWin = true
			s.Players[2].Name = "Cleo"
			s.Patterns = append(s.Patterns, pattern.Pattern{
				Name: "Corner", Enabled: false, Cells: []pattern.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			})
			require.NoError(t, Save(path, s))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestLoadKeepsDefaultsAndSanitizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yml")
	body := "width: 3\nwin_patterns:\n  - name: bent\n    cells: [[0, 0], [1, 0], [1], [x, 1], [1, 1]]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.MinBoardSize, s.Width)
	assert.Equal(t, 20, s.Height)
	require.Len(t, s.Patterns, 1)
	assert.True(t, s.Patterns[0].Enabled)
	assert.Equal(t, []pattern.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, s.Patterns[0].Cells)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.yaml")
	s, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, Default(), s)
	assert.FileExists(t, path)

	s, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, Default(), s)
}
