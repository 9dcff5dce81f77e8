package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaminalder/codex-five-in-a-row/internal/domain"
	"github.com/jaminalder/codex-five-in-a-row/internal/pattern"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
	ErrEliminated  = errors.New("player eliminated")
)

// Spectator is the seat returned by Join when every seat is taken.
const Spectator = -1

// Config describes a new game. Zero values fall back to a 20x20 board, two
// players and the default patterns.
type Config struct {
	Width    int
	Height   int
	Players  []domain.Player
	Patterns []pattern.Pattern
	// AutoCheck checks for a win after every confirmed turn. Without it a
	// player must claim the win, and a false claim eliminates them.
	AutoCheck bool
	// HotSeat lets any client act for the current player.
	HotSeat bool
}

// GameState is a copy of one game as tracked by the service.
type GameState struct {
	ID        string          `json:"id"`
	Game      domain.Snapshot `json:"game"`
	Seats     []string        `json:"-"`
	AutoCheck bool            `json:"autoCheck"`
	HotSeat   bool            `json:"hotSeat"`
	Created   time.Time       `json:"created"`
	Updated   time.Time       `json:"updated"`
}

// SeatOf returns the seat held by playerID, or Spectator.
func (gs GameState) SeatOf(playerID string) int { return seatIndex(gs.Seats, playerID) }

func seatIndex(seats []string, playerID string) int {
	for i, s := range seats {
		if s != "" && s == playerID {
			return i
		}
	}
	return Spectator
}

type session struct {
	id        string
	rules     *domain.Rules
	seats     []string
	autoCheck bool
	hotSeat   bool
	recorded  bool
	created   time.Time
	updated   time.Time
}

func (g *session) state() GameState {
	return GameState{
		ID:        g.id,
		Game:      g.rules.Snapshot(),
		Seats:     append([]string(nil), g.seats...),
		AutoCheck: g.autoCheck,
		HotSeat:   g.hotSeat,
		Created:   g.created,
		Updated:   g.updated,
	}
}

func (g *session) seatOf(playerID string) int { return seatIndex(g.seats, playerID) }

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Recorder receives the result of every finished round: the names of all
// players and the winner's name, empty after a draw.
type Recorder interface {
	Record(players []string, winner string) error
}

// Service manages games and subscribers.
type Service struct {
	mu       sync.Mutex
	games    map[string]*session
	subs     map[string]map[*subscriber]struct{}
	render   func(GameState) []byte
	log      *zap.Logger
	shapes   *pattern.Expander
	recorder Recorder
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService() *Service { return NewServiceWithRenderer(func(gs GameState) []byte { return nil }) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	return &Service{
		games:  make(map[string]*session),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
		log:    zap.NewNop(),
		shapes: pattern.NewExpander(),
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// SetLogger replaces the logger; nil disables logging.
func (s *Service) SetLogger(log *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// SetRecorder sets where finished rounds are reported; nil stops reporting.
func (s *Service) SetRecorder(rec Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = rec
}

// recordLocked reports a finished round once.
func (s *Service) recordLocked(g *session) {
	r := g.rules
	if !r.GameOver() || g.recorded {
		return
	}
	g.recorded = true
	if s.recorder == nil {
		return
	}
	names := make([]string, 0, len(r.Players()))
	for _, p := range r.Players() {
		names = append(names, p.Name)
	}
	var winner string
	if w, ok := r.Winner(); ok {
		winner = w.Name
	}
	if err := s.recorder.Record(names, winner); err != nil {
		s.log.Warn("record result", zap.String("game_id", g.id), zap.Error(err))
	}
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame(cfg Config) (*GameState, error) {
	if cfg.Width == 0 {
		cfg.Width = 20
	}
	if cfg.Height == 0 {
		cfg.Height = 20
	}
	if len(cfg.Players) == 0 {
		cfg.Players = domain.DefaultPlayers(2)
	}
	if cfg.Patterns == nil {
		cfg.Patterns = pattern.Defaults()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	board := domain.NewBoardWithExpander(cfg.Width, cfg.Height, s.shapes)
	now := time.Now()
	g := &session{
		id:        uuid.NewString(),
		rules:     domain.NewRules(board, cfg.Players, pattern.Clone(cfg.Patterns)),
		seats:     make([]string, len(cfg.Players)),
		autoCheck: cfg.AutoCheck,
		hotSeat:   cfg.HotSeat,
		created:   now,
		updated:   now,
	}
	s.games[g.id] = g
	s.log.Info("game created",
		zap.String("game_id", g.id),
		zap.Int("width", board.Width()),
		zap.Int("height", board.Height()),
		zap.Int("players", len(cfg.Players)),
		zap.Int("patterns", len(cfg.Patterns)),
		zap.Bool("auto_check", cfg.AutoCheck),
	)
	st := g.state()
	return &st, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, false
	}
	st := g.state()
	return &st, true
}

// Join gives playerID the first free seat, or the seat it already holds.
// When every seat is taken the player watches and Spectator is returned.
func (s *Service) Join(id, playerID string) (int, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return Spectator, nil, ErrNotFound
	}
	seat := g.seatOf(playerID)
	if seat == Spectator && playerID != "" {
		for i, holder := range g.seats {
			if holder == "" {
				g.seats[i] = playerID
				seat = i
				g.updated = time.Now()
				s.log.Debug("seat claimed", zap.String("game_id", id), zap.Int("seat", i))
				break
			}
		}
	}
	st := g.state()
	return seat, &st, nil
}

// Stage selects (x, y) for the current player's turn.
func (s *Service) Stage(id, playerID string, x, y int) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		return g.rules.AddPendingMove(x, y)
	})
}

// StageLabel is Stage with a coordinate label such as "C7".
func (s *Service) StageLabel(id, playerID, label string) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		p, ok := g.rules.ParseCoordinate(label)
		if !ok {
			return domain.ErrInvalidCoordinates
		}
		return g.rules.AddPendingMove(p.X, p.Y)
	})
}

// Unstage drops the most recently staged cell, if any.
func (s *Service) Unstage(id, playerID string) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		g.rules.RemoveLastPendingMove()
		return nil
	})
}

// ClearStaged drops every staged cell.
func (s *Service) ClearStaged(id, playerID string) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		g.rules.ClearPendingMoves()
		return nil
	})
}

// Confirm commits the staged cells. With claim set, or when the game checks
// automatically, the mover is checked for a win; a claim that does not hold
// eliminates the mover. A game still running then passes to the next player.
func (s *Service) Confirm(id, playerID string, claim bool) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		r := g.rules
		mover, _ := r.CurrentPlayer()
		staged := len(r.PendingMoves())
		if err := r.ConfirmTurn(); err != nil {
			return err
		}
		log := s.log.With(zap.String("game_id", g.id), zap.Int("player", mover.ID))
		log.Debug("turn confirmed", zap.Int("stones", staged), zap.Bool("claim", claim))

		if claim || g.autoCheck {
			won, err := r.CheckWinner()
			if err != nil {
				return err
			}
			if won {
				log.Info("game won", zap.Int("cells", len(r.WinningCells())))
				s.recordLocked(g)
				return nil
			}
			if claim {
				r.EliminateLastPlayer()
				log.Info("false claim, player eliminated", zap.Ints("eliminated", r.Eliminated()))
				if r.IsDraw() {
					log.Info("all players eliminated, draw")
					s.recordLocked(g)
					return nil
				}
			}
		}
		if r.Board().IsFull() {
			log.Info("board full")
		}
		if err := r.AdvanceTurn(); err != nil {
			log.Warn("no player left to move", zap.Error(err))
		}
		return nil
	})
}

// Skip passes the turn without placing stones. The turn never lands on an
// eliminated player.
func (s *Service) Skip(id, playerID string) (*GameState, error) {
	return s.mutate(id, playerID, true, func(g *session) error {
		r := g.rules
		if err := r.SkipTurn(); err != nil {
			return err
		}
		if !r.IsPlayerActive(r.CurrentPlayerIndex()) {
			return r.AdvanceTurn()
		}
		return nil
	})
}

// Reset starts the game over with the same seats, players and patterns.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
	return s.mutate(id, playerID, false, func(g *session) error {
		g.rules.Reset()
		g.recorded = false
		s.log.Info("game reset", zap.String("game_id", g.id))
		return nil
	})
}

// mutate runs fn on the game under the lock after checking that playerID
// holds a seat (and, with turn set, the current one), then broadcasts.
func (s *Service) mutate(id, playerID string, turn bool, fn func(*session) error) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !g.hotSeat {
		seat := g.seatOf(playerID)
		if seat == Spectator {
			return nil, ErrNotAPlayer
		}
		if turn && seat != g.rules.CurrentPlayerIndex() {
			return nil, ErrNotYourTurn
		}
	}
	if turn && !g.rules.GameOver() && !g.rules.IsPlayerActive(g.rules.CurrentPlayerIndex()) {
		return nil, ErrEliminated
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	g.updated = time.Now()
	st := g.state()
	s.broadcastLocked(id, s.render(st))
	return &st, nil
}

// broadcastLocked hands payload to every subscriber of id without blocking.
// Subscribers whose buffer is still full are closed and dropped.
func (s *Service) broadcastLocked(id string, payload []byte) {
	set := s.subs[id]
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug("dropped slow subscribers", zap.String("game_id", id), zap.Int("count", dropped))
	}
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed at once when the game does not exist.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{ch: make(chan []byte, 1)}
	if _, ok := s.games[id]; !ok {
		sub.close()
		return sub.ch, func() {}
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}
