package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jaminalder/codex-five-in-a-row/internal/app"
	"github.com/jaminalder/codex-five-in-a-row/internal/roster"
	"github.com/jaminalder/codex-five-in-a-row/internal/settings"
)

type options struct {
	log          *zap.Logger
	settings     settings.Settings
	settingsPath string
	roster       *roster.Store
}

// Option configures NewServer.
type Option func(*options)

// WithLogger logs requests and stream lifecycles to log.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSettings sets the defaults offered by the new-game form.
func WithSettings(s settings.Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithSettingsFile makes edits on the settings page persist to path.
func WithSettingsFile(path string) Option {
	return func(o *options) { o.settingsPath = path }
}

// WithRoster serves and edits the named players in store. Without it the
// server keeps an in-memory roster.
func WithRoster(store *roster.Store) Option {
	return func(o *options) {
		if store != nil {
			o.roster = store
		}
	}
}

// NewServer wires routes and returns an http.Handler. It also installs the
// board fragment as the service's broadcast renderer and the roster as the
// recorder of finished rounds.
func NewServer(s *app.Service, opts ...Option) http.Handler {
	o := options{log: zap.NewNop(), settings: settings.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.roster == nil {
		o.roster, _ = roster.Open("")
	}
	h := &handlers{
		svc:          s,
		tpl:          loadTemplates(),
		log:          o.log,
		roster:       o.roster,
		settings:     o.settings,
		settingsPath: o.settingsPath,
	}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })
	s.SetRecorder(o.roster)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(o.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Get("/settings", h.settingsPage)
	r.Post("/settings", h.saveSettings)
	r.Get("/rating", h.rating)
	r.Route("/players", func(r chi.Router) {
		r.Get("/", h.players)
		r.Post("/add", h.addPlayer)
		r.Post("/rename", h.renamePlayer)
		r.Post("/delete", h.deletePlayer)
	})
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/stage", h.stage)
		r.Post("/undo", h.undo)
		r.Post("/clear", h.clear)
		r.Post("/confirm", h.confirm)
		r.Post("/skip", h.skip)
		r.Post("/reset", h.reset)
		r.Get("/state", h.state)
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
