package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"
)

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template

	settings *template.Template
	rating   *template.Template
	players  *template.Template
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Five in a Row</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.grid{border-collapse:collapse}
.grid td,.grid th{width:1.6em;height:1.6em;padding:0;text-align:center}
.grid td{border:1px solid #999}
.grid button{width:100%;height:100%;border:0;background:none;font-weight:bold;cursor:pointer}
.pending{background:#ffe9a8}
.winning{background:#b8f0b8}
.eliminated{text-decoration:line-through}
.current{font-weight:bold}
.alert{color:#b00}
</style>
</head><body>{{template "content" .}}</body></html>`))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Five in a Row</h1>
<p id="seat">{{.Seat}}</p>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board-host" sse-swap="board" hx-swap="innerHTML">{{.BoardHTML}}</div>
</div>`))
	board := template.Must(template.New("board_only").Parse(boardTemplate))
	page := func(body string) *template.Template {
		return template.Must(template.Must(base.Clone()).New("content").Parse(body))
	}
	return &templates{
		game:     game,
		board:    board,
		index:    index,
		settings: page(settingsTemplate),
		rating:   page(ratingTemplate),
		players:  page(playersTemplate),
	}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const nav = `<nav><a href="/">New game</a> | <a href="/settings">Settings</a> | <a href="/players">Players</a> | <a href="/rating">Rating</a></nav>`

const indexTemplate = `<h1>Five in a Row</h1>
` + nav + `
<form action="/game" method="post">
  <label>Width <input type="number" name="width" min="{{.MinSize}}" max="{{.MaxSize}}" value="{{.Width}}"></label>
  <label>Height <input type="number" name="height" min="{{.MinSize}}" max="{{.MaxSize}}" value="{{.Height}}"></label>
  <label>Players <input type="number" name="players" min="{{.MinPlayers}}" max="{{.MaxPlayers}}" value="{{.Players}}"></label>
  <label><input type="checkbox" name="autocheck" value="on"> Check wins automatically</label>
  <label><input type="checkbox" name="hotseat" value="on"> Hot seat</label>
  <label>Win patterns <textarea name="patterns" rows="4" cols="60">{{.Patterns}}</textarea></label>
  <button>Create</button>
</form>`

const boardTemplate = `<div id="board">
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  <p class="status">{{.Status}}</p>
  <ul class="players">
    {{range .Players}}<li class="{{if .Current}}current{{end}}{{if .Eliminated}} eliminated{{end}}" style="color:{{.Color}}">{{.Figure}} {{.Name}}{{if .Winner}} (winner){{end}}</li>{{end}}
  </ul>
  {{if not .Hidden}}
  <table class="grid">
    <tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
    {{range .Rows}}
    <tr><th>{{.Label}}</th>
      {{range .Cells}}<td class="{{if .Pending}}pending{{end}}{{if .Winning}} winning{{end}}" title="{{.Label}}">
        {{- if and $.Running (not .Figure)}}<button hx-post="/game/{{$.ID}}/stage" hx-vals='{"x":"{{.X}}","y":"{{.Y}}"}' hx-target="#board" hx-swap="outerHTML"></button>
        {{- else}}<span style="color:{{.Color}}">{{.Figure}}</span>{{end -}}
      </td>{{end}}
    </tr>
    {{end}}
  </table>
  {{end}}
  <div class="actions">
    {{if .Running}}
    <form hx-post="/game/{{.ID}}/stage" hx-target="#board" hx-swap="outerHTML" method="post">
      <input name="cell" placeholder="e.g. C7" size="5"><button>Select</button>
    </form>
    <span>{{.Staged}} selected, {{.Remaining}} left</span>
    <button hx-post="/game/{{.ID}}/undo" hx-target="#board" hx-swap="outerHTML">Undo</button>
    <button hx-post="/game/{{.ID}}/clear" hx-target="#board" hx-swap="outerHTML">Clear</button>
    <button hx-post="/game/{{.ID}}/confirm" hx-target="#board" hx-swap="outerHTML">Confirm</button>
    {{if not .AutoCheck}}<button hx-post="/game/{{.ID}}/confirm" hx-vals='{"claim":"on"}' hx-target="#board" hx-swap="outerHTML">Confirm and claim win</button>{{end}}
    <button hx-post="/game/{{.ID}}/skip" hx-target="#board" hx-swap="outerHTML">Skip</button>
    {{end}}
    <button hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML">New round</button>
  </div>
</div>
`

const settingsTemplate = `<h1>Settings</h1>
` + nav + `
{{if .Saved}}<p class="saved">Settings saved</p>{{end}}
{{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
<form action="/settings" method="post">
  <label>Width <input type="number" name="width" min="{{.MinSize}}" max="{{.MaxSize}}" value="{{.Width}}"></label>
  <label>Height <input type="number" name="height" min="{{.MinSize}}" max="{{.MaxSize}}" value="{{.Height}}"></label>
  <label>Players <input type="number" name="player_count" min="0" max="{{.MaxPlayers}}" value="{{.PlayerCount}}"></label>
  <label><input type="checkbox" name="hide_board_on_win" value="on"{{if .HideBoardOnWin}} checked{{end}}> Hide the board when the round ends</label>
  <datalist id="roster">{{range .Names}}<option value="{{.}}">{{end}}</datalist>
  <table class="seats">
    <tr><th>Seat</th><th>Name</th><th>Figure</th><th>Color</th></tr>
    {{range $seat := .Seats}}
    <tr><td>{{$seat.Index}}</td>
      <td><input name="name_{{$seat.Index}}" list="roster" value="{{$seat.Name}}"></td>
      <td><select name="figure_{{$seat.Index}}">{{range $.Figures}}<option{{if eq . $seat.Figure}} selected{{end}}>{{.}}</option>{{end}}</select></td>
      <td><input type="color" name="color_{{$seat.Index}}" value="{{$seat.Color}}"></td>
    </tr>
    {{end}}
  </table>
  <label>Win patterns <textarea name="patterns" rows="12" cols="60">{{.Patterns}}</textarea></label>
  <button>Save</button>
</form>`

const ratingTemplate = `<h1>Rating</h1>
` + nav + `
<table class="rating">
  <tr><th>#</th><th>Name</th><th>Games</th><th>Wins</th></tr>
  {{range .Rows}}<tr><td>{{.Rank}}</td><td>{{.Name}}</td><td>{{.GamesPlayed}}</td><td>{{.Wins}}</td></tr>
  {{else}}<tr><td colspan="4">No players yet</td></tr>{{end}}
</table>`

const playersTemplate = `<h1>Players</h1>
` + nav + `
{{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
<form action="/players/add" method="post">
  <input name="name" placeholder="Name"><button>Add</button>
</form>
<ul class="roster">
  {{range .Names}}<li>{{.}}
    <form action="/players/rename" method="post" style="display:inline">
      <input type="hidden" name="name" value="{{.}}"><input name="new_name" placeholder="New name"><button>Rename</button>
    </form>
    <form action="/players/delete" method="post" style="display:inline">
      <input type="hidden" name="name" value="{{.}}"><button>Delete</button>
    </form>
  </li>{{end}}
</ul>`

// ensurePlayerCookie returns the caller's player id, issuing one if needed.
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}
