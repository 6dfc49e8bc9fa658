// Package viewer serves recorded game traces over a small JSON API, next to
// the live spectator feed.
package viewer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/render"
	"github.com/brensch/termsnake/store"
)

type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// TraceSummary describes one trace file.
type TraceSummary struct {
	Name    string `json:"name"`
	Session string `json:"session"`
	Width   int32  `json:"width"`
	Height  int32  `json:"height"`
	Turns   int32  `json:"turns"`
	Score   int32  `json:"score"`
	Dead    bool   `json:"dead"`
	Won     bool   `json:"won"`
}

type TracesResponse struct {
	Total  int            `json:"total"`
	Traces []TraceSummary `json:"traces"`
}

// Turn is one row of a trace, with the text frame a terminal would show.
// Seq identifies the row; the death row shares its Turn with the row before.
type Turn struct {
	Seq       int32   `json:"seq"`
	Turn      int32   `json:"turn"`
	Direction string  `json:"direction"`
	Intent    string  `json:"intent,omitempty"`
	Accepted  bool    `json:"accepted"`
	Dropped   int32   `json:"dropped,omitempty"`
	Body      []Point `json:"body"`
	Food      Point   `json:"food"`
	Eating    bool    `json:"eating"`
	Dead      bool    `json:"dead"`
	Won       bool    `json:"won"`
	Score     int32   `json:"score"`
	Frame     string  `json:"frame"`
}

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Server holds shared state for HTTP handlers.
type Server struct {
	dir    string
	logger *slog.Logger
}

func NewServer(dir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{dir: dir, logger: logger}
}

// RegisterRoutes sets up all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/traces", s.handleTraces)
	mux.HandleFunc("/api/traces/", s.handleTraceTurns)
}

func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	paths, err := store.ListTraces(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	total := len(paths)
	limit := parseIntQuery(r, "limit", defaultPageSize, maxPageSize)
	offset := parseIntQuery(r, "offset", 0, total)
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	page := paths[offset:end]

	traces := make([]TraceSummary, 0, len(page))
	for _, p := range page {
		summary, err := summarize(p)
		if err != nil {
			// One unreadable file should not hide the others.
			s.logger.Warn("skipping trace", "path", p, "err", err)
			continue
		}
		traces = append(traces, summary)
	}
	writeJSON(w, TracesResponse{Total: total, Traces: traces})
}

func (s *Server) handleTraceTurns(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// /api/traces/{name}/turns
	rest := strings.TrimPrefix(r.URL.Path, "/api/traces/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "turns" {
		http.NotFound(w, r)
		return
	}
	name, err := url.PathUnescape(parts[0])
	if err != nil || name != filepath.Base(name) || !strings.HasSuffix(name, ".parquet") {
		http.Error(w, "bad trace name", http.StatusBadRequest)
		return
	}

	rows, err := store.ReadTrace(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTurn(row)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		turns = append(turns, t)
	}
	writeJSON(w, turns)
}

func summarize(path string) (TraceSummary, error) {
	rows, err := store.ReadTrace(path)
	if err != nil {
		return TraceSummary{}, err
	}
	if len(rows) == 0 {
		return TraceSummary{}, fmt.Errorf("no rows")
	}
	last := rows[len(rows)-1]
	return TraceSummary{
		Name:    filepath.Base(path),
		Session: last.Session,
		Width:   last.Width,
		Height:  last.Height,
		Turns:   last.Turn,
		Score:   last.Score,
		Dead:    last.Dead,
		Won:     last.Won,
	}, nil
}

func rowToTurn(row store.TickRow) (Turn, error) {
	state, err := store.RowState(row)
	if err != nil {
		return Turn{}, err
	}
	t := Turn{
		Seq:       row.Seq,
		Turn:      row.Turn,
		Direction: state.Direction.String(),
		Accepted:  row.Accepted,
		Dropped:   row.Dropped,
		Body:      zipPoints(row.BodyX, row.BodyY),
		Food:      Point{X: row.FoodX, Y: row.FoodY},
		Eating:    row.Eating,
		Dead:      row.Dead,
		Won:       row.Won,
		Score:     row.Score,
		Frame:     render.Text(render.NewFrame(state)),
	}
	if d := game.Direction(row.Intent); d != game.None {
		t.Intent = d.String()
	}
	return t, nil
}
