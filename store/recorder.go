package store

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/brensch/termsnake/engine"
	"github.com/brensch/termsnake/game"
)

// Recorder is an engine.Observer that buffers one TickRow per tick and writes
// them as a single trace file on Close.
type Recorder struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	rows   []TickRow
	closed bool
}

func NewRecorder(dir string, logger *slog.Logger) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("trace dir is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{dir: dir, logger: logger}, nil
}

// Snapshot records a state outside the tick stream, normally the opening
// position before the first step.
func (r *Recorder) Snapshot(session string, state *game.GameState) {
	r.append(NewTickRow(session, state))
}

func (r *Recorder) OnTick(ev engine.TickEvent) {
	row := NewTickRow(ev.Session, ev.State)
	row.Intent = int32(ev.Outcome.Intent)
	row.Accepted = ev.Outcome.Accepted
	row.Dropped = int32(ev.Dropped)
	r.append(row)
}

func (r *Recorder) append(row TickRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	row.Seq = int32(len(r.rows))
	r.rows = append(r.rows, row)
}

// Close writes the trace. Nothing is written for an empty recording. The
// returned path is empty in that case.
func (r *Recorder) Close() (string, error) {
	r.mu.Lock()
	rows := r.rows
	r.rows = nil
	r.closed = true
	r.mu.Unlock()

	if len(rows) == 0 {
		return "", nil
	}
	path, err := WriteTrace(r.dir, rows)
	if err != nil {
		return "", err
	}
	r.logger.Info("trace written", "path", path, "rows", len(rows))
	return path, nil
}
