// Package store persists per-tick game traces as Parquet files.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/termsnake/game"
)

// TraceSchema is stored under the "schema" key of every trace file.
const TraceSchema = "tick_trace_v2"

// ErrSchema is returned when a file is not a tick trace.
var ErrSchema = errors.New("unexpected trace schema")

// TickRow is a single snapshot taken after a step.
//
// Turn counts moves, and a fatal step does not move the snake, so the death
// row repeats the turn of the row before it. Seq is unique within a trace.
//
// The body is stored head first as parallel coordinate columns, which
// compresses far better than a nested list of points.
type TickRow struct {
	Session string `parquet:"session,dict"`
	// Seq is the row's position in the recording, starting at 0.
	Seq    int32 `parquet:"seq"`
	Turn   int32 `parquet:"turn"`
	Width  int32 `parquet:"width"`
	Height int32 `parquet:"height"`
	// InitialLength is kept so the score can be recomputed on replay.
	InitialLength int32 `parquet:"initial_length"`

	Direction int32 `parquet:"direction"`
	// Intent is the direction popped this tick, 0 when the queue was empty.
	Intent   int32 `parquet:"intent"`
	Accepted bool  `parquet:"accepted"`
	Dropped  int32 `parquet:"dropped"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`
	FoodX int32   `parquet:"food_x"`
	FoodY int32   `parquet:"food_y"`

	Eating bool  `parquet:"eating"`
	Dead   bool  `parquet:"dead"`
	Won    bool  `parquet:"won"`
	Score  int32 `parquet:"score"`
}

// NewTickRow flattens a state into a row.
func NewTickRow(session string, state *game.GameState) TickRow {
	row := TickRow{
		Session:       session,
		Turn:          int32(state.Turn),
		Width:         int32(state.Width),
		Height:        int32(state.Height),
		InitialLength: int32(state.InitialLength),
		Direction:     int32(state.Direction),
		BodyX:         make([]int32, len(state.Snake)),
		BodyY:         make([]int32, len(state.Snake)),
		FoodX:         int32(state.Food.X),
		FoodY:         int32(state.Food.Y),
		Eating:        state.Eating,
		Dead:          state.Dead,
		Won:           state.Won,
		Score:         int32(state.Score()),
	}
	for i, p := range state.Snake {
		row.BodyX[i] = int32(p.X)
		row.BodyY[i] = int32(p.Y)
	}
	return row
}

// RowState rebuilds the game state a row was taken from.
func RowState(row TickRow) (*game.GameState, error) {
	if len(row.BodyX) != len(row.BodyY) {
		return nil, fmt.Errorf("turn %d: body columns differ in length (%d vs %d)", row.Turn, len(row.BodyX), len(row.BodyY))
	}
	if len(row.BodyX) == 0 {
		return nil, fmt.Errorf("turn %d: empty body", row.Turn)
	}
	state := &game.GameState{
		Width:         int(row.Width),
		Height:        int(row.Height),
		InitialLength: int(row.InitialLength),
		Snake:         make([]game.Point, len(row.BodyX)),
		Food:          game.Point{X: int(row.FoodX), Y: int(row.FoodY)},
		Direction:     game.Direction(row.Direction),
		Eating:        row.Eating,
		Dead:          row.Dead,
		Won:           row.Won,
		Turn:          int(row.Turn),
	}
	for i := range row.BodyX {
		state.Snake[i] = game.Point{X: int(row.BodyX[i]), Y: int(row.BodyY[i])}
	}
	return state, nil
}

// WriteTrace writes rows into dir/tmp and then atomically moves the file into
// dir, so readers never see a partial trace. It returns the final path.
func WriteTrace(dir string, rows []TickRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("trace_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(dir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", TraceSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadTrace loads every row of a trace file in recording order.
func ReadTrace(path string) ([]TickRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, _ := pf.Lookup("schema"); schema != TraceSchema {
		return nil, fmt.Errorf("%w: %q in %s", ErrSchema, schema, path)
	}

	reader := parquet.NewGenericReader[TickRow](pf)
	defer reader.Close()

	rows := make([]TickRow, 0, reader.NumRows())
	buf := make([]TickRow, 256)
	for {
		// The reader reuses slices it finds in buf; start from zero rows so
		// the copies below own their body columns.
		clear(buf)
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Seq != rows[j].Seq {
			return rows[i].Seq < rows[j].Seq
		}
		return rows[i].Turn < rows[j].Turn
	})
	return rows, nil
}

// ListTraces returns the trace files in dir, newest first.
func ListTraces(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "trace_") || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	// Names embed a nanosecond timestamp, so lexical order is write order.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}
