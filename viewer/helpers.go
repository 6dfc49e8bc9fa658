package viewer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

// parseIntQuery reads a non-negative integer parameter, capped at ceiling.
// Missing or malformed values give def.
func parseIntQuery(r *http.Request, key string, def, ceiling int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return min(def, ceiling)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return min(def, ceiling)
	}
	return min(n, ceiling)
}

func zipPoints(xs, ys []int32) []Point {
	n := min(len(xs), len(ys))
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Point{X: xs[i], Y: ys[i]})
	}
	return out
}
