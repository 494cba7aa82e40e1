package portfolio

import "time"

// DefaultHistoryLimit keeps a year of daily points.
const DefaultHistoryLimit = 365

// HistoryPoint is the portfolio value at one refresh.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// History is an append-only sequence of portfolio values capped at a limit.
// When full, the oldest point is evicted. It is not safe for concurrent use.
type History struct {
	points []HistoryPoint
	limit  int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append adds p, evicting the oldest points beyond the limit.
func (h *History) Append(p HistoryPoint) {
	h.points = append(h.points, p)
	if over := len(h.points) - h.limit; over > 0 {
		h.points = append([]HistoryPoint(nil), h.points[over:]...)
	}
}

// Load replaces the contents with points, keeping only the newest ones.
func (h *History) Load(points []HistoryPoint) {
	h.points = nil
	for _, p := range points {
		h.Append(p)
	}
}

// Points returns a copy of the points, oldest first.
func (h *History) Points() []HistoryPoint {
	return append([]HistoryPoint(nil), h.points...)
}

// Values returns the values, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.points))
	for i, p := range h.points {
		out[i] = p.Value
	}
	return out
}

// Returns derives the period returns between consecutive points.
func (h *History) Returns() []float64 {
	return DailyReturns(h.Values())
}
