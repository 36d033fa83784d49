// Package window provides the fixed-capacity price buffer behind the moving
// averages.
package window

// Window holds the most recent prices up to a fixed capacity. Pushing at
// capacity evicts the oldest entry.
type Window struct {
	prices []float64
	pos    int
	count  int
}

// New creates an empty window with the given capacity (minimum 1).
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{prices: make([]float64, capacity)}
}

// Push appends a price, evicting the oldest entry once the window is full.
func (w *Window) Push(price float64) {
	w.prices[w.pos] = price
	w.pos = (w.pos + 1) % len(w.prices)
	if w.count < len(w.prices) {
		w.count++
	}
}

// Len reports how many prices the window currently holds.
func (w *Window) Len() int { return w.count }

// Cap reports the fixed capacity.
func (w *Window) Cap() int { return len(w.prices) }

// Full reports whether the window holds capacity prices.
func (w *Window) Full() bool { return w.count == len(w.prices) }

// Avg returns the mean of the last n pushed prices. Returns 0 unless
// 0 < n <= Len.
func (w *Window) Avg(n int) float64 {
	if n <= 0 || n > w.count {
		return 0
	}
	sum := 0.0
	for i, k := w.pos-1, 0; k < n; i, k = i-1, k+1 {
		sum += w.prices[(i%len(w.prices)+len(w.prices))%len(w.prices)]
	}
	return sum / float64(n)
}

// Values returns the held prices oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, 0, w.count)
	start := w.pos - w.count
	for k := 0; k < w.count; k++ {
		out = append(out, w.prices[((start+k)%len(w.prices)+len(w.prices))%len(w.prices)])
	}
	return out
}
