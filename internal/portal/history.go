package portal

import "github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"

// history is a fixed-capacity ring of activities. Once full, each append
// evicts the oldest entry. It is not safe for concurrent use; Portal guards it.
type history struct {
	buf   []models.Activity
	start int // index of the oldest entry
	size  int
	total int // appends over the ring's lifetime
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{buf: make([]models.Activity, capacity)}
}

func (h *history) append(a models.Activity) {
	h.total++
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = a
		h.size++
		return
	}
	h.buf[h.start] = a
	h.start = (h.start + 1) % len(h.buf)
}

// recent returns up to limit of the newest entries, oldest first.
// A limit <= 0 returns everything retained.
func (h *history) recent(limit int) []models.Activity {
	n := h.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Activity, n)
	skip := h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(h.start+skip+i)%len(h.buf)]
	}
	return out
}
