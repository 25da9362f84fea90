package score

// ageWindow is a time-ordered sequence of millisecond timestamps bounded by
// age: entries older than the trailing span are evicted on every push.
// Eviction advances a head index and compacts the backing slice once the
// dead prefix dominates, so push/evict stay O(1) amortized.
type ageWindow struct {
	entries []int64
	head    int
	span    int64
}

func newAgeWindow(spanMillis int64) *ageWindow {
	return &ageWindow{span: spanMillis}
}

// Push appends a timestamp and evicts entries older than ts - span.
func (w *ageWindow) Push(ts int64) {
	w.entries = append(w.entries, ts)

	cutoff := ts - w.span
	for w.head < len(w.entries) && w.entries[w.head] < cutoff {
		w.head++
	}

	// Compact once more than half the backing slice is dead prefix
	if w.head > len(w.entries)/2 && w.head > 16 {
		live := copy(w.entries, w.entries[w.head:])
		w.entries = w.entries[:live]
		w.head = 0
	}
}

// Len returns the number of live entries.
func (w *ageWindow) Len() int {
	return len(w.entries) - w.head
}

// Oldest returns the oldest live timestamp, or 0 when empty.
func (w *ageWindow) Oldest() int64 {
	if w.Len() == 0 {
		return 0
	}
	return w.entries[w.head]
}

// CountSince counts live entries at or after the given timestamp.
// Entries are time-ordered, so scan from the tail.
func (w *ageWindow) CountSince(ts int64) int {
	count := 0
	for i := len(w.entries) - 1; i >= w.head; i-- {
		if w.entries[i] < ts {
			break
		}
		count++
	}
	return count
}

// Tail returns up to n of the newest live entries in time order.
func (w *ageWindow) Tail(n int) []int64 {
	live := w.entries[w.head:]
	if len(live) > n {
		live = live[len(live)-n:]
	}
	return live
}

// Reset drops all entries.
func (w *ageWindow) Reset() {
	w.entries = w.entries[:0]
	w.head = 0
}

// boundedSamples is a size-bounded sample sequence: when a push would exceed
// the cap, the sequence is trimmed down to the retain count, keeping the
// newest samples.
type boundedSamples struct {
	samples []float64
	cap     int
	retain  int
}

func newBoundedSamples(capacity, retain int) *boundedSamples {
	return &boundedSamples{cap: capacity, retain: retain}
}

// Push appends a sample, trimming to the retain count on overflow.
func (b *boundedSamples) Push(v float64) {
	b.samples = append(b.samples, v)
	if len(b.samples) > b.cap {
		kept := copy(b.samples, b.samples[len(b.samples)-b.retain:])
		b.samples = b.samples[:kept]
	}
}

// Len returns the number of held samples.
func (b *boundedSamples) Len() int {
	return len(b.samples)
}

// Tail returns up to n of the newest samples in order.
func (b *boundedSamples) Tail(n int) []float64 {
	if len(b.samples) > n {
		return b.samples[len(b.samples)-n:]
	}
	return b.samples
}

// Reset drops all samples.
func (b *boundedSamples) Reset() {
	b.samples = b.samples[:0]
}
