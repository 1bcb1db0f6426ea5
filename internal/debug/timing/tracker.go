package timing

import (
	"sync"
	"time"

	"anti-instagram/internal/timeutil"
)

// Stopwatch times the stages of a single tick. Each Lap records the time
// since the previous lap under the given stage name.
type Stopwatch struct {
	clock  timeutil.Clock
	start  time.Time
	last   time.Time
	stages []string
	laps   map[string]time.Duration
}

func NewStopwatch(clock timeutil.Clock) *Stopwatch {
	now := clock.Now()
	return &Stopwatch{
		clock: clock,
		start: now,
		last:  now,
		laps:  make(map[string]time.Duration),
	}
}

// Lap closes the current stage
func (s *Stopwatch) Lap(stage string) {
	now := s.clock.Now()
	if _, seen := s.laps[stage]; !seen {
		s.stages = append(s.stages, stage)
	}
	s.laps[stage] += now.Sub(s.last)
	s.last = now
}

// Total is the time since the stopwatch started
func (s *Stopwatch) Total() time.Duration {
	return s.last.Sub(s.start)
}

// Laps returns the stage durations in the order stages first completed
func (s *Stopwatch) Laps() []Lap {
	out := make([]Lap, 0, len(s.stages))
	for _, name := range s.stages {
		out = append(out, Lap{Stage: name, Duration: s.laps[name]})
	}
	return out
}

// Fields renders the laps in milliseconds for structured logging
func (s *Stopwatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(s.stages)+1)
	for _, name := range s.stages {
		fields[name+"_ms"] = millis(s.laps[name])
	}
	fields["total_ms"] = millis(s.Total())
	return fields
}

type Lap struct {
	Stage    string
	Duration time.Duration
}

// Tracker accumulates stage durations across ticks
type Tracker struct {
	mu     sync.RWMutex
	totals map[string]time.Duration
	counts map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
	}
}

// Record adds every lap of a finished stopwatch
func (t *Tracker) Record(s *Stopwatch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, lap := range s.Laps() {
		t.totals[lap.Stage] += lap.Duration
		t.counts[lap.Stage]++
	}
}

func (t *Tracker) Average(stage string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.counts[stage]
	if n == 0 {
		return 0
	}
	return t.totals[stage] / time.Duration(n)
}

func (t *Tracker) Count(stage string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[stage]
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = make(map[string]time.Duration)
	t.counts = make(map[string]int)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
