package publish

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"anti-instagram/internal/logger"
)

// SinkFunc adapts a function to Sink
type SinkFunc struct {
	ID string
	Fn func(p Publication) error
}

func (s SinkFunc) Handle(p Publication) error { return s.Fn(p) }
func (s SinkFunc) Name() string               { return s.ID }

// LogSink reports transform updates through the process logger
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(p Publication) error {
	switch p.Kind {
	case KindThresholds:
		s.logger.Info(component, "color balance thresholds published", map[string]interface{}{
			"seq":  p.Seq,
			"low":  p.Thresholds.Low,
			"high": p.Thresholds.High,
		})
	case KindTransform:
		s.logger.Info(component, "linear transform published", map[string]interface{}{
			"seq":   p.Seq,
			"shift": p.Transform.Shift,
			"scale": p.Transform.Scale,
		})
	case KindMaskedFrame:
		s.logger.Debug(component, "masked frame published", map[string]interface{}{
			"seq":    p.Seq,
			"width":  p.Frame.Width,
			"height": p.Frame.Height,
		})
	case KindDiagnosticMask:
		s.logger.Debug(component, "mask published", map[string]interface{}{"seq": p.Seq})
	}
	return nil
}

// Record is the JSON form of a calibration update
type Record struct {
	Session string     `json:"session"`
	Kind    string     `json:"kind"`
	Seq     uint64     `json:"seq"`
	Stamp   time.Time  `json:"stamp"`
	Values  [6]float64 `json:"values"`
}

// JSONLinesSink appends one Record per threshold or transform update.
// Values follow the wire order of the six scalars: low then high for
// thresholds, shift then scale for transforms.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) Name() string { return "jsonl" }

func (s *JSONLinesSink) Handle(p Publication) error {
	rec := Record{Session: p.Session, Kind: p.Kind.String(), Seq: p.Seq, Stamp: p.Stamp}
	switch p.Kind {
	case KindThresholds:
		rec.Values = p.Thresholds.Flat()
	case KindTransform:
		rec.Values = p.Transform.Flat()
	default:
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write %s record: %w", rec.Kind, err)
	}
	return nil
}
