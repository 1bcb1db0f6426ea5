package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Logger provides structured logging tagged with the emitting component
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a configuration string to a level
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

type nop struct{}

// Nop discards everything
func Nop() Logger { return nop{} }

func (nop) Debug(string, string, map[string]interface{})   {}
func (nop) Info(string, string, map[string]interface{})    {}
func (nop) Warning(string, string, map[string]interface{}) {}
func (nop) Error(string, error, map[string]interface{})    {}

// Entry is one record kept by a Recorder
type Entry struct {
	Level     LogLevel
	Component string
	Message   string
	Err       error
	Fields    map[string]interface{}
}

// Recorder keeps log entries in memory so tests can assert on reports
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *Recorder) Debug(component, message string, fields map[string]interface{}) {
	r.add(Entry{Level: DebugLevel, Component: component, Message: message, Fields: fields})
}

func (r *Recorder) Info(component, message string, fields map[string]interface{}) {
	r.add(Entry{Level: InfoLevel, Component: component, Message: message, Fields: fields})
}

func (r *Recorder) Warning(component, message string, fields map[string]interface{}) {
	r.add(Entry{Level: WarnLevel, Component: component, Message: message, Fields: fields})
}

func (r *Recorder) Error(component string, err error, fields map[string]interface{}) {
	r.add(Entry{Level: ErrorLevel, Component: component, Message: "operation failed", Err: err, Fields: fields})
}

// Entries returns a copy of everything recorded so far
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries carry the given message
func (r *Recorder) Count(message string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Message == message {
			n++
		}
	}
	return n
}
