package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anti-instagram/internal/config"
	"anti-instagram/internal/debug/timing"
	"anti-instagram/internal/logger"
	"anti-instagram/internal/models"
	"anti-instagram/internal/processing/linear"
	"anti-instagram/internal/publish"
	"anti-instagram/internal/timeutil"
)

const component = "Calibration"

var (
	ErrNoFrame        = errors.New("no frame received yet")
	ErrStaleFrame     = errors.New("no new frame since last tick")
	ErrTickInProgress = errors.New("tick already in progress")
	ErrMaskingFailed  = errors.New("masking failed")
)

type FrameSource interface {
	TakeLatest() (*models.Frame, bool)
}

type Masker interface {
	Mask(f *models.Frame) (models.MaskedFrame, error)
}

type ColorBalancer interface {
	Estimate(mf models.MaskedFrame) (models.Thresholds, error)
	Apply(f *models.Frame, th models.Thresholds) *models.Frame
}

type LinearEstimator interface {
	Estimate(mf models.MaskedFrame) (models.LinearTransform, error)
}

type Publisher interface {
	Publish(p publish.Publication)
}

type Options struct {
	Mode          config.TransformMode
	ThrottleTicks int
	// Interval is the tick period while initializing
	Interval time.Duration
	// ContinuousInterval replaces Interval after the first accepted transform
	ContinuousInterval time.Duration
	// Verbose logs per-stage timings for every tick
	Verbose bool
}

// OptionsFromConfig maps the validated configuration onto scheduler options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:               cfg.Mode,
		ThrottleTicks:      cfg.ThrottleTicks,
		Interval:           cfg.Interval,
		ContinuousInterval: cfg.ContinuousPeriod(),
		Verbose:            cfg.Verbose,
	}
}

type Deps struct {
	Source    FrameSource
	Masker    Masker
	Balancer  ColorBalancer
	Linear    LinearEstimator
	Publisher Publisher
	Logger    logger.Logger
	Clock     timeutil.Clock
}

// Report describes what a single tick did
type Report struct {
	Seq             uint64
	Mode            models.CalibrationMode
	Counter         int
	ColorBalanced   bool
	LinearAttempted bool
	LinearAccepted  bool
	Transitioned    bool
	Rejection       error
}

// Scheduler owns the calibration state. Ticks never overlap: a tick that
// starts while another is running returns ErrTickInProgress.
type Scheduler struct {
	mu sync.Mutex

	opts    Options
	deps    Deps
	tracker *timing.Tracker

	mode       models.CalibrationMode
	counter    int
	thresholds *models.Thresholds
	transform  *models.LinearTransform
	lastSeq    uint64

	ticks      uint64
	skipped    uint64
	rejections uint64
	failures   uint64
	lastErr    error
}

func NewScheduler(opts Options, deps Deps) (*Scheduler, error) {
	if deps.Source == nil || deps.Masker == nil || deps.Publisher == nil {
		return nil, fmt.Errorf("source, masker and publisher are required")
	}
	if opts.Mode.ColorBalance() && deps.Balancer == nil {
		return nil, fmt.Errorf("transform mode %s needs a color balancer", opts.Mode)
	}
	if opts.Mode.Linear() && deps.Linear == nil {
		return nil, fmt.Errorf("transform mode %s needs a linear estimator", opts.Mode)
	}
	if opts.ThrottleTicks < 1 {
		return nil, fmt.Errorf("throttle ticks must be at least 1, got %d", opts.ThrottleTicks)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", opts.Interval)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}

	return &Scheduler{
		opts:    opts,
		deps:    deps,
		tracker: timing.NewTracker(),
		mode:    models.ModeInitializing,
	}, nil
}

// Tick runs one calibration pass over the latest frame
func (s *Scheduler) Tick(ctx context.Context) (Report, error) {
	if !s.mu.TryLock() {
		return Report{}, ErrTickInProgress
	}
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	frame, ok := s.deps.Source.TakeLatest()
	if !ok {
		s.skipped++
		return Report{Mode: s.mode}, ErrNoFrame
	}
	if frame.Seq == s.lastSeq {
		s.skipped++
		return Report{Seq: frame.Seq, Mode: s.mode, Counter: s.counter}, ErrStaleFrame
	}
	s.lastSeq = frame.Seq
	s.ticks++

	report := Report{Seq: frame.Seq}
	sw := timing.NewStopwatch(s.deps.Clock)

	mf, err := s.deps.Masker.Mask(frame)
	if err != nil {
		s.failures++
		s.lastErr = err
		s.deps.Logger.Warning(component, "masking failed, tick aborted", map[string]interface{}{
			"seq":   frame.Seq,
			"error": err.Error(),
		})
		report.Mode, report.Counter = s.mode, s.counter
		return report, fmt.Errorf("%w: %v", ErrMaskingFailed, err)
	}
	sw.Lap("mask")

	input := mf
	if s.opts.Mode.ColorBalance() {
		report.ColorBalanced = s.colorBalanceStep(mf)
		if s.opts.Mode == config.ModeBoth && s.thresholds != nil {
			input = mf.WithFrame(s.deps.Balancer.Apply(mf.Frame, *s.thresholds))
		}
		sw.Lap("color_balance")
	}

	if s.opts.Mode.Linear() {
		s.linearStep(input, &report)
		sw.Lap("linear")
	}

	s.deps.Publisher.Publish(publish.FramePublication(mf.Product()))
	if mf.Mask != nil && mf.Mask.Pix != nil {
		s.deps.Publisher.Publish(publish.MaskPublication(mf.Frame, mf.Mask.Visual()))
	}
	sw.Lap("publish")

	s.tracker.Record(sw)
	if s.opts.Verbose {
		fields := sw.Fields()
		fields["seq"] = frame.Seq
		fields["mode"] = s.mode.String()
		s.deps.Logger.Debug(component, "tick timing", fields)
	}

	report.Mode, report.Counter = s.mode, s.counter
	return report, nil
}

func (s *Scheduler) colorBalanceStep(mf models.MaskedFrame) bool {
	th, err := s.deps.Balancer.Estimate(mf)
	if err != nil {
		s.failures++
		s.lastErr = err
		s.deps.Logger.Warning(component, "color balance estimation failed", map[string]interface{}{
			"seq":   mf.Frame.Seq,
			"error": err.Error(),
		})
		return false
	}

	s.thresholds = &th
	s.deps.Publisher.Publish(publish.ThresholdsPublication(mf.Frame, th))
	return true
}

func (s *Scheduler) linearStep(mf models.MaskedFrame, report *Report) {
	run := true
	if s.mode == models.ModeContinuous {
		run = s.counter == 0
		s.counter = (s.counter + 1) % s.opts.ThrottleTicks
	}
	if !run {
		return
	}

	report.LinearAttempted = true
	t, err := s.deps.Linear.Estimate(mf)
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		report.Rejection = err
		s.lastErr = err
		fields := map[string]interface{}{
			"seq":   mf.Frame.Seq,
			"mode":  s.mode.String(),
			"error": err.Error(),
		}
		if errors.Is(err, linear.ErrRejected) {
			s.rejections++
			s.deps.Logger.Info(component, "average error too large, transform not updated", fields)
		} else {
			s.failures++
			s.deps.Logger.Warning(component, "linear estimation failed, transform not updated", fields)
		}
		return
	}

	s.transform = &t
	report.LinearAccepted = true
	s.deps.Publisher.Publish(publish.TransformPublication(mf.Frame, t))

	if s.mode == models.ModeInitializing {
		s.mode = models.ModeContinuous
		s.counter = 0
		report.Transitioned = true
		s.deps.Logger.Info(component, "initial transform accepted, switching to continuous mode", map[string]interface{}{
			"seq":      mf.Frame.Seq,
			"interval": s.opts.ContinuousInterval.String(),
		})
	}
}

// Snapshot is the externally visible calibration state
type Snapshot struct {
	Mode       models.CalibrationMode
	Counter    int
	Thresholds *models.Thresholds
	Transform  *models.LinearTransform
	LastSeq    uint64
	Ticks      uint64
	Skipped    uint64
	Rejections uint64
	Failures   uint64
	LastError  string
}

// Snapshot copies the held state; it waits for a running tick to finish
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:       s.mode,
		Counter:    s.counter,
		LastSeq:    s.lastSeq,
		Ticks:      s.ticks,
		Skipped:    s.skipped,
		Rejections: s.rejections,
		Failures:   s.failures,
	}
	if s.thresholds != nil {
		th := *s.thresholds
		snap.Thresholds = &th
	}
	if s.transform != nil {
		t := *s.transform
		snap.Transform = &t
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Fields renders the snapshot for structured logging
func (s Snapshot) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"mode":       s.Mode.String(),
		"counter":    s.Counter,
		"last_seq":   s.LastSeq,
		"ticks":      s.Ticks,
		"skipped":    s.Skipped,
		"rejections": s.Rejections,
		"failures":   s.Failures,
	}
	if s.Thresholds != nil {
		fields["thresholds"] = s.Thresholds.Flat()
	}
	if s.Transform != nil {
		fields["transform"] = s.Transform.Flat()
	}
	if s.LastError != "" {
		fields["last_error"] = s.LastError
	}
	return fields
}

// StageAverage returns the mean duration of a tick stage across ticks
func (s *Scheduler) StageAverage(stage string) time.Duration {
	return s.tracker.Average(stage)
}
