package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"anti-instagram/internal/calibration"
	"anti-instagram/internal/capture"
	"anti-instagram/internal/config"
	"anti-instagram/internal/logger"
	"anti-instagram/internal/opencv/cluster"
	"anti-instagram/internal/pipeline"
	"anti-instagram/internal/preview"
	"anti-instagram/internal/processing/colorbalance"
	"anti-instagram/internal/processing/filters"
	"anti-instagram/internal/processing/geometry"
	"anti-instagram/internal/processing/linear"
	"anti-instagram/internal/publish"
	"anti-instagram/internal/shutdown"
	"anti-instagram/internal/timeutil"

	"github.com/spf13/cobra"
)

const (
	component = "Main"
	version   = "1.0.0"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "anti-instagram",
		Short:   "Continuous color calibration for a live camera stream",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(cmd.Flags(), cfg); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(cfg)
		},
	}

	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.New(level, cfg.Log.Format)

	cfg.Resolve(log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Info(component, "configuration loaded", cfg.Fields())

	clock := timeutil.RealClock{}
	buffer := pipeline.NewFrameBuffer()

	source, err := capture.Open(cfg.Source, log, clock)
	if err != nil {
		return err
	}

	blur, err := filters.NewBlur(cfg.Blur, cfg.BlurKernel)
	if err != nil {
		return err
	}
	geomOpts := geometry.DefaultOptions()
	geomOpts.Fancy = cfg.FancyGeom
	geomOpts.Resize = cfg.Resize
	masker, err := geometry.NewRegionMasker(geomOpts, blur)
	if err != nil {
		return err
	}

	kmeans, err := cluster.NewKMeans(blur, cfg.KMeansAttempts)
	if err != nil {
		return err
	}
	linearEstimator := linear.NewEstimator(kmeans, linear.RoadPalette, linear.Options{
		Centers:  cfg.NCenters,
		MaxError: cfg.MaxError,
		MinScale: cfg.MinScale,
		MaxScale: cfg.MaxScale,
	})

	bus := publish.NewBus(cfg.Publish.QueueSize, log)
	bus.Subscribe(publish.NewLogSink(log), publish.KindThresholds, publish.KindTransform)

	closeOutput, err := subscribeOutput(bus, cfg.Publish.Output, log)
	if err != nil {
		return err
	}

	sched, err := calibration.NewScheduler(calibration.OptionsFromConfig(cfg), calibration.Deps{
		Source:    buffer,
		Masker:    masker,
		Balancer:  colorbalance.NewEstimator(cfg.CBPercentage),
		Linear:    linearEstimator,
		Publisher: bus,
		Logger:    log,
		Clock:     clock,
	})
	if err != nil {
		return err
	}

	mgr := shutdown.NewManager(log)
	mgr.Register("publisher", shutdown.Func(func() {
		bus.Shutdown()
		closeOutput()
	}))

	var workers sync.WaitGroup
	mgr.Register("workers", shutdown.Func(workers.Wait))

	var ui frontEnd
	if cfg.Publish.Preview {
		win := preview.NewWindow(log)
		bus.Subscribe(win)
		mgr.Register("preview", win)
		ui = win
	}

	mgr.Listen()
	ctx := mgr.Context()

	log.Info(component, "session started", map[string]interface{}{
		"session": bus.Session(),
		"source":  source.Name(),
	})

	workers.Add(2)
	go func() {
		defer workers.Done()
		if err := source.Run(ctx, buffer); err != nil {
			log.Error(component, err, map[string]interface{}{"source": source.Name()})
			return
		}
		if ctx.Err() == nil {
			log.Warning(component, "frame source stopped, holding last calibration", map[string]interface{}{
				"source": source.Name(),
			})
		}
	}()
	go func() {
		defer workers.Done()
		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			log.Error(component, err, nil)
		}
	}()

	awaitSession(ctx, ui, mgr.Shutdown)
	mgr.Shutdown()

	stats := buffer.Stats()
	log.Info(component, "session finished", map[string]interface{}{
		"session":         bus.Session(),
		"frames":          stats.Deposits,
		"frames_dropped":  stats.Drops,
		"published":       bus.Delivered(),
		"publish_dropped": bus.Dropped(),
		"mask_avg":        sched.StageAverage("mask").String(),
		"linear_avg":      sched.StageAverage("linear").String(),
	})
	return nil
}

// frontEnd is a blocking user interface; preview.Window is the only one
type frontEnd interface {
	Run(onClosed func())
}

// awaitSession blocks until ctx is done, or until ui is closed when there is
// one. A session that already ended never opens the ui.
func awaitSession(ctx context.Context, ui frontEnd, stop func()) {
	if ui == nil {
		<-ctx.Done()
		return
	}
	if ctx.Err() != nil {
		return
	}
	ui.Run(func() { go stop() })
}

// subscribeOutput attaches the file sinks when an output directory is set
func subscribeOutput(bus *publish.Bus, dir string, log logger.Logger) (func(), error) {
	if dir == "" {
		return func() {}, nil
	}

	images, err := publish.NewImageSink(dir, "png", log)
	if err != nil {
		return nil, err
	}
	bus.Subscribe(images, publish.KindMaskedFrame, publish.KindDiagnosticMask)

	path := filepath.Join(dir, "calibration.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	bus.Subscribe(publish.NewJSONLinesSink(file), publish.KindThresholds, publish.KindTransform)

	return func() {
		if err := file.Close(); err != nil {
			log.Error(component, err, map[string]interface{}{"file": path})
		}
	}, nil
}
