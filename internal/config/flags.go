package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags declares a flag per tunable. Flag defaults mirror Default so
// help output is accurate; only flags the user sets override the file.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Duration("interval", d.Interval, "tick period while searching for the initial transform")
	fs.Duration("continuous-interval", d.ContinuousInterval, "tick period in continuous mode (0 keeps --interval)")
	fs.Int("throttle-ticks", d.ThrottleTicks, "continuous ticks per linear estimation")
	fs.Bool("fancy-geom", d.FancyGeom, "use the geometric ground mask instead of the top crop")
	fs.Int("n-centers", d.NCenters, "k-means cluster centers")
	fs.String("blur", d.Blur, "blur before clustering: median, gaussian or none")
	fs.Float64("resize", d.Resize, "downscale factor applied before masking")
	fs.Int("blur-kernel", d.BlurKernel, "blur kernel size (odd)")
	fs.Float64("cb-percentage", d.CBPercentage, "color balance clip percentage per side")
	fs.String("trafo-mode", d.TrafoMode, "transform mode: cb, lin or both")
	fs.Float64("max-error", d.MaxError, "largest accepted linear fit residual")
	fs.Bool("verbose", d.Verbose, "log per-tick stage timings")
	fs.String("log-level", d.Log.Level, "debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "console or json")
	fs.String("source", d.Source.URI, "camera index, stream URL or image directory")
	fs.Float64("source-fps", d.Source.FPS, "replay rate for image directories")
	fs.String("output", d.Publish.Output, "directory for published records and images (empty disables)")
	fs.Bool("preview", d.Publish.Preview, "open a live preview window")
}

// ApplyFlags copies every flag the user set onto cfg
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "interval":
			cfg.Interval, err = fs.GetDuration(f.Name)
		case "continuous-interval":
			cfg.ContinuousInterval, err = fs.GetDuration(f.Name)
		case "throttle-ticks":
			cfg.ThrottleTicks, err = fs.GetInt(f.Name)
		case "fancy-geom":
			cfg.FancyGeom, err = fs.GetBool(f.Name)
		case "n-centers":
			cfg.NCenters, err = fs.GetInt(f.Name)
		case "blur":
			cfg.Blur, err = fs.GetString(f.Name)
		case "resize":
			cfg.Resize, err = fs.GetFloat64(f.Name)
		case "blur-kernel":
			cfg.BlurKernel, err = fs.GetInt(f.Name)
		case "cb-percentage":
			cfg.CBPercentage, err = fs.GetFloat64(f.Name)
		case "trafo-mode":
			cfg.TrafoMode, err = fs.GetString(f.Name)
		case "max-error":
			cfg.MaxError, err = fs.GetFloat64(f.Name)
		case "verbose":
			cfg.Verbose, err = fs.GetBool(f.Name)
		case "log-level":
			cfg.Log.Level, err = fs.GetString(f.Name)
		case "log-format":
			cfg.Log.Format, err = fs.GetString(f.Name)
		case "source":
			cfg.Source.URI, err = fs.GetString(f.Name)
		case "source-fps":
			cfg.Source.FPS, err = fs.GetFloat64(f.Name)
		case "output":
			cfg.Publish.Output, err = fs.GetString(f.Name)
		case "preview":
			cfg.Publish.Preview, err = fs.GetBool(f.Name)
		}
	})
	return err
}
