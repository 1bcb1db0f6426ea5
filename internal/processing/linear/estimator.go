// Package linear estimates the bounded per-channel affine color transform.
package linear

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"anti-instagram/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrRejected marks a fit that failed the acceptance bound. The caller keeps
// the previous transform and publishes nothing.
var ErrRejected = errors.New("linear fit rejected")

// minClusterShare drops clusters too small to be a painted surface
const minClusterShare = 0.005

// Cluster is one k-means center with the number of pixels assigned to it
type Cluster struct {
	Center Color
	Size   int
}

// Clusterer groups the included pixels of a masked frame into k centers
type Clusterer interface {
	Cluster(mf models.MaskedFrame, k int) ([]Cluster, error)
}

// Options bound the fit
type Options struct {
	Centers  int
	MaxError float64
	MinScale float64
	MaxScale float64
}

// Match pairs a reference color with the cluster chosen to represent it
type Match struct {
	Reference Reference
	Cluster   Cluster
}

// Fit is the outcome of one estimation, accepted or not
type Fit struct {
	Transform models.LinearTransform
	Residual  float64
	Matches   []Match
}

type Estimator struct {
	clusterer Clusterer
	palette   Palette
	opts      Options
}

func NewEstimator(clusterer Clusterer, palette Palette, opts Options) *Estimator {
	return &Estimator{clusterer: clusterer, palette: palette, opts: opts}
}

// Estimate returns an accepted transform, or an error wrapping ErrRejected
// when the residual or scale bound is violated.
func (e *Estimator) Estimate(mf models.MaskedFrame) (models.LinearTransform, error) {
	fit, err := e.Fit(mf)
	if err != nil {
		return models.LinearTransform{}, err
	}
	return fit.Transform, nil
}

// Fit clusters the frame, matches centers to the palette and regresses each
// channel independently.
func (e *Estimator) Fit(mf models.MaskedFrame) (Fit, error) {
	if err := mf.Validate(); err != nil {
		return Fit{}, fmt.Errorf("invalid masked frame: %w", err)
	}
	if mf.Len() < e.opts.Centers {
		return Fit{}, fmt.Errorf("%w: %d pixels for %d centers", ErrRejected, mf.Len(), e.opts.Centers)
	}

	clusters, err := e.clusterer.Cluster(mf, e.opts.Centers)
	if err != nil {
		return Fit{}, fmt.Errorf("clustering failed: %w", err)
	}

	matches, err := MatchPalette(e.palette, significant(clusters))
	if err != nil {
		return Fit{}, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	fit := Fit{Matches: matches}
	x := make([]float64, len(matches))
	y := make([]float64, len(matches))
	for c := 0; c < models.NumChannels; c++ {
		for i, m := range matches {
			x[i] = m.Cluster.Center[c]
			y[i] = m.Reference.Color[c]
		}
		if stat.Variance(x, nil) < 1e-9 {
			return fit, fmt.Errorf("%w: channel %s has no spread across matched centers", ErrRejected, models.ChannelNames[c])
		}
		alpha, beta := stat.LinearRegression(x, y, nil, false)
		fit.Transform.Shift[c] = alpha
		fit.Transform.Scale[c] = beta
	}

	fit.Residual = residual(fit.Transform, matches)
	if err := e.accept(fit); err != nil {
		return fit, err
	}
	return fit, nil
}

func (e *Estimator) accept(fit Fit) error {
	if err := fit.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	for c := 0; c < models.NumChannels; c++ {
		s := fit.Transform.Scale[c]
		if s < e.opts.MinScale || s > e.opts.MaxScale {
			return fmt.Errorf("%w: channel %s scale %.3f outside [%g, %g]",
				ErrRejected, models.ChannelNames[c], s, e.opts.MinScale, e.opts.MaxScale)
		}
	}
	if math.IsNaN(fit.Residual) || fit.Residual > e.opts.MaxError {
		return fmt.Errorf("%w: average error %.2f above %.2f", ErrRejected, fit.Residual, e.opts.MaxError)
	}
	return nil
}

// residual is the mean absolute error of the corrected centers against the palette
func residual(t models.LinearTransform, matches []Match) float64 {
	errs := make([]float64, 0, len(matches)*models.NumChannels)
	for _, m := range matches {
		for c := 0; c < models.NumChannels; c++ {
			corrected := t.Shift[c] + t.Scale[c]*m.Cluster.Center[c]
			errs = append(errs, math.Abs(corrected-m.Reference.Color[c]))
		}
	}
	return floats.Sum(errs) / float64(len(errs))
}

func significant(clusters []Cluster) []Cluster {
	total := 0
	for _, c := range clusters {
		total += c.Size
	}
	out := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		if total == 0 || float64(c.Size)/float64(total) >= minClusterShare {
			out = append(out, c)
		}
	}
	return out
}

// MatchPalette assigns each reference color a distinct cluster, greedily
// taking the closest remaining pair first.
func MatchPalette(palette Palette, clusters []Cluster) ([]Match, error) {
	if len(clusters) < len(palette) {
		return nil, fmt.Errorf("%d clusters cannot cover %d reference colors", len(clusters), len(palette))
	}

	type pair struct {
		ref, cluster int
		d           float64
	}
	pairs := make([]pair, 0, len(palette)*len(clusters))
	for r, ref := range palette {
		for k, cl := range clusters {
			pairs = append(pairs, pair{ref: r, cluster: k, d: distance2(ref.Color, cl.Center)})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].d < pairs[j].d })

	matches := make([]Match, len(palette))
	refDone := make([]bool, len(palette))
	clusterDone := make([]bool, len(clusters))
	left := len(palette)
	for _, p := range pairs {
		if left == 0 {
			break
		}
		if refDone[p.ref] || clusterDone[p.cluster] {
			continue
		}
		matches[p.ref] = Match{Reference: palette[p.ref], Cluster: clusters[p.cluster]}
		refDone[p.ref] = true
		clusterDone[p.cluster] = true
		left--
	}
	return matches, nil
}

// Apply corrects a frame with t, saturating at the byte range
func Apply(f *models.Frame, t models.LinearTransform) *models.Frame {
	var luts [models.NumChannels][256]uint8
	for c := 0; c < models.NumChannels; c++ {
		for v := 0; v < 256; v++ {
			out := math.Round(t.Shift[c] + t.Scale[c]*float64(v))
			luts[c][v] = uint8(math.Max(0, math.Min(255, out)))
		}
	}
	out := &models.Frame{
		Pix:    make([]uint8, len(f.Pix)),
		Width:  f.Width,
		Height: f.Height,
		Stamp:  f.Stamp,
		Seq:    f.Seq,
	}
	for i := 0; i+models.NumChannels <= len(f.Pix); i += models.NumChannels {
		for c := 0; c < models.NumChannels; c++ {
			out.Pix[i+c] = luts[c][f.Pix[i+c]]
		}
	}
	return out
}
