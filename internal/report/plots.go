package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/fsutil"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/security"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("report: no data to plot")

// DefaultBins is the histogram bin count used by WritePlots.
const DefaultBins = 20

// WriteQualityHistogram saves a histogram of values to path on fsys. The
// image format follows the file extension (png, svg, pdf, ...).
func WriteQualityHistogram(fsys fsutil.FileSystem, path, title, xLabel string, values []float64, bins int) error {
	if len(values) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Links"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to render plot %s: %w", path, err)
	}
	return fsutil.WriteTo(fsys, path, wt)
}

// WritePlots writes one PNG per associator and direction into dir and
// returns the paths written. Directions without links are skipped.
func WritePlots(fsys fsutil.FileSystem, dir string, accs []*Accumulator) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	var written []string
	for _, a := range accs {
		for _, d := range []struct {
			name   string
			values []float64
		}{
			{"reco_to_sim", a.RecoToSimQualities()},
			{"sim_to_reco", a.SimToRecoQualities()},
		} {
			if len(d.values) == 0 {
				monitoring.Debugf("no %s links for %s, skipping plot", d.name, a.Associator())
				continue
			}
			name := fmt.Sprintf("%s_%s_quality.png", security.SanitizeFilename(a.Associator()), d.name)
			path := filepath.Join(dir, name)
			title := fmt.Sprintf("%s %s quality", a.Associator(), strings.ReplaceAll(d.name, "_", " "))
			if err := WriteQualityHistogram(fsys, path, title, qualityLabel(a.Associator()), d.values, DefaultBins); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func qualityLabel(associator string) string {
	if associator == "chi2" {
		return "-chi2"
	}
	return "quality"
}
