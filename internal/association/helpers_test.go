package association

import (
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/config"
)

func f64(v float64) *float64 { return &v }
func flag(v bool) *bool      { return &v }
func str(v string) *string   { return &v }

// permissive accepts every pair that shares at least one hit.
func permissive() *config.AssociatorConfig {
	return &config.AssociatorConfig{
		QualitySimToReco: f64(0),
		PuritySimToReco:  f64(0),
		CutRecoToSim:     f64(0),
	}
}

type recordingObserver struct {
	stats []QueryStats
}

func (o *recordingObserver) ObserveQuery(s QueryStats) { o.stats = append(o.stats, s) }
