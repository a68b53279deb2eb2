// Package report turns association maps into tracking performance
// summaries, quality histograms and an HTML overview.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
)

// QualityStats describes a sample of association qualities.
type QualityStats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is the tracking performance of one associator over one or more
// events.
//
// Efficiency is the fraction of particles with at least one associated
// track. FakeRate is the fraction of tracks with no associated particle.
// DuplicateRate is the fraction of particles associated to two or more
// tracks.
type Summary struct {
	Associator         string       `json:"associator"`
	Events             int          `json:"events"`
	Tracks             int          `json:"tracks"`
	Particles          int          `json:"particles"`
	MatchedTracks      int          `json:"matched_tracks"`
	MatchedParticles   int          `json:"matched_particles"`
	DuplicateParticles int          `json:"duplicate_particles"`
	Efficiency         float64      `json:"efficiency"`
	FakeRate           float64      `json:"fake_rate"`
	DuplicateRate      float64      `json:"duplicate_rate"`
	RecoToSimQuality   QualityStats `json:"reco_to_sim_quality"`
	SimToRecoQuality   QualityStats `json:"sim_to_reco_quality"`
}

// Accumulator sums association results event by event. It is not safe
// for concurrent use.
type Accumulator struct {
	associator string

	events             int
	tracks             int
	particles          int
	matchedTracks      int
	matchedParticles   int
	duplicateParticles int

	recoToSim []float64
	simToReco []float64
}

// NewAccumulator returns an empty accumulator for the named associator.
func NewAccumulator(associator string) *Accumulator {
	return &Accumulator{associator: associator}
}

// Associator returns the associator name.
func (a *Accumulator) Associator() string { return a.associator }

// AddEvent folds one event's maps into the totals. nTracks and nParticles
// are the collection sizes the query ran over. Maps that were not computed
// contribute nothing beyond the collection sizes.
func (a *Accumulator) AddEvent(nTracks, nParticles int, r2s *association.RecoToSimMap, s2r *association.SimToRecoMap) {
	a.events++
	a.tracks += nTracks
	a.particles += nParticles

	for _, e := range r2s.Entries() {
		if len(e.Matches) > 0 {
			a.matchedTracks++
		}
		for _, m := range e.Matches {
			a.recoToSim = append(a.recoToSim, m.Quality)
		}
	}
	for _, e := range s2r.Entries() {
		switch {
		case len(e.Matches) > 1:
			a.duplicateParticles++
			fallthrough
		case len(e.Matches) == 1:
			a.matchedParticles++
		}
		for _, m := range e.Matches {
			a.simToReco = append(a.simToReco, m.Quality)
		}
	}
}

// RecoToSimQualities returns every reco-to-sim link quality seen so far.
func (a *Accumulator) RecoToSimQualities() []float64 { return a.recoToSim }

// SimToRecoQualities returns every sim-to-reco link quality seen so far.
func (a *Accumulator) SimToRecoQualities() []float64 { return a.simToReco }

// Summary computes rates from the accumulated counts.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Associator:         a.associator,
		Events:             a.events,
		Tracks:             a.tracks,
		Particles:          a.particles,
		MatchedTracks:      a.matchedTracks,
		MatchedParticles:   a.matchedParticles,
		DuplicateParticles: a.duplicateParticles,
		RecoToSimQuality:   Describe(a.recoToSim),
		SimToRecoQuality:   Describe(a.simToReco),
	}
	s.Efficiency = ratio(a.matchedParticles, a.particles)
	if a.tracks > 0 {
		s.FakeRate = 1 - ratio(a.matchedTracks, a.tracks)
	}
	s.DuplicateRate = ratio(a.duplicateParticles, a.particles)
	return s
}

// Summarize is the single-event shortcut for an Accumulator.
func Summarize(associator string, nTracks, nParticles int, r2s *association.RecoToSimMap, s2r *association.SimToRecoMap) Summary {
	a := NewAccumulator(associator)
	a.AddEvent(nTracks, nParticles, r2s, s2r)
	return a.Summary()
}

// Describe computes sample statistics. StdDev is the unbiased estimate and
// is zero for fewer than two values.
func Describe(values []float64) QualityStats {
	if len(values) == 0 {
		return QualityStats{}
	}
	st := QualityStats{
		N:   len(values),
		Min: floats.Min(values),
		Max: floats.Max(values),
	}
	if len(values) == 1 {
		st.Mean = values[0]
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	return st
}

// Histogram bins values into n equal-width bins spanning [min, max] and
// returns the lower bin edges with their counts.
func Histogram(values []float64, n int) (edges, counts []float64) {
	if len(values) == 0 || n < 1 {
		return nil, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// stat.Histogram needs the last divider strictly above the maximum.
	top := hi + (hi-lo)*1e-9
	if top <= hi {
		top = math.Nextafter(hi+1e-12, math.Inf(1))
	}
	dividers[n] = top
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return dividers[:n], counts
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
