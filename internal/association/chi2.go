package association

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/config"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/helix"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
)

// Chi2Name is the name reported by Chi2Associator.
const Chi2Name = "chi2"

// Chi2Associator associates tracks and particles by the chi-square distance
// between the track parameters and the particle's parameters at closest
// approach, weighted by the inverse track covariance. It holds no state
// between queries.
type Chi2Associator struct {
	seedsUnsupported

	cut          float64
	onlyDiagonal bool
	minPt        float64
	parametrizer *helix.Parametrizer
	opts         options
}

var (
	_ Associator     = (*Chi2Associator)(nil)
	_ SeedAssociator = (*Chi2Associator)(nil)
)

// NewChi2Associator builds a chi2 associator from cfg. field is evaluated at
// each particle's comparison position.
func NewChi2Associator(cfg *config.AssociatorConfig, field event.MagneticField, opts ...Option) (*Chi2Associator, error) {
	if cfg == nil {
		cfg = config.EmptyAssociatorConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if field == nil {
		return nil, fmt.Errorf("%w: chi2 associator needs a magnetic field", ErrConfiguration)
	}
	a := &Chi2Associator{
		cut:          cfg.GetChi2Cut(),
		onlyDiagonal: cfg.GetOnlyDiagonal(),
		minPt:        cfg.GetMinPt(),
		parametrizer: helix.NewParametrizer(field),
		opts:         buildOptions(opts),
	}
	if a.onlyDiagonal {
		monitoring.Logf("chi2 associator: using only the diagonal of the track covariance")
	}
	return a, nil
}

// Name implements Associator.
func (a *Chi2Associator) Name() string { return Chi2Name }

// Cut returns the chi2 acceptance cut.
func (a *Chi2Associator) Cut() float64 { return a.cut }

// simParams holds the comparison parameters of one particle, computed once
// per query and shared by both directions.
type simParams struct {
	ref    ParticleRef
	params *mat.VecDense
	// skip is set for particles below the pT threshold or without a usable
	// state.
	skip bool
	err  error
}

func (a *Chi2Associator) particleParams(ev *event.Event, refs []ParticleRef, applyMinPt bool) []simParams {
	out := make([]simParams, len(refs))
	ref := a.opts.definer.Reference(ev)
	for i, pr := range refs {
		out[i].ref = pr
		if applyMinPt && pr.Particle.Pt() < a.minPt {
			out[i].skip = true
			continue
		}
		st, ok := a.opts.definer.Define(ev, pr.Particle)
		if !ok {
			out[i].skip = true
			continue
		}
		p, err := a.parametrizer.Parameters(st, ref)
		if err != nil {
			out[i].skip = true
			out[i].err = err
			continue
		}
		out[i].params = p.Vector()
	}
	return out
}

// invertCovariance returns the inverse of the track covariance, restricted
// to its diagonal when configured.
func (a *Chi2Associator) invertCovariance(t *event.ReconstructedTrack) (*mat.Dense, error) {
	cov := t.CovarianceSym()
	if a.onlyDiagonal {
		for i := 0; i < event.NumParameters; i++ {
			for j := i + 1; j < event.NumParameters; j++ {
				cov.SetSym(i, j, 0)
			}
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(cov); err != nil {
		return nil, fmt.Errorf("%w: track %s: %v", ErrSingularCovariance, t.ID, err)
	}
	r, c := inv.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := inv.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: track %s", ErrSingularCovariance, t.ID)
			}
		}
	}
	return &inv, nil
}

// chi2 is the single formula used by every query: the quadratic form of
// the parameter difference over the number of parameters.
func chi2(trackParams *mat.VecDense, inv *mat.Dense, sim *mat.VecDense) float64 {
	var diff mat.VecDense
	diff.SubVec(trackParams, sim)
	return mat.Inner(&diff, inv, &diff) / event.NumParameters
}

// AssociateRecoToSim implements Associator.
func (a *Chi2Associator) AssociateRecoToSim(ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, error) {
	m, _, err := a.AssociateRecoToSimDiag(ev, tracks, particles)
	return m, err
}

// AssociateSimToReco implements Associator.
func (a *Chi2Associator) AssociateSimToReco(ev *event.Event, tracks TrackView, particles ParticleView) (*SimToRecoMap, error) {
	m, _, err := a.AssociateSimToRecoDiag(ev, tracks, particles)
	return m, err
}

// AssociateRecoToSimDiag is AssociateRecoToSim that also returns the
// per-pair diagnostics. Pairs whose track covariance cannot be inverted are
// excluded and listed in the diagnostics.
func (a *Chi2Associator) AssociateRecoToSimDiag(ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, Diagnostics, error) {
	start := time.Now()
	var diag Diagnostics
	trackRefs, particleRefs, err := refs(tracks, particles)
	if err != nil {
		return nil, diag, err
	}
	sims := a.particleParams(ev, particleRefs, true)
	diag.SkippedParticles = countSkipped(sims)

	out := NewAssociationMap[TrackRef, ParticleRef]()
	for _, tr := range trackRefs {
		inv, invErr := a.invertCovariance(tr.Track)
		params := tr.Track.ParameterVector()
		for i := range sims {
			sim := &sims[i]
			if sim.skip {
				continue
			}
			if invErr != nil {
				diag.SingularCovariance++
				diag.pairError(tr.Index, sim.ref.Index, invErr)
				continue
			}
			diag.PairsEvaluated++
			c := chi2(params, inv, sim.params)
			monitoring.Debugf("chi2: track %d particle %d chi2=%g", tr.Index, sim.ref.Index, c)
			if c < a.cut {
				out.Insert(tr, sim.ref, -c)
			}
		}
	}
	out.PostInsert()
	a.opts.observe(a.Name(), RecoToSim, out.Links(), diag, start)
	return out, diag, nil
}

// AssociateSimToRecoDiag is AssociateSimToReco that also returns the
// per-pair diagnostics.
func (a *Chi2Associator) AssociateSimToRecoDiag(ev *event.Event, tracks TrackView, particles ParticleView) (*SimToRecoMap, Diagnostics, error) {
	start := time.Now()
	var diag Diagnostics
	trackRefs, particleRefs, err := refs(tracks, particles)
	if err != nil {
		return nil, diag, err
	}
	sims := a.particleParams(ev, particleRefs, true)
	diag.SkippedParticles = countSkipped(sims)

	type inverted struct {
		inv    *mat.Dense
		params *mat.VecDense
		err    error
	}
	invs := make([]inverted, len(trackRefs))
	for i, tr := range trackRefs {
		inv, err := a.invertCovariance(tr.Track)
		invs[i] = inverted{inv: inv, params: tr.Track.ParameterVector(), err: err}
	}

	out := NewAssociationMap[ParticleRef, TrackRef]()
	for i := range sims {
		sim := &sims[i]
		if sim.skip {
			continue
		}
		for j, tr := range trackRefs {
			if invs[j].err != nil {
				diag.SingularCovariance++
				diag.pairError(tr.Index, sim.ref.Index, invs[j].err)
				continue
			}
			diag.PairsEvaluated++
			c := chi2(invs[j].params, invs[j].inv, sim.params)
			monitoring.Debugf("chi2: particle %d track %d chi2=%g", sim.ref.Index, tr.Index, c)
			if c < a.cut {
				out.Insert(sim.ref, tr, -c)
			}
		}
	}
	out.PostInsert()
	a.opts.observe(a.Name(), SimToReco, out.Links(), diag, start)
	return out, diag, nil
}

// PairChi2 returns the chi2 of one track against one particle. The pT
// threshold is not applied.
func (a *Chi2Associator) PairChi2(ev *event.Event, t *event.ReconstructedTrack, p *event.SimulatedParticle) (float64, error) {
	if t == nil || p == nil {
		return 0, contractError("nil track or particle")
	}
	inv, err := a.invertCovariance(t)
	if err != nil {
		return 0, err
	}
	sims := a.particleParams(ev, []ParticleRef{{Particle: p}}, false)
	if sims[0].skip {
		if sims[0].err != nil {
			return 0, fmt.Errorf("particle %s: %w", p.ID, sims[0].err)
		}
		return 0, fmt.Errorf("particle %s: no comparison state", p.ID)
	}
	return chi2(t.ParameterVector(), inv, sims[0].params), nil
}

// Candidate is a particle within the chi2 cut of a track.
type Candidate struct {
	Particle ParticleRef
	Chi2     float64
}

// TrackCandidates lists, for one track, every particle within the cut,
// lowest chi2 first.
type TrackCandidates struct {
	Track      TrackRef
	Candidates []Candidate
}

// CompareTracksParam returns one entry per track, in input order, with all
// particles whose chi2 is below the cut. Unlike the association queries it
// does not apply the pT threshold. Tracks with a singular covariance get an
// empty list and a diagnostic.
func (a *Chi2Associator) CompareTracksParam(ev *event.Event, tracks TrackView, particles ParticleView) ([]TrackCandidates, Diagnostics, error) {
	var diag Diagnostics
	trackRefs, particleRefs, err := refs(tracks, particles)
	if err != nil {
		return nil, diag, err
	}
	sims := a.particleParams(ev, particleRefs, false)
	diag.SkippedParticles = countSkipped(sims)

	out := make([]TrackCandidates, 0, len(trackRefs))
	for _, tr := range trackRefs {
		tc := TrackCandidates{Track: tr}
		inv, invErr := a.invertCovariance(tr.Track)
		params := tr.Track.ParameterVector()
		for i := range sims {
			sim := &sims[i]
			if sim.skip {
				continue
			}
			if invErr != nil {
				diag.SingularCovariance++
				diag.pairError(tr.Index, sim.ref.Index, invErr)
				continue
			}
			diag.PairsEvaluated++
			if c := chi2(params, inv, sim.params); c < a.cut {
				tc.Candidates = append(tc.Candidates, Candidate{Particle: sim.ref, Chi2: c})
			}
		}
		sort.SliceStable(tc.Candidates, func(i, j int) bool {
			return tc.Candidates[i].Chi2 < tc.Candidates[j].Chi2
		})
		out = append(out, tc)
	}
	return out, diag, nil
}

func countSkipped(sims []simParams) int {
	n := 0
	for i := range sims {
		if sims[i].skip {
			n++
		}
	}
	return n
}

func refs(tracks TrackView, particles ParticleView) ([]TrackRef, []ParticleRef, error) {
	trackRefs, err := tracks.Refs()
	if err != nil {
		return nil, nil, err
	}
	particleRefs, err := particles.Refs()
	if err != nil {
		return nil, nil, err
	}
	return trackRefs, particleRefs, nil
}
