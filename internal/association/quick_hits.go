package association

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/config"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
)

// QuickHitsName is the name reported by QuickHitAssociator.
const QuickHitsName = "quick_hits"

// QuickHitAssociator associates tracks and particles by the number of
// detector hits they share.
//
// It keeps one IdentifierResolver for the most recent event and replaces it
// as soon as a query names a different event. Queries for different events
// must not run concurrently on one instance.
type QuickHitAssociator struct {
	seedsUnsupported

	absolute         bool
	qualitySimToReco float64
	puritySimToReco  float64
	cutRecoToSim     float64
	threeHitSpecial  bool
	useRecoDenom     bool
	filter           HitFilter
	opts             options

	mu       sync.Mutex
	resolver *IdentifierResolver
}

var (
	_ Associator     = (*QuickHitAssociator)(nil)
	_ SeedAssociator = (*QuickHitAssociator)(nil)
)

// NewQuickHitAssociator builds a hit associator from cfg.
func NewQuickHitAssociator(cfg *config.AssociatorConfig, opts ...Option) (*QuickHitAssociator, error) {
	if cfg == nil {
		cfg = config.EmptyAssociatorConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	a := &QuickHitAssociator{
		absolute:         cfg.GetAbsoluteNumberOfHits(),
		qualitySimToReco: cfg.GetQualitySimToReco(),
		puritySimToReco:  cfg.GetPuritySimToReco(),
		cutRecoToSim:     cfg.GetCutRecoToSim(),
		threeHitSpecial:  cfg.GetThreeHitTracksAreSpecial(),
		filter:           HitFilter{Pixel: cfg.GetAssociatePixel(), Strip: cfg.GetAssociateStrip()},
		opts:             buildOptions(opts),
	}
	switch d := cfg.GetSimToRecoDenominator(); d {
	case config.DenominatorSim:
	case config.DenominatorReco:
		a.useRecoDenom = true
	default:
		return nil, fmt.Errorf("%w: unknown sim_to_reco_denominator %q", ErrConfiguration, d)
	}
	if !a.filter.Pixel && !a.filter.Strip {
		monitoring.Logf("quick hit associator: pixel and strip association both disabled, no hit can match")
	}
	return a, nil
}

// Name implements Associator.
func (a *QuickHitAssociator) Name() string { return QuickHitsName }

// AssociateRecoToSim implements Associator.
func (a *QuickHitAssociator) AssociateRecoToSim(ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, error) {
	start := time.Now()
	r, err := a.resolverFor(ev)
	if err != nil {
		return nil, err
	}
	recoToSim, _, diag, err := a.associate(r, ev, tracks, particles)
	if err != nil {
		return nil, err
	}
	a.opts.observe(a.Name(), RecoToSim, recoToSim.Links(), diag, start)
	return recoToSim, nil
}

// AssociateSimToReco implements Associator.
func (a *QuickHitAssociator) AssociateSimToReco(ev *event.Event, tracks TrackView, particles ParticleView) (*SimToRecoMap, error) {
	start := time.Now()
	r, err := a.resolverFor(ev)
	if err != nil {
		return nil, err
	}
	_, simToReco, diag, err := a.associate(r, ev, tracks, particles)
	if err != nil {
		return nil, err
	}
	a.opts.observe(a.Name(), SimToReco, simToReco.Links(), diag, start)
	return simToReco, nil
}

// Resolver returns the identifier resolver the associator would use for ev,
// building a new one if ev is not the cached event.
func (a *QuickHitAssociator) Resolver(ev *event.Event) (*IdentifierResolver, error) {
	return a.resolverFor(ev)
}

func (a *QuickHitAssociator) resolverFor(ev *event.Event) (*IdentifierResolver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolver.Matches(ev) {
		return a.resolver, nil
	}
	r, err := NewIdentifierResolver(ev, a.filter)
	if err != nil {
		return nil, err
	}
	a.resolver = r
	return r, nil
}

// AssociateWithResolver computes both directions in one pass using an
// explicit resolver and reports one observation per direction. The
// resolver must have been built for ev.
func (a *QuickHitAssociator) AssociateWithResolver(r *IdentifierResolver, ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, *SimToRecoMap, error) {
	start := time.Now()
	recoToSim, simToReco, diag, err := a.associate(r, ev, tracks, particles)
	if err != nil {
		return nil, nil, err
	}
	a.opts.observe(a.Name(), RecoToSim, recoToSim.Links(), diag, start)
	a.opts.observe(a.Name(), SimToReco, simToReco.Links(), diag, start)
	return recoToSim, simToReco, nil
}

func (a *QuickHitAssociator) associate(r *IdentifierResolver, ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, *SimToRecoMap, Diagnostics, error) {
	var diag Diagnostics
	if r == nil {
		return nil, nil, diag, contractError("no identifier resolver")
	}
	if err := r.check(ev); err != nil {
		return nil, nil, diag, err
	}
	trackRefs, err := tracks.Refs()
	if err != nil {
		return nil, nil, diag, err
	}
	particleRefs, err := particles.Refs()
	if err != nil {
		return nil, nil, diag, err
	}

	sims := make([]particleHits, len(particleRefs))
	byID := make(map[event.HitIdentifier][]int)
	for i, ref := range particleRefs {
		sims[i] = newParticleHits(ref, a.filter, a.opts.policy)
		for id := range sims[i].ids {
			byID[id] = append(byID[id], i)
		}
	}

	recoToSim := NewAssociationMap[TrackRef, ParticleRef]()
	simToReco := NewAssociationMap[ParticleRef, TrackRef]()

	for _, tr := range trackRefs {
		tally, err := NewSharedHitTally(r, ev, tr.Track.Hits)
		if err != nil {
			return nil, nil, diag, err
		}
		recoHits := tally.RecoHits()
		if recoHits == 0 {
			continue
		}
		for _, pi := range candidates(tally, byID) {
			sim := &sims[pi]
			diag.PairsEvaluated++
			shared := tally.Shared(sim.ids, a.opts.policy)
			if shared <= 0 {
				continue
			}
			if a.threeHitSpecial && recoHits == 3 && shared < recoHits {
				continue
			}
			if q, ok := a.recoToSimQuality(shared, recoHits); ok {
				recoToSim.Insert(tr, sim.ref, q)
			}
			if q, ok := a.simToRecoQuality(shared, recoHits, sim.total); ok {
				simToReco.Insert(sim.ref, tr, q)
			}
			monitoring.Debugf("quick hits: track %d particle %d shared=%d reco=%d sim=%d",
				tr.Index, sim.ref.Index, shared, recoHits, sim.total)
		}
	}
	recoToSim.PostInsert()
	simToReco.PostInsert()
	return recoToSim, simToReco, diag, nil
}

// candidates returns, in particle order, the particles sharing at least one
// identifier with the tally.
func candidates(t *SharedHitTally, byID map[event.HitIdentifier][]int) []int {
	seen := make(map[int]struct{})
	var out []int
	for id := range t.counts {
		for _, pi := range byID[id] {
			if _, ok := seen[pi]; ok {
				continue
			}
			seen[pi] = struct{}{}
			out = append(out, pi)
		}
	}
	sort.Ints(out)
	return out
}

func (a *QuickHitAssociator) recoToSimQuality(shared, recoHits int) (float64, bool) {
	if a.absolute {
		q := float64(shared)
		return q, q >= a.cutRecoToSim
	}
	q := float64(shared) / float64(recoHits)
	return q, q >= a.cutRecoToSim
}

func (a *QuickHitAssociator) simToRecoQuality(shared, recoHits, simHits int) (float64, bool) {
	if a.absolute {
		q := float64(shared)
		return q, q >= a.qualitySimToReco
	}
	denom := simHits
	if a.useRecoDenom {
		denom = recoHits
	}
	if denom == 0 {
		return 0, false
	}
	q := float64(shared) / float64(denom)
	purity := float64(shared) / float64(recoHits)
	return q, q >= a.qualitySimToReco && purity >= a.puritySimToReco
}
