package association

import (
	"time"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/helix"
)

// Associator is implemented by every association strategy. Both queries are
// pure functions of their inputs and the associator configuration; ev
// supplies per-event data such as the beam spot and hit links.
type Associator interface {
	Name() string
	AssociateRecoToSim(ev *event.Event, tracks TrackView, particles ParticleView) (*RecoToSimMap, error)
	AssociateSimToReco(ev *event.Event, tracks TrackView, particles ParticleView) (*SimToRecoMap, error)
}

// SeedAssociator is the capability to associate pre-fit seeds. An
// associator that does not implement seed matching returns maps for which
// Computed is false.
type SeedAssociator interface {
	AssociateSeedRecoToSim(ev *event.Event, seeds SeedView, particles ParticleView) (*SeedToSimMap, error)
	AssociateSeedSimToReco(ev *event.Event, seeds SeedView, particles ParticleView) (*SimToSeedMap, error)
}

// Direction names the key collection of an association query.
type Direction string

const (
	RecoToSim Direction = "reco_to_sim"
	SimToReco Direction = "sim_to_reco"
)

// Diagnostics collects per-pair conditions that did not abort a query.
type Diagnostics struct {
	PairsEvaluated     int
	SkippedParticles   int
	SingularCovariance int
	PairErrors         []*PairError
}

func (d *Diagnostics) pairError(track, particle int, err error) {
	d.PairErrors = append(d.PairErrors, &PairError{Track: track, Particle: particle, Err: err})
}

// QueryStats summarises one finished query for an Observer.
type QueryStats struct {
	Associator  string
	Direction   Direction
	Links       int
	Diagnostics Diagnostics
	Duration    time.Duration
}

// Observer receives a summary after every successful query.
type Observer interface {
	ObserveQuery(QueryStats)
}

// LayerPolicy describes which detector modules are the two sensors of one
// glued module. Hits on both sensors from the same particle count once.
type LayerPolicy interface {
	// GluedGroup returns the glued module id the sensor belongs to, and
	// false for modules that are not part of a glued pair.
	GluedGroup(id event.DetID) (event.DetID, bool)
}

type options struct {
	observer Observer
	policy   LayerPolicy
	definer  helix.Definer
}

// Option configures an associator. Options that do not apply to a given
// associator are ignored.
type Option func(*options)

// WithObserver reports query summaries to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithLayerPolicy enables the glued-module double count correction.
func WithLayerPolicy(p LayerPolicy) Option {
	return func(opts *options) { opts.policy = p }
}

// WithDefiner selects how a particle's comparison state is chosen by the
// chi2 associator. The default uses the production vertex.
func WithDefiner(d helix.Definer) Option {
	return func(opts *options) { opts.definer = d }
}

func buildOptions(opts []Option) options {
	o := options{definer: helix.ProductionDefiner{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) observe(name string, dir Direction, links int, diag Diagnostics, start time.Time) {
	if o.observer == nil {
		return
	}
	o.observer.ObserveQuery(QueryStats{
		Associator:  name,
		Direction:   dir,
		Links:       links,
		Diagnostics: diag,
		Duration:    time.Since(start),
	})
}

// seedsUnsupported provides the SeedAssociator capability for associators
// that do not match seeds.
type seedsUnsupported struct{}

// AssociateSeedRecoToSim returns a map for which Computed is false.
func (seedsUnsupported) AssociateSeedRecoToSim(_ *event.Event, seeds SeedView, particles ParticleView) (*SeedToSimMap, error) {
	if _, err := seeds.Refs(); err != nil {
		return nil, err
	}
	if _, err := particles.Refs(); err != nil {
		return nil, err
	}
	return NotComputed[SeedRef, ParticleRef](), nil
}

// AssociateSeedSimToReco returns a map for which Computed is false.
func (seedsUnsupported) AssociateSeedSimToReco(_ *event.Event, seeds SeedView, particles ParticleView) (*SimToSeedMap, error) {
	if _, err := seeds.Refs(); err != nil {
		return nil, err
	}
	if _, err := particles.Refs(); err != nil {
		return nil, err
	}
	return NotComputed[ParticleRef, SeedRef](), nil
}
