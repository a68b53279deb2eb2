// Package matcher maps reconstructed tracks to the stable generator-level
// particle behind their best associated simulated particle.
package matcher

import (
	"errors"
	"fmt"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
)

// ErrInvalidReference is returned when a simulated particle names a
// generator particle that is not in the generator collection.
var ErrInvalidReference = errors.New("matcher: generator particle not in collection")

// Unmatched is the generator index reported for tracks without a match.
const Unmatched = -1

// StableStatus is the generator status code of final-state particles.
const StableStatus = 1

// Matcher runs an associator and follows each track's best particle to its
// generator ancestor.
type Matcher struct {
	Associator association.Associator
}

// New returns a Matcher using a.
func New(a association.Associator) *Matcher {
	return &Matcher{Associator: a}
}

// Match returns, for every track in view order, the index into genBarcodes
// of the stable generator particle behind the track, or Unmatched.
func (m *Matcher) Match(ev *event.Event, tracks association.TrackView, particles association.ParticleView, genBarcodes []int) ([]int, error) {
	if m.Associator == nil {
		return nil, fmt.Errorf("matcher: no associator configured")
	}
	refs, err := tracks.Refs()
	if err != nil {
		return nil, err
	}
	r2s, err := m.Associator.AssociateRecoToSim(ev, tracks, particles)
	if err != nil {
		return nil, fmt.Errorf("matcher: association failed: %w", err)
	}
	return FromAssociation(refs, r2s, genBarcodes)
}

// FromAssociation resolves generator indices from an existing RecoToSim
// map.
func FromAssociation(tracks []association.TrackRef, r2s *association.RecoToSimMap, genBarcodes []int) ([]int, error) {
	byBarcode := make(map[int]int, len(genBarcodes))
	for i, b := range genBarcodes {
		if _, dup := byBarcode[b]; !dup {
			byBarcode[b] = i
		}
	}

	out := make([]int, len(tracks))
	for i, tr := range tracks {
		out[i] = Unmatched
		best, ok := r2s.Best(tr.Index)
		if !ok {
			continue
		}
		gen, ok := stableAncestor(best.Ref.Particle)
		if !ok {
			monitoring.Debugf("matcher: track %d particle %d has no stable generator particle", tr.Index, best.Ref.Index)
			continue
		}
		idx, ok := byBarcode[gen.Barcode]
		if !ok {
			return nil, fmt.Errorf("%w: barcode %d (track %d, particle %s)",
				ErrInvalidReference, gen.Barcode, tr.Index, best.Ref.Particle.ID)
		}
		out[i] = idx
	}
	return out, nil
}

func stableAncestor(p *event.SimulatedParticle) (event.GenRef, bool) {
	if p == nil {
		return event.GenRef{}, false
	}
	for _, g := range p.GenParticles {
		if g.Status == StableStatus {
			return g, true
		}
	}
	return event.GenRef{}, false
}
