package association

import "github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"

// TrackView is the single input form for a track collection. It is built
// either from a whole collection or from a subset of references; the zero
// value is not a valid input.
type TrackView struct {
	refs []TrackRef
	set  bool
}

// TracksFromCollection views every track of a collection. Indices are the
// slice positions.
func TracksFromCollection(tracks []event.ReconstructedTrack) TrackView {
	refs := make([]TrackRef, len(tracks))
	for i := range tracks {
		refs[i] = TrackRef{Index: i, Track: &tracks[i]}
	}
	return TrackView{refs: refs, set: true}
}

// TracksFromRefs views an explicit list of references into a collection.
func TracksFromRefs(refs []TrackRef) TrackView {
	return TrackView{refs: refs, set: true}
}

// Refs validates the view and returns its references.
func (v TrackView) Refs() ([]TrackRef, error) {
	if !v.set {
		return nil, contractError("no track collection supplied")
	}
	seen := make(map[int]struct{}, len(v.refs))
	for i, r := range v.refs {
		if r.Track == nil {
			return nil, contractError("track reference %d is nil", i)
		}
		if _, dup := seen[r.Index]; dup {
			return nil, contractError("duplicate track index %d", r.Index)
		}
		seen[r.Index] = struct{}{}
	}
	return v.refs, nil
}

// ParticleView is the single input form for a simulated particle
// collection.
type ParticleView struct {
	refs []ParticleRef
	set  bool
}

// ParticlesFromCollection views every particle of a collection.
func ParticlesFromCollection(particles []event.SimulatedParticle) ParticleView {
	refs := make([]ParticleRef, len(particles))
	for i := range particles {
		refs[i] = ParticleRef{Index: i, Particle: &particles[i]}
	}
	return ParticleView{refs: refs, set: true}
}

// ParticlesFromRefs views an explicit list of particle references.
func ParticlesFromRefs(refs []ParticleRef) ParticleView {
	return ParticleView{refs: refs, set: true}
}

// Refs validates the view and returns its references.
func (v ParticleView) Refs() ([]ParticleRef, error) {
	if !v.set {
		return nil, contractError("no particle collection supplied")
	}
	seen := make(map[int]struct{}, len(v.refs))
	for i, r := range v.refs {
		if r.Particle == nil {
			return nil, contractError("particle reference %d is nil", i)
		}
		if _, dup := seen[r.Index]; dup {
			return nil, contractError("duplicate particle index %d", r.Index)
		}
		seen[r.Index] = struct{}{}
	}
	return v.refs, nil
}

// SeedView is the single input form for a trajectory seed collection.
type SeedView struct {
	refs []SeedRef
	set  bool
}

// SeedsFromCollection views every seed of a collection.
func SeedsFromCollection(seeds []event.TrajectorySeed) SeedView {
	refs := make([]SeedRef, len(seeds))
	for i := range seeds {
		refs[i] = SeedRef{Index: i, Seed: &seeds[i]}
	}
	return SeedView{refs: refs, set: true}
}

// Refs validates the view and returns its references.
func (v SeedView) Refs() ([]SeedRef, error) {
	if !v.set {
		return nil, contractError("no seed collection supplied")
	}
	for i, r := range v.refs {
		if r.Seed == nil {
			return nil, contractError("seed reference %d is nil", i)
		}
	}
	return v.refs, nil
}
