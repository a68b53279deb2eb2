package association

import (
	"fmt"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

// HitFilter selects which tracker partitions take part in hit matching.
type HitFilter struct {
	Pixel bool
	Strip bool
}

// Accepts reports whether hits on id are considered.
func (f HitFilter) Accepts(id event.DetID) bool {
	sub := id.Subdetector()
	switch {
	case sub.IsPixel():
		return f.Pixel
	case sub.IsStrip():
		return f.Strip
	default:
		return false
	}
}

// IdentifierResolver resolves reconstructed hits to the simulated tracks
// that produced them, memoising each hit. It belongs to exactly one event:
// resolving against any other event fails with ErrCrossEventCache.
type IdentifierResolver struct {
	ev     *event.Event
	filter HitFilter
	memo   map[event.HitKey][]event.HitIdentifier
}

// NewIdentifierResolver builds a resolver for ev. The event must carry a
// link table.
func NewIdentifierResolver(ev *event.Event, filter HitFilter) (*IdentifierResolver, error) {
	if ev == nil {
		return nil, contractError("hit association needs an event context")
	}
	if ev.Links == nil {
		return nil, contractError("event %s has no hit link table", ev.Key)
	}
	return &IdentifierResolver{
		ev:     ev,
		filter: filter,
		memo:   make(map[event.HitKey][]event.HitIdentifier),
	}, nil
}

// Event returns the event the resolver was built for.
func (r *IdentifierResolver) Event() *event.Event { return r.ev }

// Matches reports whether the resolver was built for ev.
func (r *IdentifierResolver) Matches(ev *event.Event) bool {
	return r != nil && ev == r.ev
}

func (r *IdentifierResolver) check(ev *event.Event) error {
	if r.Matches(ev) {
		return nil
	}
	var key string
	if ev != nil {
		key = ev.Key.String()
	}
	return fmt.Errorf("%w: resolver built for %s, queried with %q", ErrCrossEventCache, r.ev.Key, key)
}

// Resolve returns the distinct identifiers behind hit h, in link order.
// Invalid hits and hits on filtered partitions resolve to nothing.
func (r *IdentifierResolver) Resolve(ev *event.Event, h event.RecHit) ([]event.HitIdentifier, error) {
	if err := r.check(ev); err != nil {
		return nil, err
	}
	return r.resolve(h), nil
}

func (r *IdentifierResolver) resolve(h event.RecHit) []event.HitIdentifier {
	if !h.Valid || !r.filter.Accepts(h.DetID) {
		return nil
	}
	key := h.Key()
	if ids, ok := r.memo[key]; ok {
		return ids
	}
	links := r.ev.Links.Lookup(key)
	var ids []event.HitIdentifier
	for _, l := range links {
		if !containsID(ids, l.ID) {
			ids = append(ids, l.ID)
		}
	}
	r.memo[key] = ids
	return ids
}

// Cached returns the number of memoised hits.
func (r *IdentifierResolver) Cached() int { return len(r.memo) }

func containsID(ids []event.HitIdentifier, id event.HitIdentifier) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// particleHits is the precomputed truth-side view of one particle.
type particleHits struct {
	ref ParticleRef
	ids map[event.HitIdentifier]struct{}
	// total is the number of distinct modules with a considered truth hit,
	// glued pairs counted once when a layer policy is set.
	total int
}

func newParticleHits(ref ParticleRef, filter HitFilter, policy LayerPolicy) particleHits {
	ph := particleHits{ref: ref, ids: make(map[event.HitIdentifier]struct{}, 2)}
	modules := make(map[event.DetID]struct{}, len(ref.Particle.TruthHits))
	for _, h := range ref.Particle.TruthHits {
		ph.ids[h.ID] = struct{}{}
		if !filter.Accepts(h.DetID) {
			continue
		}
		id := h.DetID
		if policy != nil {
			if g, ok := policy.GluedGroup(id); ok {
				id = g
			}
		}
		modules[id] = struct{}{}
	}
	ph.total = len(modules)
	return ph
}
