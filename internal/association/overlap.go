package association

import "github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"

// SharedHitTally counts, for one reconstructed track, how many of its hits
// resolve to each simulated-track identifier. A merged hit counts once
// toward every identifier it resolves to.
type SharedHitTally struct {
	counts map[event.HitIdentifier]int
	hits   []resolvedHit
}

type resolvedHit struct {
	det event.DetID
	ids []event.HitIdentifier
}

// NewSharedHitTally resolves every hit of a track once and tallies the
// identifiers.
func NewSharedHitTally(r *IdentifierResolver, ev *event.Event, hits []event.RecHit) (*SharedHitTally, error) {
	if err := r.check(ev); err != nil {
		return nil, err
	}
	t := &SharedHitTally{counts: make(map[event.HitIdentifier]int)}
	for _, h := range hits {
		if !h.Valid || !r.filter.Accepts(h.DetID) {
			continue
		}
		ids := r.resolve(h)
		t.hits = append(t.hits, resolvedHit{det: h.DetID, ids: ids})
		for _, id := range ids {
			t.counts[id]++
		}
	}
	return t, nil
}

// RecoHits is the number of considered hits on the track.
func (t *SharedHitTally) RecoHits() int { return len(t.hits) }

// Count returns the number of hits resolving to id.
func (t *SharedHitTally) Count(id event.HitIdentifier) int { return t.counts[id] }

// Total returns the number of hits that resolved to at least one
// identifier. A merged hit counts once, so Total never exceeds RecoHits.
func (t *SharedHitTally) Total() int {
	n := 0
	for _, h := range t.hits {
		if len(h.ids) > 0 {
			n++
		}
	}
	return n
}

// Shared returns the number of track hits produced by a particle whose
// truth hits carry ids. A hit resolving to several identifiers of the same
// particle counts once, and with a layer policy the two sensor hits of one
// glued module count once.
func (t *SharedHitTally) Shared(ids map[event.HitIdentifier]struct{}, policy LayerPolicy) int {
	naive := 0
	for id := range ids {
		naive += t.counts[id]
	}
	if naive == 0 {
		return 0
	}
	return naive - t.doubleCount(ids, policy)
}

func (t *SharedHitTally) doubleCount(ids map[event.HitIdentifier]struct{}, policy LayerPolicy) int {
	double := 0
	var matched []event.DetID
	for _, h := range t.hits {
		k := 0
		for _, id := range h.ids {
			if _, ok := ids[id]; ok {
				k++
			}
		}
		if k == 0 {
			continue
		}
		double += k - 1
		matched = append(matched, h.det)
	}
	if policy == nil {
		return double
	}
	for i := 0; i+1 < len(matched); i++ {
		if sameGluedModule(policy, matched[i], matched[i+1]) {
			double++
			i++
		}
	}
	return double
}

func sameGluedModule(policy LayerPolicy, a, b event.DetID) bool {
	if a == b {
		return false
	}
	ga, okA := policy.GluedGroup(a)
	gb, okB := policy.GluedGroup(b)
	return okA && okB && ga == gb
}
