package association

import (
	"sort"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

// Ref is an element reference usable as an association key or value. Pos
// is the element's index in the collection it was taken from.
type Ref interface {
	Pos() int
}

// TrackRef refers to a reconstructed track by collection index.
type TrackRef struct {
	Index int
	Track *event.ReconstructedTrack
}

// Pos implements Ref.
func (r TrackRef) Pos() int { return r.Index }

// ParticleRef refers to a simulated particle by collection index.
type ParticleRef struct {
	Index    int
	Particle *event.SimulatedParticle
}

// Pos implements Ref.
func (r ParticleRef) Pos() int { return r.Index }

// SeedRef refers to a trajectory seed by collection index.
type SeedRef struct {
	Index int
	Seed  *event.TrajectorySeed
}

// Pos implements Ref.
func (r SeedRef) Pos() int { return r.Index }

// Match is one ranked association with its quality score.
type Match[V Ref] struct {
	Ref     V
	Quality float64
}

// Entry is a key and its matches, best first.
type Entry[K Ref, V Ref] struct {
	Key     K
	Matches []Match[V]
}

// AssociationMap is a many-to-many ranked association from one collection
// to another. Keys are ordered by collection index and each key's matches
// by descending quality, with ties kept in insertion order.
//
// A map is built by one query and is read-only afterwards.
type AssociationMap[K Ref, V Ref] struct {
	entries  []Entry[K, V]
	byPos    map[int]int
	computed bool
}

// RecoToSimMap associates tracks to particles.
type RecoToSimMap = AssociationMap[TrackRef, ParticleRef]

// SimToRecoMap associates particles to tracks.
type SimToRecoMap = AssociationMap[ParticleRef, TrackRef]

// SeedToSimMap associates seeds to particles.
type SeedToSimMap = AssociationMap[SeedRef, ParticleRef]

// SimToSeedMap associates particles to seeds.
type SimToSeedMap = AssociationMap[ParticleRef, SeedRef]

// NewAssociationMap returns an empty computed map.
func NewAssociationMap[K Ref, V Ref]() *AssociationMap[K, V] {
	return &AssociationMap[K, V]{byPos: make(map[int]int), computed: true}
}

// NotComputed returns the empty marker used for queries an associator does
// not implement. It is distinguishable from a computed map without matches.
func NotComputed[K Ref, V Ref]() *AssociationMap[K, V] {
	return &AssociationMap[K, V]{byPos: make(map[int]int)}
}

// Insert appends a match for key.
func (m *AssociationMap[K, V]) Insert(key K, value V, quality float64) {
	i, ok := m.byPos[key.Pos()]
	if !ok {
		i = len(m.entries)
		m.byPos[key.Pos()] = i
		m.entries = append(m.entries, Entry[K, V]{Key: key})
	}
	m.entries[i].Matches = append(m.entries[i].Matches, Match[V]{Ref: value, Quality: quality})
}

// PostInsert establishes the map ordering. Associators call it once after
// the last Insert.
func (m *AssociationMap[K, V]) PostInsert() {
	sort.SliceStable(m.entries, func(a, b int) bool {
		return m.entries[a].Key.Pos() < m.entries[b].Key.Pos()
	})
	for i := range m.entries {
		m.byPos[m.entries[i].Key.Pos()] = i
		matches := m.entries[i].Matches
		sort.SliceStable(matches, func(a, b int) bool {
			return matches[a].Quality > matches[b].Quality
		})
	}
}

// Computed reports whether the map is the result of an implemented query.
func (m *AssociationMap[K, V]) Computed() bool { return m != nil && m.computed }

// Len returns the number of keys with at least one match.
func (m *AssociationMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Links returns the total number of matches over all keys.
func (m *AssociationMap[K, V]) Links() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, e := range m.entries {
		n += len(e.Matches)
	}
	return n
}

// Entries returns the keys and their matches in map order. The slice must
// not be modified.
func (m *AssociationMap[K, V]) Entries() []Entry[K, V] {
	if m == nil {
		return nil
	}
	return m.entries
}

// Lookup returns the matches for key, best first.
func (m *AssociationMap[K, V]) Lookup(key K) ([]Match[V], bool) {
	return m.LookupIndex(key.Pos())
}

// LookupIndex returns the matches for the key at collection index pos.
func (m *AssociationMap[K, V]) LookupIndex(pos int) ([]Match[V], bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.byPos[pos]
	if !ok {
		return nil, false
	}
	return m.entries[i].Matches, true
}

// Best returns the highest quality match for the key at pos.
func (m *AssociationMap[K, V]) Best(pos int) (Match[V], bool) {
	matches, ok := m.LookupIndex(pos)
	if !ok || len(matches) == 0 {
		var zero Match[V]
		return zero, false
	}
	return matches[0], true
}
