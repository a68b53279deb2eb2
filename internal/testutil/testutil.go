// Package testutil provides shared test assertions and event fixtures.
package testutil

import (
	"errors"
	"sort"
	"testing"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless err wraps target.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// Noise marks a track hit that no simulated particle produced.
const Noise = -1

// Fixture builds one event with tracks whose hits are linked to simulated
// particles. Every truth hit sits on its own TIB module.
type Fixture struct {
	Event     *event.Event
	Tracks    []event.ReconstructedTrack
	Particles []event.SimulatedParticle

	links  event.MapLinkTable
	used   []int
	module int
}

// NewFixture returns an empty fixture for the event key.
func NewFixture(key event.EventKey) *Fixture {
	links := event.MapLinkTable{}
	return &Fixture{
		Event: &event.Event{Key: key, Links: links},
		links: links,
	}
}

// NextModule returns a fresh single-sided TIB module id.
func (f *Fixture) NextModule() event.DetID {
	f.module++
	return event.NewDetID(event.SubdetTIB, 1, 0, f.module, event.StereoNone)
}

// Identifier returns the hit identifier of particle i.
func Identifier(i int) event.HitIdentifier {
	return event.HitIdentifier{TrackID: uint32(i + 1), EventID: event.NewEncodedEventID(0, 0)}
}

// AddParticle adds a particle with nHits truth hits and returns its index.
func (f *Fixture) AddParticle(id string, nHits int) int {
	idx := len(f.Particles)
	p := event.SimulatedParticle{ID: id, Charge: 1}
	for k := 0; k < nHits; k++ {
		p.TruthHits = append(p.TruthHits, event.TruthHit{ID: Identifier(idx), DetID: f.NextModule()})
	}
	f.Particles = append(f.Particles, p)
	f.used = append(f.used, 0)
	return idx
}

// AddTrack adds a track with one valid hit per source and returns its index.
// A source is a particle index, whose next unused truth hit the track hit
// reproduces, or Noise.
func (f *Fixture) AddTrack(id string, sources ...int) int {
	t := event.ReconstructedTrack{ID: id}
	for _, src := range sources {
		t.Hits = append(t.Hits, f.hitFrom(src))
	}
	f.Tracks = append(f.Tracks, t)
	return len(f.Tracks) - 1
}

// Link adds a link for hit h to particle i, making h a merged hit when it
// already has one.
func (f *Fixture) Link(h event.RecHit, i int) {
	f.links.Add(h.Key(), event.SimLink{ID: Identifier(i), Fraction: 0.5})
}

// Record converts the fixture into an event file record. Link records are
// ordered by module then cluster.
func (f *Fixture) Record() event.Record {
	keys := make([]event.HitKey, 0, len(f.links))
	for k := range f.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DetID != keys[j].DetID {
			return keys[i].DetID < keys[j].DetID
		}
		return keys[i].Cluster < keys[j].Cluster
	})
	rec := event.Record{
		Key:       f.Event.Key,
		BeamSpot:  f.Event.BeamSpot,
		Tracks:    f.Tracks,
		Particles: f.Particles,
	}
	for _, k := range keys {
		rec.Links = append(rec.Links, event.LinkRecord{DetID: k.DetID, Cluster: k.Cluster, Links: f.links[k]})
	}
	return rec
}

func (f *Fixture) hitFrom(src int) event.RecHit {
	if src == Noise {
		return event.RecHit{DetID: f.NextModule(), Valid: true}
	}
	p := &f.Particles[src]
	var det event.DetID
	if f.used[src] < len(p.TruthHits) {
		det = p.TruthHits[f.used[src]].DetID
	} else {
		det = f.NextModule()
	}
	f.used[src]++
	h := event.RecHit{DetID: det, Valid: true}
	f.links.Add(h.Key(), event.SimLink{ID: Identifier(src), Fraction: 1})
	return h
}
