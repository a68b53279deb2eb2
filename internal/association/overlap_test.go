package association

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/testutil"
)

var allHits = HitFilter{Pixel: true, Strip: true}

func TestHitFilter(t *testing.T) {
	px := event.NewDetID(event.SubdetPixelBarrel, 1, 0, 1, event.StereoNone)
	tec := event.NewDetID(event.SubdetTEC, 1, 1, 1, event.StereoNone)

	assert.True(t, allHits.Accepts(px))
	assert.True(t, allHits.Accepts(tec))
	assert.False(t, HitFilter{Strip: true}.Accepts(px))
	assert.False(t, HitFilter{Pixel: true}.Accepts(tec))
	assert.False(t, allHits.Accepts(event.DetID(0)))
}

func TestResolverDeduplicatesAndSkipsInvalid(t *testing.T) {
	a := event.HitIdentifier{TrackID: 1}
	b := event.HitIdentifier{TrackID: 2}
	det := event.NewDetID(event.SubdetTIB, 1, 0, 1, event.StereoNone)
	key := event.HitKey{DetID: det, Cluster: 4}
	links := event.MapLinkTable{key: {{ID: a, Fraction: 0.5}, {ID: b, Fraction: 0.3}, {ID: a, Fraction: 0.2}}}
	ev := &event.Event{Links: links}

	r, err := NewIdentifierResolver(ev, allHits)
	require.NoError(t, err)

	ids, err := r.Resolve(ev, event.RecHit{DetID: det, Cluster: 4, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, []event.HitIdentifier{a, b}, ids)

	ids, err = r.Resolve(ev, event.RecHit{DetID: det, Cluster: 4, Valid: false})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, r.Cached())
}

func TestTallyInvariant(t *testing.T) {
	f := consistencyFixture()
	r, err := NewIdentifierResolver(f.Event, allHits)
	require.NoError(t, err)

	for i, tr := range f.Tracks {
		tally, err := NewSharedHitTally(r, f.Event, tr.Hits)
		require.NoError(t, err)
		assert.LessOrEqual(t, tally.Total(), len(tr.Hits), "track %d", i)
		assert.Equal(t, tr.NumberOfValidHits(), tally.RecoHits())
		for j := range f.Particles {
			ph := newParticleHits(ParticleRef{Index: j, Particle: &f.Particles[j]}, allHits, nil)
			assert.LessOrEqual(t, tally.Shared(ph.ids, nil), tally.RecoHits(), "track %d particle %d", i, j)
		}
	}
}

func TestTallyInvariantWithMergedHit(t *testing.T) {
	f := testutil.NewFixture(event.EventKey{Run: 6})
	p0 := f.AddParticle("p0", 4)
	p1 := f.AddParticle("p1", 2)
	trk := f.AddTrack("t0", p0, p0, p0, p0)
	merged := f.Tracks[trk].Hits[0]
	f.Link(merged, p1)

	r, err := NewIdentifierResolver(f.Event, allHits)
	require.NoError(t, err)
	tally, err := NewSharedHitTally(r, f.Event, f.Tracks[trk].Hits)
	require.NoError(t, err)

	ids, err := r.Resolve(f.Event, merged)
	require.NoError(t, err)
	require.Len(t, ids, 2, "first hit is shared by both particles")
	assert.Equal(t, 4, tally.RecoHits())
	assert.Equal(t, 4, tally.Total())
	assert.LessOrEqual(t, tally.Total(), len(f.Tracks[trk].Hits))

	ph1 := newParticleHits(ParticleRef{Index: p1, Particle: &f.Particles[p1]}, allHits, nil)
	assert.Equal(t, 1, tally.Shared(ph1.ids, nil))
}

func TestTallySharedWithSplitIdentifiers(t *testing.T) {
	// One particle left hits under two simulated track ids; the first track
	// hit resolves to both.
	idA := event.HitIdentifier{TrackID: 10}
	idB := event.HitIdentifier{TrackID: 11}
	f := testutil.NewFixture(event.EventKey{Run: 5})
	h1 := event.RecHit{DetID: f.NextModule(), Valid: true}
	h2 := event.RecHit{DetID: f.NextModule(), Valid: true}
	links := f.Event.Links.(event.MapLinkTable)
	links.Add(h1.Key(), event.SimLink{ID: idA}, event.SimLink{ID: idB})
	links.Add(h2.Key(), event.SimLink{ID: idA})

	r, err := NewIdentifierResolver(f.Event, allHits)
	require.NoError(t, err)
	tally, err := NewSharedHitTally(r, f.Event, []event.RecHit{h1, h2})
	require.NoError(t, err)

	assert.Equal(t, 2, tally.Count(idA))
	assert.Equal(t, 1, tally.Count(idB))
	ids := map[event.HitIdentifier]struct{}{idA: {}, idB: {}}
	assert.Equal(t, 2, tally.Shared(ids, nil))
	assert.Equal(t, 1, tally.Shared(map[event.HitIdentifier]struct{}{idB: {}}, nil))
	assert.Zero(t, tally.Shared(map[event.HitIdentifier]struct{}{{TrackID: 99}: {}}, nil))
}

func TestTallyRejectsForeignEvent(t *testing.T) {
	f := consistencyFixture()
	other := consistencyFixture()
	r, err := NewIdentifierResolver(f.Event, allHits)
	require.NoError(t, err)

	_, err = NewSharedHitTally(r, other.Event, other.Tracks[0].Hits)
	assert.ErrorIs(t, err, ErrCrossEventCache)
}
