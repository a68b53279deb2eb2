package association

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

func TestViewsFromCollection(t *testing.T) {
	tracks := []event.ReconstructedTrack{{ID: "a"}, {ID: "b"}}
	refs, err := TracksFromCollection(tracks).Refs()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, 1, refs[1].Index)
	assert.Same(t, &tracks[1], refs[1].Track)

	prefs, err := ParticlesFromCollection(nil).Refs()
	require.NoError(t, err)
	assert.Empty(t, prefs)

	srefs, err := SeedsFromCollection([]event.TrajectorySeed{{ID: "s"}}).Refs()
	require.NoError(t, err)
	assert.Len(t, srefs, 1)
}

func TestViewsInputContract(t *testing.T) {
	track := &event.ReconstructedTrack{}
	particle := &event.SimulatedParticle{}
	cases := map[string]func() error{
		"unset tracks":    func() error { _, err := TrackView{}.Refs(); return err },
		"unset particles": func() error { _, err := ParticleView{}.Refs(); return err },
		"unset seeds":     func() error { _, err := SeedView{}.Refs(); return err },
		"nil track": func() error {
			_, err := TracksFromRefs([]TrackRef{{Index: 0}}).Refs()
			return err
		},
		"duplicate track": func() error {
			_, err := TracksFromRefs([]TrackRef{{Index: 3, Track: track}, {Index: 3, Track: track}}).Refs()
			return err
		},
		"nil particle": func() error {
			_, err := ParticlesFromRefs([]ParticleRef{{Index: 0}}).Refs()
			return err
		},
		"duplicate particle": func() error {
			_, err := ParticlesFromRefs([]ParticleRef{{Index: 1, Particle: particle}, {Index: 1, Particle: particle}}).Refs()
			return err
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(), ErrInputContract)
		})
	}
}

func TestSubsetViewMatchesCollection(t *testing.T) {
	tracks := []event.ReconstructedTrack{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	subset := TracksFromRefs([]TrackRef{{Index: 2, Track: &tracks[2]}})
	refs, err := subset.Refs()
	require.NoError(t, err)
	assert.Equal(t, "c", refs[0].Track.ID)
	assert.Equal(t, 2, refs[0].Pos())
}
