package association

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignEmpty(t *testing.T) {
	assert.Nil(t, assign(nil))
	assert.Equal(t, []int{-1, -1}, assign([][]float64{{}, {}}))
}

func TestAssignSquareOptimal(t *testing.T) {
	// Greedy row-by-row would pick 1+6+8 = 15; the optimum is 1+4+5 = 10.
	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	result := assign(cost)
	require.Len(t, result, 3)

	total := 0.0
	for i, j := range result {
		require.GreaterOrEqual(t, j, 0, "row %d unassigned", i)
		total += cost[i][j]
	}
	assert.Equal(t, 10.0, total)
}

func TestAssignForbiddenAndRectangular(t *testing.T) {
	result := assign([][]float64{
		{1, 2},
		{forbidden, forbidden},
	})
	assert.GreaterOrEqual(t, result[0], 0)
	assert.Equal(t, -1, result[1])

	// More rows than columns leaves one row out.
	result = assign([][]float64{
		{1, 10},
		{10, 1},
		{5, 5},
	})
	assert.Equal(t, []int{0, 1, -1}, result)
}

func TestOneToOneResolvesCompetition(t *testing.T) {
	m := NewAssociationMap[TrackRef, ParticleRef]()
	// Track 0 slightly prefers particle 0, but track 1 can only use it.
	m.Insert(TrackRef{Index: 0}, ParticleRef{Index: 0}, 0.9)
	m.Insert(TrackRef{Index: 0}, ParticleRef{Index: 1}, 0.8)
	m.Insert(TrackRef{Index: 1}, ParticleRef{Index: 0}, 0.85)
	m.Insert(TrackRef{Index: 2}, ParticleRef{Index: 0}, 0.1)
	m.PostInsert()

	pairs := OneToOne(m)
	require.Len(t, pairs, 2)
	assert.Equal(t, 0, pairs[0].Track.Index)
	assert.Equal(t, 1, pairs[0].Particle.Index)
	assert.Equal(t, 0.8, pairs[0].Quality)
	assert.Equal(t, 1, pairs[1].Track.Index)
	assert.Equal(t, 0, pairs[1].Particle.Index)

	assert.Nil(t, OneToOne(NewAssociationMap[TrackRef, ParticleRef]()))
}

func TestOneToOneChi2Scores(t *testing.T) {
	m := NewAssociationMap[TrackRef, ParticleRef]()
	m.Insert(TrackRef{Index: 0}, ParticleRef{Index: 5}, -2)
	m.Insert(TrackRef{Index: 0}, ParticleRef{Index: 7}, -0.5)
	m.PostInsert()

	pairs := OneToOne(m)
	require.Len(t, pairs, 1)
	assert.Equal(t, 7, pairs[0].Particle.Index)
	assert.Equal(t, -0.5, pairs[0].Quality)
}
