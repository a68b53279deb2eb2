package association

import "math"

// forbidden marks a cost matrix entry that must never be selected.
const forbidden = 1e18

// Pair is one track-particle pairing chosen by OneToOne.
type Pair struct {
	Track    TrackRef
	Particle ParticleRef
	Quality  float64
}

// OneToOne reduces a many-to-many RecoToSim map to a one-to-one pairing.
// It pairs as many tracks as possible and, among such pairings, maximises
// the summed quality. Pairs are returned in track order.
func OneToOne(m *RecoToSimMap) []Pair {
	entries := m.Entries()
	if len(entries) == 0 {
		return nil
	}

	cols := make(map[int]int)
	var particles []ParticleRef
	for _, e := range entries {
		for _, match := range e.Matches {
			if _, ok := cols[match.Ref.Index]; !ok {
				cols[match.Ref.Index] = len(particles)
				particles = append(particles, match.Ref)
			}
		}
	}

	cost := make([][]float64, len(entries))
	for i, e := range entries {
		cost[i] = make([]float64, len(particles))
		for j := range cost[i] {
			cost[i][j] = forbidden
		}
		for _, match := range e.Matches {
			j := cols[match.Ref.Index]
			if c := -match.Quality; c < cost[i][j] {
				cost[i][j] = c
			}
		}
	}

	var out []Pair
	for i, j := range assign(cost) {
		if j < 0 {
			continue
		}
		out = append(out, Pair{Track: entries[i].Key, Particle: particles[j], Quality: -cost[i][j]})
	}
	return out
}

// assign solves the rectangular minimum-cost assignment problem with the
// Kuhn-Munkres algorithm using row and column potentials. It returns, for
// every row, the assigned column or -1. Entries >= forbidden are never
// assigned.
func assign(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	result := make([]int, n)
	if m == 0 {
		for i := range result {
			result[i] = -1
		}
		return result
	}

	dim := n
	if m > dim {
		dim = m
	}
	// Forbidden and padding cells cost more than any sum of allowed cells.
	maxAbs := 0.0
	for _, row := range cost {
		for _, c := range row {
			if c < forbidden && math.Abs(c) > maxAbs {
				maxAbs = math.Abs(c)
			}
		}
	}
	penalty := (maxAbs + 1) * float64(2*dim+1)
	at := func(i, j int) float64 {
		if i < n && j < m && cost[i][j] < forbidden {
			return cost[i][j]
		}
		return penalty
	}

	const inf = math.MaxFloat64 / 2
	// 1-indexed; column 0 is the virtual start of each augmenting path.
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	owner := make([]int, dim+1) // owner[j] = row holding column j
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		owner[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := owner[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				if cur := at(i0-1, j-1) - u[i0] - v[j]; cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[owner[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if owner[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			owner[j0] = owner[way[j0]]
			j0 = way[j0]
		}
	}

	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= dim; j++ {
		row, col := owner[j]-1, j-1
		if row >= 0 && row < n && col < m && cost[row][col] < forbidden {
			result[row] = col
		}
	}
	return result
}
