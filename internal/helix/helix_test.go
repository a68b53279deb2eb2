package helix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/units"
)

const tol = 1e-9

var cms = event.UniformField{B: r3.Vec{Z: 3.8}}

// along returns the state reached after a transverse path s from a state
// at pca moving with azimuth phi0.
func along(pca r3.Vec, pt, pz, phi0, charge, bz, s float64) State {
	c := -charge * units.CurvatureConstant * bz / pt
	phi := phi0 + c*s
	return State{
		Position: r3.Vec{
			X: pca.X + (math.Sin(phi)-math.Sin(phi0))/c,
			Y: pca.Y + (math.Cos(phi0)-math.Cos(phi))/c,
			Z: pca.Z + s*pz/pt,
		},
		Momentum: r3.Vec{X: pt * math.Cos(phi), Y: pt * math.Sin(phi), Z: pz},
		Charge:   charge,
	}
}

func TestAtOriginHeadOn(t *testing.T) {
	h := NewParametrizer(cms)
	st := State{Momentum: r3.Vec{X: 3, Y: 0, Z: 4}, Charge: -1}

	ca, err := h.AtClosestApproach(st, r3.Vec{})
	require.NoError(t, err)
	p := ca.Parameters

	assert.InDelta(t, -1.0/5, p[event.IndexQOverP], tol)
	assert.InDelta(t, math.Atan2(4, 3), p[event.IndexLambda], tol)
	assert.InDelta(t, 0, p[event.IndexPhi], tol)
	assert.InDelta(t, 0, p[event.IndexDxy], tol)
	assert.InDelta(t, 0, p[event.IndexDsz], tol)
	assert.InDelta(t, 0, ca.PathLength, tol)
	assert.Greater(t, ca.Curvature, 0.0, "negative charge in +Bz turns counter-clockwise")
}

func TestDownstreamStateRecoversPCA(t *testing.T) {
	h := NewParametrizer(cms)
	cases := []struct {
		name   string
		charge float64
		phi0   float64
		dxy    float64
		z0     float64
		s      float64
	}{
		{"positive", 1, 0.7, 0.05, 1.5, 20},
		{"negative", -1, 0.7, 0.05, 1.5, 20},
		{"negative impact", 1, -2.1, -0.2, -3, 35},
		{"backwards", -1, 2.9, 0.1, 0, -15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pt, pz := 2.0, 1.0
			pca := r3.Vec{X: -tc.dxy * math.Sin(tc.phi0), Y: tc.dxy * math.Cos(tc.phi0), Z: tc.z0}
			st := along(pca, pt, pz, tc.phi0, tc.charge, 3.8, tc.s)

			ca, err := h.AtClosestApproach(st, r3.Vec{})
			require.NoError(t, err)

			p := ca.Parameters
			assert.InDelta(t, tc.phi0, p[event.IndexPhi], tol)
			assert.InDelta(t, tc.dxy, p[event.IndexDxy], tol)
			assert.InDelta(t, tc.z0*pt/math.Hypot(pt, pz), p[event.IndexDsz], tol)
			assert.InDelta(t, tc.s, ca.PathLength, 1e-7)
			assert.InDelta(t, pca.X, ca.Position.X, 1e-9)
			assert.InDelta(t, pca.Y, ca.Position.Y, 1e-9)
			assert.InDelta(t, pca.Z, ca.Position.Z, 1e-7)
		})
	}
}

func TestPCAStateIsFixedPoint(t *testing.T) {
	h := NewParametrizer(cms)
	st := State{Position: r3.Vec{X: 0.3, Y: -0.1, Z: 2}, Momentum: r3.Vec{X: 0.8, Y: 1.9, Z: -0.7}, Charge: 1}
	ref := r3.Vec{X: 0.05, Y: 0.02, Z: 0.5}

	first, err := h.AtClosestApproach(st, ref)
	require.NoError(t, err)
	second, err := h.AtClosestApproach(State{Position: first.Position, Momentum: first.Momentum, Charge: 1}, ref)
	require.NoError(t, err)

	for i := range first.Parameters {
		assert.InDelta(t, first.Parameters[i], second.Parameters[i], 1e-9, "parameter %d", i)
	}
	assert.InDelta(t, 0, second.PathLength, 1e-9)
}

func TestStraightLine(t *testing.T) {
	h := NewParametrizer(event.UniformField{})
	st := State{Position: r3.Vec{X: 2, Y: 1, Z: 5}, Momentum: r3.Vec{X: 1, Z: 1}, Charge: 1}

	ca, err := h.AtClosestApproach(st, r3.Vec{})
	require.NoError(t, err)
	assert.Zero(t, ca.Curvature)
	assert.InDelta(t, 1, ca.Parameters[event.IndexDxy], tol)
	assert.InDelta(t, 0, ca.Parameters[event.IndexPhi], tol)
	assert.InDelta(t, 2, ca.PathLength, tol)
	assert.InDelta(t, 3/math.Sqrt2, ca.Parameters[event.IndexDsz], tol)
	assert.InDelta(t, 0, ca.Position.X, tol)

	neutral := State{Position: st.Position, Momentum: st.Momentum}
	cn, err := NewParametrizer(cms).AtClosestApproach(neutral, r3.Vec{})
	require.NoError(t, err)
	assert.Equal(t, ca.Parameters[event.IndexDxy], cn.Parameters[event.IndexDxy])
	assert.Zero(t, cn.Parameters[event.IndexQOverP])
}

func TestPhiRange(t *testing.T) {
	h := NewParametrizer(cms)
	for _, phi := range []float64{math.Pi, -math.Pi, 3.1, -3.1, 0} {
		st := State{Momentum: r3.Vec{X: math.Cos(phi), Y: math.Sin(phi), Z: 0.2}, Charge: 1}
		p, err := h.Parameters(st, r3.Vec{})
		require.NoError(t, err)
		got := p[event.IndexPhi]
		assert.True(t, got > -math.Pi && got <= math.Pi, "phi %v out of range for input %v", got, phi)
	}
}

func TestZeroTransverseMomentum(t *testing.T) {
	_, err := NewParametrizer(cms).AtClosestApproach(State{Momentum: r3.Vec{Z: 5}, Charge: 1}, r3.Vec{})
	assert.ErrorIs(t, err, ErrZeroTransverseMomentum)

	_, err = (&Parametrizer{}).AtClosestApproach(State{Momentum: r3.Vec{X: 1}}, r3.Vec{})
	assert.Error(t, err)
}

func TestParametersVectorCopies(t *testing.T) {
	p := Parameters{1, 2, 3, 4, 5}
	v := p.Vector()
	v.SetVec(0, 9)
	assert.Equal(t, 1.0, p[0])
	assert.Equal(t, 5, v.Len())
}

func TestImpactParameterSignIndependentOfCharge(t *testing.T) {
	h := NewParametrizer(cms)
	for _, q := range []float64{-1, 1} {
		st := State{Position: r3.Vec{Y: 0.1}, Momentum: r3.Vec{X: 1}, Charge: q}
		ca, err := h.AtClosestApproach(st, r3.Vec{})
		require.NoError(t, err)
		assert.InDelta(t, 0.1, ca.Parameters[event.IndexDxy], tol, "charge %v", q)
		assert.InDelta(t, 0, ca.Parameters[event.IndexPhi], tol, "charge %v", q)
		assert.InDelta(t, 0, ca.PathLength, tol, "charge %v", q)
	}
}
