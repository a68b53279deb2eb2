// Package helix turns a charged particle's production state into the five
// track parameters a fitted track carries, by solving for the point of
// closest approach of its helix to the beam line.
package helix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/units"
)

// ErrZeroTransverseMomentum is returned when a state has no transverse
// momentum, so no transverse trajectory exists.
var ErrZeroTransverseMomentum = errors.New("helix: zero transverse momentum")

// Parameters is a helix parameter vector in the event.Index* ordering.
type Parameters [event.NumParameters]float64

// Vector returns the parameters as a gonum vector.
func (p Parameters) Vector() *mat.VecDense {
	return mat.NewVecDense(event.NumParameters, append([]float64(nil), p[:]...))
}

// State is a point on a trajectory: position, momentum and charge.
type State struct {
	Position r3.Vec
	Momentum r3.Vec
	Charge   float64
}

// ClosestApproach is the result of propagating a State to the point of
// closest approach (PCA) to a reference line parallel to z.
type ClosestApproach struct {
	Parameters Parameters
	// Position and Momentum are the global state at the PCA.
	Position r3.Vec
	Momentum r3.Vec
	// PathLength is the signed transverse path from the PCA to the input
	// position; positive when the input lies downstream.
	PathLength float64
	// Curvature is the signed transverse curvature, positive for
	// counter-clockwise motion seen from +z. Zero for straight lines.
	Curvature float64
}

// Parametrizer computes closest-approach parameters in a magnetic field.
type Parametrizer struct {
	Field event.MagneticField
}

// NewParametrizer returns a Parametrizer using field.
func NewParametrizer(field event.MagneticField) *Parametrizer {
	return &Parametrizer{Field: field}
}

// AtClosestApproach propagates st analytically to its point of closest
// approach to the line through ref parallel to z. The field is evaluated at
// the state's position and only its z component bends the track. Impact
// parameters are expressed relative to ref.
func (h *Parametrizer) AtClosestApproach(st State, ref r3.Vec) (ClosestApproach, error) {
	pt := math.Hypot(st.Momentum.X, st.Momentum.Y)
	if pt == 0 {
		return ClosestApproach{}, ErrZeroTransverseMomentum
	}
	if h.Field == nil {
		return ClosestApproach{}, fmt.Errorf("helix: no magnetic field configured")
	}
	p := r3.Norm(st.Momentum)
	bz := h.Field.InTesla(st.Position).Z
	curv := -st.Charge * units.CurvatureConstant * bz / pt

	phi0 := math.Atan2(st.Momentum.Y, st.Momentum.X)
	dx := st.Position.X - ref.X
	dy := st.Position.Y - ref.Y

	var phiA, dxy, s float64
	var ax, ay float64 // PCA relative to ref

	if curv == 0 {
		phiA = phi0
		dxy = -dx*math.Sin(phi0) + dy*math.Cos(phi0)
		s = dx*math.Cos(phi0) + dy*math.Sin(phi0)
		ax = dx - s*math.Cos(phi0)
		ay = dy - s*math.Sin(phi0)
	} else {
		r := 1 / curv
		// Helix centre relative to ref.
		cx := dx - r*math.Sin(phi0)
		cy := dy + r*math.Cos(phi0)
		d := math.Hypot(cx, cy)
		if d == 0 {
			// The reference line is the helix axis: every point is closest.
			phiA = phi0
			ax, ay = dx, dy
			dxy = -dx*math.Sin(phi0) + dy*math.Cos(phi0)
		} else {
			sign := math.Copysign(1, r)
			lx := sign * cx / d
			ly := sign * cy / d
			phiA = math.Atan2(-lx, ly)
			dxy = sign * (d - math.Abs(r))
			// A = C + |R| (ref - C)/d
			ax = cx - math.Abs(r)*cx/d
			ay = cy - math.Abs(r)*cy/d
			s = r * wrap(phi0-phiA)
		}
	}
	phiA = normalize(phiA)

	zA := st.Position.Z - s*st.Momentum.Z/pt
	dz := zA - ref.Z

	ca := ClosestApproach{
		Position:   r3.Vec{X: ax + ref.X, Y: ay + ref.Y, Z: zA},
		Momentum:   r3.Vec{X: pt * math.Cos(phiA), Y: pt * math.Sin(phiA), Z: st.Momentum.Z},
		PathLength: s,
		Curvature:  curv,
	}
	ca.Parameters[event.IndexQOverP] = st.Charge / p
	ca.Parameters[event.IndexLambda] = math.Pi/2 - theta(st.Momentum)
	ca.Parameters[event.IndexPhi] = phiA
	ca.Parameters[event.IndexDxy] = dxy
	ca.Parameters[event.IndexDsz] = dz * pt / p
	return ca, nil
}

// Parameters is a shorthand for AtClosestApproach(st, ref).Parameters.
func (h *Parametrizer) Parameters(st State, ref r3.Vec) (Parameters, error) {
	ca, err := h.AtClosestApproach(st, ref)
	if err != nil {
		return Parameters{}, err
	}
	return ca.Parameters, nil
}

func theta(p r3.Vec) float64 {
	return math.Atan2(math.Hypot(p.X, p.Y), p.Z)
}

// wrap maps an angle difference into (-pi, pi].
func wrap(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// normalize maps an azimuth into (-pi, pi].
func normalize(phi float64) float64 {
	if phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	if phi > math.Pi {
		phi -= 2 * math.Pi
	}
	return phi
}
