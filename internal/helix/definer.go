package helix

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

// Definer chooses the state of a simulated particle that is compared with
// reconstructed tracks, and the reference line that state is measured from.
type Definer interface {
	// Define returns the comparison state. ok is false when no usable state
	// exists for the particle.
	Define(ev *event.Event, p *event.SimulatedParticle) (st State, ok bool)
	// Reference returns the point the reference line passes through.
	Reference(ev *event.Event) r3.Vec
}

// ProductionDefiner uses the particle's production vertex and momentum and
// measures from the event beam line.
type ProductionDefiner struct{}

// Define implements Definer.
func (ProductionDefiner) Define(_ *event.Event, p *event.SimulatedParticle) (State, bool) {
	return State{Position: p.Vertex, Momentum: p.Momentum, Charge: p.Charge}, true
}

// Reference implements Definer.
func (ProductionDefiner) Reference(ev *event.Event) r3.Vec { return ev.BeamLine() }

// CosmicDefiner is for particles that do not come from the interaction
// region. It takes the truth hit nearest the beam line in the transverse
// plane, propagates that state to the point of closest approach to the beam
// line, and reports the position relative to the beam spot.
type CosmicDefiner struct {
	Geometry     event.Geometry
	Parametrizer *Parametrizer
}

// NewCosmicDefiner returns a CosmicDefiner.
func NewCosmicDefiner(geom event.Geometry, field event.MagneticField) *CosmicDefiner {
	return &CosmicDefiner{Geometry: geom, Parametrizer: NewParametrizer(field)}
}

// Define implements Definer. Particles without a truth hit known to the
// geometry, or whose innermost state cannot be propagated, yield a zero
// state and ok=false.
func (c *CosmicDefiner) Define(ev *event.Event, p *event.SimulatedParticle) (State, bool) {
	inner, found := c.innermost(p)
	if !found {
		return State{Charge: p.Charge}, false
	}
	beam := ev.BeamLine()
	ca, err := c.Parametrizer.AtClosestApproach(inner, beam)
	if err != nil {
		return State{Charge: p.Charge}, false
	}
	return State{
		Position: r3.Sub(ca.Position, beam),
		Momentum: ca.Momentum,
		Charge:   p.Charge,
	}, true
}

// Reference implements Definer. Positions are already beam-spot relative.
func (*CosmicDefiner) Reference(*event.Event) r3.Vec { return r3.Vec{} }

func (c *CosmicDefiner) innermost(p *event.SimulatedParticle) (State, bool) {
	if c.Geometry == nil {
		return State{}, false
	}
	best := State{Charge: p.Charge}
	radius := math.Inf(1)
	found := false
	for _, h := range p.TruthHits {
		gp, ok := c.Geometry.ToGlobal(h.DetID, h.LocalPosition)
		if !ok {
			continue
		}
		gv, ok := c.Geometry.ToGlobalVector(h.DetID, h.LocalMomentum)
		if !ok {
			continue
		}
		if perp := math.Hypot(gp.X, gp.Y); perp < radius {
			radius = perp
			best.Position = gp
			best.Momentum = gv
			found = true
		}
	}
	return best, found
}
