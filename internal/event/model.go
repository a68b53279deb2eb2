package event

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NumParameters is the dimension of the helix parameter basis shared by
// reconstructed and simulated trajectories.
const NumParameters = 5

// Parameter indices in the helix basis.
const (
	IndexQOverP = iota // signed charge over momentum
	IndexLambda        // dip angle, pi/2 - theta
	IndexPhi           // azimuth at closest approach
	IndexDxy           // transverse impact parameter
	IndexDsz           // longitudinal impact parameter, scaled by pT/p
)

// RecHit is a reference to one reconstructed detector hit on a track or seed.
type RecHit struct {
	DetID         DetID  `json:"det_id"`
	Cluster       uint32 `json:"cluster"`
	Valid         bool   `json:"valid"`
	LocalPosition r3.Vec `json:"local_position"`
}

// Key returns the address used to look the hit up in the event link table.
func (h RecHit) Key() HitKey {
	return HitKey{DetID: h.DetID, Cluster: h.Cluster}
}

// TruthHit is one simulated energy deposit carried by a simulated particle.
type TruthHit struct {
	ID            HitIdentifier `json:"id"`
	DetID         DetID         `json:"det_id"`
	LocalPosition r3.Vec        `json:"local_position"`
	LocalMomentum r3.Vec        `json:"local_momentum"`
}

// ReconstructedTrack is a fitted track. Parameters and Covariance follow the
// Index* ordering.
type ReconstructedTrack struct {
	ID         string                                `json:"id"`
	Parameters [NumParameters]float64                `json:"parameters"`
	Covariance [NumParameters][NumParameters]float64 `json:"covariance"`
	Hits       []RecHit                              `json:"hits"`
}

// QOverP returns the signed charge over momentum.
func (t *ReconstructedTrack) QOverP() float64 { return t.Parameters[IndexQOverP] }

// Lambda returns the dip angle.
func (t *ReconstructedTrack) Lambda() float64 { return t.Parameters[IndexLambda] }

// Phi returns the azimuth at closest approach.
func (t *ReconstructedTrack) Phi() float64 { return t.Parameters[IndexPhi] }

// Dxy returns the transverse impact parameter.
func (t *ReconstructedTrack) Dxy() float64 { return t.Parameters[IndexDxy] }

// Dsz returns the longitudinal impact parameter in the sz plane.
func (t *ReconstructedTrack) Dsz() float64 { return t.Parameters[IndexDsz] }

// Pt returns the transverse momentum implied by q/p and lambda for a unit
// charge. A zero q/p yields +Inf.
func (t *ReconstructedTrack) Pt() float64 {
	qop := t.QOverP()
	if qop == 0 {
		return math.Inf(1)
	}
	return math.Abs(1/qop) * math.Cos(t.Lambda())
}

// NumberOfValidHits counts the hits flagged valid.
func (t *ReconstructedTrack) NumberOfValidHits() int {
	n := 0
	for _, h := range t.Hits {
		if h.Valid {
			n++
		}
	}
	return n
}

// CovarianceSym returns the covariance as a gonum symmetric matrix built from
// the upper triangle.
func (t *ReconstructedTrack) CovarianceSym() *mat.SymDense {
	cov := mat.NewSymDense(NumParameters, nil)
	for i := 0; i < NumParameters; i++ {
		for j := i; j < NumParameters; j++ {
			cov.SetSym(i, j, t.Covariance[i][j])
		}
	}
	return cov
}

// ParameterVector returns the track parameters as a gonum vector.
func (t *ReconstructedTrack) ParameterVector() *mat.VecDense {
	return mat.NewVecDense(NumParameters, append([]float64(nil), t.Parameters[:]...))
}

// GenRef links a simulated particle to a generator-level ancestor.
type GenRef struct {
	Barcode int `json:"barcode"`
	Status  int `json:"status"`
	PdgID   int `json:"pdg_id"`
}

// SimulatedParticle is a ground-truth tracking particle.
type SimulatedParticle struct {
	ID           string     `json:"id"`
	Momentum     r3.Vec     `json:"momentum"`
	Vertex       r3.Vec     `json:"vertex"`
	Charge       float64    `json:"charge"`
	TruthHits    []TruthHit `json:"truth_hits"`
	GenParticles []GenRef   `json:"gen_particles,omitempty"`
}

// Pt returns the transverse momentum at the production vertex.
func (p *SimulatedParticle) Pt() float64 {
	return math.Hypot(p.Momentum.X, p.Momentum.Y)
}

// P returns the momentum magnitude at the production vertex.
func (p *SimulatedParticle) P() float64 {
	return r3.Norm(p.Momentum)
}

// Identifiers returns the distinct hit identifiers of the particle's truth
// hits, in first-seen order.
func (p *SimulatedParticle) Identifiers() []HitIdentifier {
	seen := make(map[HitIdentifier]struct{}, 2)
	var ids []HitIdentifier
	for _, h := range p.TruthHits {
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}
		ids = append(ids, h.ID)
	}
	return ids
}

// TrajectorySeed is a pre-fit track candidate: a short hit sequence with no
// parameters yet.
type TrajectorySeed struct {
	ID   string   `json:"id"`
	Hits []RecHit `json:"hits"`
}
