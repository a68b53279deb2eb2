package event

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// EventKey identifies one event uniquely within a dataset.
type EventKey struct {
	Run   uint32 `json:"run"`
	Lumi  uint32 `json:"lumi"`
	Event uint64 `json:"event"`
}

func (k EventKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.Run, k.Lumi, k.Event)
}

// BeamSpot is the luminous-region position for the event.
type BeamSpot struct {
	Position r3.Vec  `json:"position"`
	SigmaZ   float64 `json:"sigma_z"`
}

// SimLink records that a simulated track contributed to a reconstructed
// hit. Fraction is the share of the hit's charge from that track.
type SimLink struct {
	ID       HitIdentifier `json:"id"`
	Fraction float32       `json:"fraction"`
}

// LinkTable resolves reconstructed hits to the simulated tracks that
// produced them. It is supplied by the simulation and is read-only.
type LinkTable interface {
	Lookup(key HitKey) []SimLink
}

// MapLinkTable is an in-memory LinkTable.
type MapLinkTable map[HitKey][]SimLink

// Lookup implements LinkTable.
func (m MapLinkTable) Lookup(key HitKey) []SimLink {
	return m[key]
}

// Add appends links for a hit key.
func (m MapLinkTable) Add(key HitKey, links ...SimLink) {
	m[key] = append(m[key], links...)
}

// Event is the per-event context handed to an association query. BeamSpot
// and Links are optional; associators that need them report an input
// contract error when they are missing.
type Event struct {
	Key      EventKey
	BeamSpot *BeamSpot
	Links    LinkTable
}

// BeamLine returns the transverse reference point for closest approach: the
// beam spot if present, otherwise the origin.
func (e *Event) BeamLine() r3.Vec {
	if e == nil || e.BeamSpot == nil {
		return r3.Vec{}
	}
	return e.BeamSpot.Position
}
