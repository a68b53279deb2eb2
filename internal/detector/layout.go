// Package detector holds the reference tracker layout rules used by the hit
// associator: which partitions are pixel or strip, and which sensors are the
// two halves of a glued strip module.
package detector

import "github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"

// Layout is the reference layer policy for the tracker DetID encoding.
// The zero value treats every strip partition as possibly glued.
type Layout struct {
	// SingleSided lists partitions whose modules are never glued, even if a
	// DetID carries a stereo flag.
	SingleSided []event.Subdetector
}

// Default returns the standard layout.
func Default() *Layout { return &Layout{} }

// IsPixel reports whether the module belongs to a pixel partition.
func (l *Layout) IsPixel(id event.DetID) bool {
	return id.Detector() == event.DetectorTracker && id.Subdetector().IsPixel()
}

// IsStrip reports whether the module belongs to a strip partition.
func (l *Layout) IsStrip(id event.DetID) bool {
	return id.Detector() == event.DetectorTracker && id.Subdetector().IsStrip()
}

// GluedGroup returns the glued-module id shared by the mono and stereo
// sensors of a double-sided module. ok is false for pixels, single-sided
// modules and anything outside the tracker.
func (l *Layout) GluedGroup(id event.DetID) (event.DetID, bool) {
	if !l.IsStrip(id) || id.Stereo() == event.StereoNone {
		return 0, false
	}
	for _, s := range l.SingleSided {
		if s == id.Subdetector() {
			return 0, false
		}
	}
	return id.Glued(), true
}

// SameGluedModule reports whether a and b are the two different sensors of
// one glued module.
func (l *Layout) SameGluedModule(a, b event.DetID) bool {
	ga, okA := l.GluedGroup(a)
	gb, okB := l.GluedGroup(b)
	return okA && okB && ga == gb && a.Stereo() != b.Stereo()
}
