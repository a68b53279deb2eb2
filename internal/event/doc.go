// Package event holds the per-event data model consumed by the associators:
// reconstructed tracks, simulated (tracking) particles, detector hits and
// their truth identifiers, plus the external collaborators (magnetic field,
// detector geometry, hit-to-truth link table) the core reads but never owns.
//
// Everything here is created per event, is read-only to the associators and
// is discarded once the association query returns.
package event
