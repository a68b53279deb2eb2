package event

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/units"
)

// File is the on-disk JSON layout of an event file: shared setup (field and
// geometry) followed by any number of events.
type File struct {
	Field    r3.Vec         `json:"field"`
	Geometry []ModuleRecord `json:"geometry,omitempty"`
	Events   []Record       `json:"events"`
}

// ModuleRecord places one module in the geometry table.
type ModuleRecord struct {
	DetID DetID `json:"det_id"`
	Placement
}

// LinkRecord lists the simulated tracks behind one reconstructed hit.
type LinkRecord struct {
	DetID   DetID     `json:"det_id"`
	Cluster uint32    `json:"cluster"`
	Links   []SimLink `json:"links"`
}

// Record is one event in an event file.
type Record struct {
	Key         EventKey             `json:"key"`
	BeamSpot    *BeamSpot            `json:"beam_spot,omitempty"`
	Links       []LinkRecord         `json:"links,omitempty"`
	Tracks      []ReconstructedTrack `json:"tracks"`
	Particles   []SimulatedParticle  `json:"particles"`
	Seeds       []TrajectorySeed     `json:"seeds,omitempty"`
	GenBarcodes []int                `json:"gen_barcodes,omitempty"`
}

// Event builds the query context for the record.
func (r *Record) Event() *Event {
	links := make(MapLinkTable, len(r.Links))
	for _, l := range r.Links {
		links.Add(HitKey{DetID: l.DetID, Cluster: l.Cluster}, l.Links...)
	}
	return &Event{Key: r.Key, BeamSpot: r.BeamSpot, Links: links}
}

// Setup is the event-independent input: field and geometry.
type Setup struct {
	Field    UniformField
	Geometry TranslationGeometry
}

// Setup converts the file's field (expressed in fieldUnit) to Tesla and
// builds the geometry table.
func (f *File) Setup(fieldUnit string) Setup {
	geom := make(TranslationGeometry, len(f.Geometry))
	for _, m := range f.Geometry {
		geom[m.DetID] = m.Placement
	}
	return Setup{
		Field: UniformField{B: r3.Vec{
			X: units.ToTesla(f.Field.X, fieldUnit),
			Y: units.ToTesla(f.Field.Y, fieldUnit),
			Z: units.ToTesla(f.Field.Z, fieldUnit),
		}},
		Geometry: geom,
	}
}

// Decode reads an event file from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %w", err)
	}
	for i := range f.Events {
		if err := f.Events[i].validate(); err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, f.Events[i].Key, err)
		}
	}
	return &f, nil
}

// LoadFile reads and decodes an event file.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open event file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

func (r *Record) validate() error {
	seen := make(map[string]struct{}, len(r.Tracks))
	for i, t := range r.Tracks {
		if t.ID == "" {
			return fmt.Errorf("track %d has no id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate track id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(r.Particles))
	for i, p := range r.Particles {
		if p.ID == "" {
			return fmt.Errorf("particle %d has no id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate particle id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
