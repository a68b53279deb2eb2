package event

import "fmt"

// EncodedEventID packs the pile-up crossing and the event index within that
// crossing into one word: bits 0-15 event, bits 16-31 signed bunch crossing.
type EncodedEventID uint32

// NewEncodedEventID encodes a bunch crossing and event index.
func NewEncodedEventID(bunchCrossing, event int) EncodedEventID {
	return EncodedEventID(uint32(event)&0xFFFF | uint32(uint16(int16(bunchCrossing)))<<16)
}

// Event returns the event index within the crossing.
func (e EncodedEventID) Event() int { return int(e & 0xFFFF) }

// BunchCrossing returns the signed bunch-crossing offset (0 = in-time).
func (e EncodedEventID) BunchCrossing() int { return int(int16(uint16(e >> 16))) }

func (e EncodedEventID) String() string {
	return fmt.Sprintf("bx=%d,ev=%d", e.BunchCrossing(), e.Event())
}

// HitIdentifier names the simulated track that produced a hit. It is the
// unit of hit-overlap comparison.
type HitIdentifier struct {
	TrackID uint32         `json:"track_id"`
	EventID EncodedEventID `json:"event_id"`
}

func (h HitIdentifier) String() string {
	return fmt.Sprintf("%d@%s", h.TrackID, h.EventID)
}

// Subdetector identifies the tracker partition a DetID belongs to.
type Subdetector uint8

const (
	SubdetUnknown     Subdetector = 0
	SubdetPixelBarrel Subdetector = 1
	SubdetPixelEndcap Subdetector = 2
	SubdetTIB         Subdetector = 3
	SubdetTID         Subdetector = 4
	SubdetTOB         Subdetector = 5
	SubdetTEC         Subdetector = 6
)

// IsPixel reports whether the subdetector is a pixel partition.
func (s Subdetector) IsPixel() bool {
	return s == SubdetPixelBarrel || s == SubdetPixelEndcap
}

// IsStrip reports whether the subdetector is a strip partition.
func (s Subdetector) IsStrip() bool {
	return s >= SubdetTIB && s <= SubdetTEC
}

func (s Subdetector) String() string {
	switch s {
	case SubdetPixelBarrel:
		return "PXB"
	case SubdetPixelEndcap:
		return "PXF"
	case SubdetTIB:
		return "TIB"
	case SubdetTID:
		return "TID"
	case SubdetTOB:
		return "TOB"
	case SubdetTEC:
		return "TEC"
	default:
		return "unknown"
	}
}

// StereoKind distinguishes the two sensors of a glued strip module.
type StereoKind uint8

const (
	StereoNone StereoKind = 0 // single-sided module or pixel
	StereoUV   StereoKind = 1 // stereo sensor
	StereoRPhi StereoKind = 2 // r-phi (mono) sensor
)

// DetectorTracker is the detector code carried in the top nibble of a tracker DetID.
const DetectorTracker = 1

// DetID identifies a detector element.
//
// Layout: bits 28-31 detector, 25-27 subdetector, 20-24 layer,
// 18-19 side, 2-17 module, 0-1 stereo flag.
type DetID uint32

// NewDetID builds a tracker DetID from its fields.
func NewDetID(subdet Subdetector, layer, side, module int, stereo StereoKind) DetID {
	return DetID(uint32(DetectorTracker)<<28 |
		uint32(subdet&0x7)<<25 |
		uint32(layer&0x1F)<<20 |
		uint32(side&0x3)<<18 |
		uint32(module&0xFFFF)<<2 |
		uint32(stereo&0x3))
}

// Detector returns the detector code.
func (d DetID) Detector() int { return int(d >> 28) }

// Subdetector returns the tracker partition.
func (d DetID) Subdetector() Subdetector { return Subdetector((d >> 25) & 0x7) }

// Layer returns the layer (or disk/wheel) number.
func (d DetID) Layer() int { return int((d >> 20) & 0x1F) }

// Side returns the endcap side (0 for barrel).
func (d DetID) Side() int { return int((d >> 18) & 0x3) }

// Module returns the module number within the layer.
func (d DetID) Module() int { return int((d >> 2) & 0xFFFF) }

// Stereo returns the stereo flag.
func (d DetID) Stereo() StereoKind { return StereoKind(d & 0x3) }

// Glued returns the DetID of the glued module a stereo or r-phi sensor
// belongs to, which is the same id with the stereo flag cleared.
func (d DetID) Glued() DetID { return d &^ 0x3 }

func (d DetID) String() string {
	return fmt.Sprintf("%s/L%d/S%d/M%d/%d", d.Subdetector(), d.Layer(), d.Side(), d.Module(), d.Stereo())
}

// HitKey addresses one reconstructed hit inside an event: the module and
// the cluster index on that module.
type HitKey struct {
	DetID   DetID  `json:"det_id"`
	Cluster uint32 `json:"cluster"`
}
