package sqlite

import (
	"encoding/json"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
)

// Link directions as stored in association_links.direction.
const (
	DirectionRecoToSim = "reco_to_sim"
	DirectionSimToReco = "sim_to_reco"
)

// Run is one association query pair (both directions) over one event.
type Run struct {
	RunID             string          `json:"run_id"`
	Associator        string          `json:"associator"`
	ConfigJSON        json.RawMessage `json:"config_json,omitempty"`
	Event             event.EventKey  `json:"event"`
	RecoToSimComputed bool            `json:"reco_to_sim_computed"`
	SimToRecoComputed bool            `json:"sim_to_reco_computed"`
	CreatedAt         int64           `json:"created_at"`
}

// Link is one ranked association. For reco_to_sim the key is a track and
// the value a particle; sim_to_reco is the reverse. Rank 0 is the best
// match for the key.
type Link struct {
	Direction  string  `json:"direction"`
	KeyIndex   int     `json:"key_index"`
	KeyID      string  `json:"key_id"`
	ValueIndex int     `json:"value_index"`
	ValueID    string  `json:"value_id"`
	Quality    float64 `json:"quality"`
	Rank       int     `json:"rank"`
}
