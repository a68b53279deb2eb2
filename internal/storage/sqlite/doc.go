// Package sqlite persists association runs, their ranked links and their
// per-run summaries in the database managed by internal/db.
//
// Each run is one associator evaluated over one event. Links keep both the
// collection index and the element ID of either side so a stored run can
// be read back without the original event file.
package sqlite
