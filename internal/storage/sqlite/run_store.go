package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/report"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/timeutil"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("association run not found")

// RunStore provides persistence for association runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore over a migrated database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for creation times and busy retries.
func (s *RunStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

// LinksFromMaps flattens both directions into rows, keys in map order and
// matches by rank. Maps that were not computed yield no rows.
func LinksFromMaps(r2s *association.RecoToSimMap, s2r *association.SimToRecoMap) []Link {
	var links []Link
	for _, e := range r2s.Entries() {
		for rank, m := range e.Matches {
			links = append(links, Link{
				Direction:  DirectionRecoToSim,
				KeyIndex:   e.Key.Index,
				KeyID:      trackID(e.Key),
				ValueIndex: m.Ref.Index,
				ValueID:    particleID(m.Ref),
				Quality:    m.Quality,
				Rank:       rank,
			})
		}
	}
	for _, e := range s2r.Entries() {
		for rank, m := range e.Matches {
			links = append(links, Link{
				Direction:  DirectionSimToReco,
				KeyIndex:   e.Key.Index,
				KeyID:      particleID(e.Key),
				ValueIndex: m.Ref.Index,
				ValueID:    trackID(m.Ref),
				Quality:    m.Quality,
				Rank:       rank,
			})
		}
	}
	return links
}

func trackID(r association.TrackRef) string {
	if r.Track == nil {
		return ""
	}
	return r.Track.ID
}

func particleID(r association.ParticleRef) string {
	if r.Particle == nil {
		return ""
	}
	return r.Particle.ID
}

// SaveRun inserts a run and all of its links in one transaction. An empty
// RunID is filled with a new UUID and a zero CreatedAt with the current
// time. The computed flags are taken from the maps.
func (s *RunStore) SaveRun(ctx context.Context, run *Run, r2s *association.RecoToSimMap, s2r *association.SimToRecoMap) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	if len(run.ConfigJSON) == 0 {
		run.ConfigJSON = []byte("{}")
	}
	run.RecoToSimComputed = r2s.Computed()
	run.SimToRecoComputed = s2r.Computed()
	links := LinksFromMaps(r2s, s2r)

	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO association_runs (
				run_id, associator, config_json, event_run, event_lumi, event_number,
				reco_to_sim_computed, sim_to_reco_computed, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Associator, string(run.ConfigJSON),
			run.Event.Run, run.Event.Lumi, int64(run.Event.Event),
			run.RecoToSimComputed, run.SimToRecoComputed, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO association_links (
				run_id, direction, key_index, key_id, value_index, value_id, quality, rank
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare link insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range links {
			if _, err := stmt.ExecContext(ctx,
				run.RunID, l.Direction, l.KeyIndex, l.KeyID, l.ValueIndex, l.ValueID, l.Quality, l.Rank,
			); err != nil {
				return fmt.Errorf("insert link: %w", err)
			}
		}
		return tx.Commit()
	})
}

// SaveSummary stores the performance summary of a run, replacing any
// earlier one.
func (s *RunStore) SaveSummary(ctx context.Context, runID string, sum report.Summary) error {
	return retryOnBusy(s.clock, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO association_summaries (
				run_id, tracks, particles, matched_tracks, matched_particles,
				duplicate_particles, efficiency, fake_rate, duplicate_rate
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, sum.Tracks, sum.Particles, sum.MatchedTracks, sum.MatchedParticles,
			sum.DuplicateParticles, sum.Efficiency, sum.FakeRate, sum.DuplicateRate,
		)
		if err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
		return nil
	})
}

// GetSummary returns the stored summary counts and rates for a run. The
// quality statistics are not persisted.
func (s *RunStore) GetSummary(ctx context.Context, runID string) (report.Summary, error) {
	var sum report.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT r.associator, m.tracks, m.particles, m.matched_tracks, m.matched_particles,
		       m.duplicate_particles, m.efficiency, m.fake_rate, m.duplicate_rate
		FROM association_summaries m
		JOIN association_runs r ON r.run_id = m.run_id
		WHERE m.run_id = ?`, runID,
	).Scan(
		&sum.Associator, &sum.Tracks, &sum.Particles, &sum.MatchedTracks, &sum.MatchedParticles,
		&sum.DuplicateParticles, &sum.Efficiency, &sum.FakeRate, &sum.DuplicateRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return sum, fmt.Errorf("summary for %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return sum, fmt.Errorf("scan summary: %w", err)
	}
	sum.Events = 1
	return sum, nil
}

const runColumns = `run_id, associator, config_json, event_run, event_lumi, event_number,
	       reco_to_sim_computed, sim_to_reco_computed, created_at`

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM association_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return r, err
}

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	Associator string
	Run        *uint32
	Limit      int
}

// ListRuns returns runs ordered by creation time, newest first.
func (s *RunStore) ListRuns(ctx context.Context, f RunFilter) ([]*Run, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Associator != "" {
		where = append(where, "associator = ?")
		args = append(args, f.Associator)
	}
	if f.Run != nil {
		where = append(where, "event_run = ?")
		args = append(args, *f.Run)
	}
	q := `SELECT ` + runColumns + ` FROM association_runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, run_id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Links returns the links of a run in one direction, ordered by key then
// rank. An empty direction returns both.
func (s *RunStore) Links(ctx context.Context, runID, direction string) ([]Link, error) {
	q := `
		SELECT direction, key_index, key_id, value_index, value_id, quality, rank
		FROM association_links
		WHERE run_id = ?`
	args := []interface{}{runID}
	if direction != "" {
		q += " AND direction = ?"
		args = append(args, direction)
	}
	q += " ORDER BY direction, key_index, rank"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Direction, &l.KeyIndex, &l.KeyID, &l.ValueIndex, &l.ValueID, &l.Quality, &l.Rank); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// DeleteRun removes a run with its links and summary.
func (s *RunStore) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, table := range []string{"association_links", "association_summaries"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM association_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
		}
		return tx.Commit()
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r      Run
		cfg    string
		number int64
	)
	err := sc.Scan(
		&r.RunID, &r.Associator, &cfg, &r.Event.Run, &r.Event.Lumi, &number,
		&r.RecoToSimComputed, &r.SimToRecoComputed, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Event.Event = uint64(number)
	r.ConfigJSON = []byte(cfg)
	return &r, nil
}
