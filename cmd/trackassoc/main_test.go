package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/db"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/helix"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/storage/sqlite"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/testutil"
)

const defaultsConfig = "../../config/associator.defaults.json"

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

// writeEventFile writes one event: trk0 reproduces all five hits of tp0
// and carries tp0's exact helix parameters; trk1 is pure noise; tp1 has
// hits but no track and no momentum.
func writeEventFile(t *testing.T) string {
	t.Helper()
	field := r3.Vec{Z: 3.8}

	f := testutil.NewFixture(event.EventKey{Run: 1, Lumi: 1, Event: 42})
	p0 := f.AddParticle("tp0", 5)
	f.AddParticle("tp1", 4)
	f.Particles[p0].Momentum = r3.Vec{X: 2, Y: 0.5, Z: 1}
	f.Particles[p0].GenParticles = []event.GenRef{{Barcode: 11, Status: 1, PdgID: 13}}
	t0 := f.AddTrack("trk0", p0, p0, p0, p0, p0)
	f.AddTrack("trk1", testutil.Noise, testutil.Noise, testutil.Noise, testutil.Noise)

	params, err := helix.NewParametrizer(event.UniformField{B: field}).Parameters(
		helix.State{Momentum: f.Particles[p0].Momentum, Charge: f.Particles[p0].Charge}, r3.Vec{})
	require.NoError(t, err)
	for i := range f.Tracks {
		for k := 0; k < event.NumParameters; k++ {
			f.Tracks[i].Covariance[k][k] = 1
		}
	}
	f.Tracks[t0].Parameters = params

	rec := f.Record()
	rec.GenBarcodes = []int{11}
	data, err := json.Marshal(event.File{Field: field, Events: []event.Record{rec}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	quiet(t)
	input := writeEventFile(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	outPath := filepath.Join(dir, "results.json")
	htmlPath := filepath.Join(dir, "report.html")
	metricsPath := filepath.Join(dir, "trackassoc.prom")

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"-input", input,
		"-config", defaultsConfig,
		"-db", dbPath,
		"-plots", filepath.Join(dir, "plots"),
		"-html", htmlPath,
		"-metrics-file", metricsPath,
		"-output", outPath,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var res results
	require.NoError(t, json.Unmarshal(data, &res))

	require.Len(t, res.Summaries, 2)
	hits := res.Summaries[0]
	assert.Equal(t, "quick_hits", hits.Associator)
	assert.Equal(t, 2, hits.Tracks)
	assert.Equal(t, 1, hits.MatchedTracks)
	assert.InDelta(t, 0.5, hits.Efficiency, 1e-12)
	assert.InDelta(t, 0.5, hits.FakeRate, 1e-12)
	assert.Equal(t, "chi2", res.Summaries[1].Associator)
	assert.GreaterOrEqual(t, res.Summaries[1].MatchedTracks, 1)

	require.Len(t, res.Events, 2)
	ev := res.Events[0]
	assert.Equal(t, uint64(42), ev.Event.Event)
	require.Len(t, ev.Pairs, 1)
	assert.Equal(t, pairResult{Track: "trk0", Particle: "tp0", Quality: 1}, ev.Pairs[0])
	assert.Equal(t, []int{0, -1}, ev.GenMatch)
	assert.NotEmpty(t, ev.RunID)

	chi := res.Events[1]
	require.NotEmpty(t, chi.Pairs)
	assert.Equal(t, "trk0", chi.Pairs[0].Track)
	assert.Equal(t, "tp0", chi.Pairs[0].Particle)

	d, err := db.OpenDB(dbPath)
	require.NoError(t, err)
	defer d.Close()
	runs, err := sqlite.NewRunStore(d.DB).ListRuns(context.Background(), sqlite.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	for _, p := range []string{htmlPath, metricsPath, filepath.Join(dir, "plots", "quick_hits_reco_to_sim_quality.png")} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "trackassoc_queries_total")
}

func TestRun_StdoutSingleAssociator(t *testing.T) {
	quiet(t)
	input := writeEventFile(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-input", input, "-associator", "hits"}, &stdout, &stderr))

	var res results
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, "quick_hits", res.Summaries[0].Associator)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "trackassoc")
}

func TestRun_FlagErrors(t *testing.T) {
	quiet(t)
	cases := map[string][]string{
		"missing input":      {},
		"unknown associator": {"-input", "x.json", "-associator", "fuzzy"},
		"missing file":       {"-input", filepath.Join(t.TempDir(), "absent.json")},
		"bad config":         {"-input", "x.json", "-config", "config.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(args, &stdout, &stderr))
		})
	}
}

func TestRun_Migrate(t *testing.T) {
	quiet(t)
	dbPath := filepath.Join(t.TempDir(), "m.db")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"migrate", "-db", dbPath, "up"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "current version:")
	assert.NotContains(t, stdout.String(), "pending")

	assert.Error(t, run([]string{"migrate", "-db", dbPath}, &stdout, &stderr))
}

func TestParseFlags_Defaults(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseFlags([]string{"-input", "e.json"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "both", o.associator)
	assert.Equal(t, "-", o.output)
	assert.False(t, o.cosmic)
	assert.Empty(t, o.dbPath)
}
