// Command trackassoc associates reconstructed tracks with simulated
// particles for every event in an event file and reports tracking
// efficiency, fake and duplicate rates.
//
// Usage:
//
//	trackassoc -input events.json [-associator hits|chi2|both] [-db runs.db]
//	trackassoc migrate <up|down|status|version N|force N> [-db runs.db]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/config"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/db"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/detector"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/fsutil"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/helix"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/matcher"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/metrics"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/report"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/storage/sqlite"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/version"
)

const defaultDBPath = "trackassoc.db"

type options struct {
	configPath  string
	input       string
	associator  string
	dbPath      string
	plotsDir    string
	htmlPath    string
	metricsFile string
	output      string
	cosmic      bool
	debug       bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("trackassoc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Associator configuration JSON (defaults apply when empty)")
	fs.StringVar(&o.input, "input", "", "Event file to process (required)")
	fs.StringVar(&o.associator, "associator", "both", "Associator to run: hits, chi2 or both")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to store runs in (disabled when empty)")
	fs.StringVar(&o.plotsDir, "plots", "", "Directory for quality histogram PNGs")
	fs.StringVar(&o.htmlPath, "html", "", "Path for the HTML report")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this path")
	fs.StringVar(&o.output, "output", "-", "Where to write the JSON results; - for stdout")
	fs.BoolVar(&o.cosmic, "cosmic", false, "Define simulated particles at their innermost hit (cosmic tracks)")
	fs.BoolVar(&o.debug, "debug", false, "Enable per-pair debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.showVersion {
		return o, nil
	}
	if o.input == "" {
		return o, errors.New("-input is required")
	}
	switch o.associator {
	case "hits", "chi2", "both":
	default:
		return o, fmt.Errorf("unknown associator %q (want hits, chi2 or both)", o.associator)
	}
	return o, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("trackassoc: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "migrate" {
		return runMigrate(args[1:], stdout, stderr)
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	monitoring.SetDebug(o.debug)

	cfg := config.EmptyAssociatorConfig()
	if o.configPath != "" {
		if cfg, err = config.LoadAssociatorConfig(o.configPath); err != nil {
			return err
		}
	}

	file, err := event.LoadFile(o.input)
	if err != nil {
		return err
	}
	setup := file.Setup(cfg.GetFieldUnit())
	monitoring.Logf("loaded %d events from %s (Bz=%.3f T)", len(file.Events), o.input, setup.Field.B.Z)

	metrics.RegisterAssociationMetrics()
	associators, err := buildAssociators(o, cfg, setup)
	if err != nil {
		return err
	}

	var store *sqlite.RunStore
	if o.dbPath != "" {
		d, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer d.Close()
		store = sqlite.NewRunStore(d.DB)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	p := &processor{
		associators: associators,
		store:       store,
		configJSON:  cfgJSON,
		accs:        make([]*report.Accumulator, len(associators)),
	}
	for i, a := range associators {
		p.accs[i] = report.NewAccumulator(a.Name())
	}

	ctx := context.Background()
	for i := range file.Events {
		if err := p.processEvent(ctx, &file.Events[i]); err != nil {
			return err
		}
	}

	res := results{Version: version.Version, Events: p.events}
	for _, a := range p.accs {
		res.Summaries = append(res.Summaries, a.Summary())
	}
	fsys := fsutil.OSFileSystem{}
	if err := writeResults(fsys, o.output, stdout, res); err != nil {
		return err
	}

	if o.plotsDir != "" {
		written, err := report.WritePlots(fsys, o.plotsDir, p.accs)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %d plots to %s", len(written), o.plotsDir)
	}
	if o.htmlPath != "" {
		if err := report.WriteHTML(fsys, o.htmlPath, p.accs); err != nil {
			return err
		}
		monitoring.Logf("wrote HTML report to %s", o.htmlPath)
	}
	if o.metricsFile != "" {
		if err := metrics.WriteTextfile(o.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func runMigrate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("trackassoc migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", defaultDBPath, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout)
}

func buildAssociators(o options, cfg *config.AssociatorConfig, setup event.Setup) ([]association.Associator, error) {
	obs := association.WithObserver(metrics.Observer{})
	var out []association.Associator

	if o.associator == "hits" || o.associator == "both" {
		a, err := association.NewQuickHitAssociator(cfg, obs, association.WithLayerPolicy(detector.Default()))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if o.associator == "chi2" || o.associator == "both" {
		chiOpts := []association.Option{obs}
		if o.cosmic {
			chiOpts = append(chiOpts, association.WithDefiner(helix.NewCosmicDefiner(setup.Geometry, setup.Field)))
		}
		a, err := association.NewChi2Associator(cfg, setup.Field, chiOpts...)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type pairResult struct {
	Track    string  `json:"track"`
	Particle string  `json:"particle"`
	Quality  float64 `json:"quality"`
}

type eventResult struct {
	Event      event.EventKey `json:"event"`
	Associator string         `json:"associator"`
	RunID      string         `json:"run_id,omitempty"`
	RecoToSim  int            `json:"reco_to_sim_links"`
	SimToReco  int            `json:"sim_to_reco_links"`
	Pairs      []pairResult   `json:"pairs"`
	GenMatch   []int          `json:"gen_match,omitempty"`
}

type results struct {
	Version   string           `json:"version"`
	Summaries []report.Summary `json:"summaries"`
	Events    []eventResult    `json:"events"`
}

type processor struct {
	associators []association.Associator
	store       *sqlite.RunStore
	configJSON  []byte
	accs        []*report.Accumulator
	events      []eventResult
}

func (p *processor) processEvent(ctx context.Context, rec *event.Record) error {
	ev := rec.Event()
	tracks := association.TracksFromCollection(rec.Tracks)
	particles := association.ParticlesFromCollection(rec.Particles)
	trackRefs, err := tracks.Refs()
	if err != nil {
		return err
	}

	for i, a := range p.associators {
		r2s, err := a.AssociateRecoToSim(ev, tracks, particles)
		if err != nil {
			return fmt.Errorf("event %s: %s reco-to-sim: %w", rec.Key, a.Name(), err)
		}
		s2r, err := a.AssociateSimToReco(ev, tracks, particles)
		if err != nil {
			return fmt.Errorf("event %s: %s sim-to-reco: %w", rec.Key, a.Name(), err)
		}
		p.accs[i].AddEvent(len(rec.Tracks), len(rec.Particles), r2s, s2r)

		res := eventResult{
			Event:      rec.Key,
			Associator: a.Name(),
			RecoToSim:  r2s.Links(),
			SimToReco:  s2r.Links(),
			Pairs:      []pairResult{},
		}
		for _, pr := range association.OneToOne(r2s) {
			res.Pairs = append(res.Pairs, pairResult{Track: pr.Track.Track.ID, Particle: pr.Particle.Particle.ID, Quality: pr.Quality})
		}
		if len(rec.GenBarcodes) > 0 {
			if res.GenMatch, err = matcher.FromAssociation(trackRefs, r2s, rec.GenBarcodes); err != nil {
				return fmt.Errorf("event %s: %w", rec.Key, err)
			}
		}

		if p.store != nil {
			run := &sqlite.Run{Associator: a.Name(), ConfigJSON: p.configJSON, Event: rec.Key}
			if err := p.store.SaveRun(ctx, run, r2s, s2r); err != nil {
				return fmt.Errorf("event %s: failed to save run: %w", rec.Key, err)
			}
			sum := report.Summarize(a.Name(), len(rec.Tracks), len(rec.Particles), r2s, s2r)
			if err := p.store.SaveSummary(ctx, run.RunID, sum); err != nil {
				return fmt.Errorf("event %s: failed to save summary: %w", rec.Key, err)
			}
			res.RunID = run.RunID
		}

		monitoring.Debugf("event %s %s: %d reco-to-sim, %d sim-to-reco links, %d pairs",
			rec.Key, a.Name(), res.RecoToSim, res.SimToReco, len(res.Pairs))
		p.events = append(p.events, res)
	}
	return nil
}

func writeResults(fsys fsutil.FileSystem, path string, stdout io.Writer, res results) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if path == "-" || path == "" {
		_, err := buf.WriteTo(stdout)
		return err
	}
	return fsutil.WriteTo(fsys, path, &buf)
}
