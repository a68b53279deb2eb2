package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/association"
	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/event"
	internaltestutil "github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/testutil"
)

func TestObserverRecordsQuery(t *testing.T) {
	before := testutil.ToFloat64(LinksTotal.WithLabelValues("test", "reco_to_sim"))
	singular := testutil.ToFloat64(SingularCovarianceTotal.WithLabelValues("test", "reco_to_sim"))

	Observer{}.ObserveQuery(association.QueryStats{
		Associator: "test",
		Direction:  association.RecoToSim,
		Links:      4,
		Diagnostics: association.Diagnostics{
			PairsEvaluated:     10,
			SingularCovariance: 2,
		},
		Duration: 3 * time.Millisecond,
	})

	if got := testutil.ToFloat64(LinksTotal.WithLabelValues("test", "reco_to_sim")) - before; got != 4 {
		t.Errorf("links_total delta = %v, want 4", got)
	}
	if got := testutil.ToFloat64(SingularCovarianceTotal.WithLabelValues("test", "reco_to_sim")) - singular; got != 2 {
		t.Errorf("singular_covariance_total delta = %v, want 2", got)
	}
	if testutil.CollectAndCount(QueryDuration) == 0 {
		t.Error("expected query_duration_seconds to have observations")
	}
}

func TestObserverWiredToAssociator(t *testing.T) {
	f := internaltestutil.NewFixture(event.EventKey{Run: 1})
	p := f.AddParticle("tp", 4)
	f.AddTrack("trk", p, p, p, p)

	a, err := association.NewQuickHitAssociator(nil, association.WithObserver(Observer{}))
	internaltestutil.AssertNoError(t, err)

	before := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "sim_to_reco"))
	_, err = a.AssociateSimToReco(f.Event, association.TracksFromCollection(f.Tracks), association.ParticlesFromCollection(f.Particles))
	internaltestutil.AssertNoError(t, err)

	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "sim_to_reco")) - before; got != 1 {
		t.Errorf("queries_total delta = %v, want 1", got)
	}
}

func TestObserverCountsEachDirectionOnce(t *testing.T) {
	f := internaltestutil.NewFixture(event.EventKey{Run: 2})
	p := f.AddParticle("tp", 4)
	f.AddTrack("trk", p, p, p, p)

	a, err := association.NewQuickHitAssociator(nil, association.WithObserver(Observer{}))
	internaltestutil.AssertNoError(t, err)
	tracks := association.TracksFromCollection(f.Tracks)
	particles := association.ParticlesFromCollection(f.Particles)

	r2sBefore := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "reco_to_sim"))
	s2rBefore := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "sim_to_reco"))
	_, err = a.AssociateRecoToSim(f.Event, tracks, particles)
	internaltestutil.AssertNoError(t, err)
	_, err = a.AssociateSimToReco(f.Event, tracks, particles)
	internaltestutil.AssertNoError(t, err)

	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "reco_to_sim")) - r2sBefore; got != 1 {
		t.Errorf("reco_to_sim queries_total delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues(association.QuickHitsName, "sim_to_reco")) - s2rBefore; got != 1 {
		t.Errorf("sim_to_reco queries_total delta = %v, want 1", got)
	}
}

func TestRegisterAndWriteTextfile(t *testing.T) {
	RegisterAssociationMetrics()
	RegisterAssociationMetrics()

	Observer{}.ObserveQuery(association.QueryStats{Associator: "textfile", Direction: association.SimToReco, Links: 1})

	path := filepath.Join(t.TempDir(), "trackassoc.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `trackassoc_links_total{associator="textfile",direction="sim_to_reco"} 1`) {
		t.Errorf("textfile missing links_total sample:\n%s", data)
	}
}
