package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncGateOutcome("version", OutcomeShouldUpdate)
	pr.IncGateOutcome("version", OutcomeShouldUpdate)
	pr.IncGateOutcome("migration", OutcomeFetchFailed)
	pr.ObserveGateDuration("version", 150*time.Millisecond)
	pr.IncRecoveryReset()
	pr.SetPersistedKeys(4)

	if got := testutil.ToFloat64(pr.gateOutcomes.WithLabelValues("version", string(OutcomeShouldUpdate))); got != 2 {
		t.Fatalf("expected 2 should_update outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(pr.recoveryResets); got != 1 {
		t.Fatalf("expected 1 reset, got %v", got)
	}
	if got := testutil.ToFloat64(pr.persistedKeys); got != 4 {
		t.Fatalf("expected persisted keys gauge 4, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(mfs))
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncGateOutcome("version", OutcomeNone)
	pr.ObserveGateDuration("version", time.Second)
	pr.IncRecoveryReset()
	pr.SetPersistedKeys(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncRecoveryReset()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "walletboot_recovery_resets_total 1") {
		t.Fatalf("expected reset counter in scrape, got:\n%s", body)
	}
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncGateOutcome("version", OutcomeNone)
	r.ObserveGateDuration("version", time.Millisecond)
	r.IncRecoveryReset()
	r.SetPersistedKeys(0)
}
