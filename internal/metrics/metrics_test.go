package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_handlerExposesCounters(t *testing.T) {
	m := New()
	m.GenerationFinished("ready")
	m.SynthesisItem("openai", false)
	m.Assembly("wav", true)
	m.StaleReclaimed(2)
	m.DocumentImported()
	m.ObserveStage("planning", time.Now().Add(-2*time.Second))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`studycast_generations_total{status="ready"} 1`,
		`studycast_synthesis_items_total{outcome="failed",provider="openai"} 1`,
		`studycast_assemblies_total{format="wav",outcome="ok"} 1`,
		`studycast_stale_generations_total 2`,
		`studycast_documents_imported_total 1`,
		`studycast_stage_duration_seconds_count{stage="planning"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_nilIsNoop(t *testing.T) {
	var m *Metrics
	m.GenerationFinished("error")
	m.SynthesisItem("gemini", true)
	m.Assembly("zip", false)
	m.StaleReclaimed(1)
	m.DocumentImported()
	m.ObserveStage("synthesis", time.Now())
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}
