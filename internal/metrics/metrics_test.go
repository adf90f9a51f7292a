package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordTaskOp_CountsByLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTaskOp("create", OutcomeOK)
	c.RecordTaskOp("create", OutcomeOK)
	c.RecordTaskOp("get", OutcomeNotFound)

	mf := findMetric(t, reg, "taskmanager_task_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		want := 1.0
		if labels["op"] == "create" {
			want = 2
		}
		if got := m.GetCounter().GetValue(); got != want {
			t.Errorf("%v = %v, want %v", labels, got, want)
		}
	}
}

func TestRecordRequest_ObservesLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest(http.MethodGet, "/api/tasks", 200, 20*time.Millisecond)
	c.RecordRequest(http.MethodGet, "", 404, time.Millisecond)

	mf := findMetric(t, reg, "taskmanager_http_request_duration_seconds")
	var total uint64
	for _, m := range mf.GetMetric() {
		total += m.GetHistogram().GetSampleCount()
	}
	if total != 2 {
		t.Errorf("sample count = %d, want 2", total)
	}

	mf = findMetric(t, reg, "taskmanager_http_requests_total")
	foundUnmatched := false
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "route" && l.GetValue() == "unmatched" {
				foundUnmatched = true
			}
		}
	}
	if !foundUnmatched {
		t.Error("empty route should be recorded as unmatched")
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthEvent("login", OutcomeDenied)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `taskmanager_auth_events_total{event="login",outcome="denied"} 1`) {
		t.Errorf("unexpected exposition:\n%s", body)
	}
}
