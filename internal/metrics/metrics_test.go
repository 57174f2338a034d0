package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPRequest_IncrementsCounterWithLabels はHTTPリクエストカウンタが
// ラベル付きで増加することを検証する。
func TestRecordHTTPRequest_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", 200, 20*time.Millisecond)
	c.RecordHTTPRequest("POST", 401, 5*time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "blogman_http_requests_total" {
			found = true
			if len(mf.GetMetric()) != 2 {
				t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
			}
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, l := range m.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				val := m.GetCounter().GetValue()
				switch labels["status_code"] {
				case "200":
					if labels["method"] != "GET" || val != 2 {
						t.Errorf("http_requests_total{200} = %v (method=%s), want 2 (GET)", val, labels["method"])
					}
				case "401":
					if labels["method"] != "POST" || val != 1 {
						t.Errorf("http_requests_total{401} = %v (method=%s), want 1 (POST)", val, labels["method"])
					}
				default:
					t.Errorf("unexpected status_code label: %s", labels["status_code"])
				}
			}
		}
	}
	if !found {
		t.Error("blogman_http_requests_total metric not found")
	}
}

// TestRecordHTTPRequest_ObservesLatencyHistogram はレイテンシのヒストグラムに
// 値が記録されることを検証する。
func TestRecordHTTPRequest_ObservesLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", 200, 100*time.Millisecond)
	c.RecordHTTPRequest("GET", 200, 2*time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "blogman_http_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
			// 合計は0.1 + 2.0 = 2.1秒
			if h.GetSampleSum() < 2.0 || h.GetSampleSum() > 2.2 {
				t.Errorf("sample_sum = %v, want ~2.1", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("blogman_http_latency_seconds metric not found")
	}
}

// TestRecordLogin_CountsByResult はログイン試行が結果別にカウントされることを検証する。
func TestRecordLogin_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(true)
	c.RecordLogin(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "blogman_logins_total" {
			found = true
			for _, m := range mf.GetMetric() {
				label := m.GetLabel()[0].GetValue()
				val := m.GetCounter().GetValue()
				switch label {
				case "success":
					if val != 2 {
						t.Errorf("logins_total{success} = %v, want 2", val)
					}
				case "failure":
					if val != 1 {
						t.Errorf("logins_total{failure} = %v, want 1", val)
					}
				default:
					t.Errorf("unexpected label value: %s", label)
				}
			}
		}
	}
	if !found {
		t.Error("blogman_logins_total metric not found")
	}
}

// TestRecordBlogOperations_IncrementCounters はブログ操作カウンタが増加することを検証する。
func TestRecordBlogOperations_IncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBlogCreated()
	c.RecordBlogCreated()
	c.RecordBlogLiked()
	c.RecordBlogLiked()
	c.RecordBlogLiked()
	c.RecordBlogDeleted()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	want := map[string]float64{
		"blogman_blogs_created_total": 2,
		"blogman_blogs_liked_total":   3,
		"blogman_blogs_deleted_total": 1,
	}

	for _, mf := range metrics {
		if expected, ok := want[mf.GetName()]; ok {
			val := mf.GetMetric()[0].GetCounter().GetValue()
			if val != expected {
				t.Errorf("%s = %v, want %v", mf.GetName(), val, expected)
			}
			delete(want, mf.GetName())
		}
	}

	for name := range want {
		t.Errorf("metric %s not found", name)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	// いくつかのメトリクスを記録
	c.RecordHTTPRequest("GET", 200, 500*time.Millisecond)
	c.RecordLogin(true)
	c.RecordBlogCreated()
	c.RecordBlogLiked()
	c.RecordBlogDeleted()

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Prometheus形式のメトリクスが含まれていることを確認
	expectedMetrics := []string{
		"blogman_http_requests_total",
		"blogman_http_latency_seconds",
		"blogman_logins_total",
		"blogman_blogs_created_total",
		"blogman_blogs_liked_total",
		"blogman_blogs_deleted_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordBlogCreated()
	c2.RecordBlogCreated()
	c2.RecordBlogCreated()

	metrics1, _ := reg1.Gather()
	metrics2, _ := reg2.Gather()

	var val1, val2 float64
	for _, mf := range metrics1 {
		if mf.GetName() == "blogman_blogs_created_total" {
			val1 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	for _, mf := range metrics2 {
		if mf.GetName() == "blogman_blogs_created_total" {
			val2 = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	if val1 != 1 {
		t.Errorf("reg1 blogs_created = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 blogs_created = %v, want 2", val2)
	}
}
