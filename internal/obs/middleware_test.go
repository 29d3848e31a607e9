package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPObsCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("salon_test", nil, reg)

	handler := HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/orders", "201"))
	if count != 1 {
		t.Fatalf("expected 1 request counted, got %f", count)
	}
}

func TestStatusRecorderDefaults(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	if rec.Status() != http.StatusOK {
		t.Fatalf("expected default 200, got %d", rec.Status())
	}
	if _, err := rec.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.BytesWritten() != 2 {
		t.Fatalf("expected 2 bytes recorded, got %d", rec.BytesWritten())
	}
}

func TestRoutePatternContext(t *testing.T) {
	ctx := WithRoutePattern(nil, "/api/v1/orders/{id}")
	if got := RoutePatternFromContext(ctx); got != "/api/v1/orders/{id}" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := RoutePatternFromContext(nil); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}
