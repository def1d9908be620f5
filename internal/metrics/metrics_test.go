package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	c := NewCollector("guardpost")
	c.ObserveHTTP("GET", "/jobs", 200, 10*time.Millisecond)
	c.ObserveProvider("reed", time.Second, nil)
	c.ObserveProvider("reed", time.Second, errors.New("boom"))
	c.CountChat("pricing")

	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/jobs", "200")); got != 1 {
		t.Errorf("http requests = %v", got)
	}
	if got := testutil.ToFloat64(c.ProviderRequests.WithLabelValues("reed", "error")); got != 1 {
		t.Errorf("provider errors = %v", got)
	}
	if got := testutil.ToFloat64(c.ChatMessages.WithLabelValues("pricing")); got != 1 {
		t.Errorf("chat messages = %v", got)
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "guardpost_job_search_duration_seconds") {
		t.Error("exposition should include provider latency histogram")
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveHTTP("GET", "/", 200, time.Millisecond)
	c.ObserveProvider("adzuna", time.Millisecond, nil)
	c.CountChat("x")
	if c.Registry() != nil {
		t.Error("nil collector should have no registry")
	}
}
