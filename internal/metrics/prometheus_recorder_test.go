package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuildDuration(150*time.Millisecond, ResultSuccess)
	pr.IncBuildResult(ResultSuccess)
	pr.IncBuildResult(ResultFailed)
	pr.IncBuildResult(ResultFailed)
	pr.IncCoalesced()
	pr.SetBuildsInFlight(3)
	pr.IncWatchEvent(DispatchDropped)
	pr.IncFullBuild()

	assert.InDelta(t, 2, testutil.ToFloat64(pr.buildResults.WithLabelValues(string(ResultFailed))), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.inFlight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.watchEvents.WithLabelValues(string(DispatchDropped))), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncBuildResult(ResultSuccess)
		pr.SetBuildsInFlight(1)
		pr.IncWatchEvent(DispatchSpawned)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncFullBuild()

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "akini_full_builds_total 1")
}
