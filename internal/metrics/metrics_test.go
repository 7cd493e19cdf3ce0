package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncExport(t *testing.T) {
	ok := Exports.WithLabelValues("test-format", OutcomeSuccess)
	failed := Exports.WithLabelValues("test-format", OutcomeFailure)
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	IncExport("test-format", nil)
	IncExport("test-format", errors.New("disk full"))
	IncExport("test-format", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestGenerationMetrics(t *testing.T) {
	before := testutil.ToFloat64(GenerationResults.WithLabelValues("test-provider", OutcomeFailure))

	IncGenerationRequest("test-provider")
	IncGenerationsInFlight()
	ObserveGeneration("test-provider", OutcomeFailure, 3*time.Second)
	IncGenerationFailure("test-kind")
	DecGenerationsInFlight()

	assert.Equal(t, before+1, testutil.ToFloat64(GenerationResults.WithLabelValues("test-provider", OutcomeFailure)))
	assert.Equal(t, float64(0), testutil.ToFloat64(GenerationsInFlight))
}

func TestHandler(t *testing.T) {
	ObserveHTTPRequest(http.MethodGet, "/health", "200", time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "extgen_http_requests_total")
}
