package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/vettriage/internal/model"
)

func okResult(disease string, u model.Urgency) model.Result {
	return model.Result{Predictions: []model.Prediction{{Disease: disease, Urgency: u}}}
}

func TestObserveCountsByOutcome(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(okResult("Parvovirus", model.UrgencyEmergency), 2*time.Millisecond)
	r.Observe(okResult("Parvovirus", model.UrgencyEmergency), 3*time.Millisecond)
	r.Observe(model.Failed(model.KindFeatureEncoding, "bad"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues(string(model.KindFeatureEncoding))))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.topDisease.WithLabelValues("Parvovirus", "Emergency")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestWriteRecordsPrediction(t *testing.T) {
	r := New(DefaultConfig())
	rec := model.PredictionRecord{Result: okResult("Colic", model.UrgencyHigh), Latency: time.Millisecond}

	require.NoError(t, r.Write(t.Context(), rec))
	require.NoError(t, r.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.topDisease.WithLabelValues("Colic", "High")))
}

func TestObserveHTTPBucketsStatus(t *testing.T) {
	r := New(DefaultConfig())
	r.ObserveHTTP("/predict", 200)
	r.ObserveHTTP("/predict", 400)
	r.ObserveHTTP("/predict", 422)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpReqs.WithLabelValues("/predict", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpReqs.WithLabelValues("/predict", "4xx")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New(DefaultConfig())
	r.Observe(okResult("Kennel Cough", model.UrgencyMedium), time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, name := range []string{
		"vettriage_engine_predictions_total",
		"vettriage_engine_prediction_latency_seconds",
		"vettriage_engine_top_disease_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestGoCollectorsOptional(t *testing.T) {
	r := New(Config{GoCollectors: true})
	mfs, err := r.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	assert.True(t, found)
}
