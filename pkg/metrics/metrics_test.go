package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := counterValue(t, RequestTotal.WithLabelValues("GET", "/orders/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}
	after := counterValue(t, RequestTotal.WithLabelValues("GET", "/orders/{id}", "418"))

	assert.Equal(t, 3.0, after-before)
}

func TestRecordPlacement(t *testing.T) {
	before := counterValue(t, OrdersPlaced.WithLabelValues("created"))
	RecordPlacement("created", time.Now())
	assert.Equal(t, 1.0, counterValue(t, OrdersPlaced.WithLabelValues("created"))-before)
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordQueueJob("notify_farmer", "success", time.Now())

	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_queue_jobs_processed_total")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
