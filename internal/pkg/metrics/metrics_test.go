package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMessagesCreated_ByPath(t *testing.T) {
	before := testutil.ToFloat64(MessagesCreated.WithLabelValues(PathLater))

	MessagesCreated.WithLabelValues(PathLater).Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(MessagesCreated.WithLabelValues(PathLater)))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	StandupsStarted.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flockr_standups_started_total")
}
