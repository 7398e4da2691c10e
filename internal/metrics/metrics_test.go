package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordIndex(t *testing.T) {
	before := testutil.ToFloat64(indexRunsTotal.WithLabelValues("success"))
	skippedBefore := testutil.ToFloat64(skippedEntriesTotal.WithLabelValues("indexer"))

	RecordIndex(20*time.Millisecond, true, 3, 5, 1, 0, 2)

	assert.Equal(t, before+1, testutil.ToFloat64(indexRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(5), testutil.ToFloat64(indexEntries.WithLabelValues("file")))
	assert.Equal(t, skippedBefore+2, testutil.ToFloat64(skippedEntriesTotal.WithLabelValues("indexer")))
}

func TestRecordNavigation(t *testing.T) {
	before := testutil.ToFloat64(navigationsTotal.WithLabelValues("parent", "error"))
	RecordNavigation("parent", false)
	assert.Equal(t, before+1, testutil.ToFloat64(navigationsTotal.WithLabelValues("parent", "error")))
}

func TestSessions(t *testing.T) {
	before := testutil.ToFloat64(sessionsActive)
	SessionOpened()
	SessionOpened()
	SessionClosed()
	assert.Equal(t, before+1, testutil.ToFloat64(sessionsActive))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/sessions/:id", "204"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/sessions/:id", "204")))
}

func TestHandler(t *testing.T) {
	RecordIndex(time.Millisecond, false, 0, 0, 0, 0, 0)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dirscope_index_runs_total")
}
