package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{Registry: reg})

	r := gin.New()
	require.Nil(t, p.Use(r, ""))
	r.GET("/api/v1/organization/:id/stats", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/organization/"+id+"/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `req_total{code="200",method="GET",ref="",url="/api/v1/organization/:id/stats"} 2`)
	require.False(t, strings.Contains(body, "/organization/a/stats"))
}

func TestPrometheus_SeparateListener(t *testing.T) {
	p := NewPrometheus(NewPrometheusOptions{Registry: prometheus.NewRegistry()})
	srv := p.Use(gin.New(), ":0")
	require.NotNil(t, srv)
	require.Equal(t, ":0", srv.Addr)
}
