package metrics

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveGatewayCall(t *testing.T) {
	Register()
	before := testutil.ToFloat64(gatewayCallsTotal.WithLabelValues("find_jobs", OutcomeFallback))
	ObserveGatewayCall("find_jobs", OutcomeFallback, 150*time.Millisecond)
	after := testutil.ToFloat64(gatewayCallsTotal.WithLabelValues("find_jobs", OutcomeFallback))
	assert.Equal(t, before+1, after)
}

func TestObserveIntent(t *testing.T) {
	before := testutil.ToFloat64(sessionIntentsTotal.WithLabelValues("select_job", "cache_hit"))
	ObserveIntent("select_job", "cache_hit")
	assert.Equal(t, before+1, testutil.ToFloat64(sessionIntentsTotal.WithLabelValues("select_job", "cache_hit")))
}

func TestHertzMiddlewareAndHandler(t *testing.T) {
	h := server.Default(server.WithHostPorts("127.0.0.1:0"))
	h.Use(HertzMiddleware())
	h.GET("/ping", func(c context.Context, ctx *app.RequestContext) {
		ctx.String(http.StatusOK, "pong")
	})
	h.GET("/metrics", Handler())

	w := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ut.PerformRequest(h.Engine, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "jobhunt_http_requests_total"), "应暴露 HTTP 指标")
	assert.Contains(t, body, `path="/ping"`)
}
