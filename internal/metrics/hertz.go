package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobhunt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobhunt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		[]string{"method", "path", "status"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobhunt",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

// HertzMiddleware 为 Hertz 路由注册 Prometheus 指标采集逻辑。
func HertzMiddleware() app.HandlerFunc {
	Register()

	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		ctx.Next(c)

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{
			"method": string(ctx.Method()),
			"path":   path,
			"status": strconv.Itoa(ctx.Response.StatusCode()),
		}

		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	}
}

// Handler 暴露 Prometheus 指标，promhttp 的 net/http 处理器经 adaptor 转接到 Hertz
func Handler() app.HandlerFunc {
	Register()
	h := promhttp.Handler()

	return func(c context.Context, ctx *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&ctx.Request)
		if err != nil {
			ctx.String(consts.StatusInternalServerError, err.Error())
			return
		}
		h.ServeHTTP(adaptor.GetCompatResponseWriter(&ctx.Response), req.WithContext(c))
	}
}
