package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 网关调用结果
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeDegraded = "degraded"
)

var (
	registerOnce sync.Once

	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobhunt",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "AI 网关操作调用次数。",
		},
		[]string{"operation", "outcome"},
	)

	gatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobhunt",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "AI 网关操作耗时分布（秒）。",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"operation"},
	)

	sessionIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobhunt",
			Subsystem: "session",
			Name:      "intents_total",
			Help:      "状态机收到的用户意图次数。",
		},
		[]string{"intent", "result"},
	)
)

// Register 把采集器注册到默认注册表，可重复调用
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			gatewayCallsTotal,
			gatewayCallDuration,
			sessionIntentsTotal,
			requestDuration,
			requestTotal,
			requestsInFlight,
		)
	})
}

// ObserveGatewayCall 记录一次网关操作
func ObserveGatewayCall(operation, outcome string, elapsed time.Duration) {
	gatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
	gatewayCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveIntent 记录一次状态机意图及其结果
func ObserveIntent(intent, result string) {
	sessionIntentsTotal.WithLabelValues(intent, result).Inc()
}
