package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invokeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goclaw_node_invoke_total",
		Help: "Node invocations by command and result code",
	}, []string{"command", "code"})

	invokeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goclaw_node_invoke_duration_seconds",
		Help:    "Node invocation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	a2uiRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goclaw_node_a2ui_refresh_total",
		Help: "Canvas capability refreshes triggered by the A2UI readiness handshake",
	})
)

// commandLabel keeps metric cardinality bounded to known commands.
func commandLabel(command string) string {
	if _, ok := Find(command); ok {
		return command
	}
	return "unknown"
}

func resultCode(r InvokeResult) string {
	if r.Error != nil {
		return r.Error.Code
	}
	return "ok"
}
