package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder 基于 Prometheus 的 Recorder 实现
type PrometheusRecorder struct {
	reg           *prom.Registry
	setupDuration *prom.HistogramVec
	outcomes      *prom.CounterVec
}

// NewPrometheusRecorder 创建并注册指标；reg 为 nil 时使用新的 Registry
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		setupDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "modkit",
			Name:      "module_setup_duration_seconds",
			Help:      "Duration of module setup routines",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"module"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "modkit",
			Name:      "module_install_outcomes_total",
			Help:      "Module install outcomes by status",
		}, []string{"module", "outcome"}),
	}
	reg.MustRegister(pr.setupDuration, pr.outcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveSetup(module string, d time.Duration) {
	if p == nil || p.setupDuration == nil {
		return
	}
	p.setupDuration.WithLabelValues(module).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOutcome(module string, outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(module, outcome).Inc()
}

// Registry 返回指标所在的 Registry
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

// Handler 返回暴露该 Registry 的 http.Handler
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
