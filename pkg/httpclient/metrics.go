package httpclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はリクエストの件数と所要時間を記録するPrometheusメトリクス。
type Metrics struct {
	// RequestsTotal はメソッドとステータスコードごとのリクエスト数。
	// レスポンスを受信できなかった場合のステータスは "0"。
	RequestsTotal *prometheus.CounterVec
	// RequestDuration はメソッドごとのリクエスト所要時間（秒）。
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics はメトリクスを生成し、regに登録する。
// regがnilの場合は登録しない。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemdesk_client_requests_total",
			Help: "Total number of API requests issued by the client",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "itemdesk_client_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.RequestsTotal, m.RequestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe は1件のリクエストを記録する。mがnilの場合は何もしない。
func (m *Metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
