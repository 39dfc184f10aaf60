package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "finalframe"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// FrameMetrics mirrors frame.Reader counters into Prometheus. Readers are
// single-goroutine, so the owner pushes deltas through ObserveStats.
type FrameMetrics struct {
	read      prometheus.Counter
	dropped   *prometheus.CounterVec
	filtered  prometheus.Counter
	datagrams prometheus.Counter
	bytes     prometheus.Counter
}

// NewFrameMetrics registers the frame counters on reg, labelled with feed.
func NewFrameMetrics(reg prometheus.Registerer, feed string) (*FrameMetrics, error) {
	labels := prometheus.Labels{"feed": feed}
	m := &FrameMetrics{
		read: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "reader",
			Name:        "frames_read_total",
			Help:        "Structurally valid frames read, including category-filtered ones.",
			ConstLabels: labels,
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "reader",
			Name:        "frames_dropped_total",
			Help:        "Frames dropped, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "reader",
			Name:        "frames_filtered_total",
			Help:        "Valid frames discarded by the category filter.",
			ConstLabels: labels,
		}),
		datagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "feed",
			Name:        "datagrams_total",
			Help:        "Datagrams received.",
			ConstLabels: labels,
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "feed",
			Name:        "payload_bytes_total",
			Help:        "Payload bytes delivered to handlers.",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{m.read, m.dropped, m.filtered, m.datagrams, m.bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveStats adds a counter delta, as produced by frame.Stats.Sub.
func (m *FrameMetrics) ObserveStats(d frame.Stats) {
	m.read.Add(float64(d.FramesRead))
	m.filtered.Add(float64(d.Filtered))
	m.dropped.WithLabelValues(frame.EventInvalidSize.String()).Add(float64(d.DroppedInvalidSize))
	m.dropped.WithLabelValues(frame.EventInvalidFooter.String()).Add(float64(d.DroppedInvalidFooter))
	m.dropped.WithLabelValues(frame.EventReadError.String()).Add(float64(d.DroppedReadError))
}

func (m *FrameMetrics) ObserveDatagram(payloadBytes int) {
	m.datagrams.Inc()
	m.bytes.Add(float64(payloadBytes))
}
