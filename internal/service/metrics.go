package service

import (
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics holds the prometheus metrics for media streaming.
type StreamMetrics struct {
	streamsTotal  *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	activeStreams prometheus.Gauge
	readErrors    prometheus.Counter
}

// NewStreamMetrics creates the streaming metrics and registers them on the
// given registry.
func NewStreamMetrics(reg prometheus.Registerer) (*StreamMetrics, error) {
	m := &StreamMetrics{
		streamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_streams_total",
				Help: "Total number of media stream open attempts by outcome.",
			},
			[]string{"status"},
		),
		bytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "media_stream_bytes_total",
				Help: "Total number of media bytes handed to the transport.",
			},
		),
		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "media_active_streams",
				Help: "Number of media streams currently open.",
			},
		),
		readErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "media_stream_read_errors_total",
				Help: "Total number of mid-stream read failures.",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.streamsTotal, m.bytesTotal, m.activeStreams, m.readErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *StreamMetrics) streamOpened(status string) {
	if m == nil {
		return
	}
	m.streamsTotal.WithLabelValues(status).Inc()
}

// track wraps a stream body so bytes and lifecycle are accounted for. A nil
// receiver passes the body through unchanged, which keeps tests that do not
// care about metrics simple.
func (m *StreamMetrics) track(body io.ReadCloser, key string) io.ReadCloser {
	if m == nil {
		return body
	}
	m.activeStreams.Inc()
	return &trackedBody{inner: body, metrics: m, key: key}
}

// trackedBody counts streamed bytes and records mid-stream read failures.
// A read failure after headers are flushed cannot change the status code; it
// is logged and the connection terminates when the transport sees the error.
type trackedBody struct {
	inner   io.ReadCloser
	metrics *StreamMetrics
	key     string
	closed  bool
}

func (t *trackedBody) Read(p []byte) (int, error) {
	n, err := t.inner.Read(p)
	if n > 0 {
		t.metrics.bytesTotal.Add(float64(n))
	}
	if err != nil && err != io.EOF {
		t.metrics.readErrors.Inc()
		logJSON(map[string]any{
			"level": "error",
			"msg":   "media_stream_read_failed",
			"key":   t.key,
			"error": err.Error(),
		})
	}
	return n, err
}

func (t *trackedBody) Close() error {
	if !t.closed {
		t.closed = true
		t.metrics.activeStreams.Dec()
	}
	return t.inner.Close()
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
