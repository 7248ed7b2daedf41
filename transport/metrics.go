package transport

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts transport traffic. A nil *Metrics discards everything.
type Metrics struct {
	FramesIn  prometheus.Counter
	FramesOut prometheus.Counter
	BytesIn   prometheus.Counter
	BytesOut  prometheus.Counter
	Timeouts  prometheus.Counter
}

// NewMetrics creates the transport counters and registers them with reg.
// A nil reg leaves them unregistered. Counters already registered under
// the same names are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) (prometheus.Counter, error) {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usblink",
			Subsystem: "transport",
			Name:      name,
			Help:      help,
		})
		if reg == nil {
			return c, nil
		}
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
					return existing, nil
				}
			}
			return nil, err
		}
		return c, nil
	}

	var (
		m   Metrics
		err error
	)
	if m.FramesIn, err = counter("frames_received_total", "Frames read from the peer."); err != nil {
		return nil, err
	}
	if m.FramesOut, err = counter("frames_sent_total", "Frames written to the peer."); err != nil {
		return nil, err
	}
	if m.BytesIn, err = counter("bytes_received_total", "Frame body bytes read from the peer."); err != nil {
		return nil, err
	}
	if m.BytesOut, err = counter("bytes_sent_total", "Frame body bytes written to the peer."); err != nil {
		return nil, err
	}
	if m.Timeouts, err = counter("read_timeouts_total", "Reads that ended with no frame before the deadline."); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) received(n int) {
	if m == nil {
		return
	}
	m.FramesIn.Inc()
	m.BytesIn.Add(float64(n))
}

func (m *Metrics) sent(n int) {
	if m == nil {
		return
	}
	m.FramesOut.Inc()
	m.BytesOut.Add(float64(n))
}

func (m *Metrics) timeout() {
	if m == nil {
		return
	}
	m.Timeouts.Inc()
}

// MetricsHandler serves the metrics gathered by g in the text exposition
// format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
