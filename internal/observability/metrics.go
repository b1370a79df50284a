package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics counts what the client puts on and takes off the channel. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesSent         prometheus.Counter
	BytesSent          prometheus.Counter
	TransfersCompleted prometheus.Counter
	TransfersFailed    prometheus.Counter
	MessagesReceived   *prometheus.CounterVec
	ProtocolFaults     *prometheus.CounterVec
}

// NewMetrics creates the client counters on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "transfer",
			Name:      "frames_sent_total",
			Help:      "Binary frames sent.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "transfer",
			Name:      "bytes_sent_total",
			Help:      "File bytes sent in binary frames.",
		}),
		TransfersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "transfer",
			Name:      "completed_total",
			Help:      "Transfers whose final chunk was sent.",
		}),
		TransfersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "transfer",
			Name:      "failed_total",
			Help:      "Transfers aborted before the final chunk.",
		}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "channel",
			Name:      "messages_received_total",
			Help:      "Inbound control messages by tag.",
		}, []string{"tag"}),
		ProtocolFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wsdrop",
			Subsystem: "channel",
			Name:      "protocol_faults_total",
			Help:      "Inbound frames rejected by the dispatcher.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.FramesSent,
		m.BytesSent,
		m.TransfersCompleted,
		m.TransfersFailed,
		m.MessagesReceived,
		m.ProtocolFaults,
	)
	return m
}

func (m *Metrics) ObserveChunk(n int) {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
	m.BytesSent.Add(float64(n))
}

func (m *Metrics) ObserveTransfer(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.TransfersFailed.Inc()
		return
	}
	m.TransfersCompleted.Inc()
}

func (m *Metrics) ObserveMessage(tag string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(tag).Inc()
}

func (m *Metrics) ObserveFault(kind string) {
	if m == nil {
		return
	}
	m.ProtocolFaults.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown warning")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
