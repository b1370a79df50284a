package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveChunk(65536)
	m.ObserveChunk(34464)
	m.ObserveTransfer(nil)
	m.ObserveTransfer(errors.New("boom"))
	m.ObserveMessage("Link")
	m.ObserveFault("unknown_tag")

	require.Equal(t, 2.0, testutil.ToFloat64(m.FramesSent))
	require.Equal(t, 100000.0, testutil.ToFloat64(m.BytesSent))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TransfersCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TransfersFailed))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("Link")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ProtocolFaults.WithLabelValues("unknown_tag")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveChunk(1)
	m.ObserveTransfer(nil)
	m.ObserveMessage("Link")
	m.ObserveFault("malformed")
}

func TestHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveChunk(10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "wsdrop_transfer_bytes_sent_total 10"))
}
