package transport

import (
	"errors"
	"testing"

	"wsdrop/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDispatchLinkPassesInnerPayload(t *testing.T) {
	var got []LinkMessage
	d := NewDispatcher(func(m LinkMessage) error {
		got = append(got, m)
		return nil
	}, nil)

	require.NoError(t, d.Dispatch([]byte(`{"Link":{"link":"xyz"}}`)))
	require.Equal(t, []LinkMessage{{Link: "xyz"}}, got)
}

func TestDispatchUnknownTagFaults(t *testing.T) {
	metrics := observability.NewMetrics()
	d := NewDispatcher(func(LinkMessage) error { return nil }, metrics)

	err := d.Dispatch([]byte(`{"Unknown":{}}`))
	require.ErrorIs(t, err, ErrUnknownTag)

	var tagErr *UnknownTagError
	require.True(t, errors.As(err, &tagErr))
	require.Equal(t, "Unknown", tagErr.Tag)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ProtocolFaults.WithLabelValues("unknown_tag")))
}

func TestDispatchWithoutLinkHandlerFaults(t *testing.T) {
	d := NewDispatcher(nil, nil)
	require.ErrorIs(t, d.Dispatch([]byte(`{"Link":{"link":"xyz"}}`)), ErrUnknownTag)
}

func TestDispatchInboundFileFaults(t *testing.T) {
	d := NewDispatcher(func(LinkMessage) error { return nil }, nil)
	require.ErrorIs(t, d.Dispatch([]byte(`{"File":{"file":"a","size":1}}`)), ErrUnknownTag)
}

func TestDispatchBareTagFaults(t *testing.T) {
	d := NewDispatcher(func(LinkMessage) error { return nil }, nil)
	require.ErrorIs(t, d.Dispatch([]byte(`"Heartbeat"`)), ErrUnknownTag)
}

func TestDispatchMalformed(t *testing.T) {
	metrics := observability.NewMetrics()
	d := NewDispatcher(func(LinkMessage) error { return nil }, metrics)

	require.ErrorIs(t, d.Dispatch([]byte(`{`)), ErrMalformedMessage)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ProtocolFaults.WithLabelValues("malformed")))
}

func TestDispatchReturnsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(func(LinkMessage) error { return boom }, nil)
	require.ErrorIs(t, d.Dispatch([]byte(`{"Link":{"link":"a"}}`)), boom)
}
