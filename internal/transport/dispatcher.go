package transport

import (
	"errors"
	"fmt"

	"wsdrop/internal/observability"

	"github.com/rs/zerolog/log"
)

var ErrUnknownTag = errors.New("unknown control message tag")

// UnknownTagError reports an inbound message no handler accepts
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTag, e.Tag)
}

func (e *UnknownTagError) Unwrap() error { return ErrUnknownTag }

// LinkHandler receives the payload of a Link message
type LinkHandler func(LinkMessage) error

// Dispatcher routes inbound control messages to their handlers
type Dispatcher struct {
	onLink  LinkHandler
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher. A nil onLink makes Link an unknown tag.
func NewDispatcher(onLink LinkHandler, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		onLink:  onLink,
		metrics: metrics,
	}
}

// Dispatch decodes one inbound frame and invokes the matching handler.
// Messages without a handler are a protocol fault, never dropped.
func (d *Dispatcher) Dispatch(raw []byte) error {
	msg, err := DecodeMessage(raw)
	if err != nil {
		d.metrics.ObserveFault("malformed")
		return err
	}

	log.Debug().Str("tag", msg.Tag()).Msg("control message received")
	d.metrics.ObserveMessage(msg.Tag())

	switch m := msg.(type) {
	case LinkMessage:
		if d.onLink == nil {
			return d.unknown(m.Tag())
		}
		return d.onLink(m)
	case FileMessage:
		// File only travels client to endpoint
		return d.unknown(m.Tag())
	case UnknownMessage:
		return d.unknown(m.Tag())
	default:
		panic(fmt.Sprintf("transport: unhandled message variant %T", msg))
	}
}

func (d *Dispatcher) unknown(tag string) error {
	d.metrics.ObserveFault("unknown_tag")
	return &UnknownTagError{Tag: tag}
}
