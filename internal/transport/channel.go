package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"wsdrop/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

var ErrChannelClosed = errors.New("channel is closed")

// Channel is the single bidirectional connection to the drop endpoint.
// Control messages travel as JSON text frames, file chunks as bare binary
// frames. Binary frames carry no header, so at most one transfer may be
// writing to a Channel at a time.
type Channel struct {
	conn *websocket.Conn

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the endpoint configured in cfg
func Dial(ctx context.Context, cfg *config.Config) (*Channel, error) {
	wsConfig, err := websocket.NewConfig(cfg.Server.URL, cfg.Server.Origin)
	if err != nil {
		return nil, fmt.Errorf("failed to build websocket config: %w", err)
	}

	conn, err := wsConfig.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Server.URL, err)
	}

	log.Info().Str("url", cfg.Server.URL).Msg("channel connected")
	return NewChannel(conn), nil
}

// NewChannel wraps an established websocket connection
func NewChannel(conn *websocket.Conn) *Channel {
	return &Channel{conn: conn}
}

// SendControl sends msg as one JSON text frame
func (c *Channel) SendControl(msg Message) error {
	if c.IsClosed() {
		return ErrChannelClosed
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	if err := websocket.Message.Send(c.conn, string(data)); err != nil {
		return fmt.Errorf("failed to send %s message: %w", msg.Tag(), err)
	}
	return nil
}

// SendChunk sends p verbatim as one binary frame
func (c *Channel) SendChunk(p []byte) error {
	if c.IsClosed() {
		return ErrChannelClosed
	}

	if err := websocket.Message.Send(c.conn, p); err != nil {
		return fmt.Errorf("failed to send chunk of %d bytes: %w", len(p), err)
	}
	return nil
}

// Listen reads inbound frames in order and hands each to d. It returns the
// first dispatch or receive error; a closed channel yields ErrChannelClosed
// and a cancelled ctx yields ctx.Err().
func (c *Channel) Listen(ctx context.Context, d *Dispatcher) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	for {
		var frame []byte
		if err := websocket.Message.Receive(c.conn, &frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.IsClosed() || errors.Is(err, io.EOF) {
				return ErrChannelClosed
			}
			return fmt.Errorf("failed to receive frame: %w", err)
		}

		if err := d.Dispatch(frame); err != nil {
			log.Error().Err(err).Msg("dispatch failed")
			return err
		}
	}
}

// IsClosed reports whether Close has been called
func (c *Channel) IsClosed() bool {
	return c.closed.Load()
}

// Close closes the underlying connection; later calls return the first result
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.conn.Close()
		log.Debug().Msg("channel closed")
	})
	return c.closeErr
}
