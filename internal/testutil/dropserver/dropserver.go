// Package dropserver runs an in-process drop endpoint for tests. It appends
// binary frames to the file announced by the oldest pending File frame and
// answers {"Link":{"link":<id>}} once the announced size has arrived.
package dropserver

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/websocket"
)

type Frame struct {
	Text bool
	Data []byte
}

type Upload struct {
	Name string
	Size int64
	Data []byte
}

type Server struct {
	URL string

	link     string
	greeting string
	silent   bool

	mu      sync.Mutex
	frames  []Frame
	uploads []Upload
}

type Option func(*Server)

// WithLink sets the identifier returned in every Link reply
func WithLink(link string) Option {
	return func(s *Server) { s.link = link }
}

// WithGreeting makes the server send raw as a text frame on connect
func WithGreeting(raw string) Option {
	return func(s *Server) { s.greeting = raw }
}

// Silent stores uploads without ever replying
func Silent() Option {
	return func(s *Server) { s.silent = true }
}

var frameCodec = websocket.Codec{
	Marshal: func(v any) ([]byte, byte, error) {
		return nil, websocket.UnknownFrame, websocket.ErrNotSupported
	},
	Unmarshal: func(data []byte, payloadType byte, v any) error {
		f := v.(*Frame)
		f.Text = payloadType == websocket.TextFrame
		f.Data = append([]byte(nil), data...)
		return nil
	},
}

func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{link: "ABCDE"}
	for _, opt := range opts {
		opt(s)
	}

	srv := httptest.NewServer(websocket.Handler(s.handle))
	t.Cleanup(srv.Close)
	s.URL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/connect"
	return s
}

func (s *Server) handle(ws *websocket.Conn) {
	defer ws.Close()

	if s.greeting != "" {
		if err := websocket.Message.Send(ws, s.greeting); err != nil {
			return
		}
	}

	var pending []*Upload
	for {
		var f Frame
		if err := frameCodec.Receive(ws, &f); err != nil {
			return
		}
		s.record(f)

		if f.Text {
			var msg struct {
				File *struct {
					File string `json:"file"`
					Size int64  `json:"size"`
				} `json:"File"`
			}
			if err := json.Unmarshal(f.Data, &msg); err != nil || msg.File == nil {
				continue
			}
			pending = append(pending, &Upload{Name: msg.File.File, Size: msg.File.Size})
			continue
		}

		if len(pending) == 0 {
			return
		}
		u := pending[0]
		u.Data = append(u.Data, f.Data...)
		if int64(len(u.Data)) < u.Size {
			continue
		}

		pending = pending[1:]
		s.mu.Lock()
		s.uploads = append(s.uploads, *u)
		s.mu.Unlock()

		if s.silent {
			continue
		}
		if err := websocket.Message.Send(ws, fmt.Sprintf(`{"Link":{"link":%q}}`, s.link)); err != nil {
			return
		}
	}
}

func (s *Server) record(f Frame) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

// Frames returns every frame received so far, in arrival order
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

// Uploads returns the completed uploads, in completion order
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}
