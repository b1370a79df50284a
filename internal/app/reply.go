package app

import (
	"errors"
	"sync"

	"wsdrop/internal/transfer"
	"wsdrop/internal/transport"
)

var ErrUnexpectedLink = errors.New("link received while no upload awaits one")

// replyWindow sits between the engine and the channel and tracks whether the
// endpoint owes a Link. The endpoint replies once it has received the
// announced size, so the window opens just before the chunk that completes
// the announced size goes out and closes when the Link is taken.
type replyWindow struct {
	sender transfer.Sender

	mu        sync.Mutex
	announced bool
	remaining int64
	awaiting  bool
}

func newReplyWindow(sender transfer.Sender) *replyWindow {
	return &replyWindow{sender: sender}
}

func (w *replyWindow) SendControl(msg transport.Message) error {
	if m, ok := msg.(transport.FileMessage); ok {
		w.mu.Lock()
		w.announced = true
		w.remaining = m.Size
		w.mu.Unlock()
	}
	return w.sender.SendControl(msg)
}

func (w *replyWindow) SendChunk(p []byte) error {
	w.mu.Lock()
	if w.announced {
		w.remaining -= int64(len(p))
		if w.remaining <= 0 {
			w.announced = false
			w.awaiting = true
		}
	}
	w.mu.Unlock()
	return w.sender.SendChunk(p)
}

// take claims the pending reply. It reports false when no upload is owed one.
func (w *replyWindow) take() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.awaiting {
		return false
	}
	w.awaiting = false
	return true
}
