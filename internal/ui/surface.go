package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// State of the presentation surface
type State int

const (
	StateDropZone State = iota
	StateTransferring
	StateResult
)

func (s State) String() string {
	switch s {
	case StateDropZone:
		return "DropZone"
	case StateTransferring:
		return "Transferring"
	case StateResult:
		return "Result"
	default:
		return "Unknown"
	}
}

// Clipboard receives the reference of each finished upload
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// ResultView is what the surface shows for a returned link
type ResultView struct {
	Path   string // d/<link>
	URL    string // download base + "/" + Path
	Copied bool
}

// ResultPath is the download path the endpoint serves link under
func ResultPath(link string) string {
	return "d/" + link
}

// Surface is the console rendition of the drop page: a drop zone, a progress
// bar while a file is sent, and the result view once a link arrives. It is
// safe for use from the reporter and dispatcher goroutines.
type Surface struct {
	mu           sync.Mutex
	out          io.Writer
	downloadBase string
	clip         Clipboard // nil disables copying
	state        State
	progress     *ProgressUI
}

func NewSurface(out io.Writer, downloadBase string, clip Clipboard) *Surface {
	return &Surface{
		out:          out,
		downloadBase: strings.TrimSuffix(downloadBase, "/"),
		clip:         clip,
	}
}

func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ShowDropZone prints the waiting prompt for a watched directory
func (s *Surface) ShowDropZone(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDropZone
	fmt.Fprintf(s.out, "Drop files into %s to upload them\n", dir)
}

// BeginTransfer replaces any previous view with a fresh progress bar
func (s *Surface) BeginTransfer(name string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTransferring
	s.progress = NewProgressUI(s.out, name, size)
}

// SetProgress renders the displayed percent; ignored outside a transfer
func (s *Surface) SetProgress(displayed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTransferring || s.progress == nil {
		return
	}
	s.progress.Update(displayed)
}

// ShowResult switches to the result view for link and copies its URL
func (s *Surface) ShowResult(link string) ResultView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress != nil {
		s.progress.Complete()
		s.progress = nil
		fmt.Fprintln(s.out)
	}
	s.state = StateResult

	view := ResultView{Path: ResultPath(link)}
	view.URL = view.Path
	if s.downloadBase != "" {
		view.URL = s.downloadBase + "/" + view.Path
	}

	if s.clip != nil {
		if err := s.clip.WriteAll(view.URL); err != nil {
			log.Warn().Err(err).Msg("failed to copy link to clipboard")
		} else {
			view.Copied = true
		}
	}

	suffix := ""
	if view.Copied {
		suffix = " (copied to clipboard)"
	}
	fmt.Fprintf(s.out, "Link: %s%s\n", view.URL, suffix)
	return view
}
