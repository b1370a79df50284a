package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wsdrop/internal/config"
	"wsdrop/internal/observability"
	"wsdrop/internal/processor"
	"wsdrop/internal/queue"
	"wsdrop/internal/reporter"
	"wsdrop/internal/transfer"
	"wsdrop/internal/transport"
	"wsdrop/internal/ui"
	"wsdrop/pkg/types"

	"github.com/rs/zerolog/log"
)

var ErrLinkTimeout = errors.New("timed out waiting for link")

// SenderOptions configures the sender application behavior
type SenderOptions struct {
	// Follow keeps the session open after the queue drains and waits for
	// more drops until ctx is cancelled.
	Follow bool
}

// Result is one finished upload
type Result struct {
	Task types.Task
	Link string
	View ui.ResultView
}

type linkReply struct {
	link string
	view ui.ResultView
}

// SenderApp owns the session: one channel, the upload queue and the single
// active transfer
type SenderApp struct {
	config   *config.Config
	queue    *queue.Queue
	loader   processor.Loader
	surface  *ui.Surface
	reporter *reporter.ProgressReporter
	metrics  *observability.Metrics

	results []Result
}

func NewSenderApp(
	cfg *config.Config,
	q *queue.Queue,
	loader processor.Loader,
	surface *ui.Surface,
	metrics *observability.Metrics,
) *SenderApp {
	return &SenderApp{
		config:   cfg,
		queue:    q,
		loader:   loader,
		surface:  surface,
		reporter: reporter.NewProgressReporter(cfg),
		metrics:  metrics,
	}
}

// Run connects and drains the queue one transfer at a time. The next task
// is dequeued only after the previous one's Link reply arrived. Any channel
// or protocol fault ends the session.
func (s *SenderApp) Run(ctx context.Context, opts *SenderOptions) error {
	channel, err := transport.Dial(ctx, s.config)
	if err != nil {
		return err
	}
	defer channel.Close()

	// Only the active transfer may be answered, and only once its last chunk
	// is out. Any other Link is a protocol fault.
	window := newReplyWindow(channel)
	links := make(chan linkReply, 1)
	dispatcher := transport.NewDispatcher(func(m transport.LinkMessage) error {
		if !window.take() {
			s.metrics.ObserveFault("unexpected_link")
			return fmt.Errorf("%w: %q", ErrUnexpectedLink, m.Link)
		}
		view := s.surface.ShowResult(m.Link)
		// the window admits one reply per upload, so the slot is free
		links <- linkReply{link: m.Link, view: view}
		return nil
	}, s.metrics)

	// A dead channel or a protocol fault stops the active transfer too
	sessionCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	listenErr := make(chan error, 1)
	go func() {
		err := channel.Listen(sessionCtx, dispatcher)
		listenErr <- err
		cancel(fmt.Errorf("channel ended: %w", err))
	}()

	engine := transfer.NewEngine(s.config, window, s.loader, s.metrics)

	for {
		task, ok := s.queue.DequeueNext()
		if !ok {
			if !opts.Follow {
				log.Info().Int("uploads", len(s.results)).Msg("queue drained")
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case err := <-listenErr:
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("channel ended: %w", err)
			case <-s.queue.Ready():
				continue
			}
		}

		result, err := s.send(sessionCtx, engine, task, links)
		if err != nil {
			if cause := context.Cause(sessionCtx); cause != nil && ctx.Err() == nil {
				return cause
			}
			return err
		}
		s.results = append(s.results, result)
	}
}

// Surface is where progress and links are shown
func (s *SenderApp) Surface() *ui.Surface {
	return s.surface
}

// Results lists the finished uploads once Run has returned
func (s *SenderApp) Results() []Result {
	return s.results
}

func (s *SenderApp) send(
	ctx context.Context,
	engine *transfer.Engine,
	task types.Task,
	links <-chan linkReply,
) (Result, error) {
	var progress transfer.Progress
	s.surface.BeginTransfer(task.Name, task.Size)

	// The reporter eases toward the actual percent until the Link arrives. It
	// is stopped then even if the display has not reached 99.9, because
	// ShowResult has already finished the bar.
	reporterCtx, stopReporter := context.WithCancel(ctx)
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		s.reporter.Run(reporterCtx, &progress, s.surface.SetProgress)
	}()
	defer func() {
		stopReporter()
		<-reporterDone
	}()

	t, err := engine.Run(ctx, task, &progress)
	if err != nil {
		return Result{}, err
	}

	reply, err := s.awaitLink(ctx, links)
	if err != nil {
		return Result{}, fmt.Errorf("no link for %s: %w", task.Name, err)
	}

	log.Info().
		Str("transfer_id", t.ID).
		Str("file", task.Name).
		Str("link", reply.link).
		Msg("upload linked")

	return Result{Task: task, Link: reply.link, View: reply.view}, nil
}

// awaitLink waits for the reply to the transfer just sent. ctx is the session
// context, so its cause carries any channel failure.
func (s *SenderApp) awaitLink(ctx context.Context, links <-chan linkReply) (linkReply, error) {
	var timeout <-chan time.Time
	if d := s.config.Transfer.LinkTimeout; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case reply := <-links:
		return reply, nil
	case <-timeout:
		return linkReply{}, ErrLinkTimeout
	case <-ctx.Done():
		// a link that raced the shutdown still counts
		select {
		case reply := <-links:
			return reply, nil
		default:
		}
		return linkReply{}, context.Cause(ctx)
	}
}
