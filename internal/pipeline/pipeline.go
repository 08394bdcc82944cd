// Package pipeline runs text recognition on a live frame stream.
//
// Frames enter through OnFrameAvailable, pass a keep-latest Gate and are analyzed
// one at a time on a dedicated worker. Every frame is released exactly once:
// dropped frames by the gate, accepted frames when their analysis ends, whether
// it succeeded, failed, timed out or was cut short by Close.
//
// At most one recognition call is outstanding at any time. A call that outlives
// its timeout is reported as failed at once, but the gate stays busy until the
// call actually returns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/live-text-overlay-go/internal/analyzer"
	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/internal/frame"
	"github.com/anime-shed/live-text-overlay-go/internal/logger"
	"github.com/anime-shed/live-text-overlay-go/internal/observer"
	"github.com/anime-shed/live-text-overlay-go/internal/recognition"
	"github.com/anime-shed/live-text-overlay-go/internal/state"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// DefaultAnalysisTimeout bounds a single recognition call
const DefaultAnalysisTimeout = 5 * time.Second

// Options configures a Pipeline
type Options struct {
	// AnalysisTimeout bounds each recognition call. A call that does not complete
	// in time is reported as failed; its frame is released once the call returns.
	AnalysisTimeout time.Duration
	// MinSharpness skips recognition for frames whose Laplacian variance is lower.
	// Zero disables the check.
	MinSharpness float64
	// Assessor measures sharpness; a live assessor is used when nil
	Assessor analyzer.FrameAssessor
	// Events receives diagnostics; events are dropped when nil
	Events    observer.Subject
	SessionID string
}

// Stats is a point-in-time view of the pipeline. Stalled counts recognition
// calls still running after their timeout, which is never more than one.
// DuplicateReleases counts Release calls on frames already released.
type Stats struct {
	Gate              GateStats   `json:"gate"`
	Worker            WorkerStats `json:"worker"`
	Published         uint64      `json:"published"`
	Failed            uint64      `json:"failed"`
	Skipped           uint64      `json:"skipped"`
	Discarded         uint64      `json:"discarded"`
	Stalled           int64       `json:"stalled"`
	DuplicateReleases uint64      `json:"duplicate_releases"`
	Closed            bool        `json:"closed"`
}

// Pipeline analyzes frames serially and publishes results to a state store
type Pipeline struct {
	recognizer recognition.Service
	store      *state.Store
	events     observer.Subject
	opts       Options
	log        *logrus.Entry

	gate   *Gate
	worker *Worker

	ctx    context.Context
	cancel context.CancelFunc

	// lifecycle guards closed and binding against in-progress publishes
	lifecycle sync.RWMutex
	closed    bool
	binding   uint64
	closeOnce sync.Once

	// held counts frames of stalled calls that are not yet released
	held sync.WaitGroup

	published  atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64
	discarded  atomic.Uint64
	stalled    atomic.Int64
	duplicates atomic.Uint64
}

// New creates a started pipeline publishing into store
func New(recognizer recognition.Service, store *state.Store, opts Options) *Pipeline {
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if opts.MinSharpness > 0 && opts.Assessor == nil {
		opts.Assessor = analyzer.NewAssessor(analyzer.LiveOptions().WithBlurThreshold(opts.MinSharpness))
	}
	events := opts.Events
	if events == nil {
		events = observer.Discard{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		recognizer: recognizer,
		store:      store,
		events:     events,
		opts:       opts,
		log:        logger.WithSession(opts.SessionID),
		gate:       NewGate(),
		worker:     NewWorker(1),
		ctx:        ctx,
		cancel:     cancel,
	}
	p.worker.Start()
	return p
}

// OnFrameAvailable takes ownership of f. It never blocks on recognition: the
// frame is either dropped and released at once or handed to the worker.
func (p *Pipeline) OnFrameAvailable(f *frame.Frame) Outcome {
	if p.gate.Submit(f) == Dropped {
		p.emit(observer.PipelineEvent{EventType: observer.FrameDropped, FrameSeq: f.Seq})
		return Dropped
	}
	p.emit(observer.PipelineEvent{EventType: observer.FrameAccepted, FrameSeq: f.Seq, Success: true})

	if err := f.Usable(); err != nil {
		p.finish(f)
		p.emit(observer.PipelineEvent{
			EventType:    observer.FrameUnavailable,
			FrameSeq:     f.Seq,
			ErrorMessage: err.Error(),
		})
		return Accepted
	}

	p.lifecycle.RLock()
	binding := p.binding
	if !p.closed {
		p.store.SetFrameGeometry(f.Geometry)
	}
	p.lifecycle.RUnlock()

	if !p.worker.Submit(func() { p.analyze(f, binding) }) {
		p.finish(f)
	}
	return Accepted
}

// Rebind clears the published frame and result and discards the results of
// every frame accepted before the call. Call it once the previous source has
// stopped delivering frames.
func (p *Pipeline) Rebind() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.binding++
	if !p.closed {
		p.store.Reset()
	}
}

// Close stops accepting frames, cancels the in-flight recognition and waits for
// its frame to be released, even when the recognizer ignores cancellation.
// Results completing afterwards are discarded.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.lifecycle.Lock()
		p.closed = true
		p.lifecycle.Unlock()

		p.gate.Close()
		p.cancel()
		p.worker.Close()
		p.held.Wait()
		p.log.WithFields(logrus.Fields{
			"published": p.published.Load(),
			"failed":    p.failed.Load(),
		}).Info("Frame analysis pipeline closed")
	})
}

// Stats returns pipeline counters
func (p *Pipeline) Stats() Stats {
	p.lifecycle.RLock()
	closed := p.closed
	p.lifecycle.RUnlock()

	return Stats{
		Gate:              p.gate.Stats(),
		Worker:            p.worker.GetStats(),
		Published:         p.published.Load(),
		Failed:            p.failed.Load(),
		Skipped:           p.skipped.Load(),
		Discarded:         p.discarded.Load(),
		Stalled:           p.stalled.Load(),
		DuplicateReleases: p.duplicates.Load(),
		Closed:            closed,
	}
}

func (p *Pipeline) analyze(f *frame.Frame, binding uint64) {
	var running <-chan struct{}
	defer func() {
		if running != nil {
			p.finishAfter(f, running)
			return
		}
		p.finish(f)
	}()

	if p.opts.MinSharpness > 0 {
		if sharpness := p.opts.Assessor.Sharpness(f.Image); sharpness < p.opts.MinSharpness {
			p.skipped.Add(1)
			p.emit(observer.PipelineEvent{
				EventType:    observer.FrameUnavailable,
				FrameSeq:     f.Seq,
				ErrorMessage: "frame below sharpness threshold",
				Metadata:     map[string]interface{}{"sharpness": sharpness},
			})
			return
		}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(p.ctx, p.opts.AnalysisTimeout)
	defer cancel()

	var result *models.RecognitionResult
	var err error
	result, running, err = p.recognize(ctx, f)
	elapsed := time.Since(start)

	if err != nil {
		if p.ctx.Err() != nil {
			p.discard(f, elapsed)
			return
		}
		p.failed.Add(1)
		p.emit(observer.PipelineEvent{
			EventType:      observer.RecognitionFailed,
			FrameSeq:       f.Seq,
			ProcessingTime: elapsed,
			ErrorMessage:   err.Error(),
		})
		return
	}

	result.Frame = f.Geometry
	result.FrameSeq = f.Seq
	result.CompletedAt = time.Now()

	if !p.publish(result, binding) {
		p.discard(f, elapsed)
		return
	}
	p.published.Add(1)
	p.emit(observer.PipelineEvent{
		EventType:      observer.RecognitionCompleted,
		FrameSeq:       f.Seq,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata:       map[string]interface{}{"fragments": len(result.Fragments)},
	})
}

type recognizeOutcome struct {
	result *models.RecognitionResult
	err    error
}

// recognize runs the service on its own goroutine and waits for it or for ctx.
// When ctx ends first the call is abandoned; the returned channel is closed once
// it has returned. It is nil when the call already completed.
func (p *Pipeline) recognize(ctx context.Context, f *frame.Frame) (*models.RecognitionResult, <-chan struct{}, error) {
	done := make(chan recognizeOutcome, 1)
	returned := make(chan struct{})
	go func() {
		defer close(returned)
		defer func() {
			if r := recover(); r != nil {
				done <- recognizeOutcome{err: fmt.Errorf("recognizer panicked: %v", r)}
			}
		}()
		result, err := p.recognizer.Recognize(ctx, f.Image, f.Geometry.Rotation)
		done <- recognizeOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			var appErr *apperrors.AppError
			if errors.As(out.err, &appErr) {
				return nil, nil, out.err
			}
			return nil, nil, apperrors.NewRecognitionError("text recognition failed", out.err)
		}
		if out.result == nil {
			return nil, nil, apperrors.NewRecognitionError("recognizer returned no result", nil)
		}
		return out.result, nil, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, returned, apperrors.NewTimeoutError(
				fmt.Sprintf("recognition did not complete within %s", p.opts.AnalysisTimeout), ctx.Err())
		}
		return nil, returned, apperrors.NewRecognitionError("recognition canceled", ctx.Err())
	}
}

func (p *Pipeline) publish(result *models.RecognitionResult, binding uint64) bool {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()
	if p.closed || binding != p.binding {
		return false
	}
	p.store.PublishResult(result)
	return true
}

func (p *Pipeline) discard(f *frame.Frame, elapsed time.Duration) {
	p.discarded.Add(1)
	p.emit(observer.PipelineEvent{
		EventType:      observer.ResultDiscarded,
		FrameSeq:       f.Seq,
		ProcessingTime: elapsed,
	})
}

// finish releases f and only then frees the gate for the next frame
func (p *Pipeline) finish(f *frame.Frame) {
	p.release(f)
	p.gate.Done()
}

// finishAfter keeps the gate busy until an abandoned recognition call returns.
// Close releases the frame without waiting for the call.
func (p *Pipeline) finishAfter(f *frame.Frame, running <-chan struct{}) {
	p.stalled.Add(1)
	p.held.Add(1)
	release := sync.OnceFunc(func() {
		p.release(f)
		p.held.Done()
	})

	go func() {
		select {
		case <-running:
		case <-p.ctx.Done():
			release()
			<-running
		}
		release()
		p.stalled.Add(-1)
		p.gate.Done()
	}()
}

func (p *Pipeline) release(f *frame.Frame) {
	if !f.Release() {
		p.duplicates.Add(1)
		p.log.WithField("frame_seq", f.Seq).Error("Frame released more than once")
	}
}

func (p *Pipeline) emit(event observer.PipelineEvent) {
	event.SessionID = p.opts.SessionID
	p.events.NotifyObservers(context.Background(), event)
}
