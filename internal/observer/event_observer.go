package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineEvent represents something that happened to a frame, a recognition
// run or a capture
type PipelineEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	SessionID      string                 `json:"session_id,omitempty"`
	FrameSeq       uint64                 `json:"frame_seq,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// FrameAccepted when the gate hands a frame to the worker
	FrameAccepted EventType = "frame_accepted"
	// FrameDropped when the gate is busy and the frame is released immediately
	FrameDropped EventType = "frame_dropped"
	// FrameUnavailable when an accepted frame cannot be analyzed
	FrameUnavailable EventType = "frame_unavailable"
	// RecognitionCompleted when a result has been published
	RecognitionCompleted EventType = "recognition_completed"
	// RecognitionFailed when the recognition service reports a failure
	RecognitionFailed EventType = "recognition_failed"
	// ResultDiscarded when a result arrives after the pipeline was closed
	ResultDiscarded EventType = "result_discarded"
	// CaptureSaved when a still photo has been stored
	CaptureSaved EventType = "capture_saved"
	// CaptureFailed when a still photo could not be stored
	CaptureFailed EventType = "capture_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"success":    event.Success,
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
	}
	if event.FrameSeq != 0 {
		fields["frame_seq"] = event.FrameSeq
	}
	if event.ProcessingTime > 0 {
		fields["processing_time"] = event.ProcessingTime
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case FrameAccepted, FrameDropped:
		// One per camera frame; too chatty above debug.
		entry.Debug("Frame gated")
	case FrameUnavailable:
		entry.Warn("Frame unavailable for analysis")
	case RecognitionCompleted:
		entry.Debug("Recognition completed")
	case RecognitionFailed:
		entry.Error("Recognition failed")
	case ResultDiscarded:
		entry.Info("Late recognition result discarded")
	case CaptureSaved:
		entry.Info("Photo captured")
	case CaptureFailed:
		entry.Error("Photo capture failed")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a point-in-time copy of the counters kept by MetricsObserver
type Metrics struct {
	FramesAccepted        int64         `json:"frames_accepted"`
	FramesDropped         int64         `json:"frames_dropped"`
	FramesUnavailable     int64         `json:"frames_unavailable"`
	RecognitionsCompleted int64         `json:"recognitions_completed"`
	RecognitionsFailed    int64         `json:"recognitions_failed"`
	ResultsDiscarded      int64         `json:"results_discarded"`
	CapturesSaved         int64         `json:"captures_saved"`
	CapturesFailed        int64         `json:"captures_failed"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`
	AvgProcessingTime     time.Duration `json:"avg_processing_time"`
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	counts              map[EventType]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]int64)}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.counts[event.EventType]++
	if event.EventType == RecognitionCompleted {
		o.totalProcessingTime += event.ProcessingTime
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		FramesAccepted:        o.counts[FrameAccepted],
		FramesDropped:         o.counts[FrameDropped],
		FramesUnavailable:     o.counts[FrameUnavailable],
		RecognitionsCompleted: o.counts[RecognitionCompleted],
		RecognitionsFailed:    o.counts[RecognitionFailed],
		ResultsDiscarded:      o.counts[ResultDiscarded],
		CapturesSaved:         o.counts[CaptureSaved],
		CapturesFailed:        o.counts[CaptureFailed],
		TotalProcessingTime:   o.totalProcessingTime,
	}
	if m.RecognitionsCompleted > 0 {
		m.AvgProcessingTime = o.totalProcessingTime / time.Duration(m.RecognitionsCompleted)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer on the calling goroutine,
// in subscription order. Observers run on the frame path and must not block.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event PipelineEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the pipeline
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}

// Discard is a Subject that drops every event
type Discard struct{}

func (Discard) Subscribe(Observer)                             {}
func (Discard) Unsubscribe(Observer)                           {}
func (Discard) NotifyObservers(context.Context, PipelineEvent) {}
