package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []PipelineEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
}

func (o *recordingObserver) GetObserverName() string { return o.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, PipelineEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                { return "panicking" }

func TestEventPublisher_NotifiesSynchronously(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(panickingObserver{})
	p.Subscribe(rec)

	p.NotifyObservers(context.Background(), PipelineEvent{EventType: FrameDropped, FrameSeq: 7})

	if len(rec.events) != 1 {
		t.Fatalf("Expected 1 event delivered before return, got %d", len(rec.events))
	}
	if rec.events[0].FrameSeq != 7 || rec.events[0].Timestamp.IsZero() {
		t.Errorf("Unexpected event %+v", rec.events[0])
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(rec)
	p.Unsubscribe(rec)

	p.NotifyObservers(context.Background(), PipelineEvent{EventType: FrameAccepted})
	if len(rec.events) != 0 {
		t.Errorf("Expected no events after unsubscribe, got %d", len(rec.events))
	}
}

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	events := []PipelineEvent{
		{EventType: FrameAccepted},
		{EventType: FrameAccepted},
		{EventType: FrameDropped},
		{EventType: RecognitionCompleted, ProcessingTime: 100 * time.Millisecond},
		{EventType: RecognitionCompleted, ProcessingTime: 300 * time.Millisecond},
		{EventType: RecognitionFailed},
		{EventType: CaptureSaved},
	}
	for _, e := range events {
		m.OnEvent(ctx, e)
	}

	got := m.GetMetrics()
	if got.FramesAccepted != 2 || got.FramesDropped != 1 {
		t.Errorf("Unexpected frame counters %+v", got)
	}
	if got.RecognitionsCompleted != 2 || got.RecognitionsFailed != 1 || got.CapturesSaved != 1 {
		t.Errorf("Unexpected counters %+v", got)
	}
	if got.AvgProcessingTime != 200*time.Millisecond {
		t.Errorf("Expected avg 200ms, got %s", got.AvgProcessingTime)
	}
}

func TestLoggingObserver_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), PipelineEvent{
		EventType:    RecognitionFailed,
		SessionID:    "s-1",
		FrameSeq:     42,
		ErrorMessage: "engine crashed",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "error" || entry["session_id"] != "s-1" || entry["error"] != "engine crashed" {
		t.Errorf("Unexpected log entry %v", entry)
	}
	if entry["frame_seq"] != float64(42) {
		t.Errorf("Expected frame_seq 42, got %v", entry["frame_seq"])
	}
}
