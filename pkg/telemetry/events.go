package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a structured event emitted by the configuration engine.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// RunID is the associated configuration run ID, if applicable.
	RunID string `json:"run_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeRunStarted        = "run.started"
	EventTypeRunCompleted      = "run.completed"
	EventTypeRunFailed         = "run.failed"
	EventTypePhaseStarted      = "phase.started"
	EventTypePhaseCompleted    = "phase.completed"
	EventTypeRegistryLoaded    = "registry.loaded"
	EventTypeMetadataDegraded  = "metadata.degraded"
	EventTypeValidationFinding = "validation.finding"
	EventTypeCompatibility     = "compatibility.verdict"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Sink receives structured events from the engine. The engine never writes to
// the console directly; hosts render events however they like.
type Sink interface {
	Info(eventType, msg string, data map[string]interface{})
	Warn(eventType, msg string, data map[string]interface{})
	Error(eventType, msg string, data map[string]interface{})
}

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// Publisher implements Sink and fans events out to subscribers.
type Publisher struct {
	config      EventsConfig
	runID       string
	subscribers []EventSubscriber
	mu          sync.RWMutex
}

// NewPublisher creates a new event publisher with the given configuration.
func NewPublisher(cfg EventsConfig) *Publisher {
	return &Publisher{
		config:      cfg,
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe registers a subscriber for all events.
func (p *Publisher) Subscribe(sub EventSubscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, sub)
}

// WithRunID returns a publisher that stamps events with the given run ID.
// Subscribers are shared with the parent.
func (p *Publisher) WithRunID(runID string) *Publisher {
	return &Publisher{
		config:      p.config,
		runID:       runID,
		subscribers: p.subscribers,
	}
}

// Publish publishes an event to all subscribers.
func (p *Publisher) Publish(event Event) {
	if !p.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = p.runID
	}

	p.mu.RLock()
	subs := p.subscribers
	p.mu.RUnlock()

	for _, sub := range subs {
		sub(event)
	}
}

// Info publishes an info-level event.
func (p *Publisher) Info(eventType, msg string, data map[string]interface{}) {
	p.Publish(Event{Type: eventType, Level: EventLevelInfo, Message: msg, Data: data})
}

// Warn publishes a warning-level event.
func (p *Publisher) Warn(eventType, msg string, data map[string]interface{}) {
	p.Publish(Event{Type: eventType, Level: EventLevelWarning, Message: msg, Data: data})
}

// Error publishes an error-level event.
func (p *Publisher) Error(eventType, msg string, data map[string]interface{}) {
	p.Publish(Event{Type: eventType, Level: EventLevelError, Message: msg, Data: data})
}

// LogSubscriber returns a subscriber that forwards events to the logger.
func LogSubscriber(logger *Logger) EventSubscriber {
	return func(event Event) {
		l := logger.WithField("event_type", event.Type)
		if event.RunID != "" {
			l = l.WithRunID(event.RunID)
		}
		for k, v := range event.Data {
			l = l.WithField(k, v)
		}
		switch event.Level {
		case EventLevelError:
			l.Error(event.Message)
		case EventLevelWarning:
			l.Warn(event.Message)
		default:
			l.Info(event.Message)
		}
	}
}
