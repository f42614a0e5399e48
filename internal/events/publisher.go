package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Topic carries every submission lifecycle event.
const SubmissionsTopic = "examzen.submissions"

// Event types
const (
	SubmissionCreated  = "submission.created"
	SubmissionGraded   = "submission.graded"
	SubmissionRegraded = "submission.regraded"
	TestDeleted        = "test.deleted"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with the service identity filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "examzen-grading-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// SubmissionGradedEvent is the payload for graded and regraded events. On a
// re-grade PreviousScore holds the overwritten value so downstream consumers
// can audit the change.
type SubmissionGradedEvent struct {
	SubmissionID  uint     `json:"submission_id"`
	TestID        uint     `json:"test_id"`
	StudentID     string   `json:"student_id"`
	GraderID      string   `json:"grader_id"`
	FinalScore    float64  `json:"final_score"`
	PreviousScore *float64 `json:"previous_score,omitempty"`
}

// SubmissionCreatedEvent is the payload for submission.created.
type SubmissionCreatedEvent struct {
	SubmissionID   uint     `json:"submission_id"`
	TestID         uint     `json:"test_id"`
	StudentID      string   `json:"student_id"`
	Status         string   `json:"status"`
	ObjectiveScore *float64 `json:"objective_score,omitempty"`
	AnswerCount    int      `json:"answer_count"`
}

// TestDeletedEvent is the payload for test.deleted.
type TestDeletedEvent struct {
	TestID             uint   `json:"test_id"`
	DeletedBy          string `json:"deleted_by"`
	DeletedSubmissions int64  `json:"deleted_submissions"`
}

// EventPublisher publishes lifecycle events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// KafkaEventPublisher publishes events to Kafka via watermill.
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaEventPublisher connects a watermill Kafka publisher.
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.Debug("event published", "topic", topic, "event_type", event.Type, "event_id", event.ID)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.logger.Debug("mock event recorded", "topic", topic, "event_type", event.Type)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of everything published so far.
func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents resets the recorded events.
func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
