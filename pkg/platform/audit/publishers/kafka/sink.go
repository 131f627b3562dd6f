// Package kafka streams audit events to a Kafka topic. Each event is one
// JSON record keyed by its ID.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "obfuscator/pkg/platform/audit"
)

// Message is the JSON value written for each event.
type Message struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Source          string    `json:"source"`
	Destination     string    `json:"destination,omitempty"`
	Format          string    `json:"format,omitempty"`
	RequestedFields []string  `json:"requested_fields"`
	MatchedFields   []string  `json:"matched_fields"`
	Rows            int       `json:"rows"`
	BytesIn         int       `json:"bytes_in"`
	BytesOut        int       `json:"bytes_out"`
	Outcome         string    `json:"outcome"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// NewMessage converts an event to its wire form.
func NewMessage(event audit.Event) Message {
	return Message{
		ID:              event.ID.String(),
		Timestamp:       event.Timestamp.UTC(),
		RequestID:       event.RequestID,
		Subject:         event.Subject,
		Source:          event.Source,
		Destination:     event.Destination,
		Format:          event.Format,
		RequestedFields: orEmpty(event.RequestedFields),
		MatchedFields:   orEmpty(event.MatchedFields),
		Rows:            event.Rows,
		BytesIn:         event.BytesIn,
		BytesOut:        event.BytesOut,
		Outcome:         string(event.Outcome),
		ErrorKind:       event.ErrorKind,
		Reason:          event.Reason,
	}
}

// Sink implements audit.Store by producing to a topic.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a producer for topic. Extra client options are appended
// after the defaults.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit sink requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka audit sink requires a topic")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces event and waits for the broker acknowledgement.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(NewMessage(event))
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ID.String()),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
