package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"
)

var ErrPublisherClosed = errors.New("publisher closed")

const queueSize = 1024

// NewProducerConfig waits for all replicas, retries and compresses with snappy
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner // Consistent hashing on chat id
	config.Version = sarama.V2_0_0_0
	config.ClientID = "chat-backend"
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// KafkaPublisher queues events and sends them from a single goroutine, so a slow or
// unreachable broker never stalls a request.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string

	queue  chan *sarama.ProducerMessage
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, err
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		queue:    make(chan *sarama.ProducerMessage, queueSize),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ChatID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.WarnContext(ctx, "Event queue full, dropping event", "type", event.Type, "chatID", event.ChatID)
		return errors.New("event queue full")
	}
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for msg := range p.queue {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			slog.Error("Failed to publish event", "topic", msg.Topic, "error", err)
			continue
		}
		slog.Debug("Event published", "topic", msg.Topic, "partition", partition, "offset", offset)
	}
}

// Close flushes queued events and closes the producer
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.producer.Close()
}
