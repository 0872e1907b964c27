package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaWriter implements KafkaWriter for testing
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type company struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	_, err := NewProducer(nil, zaptest.NewLogger(t), "vcpms.events")
	assert.Error(t, err)
}

func TestProducer_Produce(t *testing.T) {
	t.Run("queued event", func(t *testing.T) {
		producer := &Producer{events: make(chan Event, 1), logger: zaptest.NewLogger(t)}

		producer.Produce(CompanyCreated, 1, &company{ID: 1})

		require.Equal(t, 1, len(producer.events))
		event := <-producer.events
		assert.Equal(t, CompanyCreated, event.Type)
		assert.Equal(t, uint(1), event.EntityID)
		assert.False(t, event.OccurredAt.IsZero())
	})

	t.Run("dropped event when queue full", func(t *testing.T) {
		core, recorded := observer.New(zap.WarnLevel)
		producer := &Producer{events: make(chan Event, 1), logger: zap.New(core)}

		producer.Produce(CompanyCreated, 1, nil)
		producer.Produce(CompanyCreated, 2, nil)

		assert.Equal(t, 1, recorded.FilterMessage("Kafka producer queue full, dropping event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.Uint("entity_id", 2)).Len())
	})
}

func TestProducer_SendEvent(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &Producer{writer: mockWriter, logger: zaptest.NewLogger(t)}
	event := Event{
		Type:       CompanyUpdated,
		EntityID:   42,
		Payload:    &company{ID: 42, Name: "Acme"},
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("successful send", func(t *testing.T) {
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

		producer.sendEvent(context.Background(), event)

		value, err := json.Marshal(event)
		require.NoError(t, err)
		mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, []kafka.Message{
			{Key: []byte("company_updated:42"), Value: value},
		})
	})

	t.Run("serialization error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)

		oldMarshal := jsonMarshal
		jsonMarshal = func(_ interface{}) ([]byte, error) {
			return nil, errors.New("mock marshal error")
		}
		defer func() { jsonMarshal = oldMarshal }()

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to serialize event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.Uint("entity_id", 42)).Len())
	})

	t.Run("write error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)
		mockWriter.ExpectedCalls = nil
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka error"))

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to produce event").Len())
	})
}

func TestProducer_EventLoopAndClose(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	delivered := make(chan struct{})
	mockWriter.On("WriteMessages", mock.Anything, mock.Anything).
		Return(nil).
		Run(func(mock.Arguments) { close(delivered) })
	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t), 1)
	producer.Produce(InvestmentCreated, 7, nil)

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	producer.Close()
	mockWriter.AssertCalled(t, "Close")
}

func TestNopProducer(t *testing.T) {
	var p Publisher = NopProducer{}
	assert.NotPanics(t, func() { p.Produce(CompanyDeleted, 1, nil) })
}
