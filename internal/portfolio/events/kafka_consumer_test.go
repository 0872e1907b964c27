package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestConsumerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, err := json.Marshal(Event{Type: CompanyCreated, EntityID: 1})
	require.NoError(t, err)
	failing, err := json.Marshal(Event{Type: CompanyDeleted, EntityID: 2})
	require.NoError(t, err)

	reader := &fakeReader{
		msgs: []kafka.Message{
			{Value: good},
			{Value: []byte("{not json")},
			{Value: failing},
		},
		cancel: cancel,
	}

	var handled []Event
	consumer := newConsumer(reader, func(_ context.Context, ev Event) error {
		handled = append(handled, ev)
		if ev.Type == CompanyDeleted {
			return errors.New("handler failed")
		}
		return nil
	}, zaptest.NewLogger(t))

	require.NoError(t, consumer.Run(ctx))
	consumer.Close()

	assert.Len(t, handled, 2)
	assert.Len(t, reader.committed, 1)
	assert.True(t, reader.closed)
}
