package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/logging"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerDrainsOnClose(t *testing.T) {
	w := &recordingWriter{}
	p, err := NewProducerWithConfig(ProducerConfig{Writer: w, Logger: logging.Nop(), WorkerNum: 2})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, p.SendMessage("scores", "p1", map[string]int{"score": i}))
	}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Len(t, w.msgs, 10)
	assert.True(t, w.closed)
	assert.Equal(t, "scores", w.msgs[0].Topic)
	assert.Equal(t, "p1", string(w.msgs[0].Key))
	assert.Error(t, p.SendMessage("scores", "p1", 1), "closed producer rejects messages")
}

func TestProducerSendSync(t *testing.T) {
	w := &recordingWriter{}
	p, err := NewProducerWithConfig(ProducerConfig{Writer: w, Logger: logging.Nop()})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SendMessageSync(context.Background(), "rounds", "r1", JackpotUpdateEvent{Multiplier: 5}))
	require.Len(t, w.msgs, 1)
	assert.Contains(t, string(w.msgs[0].Value), `"multiplier":5`)

	assert.Error(t, p.SendMessageSync(context.Background(), "rounds", "r1", make(chan int)))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, logging.Nop())
	assert.Error(t, err)
}

type scriptedReader struct {
	msgs      chan kafka.Message
	committed int
	mu        sync.Mutex
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *scriptedReader) CommitMessages(context.Context, ...kafka.Message) error {
	r.mu.Lock()
	r.committed++
	r.mu.Unlock()
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsumerFiltersAndHandles(t *testing.T) {
	reader := &scriptedReader{msgs: make(chan kafka.Message, 4)}
	got := make(chan JackpotUpdateEvent, 4)
	c := NewConsumer(ConsumerConfig{Reader: reader, Logger: logging.Nop()}, func(e JackpotUpdateEvent) { got <- e })
	c.SetFilter(func(e JackpotUpdateEvent) bool { return e.InstanceID != "self" })

	reader.msgs <- kafka.Message{Value: []byte(`{"instance_id":"self","multiplier":1,"count":21}`)}
	reader.msgs <- kafka.Message{Value: []byte(`not json`)}
	reader.msgs <- kafka.Message{Value: []byte(`{"instance_id":"other","game_code":"bingo47","multiplier":5,"count":105}`)}

	require.NoError(t, c.Start())
	select {
	case e := <-got:
		assert.Equal(t, "other", e.InstanceID)
		assert.Equal(t, 5, e.Multiplier)
		assert.Equal(t, int64(105), e.Count)
	case <-time.After(time.Second):
		t.Fatal("expected one accepted update")
	}
	require.NoError(t, c.Stop())

	select {
	case e := <-got:
		t.Fatalf("unexpected extra update %+v", e)
	default:
	}
	reader.mu.Lock()
	assert.Equal(t, 3, reader.committed, "every message is committed, handled or not")
	reader.mu.Unlock()
}
