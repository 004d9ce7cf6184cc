package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesValue(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "signals", []byte("BTC"), map[string]int{"id": 1}))
	require.NoError(t, p.Publish(context.Background(), "signals", nil, "raw"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "signals", w.msgs[0].Topic)
	assert.Equal(t, []byte("BTC"), w.msgs[0].Key)
	assert.JSONEq(t, `{"id":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newProducer(&recordingWriter{err: boom}, "gzip")

	err := p.Publish(context.Background(), "signals", nil, "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithCompression("lz4"))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}
