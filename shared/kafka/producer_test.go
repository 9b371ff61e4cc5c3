package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_NilProducerDropsMessage(t *testing.T) {
	var p *Producer

	err := p.SendMessage(context.Background(), "build-triggers", "main", map[string]string{"job": "Flutter-iOS-Build"})
	assert.NoError(t, err)

	// Close on the nil producer is a no-op as well.
	p.Close()
}

func TestSendMessage_PublishErrors(t *testing.T) {
	p, err := NewProducer("127.0.0.1:1")
	require.NoError(t, err)
	defer p.Close()

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := p.SendMessage(ctx, "build-triggers", "main", map[string]string{})
		assert.ErrorIs(t, err, ErrPublish)
	})

	t.Run("unmarshalable value", func(t *testing.T) {
		err := p.SendMessage(context.Background(), "build-triggers", "main", make(chan int))
		assert.ErrorIs(t, err, ErrPublish)
	})
}
