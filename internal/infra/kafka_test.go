package infra

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaProducerDisabledIsNoop(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	p := NewKafkaProducer("", false, logger)

	err := p.Publish(context.Background(), "journal.security.session_tracked", []byte("k"), []byte("{}"))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaProducerRefusesForeignTopic(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	p := NewKafkaProducer("", false, logger)

	err := p.Publish(context.Background(), "trades.executed", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal.")
}
