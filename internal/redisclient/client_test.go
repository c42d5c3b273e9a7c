package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryKeyNamespace(t *testing.T) {
	assert.Equal(t, "webhook:delivery:pay-1|completed", deliveryKey("pay-1|completed"))
}

func TestMarkAndCheckDelivery(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	seen, err := c.Delivered(ctx, "pay-test|completed")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.MarkDelivered(ctx, "pay-test|completed", time.Minute))

	seen, err = c.Delivered(ctx, "pay-test|completed")
	require.NoError(t, err)
	assert.True(t, seen)
}
