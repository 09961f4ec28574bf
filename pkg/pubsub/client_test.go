package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/quote-cart-submissions", topicResourceName("p1", " quote-cart-submissions "))
	assert.Equal(t, "projects/other/topics/t", topicResourceName("p1", "projects/other/topics/t"))
	assert.Empty(t, topicResourceName("p1", ""))
	assert.Empty(t, topicResourceName("", "t"))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("t"))
	assert.NoError(t, c.Close())
	require.Error(t, c.Ping(context.Background()))
}
