package liveevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToSubscribersOfTheSameIdentity(t *testing.T) {
	hub := NewHub()

	sub, backlog, err := hub.Subscribe("identity-a")
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, backlog)

	hub.Publish(LiveEvent{IdentityID: "identity-b", Action: "verify"})
	hub.Publish(LiveEvent{IdentityID: "identity-a", Action: "download"})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "download", ev.Action)
	default:
		t.Fatal("expected event for identity-a")
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHubReplaysBufferToLateSubscribers(t *testing.T) {
	hub := NewHub()
	first, _, err := hub.Subscribe("identity-a")
	require.NoError(t, err)
	defer first.Close()

	for i := 0; i < DefaultBufferSize+5; i++ {
		hub.Publish(LiveEvent{IdentityID: "identity-a", Action: "verify"})
	}

	late, backlog, err := hub.Subscribe("identity-a")
	require.NoError(t, err)
	defer late.Close()
	assert.Len(t, backlog, DefaultBufferSize)
}

func TestHubDropsStreamWithLastSubscriber(t *testing.T) {
	hub := NewHub()
	sub, _, err := hub.Subscribe("identity-a")
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	hub.mu.RLock()
	_, ok := hub.streams["identity-a"]
	hub.mu.RUnlock()
	assert.False(t, ok)
}

func TestSubscribeRejectsBlankIdentity(t *testing.T) {
	_, _, err := NewHub().Subscribe("  ")
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	var nilHub *Hub
	_, _, err = nilHub.Subscribe("x")
	assert.ErrorIs(t, err, ErrHubUnavailable)
}
