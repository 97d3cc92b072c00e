package signaling

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifierPublishesEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	notifier := NewNotifier(rdb, zap.NewNop())

	t.Run("session created", func(t *testing.T) {
		sub := rdb.Subscribe(ctx, ChannelSessionCreated)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		notifier.SessionCreated(ctx, SessionCreatedEvent{
			SessionID:     "session-1",
			InterviewerID: "user-x",
			IntervieweeID: "user-y",
			InterviewType: "data-structures-algorithms",
			Level:         "beginner",
			QuestionID:    1,
		})

		select {
		case msg := <-sub.Channel():
			var event SessionCreatedEvent
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
			assert.Equal(t, "session-1", event.SessionID)
			assert.Equal(t, "user-x", event.InterviewerID)
			assert.Equal(t, "user-y", event.IntervieweeID)
		case <-time.After(time.Second):
			t.Fatal("no session-created event received")
		}
	})

	t.Run("session ended", func(t *testing.T) {
		sub := rdb.Subscribe(ctx, ChannelSessionEnded)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		notifier.SessionEnded(ctx, SessionEndedEvent{
			SessionID: "session-1",
			User1:     "user-x",
			User2:     "user-y",
			Status:    "completed",
		})

		select {
		case msg := <-sub.Channel():
			var event SessionEndedEvent
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
			assert.Equal(t, "completed", event.Status)
		case <-time.After(time.Second):
			t.Fatal("no session-ended event received")
		}
	})

	t.Run("publish failure does not panic", func(t *testing.T) {
		mr.Close()
		notifier.SessionEnded(ctx, SessionEndedEvent{SessionID: "session-2"})
	})
}
