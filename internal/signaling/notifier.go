package signaling

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis channels consumed by the video/signaling and notification
// services. The engine only publishes; it never manages media.
const (
	ChannelSessionCreated = "sessions"
	ChannelSessionEnded   = "session_ended"
)

// SessionCreatedEvent announces a freshly merged live session so the
// signaling layer can set up the shared room.
type SessionCreatedEvent struct {
	SessionID     string `json:"sessionId"`
	InterviewerID string `json:"interviewerId"`
	IntervieweeID string `json:"intervieweeId"`
	InterviewType string `json:"interviewType"`
	Level         string `json:"level"`
	QuestionID    int    `json:"questionId"`
}

// SessionEndedEvent triggers the notification/feedback flow.
type SessionEndedEvent struct {
	SessionID string `json:"sessionId"`
	User1     string `json:"user1"`
	User2     string `json:"user2"`
	Status    string `json:"status"`
}

// Notifier publishes session lifecycle events over redis pub/sub.
type Notifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewNotifier(rdb *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{rdb: rdb, logger: logger}
}

// SessionCreated publishes a session-created event. Publish failures
// are logged, not returned: the poller discovers the session either
// way, and the signaling layer reconciles on its own schedule.
func (n *Notifier) SessionCreated(ctx context.Context, event SessionCreatedEvent) {
	n.publish(ctx, ChannelSessionCreated, event)
}

// SessionEnded publishes a session-ended event.
func (n *Notifier) SessionEnded(ctx context.Context, event SessionEndedEvent) {
	n.publish(ctx, ChannelSessionEnded, event)
}

func (n *Notifier) publish(ctx context.Context, channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal signaling event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Error("failed to publish signaling event", zap.String("channel", channel), zap.Error(err))
	}
}
