// Package notification pushes marketplace events to users. The FCM notifier
// publishes to a per-user topic the mobile client subscribes to after login,
// so no device tokens are stored server side.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Message is one push addressed to a user.
type Message struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sentAt"`
}

// Notifier delivers pushes. Callers treat delivery as best effort.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Sender is the part of the FCM client the notifier uses.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMNotifier struct {
	client Sender
	logger *zap.Logger
}

func NewFCMNotifier(client Sender, logger *zap.Logger) *FCMNotifier {
	return &FCMNotifier{client: client, logger: logger}
}

func (n *FCMNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.UserID == "" {
		return fmt.Errorf("notification: missing recipient")
	}
	id, err := n.client.Send(ctx, buildMessage(msg))
	if err != nil {
		return fmt.Errorf("notification: send to %s: %w", msg.UserID, err)
	}
	n.logger.Debug("Push sent", zap.String("userId", msg.UserID), zap.String("messageId", id))
	return nil
}

func buildMessage(msg Message) *messaging.Message {
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	if _, ok := data["role"]; !ok {
		data["role"] = "user"
	}
	return &messaging.Message{
		Topic: UserTopic(msg.UserID),
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}

// MemoryNotifier keeps the most recent pushes instead of delivering them.
type MemoryNotifier struct {
	mu     sync.Mutex
	sent   []Message
	limit  int
	logger *zap.Logger
}

func NewMemoryNotifier(logger *zap.Logger) *MemoryNotifier {
	return &MemoryNotifier{limit: 100, logger: logger}
}

func (n *MemoryNotifier) Notify(_ context.Context, msg Message) error {
	if msg.UserID == "" {
		return fmt.Errorf("notification: missing recipient")
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	if len(n.sent) > n.limit {
		n.sent = n.sent[len(n.sent)-n.limit:]
	}
	n.mu.Unlock()
	n.logger.Info("Mock push", zap.String("userId", msg.UserID), zap.String("title", msg.Title))
	return nil
}

// Sent returns the pushes addressed to userID, oldest first.
func (n *MemoryNotifier) Sent(userID string) []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Message
	for _, m := range n.sent {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}
