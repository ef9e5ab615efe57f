package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	streamName    = "BLOG_NOTIFICATIONS"
	subjectPrefix = "blogs.notifications."
)

// NATSSink publishes notifications to JetStream, one subject per kind
// (blogs.notifications.comment-on-post, ...). Downstream consumers (mail,
// on-site alerts) subscribe to blogs.notifications.>.
type NATSSink struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

func NewNATSSink(nc *nats.Conn, log *zap.Logger) (*NATSSink, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	s := &NATSSink{js: js, log: log}
	if err := s.ensureStream(); err != nil {
		return nil, err
	}
	log.Info("notification sink initialised", zap.String("stream", streamName))
	return s, nil
}

func (s *NATSSink) ensureStream() error {
	_, err := s.js.StreamInfo(streamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = s.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ">"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

type envelope struct {
	EventID string `json:"event_id"`
	Notification
}

func (s *NATSSink) Deliver(_ context.Context, n Notification) error {
	data, err := json.Marshal(envelope{EventID: uuid.NewString(), Notification: n})
	if err != nil {
		return err
	}
	ack, err := s.js.Publish(subjectPrefix+n.Kind, data)
	if err != nil {
		return err
	}
	s.log.Debug("notification published",
		zap.String("kind", n.Kind),
		zap.Int64("recipient_id", n.RecipientID),
		zap.Uint64("seq", ack.Sequence))
	return nil
}

// LogSink writes notifications to the service log. Used in development
// when NATS is not configured.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, n Notification) error {
	s.Log.Info("notification",
		zap.String("kind", n.Kind),
		zap.Int64("recipient_id", n.RecipientID),
		zap.Int64("comment_id", n.CommentID),
		zap.String("post_title", n.PostTitle))
	return nil
}
