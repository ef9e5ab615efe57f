// Package notify turns comment events into per-recipient notifications.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/wiki-platform/services/blogs/internal/blog"
)

const (
	KindCommentOnPost  = "comment-on-post"
	KindReplyToComment = "reply-to-comment"
)

// Notification is one message addressed to one user.
type Notification struct {
	Kind            string    `json:"kind"`
	RecipientID     int64     `json:"recipient_id"`
	CommentID       int64     `json:"comment_id"`
	CommentAuthorID int64     `json:"comment_author_id"`
	PostPageID      int64     `json:"post_page_id"`
	PostTitle       string    `json:"post_title"`
	CreatedAt       time.Time `json:"created_at"`
}

// Sink delivers notifications downstream (JetStream in production, a log
// or memory sink otherwise).
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// Notifier fans a comment event out to the interested users: the post
// author, and the parent comment's author on replies. Users are never
// notified about their own comments. The two kinds are independent:
// when someone replies to the post author's own comment, the author
// receives both a comment-on-post and a reply-to-comment notification.
type Notifier struct {
	Sink Sink
	Log  *zap.Logger
}

func New(sink Sink, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{Sink: sink, Log: log}
}

func (n *Notifier) AfterCommentAdded(ev blog.CommentAdded) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, out := range Expand(ev) {
		if err := n.Sink.Deliver(ctx, out); err != nil {
			n.Log.Warn("notification delivery failed",
				zap.String("kind", out.Kind),
				zap.Int64("recipient_id", out.RecipientID),
				zap.Int64("comment_id", out.CommentID),
				zap.Error(err))
		}
	}
}

// Expand resolves the recipient set for one comment event.
func Expand(ev blog.CommentAdded) []Notification {
	base := Notification{
		CommentID:       ev.CommentID,
		CommentAuthorID: ev.CommentAuthorID,
		PostPageID:      ev.PostPageID,
		PostTitle:       ev.PostTitle,
		CreatedAt:       ev.CreatedAt,
	}

	var out []Notification
	if ev.PostAuthorID != ev.CommentAuthorID {
		n := base
		n.Kind = KindCommentOnPost
		n.RecipientID = ev.PostAuthorID
		out = append(out, n)
	}
	if ev.ParentAuthorID != nil && *ev.ParentAuthorID != ev.CommentAuthorID {
		n := base
		n.Kind = KindReplyToComment
		n.RecipientID = *ev.ParentAuthorID
		out = append(out, n)
	}
	return out
}
