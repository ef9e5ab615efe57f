package blog

import "time"

// CommentAdded is emitted after a comment insert commits. Recipients are
// resolved by the notifier, not here.
type CommentAdded struct {
	CommentID       int64     `json:"comment_id"`
	PostPageID      int64     `json:"post_page_id"`
	PostTitle       string    `json:"post_title"`
	PostAuthorID    int64     `json:"post_author_id"`
	CommentAuthorID int64     `json:"comment_author_id"`
	ParentID        *int64    `json:"parent_id,omitempty"`
	ParentAuthorID  *int64    `json:"parent_author_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notifier receives post-commit comment events. Implementations must not
// block the request path for long; errors are logged, never returned to
// the commenter.
type Notifier interface {
	AfterCommentAdded(ev CommentAdded)
}

// NopNotifier drops all events.
type NopNotifier struct{}

func (NopNotifier) AfterCommentAdded(CommentAdded) {}
