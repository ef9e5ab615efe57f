package store

import (
	"context"
	"errors"
	"time"
)

// Post is the denormalized metadata row kept per blog post page.
// The page body itself lives in the wiki's document store; this row only
// tracks authorship and comment aggregates.
type Post struct {
	PageID          int64      `json:"page_id"`
	AuthorID        int64      `json:"author_id"`
	AuthorName      string     `json:"author_name"`
	Created         time.Time  `json:"created"`
	LastTouched     time.Time  `json:"last_touched"`
	CommentCount    int64      `json:"comment_count"`
	LastComment     *time.Time `json:"last_comment,omitempty"`
	LastCommentUser *int64     `json:"last_comment_user,omitempty"`
}

// Comment is a single comment row. ParentID references another comment
// on the same post, or is nil for a top-level comment.
type Comment struct {
	ID             int64      `json:"id"`
	PostPageID     int64      `json:"post_page_id"`
	ParentID       *int64     `json:"parent_id,omitempty"`
	AuthorID       int64      `json:"author_id"`
	Created        time.Time  `json:"created"`
	LastEdited     *time.Time `json:"last_edited,omitempty"`
	LastEditedUser *int64     `json:"last_edited_user,omitempty"`
	EditCount      int32      `json:"edit_count"`
	Content        string     `json:"content"`
	Deleted        bool       `json:"deleted"`
}

// PostFilter narrows ListPosts. Zero-value fields are ignored.
type PostFilter struct {
	AuthorName string
	PageIDs    []int64
	Limit      int
	Offset     int
}

// CommentPostInfo is the comment→post join used for favorite
// authorization and notification fan-out.
type CommentPostInfo struct {
	PostPageID    int64
	CommentAuthor int64
	PostAuthor    int64
}

// Sentinel errors
var (
	ErrNotFound       = errors.New("row not found")
	ErrParentMismatch = errors.New("parent comment belongs to a different post")
)

// BlogStore abstracts the four blog relations: posts, comments,
// comment-likes and comment-favorites. Implementations own timestamps
// and transactional guarantees; authorization is the caller's job.
type BlogStore interface {
	// UpsertPost inserts a post row, or refreshes only last_touched when
	// the row already exists. Idempotent.
	UpsertPost(ctx context.Context, pageID, authorID int64, authorName string) error
	GetPost(ctx context.Context, pageID int64) (Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]Post, error)

	// InsertComment validates the parent reference, inserts the row and
	// bumps the post aggregates (comment_count, last_comment,
	// last_comment_user, last_touched) in a single transaction.
	// Returns ErrNotFound when the post row or the parent comment is
	// missing, ErrParentMismatch when the parent is on another post.
	InsertComment(ctx context.Context, c Comment) (Comment, error)
	GetComment(ctx context.Context, id int64) (Comment, error)
	// UpdateCommentContent replaces content, bumps edit_count and stamps
	// last_edited/last_edited_user.
	UpdateCommentContent(ctx context.Context, id, editorID int64, content string) error
	// TombstoneComment marks the comment deleted and blanks its content.
	// The row survives so comment_count and child parent references stay
	// valid.
	TombstoneComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, pageID int64, limit, offset int) ([]Comment, error)

	// SetLike / SetFavorite are idempotent upsert-or-delete toggles on
	// the unique (comment_id, user_id) pair.
	SetLike(ctx context.Context, commentID, userID int64, liked bool) error
	SetFavorite(ctx context.Context, commentID, userID int64, favorited bool) error
	LikeCounts(ctx context.Context, commentIDs []int64) (map[int64]int64, error)
	FavoritedBy(ctx context.Context, commentIDs []int64, userID int64) (map[int64]bool, error)
	CommentPostInfo(ctx context.Context, commentID int64) (CommentPostInfo, error)
}
