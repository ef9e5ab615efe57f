package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/wiki-platform/services/blogs/internal/store"
	"github.com/example/wiki-platform/services/blogs/internal/wiki"
)

// CommentView is a comment as presented to a reader: the stored row plus
// author name, like count and the post author's favorite mark.
type CommentView struct {
	ID                    int64      `json:"id"`
	ParentID              *int64     `json:"parent_id,omitempty"`
	AuthorID              int64      `json:"author_id"`
	AuthorName            string     `json:"author_name"`
	Created               time.Time  `json:"created"`
	LastEdited            *time.Time `json:"last_edited,omitempty"`
	EditCount             int32      `json:"edit_count"`
	Content               string     `json:"content"`
	Deleted               bool       `json:"deleted"`
	Likes                 int64      `json:"likes"`
	FavoritedByPostAuthor bool       `json:"favorited_by_post_author"`
}

// PostView is the post metadata row joined with its page title.
type PostView struct {
	store.Post
	Title string `json:"title"`
}

// Limits bounds listing pagination.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// Service implements the blog operations on top of the store and the
// wiki collaborators. It owns authorization and input validation; the
// store owns timestamps and transactional integrity.
type Service struct {
	store      store.BlogStore
	pages      wiki.PageResolver
	users      wiki.Identity
	categories wiki.CategoryIndex
	notifier   Notifier
	log        *zap.Logger
	limits     Limits
}

// Deps carries the service collaborators. Notifier and Log may be nil.
type Deps struct {
	Store      store.BlogStore
	Pages      wiki.PageResolver
	Users      wiki.Identity
	Categories wiki.CategoryIndex
	Notifier   Notifier
	Log        *zap.Logger
	Limits     Limits
}

func NewService(d Deps) *Service {
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Limits.DefaultLimit <= 0 {
		d.Limits.DefaultLimit = 20
	}
	if d.Limits.MaxLimit < d.Limits.DefaultLimit {
		d.Limits.MaxLimit = d.Limits.DefaultLimit
	}
	return &Service{
		store:      d.Store,
		pages:      d.Pages,
		users:      d.Users,
		categories: d.Categories,
		notifier:   d.Notifier,
		log:        d.Log,
		limits:     d.Limits,
	}
}

// ClampPage normalizes listing pagination to the configured bounds.
// Exposed so callers keying caches by page window collapse equivalent
// requests onto one entry.
func (s *Service) ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.limits.DefaultLimit
	}
	if limit > s.limits.MaxLimit {
		limit = s.limits.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// RegisterPost records a blog page as a post. The page must exist in the
// blog namespace and the author must be a registered user. Calling it
// again for the same page only refreshes the activity timestamp.
func (s *Service) RegisterPost(ctx context.Context, pageID, authorID int64) (PostView, error) {
	page, err := s.pages.BlogPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			return PostView{}, fmt.Errorf("page %d: %w", pageID, ErrNotFound)
		}
		return PostView{}, err
	}
	author, err := s.users.User(ctx, authorID)
	if err != nil {
		if errors.Is(err, wiki.ErrUserNotFound) {
			return PostView{}, fmt.Errorf("author %d: %w", authorID, ErrInvalidInput)
		}
		return PostView{}, err
	}

	if err := s.store.UpsertPost(ctx, pageID, author.ID, author.Name); err != nil {
		return PostView{}, err
	}
	p, err := s.store.GetPost(ctx, pageID)
	if err != nil {
		return PostView{}, err
	}
	return PostView{Post: p, Title: page.Title}, nil
}

// AddComment validates and inserts a comment, then hands the post-commit
// event to the notifier. Notification failures never fail the comment.
func (s *Service) AddComment(ctx context.Context, pageID int64, parentID *int64, authorID int64, content string) (store.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return store.Comment{}, fmt.Errorf("empty comment: %w", ErrInvalidInput)
	}

	page, err := s.pages.BlogPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			return store.Comment{}, fmt.Errorf("page %d: %w", pageID, ErrNotFound)
		}
		return store.Comment{}, err
	}

	var parentAuthor *int64
	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Comment{}, fmt.Errorf("parent comment %d: %w", *parentID, ErrNotFound)
			}
			return store.Comment{}, err
		}
		pa := parent.AuthorID
		parentAuthor = &pa
	}

	c, err := s.store.InsertComment(ctx, store.Comment{
		PostPageID: pageID,
		ParentID:   parentID,
		AuthorID:   authorID,
		Content:    content,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return store.Comment{}, fmt.Errorf("post %d: %w", pageID, ErrNotFound)
		case errors.Is(err, store.ErrParentMismatch):
			return store.Comment{}, fmt.Errorf("parent on another post: %w", ErrInvalidInput)
		}
		return store.Comment{}, err
	}

	post, err := s.store.GetPost(ctx, pageID)
	if err != nil {
		// The comment is in; log and skip the notification rather than
		// surface an error for a row we just updated.
		s.log.Warn("post lookup after comment insert failed",
			zap.Int64("page_id", pageID), zap.Error(err))
		return c, nil
	}

	s.notifier.AfterCommentAdded(CommentAdded{
		CommentID:       c.ID,
		PostPageID:      pageID,
		PostTitle:       page.Title,
		PostAuthorID:    post.AuthorID,
		CommentAuthorID: authorID,
		ParentID:        parentID,
		ParentAuthorID:  parentAuthor,
		CreatedAt:       c.Created,
	})
	return c, nil
}

// EditComment replaces a comment's content. Allowed for the comment's
// author and for moderators.
func (s *Service) EditComment(ctx context.Context, commentID, editorID int64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("empty comment: %w", ErrInvalidInput)
	}

	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	if c.Deleted {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err := s.authorize(ctx, editorID, c.AuthorID); err != nil {
		return err
	}

	if err := s.store.UpdateCommentContent(ctx, commentID, editorID, content); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	return nil
}

// DeleteComment tombstones a comment: the row stays so reply chains and
// the post's comment count keep their meaning, but the content is gone.
func (s *Service) DeleteComment(ctx context.Context, commentID, actorID int64) error {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	if c.Deleted {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err := s.authorize(ctx, actorID, c.AuthorID); err != nil {
		return err
	}

	if err := s.store.TombstoneComment(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, actorID, ownerID int64) error {
	if actorID == ownerID {
		return nil
	}
	ok, err := s.users.HasCapability(ctx, actorID, wiki.CapModerate)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d: %w", actorID, ErrForbidden)
	}
	return nil
}

// GetCommentsForPost returns one page of comments in chronological
// order, enriched with author names, like counts and the post author's
// favorite marks. Tombstoned comments are included as placeholders so
// reply threads keep their shape.
func (s *Service) GetCommentsForPost(ctx context.Context, pageID int64, limit, offset int) ([]CommentView, error) {
	limit, offset = s.ClampPage(limit, offset)

	post, err := s.store.GetPost(ctx, pageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("post %d: %w", pageID, ErrNotFound)
		}
		return nil, err
	}

	flat, err := s.store.ListComments(ctx, pageID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return []CommentView{}, nil
	}

	ids := make([]int64, len(flat))
	for i, c := range flat {
		ids[i] = c.ID
	}
	likes, err := s.store.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	favs, err := s.store.FavoritedBy(ctx, ids, post.AuthorID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	out := make([]CommentView, 0, len(flat))
	for _, c := range flat {
		name, ok := names[c.AuthorID]
		if !ok {
			name = s.userName(ctx, c.AuthorID)
			names[c.AuthorID] = name
		}
		out = append(out, CommentView{
			ID:                    c.ID,
			ParentID:              c.ParentID,
			AuthorID:              c.AuthorID,
			AuthorName:            name,
			Created:               c.Created,
			LastEdited:            c.LastEdited,
			EditCount:             c.EditCount,
			Content:               c.Content,
			Deleted:               c.Deleted,
			Likes:                 likes[c.ID],
			FavoritedByPostAuthor: favs[c.ID],
		})
	}
	return out, nil
}

func (s *Service) userName(ctx context.Context, userID int64) string {
	u, err := s.users.User(ctx, userID)
	if err != nil {
		// A deleted wiki account leaves comments behind; render them
		// without a name instead of failing the page.
		if !errors.Is(err, wiki.ErrUserNotFound) {
			s.log.Warn("user lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return ""
	}
	return u.Name
}

// SetCommentLike toggles the caller's like on a comment. Any registered
// user may like any comment; repeating a toggle is a no-op.
func (s *Service) SetCommentLike(ctx context.Context, commentID, userID int64, liked bool) error {
	if err := s.store.SetLike(ctx, commentID, userID, liked); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	return nil
}

// SetCommentFavorite toggles a favorite mark. Only the author of the
// post the comment sits on may favorite its comments.
func (s *Service) SetCommentFavorite(ctx context.Context, commentID, userID int64, favorited bool) error {
	info, err := s.store.CommentPostInfo(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	if info.PostAuthor != userID {
		return fmt.Errorf("user %d is not the post author: %w", userID, ErrForbidden)
	}

	if err := s.store.SetFavorite(ctx, commentID, userID, favorited); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
		}
		return err
	}
	return nil
}

// GetRecentPosts lists posts newest-first across all authors.
func (s *Service) GetRecentPosts(ctx context.Context, limit, offset int) ([]PostView, error) {
	limit, offset = s.ClampPage(limit, offset)
	posts, err := s.store.ListPosts(ctx, store.PostFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return s.resolveTitles(ctx, posts), nil
}

// GetUserPosts lists one author's posts newest-first.
func (s *Service) GetUserPosts(ctx context.Context, authorName string, limit, offset int) ([]PostView, error) {
	authorName = strings.TrimSpace(authorName)
	if authorName == "" {
		return nil, fmt.Errorf("empty author name: %w", ErrInvalidInput)
	}
	limit, offset = s.ClampPage(limit, offset)
	posts, err := s.store.ListPosts(ctx, store.PostFilter{AuthorName: authorName, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return s.resolveTitles(ctx, posts), nil
}

// GetPostsByCategory lists the posts filed under a wiki category,
// newest first like the other listings. Category members without a post
// row (plain wiki pages) never consume page slots.
func (s *Service) GetPostsByCategory(ctx context.Context, categoryName string, limit, offset int) ([]PostView, error) {
	key := wiki.NormalizeCategoryKey(categoryName)
	if key == "" {
		return nil, fmt.Errorf("empty category: %w", ErrInvalidInput)
	}
	limit, offset = s.ClampPage(limit, offset)

	ids, err := s.categories.Members(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []PostView{}, nil
	}

	// Membership carries no useful ordering; sorting and pagination
	// happen on the joined post rows (created DESC, page id tie-break).
	posts, err := s.store.ListPosts(ctx, store.PostFilter{PageIDs: ids, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return s.resolveTitles(ctx, posts), nil
}

func (s *Service) resolveTitles(ctx context.Context, posts []store.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		page, err := s.pages.BlogPage(ctx, p.PageID)
		if err != nil {
			// The wiki page was deleted out from under the post row.
			if !errors.Is(err, wiki.ErrPageNotFound) {
				s.log.Warn("page lookup failed", zap.Int64("page_id", p.PageID), zap.Error(err))
			}
			continue
		}
		out = append(out, PostView{Post: p, Title: page.Title})
	}
	return out
}
