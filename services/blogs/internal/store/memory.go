package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryBlogStore is a development/test implementation guarded by one
// mutex, so the insert-plus-aggregate update is atomic the same way the
// Postgres transaction is.
type MemoryBlogStore struct {
	mu        sync.RWMutex
	posts     map[int64]Post
	comments  map[int64]Comment
	likes     map[int64]map[int64]time.Time // commentID -> userID -> created
	favorites map[int64]map[int64]time.Time
	nextID    int64

	// Now is the clock used for storage timestamps. Tests may override it.
	Now func() time.Time
}

func NewMemoryBlogStore() *MemoryBlogStore {
	return &MemoryBlogStore{
		posts:     make(map[int64]Post),
		comments:  make(map[int64]Comment),
		likes:     make(map[int64]map[int64]time.Time),
		favorites: make(map[int64]map[int64]time.Time),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryBlogStore) UpsertPost(_ context.Context, pageID, authorID int64, authorName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	if p, ok := s.posts[pageID]; ok {
		p.LastTouched = now
		s.posts[pageID] = p
		return nil
	}
	s.posts[pageID] = Post{
		PageID:      pageID,
		AuthorID:    authorID,
		AuthorName:  authorName,
		Created:     now,
		LastTouched: now,
	}
	return nil
}

func (s *MemoryBlogStore) GetPost(_ context.Context, pageID int64) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[pageID]
	if !ok {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryBlogStore) ListPosts(_ context.Context, f PostFilter) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wanted map[int64]bool
	if f.PageIDs != nil {
		wanted = make(map[int64]bool, len(f.PageIDs))
		for _, id := range f.PageIDs {
			wanted[id] = true
		}
	}

	var out []Post
	for _, p := range s.posts {
		if f.AuthorName != "" && p.AuthorName != f.AuthorName {
			continue
		}
		if wanted != nil && !wanted[p.PageID] {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].PageID > out[j].PageID
	})

	return paginate(out, f.Limit, f.Offset), nil
}

func (s *MemoryBlogStore) InsertComment(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[c.PostPageID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if c.ParentID != nil {
		parent, ok := s.comments[*c.ParentID]
		if !ok {
			return Comment{}, ErrNotFound
		}
		if parent.PostPageID != c.PostPageID {
			return Comment{}, ErrParentMismatch
		}
	}

	s.nextID++
	c.ID = s.nextID
	c.Created = s.Now()
	c.EditCount = 0
	c.Deleted = false
	s.comments[c.ID] = c

	ts := c.Created
	uid := c.AuthorID
	post.CommentCount++
	post.LastComment = &ts
	post.LastCommentUser = &uid
	post.LastTouched = ts
	s.posts[c.PostPageID] = post

	return c, nil
}

func (s *MemoryBlogStore) GetComment(_ context.Context, id int64) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryBlogStore) UpdateCommentContent(_ context.Context, id, editorID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.Deleted {
		return ErrNotFound
	}
	now := s.Now()
	c.Content = content
	c.EditCount++
	c.LastEdited = &now
	c.LastEditedUser = &editorID
	s.comments[id] = c
	return nil
}

func (s *MemoryBlogStore) TombstoneComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.Deleted {
		return ErrNotFound
	}
	c.Deleted = true
	c.Content = ""
	s.comments[id] = c
	return nil
}

func (s *MemoryBlogStore) ListComments(_ context.Context, pageID int64, limit, offset int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Comment
	for _, c := range s.comments {
		if c.PostPageID == pageID {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})

	return paginate(out, limit, offset), nil
}

func (s *MemoryBlogStore) SetLike(_ context.Context, commentID, userID int64, liked bool) error {
	return s.togglePair(s.likes, commentID, userID, liked)
}

func (s *MemoryBlogStore) SetFavorite(_ context.Context, commentID, userID int64, favorited bool) error {
	return s.togglePair(s.favorites, commentID, userID, favorited)
}

func (s *MemoryBlogStore) togglePair(pairs map[int64]map[int64]time.Time, commentID, userID int64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return ErrNotFound
	}
	if on {
		if pairs[commentID] == nil {
			pairs[commentID] = make(map[int64]time.Time)
		}
		if _, exists := pairs[commentID][userID]; !exists {
			pairs[commentID][userID] = s.Now()
		}
		return nil
	}
	delete(pairs[commentID], userID)
	return nil
}

func (s *MemoryBlogStore) LikeCounts(_ context.Context, commentIDs []int64) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]int64, len(commentIDs))
	for _, id := range commentIDs {
		if n := len(s.likes[id]); n > 0 {
			out[id] = int64(n)
		}
	}
	return out, nil
}

func (s *MemoryBlogStore) FavoritedBy(_ context.Context, commentIDs []int64, userID int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]bool, len(commentIDs))
	for _, id := range commentIDs {
		if _, ok := s.favorites[id][userID]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *MemoryBlogStore) CommentPostInfo(_ context.Context, commentID int64) (CommentPostInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[commentID]
	if !ok {
		return CommentPostInfo{}, ErrNotFound
	}
	p, ok := s.posts[c.PostPageID]
	if !ok {
		return CommentPostInfo{}, ErrNotFound
	}
	return CommentPostInfo{
		PostPageID:    c.PostPageID,
		CommentAuthor: c.AuthorID,
		PostAuthor:    p.AuthorID,
	}, nil
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
