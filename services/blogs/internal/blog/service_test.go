package blog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/wiki-platform/services/blogs/internal/store"
	"github.com/example/wiki-platform/services/blogs/internal/wiki"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []CommentAdded
}

func (r *recordingNotifier) AfterCommentAdded(ev CommentAdded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) all() []CommentAdded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommentAdded, len(r.events))
	copy(out, r.events)
	return out
}

type fixture struct {
	svc      *Service
	store    *store.MemoryBlogStore
	dir      *wiki.Directory
	notifier *recordingNotifier
}

// newFixture wires a service around one registered post: page 100,
// authored by Alice (user 1). Bob (2) and Carol (3) are bystanders,
// Mod (9) holds the moderation capability.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemoryBlogStore()
	dir := wiki.NewDirectory()
	dir.AddBlogPage(100, "User_blog:Alice/First_post")
	dir.AddUser(1, "Alice")
	dir.AddUser(2, "Bob")
	dir.AddUser(3, "Carol")
	dir.AddUser(9, "Mod")
	dir.Grant(9, wiki.CapModerate)

	rec := &recordingNotifier{}
	svc := NewService(Deps{
		Store:      st,
		Pages:      dir,
		Users:      dir,
		Categories: dir,
		Notifier:   rec,
		Limits:     Limits{DefaultLimit: 20, MaxLimit: 100},
	})

	if _, err := svc.RegisterPost(ctx, 100, 1); err != nil {
		t.Fatalf("register post: %v", err)
	}
	return &fixture{svc: svc, store: st, dir: dir, notifier: rec}
}

func TestRegisterPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.RegisterPost(ctx, 100, 1)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if p.Title != "User_blog:Alice/First_post" || p.AuthorName != "Alice" {
		t.Fatalf("unexpected post view: %+v", p)
	}

	if _, err := f.svc.RegisterPost(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing page, got %v", err)
	}
	f.dir.AddBlogPage(101, "User_blog:Ghost/Post")
	if _, err := f.svc.RegisterPost(ctx, 101, 777); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown author, got %v", err)
	}
}

func TestAddComment_CountMatchesRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.AddComment(ctx, 100, nil, 2, "hello"); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	p, err := f.store.GetPost(ctx, 100)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if p.CommentCount != 3 {
		t.Fatalf("expected comment_count 3, got %d", p.CommentCount)
	}
	views, _ := f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if int64(len(views)) != p.CommentCount {
		t.Fatalf("count %d does not match %d rows", p.CommentCount, len(views))
	}
}

func TestAddComment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddComment(ctx, 100, nil, 2, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank content, got %v", err)
	}
	if _, err := f.svc.AddComment(ctx, 999, nil, 2, "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing page, got %v", err)
	}

	missing := int64(4242)
	if _, err := f.svc.AddComment(ctx, 100, &missing, 2, "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestAddComment_ParentOnAnotherPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dir.AddBlogPage(200, "User_blog:Bob/Other")
	if _, err := f.svc.RegisterPost(ctx, 200, 2); err != nil {
		t.Fatalf("register second post: %v", err)
	}
	parent, err := f.svc.AddComment(ctx, 100, nil, 2, "root")
	if err != nil {
		t.Fatalf("add parent: %v", err)
	}

	if _, err := f.svc.AddComment(ctx, 200, &parent.ID, 3, "re"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for cross-post parent, got %v", err)
	}
}

func TestAddComment_Notifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.AddComment(ctx, 100, nil, 2, "from bob")
	if err != nil {
		t.Fatalf("add root: %v", err)
	}
	if _, err := f.svc.AddComment(ctx, 100, &root.ID, 3, "from carol"); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	events := f.notifier.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.PostAuthorID != 1 || first.CommentAuthorID != 2 || first.ParentAuthorID != nil {
		t.Fatalf("unexpected root event: %+v", first)
	}
	second := events[1]
	if second.ParentAuthorID == nil || *second.ParentAuthorID != 2 {
		t.Fatalf("expected parent author 2, got %+v", second.ParentAuthorID)
	}
	if second.PostTitle != "User_blog:Alice/First_post" {
		t.Fatalf("unexpected post title %q", second.PostTitle)
	}
}

func TestEditComment_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.svc.AddComment(ctx, 100, nil, 2, "original")

	if err := f.svc.EditComment(ctx, c.ID, 3, "hijack"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bystander, got %v", err)
	}
	if err := f.svc.EditComment(ctx, c.ID, 2, "fixed by author"); err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if err := f.svc.EditComment(ctx, c.ID, 9, "fixed by moderator"); err != nil {
		t.Fatalf("moderator edit: %v", err)
	}

	views, _ := f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if views[0].Content != "fixed by moderator" || views[0].EditCount != 2 {
		t.Fatalf("unexpected view after edits: %+v", views[0])
	}

	if err := f.svc.EditComment(ctx, c.ID, 2, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank edit, got %v", err)
	}
	if err := f.svc.EditComment(ctx, 999, 2, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.AddComment(ctx, 100, nil, 2, "root")
	reply, _ := f.svc.AddComment(ctx, 100, &root.ID, 3, "reply")

	if err := f.svc.DeleteComment(ctx, root.ID, 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bystander, got %v", err)
	}
	if err := f.svc.DeleteComment(ctx, root.ID, 9); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}
	if err := f.svc.DeleteComment(ctx, root.ID, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}

	// Count and thread shape survive the tombstone.
	p, _ := f.store.GetPost(ctx, 100)
	if p.CommentCount != 2 {
		t.Fatalf("expected comment_count 2 after delete, got %d", p.CommentCount)
	}
	views, _ := f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if len(views) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(views))
	}
	if !views[0].Deleted || views[0].Content != "" {
		t.Fatalf("expected tombstoned root, got %+v", views[0])
	}
	roots := BuildCommentTree(views)
	if len(roots) != 1 || len(roots[0].Replies) != 1 || roots[0].Replies[0].ID != reply.ID {
		t.Fatalf("expected reply kept under tombstone, got %+v", roots)
	}
}

func TestGetCommentsForPost_Enrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, _ := f.svc.AddComment(ctx, 100, nil, 2, "first")
	c2, _ := f.svc.AddComment(ctx, 100, nil, 3, "second")

	if err := f.svc.SetCommentLike(ctx, c1.ID, 1, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := f.svc.SetCommentLike(ctx, c1.ID, 3, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := f.svc.SetCommentFavorite(ctx, c2.ID, 1, true); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	views, err := f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].Likes != 2 || views[0].FavoritedByPostAuthor {
		t.Fatalf("unexpected first view: %+v", views[0])
	}
	if views[1].Likes != 0 || !views[1].FavoritedByPostAuthor {
		t.Fatalf("unexpected second view: %+v", views[1])
	}
	if views[0].AuthorName != "Bob" || views[1].AuthorName != "Carol" {
		t.Fatalf("unexpected author names: %q %q", views[0].AuthorName, views[1].AuthorName)
	}

	if _, err := f.svc.GetCommentsForPost(ctx, 999, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestSetCommentLike_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.svc.AddComment(ctx, 100, nil, 2, "likeable")

	for i := 0; i < 2; i++ {
		if err := f.svc.SetCommentLike(ctx, c.ID, 3, true); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	views, _ := f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if views[0].Likes != 1 {
		t.Fatalf("expected 1 like after repeat toggles, got %d", views[0].Likes)
	}

	if err := f.svc.SetCommentLike(ctx, c.ID, 3, false); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	views, _ = f.svc.GetCommentsForPost(ctx, 100, 0, 0)
	if views[0].Likes != 0 {
		t.Fatalf("expected 0 likes, got %d", views[0].Likes)
	}

	if err := f.svc.SetCommentLike(ctx, 999, 3, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetCommentFavorite_PostAuthorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.svc.AddComment(ctx, 100, nil, 2, "nice one")

	if err := f.svc.SetCommentFavorite(ctx, c.ID, 2, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for commenter, got %v", err)
	}
	if err := f.svc.SetCommentFavorite(ctx, c.ID, 9, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden even for moderator, got %v", err)
	}
	if err := f.svc.SetCommentFavorite(ctx, c.ID, 1, true); err != nil {
		t.Fatalf("post author favorite: %v", err)
	}
	if err := f.svc.SetCommentFavorite(ctx, 999, 1, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddComment_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := f.svc.AddComment(ctx, 100, nil, 2, "c"); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	p, _ := f.store.GetPost(ctx, 100)
	if p.CommentCount != n {
		t.Fatalf("expected comment_count %d, got %d", n, p.CommentCount)
	}
	views, _ := f.svc.GetCommentsForPost(ctx, 100, n+1, 0)
	if len(views) != n {
		t.Fatalf("expected %d rows, got %d", n, len(views))
	}
	if len(f.notifier.all()) != n {
		t.Fatalf("expected %d events, got %d", n, len(f.notifier.all()))
	}
}

func TestGetUserPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dir.AddBlogPage(200, "User_blog:Bob/His_post")
	if _, err := f.svc.RegisterPost(ctx, 200, 2); err != nil {
		t.Fatalf("register: %v", err)
	}

	alice, err := f.svc.GetUserPosts(ctx, "Alice", 0, 0)
	if err != nil {
		t.Fatalf("user posts: %v", err)
	}
	if len(alice) != 1 || alice[0].PageID != 100 {
		t.Fatalf("unexpected Alice posts: %+v", alice)
	}

	if _, err := f.svc.GetUserPosts(ctx, "  ", 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank author, got %v", err)
	}

	none, _ := f.svc.GetUserPosts(ctx, "Nobody", 0, 0)
	if len(none) != 0 {
		t.Fatalf("expected no posts, got %+v", none)
	}
}

func TestGetRecentPosts_SkipsDeletedPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A post row whose wiki page no longer resolves should be skipped.
	if err := f.store.UpsertPost(ctx, 555, 2, "Bob"); err != nil {
		t.Fatalf("seed stale post: %v", err)
	}

	recent, err := f.svc.GetRecentPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].PageID != 100 {
		t.Fatalf("expected only page 100, got %+v", recent)
	}
}

func TestGetPostsByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Page 200 is created strictly after page 100 (the fixture post).
	f.store.Now = func() time.Time { return time.Now().Add(time.Hour).UTC() }
	f.dir.AddBlogPage(200, "User_blog:Bob/Cooking_post")
	if _, err := f.svc.RegisterPost(ctx, 200, 2); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Membership order (100 filed first) deliberately disagrees with
	// creation order; the listing must sort by created DESC regardless.
	f.dir.AddCategoryMember("home cooking", 100)
	f.dir.AddCategoryMember("home cooking", 200)
	// A plain wiki page in the category must not consume a page slot.
	f.dir.AddCategoryMember("home cooking", 300)

	posts, err := f.svc.GetPostsByCategory(ctx, "home cooking", 2, 0)
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(posts) != 2 || posts[0].PageID != 200 || posts[1].PageID != 100 {
		t.Fatalf("expected created DESC [200 100], got %+v", posts)
	}

	second, _ := f.svc.GetPostsByCategory(ctx, "home cooking", 1, 1)
	if len(second) != 1 || second[0].PageID != 100 {
		t.Fatalf("expected offset page [100], got %+v", second)
	}

	if _, err := f.svc.GetPostsByCategory(ctx, "  ", 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	empty, _ := f.svc.GetPostsByCategory(ctx, "missing", 0, 0)
	if len(empty) != 0 {
		t.Fatalf("expected empty category, got %+v", empty)
	}
}

func TestClampPaging(t *testing.T) {
	svc := NewService(Deps{Limits: Limits{DefaultLimit: 10, MaxLimit: 50}})
	if l, o := svc.ClampPage(0, -3); l != 10 || o != 0 {
		t.Fatalf("expected (10,0), got (%d,%d)", l, o)
	}
	if l, _ := svc.ClampPage(500, 0); l != 50 {
		t.Fatalf("expected max 50, got %d", l)
	}
	if l, _ := svc.ClampPage(7, 0); l != 7 {
		t.Fatalf("expected 7, got %d", l)
	}
}
