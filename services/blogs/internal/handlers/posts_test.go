package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterPost(t *testing.T) {
	svc, dir := newService(t)
	dir.AddBlogPage(200, "User_blog:Bob/New_post")
	handler := RegisterPost(svc, nil)

	req := setupReq(http.MethodPost, "/v1/posts", `{"page_id":200}`, nil, 2)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		PageID int64  `json:"page_id"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PageID != 200 || resp.Title != "User_blog:Bob/New_post" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegisterPost_MissingPage(t *testing.T) {
	svc, _ := newService(t)
	handler := RegisterPost(svc, nil)

	req := setupReq(http.MethodPost, "/v1/posts", `{"page_id":999}`, nil, 2)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRegisterPost_Unauthorized(t *testing.T) {
	svc, _ := newService(t)
	handler := RegisterPost(svc, nil)

	req := setupReq(http.MethodPost, "/v1/posts", `{"page_id":100}`, nil, 0)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRecentPosts(t *testing.T) {
	svc, _ := newService(t)
	handler := RecentPosts(svc, nil) // nil cache is a permanent miss

	req := setupReq(http.MethodGet, "/v1/posts", "", nil, 0)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp postListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].PageID != 100 {
		t.Fatalf("unexpected posts: %+v", resp.Posts)
	}
}

func TestRecentPostsCacheKey_Clamped(t *testing.T) {
	svc, _ := newService(t)

	// Oversized and negative windows collapse onto the bounded key, so
	// cache cardinality stays under the service limits and registration
	// invalidates the page readers actually hit.
	if got, want := recentPostsKey(svc.ClampPage(9999, -5)), recentPostsKey(svc.ClampPage(100, 0)); got != want {
		t.Fatalf("expected clamped keys to match, got %q vs %q", got, want)
	}
	if got, want := recentPostsKey(svc.ClampPage(0, 0)), recentPostsKey(svc.ClampPage(20, 0)); got != want {
		t.Fatalf("expected default window key %q, got %q", want, got)
	}
}

func TestUserPosts(t *testing.T) {
	svc, _ := newService(t)
	handler := UserPosts(svc)

	req := setupReq(http.MethodGet, "/v1/users/Alice/posts", "",
		map[string]string{"name": "Alice"}, 0)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp postListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].AuthorName != "Alice" {
		t.Fatalf("unexpected posts: %+v", resp.Posts)
	}
}

func TestCategoryPosts(t *testing.T) {
	svc, dir := newService(t)
	dir.AddCategoryMember("home cooking", 100)
	handler := CategoryPosts(svc)

	req := setupReq(http.MethodGet, "/v1/categories/home%20cooking/posts", "",
		map[string]string{"name": "home cooking"}, 0)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp postListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].PageID != 100 {
		t.Fatalf("unexpected posts: %+v", resp.Posts)
	}

	req = setupReq(http.MethodGet, "/v1/categories/empty/posts", "",
		map[string]string{"name": "empty"}, 0)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	var empty postListResponse
	if err := json.NewDecoder(rr.Body).Decode(&empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(empty.Posts) != 0 {
		t.Fatalf("expected no posts, got %+v", empty.Posts)
	}
}
