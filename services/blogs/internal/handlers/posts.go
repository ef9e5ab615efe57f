package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/wiki-platform/internal/platform/api"
	"github.com/example/wiki-platform/internal/platform/auth"
	"github.com/example/wiki-platform/internal/platform/cache"
	"github.com/example/wiki-platform/internal/platform/httpserver"
	"github.com/example/wiki-platform/services/blogs/internal/blog"
)

type registerPostRequest struct {
	PageID int64 `json:"page_id"`
}

type postListResponse struct {
	Posts []blog.PostView `json:"posts"`
}

// RegisterPost handles POST /v1/posts
func RegisterPost(svc *blog.Service, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}

		var req registerPostRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		if req.PageID <= 0 {
			api.BadRequest(w, "MISSING_ID", "page_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		p, err := svc.RegisterPost(r.Context(), req.PageID, userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		// New post shifts the recent listing; drop the default page.
		_ = c.Delete(r.Context(), recentPostsKey(svc.ClampPage(0, 0)))
		api.WriteJSON(w, http.StatusCreated, p)
	}
}

func recentPostsKey(limit, offset int) string {
	return fmt.Sprintf("blogs:recent:%d:%d", limit, offset)
}

// RecentPosts handles GET /v1/posts
func RecentPosts(svc *blog.Service, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Clamp before keying the cache so equivalent windows share one
		// entry and callers cannot mint unbounded keys.
		limit, offset := svc.ClampPage(pageQuery(r))

		var resp postListResponse
		err := c.Aside(r.Context(), recentPostsKey(limit, offset), &resp, func() error {
			posts, err := svc.GetRecentPosts(r.Context(), limit, offset)
			if err != nil {
				return err
			}
			resp.Posts = posts
			return nil
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if resp.Posts == nil {
			resp.Posts = []blog.PostView{}
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// UserPosts handles GET /v1/users/{name}/posts
func UserPosts(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" {
			api.BadRequest(w, "MISSING_NAME", "user name is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		limit, offset := pageQuery(r)

		posts, err := svc.GetUserPosts(r.Context(), name, limit, offset)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if posts == nil {
			posts = []blog.PostView{}
		}
		api.WriteJSON(w, http.StatusOK, postListResponse{Posts: posts})
	}
}

// CategoryPosts handles GET /v1/categories/{name}/posts
func CategoryPosts(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" {
			api.BadRequest(w, "MISSING_NAME", "category name is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		limit, offset := pageQuery(r)

		posts, err := svc.GetPostsByCategory(r.Context(), name, limit, offset)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if posts == nil {
			posts = []blog.PostView{}
		}
		api.WriteJSON(w, http.StatusOK, postListResponse{Posts: posts})
	}
}
