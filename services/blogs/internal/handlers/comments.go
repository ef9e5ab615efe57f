package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/wiki-platform/internal/platform/api"
	"github.com/example/wiki-platform/internal/platform/auth"
	"github.com/example/wiki-platform/internal/platform/httpserver"
	"github.com/example/wiki-platform/services/blogs/internal/blog"
)

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

type toggleRequest struct {
	On bool `json:"on"`
}

type commentListResponse struct {
	Comments []blog.CommentView `json:"comments"`
}

type commentTreeResponse struct {
	Comments []*blog.CommentNode `json:"comments"`
}

// ListComments handles GET /v1/posts/{page_id}/comments.
// With ?view=tree the flat page is arranged into a reply forest.
func ListComments(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID, ok := pathID(r, "page_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "page_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		limit, offset := pageQuery(r)

		views, err := svc.GetCommentsForPost(r.Context(), pageID, limit, offset)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if strings.EqualFold(r.URL.Query().Get("view"), "tree") {
			roots := blog.BuildCommentTree(views)
			if roots == nil {
				roots = []*blog.CommentNode{}
			}
			api.WriteJSON(w, http.StatusOK, commentTreeResponse{Comments: roots})
			return
		}
		api.WriteJSON(w, http.StatusOK, commentListResponse{Comments: views})
	}
}

// CreateComment handles POST /v1/posts/{page_id}/comments
func CreateComment(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		pageID, ok := pathID(r, "page_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "page_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		created, err := svc.AddComment(r.Context(), pageID, req.ParentID, userID, req.Content)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		if err := svc.EditComment(r.Context(), commentID, userID, req.Content); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc *blog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		if err := svc.DeleteComment(r.Context(), commentID, userID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LikeComment handles PUT /v1/comments/{comment_id}/like
func LikeComment(svc *blog.Service) http.HandlerFunc {
	return toggleHandler(svc.SetCommentLike)
}

// FavoriteComment handles PUT /v1/comments/{comment_id}/favorite
func FavoriteComment(svc *blog.Service) http.HandlerFunc {
	return toggleHandler(svc.SetCommentFavorite)
}

func toggleHandler(toggle func(ctx context.Context, commentID, userID int64, on bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(r, "comment_id")
		if !ok {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		var req toggleRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}

		if err := toggle(r.Context(), commentID, userID, req.On); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
