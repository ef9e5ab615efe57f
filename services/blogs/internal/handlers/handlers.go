// Package handlers exposes the blog operations over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/wiki-platform/internal/platform/api"
	"github.com/example/wiki-platform/internal/platform/httpserver"
	"github.com/example/wiki-platform/services/blogs/internal/blog"
)

// pageQuery reads limit/offset query params. Out-of-range values fall
// through to the service's clamping.
func pageQuery(r *http.Request) (limit, offset int) {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

func pathID(r *http.Request, param string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps the service sentinels onto the API envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())
	switch {
	case errors.Is(err, blog.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "not found", rid)
	case errors.Is(err, blog.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "not allowed", rid)
	case errors.Is(err, blog.ErrInvalidInput):
		api.BadRequest(w, "INVALID_INPUT", err.Error(), rid, nil)
	default:
		api.Internal(w, rid)
	}
}
