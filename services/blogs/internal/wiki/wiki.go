package wiki

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// The blogs service does not own wiki pages, users or categories; it
// reads them through these interfaces. In production they are backed by
// the wiki's Postgres schema, in development and tests by Directory.

// PageRef identifies a wiki page in the blog namespace.
type PageRef struct {
	PageID int64  `json:"page_id"`
	Title  string `json:"title"`
}

// User is a wiki account. Anonymous visitors never reach the service;
// every caller carries a registered user id.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
}

// CapModerate lets a user edit or delete comments they did not write.
const CapModerate = "blog-comments-toggle"

var (
	ErrPageNotFound = errors.New("wiki page not found")
	ErrUserNotFound = errors.New("wiki user not found")
)

// PageResolver resolves blog-namespace pages.
type PageResolver interface {
	// BlogPage returns the page ref when pageID exists and sits in the
	// blog namespace, ErrPageNotFound otherwise.
	BlogPage(ctx context.Context, pageID int64) (PageRef, error)
}

// Identity answers who a user is and what they may do.
type Identity interface {
	User(ctx context.Context, userID int64) (User, error)
	HasCapability(ctx context.Context, userID int64, capability string) (bool, error)
}

// CategoryIndex lists the blog pages filed under a category.
type CategoryIndex interface {
	// Members returns every page id under the normalized category key.
	// Ordering and pagination are the caller's concern: listings sort by
	// post creation time, which the index does not know.
	Members(ctx context.Context, categoryKey string) ([]int64, error)
}

// NormalizeCategoryKey maps a display name to the stored key: spaces
// become underscores and the first rune is uppercased, matching how the
// wiki stores category titles.
func NormalizeCategoryKey(name string) string {
	key := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if key == "" {
		return ""
	}
	runes := []rune(key)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
