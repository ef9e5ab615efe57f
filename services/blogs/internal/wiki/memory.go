package wiki

import (
	"context"
	"sync"
)

// Directory is an in-memory stand-in for the wiki's page/user/category
// tables, used in development mode and tests.
type Directory struct {
	mu           sync.RWMutex
	pages        map[int64]PageRef
	users        map[int64]User
	capabilities map[int64]map[string]bool
	categories   map[string][]int64 // normalized key -> page ids, newest first
}

func NewDirectory() *Directory {
	return &Directory{
		pages:        make(map[int64]PageRef),
		users:        make(map[int64]User),
		capabilities: make(map[int64]map[string]bool),
		categories:   make(map[string][]int64),
	}
}

func (d *Directory) AddBlogPage(pageID int64, title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[pageID] = PageRef{PageID: pageID, Title: title}
}

func (d *Directory) AddUser(id int64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id] = User{ID: id, Name: name, Registered: true}
}

func (d *Directory) Grant(userID int64, capability string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capabilities[userID] == nil {
		d.capabilities[userID] = make(map[string]bool)
	}
	d.capabilities[userID][capability] = true
}

// AddCategoryMember files a page under a category display name.
func (d *Directory) AddCategoryMember(categoryName string, pageID int64) {
	key := NormalizeCategoryKey(categoryName)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.categories[key] = append(d.categories[key], pageID)
}

func (d *Directory) BlogPage(_ context.Context, pageID int64) (PageRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.pages[pageID]
	if !ok {
		return PageRef{}, ErrPageNotFound
	}
	return p, nil
}

func (d *Directory) User(_ context.Context, userID int64) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (d *Directory) HasCapability(_ context.Context, userID int64, capability string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.capabilities[userID][capability], nil
}

func (d *Directory) Members(_ context.Context, categoryKey string) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := d.categories[categoryKey]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}
