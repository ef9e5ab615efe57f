package wiki

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory reads the wiki's own tables (wiki_pages, wiki_users,
// wiki_user_capabilities, wiki_category_members). The blogs service
// never writes to them.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) BlogPage(ctx context.Context, pageID int64) (PageRef, error) {
	const q = `SELECT page_id, title FROM wiki_pages
	           WHERE page_id = $1 AND namespace = 'blog'`
	var p PageRef
	if err := d.pool.QueryRow(ctx, q, pageID).Scan(&p.PageID, &p.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PageRef{}, ErrPageNotFound
		}
		return PageRef{}, err
	}
	return p, nil
}

func (d *PostgresDirectory) User(ctx context.Context, userID int64) (User, error) {
	const q = `SELECT id, name, registered FROM wiki_users WHERE id = $1`
	var u User
	if err := d.pool.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Name, &u.Registered); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (d *PostgresDirectory) HasCapability(ctx context.Context, userID int64, capability string) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM wiki_user_capabilities
	             WHERE user_id = $1 AND capability = $2)`
	var has bool
	if err := d.pool.QueryRow(ctx, q, userID, capability).Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

func (d *PostgresDirectory) Members(ctx context.Context, categoryKey string) ([]int64, error) {
	const q = `SELECT page_id FROM wiki_category_members
	           WHERE category_key = $1`
	rows, err := d.pool.Query(ctx, q, categoryKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
