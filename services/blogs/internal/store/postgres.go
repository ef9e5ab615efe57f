package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlogStore persists blog metadata in Postgres.
//
// Schema (blog_posts, blog_comments, blog_comment_likes,
// blog_comment_favorites): comments carry an FK to blog_posts and a
// self-FK for the parent; likes/favorites have a composite primary key
// on (comment_id, user_id).
type PostgresBlogStore struct {
	pool *pgxpool.Pool
}

func NewPostgresBlogStore(pool *pgxpool.Pool) *PostgresBlogStore {
	return &PostgresBlogStore{pool: pool}
}

const postColumns = `page_id, author_id, author_name, created, last_touched,
	comment_count, last_comment, last_comment_user`

const commentColumns = `id, post_page_id, parent_id, author_id, created,
	last_edited, last_edited_user, edit_count, content, deleted`

func (s *PostgresBlogStore) UpsertPost(ctx context.Context, pageID, authorID int64, authorName string) error {
	const q = `INSERT INTO blog_posts (page_id, author_id, author_name, created, last_touched, comment_count)
	           VALUES ($1, $2, $3, now(), now(), 0)
	           ON CONFLICT (page_id) DO UPDATE SET last_touched = now()`
	if _, err := s.pool.Exec(ctx, q, pageID, authorID, authorName); err != nil {
		return fmt.Errorf("upsert post %d: %w", pageID, err)
	}
	return nil
}

func (s *PostgresBlogStore) GetPost(ctx context.Context, pageID int64) (Post, error) {
	q := `SELECT ` + postColumns + ` FROM blog_posts WHERE page_id = $1`
	p, err := scanPost(s.pool.QueryRow(ctx, q, pageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return p, nil
}

func (s *PostgresBlogStore) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	q := `SELECT ` + postColumns + ` FROM blog_posts`
	var args []any
	switch {
	case f.AuthorName != "":
		q += ` WHERE author_name = $1`
		args = append(args, f.AuthorName)
	case f.PageIDs != nil:
		q += ` WHERE page_id = ANY($1)`
		args = append(args, f.PageIDs)
	}
	q += ` ORDER BY created DESC, page_id DESC`
	q += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertComment inserts the row and bumps the post aggregates in one
// transaction. The aggregate update uses an in-database increment, so
// concurrent inserts on the same post never lose counts.
func (s *PostgresBlogStore) InsertComment(ctx context.Context, c Comment) (Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ParentID != nil {
		var parentPost int64
		err := tx.QueryRow(ctx,
			`SELECT post_page_id FROM blog_comments WHERE id = $1`,
			*c.ParentID).Scan(&parentPost)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Comment{}, ErrNotFound
			}
			return Comment{}, err
		}
		if parentPost != c.PostPageID {
			return Comment{}, ErrParentMismatch
		}
	}

	const ins = `INSERT INTO blog_comments (post_page_id, parent_id, author_id, created, edit_count, content, deleted)
	             VALUES ($1, $2, $3, now(), 0, $4, false)
	             RETURNING ` + commentColumns
	out, err := scanComment(tx.QueryRow(ctx, ins, c.PostPageID, c.ParentID, c.AuthorID, c.Content))
	if err != nil {
		return Comment{}, err
	}

	const bump = `UPDATE blog_posts
	              SET comment_count = comment_count + 1,
	                  last_comment = $2,
	                  last_comment_user = $3,
	                  last_touched = $2
	              WHERE page_id = $1`
	tag, err := tx.Exec(ctx, bump, c.PostPageID, out.Created, c.AuthorID)
	if err != nil {
		return Comment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Comment{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, err
	}
	return out, nil
}

func (s *PostgresBlogStore) GetComment(ctx context.Context, id int64) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM blog_comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	return c, nil
}

func (s *PostgresBlogStore) UpdateCommentContent(ctx context.Context, id, editorID int64, content string) error {
	const q = `UPDATE blog_comments
	           SET content = $2, edit_count = edit_count + 1,
	               last_edited = now(), last_edited_user = $3
	           WHERE id = $1 AND NOT deleted`
	tag, err := s.pool.Exec(ctx, q, id, content, editorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresBlogStore) TombstoneComment(ctx context.Context, id int64) error {
	const q = `UPDATE blog_comments SET deleted = true, content = ''
	           WHERE id = $1 AND NOT deleted`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresBlogStore) ListComments(ctx context.Context, pageID int64, limit, offset int) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM blog_comments
	      WHERE post_page_id = $1
	      ORDER BY created ASC, id ASC
	      LIMIT $2 OFFSET $3`
	rows, err := s.pool.Query(ctx, q, pageID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresBlogStore) SetLike(ctx context.Context, commentID, userID int64, liked bool) error {
	return s.togglePair(ctx, "blog_comment_likes", commentID, userID, liked)
}

func (s *PostgresBlogStore) SetFavorite(ctx context.Context, commentID, userID int64, favorited bool) error {
	return s.togglePair(ctx, "blog_comment_favorites", commentID, userID, favorited)
}

func (s *PostgresBlogStore) togglePair(ctx context.Context, table string, commentID, userID int64, on bool) error {
	var q string
	if on {
		// DO NOTHING keeps the original created timestamp; repeating the
		// same toggle converges regardless of ordering.
		q = `INSERT INTO ` + table + ` (comment_id, user_id, created)
		     VALUES ($1, $2, now())
		     ON CONFLICT (comment_id, user_id) DO NOTHING`
	} else {
		q = `DELETE FROM ` + table + ` WHERE comment_id = $1 AND user_id = $2`
	}
	if _, err := s.pool.Exec(ctx, q, commentID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // fk violation: comment gone
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PostgresBlogStore) LikeCounts(ctx context.Context, commentIDs []int64) (map[int64]int64, error) {
	const q = `SELECT comment_id, COUNT(*) FROM blog_comment_likes
	           WHERE comment_id = ANY($1) GROUP BY comment_id`
	rows, err := s.pool.Query(ctx, q, commentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int64, len(commentIDs))
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *PostgresBlogStore) FavoritedBy(ctx context.Context, commentIDs []int64, userID int64) (map[int64]bool, error) {
	const q = `SELECT comment_id FROM blog_comment_favorites
	           WHERE comment_id = ANY($1) AND user_id = $2`
	rows, err := s.pool.Query(ctx, q, commentIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]bool, len(commentIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *PostgresBlogStore) CommentPostInfo(ctx context.Context, commentID int64) (CommentPostInfo, error) {
	const q = `SELECT c.post_page_id, c.author_id, p.author_id
	           FROM blog_comments c
	           JOIN blog_posts p ON p.page_id = c.post_page_id
	           WHERE c.id = $1`
	var info CommentPostInfo
	err := s.pool.QueryRow(ctx, q, commentID).
		Scan(&info.PostPageID, &info.CommentAuthor, &info.PostAuthor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CommentPostInfo{}, ErrNotFound
		}
		return CommentPostInfo{}, err
	}
	return info, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	err := row.Scan(&p.PageID, &p.AuthorID, &p.AuthorName, &p.Created,
		&p.LastTouched, &p.CommentCount, &p.LastComment, &p.LastCommentUser)
	return p, err
}

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostPageID, &c.ParentID, &c.AuthorID, &c.Created,
		&c.LastEdited, &c.LastEditedUser, &c.EditCount, &c.Content, &c.Deleted)
	return c, err
}
