// Package repository contains data access logic for the post/meta store.
// This file implements the generic posts table that holds both productions
// and events, together with their key/value meta rows. The schema mirrors a
// classic CMS layout: a typed `posts` table plus a `post_meta` table queried
// by key, which is what the ordered production listing joins against.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"strings"      // strings builds IN (...) placeholder lists
	"time"         // time for the changed-since selection

	"github.com/iliyamo/theater-production-schedule/internal/model"
)

// PostRepo manages persistence for posts and their meta rows.
type PostRepo struct {
	db *sql.DB
}

// NewPostRepo constructs a PostRepo with the given DB handle.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin transactions
// spanning multiple repositories when fine-grained control is needed.
func (r *PostRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new post and assigns the generated ID back to the
// struct. Status defaults to 'publish' when empty. DB-default timestamps
// are populated by re-reading the inserted row.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	if p.Status == "" {
		p.Status = model.StatusPublish
	}
	const q = `INSERT INTO posts (post_type, title, post_status, is_sticky) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Type, p.Title, p.Status, p.Sticky)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT id, post_type, title, post_status, is_sticky, created_at, updated_at
                 FROM posts WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(
		&p.ID, &p.Type, &p.Title, &p.Status, &p.Sticky, &p.CreatedAt, &p.UpdatedAt,
	)
}

// GetByID retrieves a post by its ID. It returns ErrPostNotFound if there
// is no matching row.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	const q = `SELECT id, post_type, title, post_status, is_sticky, created_at, updated_at
               FROM posts WHERE id = ?`
	var p model.Post
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Type, &p.Title, &p.Status, &p.Sticky, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateTitle changes a post's title. It returns ErrPostNotFound when the
// row does not exist and ErrNoChange when the title is already identical.
func (r *PostRepo) UpdateTitle(ctx context.Context, id uint64, title string) error {
	const q = `UPDATE posts SET title = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND title <> ?`
	res, err := r.db.ExecContext(ctx, q, title, id, title)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.classifyNoop(ctx, id)
}

// UpdateStatus changes a post's lifecycle status. It returns ErrPostNotFound
// when the row does not exist and ErrNoChange when the status is unchanged.
func (r *PostRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE posts SET post_status = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND post_status <> ?`
	res, err := r.db.ExecContext(ctx, q, status, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.classifyNoop(ctx, id)
}

// SetSticky toggles a production's pinned flag.
func (r *PostRepo) SetSticky(ctx context.Context, id uint64, sticky bool) error {
	const q = `UPDATE posts SET is_sticky = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND is_sticky <> ?`
	res, err := r.db.ExecContext(ctx, q, sticky, id, sticky)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.classifyNoop(ctx, id)
}

// classifyNoop distinguishes "row missing" from "values identical" after an
// UPDATE that affected zero rows.
func (r *PostRepo) classifyNoop(ctx context.Context, id uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a post and all of its meta rows. The deletion occurs
// within a transaction so no orphaned meta survives a partial failure. It
// returns ErrPostNotFound when the post does not exist. Linked child posts
// (events of a deleted production) are not touched here; they become
// unlinked and drop out of aggregation on their own.
func (r *PostRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrPostNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM post_meta WHERE post_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// Meta returns the value of one meta key for a post. The second return
// value reports whether the key exists at all, so callers can distinguish
// "absent" from "empty string".
func (r *PostRepo) Meta(ctx context.Context, id uint64, key string) (string, bool, error) {
	const q = `SELECT meta_value FROM post_meta WHERE post_id = ? AND meta_key = ? LIMIT 1`
	var v string
	err := r.db.QueryRowContext(ctx, q, id, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// SetMeta upserts one meta key for a post. Authored keys bump the post's
// updated_at so the repair sweep's changed-since selection sees the
// mutation; derived keys (underscore prefix) do not, otherwise every order
// index write would re-select its own post on the next sweep.
func (r *PostRepo) SetMeta(ctx context.Context, id uint64, key, value string) error {
	const q = `INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES (?, ?, ?)
               ON DUPLICATE KEY UPDATE meta_value = VALUES(meta_value)`
	if _, err := r.db.ExecContext(ctx, q, id, key, value); err != nil {
		return err
	}
	if !strings.HasPrefix(key, "_") {
		_, err := r.db.ExecContext(ctx,
			`UPDATE posts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
		return err
	}
	return nil
}

// DeleteMeta removes one meta key from a post. Deleting an absent key is
// not an error.
func (r *PostRepo) DeleteMeta(ctx context.Context, id uint64, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM post_meta WHERE post_id = ? AND meta_key = ?`, id, key)
	return err
}

// EventIDsByProduction returns the IDs of all published events linked to
// the given production, in insertion (id) order. Chronological ordering is
// done by the domain layer on parsed instants, never on the stored strings.
func (r *PostRepo) EventIDsByProduction(ctx context.Context, productionID uint64) ([]uint64, error) {
	const q = `SELECT p.id
               FROM posts p
               JOIN post_meta m ON m.post_id = p.id AND m.meta_key = ?
               WHERE p.post_type = ? AND p.post_status = ? AND m.meta_value = CAST(? AS CHAR)
               ORDER BY p.id ASC`
	rows, err := r.db.QueryContext(ctx, q, model.MetaProduction, model.TypeEvent, model.StatusPublish, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ProductionIDsByOrder returns production IDs ordered ascending by the
// numeric order-index meta. Productions without the meta row (no orderable
// events) are excluded by the inner join. The CAST is deliberate: the meta
// value is stored as a string and string comparison missorts instants with
// differing digit counts. When pinSticky is set, sticky productions are
// hoisted to the front in creation (id) order; otherwise sticky only breaks
// ties between equal order indexes. Statuses containing "any" disables the
// status filter. limit <= 0 means no limit.
func (r *PostRepo) ProductionIDsByOrder(ctx context.Context, statuses []string, pinSticky bool, limit int) ([]uint64, error) {
	q := `SELECT p.id
          FROM posts p
          JOIN post_meta m ON m.post_id = p.id AND m.meta_key = '` + model.MetaOrderIndex + `'
          WHERE p.post_type = ?`
	args := []any{model.TypeProduction}

	if cond, statusArgs, ok := statusPredicate(statuses); ok {
		q += " AND " + cond
		args = append(args, statusArgs...)
	}

	if pinSticky {
		q += ` ORDER BY p.is_sticky DESC,
                        CASE WHEN p.is_sticky THEN p.id END ASC,
                        CAST(m.meta_value AS SIGNED) ASC, p.id ASC`
	} else {
		q += ` ORDER BY CAST(m.meta_value AS SIGNED) ASC, p.is_sticky DESC, p.id ASC`
	}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// IDsByTypes returns the IDs of the given posts restricted to the requested
// post types, in id order. A query mixing productions with unrelated types
// must return exactly the matching rows: no duplicates from meta joins and
// no rows of other types.
func (r *PostRepo) IDsByTypes(ctx context.Context, types []string, ids []uint64) ([]uint64, error) {
	if len(types) == 0 || len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT DISTINCT p.id FROM posts p
          WHERE p.post_type IN (` + placeholders(len(types)) + `)
            AND p.id IN (` + placeholders(len(ids)) + `)
          ORDER BY p.id ASC`
	args := make([]any, 0, len(types)+len(ids))
	for _, t := range types {
		args = append(args, t)
	}
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// EventIDsChangedSince returns published events whose rows were touched
// after the given instant. This catches mutations the incremental updater
// may have missed (bulk imports, direct edits).
func (r *PostRepo) EventIDsChangedSince(ctx context.Context, since time.Time) ([]uint64, error) {
	const q = `SELECT id FROM posts
               WHERE post_type = ? AND post_status = ? AND updated_at > ?
               ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, model.TypeEvent, model.StatusPublish, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// EventIDsStartingBetween returns published events whose own order-index
// meta (their instant, in unix seconds) lies in the half-open window
// (from, to]. The repair sweep uses this to find events that crossed from
// upcoming to past by pure clock advancement, with no row mutation at all.
func (r *PostRepo) EventIDsStartingBetween(ctx context.Context, from, to int64) ([]uint64, error) {
	const q = `SELECT p.id
               FROM posts p
               JOIN post_meta m ON m.post_id = p.id AND m.meta_key = ?
               WHERE p.post_type = ? AND p.post_status = ?
                 AND CAST(m.meta_value AS SIGNED) > ? AND CAST(m.meta_value AS SIGNED) <= ?
               ORDER BY p.id ASC`
	rows, err := r.db.QueryContext(ctx, q, model.MetaOrderIndex, model.TypeEvent, model.StatusPublish, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// statusPredicate builds the post_status filter. It returns ok=false when
// the filter should be omitted entirely ("any").
func statusPredicate(statuses []string) (string, []any, bool) {
	if len(statuses) == 0 {
		return `p.post_status = ?`, []any{model.StatusPublish}, true
	}
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		if strings.EqualFold(s, "any") {
			return "", nil, false
		}
		args = append(args, s)
	}
	return `p.post_status IN (` + placeholders(len(args)) + `)`, args, true
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func scanIDs(rows *sql.Rows) ([]uint64, error) {
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
