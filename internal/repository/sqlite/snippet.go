package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops satisfying repository.SnippetRepository the build fails here,
// not at the call site in server.go.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, value, description, language, tags, source, private,
	added_by, added_on, updated_on`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnippet reads one row selected with snippetColumns. The tags column is
// a JSON array; it is decoded here so callers always see []string.
func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s        model.Snippet
		tagsJSON string
	)
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Value,
		&s.Description,
		&s.Language,
		&tagsJSON,
		&s.Source,
		&s.Private,
		&s.AddedBy,
		&s.AddedOn,
		&s.UpdatedOn,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of snippet %s: %w", s.ID, err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new snippet. The ID (xid: 20 chars, URL-safe, sortable by
// creation time) and both timestamps are assigned here and written back into
// the caller's struct.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now().UTC()
	snippet.AddedOn = now
	snippet.UpdatedOn = now
	snippet.LikedBy = []string{}

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Value,
		snippet.Description,
		snippet.Language,
		tags,
		snippet.Source,
		snippet.Private,
		snippet.AddedBy,
		snippet.AddedOn,
		snippet.UpdatedOn,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet together with its like-set.
// sql.ErrNoRows is translated to apperror.NotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	snippet.LikedBy, err = db.likes(ctx, id)
	if err != nil {
		return nil, err
	}

	return snippet, nil
}

// List returns snippets newest first.
//
// Visibility: public snippets are always included; private ones only when
// opts.Viewer owns them. Language and Tag narrow the result when set; the
// tag filter looks inside the JSON array with SQLite's json_each.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{"(private = 0 OR added_by = ?)"}
	args := []any{opts.Viewer}

	if lang := strings.TrimSpace(opts.Language); lang != "" {
		where = append(where, "language = ?")
		args = append(args, lang)
	}
	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(snippets.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY added_on DESC, id DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	// Close before issuing the per-snippet like queries: an in-memory
	// database runs on a single connection.
	rows.Close()

	for i := range snippets {
		if snippets[i].LikedBy, err = db.likes(ctx, snippets[i].ID); err != nil {
			return nil, err
		}
	}

	return snippets, nil
}

// Update writes the mutable fields of snippet. ID, AddedBy and AddedOn are
// never touched; UpdatedOn is set to now.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedOn = time.Now().UTC()

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, value = ?, description = ?, language = ?, tags = ?,
		     source = ?, private = ?, updated_on = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Value,
		snippet.Description,
		snippet.Language,
		tags,
		snippet.Source,
		snippet.Private,
		snippet.UpdatedOn,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet; its like rows go with it (ON DELETE CASCADE).
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// AddLike inserts username into the like-set of snippet id.
//
// INSERT OR IGNORE against the (snippet_id, username) primary key makes the
// membership check and the write one statement: zero rows affected means
// the user had already liked the snippet.
func (db *DB) AddLike(ctx context.Context, id, username string) ([]string, error) {
	if err := db.ensureSnippet(ctx, id); err != nil {
		return nil, err
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO snippet_likes (snippet_id, username, liked_on)
		 VALUES (?, ?, ?)`,
		id, username, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: liking snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.AlreadyFavorited(id, username)
	}

	return db.likes(ctx, id)
}

// RemoveLike deletes username from the like-set of snippet id.
func (db *DB) RemoveLike(ctx context.Context, id, username string) ([]string, error) {
	if err := db.ensureSnippet(ctx, id); err != nil {
		return nil, err
	}

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippet_likes WHERE snippet_id = ? AND username = ?`,
		id, username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: unliking snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFavorited(id, username)
	}

	return db.likes(ctx, id)
}

func (db *DB) ensureSnippet(ctx context.Context, id string) error {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM snippets WHERE id = ?`, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return apperror.NotFound("snippet", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: looking up snippet %s: %w", id, err)
	}
	return nil
}

// likes returns the like-set of a snippet in the order the likes were added.
func (db *DB) likes(ctx context.Context, id string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username FROM snippet_likes WHERE snippet_id = ? ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes of %s: %w", id, err)
	}
	defer rows.Close()

	likedBy := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		likedBy = append(likedBy, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}

	return likedBy, nil
}
