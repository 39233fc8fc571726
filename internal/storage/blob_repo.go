package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// BlobRepo stores blobs in SQLite. It implements the BlobStore interface.
// Every write gets a fresh random revision, so restoring earlier content
// never revives an old revision.
type BlobRepo struct {
	db *sql.DB
}

// NewBlobRepo creates a new BlobRepo.
func NewBlobRepo(db *sql.DB) *BlobRepo {
	return &BlobRepo{db: db}
}

// Get returns the blob stored under key.
// Returns nil and ErrNotFound if not found.
func (r *BlobRepo) Get(ctx context.Context, key string) (*Blob, error) {
	blob := Blob{Key: key}
	err := r.db.QueryRowContext(ctx,
		"SELECT content, revision FROM blobs WHERE key = ?",
		key,
	).Scan(&blob.Content, &blob.Revision)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blob: %w", err)
	}

	return &blob, nil
}

// Put writes content under key if revision matches the stored one.
// Both the create and the update are single statements, so two writers that
// observed the same revision cannot both succeed.
func (r *BlobRepo) Put(ctx context.Context, key string, content []byte, revision, message string) (string, error) {
	next := newRevision()

	var (
		res sql.Result
		err error
	)
	if revision == "" {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO blobs (key, content, revision, message, updated_at)
			 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (key) DO NOTHING`,
			key, content, next, message,
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE blobs SET content = ?, revision = ?, message = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE key = ? AND revision = ?`,
			content, next, message, key, revision,
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to check write result: %w", err)
	}
	if affected == 0 {
		return "", &ConflictError{
			Key:              key,
			ExpectedRevision: revision,
			CurrentRevision:  r.currentRevision(ctx, key),
		}
	}

	return next, nil
}

// currentRevision is best effort and only feeds error messages.
func (r *BlobRepo) currentRevision(ctx context.Context, key string) string {
	var rev string
	_ = r.db.QueryRowContext(ctx, "SELECT revision FROM blobs WHERE key = ?", key).Scan(&rev)
	return rev
}

// List returns the keys stored directly under dir.
func (r *BlobRepo) List(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.TrimSuffix(dir, "/") + "/"

	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM blobs WHERE key LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan blob key: %w", err)
		}
		// Only direct children, like a directory listing
		if strings.Contains(strings.TrimPrefix(key, prefix), "/") {
			continue
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(keys)
	return keys, nil
}

// Ping checks the database connection.
func (r *BlobRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func newRevision() string {
	return uuid.NewString()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
