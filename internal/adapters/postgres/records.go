package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"clearance/internal/ports"
	"clearance/internal/rawtree"
)

// Raw submission documents live in submission_documents as jsonb. The row's
// created_at is exposed to the normalizer as _store.createdAt.

// List returns the newest records first. limit <= 0 means no limit.
func (db *DB) List(ctx context.Context, limit int) ([]ports.Record, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT key, body, created_at
		FROM submission_documents
		ORDER BY created_at DESC, key
		LIMIT $1
	`, lim)
	if err != nil {
		return nil, upstream("list records", err)
	}
	defer rows.Close()

	var out []ports.Record
	for rows.Next() {
		var key string
		var body []byte
		var created time.Time
		if err := rows.Scan(&key, &body, &created); err != nil {
			return nil, upstream("scan record", err)
		}
		out = append(out, decodeRecord(key, body, created))
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("list records", err)
	}
	return out, nil
}

func (db *DB) Get(ctx context.Context, key string) (ports.Record, error) {
	var body []byte
	var created time.Time
	err := db.Pool.QueryRow(ctx, `
		SELECT body, created_at FROM submission_documents WHERE key = $1
	`, strings.TrimSpace(key)).Scan(&body, &created)
	if err != nil {
		return ports.Record{}, upstream("get record", err)
	}
	return decodeRecord(key, body, created), nil
}

// Put upserts records in one transaction. Records without a key are
// skipped.
func (db *DB) Put(ctx context.Context, records []ports.Record) (n int, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, upstream("begin import", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = upstream("commit import", tx.Commit(ctx))
		}
	}()

	batch := &pgx.Batch{}
	for _, r := range records {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			continue
		}
		body, merr := r.Body.MarshalJSON()
		if merr != nil {
			return 0, merr
		}
		batch.Queue(`
			INSERT INTO submission_documents (key, body)
			VALUES ($1, $2::jsonb)
			ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
		`, key, string(body))
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, upstream("import records", err)
	}
	return n, nil
}

// decodeRecord never fails: an undecodable body becomes an empty object and
// normalizes to defaults.
func decodeRecord(key string, body []byte, created time.Time) ports.Record {
	tree, err := rawtree.Parse(body)
	if err != nil || tree.Kind() != rawtree.KindObject {
		tree = rawtree.Object(nil)
	}
	meta := rawtree.Object(map[string]rawtree.Value{"createdAt": rawtree.Time(created)})
	return ports.Record{Key: key, Body: tree.With("_store", meta)}
}
