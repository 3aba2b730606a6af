package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CredentialRow represents a credential and its autofill targets as stored.
type CredentialRow struct {
	ID           int64
	Title        string
	Username     string
	Websites     []string
	PackageNames []string
	CreatedAt    string
	UpdatedAt    string
}

// InsertCredential stores a credential with its websites (in order) and
// package names, returning the new row ID.
func InsertCredential(ctx context.Context, d *DB, row CredentialRow) (int64, error) {
	if d == nil || d.sql == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO credentials (title, username) VALUES (?, ?)`,
		row.Title, row.Username,
	)
	if err != nil {
		return 0, fmt.Errorf("insert credential: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fetch insert id: %w", err)
	}

	for pos, website := range row.Websites {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credential_websites (credential_id, position, website) VALUES (?, ?, ?)`,
			id, pos, website,
		); err != nil {
			return 0, fmt.Errorf("insert website: %w", err)
		}
	}
	for _, pkg := range row.PackageNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO credential_packages (credential_id, package_name) VALUES (?, ?)`,
			id, pkg,
		); err != nil {
			return 0, fmt.Errorf("insert package name: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// ListCredentials returns every credential ordered by ID, with websites in
// their saved order.
func ListCredentials(ctx context.Context, d *DB) ([]CredentialRow, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, username, created_at, updated_at FROM credentials ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select credentials: %w", err)
	}
	defer rows.Close()

	var results []CredentialRow
	index := make(map[int64]int)
	for rows.Next() {
		var r CredentialRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Username, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}

	err = eachPair(ctx, d,
		`SELECT credential_id, website FROM credential_websites ORDER BY credential_id, position`,
		func(id int64, website string) {
			if i, ok := index[id]; ok {
				results[i].Websites = append(results[i].Websites, website)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("load websites: %w", err)
	}

	err = eachPair(ctx, d,
		`SELECT credential_id, package_name FROM credential_packages ORDER BY credential_id, package_name`,
		func(id int64, pkg string) {
			if i, ok := index[id]; ok {
				results[i].PackageNames = append(results[i].PackageNames, pkg)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("load package names: %w", err)
	}

	return results, nil
}

// GetCredential returns a single credential by ID.
// It returns sql.ErrNoRows when the credential does not exist.
func GetCredential(ctx context.Context, d *DB, id int64) (*CredentialRow, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	var r CredentialRow
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, title, username, created_at, updated_at FROM credentials WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Title, &r.Username, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}

	err = eachPair(ctx, d,
		`SELECT credential_id, website FROM credential_websites WHERE credential_id = ? ORDER BY position`,
		func(_ int64, website string) { r.Websites = append(r.Websites, website) },
		id)
	if err != nil {
		return nil, fmt.Errorf("load websites: %w", err)
	}
	err = eachPair(ctx, d,
		`SELECT credential_id, package_name FROM credential_packages WHERE credential_id = ? ORDER BY package_name`,
		func(_ int64, pkg string) { r.PackageNames = append(r.PackageNames, pkg) },
		id)
	if err != nil {
		return nil, fmt.Errorf("load package names: %w", err)
	}

	return &r, nil
}

// DeleteCredential removes a credential and its autofill targets.
// It returns sql.ErrNoRows if nothing was deleted.
func DeleteCredential(ctx context.Context, d *DB, id int64) error {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM credential_websites WHERE credential_id = ?`,
		`DELETE FROM credential_packages WHERE credential_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete credential targets: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// eachPair runs query and hands every (id, text) row to fn.
func eachPair(ctx context.Context, d *DB, query string, fn func(int64, string), args ...any) error {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			value string
		)
		if err := rows.Scan(&id, &value); err != nil {
			return err
		}
		fn(id, value)
	}
	return rows.Err()
}
