// Package db persists the authenticated twitter session (its cookies)
// so a restarted worker can skip the login flow.
package db

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// SaveCookies replaces the stored session with the given cookies.
func (s Store) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM cookies")
	if err != nil {
		return err
	}
	for _, c := range cookies {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO cookies (name, value, domain, path, expires)
			 VALUES (?, ?, ?, ?, ?)`,
			c.Name, c.Value, c.Domain, c.Path, c.Expires.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCookies returns the stored session cookies, skipping expired
// ones. An empty store is not an error.
func (s Store) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT name, value, domain, path, expires FROM cookies",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*http.Cookie
	now := time.Now()
	for rows.Next() {
		var c http.Cookie
		var expires int64
		err = rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires)
		if err != nil {
			return nil, err
		}
		c.Expires = time.Unix(expires, 0)
		if expires > 0 && c.Expires.Before(now) {
			continue
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
