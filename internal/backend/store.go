/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"certstudio/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound marks a missing certificate id.
var ErrNotFound = errors.New("certificate not found")

// CertificateStore is the persistence surface the HTTP handlers use.
type CertificateStore interface {
	List(ctx context.Context) ([]domain.Certificate, error)
	Get(ctx context.Context, id int64) (*domain.Certificate, error)
	Create(ctx context.Context, c *domain.Certificate) (int64, error)
	Update(ctx context.Context, c *domain.Certificate) error
	Delete(ctx context.Context, id int64) error
}

// SQLStore is the Postgres-backed store.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const certColumns = `id, name, course_id, canvas_width, canvas_height, fabric_json_front, fabric_json_back, active`

func scanCertificate(row interface{ Scan(...any) error }) (*domain.Certificate, error) {
	var c domain.Certificate
	var back sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.CourseID, &c.CanvasWidth, &c.CanvasHeight, &c.FrontJSON, &back, &c.Active)
	if err != nil {
		return nil, err
	}
	if back.Valid {
		c.BackJSON = &back.String
	}
	return &c, nil
}

func (s *SQLStore) List(ctx context.Context) ([]domain.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+certColumns+` FROM certificates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()
	var out []domain.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*domain.Certificate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+certColumns+` FROM certificates WHERE id = $1`, id)
	c, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate %d: %w", id, err)
	}
	return c, nil
}

func (s *SQLStore) Create(ctx context.Context, c *domain.Certificate) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO certificates (name, course_id, canvas_width, canvas_height, fabric_json_front, fabric_json_back, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		c.Name, c.CourseID, c.CanvasWidth, c.CanvasHeight, c.FrontJSON, nullable(c.BackJSON), c.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create certificate: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Update(ctx context.Context, c *domain.Certificate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE certificates SET name = $1, course_id = $2, canvas_width = $3, canvas_height = $4,
		 fabric_json_front = $5, fabric_json_back = $6, active = $7, updated_at = now() WHERE id = $8`,
		c.Name, c.CourseID, c.CanvasWidth, c.CanvasHeight, c.FrontJSON, nullable(c.BackJSON), c.Active, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update certificate %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ApplyMigrations applies the embedded SQL migrations in filename order,
// tracking applied versions in schema_migrations.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

// parseVersion reads the numeric prefix of a migration filename, e.g.
// "0001_certificates.sql" -> 1.
func parseVersion(name string) (int64, error) {
	base := strings.TrimSuffix(name, ".sql")
	idx := strings.IndexByte(base, '_')
	if idx <= 0 {
		return 0, fmt.Errorf("migration %q lacks a numeric prefix", name)
	}
	v, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("migration %q: %w", name, err)
	}
	return v, nil
}
