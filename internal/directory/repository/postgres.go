package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"devicetrail/internal/directory/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a directory repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDomainNames returns name rows for the given domain ids. Unknown ids are omitted.
func (r *PostgresRepository) GetDomainNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
	return r.namesIn(ctx, "domains", ids)
}

// GetUserNames returns name rows for the given user ids. Unknown ids are omitted.
func (r *PostgresRepository) GetUserNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error) {
	return r.namesIn(ctx, "users", ids)
}

func (r *PostgresRepository) namesIn(ctx context.Context, table string, ids []string) ([]domain.NamedEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT id, name FROM %s WHERE id IN (%s)", table, placeholders(1, len(ids)))
	rows, err := r.db.QueryContext(ctx, q, toAny(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NamedEntity
	for rows.Next() {
		var e domain.NamedEntity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDomainIDs returns every known domain id.
func (r *PostgresRepository) ListDomainIDs(ctx context.Context) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM domains`)
}

// ListUserIDs returns every known user id.
func (r *PostgresRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM users`)
}

// ListUserIDsByDomain returns ids of users belonging to the given domain.
func (r *PostgresRepository) ListUserIDsByDomain(ctx context.Context, domainID string) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM users WHERE domain_id = $1`, domainID)
}

func (r *PostgresRepository) idList(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// placeholders renders "$start, $start+1, ..." for n parameters.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
