package postgres

import (
	"context"
	"database/sql"

	"vodgate/internal/model"
	"vodgate/internal/repository"
)

// AccessPostgres is a PostgreSQL implementation of
// repository.ViewerAccessRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type AccessPostgres struct {
	db *sql.DB
}

// NewAccessPostgres creates a new AccessPostgres repository.
func NewAccessPostgres(db *sql.DB) *AccessPostgres {
	return &AccessPostgres{db: db}
}

var _ repository.ViewerAccessRepository = (*AccessPostgres)(nil)

// FindByEmail fetches the viewer's role and subscription state in one query.
// Role management is a separate table keyed by email; users without a managed
// role default to "viewer".
func (r *AccessPostgres) FindByEmail(ctx context.Context, email string) (*model.ViewerAccess, error) {
	const q = `
		SELECT u.email,
		       COALESCE(m.role, 'viewer'),
		       COALESCE(u.subscription_status, 'inactive'),
		       u.subscription_expiry
		FROM users u
		LEFT JOIN managed_roles m ON m.email = u.email
		WHERE u.email = $1
	`
	row := r.db.QueryRowContext(ctx, q, email)
	var (
		va     model.ViewerAccess
		expiry sql.NullTime
	)
	if err := row.Scan(
		&va.Email,
		&va.Role,
		&va.SubscriptionStatus,
		&expiry,
	); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		va.SubscriptionExpiry = &t
	}
	return &va, nil
}
