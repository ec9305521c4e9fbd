package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAccessPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAccessPostgres(db)
	ctx := context.Background()

	cols := []string{"email", "role", "subscription_status", "subscription_expiry"}

	t.Run("subscriber with expiry", func(t *testing.T) {
		expiry := time.Now().Add(30 * 24 * time.Hour).UTC()
		rows := sqlmock.NewRows(cols).
			AddRow("viewer@example.com", "viewer", "active", expiry)

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("viewer@example.com").
			WillReturnRows(rows)

		va, err := repo.FindByEmail(ctx, "viewer@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "viewer@example.com", va.Email)
		assert.Equal(t, "viewer", va.Role)
		assert.Equal(t, "active", va.SubscriptionStatus)
		assert.NotNil(t, va.SubscriptionExpiry)
		assert.True(t, expiry.Equal(*va.SubscriptionExpiry))
	})

	t.Run("admin without subscription", func(t *testing.T) {
		rows := sqlmock.NewRows(cols).
			AddRow("admin@example.com", "admin", "inactive", nil)

		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("admin@example.com").
			WillReturnRows(rows)

		va, err := repo.FindByEmail(ctx, "admin@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "admin", va.Role)
		assert.Equal(t, "inactive", va.SubscriptionStatus)
		assert.Nil(t, va.SubscriptionExpiry)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users u").
			WithArgs("missing@example.com").
			WillReturnError(sql.ErrNoRows)

		va, err := repo.FindByEmail(ctx, "missing@example.com")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, va)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
