package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

import (
	"context"

	"vodgate/internal/model"
)

// ViewerAccessRepository reads a viewer's role and subscription state using
// SQL queries only. No business logic here, strictly persistence operations.
//
// The rows behind it are written by external collaborators (the payment
// webhook, the role management UI), so implementations must hit the database
// on every call and never cache results across requests.
type ViewerAccessRepository interface {
	// FindByEmail returns the viewer's access record. If the user row does not
	// exist it returns sql.ErrNoRows; the caller decides what that means.
	FindByEmail(ctx context.Context, email string) (*model.ViewerAccess, error)
}
