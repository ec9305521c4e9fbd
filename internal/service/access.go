package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vodgate/internal/media"
	"vodgate/internal/model"
	"vodgate/internal/repository"
)

// AccessService evaluates the authorization policy for asset requests.
//
// Every evaluation is performed fresh: subscription activation (payment
// webhook) or expiry can happen between two requests from the same user, so
// no decision is memoized beyond the single request that asked for it.
type AccessService interface {
	// Evaluate decides whether the identity may access the given category.
	// A nil identity is an anonymous request. The returned error is non-nil
	// only for infrastructure failures (DB down), never for policy denials.
	Evaluate(ctx context.Context, category media.Category, ident *model.Identity) (model.AccessDecision, error)

	// CanWatch reports whether the identity may watch gated video content.
	CanWatch(ctx context.Context, ident *model.Identity) (bool, error)
}

// accessService is a concrete implementation of AccessService.
type accessService struct {
	repo repository.ViewerAccessRepository
}

// NewAccessService constructs a new AccessService.
func NewAccessService(repo repository.ViewerAccessRepository) AccessService {
	return &accessService{repo: repo}
}

func (s *accessService) Evaluate(ctx context.Context, category media.Category, ident *model.Identity) (model.AccessDecision, error) {
	// Posters are browsable by everyone, including anonymous visitors. The
	// identity is deliberately ignored so an expired subscriber still sees
	// cover art.
	if category.Public() {
		return model.AccessDecision{Allowed: true, Reason: model.ReasonPublic}, nil
	}

	if ident == nil || ident.Email == "" {
		return model.AccessDecision{Allowed: false, Reason: model.ReasonUnauthenticated}, nil
	}

	va, err := s.repo.FindByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Valid token but no user row (account removed after the token
			// was issued): treat as a viewer without a subscription.
			return model.AccessDecision{Allowed: false, Reason: model.ReasonSubscriptionRequired}, nil
		}
		return model.AccessDecision{}, fmt.Errorf("lookup viewer access for %s: %w", ident.Email, err)
	}

	if va.Privileged() {
		return model.AccessDecision{Allowed: true, Reason: model.ReasonRoleBypass}, nil
	}
	if va.SubscriptionActiveAt(time.Now()) {
		return model.AccessDecision{Allowed: true, Reason: model.ReasonActiveSubscription}, nil
	}
	return model.AccessDecision{Allowed: false, Reason: model.ReasonSubscriptionRequired}, nil
}

// CanWatch applies the video policy for the identity.
func (s *accessService) CanWatch(ctx context.Context, ident *model.Identity) (bool, error) {
	decision, err := s.Evaluate(ctx, media.CategoryVideos, ident)
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}
