package model

// Package model contains domain models/data structures shared across layers.
// No business logic here beyond trivial derived accessors.

import "time"

// Identity is an authenticated caller as resolved from the session token.
// A nil *Identity means the request is anonymous.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// Viewer roles. Admin and editor are privileged staff roles that bypass the
// subscription check so unpublished/gated content can be previewed.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// SubscriptionActive is the stored state value for a paid-up subscription.
// Any other value (or an empty one) is inactive.
const SubscriptionActive = "active"

// ViewerAccess is a point-in-time read of a viewer's role and subscription
// state. Rows behind it are mutated externally by the payment webhook, so a
// ViewerAccess is valid only for the request that fetched it.
type ViewerAccess struct {
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
}

// Privileged reports whether the role bypasses the subscription requirement.
func (v *ViewerAccess) Privileged() bool {
	return v.Role == RoleAdmin || v.Role == RoleEditor
}

// SubscriptionActiveAt reports whether the subscription grants watch access at
// the given instant. The stored "active" flag alone is not enough: an expiry
// in the past makes the record inactive regardless of what the webhook wrote.
func (v *ViewerAccess) SubscriptionActiveAt(now time.Time) bool {
	if v.SubscriptionStatus != SubscriptionActive {
		return false
	}
	return v.SubscriptionExpiry != nil && v.SubscriptionExpiry.After(now)
}

// AccessReason tags why an access decision came out the way it did. Callers
// branch on this closed set instead of re-deriving policy.
type AccessReason string

const (
	ReasonPublic               AccessReason = "public"
	ReasonRoleBypass           AccessReason = "role_bypass"
	ReasonActiveSubscription   AccessReason = "active_subscription"
	ReasonUnauthenticated      AccessReason = "unauthenticated"
	ReasonSubscriptionRequired AccessReason = "subscription_required"
)

// AccessDecision is the outcome of evaluating the authorization policy for a
// single request. Decisions are computed fresh per request and never cached:
// subscription state can change between requests via the payment webhook.
type AccessDecision struct {
	Allowed bool         `json:"allowed"`
	Reason  AccessReason `json:"reason"`
}
