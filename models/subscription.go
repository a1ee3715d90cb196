package models

// SubscriptionStatus represents the lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionNone      SubscriptionStatus = "none"
)

// SubscriptionAccess is the resolved subscription access info for an actor or
// tenant. It is produced by the subscription resolver and replaced atomically,
// never partially updated.
type SubscriptionAccess struct {
	HasAccess       bool               `json:"has_access"`
	Status          SubscriptionStatus `json:"status"`
	IsExpired       bool               `json:"is_expired"`
	IsExpiringSoon  bool               `json:"is_expiring_soon"`
	DaysUntilExpiry *int               `json:"days_until_expiry,omitempty"`
}

// NeedsRenewalAttention reports whether the plan is expired or close to expiry
// while access still holds (the "soft nudge" condition)
func (s SubscriptionAccess) NeedsRenewalAttention() bool {
	return s.HasAccess && (s.IsExpired || s.IsExpiringSoon)
}

// FullAccess returns a synthetic always-active result. Used by the resolver's
// master-role short circuit when no backing subscription exists.
func FullAccess() SubscriptionAccess {
	return SubscriptionAccess{
		HasAccess: true,
		Status:    SubscriptionActive,
	}
}
