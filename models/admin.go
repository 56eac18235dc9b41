package models

import "time"

// AdminStats is the dashboard summary.
type AdminStats struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalListings     int     `json:"totalListings"`
	TotalRequirements int     `json:"totalRequirements"`
	TotalPayments     int     `json:"totalPayments"`
	Revenue           float64 `json:"revenue"`
	ActiveUsers       int     `json:"activeUsers"` // logged in during the last 30 days
	PendingApprovals  int     `json:"pendingApprovals"`
}

// Moderation actions.
const (
	ActionApprove   = "approve"
	ActionReject    = "reject"
	ActionSuspend   = "suspend"
	ActionReinstate = "reinstate"
	ActionRole      = "role"
)

// ModerationAction is one entry of the moderation history.
type ModerationAction struct {
	ID          string    `bson:"id" json:"id"`
	EntityType  string    `bson:"entityType" json:"entityType"` // listing, requirement or user
	EntityID    string    `bson:"entityId" json:"entityId"`
	Action      string    `bson:"action" json:"action"`
	Reason      string    `bson:"reason,omitempty" json:"reason,omitempty"`
	ModeratorID string    `bson:"moderatorId" json:"moderatorId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// ModerationDecision is the admin's verdict on a listing or requirement.
type ModerationDecision struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Reason string `json:"reason,omitempty"`
}

// Policy audiences.
const (
	AudienceAll   = "all"
	AudienceAdmin = "admin"
)

// PolicySection is one published marketplace policy.
type PolicySection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Audience string `json:"audience"`
	Version  string `json:"version"`
	Updated  string `json:"updated"`
}

// HistoryFilters narrows the moderation history.
type HistoryFilters struct {
	EntityType string `form:"entityType" json:"entityType,omitempty"`
	EntityID   string `form:"entityId" json:"entityId,omitempty"`
}

// RoleChange is an admin request to change a user's role.
type RoleChange struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// SuspensionChange suspends or reinstates a user.
type SuspensionChange struct {
	Suspended bool   `json:"suspended"`
	Reason    string `json:"reason,omitempty"`
}
