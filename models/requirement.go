package models

import "time"

type RequirementStatus string

const (
	RequirementActive    RequirementStatus = "active"
	RequirementFulfilled RequirementStatus = "fulfilled"
	RequirementExpired   RequirementStatus = "expired"
	RequirementCancelled RequirementStatus = "cancelled"
)

// Budget is an inclusive INR range.
type Budget struct {
	Min float64 `bson:"min" json:"min" firestore:"min"`
	Max float64 `bson:"max" json:"max" firestore:"max"`
}

// Requirement is a buyer's "wanted" post.
type Requirement struct {
	ID               string            `bson:"id" json:"id" firestore:"id"`
	Title            string            `bson:"title" json:"title" firestore:"title"`
	Description      string            `bson:"description" json:"description" firestore:"description"`
	Category         string            `bson:"category" json:"category" firestore:"category"`
	Subcategory      string            `bson:"subcategory" json:"subcategory" firestore:"subcategory"`
	Budget           Budget            `bson:"budget" json:"budget" firestore:"budget"`
	Location         Location          `bson:"location" json:"location" firestore:"location"`
	UserID           string            `bson:"userId" json:"userId" firestore:"userId"`
	UserName         string            `bson:"userName" json:"userName" firestore:"userName"`
	UserPhone        string            `bson:"userPhone" json:"userPhone" firestore:"userPhone"`
	Status           RequirementStatus `bson:"status" json:"status" firestore:"status"`
	Moderation       string            `bson:"moderation" json:"moderation" firestore:"moderation"`
	ModerationReason string            `bson:"moderationReason,omitempty" json:"moderationReason,omitempty" firestore:"moderationReason,omitempty"`
	CreatedAt        time.Time         `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt        time.Time         `bson:"expiresAt" json:"expiresAt" firestore:"expiresAt"`
	Responses        int               `bson:"responses" json:"responses" firestore:"responses"`
}

// RequirementFilters narrows requirement queries. Zero values are ignored.
type RequirementFilters struct {
	Category    string            `form:"category" json:"category,omitempty"`
	Subcategory string            `form:"subcategory" json:"subcategory,omitempty"`
	MinBudget   float64           `form:"minBudget" json:"minBudget,omitempty"`
	MaxBudget   float64           `form:"maxBudget" json:"maxBudget,omitempty"`
	Query       string            `form:"q" json:"query,omitempty"`
	UserID      string            `form:"userId" json:"userId,omitempty"`
	Status      RequirementStatus `form:"status" json:"status,omitempty"`
	Moderation  string            `form:"moderation" json:"moderation,omitempty"`
	Near        *GeoFilter        `form:"-" json:"location,omitempty"`
}

// RequirementInput carries the buyer-editable fields of a requirement.
type RequirementInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Subcategory string   `json:"subcategory"`
	Budget      Budget   `json:"budget"`
	Location    Location `json:"location"`
	UserPhone   string   `json:"userPhone"`
}

// RequirementUpdate is a partial update; nil fields are left unchanged.
type RequirementUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Subcategory *string   `json:"subcategory,omitempty"`
	Budget      *Budget   `json:"budget,omitempty"`
	Location    *Location `json:"location,omitempty"`
	UserPhone   *string   `json:"userPhone,omitempty"`
}

// Apply copies the non-nil fields onto r.
func (u RequirementUpdate) Apply(r *Requirement) {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Subcategory != nil {
		r.Subcategory = *u.Subcategory
	}
	if u.Budget != nil {
		r.Budget = *u.Budget
	}
	if u.Location != nil {
		r.Location = *u.Location
	}
	if u.UserPhone != nil {
		r.UserPhone = *u.UserPhone
	}
}
