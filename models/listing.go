package models

import "time"

type ListingStatus string

const (
	ListingDraft          ListingStatus = "draft"
	ListingPendingPayment ListingStatus = "pending_payment"
	ListingActive         ListingStatus = "active"
	ListingSold           ListingStatus = "sold"
	ListingExpired        ListingStatus = "expired"
	ListingRejected       ListingStatus = "rejected"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Moderation states shared by listings and requirements.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// Location is a postal address with coordinates.
type Location struct {
	Lat     float64 `bson:"lat" json:"lat" firestore:"lat"`
	Lng     float64 `bson:"lng" json:"lng" firestore:"lng"`
	Address string  `bson:"address" json:"address" firestore:"address"`
	City    string  `bson:"city" json:"city" firestore:"city"`
	State   string  `bson:"state" json:"state" firestore:"state"`
	Pincode string  `bson:"pincode" json:"pincode" firestore:"pincode"`
	Geohash string  `bson:"geohash,omitempty" json:"geohash,omitempty" firestore:"geohash,omitempty"`
}

// Listing is an item offered for sale.
type Listing struct {
	ID               string        `bson:"id" json:"id" firestore:"id"`
	Title            string        `bson:"title" json:"title" firestore:"title"`
	Description      string        `bson:"description" json:"description" firestore:"description"`
	Price            float64       `bson:"price" json:"price" firestore:"price"` // INR
	Category         string        `bson:"category" json:"category" firestore:"category"`
	Subcategory      string        `bson:"subcategory" json:"subcategory" firestore:"subcategory"`
	Images           []string      `bson:"images" json:"images" firestore:"images"`
	Location         Location      `bson:"location" json:"location" firestore:"location"`
	SellerID         string        `bson:"sellerId" json:"sellerId" firestore:"sellerId"`
	SellerName       string        `bson:"sellerName" json:"sellerName" firestore:"sellerName"`
	SellerPhone      string        `bson:"sellerPhone" json:"sellerPhone" firestore:"sellerPhone"`
	Status           ListingStatus `bson:"status" json:"status" firestore:"status"`
	PaymentStatus    string        `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty" firestore:"paymentStatus,omitempty"`
	Moderation       string        `bson:"moderation" json:"moderation" firestore:"moderation"`
	ModerationReason string        `bson:"moderationReason,omitempty" json:"moderationReason,omitempty" firestore:"moderationReason,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt        *time.Time    `bson:"expiresAt,omitempty" json:"expiresAt,omitempty" firestore:"expiresAt,omitempty"`
	Views            int           `bson:"views" json:"views" firestore:"views"`
	Favorites        int           `bson:"favorites" json:"favorites" firestore:"favorites"`
}

// GeoFilter restricts a query to a radius around a point.
type GeoFilter struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius"`
}

// ListingFilters narrows listing queries. Zero values are ignored.
type ListingFilters struct {
	Category    string        `form:"category" json:"category,omitempty"`
	Subcategory string        `form:"subcategory" json:"subcategory,omitempty"`
	MinPrice    float64       `form:"minPrice" json:"minPrice,omitempty"`
	MaxPrice    float64       `form:"maxPrice" json:"maxPrice,omitempty"`
	Query       string        `form:"q" json:"query,omitempty"`
	SellerID    string        `form:"sellerId" json:"sellerId,omitempty"`
	Status      ListingStatus `form:"status" json:"status,omitempty"`
	Moderation  string        `form:"moderation" json:"moderation,omitempty"`
	Near        *GeoFilter    `form:"-" json:"location,omitempty"`
}

// ListingInput carries the seller-editable fields of a listing.
type ListingInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"gte=0"`
	Category    string   `json:"category" binding:"required"`
	Subcategory string   `json:"subcategory"`
	Images      []string `json:"images"`
	Location    Location `json:"location"`
	SellerPhone string   `json:"sellerPhone"`
}

// ListingUpdate is a partial update; nil fields are left unchanged.
type ListingUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Subcategory *string   `json:"subcategory,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Location    *Location `json:"location,omitempty"`
	SellerPhone *string   `json:"sellerPhone,omitempty"`
}

// Apply copies the non-nil fields onto l.
func (u ListingUpdate) Apply(l *Listing) {
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Description != nil {
		l.Description = *u.Description
	}
	if u.Price != nil {
		l.Price = *u.Price
	}
	if u.Category != nil {
		l.Category = *u.Category
	}
	if u.Subcategory != nil {
		l.Subcategory = *u.Subcategory
	}
	if u.Images != nil {
		l.Images = append([]string(nil), (*u.Images)...)
	}
	if u.Location != nil {
		l.Location = *u.Location
	}
	if u.SellerPhone != nil {
		l.SellerPhone = *u.SellerPhone
	}
}

// Category is a node of the listing taxonomy.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
