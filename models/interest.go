package models

import "time"

// Interest is a buyer's message to a listing owner. Message is stored as
// written; what the owner sees depends on their entitlements.
type Interest struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listingId"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderPhone string    `json:"senderPhone,omitempty"`
	SenderEmail string    `json:"senderEmail,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InterestView is an interest as presented to the listing owner.
type InterestView struct {
	ID             string    `json:"id"`
	ListingID      string    `json:"listingId"`
	SenderName     string    `json:"senderName"`
	SenderPhone    string    `json:"senderPhone,omitempty"`
	SenderEmail    string    `json:"senderEmail,omitempty"`
	Message        string    `json:"message"`
	HasRedactions  bool      `json:"hasRedactions"`
	ContactsHidden bool      `json:"contactsHidden"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Question is a public question on a listing, stored already redacted.
type Question struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listingId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Redacted   bool      `json:"redacted"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListingView is a listing as presented to a particular viewer.
type ListingView struct {
	Listing
	ContactsHidden bool `json:"contactsHidden"`
	HasRedactions  bool `json:"hasRedactions"`
}
