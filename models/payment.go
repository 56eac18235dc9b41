package models

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

type PaymentType string

const (
	PaymentListingFee    PaymentType = "listing_fee"
	PaymentContactPass   PaymentType = "contact_pass"
	PaymentContactsAddon PaymentType = "contacts_addon"
	PaymentRefund        PaymentType = "refund"
)

const (
	EntityListing     = "listing"
	EntityRequirement = "requirement"
	EntityUser        = "user"
)

// Payment methods offered at checkout.
var PaymentMethods = []string{"card", "upi", "netbanking", "wallet"}

// Payment is one charge, whichever gateway handled it. GrantedAt is set once
// the purchased entitlement has been applied. Version increments on every
// save and ledgers reject writes carrying a stale one.
type Payment struct {
	ID                   string        `bson:"id" json:"id"`
	Amount               float64       `bson:"amount" json:"amount"` // INR
	Currency             string        `bson:"currency" json:"currency"`
	Status               PaymentStatus `bson:"status" json:"status"`
	Type                 PaymentType   `bson:"type" json:"type"`
	EntityID             string        `bson:"entityId" json:"entityId"`
	EntityType           string        `bson:"entityType" json:"entityType"`
	UserID               string        `bson:"userId" json:"userId"`
	Provider             string        `bson:"provider" json:"provider"` // gateway that created the payment
	PaymentMethod        string        `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	TransactionID        string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	GatewayOrderID       string        `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayTransactionID string        `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`
	ClientSecret         string        `bson:"-" json:"clientSecret,omitempty"`
	CreatedAt            time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time     `bson:"updatedAt" json:"updatedAt"`
	CompletedAt          *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	RefundedAt           *time.Time    `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
	FailureReason        string        `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	RefundReason         string        `bson:"refundReason,omitempty" json:"refundReason,omitempty"`
	GrantedAt            *time.Time    `bson:"grantedAt,omitempty" json:"grantedAt,omitempty"`
	Version              int64         `bson:"version" json:"-"`
}

// PaymentFilters narrows payment queries. Zero values are ignored.
type PaymentFilters struct {
	UserID   string        `form:"userId" json:"userId,omitempty"`
	Status   PaymentStatus `form:"status" json:"status,omitempty"`
	Type     PaymentType   `form:"type" json:"type,omitempty"`
	EntityID string        `form:"entityId" json:"entityId,omitempty"`
	DateFrom *time.Time    `form:"dateFrom" time_format:"2006-01-02" json:"dateFrom,omitempty"`
	DateTo   *time.Time    `form:"dateTo" time_format:"2006-01-02" json:"dateTo,omitempty"`
}

// CreatePaymentData opens a payment.
type CreatePaymentData struct {
	Amount        float64     `json:"amount" binding:"gt=0"`
	Type          PaymentType `json:"type" binding:"required"`
	EntityID      string      `json:"entityId" binding:"required"`
	EntityType    string      `json:"entityType" binding:"required"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	UserID        string      `json:"-"`
}

// PaymentProof is what the client returns after checkout. Mock payments only
// need the method; gateways also send their payment id and signature.
type PaymentProof struct {
	Method           string `json:"paymentMethod" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId,omitempty"`
	Signature        string `json:"signature,omitempty"`
}
