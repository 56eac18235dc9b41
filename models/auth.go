package models

// Credentials is an email/password login.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignupData registers a new account.
type SignupData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone,omitempty"`
}

// OTPVerification confirms a phone number for the signed-in user.
type OTPVerification struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// AuthResult is returned by every flow that issues a session token.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// OTPStatus is returned by SendOTP.
type OTPStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
