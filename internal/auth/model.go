package auth

import "time"

// User is the account record returned by /login, /register and /profile.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	ReferralCode    string     `json:"referral_code,omitempty"`
	KYCStatus       string     `json:"kyc_status,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// LoginResult is the payload of /login and /register. When the backend asks
// for step-up verification only OTPRequired is set and no token is issued.
type LoginResult struct {
	Token       string `json:"token,omitempty"`
	User        *User  `json:"user,omitempty"`
	OTPRequired bool   `json:"otp_required,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}
