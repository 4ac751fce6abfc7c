package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Account holds a registered (or pending) user of the ordering platform.
// Password is the bcrypt hash; it is empty for externally-authenticated
// accounts. OTP and OTPExpiresAt are always both set or both nil.
type Account struct {
	ID           primitive.ObjectID
	FullName     string
	Email        string
	Password     string
	Role         string
	AvatarURL    string
	AvatarID     string
	Contact      string
	Location     string
	IsVerified   bool
	OTP          *string
	OTPExpiresAt *time.Time
	// RefreshToken is the single live refresh token for this account.
	// Issuing a new one invalidates the previous (single active session).
	RefreshToken string
	OrderHistory []primitive.ObjectID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Redacted returns a copy safe to hand back to clients: credential and
// session fields are stripped.
func (a *Account) Redacted() *Account {
	c := *a
	c.Password = ""
	c.RefreshToken = ""
	c.OTP = nil
	c.OTPExpiresAt = nil
	return &c
}
