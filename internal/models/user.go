package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a user of the store.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role     string `json:"role" gorm:"type:varchar(20);default:customer"`

	// Email verification state. Checkout requires a verified email, so the
	// token lives on the user record rather than in a separate table.
	IsEmailVerified      bool       `json:"is_email_verified"`
	EmailVerifyToken     *string    `json:"-" gorm:"type:varchar(64);index"`
	EmailVerifyExpiresAt *time.Time `json:"-"`

	gorm.Model // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
