package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username         string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash     string    `gorm:"column:password_hash" json:"-"` // not shown in JSON
	Role             Role      `gorm:"type:varchar(16);default:'user';not null" json:"role"`
	IsSuperuser      bool      `gorm:"default:false;not null" json:"-"`
	ConfirmationCode *string   `gorm:"size:16" json:"-"` // reissued on every signup call
	FirstName        string    `gorm:"size:150" json:"first_name"`
	LastName         string    `gorm:"size:150" json:"last_name"`
	Bio              string    `gorm:"type:text" json:"bio"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

// IsStaff reports whether the user clears the admin gate: either the admin
// role or the superuser flag is sufficient everywhere admin access is checked.
func (user *User) IsStaff() bool {
	return user.Role == RoleAdmin || user.IsSuperuser
}

func (User) TableName() string {
	return "users"
}
