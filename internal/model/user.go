package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents an account that can sign in and own projects
type User struct {
	ID           string                      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username     string                      `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string                      `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string                      `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string                      `json:"first_name" gorm:"type:varchar(50)"`
	LastName     string                      `json:"last_name" gorm:"type:varchar(50)"`
	Role         string                      `json:"role" gorm:"type:varchar(50);not null;default:'analyst'"`
	Permissions  datatypes.JSONSlice[string] `json:"permissions"`
	IsActive     bool                        `json:"is_active" gorm:"not null"`
	IsSuperuser  bool                        `json:"is_superuser" gorm:"not null"`
	LastLogin    *time.Time                  `json:"last_login"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Permissions == nil {
		u.Permissions = datatypes.JSONSlice[string]{}
	}
	return nil
}

// FullName is "first last" when both parts are set, the username otherwise
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
