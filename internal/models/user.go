package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Phone     string    `gorm:"size:32" json:"-"`
	AvatarURL string    `json:"avatar_url"`
	Country   string    `gorm:"size:64" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the public view of a user attached to posts and comments.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Profile() *Profile {
	if u == nil {
		return nil
	}
	p := &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Country:   u.Country,
		CreatedAt: u.CreatedAt,
	}
	if u.AvatarURL != "" {
		avatar := u.AvatarURL
		p.AvatarURL = &avatar
	}
	return p
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url"`
	Country   *string `json:"country"`
	Phone     *string `json:"phone"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}

// NewID returns a time-ordered UUID so that sorting by ID follows
// insertion order within a process.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
