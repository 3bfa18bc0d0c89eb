// Package models contains data structures for the application's domain models.
package models

import "time"

// Profile is a registered user. Solar providers are profiles with IsSolarProvider set.
type Profile struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	Name              string     `gorm:"size:120" json:"name"`
	Phone             string     `gorm:"size:32" json:"phone"`
	IsSolarProvider   bool       `gorm:"not null;default:false" json:"is_solar_provider"`
	EmailConfirmedAt  *time.Time `json:"email_confirmed_at,omitempty"`
	ConfirmationToken *string    `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// Confirmed reports whether the profile finished email confirmation.
func (p *Profile) Confirmed() bool {
	return p.EmailConfirmedAt != nil
}

// Session is the immutable current-user snapshot handed to clients.
type Session struct {
	UserID          uint   `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	IsSolarProvider bool   `json:"is_solar_provider"`
}

// SessionOf builds the session snapshot for p.
func SessionOf(p *Profile) Session {
	return Session{
		UserID:          p.ID,
		Email:           p.Email,
		Name:            p.Name,
		Phone:           p.Phone,
		IsSolarProvider: p.IsSolarProvider,
	}
}
