package model

import (
	"strings"
	"time"
)

// Session is the authenticated state of one dashboard user. The three
// persisted values mirror what the browser client used to keep in local
// storage: the bearer token, the role and the identifier the user logged in with.
type Session struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"column:session_id;type:varchar(64);uniqueIndex;not null"`
	Token     string    `json:"-" gorm:"column:token;type:text;not null"`
	Role      string    `json:"role" gorm:"column:role;type:varchar(64)"`
	Email     string    `json:"email" gorm:"column:email;type:varchar(191)"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin reports whether the session belongs to an administrator. It only
// drives what the dashboard renders; the remote API enforces permissions.
func (s *Session) IsAdmin() bool {
	if s == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Role), RoleAdmin)
}

// Authenticated reports whether the session carries a bearer token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Label is the user-identifying text shown in the dashboard header.
func (s *Session) Label() string {
	if s == nil {
		return ""
	}
	if s.Email != "" {
		return s.Email
	}
	return "user"
}
