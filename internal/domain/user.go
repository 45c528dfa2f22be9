package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeDriver    UserType = "DRIVER"
	UserTypePassenger UserType = "PASSENGER"
	UserTypeAdmin     UserType = "ADMIN"
)

func (t UserType) IsValid() bool {
	switch t {
	case UserTypeDriver, UserTypePassenger, UserTypeAdmin:
		return true
	}
	return false
}

// ParseUserType normalises input and falls back to DRIVER when empty.
func ParseUserType(raw string) (UserType, error) {
	if strings.TrimSpace(raw) == "" {
		return UserTypeDriver, nil
	}
	t := UserType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", ErrInvalidUserType
	}
	return t, nil
}

// ParseSignupUserType is ParseUserType for public sign-up, which may not
// create admins.
func ParseSignupUserType(raw string) (UserType, error) {
	t, err := ParseUserType(raw)
	if err != nil {
		return "", err
	}
	if t == UserTypeAdmin {
		return "", ErrAdminSignupDenied
	}
	return t, nil
}

// User is unique on email and phone among rows where deleted_at IS NULL.
// Those partial indexes live in the migrations, not in gorm tags.
type User struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Identity      string         `json:"identity" gorm:"not null"`
	Email         string         `json:"email" gorm:"not null"`
	PhoneNumber   string         `json:"phoneNumber" gorm:"not null"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	FullName      string         `json:"fullName"`
	PasswordHash  *string        `json:"-" gorm:"column:password"`
	IsVerified    bool           `json:"isVerified" gorm:"not null;default:false"`
	Status        bool           `json:"status" gorm:"not null;default:false"`
	ServiceStatus bool           `json:"serviceStatus" gorm:"not null;default:false"`
	UserType      UserType       `json:"userType" gorm:"not null;default:DRIVER"`
	AdditionInfo  datatypes.JSON `json:"additionInfo,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// IsDispatchable reports whether proximity search may return the user.
func (u *User) IsDispatchable() bool {
	return u.UserType == UserTypeDriver && u.Status && u.IsVerified && u.ServiceStatus && !u.DeletedAt.Valid
}

func JoinFullName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

// NormalizeEmail lowercases and trims so lookups and the unique index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

const SessionSourceAppsUser = "APPS_USER"

// Session is the server-side half of authentication. A signed token is
// only honoured while a session row with expire_at in the future exists.
type Session struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	SessionToken string    `json:"-" gorm:"not null;uniqueIndex"`
	ExpireAt     time.Time `json:"expireAt" gorm:"not null"`
	LoggerType   string    `json:"loggerType" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpireAt)
}
