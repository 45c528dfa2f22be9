package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserInfo holds demographic and KYC attributes, one row per user.
type UserInfo struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID      `json:"userId" gorm:"type:uuid;not null;uniqueIndex"`
	Gender           string         `json:"gender,omitempty"`
	BirthDate        *time.Time     `json:"birthDate,omitempty" gorm:"type:date"`
	Picture          string         `json:"picture,omitempty"`
	ResidenceAddress string         `json:"residenceAddress,omitempty"`
	Occupation       string         `json:"occupation,omitempty"`
	Designation      string         `json:"designation,omitempty"`
	NID              string         `json:"nid,omitempty" gorm:"column:nid"`
	ReferralID       string         `json:"referralId,omitempty"`
	TIN              string         `json:"tin,omitempty" gorm:"column:tin"`
	ApproveTerms     bool           `json:"approveTerms"`
	ApprovePrivacy   bool           `json:"approvePrivacy"`
	Status           bool           `json:"status"`
	AdditionInfo     datatypes.JSON `json:"additionInfo,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	User *UserSummary `json:"user,omitempty" gorm:"-"`
}

// UserSummary is the slice of a user embedded in admin listings.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	UserType  UserType  `json:"userType"`
}

func SummarizeUser(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName,
		UserType:  u.UserType,
	}
}

type AddressType string

const (
	AddressTypeHome   AddressType = "HOME"
	AddressTypeWork   AddressType = "WORK"
	AddressTypeOther  AddressType = "OTHER"
	DefaultAddressType            = AddressTypeHome
)

func ParseAddressType(raw string) (AddressType, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultAddressType, nil
	}
	t := AddressType(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case AddressTypeHome, AddressTypeWork, AddressTypeOther:
		return t, nil
	}
	return "", ErrInvalidAddressType
}

// UserAddress is unique on (user_id, address_type).
type UserAddress struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID      `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_user_addresses_user_type"`
	AddressType  AddressType    `json:"addressType" gorm:"not null;uniqueIndex:idx_user_addresses_user_type"`
	Street       string         `json:"street,omitempty"`
	City         string         `json:"city,omitempty"`
	State        string         `json:"state,omitempty"`
	Zip          string         `json:"zip,omitempty"`
	Country      string         `json:"country,omitempty"`
	Status       bool           `json:"status"`
	AdditionInfo datatypes.JSON `json:"additionInfo,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	User *UserSummary `json:"user,omitempty" gorm:"-"`
}
