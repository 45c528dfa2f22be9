package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const OTPDigits = 6

// OneTimePasscode rows are never deleted. Consumed or superseded codes are
// only flipped to inactive.
type OneTimePasscode struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Code       string    `json:"-" gorm:"not null"`
	ExpireAt   time.Time `json:"expireAt" gorm:"not null"`
	Status     bool      `json:"status" gorm:"not null;default:true"`
	IsVerified bool      `json:"isVerified" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (OneTimePasscode) TableName() string {
	return "otps"
}

func (o *OneTimePasscode) IsUsable(now time.Time) bool {
	return o.Status && !o.IsVerified && now.Before(o.ExpireAt)
}

// NewOneTimePasscode draws a zero-padded numeric code from crypto/rand.
func NewOneTimePasscode(userID uuid.UUID, now time.Time, ttl time.Duration) (*OneTimePasscode, error) {
	code, err := GenerateOTPCode(OTPDigits)
	if err != nil {
		return nil, err
	}
	return &OneTimePasscode{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		ExpireAt:  now.Add(ttl),
		Status:    true,
		CreatedAt: now,
	}, nil
}

func GenerateOTPCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
