package domain

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserType(t *testing.T) {
	tests := []struct {
		raw     string
		want    UserType
		wantErr bool
	}{
		{"", UserTypeDriver, false},
		{"  ", UserTypeDriver, false},
		{"passenger", UserTypePassenger, false},
		{" Admin ", UserTypeAdmin, false},
		{"pilot", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseUserType(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUserType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignupUserType(t *testing.T) {
	got, err := ParseSignupUserType("passenger")
	require.NoError(t, err)
	assert.Equal(t, UserTypePassenger, got)

	got, err = ParseSignupUserType("")
	require.NoError(t, err)
	assert.Equal(t, UserTypeDriver, got)

	for _, raw := range []string{"ADMIN", " admin "} {
		_, err = ParseSignupUserType(raw)
		assert.ErrorIs(t, err, ErrAdminSignupDenied)
		assert.Equal(t, CodeValidation, CodeOf(err))
	}

	_, err = ParseSignupUserType("pilot")
	assert.ErrorIs(t, err, ErrInvalidUserType)
}

func TestParseAddressType(t *testing.T) {
	got, err := ParseAddressType("")
	require.NoError(t, err)
	assert.Equal(t, AddressTypeHome, got)

	got, err = ParseAddressType("work")
	require.NoError(t, err)
	assert.Equal(t, AddressTypeWork, got)

	_, err = ParseAddressType("garage")
	assert.ErrorIs(t, err, ErrInvalidAddressType)
}

func TestNormalization(t *testing.T) {
	assert.Equal(t, "rider@example.com", NormalizeEmail("  Rider@Example.COM "))
	assert.Equal(t, "+8801712345678", NormalizePhone(" +880 1712 345678 "))
	assert.Equal(t, "Rahim Uddin", JoinFullName(" Rahim ", " Uddin"))
	assert.Equal(t, "Rahim", JoinFullName("Rahim", ""))
}

func TestUser_IsDispatchable(t *testing.T) {
	base := User{UserType: UserTypeDriver, Status: true, IsVerified: true, ServiceStatus: true}
	assert.True(t, base.IsDispatchable())

	passenger := base
	passenger.UserType = UserTypePassenger
	assert.False(t, passenger.IsDispatchable())

	offDuty := base
	offDuty.ServiceStatus = false
	assert.False(t, offDuty.IsDispatchable())

	unverified := base
	unverified.IsVerified = false
	assert.False(t, unverified.IsDispatchable())
}

func TestGeoPoint_Validate(t *testing.T) {
	tests := []struct {
		name  string
		point GeoPoint
		valid bool
	}{
		{"origin", GeoPoint{0, 0}, true},
		{"corners", GeoPoint{180, -90}, true},
		{"latitude too high", GeoPoint{0, 90.0001}, false},
		{"longitude too low", GeoPoint{-180.0001, 0}, false},
		{"nan", GeoPoint{math.NaN(), 0}, false},
		{"inf", GeoPoint{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	dhaka := GeoPoint{Longitude: 90.4125, Latitude: 23.8103}
	chattogram := GeoPoint{Longitude: 91.7832, Latitude: 22.3569}

	assert.Zero(t, dhaka.DistanceTo(dhaka))
	assert.InDelta(t, 214000, dhaka.DistanceTo(chattogram), 5000)
}

func TestNearbyQuery_Validate(t *testing.T) {
	center := GeoPoint{Longitude: 90.4, Latitude: 23.8}

	assert.NoError(t, NearbyQuery{Center: center, Radius: 100}.Validate(1000))
	assert.NoError(t, NearbyQuery{Center: center, Radius: 1000}.Validate(1000))
	assert.NoError(t, NearbyQuery{Center: center, Radius: 1e7}.Validate(0))
	assert.ErrorIs(t, NearbyQuery{Center: center, Radius: 1001}.Validate(1000), ErrInvalidRadius)
	assert.ErrorIs(t, NearbyQuery{Center: center, Radius: 0}.Validate(1000), ErrInvalidRadius)
	assert.ErrorIs(t, NearbyQuery{Center: center, Radius: math.NaN()}.Validate(1000), ErrInvalidRadius)
	assert.ErrorIs(t, NearbyQuery{Center: GeoPoint{Latitude: 99}, Radius: 10}.Validate(1000), ErrInvalidCoordinates)
}

func TestOneTimePasscode(t *testing.T) {
	now := time.Now()
	otp, err := NewOneTimePasscode(uuid.New(), now, 30*time.Minute)
	require.NoError(t, err)

	assert.Len(t, otp.Code, OTPDigits)
	for _, r := range otp.Code {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.True(t, otp.IsUsable(now))
	assert.False(t, otp.IsUsable(now.Add(30*time.Minute)))

	otp.IsVerified = true
	assert.False(t, otp.IsUsable(now))
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpireAt: now}
	assert.True(t, s.IsExpired(now))
	assert.False(t, s.IsExpired(now.Add(-time.Second)))
}

func TestError(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	wrapped := WrapError(ErrUserExists.Code, cause, ErrUserExists.Message)

	assert.ErrorIs(t, wrapped, ErrUserExists)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, ErrCategoryExists)

	chained := fmt.Errorf("register: %w", wrapped)
	assert.Equal(t, CodeConflict, CodeOf(chained))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))

	detailed := ErrInvalid.WithDetails(map[string]string{"email": "is required"})
	assert.Nil(t, ErrInvalid.Details, "WithDetails copies")
	assert.ErrorIs(t, detailed, ErrInvalid)

	assert.Equal(t, http.StatusTooManyRequests, CodeRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, CodeNotVerified.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("MYSTERY").HTTPStatus())
}
