package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerResponse struct {
	Message     string    `json:"message"`
	UserID      uuid.UUID `json:"userId"`
	OTP         string    `json:"otp"`
	OTPExpireAt string    `json:"otpExpireAt"`
}

func TestUserHandler_SignUpFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	const phone = "+8801712345678"

	var registered registerResponse
	resp := testutil.PostJSON(t, ts.APIURL("/users/register"), "", map[string]string{
		"firstName":   "Nusrat",
		"lastName":    "Jahan",
		"email":       "Nusrat@Example.com",
		"phoneNumber": phone,
		"userType":    "passenger",
	})
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &registered)
	assert.NotEqual(t, uuid.Nil, registered.UserID)
	assert.Empty(t, registered.OTP, "the code is never echoed back")

	code := ts.Sender.LastCode(phone)
	require.Len(t, code, domain.OTPDigits)

	resp = testutil.PostJSON(t, ts.APIURL("/users/set-password"), "", map[string]any{
		"phoneNumber": phone,
		"password":    "secret123",
	})
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, domain.CodeNotVerified)

	resp = testutil.PostJSON(t, ts.APIURL("/users/verify-otp"), "", map[string]string{
		"phoneNumber": phone,
		"otp":         code,
	})
	var verified struct {
		Message string       `json:"message"`
		User    *domain.User `json:"user"`
	}
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &verified)
	assert.True(t, verified.User.IsVerified)

	resp = testutil.PostJSON(t, ts.APIURL("/users/verify-otp"), "", map[string]string{
		"phoneNumber": phone,
		"otp":         code,
	})
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, domain.CodeInvalidOrExpired)

	var completed testutil.AuthResponse
	resp = testutil.PostJSON(t, ts.APIURL("/users/set-password"), "", map[string]any{
		"phoneNumber":    phone,
		"password":       "secret123",
		"approveTerms":   true,
		"approvePrivacy": true,
	})
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &completed)
	require.NotEmpty(t, completed.Token)
	assert.Equal(t, "nusrat@example.com", completed.User.Email)
	assert.Equal(t, domain.UserTypePassenger, completed.User.UserType)

	var profile service.Profile
	resp = testutil.Get(t, ts.APIURL("/users/profile"), completed.Token)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &profile)
	assert.Equal(t, registered.UserID, profile.User.ID)
	require.NotNil(t, profile.Info)
	assert.True(t, profile.Info.ApproveTerms)

	var login testutil.AuthResponse
	resp = testutil.PostJSON(t, ts.APIURL("/users/login"), "", map[string]string{
		"email":    "nusrat@example.com",
		"password": "secret123",
	})
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &login)
	assert.NotEqual(t, completed.SessionToken, login.SessionToken)

	resp = testutil.PostJSON(t, ts.APIURL("/users/logout"), login.Token, nil)
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)

	resp = testutil.Get(t, ts.APIURL("/users/profile"), login.Token)
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.CodeUnauthenticated)
}

func TestUserHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)
	existing, _ := testutil.NewUserBuilder().WithPhone("+8801700000001").Build(t, ts.DB.DB)

	tests := []struct {
		name         string
		body         map[string]string
		expectedCode domain.ErrorCode
		status       int
	}{
		{
			name:   "missing first name",
			body:   map[string]string{"email": "a@example.com", "phoneNumber": "+8801700000002"},
			status: http.StatusBadRequest, expectedCode: domain.CodeValidation,
		},
		{
			name:   "bad email",
			body:   map[string]string{"firstName": "A", "email": "nope", "phoneNumber": "+8801700000003"},
			status: http.StatusBadRequest, expectedCode: domain.CodeValidation,
		},
		{
			name:   "duplicate phone",
			body:   map[string]string{"firstName": "A", "email": "b@example.com", "phoneNumber": existing.PhoneNumber},
			status: http.StatusConflict, expectedCode: domain.CodeConflict,
		},
		{
			name:   "unknown user type",
			body:   map[string]string{"firstName": "A", "email": "c@example.com", "phoneNumber": "+8801700000004", "userType": "pilot"},
			status: http.StatusBadRequest, expectedCode: domain.CodeValidation,
		},		{
			name:   "admin sign-up",
			body:   map[string]string{"firstName": "A", "email": "d@example.com", "phoneNumber": "+8801700000005", "userType": "ADMIN"},
			status: http.StatusBadRequest, expectedCode: domain.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/users/register"), "", tt.body)
			testutil.AssertErrorResponse(t, resp, tt.status, tt.expectedCode)
		})
	}
}

func TestUserHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)

	body := map[string]string{
		"firstName":   "Ops",
		"email":       "ops@example.com",
		"phoneNumber": "+8801700000010",
		"password":    "secret123",
		"userType":    "ADMIN",
	}
	resp := testutil.PostJSON(t, ts.APIURL("/users/create"), "", body)
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, domain.CodeValidation)

	var count int64
	require.NoError(t, ts.DB.DB.Model(&domain.User{}).Where("email = ?", "ops@example.com").Count(&count).Error)
	assert.Zero(t, count)

	body["userType"] = "driver"
	var created struct {
		User *domain.User `json:"user"`
	}
	resp = testutil.PostJSON(t, ts.APIURL("/users/create"), "", body)
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &created)
	require.NotNil(t, created.User)
	assert.Equal(t, domain.UserTypeDriver, created.User.UserType)
}

func TestUserHandler_SetPasswordOnCompletedAccount(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)

	resp := testutil.PostJSON(t, ts.APIURL("/users/set-password"), "", map[string]any{
		"phoneNumber":    user.PhoneNumber,
		"password":       "attacker1",
		"approveTerms":   true,
		"approvePrivacy": true,
	})
	testutil.AssertErrorResponse(t, resp, http.StatusConflict, domain.CodeConflict)

	resp = testutil.PostJSON(t, ts.APIURL("/users/login"), "", map[string]string{"email": user.Email, "password": password})
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)
}

func TestUserHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{"email and password", map[string]string{"email": user.Email, "password": password}, http.StatusOK},
		{"phone only", map[string]string{"phoneNumber": user.PhoneNumber}, http.StatusOK},
		{"wrong password", map[string]string{"email": user.Email, "password": "wrongpass"}, http.StatusUnauthorized},
		{"neither email nor phone", map[string]string{"password": password}, http.StatusBadRequest},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": password}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/users/login"), "", tt.body)
			if tt.expectedStatus != http.StatusOK {
				testutil.AssertStatusCode(t, resp, tt.expectedStatus)
				resp.Body.Close()
				return
			}
			var result testutil.AuthResponse
			testutil.AssertJSONResponse(t, resp, http.StatusOK, &result)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotEmpty(t, result.Token)
		})
	}
}

func TestUserHandler_RateLimitedLogin(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithRateLimit(100, 2))
	user, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)

	body := map[string]string{"email": user.Email, "password": "wrongpass"}
	for i := 0; i < 2; i++ {
		resp := testutil.PostJSON(t, ts.APIURL("/users/login"), "", body)
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.CodeInvalidCredentials)
	}

	resp := testutil.PostJSON(t, ts.APIURL("/users/login"), "", body)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, domain.CodeRateLimited)

	other, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	resp = testutil.PostJSON(t, ts.APIURL("/users/login"), "", map[string]string{"email": other.Email, "password": password})
	testutil.AssertJSONResponse(t, resp, http.StatusOK, nil)
}

func TestUserHandler_RateLimitedByIP(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithRateLimit(1, 100))

	resp := testutil.PostJSON(t, ts.APIURL("/users/send-otp"), "", map[string]string{"phoneNumber": "+8801799999991"})
	testutil.AssertErrorResponse(t, resp, http.StatusNotFound, domain.CodeNotFound)

	resp = testutil.PostJSON(t, ts.APIURL("/users/send-otp"), "", map[string]string{"phoneNumber": "+8801799999992"})
	testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, domain.CodeRateLimited)
}

func TestUserHandler_NearbyMe(t *testing.T) {
	ts := testutil.NewTestServer(t)

	driver, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	passenger, _ := testutil.NewUserBuilder().WithType(domain.UserTypePassenger).Build(t, ts.DB.DB)
	testutil.NewLocationBuilder(driver).At(90.4125, 23.8113).Build(t, ts)
	testutil.NewLocationBuilder(passenger).At(90.4125, 23.8123).Build(t, ts)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantUsers      []uuid.UUID
	}{
		{"all roles nearest first", "?lat=23.8103&lng=90.4125&distance=1000", http.StatusOK, []uuid.UUID{driver.ID, passenger.ID}},
		{"tight radius", "?lat=23.8103&lng=90.4125&distance=150", http.StatusOK, []uuid.UUID{driver.ID}},
		{"missing lat", "?lng=90.4125&distance=1000", http.StatusBadRequest, nil},
		{"non numeric distance", "?lat=23.8103&lng=90.4125&distance=far", http.StatusBadRequest, nil},
		{"zero distance", "?lat=23.8103&lng=90.4125&distance=0", http.StatusBadRequest, nil},
		{"latitude out of range", "?lat=123&lng=90.4125&distance=1000", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.Get(t, ts.APIURL("/users/nearby-me"+tt.query), "")
			if tt.expectedStatus != http.StatusOK {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, domain.CodeValidation)
				return
			}
			var users []domain.NearbyUser
			testutil.AssertJSONResponse(t, resp, http.StatusOK, &users)
			ids := make([]uuid.UUID, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.UserID)
			}
			assert.Equal(t, tt.wantUsers, ids)
		})
	}
}
