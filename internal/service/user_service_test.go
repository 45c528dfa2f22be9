package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository/postgres"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(phone string) service.RegisterInput {
	return service.RegisterInput{
		FirstName:   "Karim",
		LastName:    "Hossain",
		Email:       "karim." + phone[len(phone)-4:] + "@example.com",
		PhoneNumber: phone,
		Gender:      "male",
	}
}

func TestUserService_Register(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, sender := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	existing, _ := testutil.NewUserBuilder().WithPhone("+8801711000001").Build(t, testDB.DB)

	tests := []struct {
		name    string
		input   service.RegisterInput
		wantErr error
	}{
		{
			name:  "new rider",
			input: registerInput("+8801711000002"),
		},
		{
			name: "phone already registered",
			input: service.RegisterInput{
				FirstName:   "Dup",
				Email:       "fresh@example.com",
				PhoneNumber: "+8801711000001",
			},
			wantErr: domain.ErrUserExists,
		},
		{
			name: "email already registered, different case",
			input: service.RegisterInput{
				FirstName:   "Dup",
				Email:       "  " + existing.Email + " ",
				PhoneNumber: "+8801711000099",
			},
			wantErr: domain.ErrUserExists,
		},
		{
			name: "bad user type",
			input: service.RegisterInput{
				Email:       "pilot@example.com",
				PhoneNumber: "+8801711000003",
				UserType:    "PILOT",
			},
			wantErr: domain.ErrInvalidUserType,
		},
		{
			name: "admin self sign-up",
			input: service.RegisterInput{
				Email:       "boss@example.com",
				PhoneNumber: "+8801711000004",
				UserType:    "Admin",
			},
			wantErr: domain.ErrAdminSignupDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentBefore := sender.Count()
			result, err := services.User.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, sentBefore, sender.Count(), "no code is sent on failure")
				return
			}

			require.NoError(t, err)
			assert.False(t, result.User.IsVerified)
			assert.False(t, result.User.HasPassword())
			assert.Equal(t, domain.UserTypeDriver, result.User.UserType)
			assert.Equal(t, "Karim Hossain", result.User.FullName)
			assert.True(t, result.OTPExpireAt.After(time.Now()))

			code := sender.LastCode(tt.input.PhoneNumber)
			assert.Len(t, code, domain.OTPDigits)

			info, err := repos.UserInfo.GetByUserID(ctx, result.User.ID)
			require.NoError(t, err)
			assert.Equal(t, "male", info.Gender)
		})
	}
}

func TestUserService_RegisterConflictLeavesNoRows(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, _ := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	_, err := services.User.Register(ctx, registerInput("+8801711000010"))
	require.NoError(t, err)

	_, err = services.User.Register(ctx, registerInput("+8801711000010"))
	assert.ErrorIs(t, err, domain.ErrUserExists)

	var users, infos, otps int64
	require.NoError(t, testDB.DB.Model(&domain.User{}).Count(&users).Error)
	require.NoError(t, testDB.DB.Model(&domain.UserInfo{}).Count(&infos).Error)
	require.NoError(t, testDB.DB.Model(&domain.OneTimePasscode{}).Count(&otps).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), infos)
	assert.Equal(t, int64(1), otps)
}

func TestUserService_VerifyOTP(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, sender := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	const phone = "+8801711000020"
	_, err := services.User.Register(ctx, registerInput(phone))
	require.NoError(t, err)
	code := sender.LastCode(phone)

	t.Run("wrong code", func(t *testing.T) {
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := services.User.VerifyOTP(ctx, phone, wrong)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("unknown phone looks like a bad code", func(t *testing.T) {
		_, err := services.User.VerifyOTP(ctx, "+8801799999999", code)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("correct code verifies", func(t *testing.T) {
		user, err := services.User.VerifyOTP(ctx, phone, code)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
	})

	t.Run("code cannot be reused", func(t *testing.T) {
		_, err := services.User.VerifyOTP(ctx, phone, code)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("verified users cannot request a new code", func(t *testing.T) {
		_, err := services.User.SendOTP(ctx, phone)
		assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
	})
}

func TestUserService_VerifyOTPExpired(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	cfg.Auth.OTPTTL = 50 * time.Millisecond
	services, sender := testutil.NewTestServices(repos, cfg, nil)
	ctx := context.Background()

	const phone = "+8801711000030"
	_, err := services.User.Register(ctx, registerInput(phone))
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	_, err = services.User.VerifyOTP(ctx, phone, sender.LastCode(phone))
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestUserService_SendOTPSupersedesPreviousCode(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, sender := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	const phone = "+8801711000040"
	result, err := services.User.Register(ctx, registerInput(phone))
	require.NoError(t, err)
	first := sender.LastCode(phone)

	_, err = services.User.SendOTP(ctx, phone)
	require.NoError(t, err)
	second := sender.LastCode(phone)
	assert.Equal(t, 2, sender.Count())

	count, err := repos.OTP.CountByUserID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	if first != second {
		_, err = services.User.VerifyOTP(ctx, phone, first)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	}

	_, err = services.User.VerifyOTP(ctx, phone, second)
	require.NoError(t, err)

	_, err = services.User.SendOTP(ctx, "+8801799999999")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_SetPassword(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, sender := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	const phone = "+8801711000050"
	_, err := services.User.Register(ctx, registerInput(phone))
	require.NoError(t, err)

	input := service.SetPasswordInput{PhoneNumber: phone, Password: "secret123", ApproveTerms: true, ApprovePrivacy: true}

	_, err = services.User.SetPassword(ctx, input)
	assert.ErrorIs(t, err, domain.ErrNotVerified)

	_, err = services.User.SetPassword(ctx, service.SetPasswordInput{PhoneNumber: "+8801799999999", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrNotVerified)

	_, err = services.User.VerifyOTP(ctx, phone, sender.LastCode(phone))
	require.NoError(t, err)

	result, err := services.User.SetPassword(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.SessionToken)
	assert.True(t, result.User.Status)
	assert.True(t, result.User.ServiceStatus)

	info, err := repos.UserInfo.GetByUserID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.True(t, info.ApproveTerms)
	assert.True(t, info.ApprovePrivacy)

	authed, err := services.Auth.AuthenticateToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, authed.ID)

	_, err = services.User.SetPassword(ctx, service.SetPasswordInput{PhoneNumber: phone, Password: "attacker1"})
	assert.ErrorIs(t, err, domain.ErrPasswordAlreadySet)

	_, err = services.Auth.AuthenticateToken(ctx, result.Token)
	assert.NoError(t, err, "a rejected set-password leaves the session alone")
	_, err = services.User.Login(ctx, service.LoginInput{Email: result.User.Email, Password: "secret123"})
	assert.NoError(t, err)
	_, err = services.User.Login(ctx, service.LoginInput{Email: result.User.Email, Password: "attacker1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserService_SetPasswordOnActiveAccount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, _ := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)
	login, err := services.User.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)

	_, err = services.User.SetPassword(ctx, service.SetPasswordInput{PhoneNumber: user.PhoneNumber, Password: "attacker1"})
	assert.ErrorIs(t, err, domain.ErrPasswordAlreadySet)

	count, err := repos.Session.CountByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	_, err = services.Auth.AuthenticateToken(ctx, login.Token)
	assert.NoError(t, err)
}

func TestUserService_Login(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	services, _ := testutil.NewTestServices(repos, cfg, nil)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)
	unverified, _ := testutil.NewUserBuilder().Unverified().Build(t, testDB.DB)

	tests := []struct {
		name      string
		input     service.LoginInput
		phoneOnly bool
		wantErr   error
	}{
		{name: "email and password", input: service.LoginInput{Email: user.Email, Password: password}},
		{name: "email is case insensitive", input: service.LoginInput{Email: " USER" + user.Email[4:], Password: password}},
		{name: "phone and password", input: service.LoginInput{PhoneNumber: user.PhoneNumber, Password: password}},
		{name: "phone only when enabled", input: service.LoginInput{PhoneNumber: user.PhoneNumber}, phoneOnly: true},
		{name: "phone only when disabled", input: service.LoginInput{PhoneNumber: user.PhoneNumber}, wantErr: domain.ErrPhoneOnlyLoginDenied},
		{name: "wrong password", input: service.LoginInput{Email: user.Email, Password: "nope"}, wantErr: domain.ErrInvalidCredentials},
		{name: "unknown email", input: service.LoginInput{Email: "ghost@example.com", Password: password}, wantErr: domain.ErrInvalidCredentials},
		{name: "email without password", input: service.LoginInput{Email: user.Email}, wantErr: domain.ErrInvalidCredentials},
		{name: "unverified phone", input: service.LoginInput{PhoneNumber: unverified.PhoneNumber}, phoneOnly: true, wantErr: domain.ErrNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Auth.PhoneOnlyLogin = tt.phoneOnly
			result, err := services.User.Login(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotEmpty(t, result.Token)
		})
	}

	_, err := services.User.Login(ctx, service.LoginInput{})
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestUserService_LoginReplacesSession(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, _ := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)

	first, err := services.User.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)
	second, err := services.User.Login(ctx, service.LoginInput{Email: user.Email, Password: password})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionToken, second.SessionToken)

	count, err := repos.Session.CountByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserService_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	services, sender := testutil.NewTestServices(repos, testutil.TestConfig(), nil)
	ctx := context.Background()

	input := service.CreateUserInput{
		FirstName:   "Admin",
		Email:       "ops@example.com",
		PhoneNumber: "+8801711000060",
		Password:    "secret123",
		UserType:    "admin",
	}
	_, err := services.User.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrAdminSignupDenied)

	user, err := services.User.CreateAdmin(ctx, input)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.True(t, user.IsAdmin())
	assert.Zero(t, sender.Count())

	input.UserType = "passenger"
	_, err = services.User.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrUserExists)

	input.Email = "rider@example.com"
	input.PhoneNumber = "+8801711000061"
	rider, err := services.User.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, domain.UserTypePassenger, rider.UserType)

	input.Password = ""
	input.Email = "other@example.com"
	_, err = services.User.Create(ctx, input)
	assert.ErrorIs(t, err, domain.ErrPasswordRequired)
}
