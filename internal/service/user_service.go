package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/notify"
	"github.com/dom/ridecore/internal/repository"
	"github.com/google/uuid"
)

type UserService struct {
	repos  *repository.Repositories
	auth   *AuthService
	sender notify.Sender
	cfg    *config.Config
	logg   *logger.Logger
	now    func() time.Time
}

func NewUserService(repos *repository.Repositories, auth *AuthService, sender notify.Sender, cfg *config.Config, logg *logger.Logger) *UserService {
	return &UserService{
		repos:  repos,
		auth:   auth,
		sender: sender,
		cfg:    cfg,
		logg:   logg,
		now:    time.Now,
	}
}

type CreateUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	UserType    string
}

// Create adds a fully active, verified driver or passenger in one step.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	userType, err := domain.ParseSignupUserType(input.UserType)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, input, userType)
}

// CreateAdmin is Create for administrators. No HTTP route reaches it.
func (s *UserService) CreateAdmin(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	return s.create(ctx, input, domain.UserTypeAdmin)
}

func (s *UserService) create(ctx context.Context, input CreateUserInput, userType domain.UserType) (*domain.User, error) {
	if input.Password == "" {
		return nil, domain.ErrPasswordRequired
	}
	email := domain.NormalizeEmail(input.Email)
	phone := domain.NormalizePhone(input.PhoneNumber)

	exists, err := s.repos.User.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:            uuid.New(),
		Identity:      uuid.NewString(),
		Email:         email,
		PhoneNumber:   phone,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		FullName:      domain.JoinFullName(input.FirstName, input.LastName),
		PasswordHash:  &hash,
		IsVerified:    true,
		Status:        true,
		ServiceStatus: true,
		UserType:      userType,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Gender      string
	UserType    string
}

type RegisterResult struct {
	User        *domain.User
	OTPExpireAt time.Time
}

// Register is the first phase of sign-up: an unverified, passwordless user
// plus an info stub and a fresh passcode, all in one transaction. The code
// is delivered after commit.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	userType, err := domain.ParseSignupUserType(input.UserType)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)
	phone := domain.NormalizePhone(input.PhoneNumber)

	user := &domain.User{
		ID:          uuid.New(),
		Identity:    uuid.NewString(),
		Email:       email,
		PhoneNumber: phone,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		FullName:    domain.JoinFullName(input.FirstName, input.LastName),
		UserType:    userType,
	}
	var otp *domain.OneTimePasscode

	err = s.repos.Tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		exists, err := repos.User.ExistsByEmailOrPhone(ctx, email, phone)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrUserExists
		}
		if err := repos.User.Create(ctx, user); err != nil {
			return err
		}
		if err := repos.UserInfo.Create(ctx, &domain.UserInfo{
			ID:     uuid.New(),
			UserID: user.ID,
			Gender: input.Gender,
		}); err != nil {
			return err
		}
		otp, err = s.issueOTP(ctx, repos, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deliverOTP(ctx, user, otp)
	return &RegisterResult{User: user, OTPExpireAt: otp.ExpireAt}, nil
}

// SendOTP issues a replacement passcode for an unverified user.
func (s *UserService) SendOTP(ctx context.Context, phoneNumber string) (time.Time, error) {
	user, err := s.repos.User.GetByPhone(ctx, domain.NormalizePhone(phoneNumber))
	if err != nil {
		return time.Time{}, err
	}
	if user.IsVerified {
		return time.Time{}, domain.ErrAlreadyVerified
	}

	var otp *domain.OneTimePasscode
	err = s.repos.Tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		var err error
		otp, err = s.issueOTP(ctx, repos, user.ID)
		return err
	})
	if err != nil {
		return time.Time{}, err
	}

	s.deliverOTP(ctx, user, otp)
	return otp.ExpireAt, nil
}

// VerifyOTP consumes a matching code and marks the user verified. Unknown
// phones and wrong, expired or used codes are indistinguishable.
func (s *UserService) VerifyOTP(ctx context.Context, phoneNumber, code string) (*domain.User, error) {
	var user *domain.User
	err := s.repos.Tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByPhone(ctx, domain.NormalizePhone(phoneNumber))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrInvalidOTP
			}
			return err
		}
		otp, err := repos.OTP.FindLatestActive(ctx, user.ID, code, s.now())
		if err != nil {
			return err
		}
		if err := repos.OTP.Consume(ctx, otp.ID); err != nil {
			return err
		}
		if err := repos.User.MarkVerified(ctx, user.ID); err != nil {
			return err
		}
		user.IsVerified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type SetPasswordInput struct {
	PhoneNumber    string
	Password       string
	ApproveTerms   bool
	ApprovePrivacy bool
}

// SetPassword completes sign-up for a verified user that has no password
// yet and opens a session.
func (s *UserService) SetPassword(ctx context.Context, input SetPasswordInput) (*AuthResult, error) {
	if input.Password == "" {
		return nil, domain.ErrPasswordRequired
	}
	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var result *AuthResult
	err = s.repos.Tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		user, err := repos.User.GetByPhone(ctx, domain.NormalizePhone(input.PhoneNumber))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrNotVerified
			}
			return err
		}
		if !user.IsVerified {
			return domain.ErrNotVerified
		}
		if user.HasPassword() {
			return domain.ErrPasswordAlreadySet
		}
		if err := repos.User.SetPassword(ctx, user.ID, hash); err != nil {
			return err
		}
		user.PasswordHash = &hash
		user.Status = true
		user.ServiceStatus = true

		if err := repos.UserInfo.UpsertConsent(ctx, user.ID, s.now()); err != nil {
			return err
		}
		result, err = s.auth.startSession(ctx, repos, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type LoginInput struct {
	Email       string
	PhoneNumber string
	Password    string
}

// Login accepts email+password, or a phone number with an optional
// password. Phone-only login is gated by configuration.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case input.Email != "":
		user, err = s.repos.User.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, err
		}
		if input.Password == "" || !s.auth.CheckPassword(user, input.Password) {
			return nil, domain.ErrInvalidCredentials
		}

	case input.PhoneNumber != "":
		user, err = s.repos.User.GetByPhone(ctx, domain.NormalizePhone(input.PhoneNumber))
		if err != nil {
			return nil, err
		}
		if !user.IsVerified {
			return nil, domain.ErrNotVerified
		}
		if input.Password != "" {
			if !s.auth.CheckPassword(user, input.Password) {
				return nil, domain.ErrInvalidCredentials
			}
		} else if !s.cfg.Auth.PhoneOnlyLogin {
			return nil, domain.ErrPhoneOnlyLoginDenied
		}

	default:
		return nil, domain.NewError(domain.CodeValidation, "email or phoneNumber is required")
	}

	var result *AuthResult
	err = s.repos.Tx.WithinTransaction(ctx, func(repos *repository.Repositories) error {
		var err error
		result, err = s.auth.startSession(ctx, repos, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UserService) issueOTP(ctx context.Context, repos *repository.Repositories, userID uuid.UUID) (*domain.OneTimePasscode, error) {
	if err := repos.OTP.DeactivateByUserID(ctx, userID); err != nil {
		return nil, err
	}
	otp, err := domain.NewOneTimePasscode(userID, s.now(), s.cfg.Auth.OTPTTL)
	if err != nil {
		return nil, err
	}
	if err := repos.OTP.Create(ctx, otp); err != nil {
		return nil, err
	}
	return otp, nil
}

// deliverOTP never fails the calling operation. The user can ask for a
// resend.
func (s *UserService) deliverOTP(ctx context.Context, user *domain.User, otp *domain.OneTimePasscode) {
	err := s.sender.SendOTP(ctx, notify.OTPMessage{
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		FullName:    user.FullName,
		Code:        otp.Code,
		ExpiresIn:   s.cfg.Auth.OTPTTL.String(),
	})
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "notify.otp_failed", err)
	}
}
