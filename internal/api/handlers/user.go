package handlers

import (
	"net/http"
	"time"

	"github.com/dom/ridecore/internal/api/responses"
	"github.com/dom/ridecore/internal/api/validators"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/service"
	"github.com/google/uuid"
)

type UserHandler struct {
	users     *service.UserService
	auth      *service.AuthService
	profiles  *service.ProfileService
	locations *service.LocationService
	logg      *logger.Logger
}

func NewUserHandler(services *service.Services, logg *logger.Logger) *UserHandler {
	return &UserHandler{
		users:     services.User,
		auth:      services.Auth,
		profiles:  services.Profile,
		locations: services.Location,
		logg:      logg,
	}
}

type CreateUserRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	UserType    string `json:"userType" validate:"omitempty,max=20"`
}

type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
	Gender      string `json:"gender" validate:"max=20"`
	UserType    string `json:"userType" validate:"omitempty,max=20"`
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=6,max=20"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
}

type SetPasswordRequest struct {
	PhoneNumber    string `json:"phoneNumber" validate:"required,min=6,max=20"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	ApproveTerms   bool   `json:"approveTerms"`
	ApprovePrivacy bool   `json:"approvePrivacy"`
}

type LoginRequest struct {
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required_without=Email,omitempty,min=6,max=20"`
	Password    string `json:"password" validate:"max=72"`
}

type UserResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type RegisterResponse struct {
	Message     string    `json:"message"`
	UserID      uuid.UUID `json:"userId"`
	OTPExpireAt time.Time `json:"otpExpireAt"`
}

type SendOTPResponse struct {
	Message     string    `json:"message"`
	PhoneNumber string    `json:"phoneNumber"`
	OTPExpireAt time.Time `json:"otpExpireAt"`
}

type AuthResponse struct {
	Message        string       `json:"message"`
	User           *domain.User `json:"user"`
	Token          string       `json:"token"`
	SessionToken   string       `json:"sessionToken"`
	TokenExpiresAt time.Time    `json:"tokenExpiresAt"`
}

func newAuthResponse(message string, result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Message:        message,
		User:           result.User,
		Token:          result.Token,
		SessionToken:   result.SessionToken,
		TokenExpiresAt: result.TokenExpiresAt,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		UserType:    req.UserType,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteCreated(w, UserResponse{Message: "User created successfully", User: user})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	result, err := h.users.Register(r.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		UserType:    req.UserType,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteCreated(w, RegisterResponse{
		Message:     "Registration successful. Please verify your phone number.",
		UserID:      result.User.ID,
		OTPExpireAt: result.OTPExpireAt,
	})
}

func (h *UserHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	expireAt, err := h.users.SendOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, SendOTPResponse{
		Message:     "OTP sent successfully",
		PhoneNumber: domain.NormalizePhone(req.PhoneNumber),
		OTPExpireAt: expireAt,
	})
}

func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	user, err := h.users.VerifyOTP(r.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, UserResponse{Message: "OTP verified successfully", User: user})
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	result, err := h.users.SetPassword(r.Context(), service.SetPasswordInput{
		PhoneNumber:    req.PhoneNumber,
		Password:       req.Password,
		ApproveTerms:   req.ApproveTerms,
		ApprovePrivacy: req.ApprovePrivacy,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteCreated(w, newAuthResponse("Registration completed successfully", result))
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validators.DecodeJSONBody(w, r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	result, err := h.users.Login(r.Context(), service.LoginInput{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, newAuthResponse("Login successful", result))
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, MessageResponse{Message: "Logout successful"})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logg)
	if !ok {
		return
	}
	profile, err := h.profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, profile)
}

// NearbyMe is public and returns every user type within the radius as a
// bare array.
func (h *UserHandler) NearbyMe(w http.ResponseWriter, r *http.Request) {
	lat, err := validators.ParseQueryFloat(r, "lat")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	lng, err := validators.ParseQueryFloat(r, "lng")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	distance, err := validators.ParseQueryFloat(r, "distance")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	nearby, err := h.locations.FindNearby(r.Context(), domain.GeoPoint{Longitude: lng, Latitude: lat}, distance, false)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	responses.WriteOK(w, nearby)
}
