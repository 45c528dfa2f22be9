package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultPassword = "testpassword123"

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	firstName string
	lastName  string
	email     string
	phone     string
	password  string
	userType  domain.UserType
	verified  bool
	active    bool
}

// NewUserBuilder defaults to an active, verified driver with a password.
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		firstName: "Test",
		lastName:  "User " + suffix,
		email:     fmt.Sprintf("user_%s@example.com", suffix),
		phone:     fmt.Sprintf("+8801%09d", uuid.New().ID()%1_000_000_000),
		password:  DefaultPassword,
		userType:  domain.UserTypeDriver,
		verified:  true,
		active:    true,
	}
}

func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.firstName, b.lastName = first, last
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPhone(phone string) *UserBuilder {
	b.phone = phone
	return b
}

// WithPassword sets the password. An empty password stores no hash.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithType(t domain.UserType) *UserBuilder {
	b.userType = t
	return b
}

// Unverified builds a user who registered but never confirmed the OTP.
func (b *UserBuilder) Unverified() *UserBuilder {
	b.verified = false
	b.active = false
	b.password = ""
	return b
}

// Inactive keeps the user verified but out of service.
func (b *UserBuilder) Inactive() *UserBuilder {
	b.active = false
	return b
}

// Build creates the user in the database and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	user := &domain.User{
		ID:            uuid.New(),
		Identity:      uuid.NewString(),
		Email:         domain.NormalizeEmail(b.email),
		PhoneNumber:   domain.NormalizePhone(b.phone),
		FirstName:     b.firstName,
		LastName:      b.lastName,
		FullName:      domain.JoinFullName(b.firstName, b.lastName),
		IsVerified:    b.verified,
		Status:        b.active,
		ServiceStatus: b.active,
		UserType:      b.userType,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if b.password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		h := string(hash)
		user.PasswordHash = &h
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user, b.password
}

// AuthResponse matches the login and set-password bodies
type AuthResponse struct {
	Message      string       `json:"message"`
	User         *domain.User `json:"user"`
	Token        string       `json:"token"`
	SessionToken string       `json:"sessionToken"`
}

// BuildAndAuthenticate creates the user directly and logs in over HTTP.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	resp := PostJSON(t, ts.APIURL("/users/login"), "", map[string]string{
		"email":    user.Email,
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return user, authResp.Token
}

// LocationBuilder stores a user location through the repository layer.
type LocationBuilder struct {
	user  *domain.User
	point domain.GeoPoint
}

func NewLocationBuilder(user *domain.User) *LocationBuilder {
	return &LocationBuilder{user: user, point: domain.GeoPoint{Longitude: 90.4125, Latitude: 23.8103}}
}

func (b *LocationBuilder) At(lng, lat float64) *LocationBuilder {
	b.point = domain.GeoPoint{Longitude: lng, Latitude: lat}
	return b
}

func (b *LocationBuilder) Build(t *testing.T, ts *TestServer) *domain.UserLocation {
	t.Helper()
	loc, err := ts.Repos.UserLocation.Upsert(t.Context(), b.user.ID, b.point)
	if err != nil {
		t.Fatalf("failed to store location: %v", err)
	}
	return loc
}

// CategoryBuilder creates test categories
type CategoryBuilder struct {
	name   string
	icon   string
	active bool
}

func NewCategoryBuilder() *CategoryBuilder {
	return &CategoryBuilder{
		name:   "Category " + uuid.New().String()[:6],
		icon:   "https://cdn.example.com/icons/car.png",
		active: true,
	}
}

func (b *CategoryBuilder) WithName(name string) *CategoryBuilder {
	b.name = name
	return b
}

func (b *CategoryBuilder) Inactive() *CategoryBuilder {
	b.active = false
	return b
}

func (b *CategoryBuilder) Build(t *testing.T, db *gorm.DB) *domain.Category {
	t.Helper()

	category := &domain.Category{
		CategoryName: b.name,
		Icon:         b.icon,
		Type:         domain.DefaultCategoryType,
		Status:       true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	if !b.active {
		if err := db.Model(category).Update("status", false).Error; err != nil {
			t.Fatalf("failed to deactivate category: %v", err)
		}
		category.Status = false
	}
	return category
}

// DoJSON sends body as JSON with an optional bearer token.
func DoJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	return resp
}

func PostJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return DoJSON(t, http.MethodPost, url, token, body)
}

func Get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return DoJSON(t, http.MethodGet, url, token, nil)
}
