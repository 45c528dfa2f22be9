package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/ridecore/internal/api"
	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/metrics"
	"github.com/dom/ridecore/internal/notify"
	"github.com/dom/ridecore/internal/ratelimit"
	"github.com/dom/ridecore/internal/repository"
	repoPostgres "github.com/dom/ridecore/internal/repository/postgres"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PostGIS is required by the user_locations migration.
const postgisImage = "postgis/postgis:16-3.4-alpine"

// TestDB manages a testcontainers PostgreSQL+PostGIS instance with the
// embedded migrations applied.
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		postgisImage,
		tcPostgres.WithDatabase("test_ridecore"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := repoPostgres.NewConnection(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		AutoMigrate:     true,
		LogLevel:        "silent",
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to database: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
	t.Cleanup(testDB.Cleanup)

	return testDB
}

func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		_ = repoPostgres.Close(tdb.DB)
	}
	if tdb.Container != nil {
		_ = tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"user_locations",
		"user_addresses",
		"user_infos",
		"otps",
		"sessions",
		"users",
		"categories",
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if err := tdb.DB.Exec(stmt).Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Environment:    config.EnvTest,
			AllowedOrigins: []string{"*"},
		},
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret-key-for-testing-only",
			ExpirationHours: 1,
		},
		Auth: config.AuthConfig{
			BcryptCost:     bcrypt.MinCost,
			SessionTTL:     24 * time.Hour,
			OTPTTL:         30 * time.Minute,
			PhoneOnlyLogin: true,
		},
		RateLimit: config.RateLimitConfig{
			Window:          time.Minute,
			IPLimit:         1000,
			IdentifierLimit: 1000,
		},
		Proximity: config.ProximityConfig{
			MaxResults:      50,
			MaxRadiusMeters: 100000,
		},
		Notify:  config.NotifyConfig{Channel: "log"},
		Janitor: config.JanitorConfig{Schedule: "@every 1h"},
		Log:     config.LogConfig{Level: "debug", Format: "json"},
	}
}

// RecordingSender captures OTP deliveries so tests can read the code that
// would have been sent out of band.
type RecordingSender struct {
	mu       sync.Mutex
	messages []notify.OTPMessage
}

func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

func (s *RecordingSender) SendOTP(_ context.Context, msg notify.OTPMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// LastCode returns the most recent code sent to phone, or "".
func (s *RecordingSender) LastCode(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].PhoneNumber == phone {
			return s.messages[i].Code
		}
	}
	return ""
}

func (s *RecordingSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// NewTestServices wires services over repos with a recording sender.
func NewTestServices(repos *repository.Repositories, cfg *config.Config, publisher service.LocationPublisher) (*service.Services, *RecordingSender) {
	sender := NewRecordingSender()
	return service.NewServices(repos, cfg, sender, publisher, logger.Nop()), sender
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Sender   *RecordingSender
	Hub      *websocket.Hub
	Config   *config.Config
}

type ServerOption func(*config.Config)

// WithRateLimit tightens the limits used by the rate limited routes.
func WithRateLimit(ipLimit, identifierLimit int) ServerOption {
	return func(cfg *config.Config) {
		cfg.RateLimit.IPLimit = ipLimit
		cfg.RateLimit.IdentifierLimit = identifierLimit
	}
}

func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	repos := repoPostgres.NewRepositories(testDB.DB)
	hub := websocket.NewHub(websocket.HubOptions{Metrics: metrics.New()})
	go hub.Run()

	services, sender := NewTestServices(repos, cfg, hub)
	router := api.NewRouter(api.RouterDeps{
		Config:         cfg,
		Services:       services,
		Hub:            hub,
		RateLimitStore: ratelimit.NewMemoryStore(),
		Logger:         logger.Nop(),
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Sender:   sender,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/api/ws?token=%s", wsURL, token)
}
