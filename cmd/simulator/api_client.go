package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type AuthResponse struct {
	Message      string      `json:"message"`
	User         domain.User `json:"user"`
	Token        string      `json:"token"`
	SessionToken string      `json:"sessionToken"`
}

// CreateUser adds an active, verified user and logs it in.
func (c *APIClient) CreateUser(baseName string, userType domain.UserType) (*domain.User, string, error) {
	suffix := uuid.New().String()[:8]
	email := fmt.Sprintf("%s.%s@sim.ridecore.local", strings.ToLower(baseName), suffix)
	phone := fmt.Sprintf("+8801%09d", uuid.New().ID()%1_000_000_000)
	const password = "simulator123"

	resp, err := c.post("/users/create", map[string]string{
		"firstName":   baseName,
		"lastName":    suffix,
		"email":       email,
		"phoneNumber": phone,
		"password":    password,
		"userType":    string(userType),
	}, "")
	if err != nil {
		return nil, "", fmt.Errorf("create user request failed: %w", err)
	}
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	resp.Body.Close()

	return c.Login(email, password)
}

func (c *APIClient) Login(email, password string) (*domain.User, string, error) {
	resp, err := c.post("/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	var result AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}
	return &result.User, result.Token, nil
}

// UpdateLocation stores a position over HTTP instead of the socket.
func (c *APIClient) UpdateLocation(token string, point domain.GeoPoint) error {
	resp, err := c.post("/user-location", point, token)
	if err != nil {
		return fmt.Errorf("update location request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func (c *APIClient) Nearby(center domain.GeoPoint, distance float64) ([]domain.NearbyUser, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(center.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(center.Longitude, 'f', -1, 64))
	q.Set("distance", strconv.FormatFloat(distance, 'f', -1, 64))

	resp, err := c.get("/users/nearby-me?"+q.Encode(), "")
	if err != nil {
		return nil, fmt.Errorf("nearby request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}

	var users []domain.NearbyUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return users, nil
}

// WebSocketURL maps the http(s) base onto ws(s) for the location socket.
func (c *APIClient) WebSocketURL(token string) string {
	wsBase := "ws" + strings.TrimPrefix(c.baseURL, "http")
	return wsBase + "/ws?token=" + url.QueryEscape(token)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
}

func (c *APIClient) get(path, token string) (*http.Response, error) {
	return c.do(http.MethodGet, path, nil, token)
}

func (c *APIClient) post(path string, body any, token string) (*http.Response, error) {
	return c.do(http.MethodPost, path, body, token)
}

func (c *APIClient) do(method, path string, body any, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
