//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser creates a new account and returns the auth token and user ID.
func (env *TestEnv) RegisterUser(email, password string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterUser: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterUser: decode: %v", err)
	}
	return result.Token, result.UserID
}

// LoginUser authenticates an existing user and returns the auth token.
func (env *TestEnv) LoginUser(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("LoginUser: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("LoginUser: decode: %v", err)
	}
	return result.Token
}

// CreateAdmin inserts an admin user directly and returns an admin-realm token.
func (env *TestEnv) CreateAdmin(email string) (token string, adminID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adminID = uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.DefaultCost)
	if err != nil {
		env.t.Fatalf("CreateAdmin: hash: %v", err)
	}

	_, err = env.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role) VALUES ($1, $2, $3, $4)`,
		adminID, email, string(hash), domain.RoleAdmin)
	if err != nil {
		env.t.Fatalf("CreateAdmin: insert: %v", err)
	}

	token, err = env.JWTMgr.GenerateToken(auth.RealmAdmin, adminID, email, domain.RoleAdmin)
	if err != nil {
		env.t.Fatalf("CreateAdmin: token: %v", err)
	}
	return token, adminID
}

// TrackSession posts a tracking event with default device signals.
func (env *TestEnv) TrackSession(token string, signals map[string]interface{}) *http.Response {
	env.t.Helper()
	if signals == nil {
		signals = DefaultSignals()
	}
	return env.POST("/security/sessions/track", map[string]interface{}{
		"device_signals": signals,
	}, token)
}

// TrackSessionFrom posts a tracking event that appears to originate from ip,
// via the forwarded-for header the handler trusts for client addressing.
func (env *TestEnv) TrackSessionFrom(token, ip string, signals map[string]interface{}) *http.Response {
	env.t.Helper()
	if signals == nil {
		signals = DefaultSignals()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{
		"device_signals": signals,
	}); err != nil {
		env.t.Fatalf("TrackSessionFrom: encode: %v", err)
	}

	req, err := http.NewRequest("POST", env.Server.URL+"/security/sessions/track", &buf)
	if err != nil {
		env.t.Fatalf("TrackSessionFrom: new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("TrackSessionFrom: %v", err)
	}
	return resp
}

// DefaultSignals returns a plausible desktop signal bundle.
func DefaultSignals() map[string]interface{} {
	return map[string]interface{}{
		"platform":      "MacIntel",
		"os":            "macOS",
		"screen_width":  2560,
		"screen_height": 1440,
		"locale":        "en-US",
		"timezone":      "America/New_York",
		"is_mobile":     false,
	}
}

// IssueNonce fetches a single-use anti-replay token.
func (env *TestEnv) IssueNonce(token string) string {
	env.t.Helper()
	resp := env.AuthGET("/security/nonce", token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("IssueNonce: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Nonce string `json:"nonce"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("IssueNonce: decode: %v", err)
	}
	return result.Nonce
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	return env.do("POST", path, body, token)
}

// PATCH performs a PATCH request with optional auth token.
func (env *TestEnv) PATCH(path string, body interface{}, token string) *http.Response {
	return env.do("PATCH", path, body, token)
}

// DELETE performs a DELETE request with optional auth token.
func (env *TestEnv) DELETE(path string, token string) *http.Response {
	return env.do("DELETE", path, nil, token)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

func (env *TestEnv) do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
